package app

import (
	"fmt"
	"os"

	"github.com/englishmaster/api/api"
	"github.com/englishmaster/api/config"
	"github.com/englishmaster/api/database"
	"github.com/englishmaster/api/router"
	"github.com/englishmaster/api/services/cron"
	"gorm.io/gorm"
)

// SetupAndRunServer loads config, connects the database, starts the cron
// jobs and serves the API until the process exits.
func SetupAndRunServer() error {
	if err := config.LoadENV(); err != nil {
		return err
	}

	env, err := config.Get()
	if err != nil {
		return err
	}

	store, err := database.StartGORM()
	if err != nil {
		print("Check whether Postgres is running or not\n")
		return err
	}

	if err := store.Init(); err != nil {
		print("Failed to initialize database tables\n")
		return err
	}

	// Cron is enabled unless explicitly switched off
	var cronManager *cron.CronManager
	if os.Getenv("CRON_ENABLED") != "false" {
		db, ok := store.GetDB().(*gorm.DB)
		if !ok {
			print("Warning: Failed to get database connection for cron jobs\n")
		} else {
			cronManager = cron.NewCronManager(db)
			if err := cronManager.Start(); err != nil {
				print("Warning: Failed to start cron jobs\n")
				print("Error: ", err.Error(), "\n")
			}
		}
	}

	defer func() {
		if cronManager != nil {
			cronManager.Stop()
		}
		store.Close()
	}()

	server := api.NewAPIServer(fmt.Sprintf(":%d", env.PORT))
	app := server.GetEngine()

	router.SetupRoutes(app, store, env)

	return server.Run()
}
