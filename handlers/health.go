package handlers

import (
	"github.com/englishmaster/api/database"
	"github.com/gofiber/fiber/v2"
)

// HandleCheckHealth reports process liveness and database reachability
func HandleCheckHealth(c *fiber.Ctx, store database.Storage) error {
	status := "ok"
	dbStatus := "ok"

	if err := store.HealthCheck(); err != nil {
		status = "degraded"
		dbStatus = "unreachable"
	}

	code := fiber.StatusOK
	if status != "ok" {
		code = fiber.StatusServiceUnavailable
	}

	return c.Status(code).JSON(fiber.Map{
		"status":   status,
		"database": dbStatus,
	})
}
