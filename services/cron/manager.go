package cron

import (
	"log"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// CronManager schedules the background maintenance jobs
type CronManager struct {
	cron *cron.Cron
	db   *gorm.DB
}

// NewCronManager creates a new cron manager
func NewCronManager(db *gorm.DB) *CronManager {
	return &CronManager{
		cron: cron.New(),
		db:   db,
	}
}

// Start registers all jobs and starts the scheduler
func (m *CronManager) Start() error {
	log.Println("Starting cron jobs...")

	if err := m.registerJobs(); err != nil {
		return err
	}

	m.cron.Start()

	log.Println("Cron jobs started successfully")
	return nil
}

// Stop stops the scheduler and waits for running jobs
func (m *CronManager) Stop() {
	log.Println("Stopping cron jobs...")
	ctx := m.cron.Stop()
	<-ctx.Done()
	log.Println("Cron jobs stopped")
}

func (m *CronManager) registerJobs() error {
	// Every 30 minutes: sweep abandoned pending enrollments
	if _, err := m.cron.AddFunc("*/30 * * * *", func() {
		log.Println("[cron] sweep_stale_pending_enrollments")
		m.SweepStalePendingEnrollments()
	}); err != nil {
		return err
	}

	// Daily at 03:00: purge expired reset tokens and blacklist entries
	if _, err := m.cron.AddFunc("0 3 * * *", func() {
		log.Println("[cron] cleanup_expired_tokens")
		m.CleanupExpiredTokens()
	}); err != nil {
		return err
	}

	return nil
}
