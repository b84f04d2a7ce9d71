package cron

import (
	"log"
	"time"

	"github.com/englishmaster/api/model"
)

// stalePendingAge is how long a pending enrollment may sit before the sweep
// considers its checkout abandoned. The payment widget resolves within
// minutes; a day covers every legitimate retry window.
const stalePendingAge = 24 * time.Hour

// SweepStalePendingEnrollments marks abandoned pending enrollments as failed.
// A user who walked away mid-checkout never triggers the failure callback,
// so their record would otherwise stay pending forever.
func (m *CronManager) SweepStalePendingEnrollments() {
	cutoff := time.Now().Add(-stalePendingAge)

	result := m.db.
		Model(&model.Enrollment{}).
		Where("payment_status = ? AND enrolled_at < ?", model.PaymentStatusPending, cutoff).
		Select("payment_status", "updated_at").
		Updates(model.Enrollment{
			PaymentStatus: model.PaymentStatusFailed,
			UpdatedAt:     time.Now(),
		})

	if result.Error != nil {
		log.Printf("Failed to sweep stale pending enrollments: %v", result.Error)
		return
	}

	if result.RowsAffected > 0 {
		log.Printf("Swept %d stale pending enrollments to failed", result.RowsAffected)
	}
}

// CleanupExpiredTokens purges expired password reset tokens and JWT
// blacklist entries.
func (m *CronManager) CleanupExpiredTokens() {
	now := time.Now()

	if err := m.db.Unscoped().
		Where("expires_at < ?", now).
		Delete(&model.PasswordResetToken{}).Error; err != nil {
		log.Printf("Failed to purge expired reset tokens: %v", err)
	}

	if err := m.db.Unscoped().
		Where("expires_at < ?", now).
		Delete(&model.JWTTokenBlacklist{}).Error; err != nil {
		log.Printf("Failed to purge expired blacklist entries: %v", err)
	}
}
