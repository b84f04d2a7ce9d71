package admin

import (
	"time"

	"github.com/englishmaster/api/model"
	"github.com/englishmaster/api/utils/response"
	"github.com/gofiber/fiber/v2"
)

// StatsResponse is the admin dashboard summary
type StatsResponse struct {
	TotalUsers           int64 `json:"total_users"`
	TotalCourses         int64 `json:"total_courses"`
	TotalEnrollments     int64 `json:"total_enrollments"`
	CompletedEnrollments int64 `json:"completed_enrollments"`
	PendingEnrollments   int64 `json:"pending_enrollments"`
	FailedEnrollments    int64 `json:"failed_enrollments"`
	RevenueTotal         int64 `json:"revenue_total"`
	EnrollmentsLast30d   int64 `json:"enrollments_last_30d"`
}

// GetStats returns the dashboard counters.
// GET /api/v1/admin/stats
func (h *AdminHandler) GetStats(c *fiber.Ctx) error {
	var stats StatsResponse

	if err := h.db.Model(&model.User{}).Count(&stats.TotalUsers).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch stats")
	}
	if err := h.db.Model(&model.Course{}).Count(&stats.TotalCourses).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch stats")
	}
	if err := h.db.Model(&model.Enrollment{}).Count(&stats.TotalEnrollments).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch stats")
	}

	counts := map[string]*int64{
		model.PaymentStatusCompleted: &stats.CompletedEnrollments,
		model.PaymentStatusPending:   &stats.PendingEnrollments,
		model.PaymentStatusFailed:    &stats.FailedEnrollments,
	}
	for status, dest := range counts {
		if err := h.db.Model(&model.Enrollment{}).
			Where("payment_status = ?", status).
			Count(dest).Error; err != nil {
			return response.InternalServerError(c, "Failed to fetch stats")
		}
	}

	// Revenue sums the price snapshots of completed enrollments
	var revenue struct{ Total int64 }
	if err := h.db.Model(&model.Enrollment{}).
		Select("COALESCE(SUM(course_price), 0) AS total").
		Where("payment_status = ?", model.PaymentStatusCompleted).
		Scan(&revenue).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch stats")
	}
	stats.RevenueTotal = revenue.Total

	since := time.Now().AddDate(0, 0, -30)
	if err := h.db.Model(&model.Enrollment{}).
		Where("payment_status = ? AND enrolled_at >= ?", model.PaymentStatusCompleted, since).
		Count(&stats.EnrollmentsLast30d).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch stats")
	}

	return response.Success(c, stats)
}
