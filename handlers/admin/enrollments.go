package admin

import (
	"errors"
	"strconv"

	"github.com/englishmaster/api/model"
	"github.com/englishmaster/api/services"
	"github.com/englishmaster/api/utils/response"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// AdminHandler serves the admin console endpoints
type AdminHandler struct {
	db            *gorm.DB
	notifications *services.NotificationService
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(db *gorm.DB, notifications *services.NotificationService) *AdminHandler {
	return &AdminHandler{
		db:            db,
		notifications: notifications,
	}
}

// ListEnrollments returns enrollments newest first with pagination and an
// optional free-text search over the contact snapshot and course name.
// GET /api/v1/admin/enrollments?page=1&limit=20&search=gramm&status=completed
func (h *AdminHandler) ListEnrollments(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	search := c.Query("search")
	status := c.Query("status")

	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	query := h.db.Model(&model.Enrollment{})
	if status != "" {
		query = query.Where("payment_status = ?", status)
	}

	// Search filters in memory over the snapshot fields, the same matching
	// the console's live search box does. Paging then applies to the
	// filtered set.
	if search != "" {
		var all []model.Enrollment
		if err := query.Preload("Course").Order("enrolled_at DESC").Find(&all).Error; err != nil {
			return response.InternalServerError(c, "Failed to fetch enrollments")
		}

		matched := make([]model.Enrollment, 0, len(all))
		for _, e := range all {
			if e.MatchesSearch(search) {
				matched = append(matched, e)
			}
		}

		total := int64(len(matched))
		start := (page - 1) * limit
		if start > len(matched) {
			start = len(matched)
		}
		end := start + limit
		if end > len(matched) {
			end = len(matched)
		}

		return response.Paginated(c, matched[start:end], response.CalculatePagination(page, limit, total))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return response.InternalServerError(c, "Failed to count enrollments")
	}

	var enrollments []model.Enrollment
	err := query.
		Preload("Course").
		Order("enrolled_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&enrollments).
		Error
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch enrollments")
	}

	return response.Paginated(c, enrollments, response.CalculatePagination(page, limit, total))
}

// GetEnrollment returns one enrollment with its notification delivery history.
// GET /api/v1/admin/enrollments/:id
func (h *AdminHandler) GetEnrollment(c *fiber.Ctx) error {
	id := c.Params("id")

	var enrollment model.Enrollment
	if err := h.db.Preload("Course").First(&enrollment, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NotFound(c, "Enrollment not found")
		}
		return response.InternalServerError(c, "Failed to fetch enrollment")
	}

	var deliveries []model.NotificationDelivery
	if err := h.db.Where("enrollment_id = ?", id).Order("created_at DESC").Find(&deliveries).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch notification history")
	}

	return response.Success(c, fiber.Map{
		"enrollment":    enrollment,
		"notifications": deliveries,
	})
}

// ResendNotifications re-runs the confirmation fan-out for one completed
// enrollment.
// POST /api/v1/admin/enrollments/:id/resend
func (h *AdminHandler) ResendNotifications(c *fiber.Ctx) error {
	id := c.Params("id")

	var enrollment model.Enrollment
	if err := h.db.First(&enrollment, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NotFound(c, "Enrollment not found")
		}
		return response.InternalServerError(c, "Failed to fetch enrollment")
	}

	if enrollment.PaymentStatus != model.PaymentStatusCompleted {
		return response.Conflict(c, "Notifications can only be resent for completed enrollments")
	}

	var course model.Course
	if err := h.db.First(&course, enrollment.CourseID).Error; err != nil {
		// Course deleted since enrollment; message copy falls back to the snapshot
		course = model.Course{ID: enrollment.CourseID, Name: enrollment.CourseName, Price: enrollment.CoursePrice}
	}

	summary, err := h.notifications.ResendEnrollmentConfirmations(c.Context(), &enrollment, &course)
	if err != nil {
		if errors.Is(err, services.ErrAllChannelsFailed) {
			return response.ErrorWithDetails(c, fiber.StatusBadGateway,
				"All notification channels failed", "NOTIFICATIONS_FAILED", "")
		}
		return response.InternalServerError(c, "Failed to resend notifications")
	}

	return response.SuccessWithMessage(c, "Notifications resent", summary)
}
