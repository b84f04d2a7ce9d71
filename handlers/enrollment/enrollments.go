package enrollment

import (
	"errors"

	"github.com/englishmaster/api/services"
	"github.com/englishmaster/api/utils/middleware"
	"github.com/englishmaster/api/utils/response"
	"github.com/englishmaster/api/utils/validation"
	"github.com/gofiber/fiber/v2"
)

// EnrollmentHandler serves the paid enrollment workflow
type EnrollmentHandler struct {
	enrollments *services.EnrollmentService
	validator   *validation.Validator
}

// NewEnrollmentHandler creates a new enrollment handler
func NewEnrollmentHandler(enrollments *services.EnrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{
		enrollments: enrollments,
		validator:   validation.NewValidator(),
	}
}

// BeginRequest is the enroll form payload
type BeginRequest struct {
	CourseID uint   `json:"course_id" validate:"required"`
	Name     string `json:"name" validate:"required,min=2"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"required,phone"`
}

// VerifyRequest carries the payment widget's success callback fields
type VerifyRequest struct {
	RazorpayPaymentID string `json:"razorpay_payment_id" validate:"required"`
	RazorpayOrderID   string `json:"razorpay_order_id" validate:"required"`
	RazorpaySignature string `json:"razorpay_signature" validate:"required"`
}

// FailRequest carries the optional failure reason from the widget
type FailRequest struct {
	Reason string `json:"reason"`
}

// Begin creates a pending enrollment and opens a payment order for it.
// POST /api/v1/enrollments
func (h *EnrollmentHandler) Begin(c *fiber.Ctx) error {
	ident, ok := middleware.GetIdentity(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	var req BeginRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	session, err := h.enrollments.Begin(c.Context(), ident, req.CourseID, services.ContactDetails{
		Name:  req.Name,
		Email: req.Email,
		Phone: req.Phone,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrCourseNotFound):
			return response.NotFound(c, "Course not found")
		case errors.Is(err, services.ErrAlreadyEnrolled):
			return response.Conflict(c, "You are already enrolled in this course")
		default:
			return response.InternalServerError(c, "Failed to start enrollment")
		}
	}

	return response.Created(c, session)
}

// Verify checks the payment signature and completes the enrollment.
// POST /api/v1/enrollments/:id/verify
func (h *EnrollmentHandler) Verify(c *fiber.Ctx) error {
	ident, ok := middleware.GetIdentity(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	enrollmentID := c.Params("id")
	if enrollmentID == "" {
		return response.BadRequest(c, "Enrollment ID is required")
	}

	var req VerifyRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	result, err := h.enrollments.Complete(c.Context(), ident, enrollmentID, services.PaymentCallback{
		PaymentID: req.RazorpayPaymentID,
		OrderID:   req.RazorpayOrderID,
		Signature: req.RazorpaySignature,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEnrollmentNotFound):
			return response.NotFound(c, "Enrollment not found")
		case errors.Is(err, services.ErrNotOwner):
			return response.Forbidden(c, "Enrollment belongs to another user")
		case errors.Is(err, services.ErrNotPending):
			return response.Conflict(c, "Enrollment is not awaiting payment")
		case errors.Is(err, services.ErrVerificationFailed):
			return response.PaymentRequired(c, "Payment verification failed")
		default:
			return response.InternalServerError(c, "Failed to verify payment")
		}
	}

	return response.Success(c, result)
}

// Fail marks a pending enrollment as failed after the widget reported an
// error or the user abandoned checkout.
// POST /api/v1/enrollments/:id/fail
func (h *EnrollmentHandler) Fail(c *fiber.Ctx) error {
	ident, ok := middleware.GetIdentity(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	enrollmentID := c.Params("id")
	if enrollmentID == "" {
		return response.BadRequest(c, "Enrollment ID is required")
	}

	var req FailRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	enrollment, err := h.enrollments.Fail(c.Context(), ident, enrollmentID, req.Reason)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEnrollmentNotFound):
			return response.NotFound(c, "Enrollment not found")
		case errors.Is(err, services.ErrNotOwner):
			return response.Forbidden(c, "Enrollment belongs to another user")
		case errors.Is(err, services.ErrNotPending):
			return response.Conflict(c, "Enrollment is not awaiting payment")
		default:
			return response.InternalServerError(c, "Failed to update enrollment")
		}
	}

	return response.Success(c, enrollment)
}

// ListMine returns the caller's enrollments, newest first.
// GET /api/v1/enrollments/me
func (h *EnrollmentHandler) ListMine(c *fiber.Ctx) error {
	ident, ok := middleware.GetIdentity(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	enrollments, err := h.enrollments.ListMine(c.Context(), ident)
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch enrollments")
	}

	return response.Success(c, enrollments)
}
