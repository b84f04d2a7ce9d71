package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/englishmaster/api/model"
	"github.com/englishmaster/api/services/payment"
	"github.com/englishmaster/api/utils/auth"
)

var (
	ErrCourseNotFound      = errors.New("course not found")
	ErrEnrollmentNotFound  = errors.New("enrollment not found")
	ErrAlreadyEnrolled     = errors.New("user already has a completed enrollment for this course")
	ErrNotOwner            = errors.New("enrollment belongs to another user")
	ErrNotPending          = errors.New("enrollment is not in pending state")
	ErrVerificationFailed  = errors.New("payment verification failed")
	ErrNotificationsFailed = ErrAllChannelsFailed
)

// PaymentGateway is the payment collaborator used by the orchestrator.
type PaymentGateway interface {
	CreateOrder(ctx context.Context, amount int64, currency, receipt string, notes map[string]interface{}) (*payment.Order, error)
	VerifySignature(orderID, paymentID, signature string) bool
}

// InvoiceGenerator renders and stores the invoice for a completed enrollment.
type InvoiceGenerator interface {
	GenerateAndUpload(ctx context.Context, enrollment *model.Enrollment) (string, error)
}

// EnrollmentNotifier dispatches the confirmation fan-out.
type EnrollmentNotifier interface {
	SendEnrollmentConfirmations(ctx context.Context, enrollment *model.Enrollment, course *model.Course) (*DispatchSummary, error)
}

// StatusUpdate is the explicit field set written by a payment status
// transition. Nothing else on the record is touched.
type StatusUpdate struct {
	PaymentID     string
	PaymentStatus string
	UpdatedAt     time.Time
}

// EnrollmentStore is the persistence surface of the orchestrator.
type EnrollmentStore interface {
	GetCourse(ctx context.Context, courseID uint) (*model.Course, error)
	CreateEnrollment(ctx context.Context, enrollment *model.Enrollment) error
	GetEnrollment(ctx context.Context, id string) (*model.Enrollment, error)
	SetOrderID(ctx context.Context, id, orderID string) error
	UpdateStatus(ctx context.Context, id string, update StatusUpdate) error
	AttachInvoice(ctx context.Context, id, invoiceURL string) error
	IncrementEnrollmentCount(ctx context.Context, courseID uint) error
	HasCompletedEnrollment(ctx context.Context, userID, courseID uint) (bool, error)
	ListByUser(ctx context.Context, userID uint) ([]model.Enrollment, error)
}

// ContactDetails are the validated billing contact fields from the enroll form.
type ContactDetails struct {
	Name  string
	Email string
	Phone string
}

// CheckoutSession is returned by Begin; the client opens the payment widget
// with the order handle it carries.
type CheckoutSession struct {
	Enrollment model.Enrollment `json:"enrollment"`
	Order      payment.Order    `json:"order"`
}

// PaymentCallback carries the checkout widget's success callback fields.
type PaymentCallback struct {
	PaymentID string
	OrderID   string
	Signature string
}

// CompletionResult reports a verified completion, including the outcome of
// the best-effort follow-ups.
type CompletionResult struct {
	Enrollment    model.Enrollment `json:"enrollment"`
	InvoiceURL    string           `json:"invoice_url,omitempty"`
	Notifications *DispatchSummary `json:"notifications,omitempty"`
}

// EnrollmentService drives the paid enrollment workflow: pending record,
// payment order, verification, completion, then invoice and notifications as
// best-effort follow-ups. All steps run sequentially per request; concurrent
// workflows never share a record.
type EnrollmentService struct {
	store    EnrollmentStore
	gateway  PaymentGateway
	invoices InvoiceGenerator
	notifier EnrollmentNotifier
	currency string
}

// NewEnrollmentService creates a new enrollment service
func NewEnrollmentService(store EnrollmentStore, gateway PaymentGateway, invoices InvoiceGenerator, notifier EnrollmentNotifier) *EnrollmentService {
	return &EnrollmentService{
		store:    store,
		gateway:  gateway,
		invoices: invoices,
		notifier: notifier,
		currency: "INR",
	}
}

// Begin creates a pending enrollment with point-in-time user and course
// snapshots, then opens a payment order for it. Duplicate pending attempts
// are allowed (two tabs produce two records); only an existing completed
// enrollment for the same course is rejected.
func (s *EnrollmentService) Begin(ctx context.Context, ident auth.Identity, courseID uint, contact ContactDetails) (*CheckoutSession, error) {
	course, err := s.store.GetCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}

	enrolled, err := s.store.HasCompletedEnrollment(ctx, ident.UserID, courseID)
	if err != nil {
		return nil, err
	}
	if enrolled {
		return nil, ErrAlreadyEnrolled
	}

	enrollment := &model.Enrollment{
		UserID:        ident.UserID,
		CourseID:      course.ID,
		UserName:      contact.Name,
		UserEmail:     contact.Email,
		UserPhone:     contact.Phone,
		CourseName:    course.Name,
		CoursePrice:   course.Price,
		PaymentStatus: model.PaymentStatusPending,
	}

	if err := s.store.CreateEnrollment(ctx, enrollment); err != nil {
		return nil, fmt.Errorf("failed to create enrollment: %w", err)
	}

	// Razorpay takes the amount in paise
	amount := int64(course.Price) * 100
	receipt := payment.Receipt(ident.UserID, course.ID)
	notes := map[string]interface{}{
		"user_id":     fmt.Sprintf("%d", ident.UserID),
		"course_id":   fmt.Sprintf("%d", course.ID),
		"course_name": course.Name,
	}

	order, err := s.gateway.CreateOrder(ctx, amount, s.currency, receipt, notes)
	if err != nil {
		// The record exists, so it gets a terminal failed state rather
		// than a dangling pending one.
		s.markFailed(ctx, enrollment.ID, "")
		return nil, err
	}

	// Without the stored order id the success callback can never be bound
	// to this record, so a failed stamp is terminal too.
	enrollment.RazorpayOrderID = order.OrderID
	if err := s.store.SetOrderID(ctx, enrollment.ID, order.OrderID); err != nil {
		s.markFailed(ctx, enrollment.ID, "")
		return nil, fmt.Errorf("failed to stamp order id on enrollment: %w", err)
	}

	return &CheckoutSession{
		Enrollment: *enrollment,
		Order:      *order,
	}, nil
}

// Complete handles the checkout success callback: verify the signature, move
// the record to completed, then run the invoice and notification follow-ups.
// Follow-up failures are logged and reported in the result but never roll
// back the completed status.
func (s *EnrollmentService) Complete(ctx context.Context, ident auth.Identity, enrollmentID string, cb PaymentCallback) (*CompletionResult, error) {
	enrollment, err := s.loadOwned(ctx, ident, enrollmentID)
	if err != nil {
		return nil, err
	}

	if enrollment.PaymentStatus != model.PaymentStatusPending {
		return nil, ErrNotPending
	}

	// The callback must reference this enrollment's own order. A genuine
	// signature for some other order (e.g. a cheaper checkout by the same
	// user) must never complete this record.
	if cb.OrderID != enrollment.RazorpayOrderID {
		s.markFailed(ctx, enrollment.ID, cb.PaymentID)
		return nil, ErrVerificationFailed
	}

	if !s.gateway.VerifySignature(cb.OrderID, cb.PaymentID, cb.Signature) {
		s.markFailed(ctx, enrollment.ID, cb.PaymentID)
		return nil, ErrVerificationFailed
	}

	update := StatusUpdate{
		PaymentID:     cb.PaymentID,
		PaymentStatus: model.PaymentStatusCompleted,
		UpdatedAt:     time.Now(),
	}
	if err := s.store.UpdateStatus(ctx, enrollment.ID, update); err != nil {
		return nil, fmt.Errorf("failed to complete enrollment: %w", err)
	}
	enrollment.PaymentID = cb.PaymentID
	enrollment.PaymentStatus = model.PaymentStatusCompleted

	if err := s.store.IncrementEnrollmentCount(ctx, enrollment.CourseID); err != nil {
		log.Printf("Failed to increment enrollment count for course %d: %v", enrollment.CourseID, err)
	}

	result := &CompletionResult{Enrollment: *enrollment}

	// Best-effort follow-ups: the payment has settled, so neither a failed
	// invoice nor failed notifications may undo the completed status.
	invoiceURL, err := s.invoices.GenerateAndUpload(ctx, enrollment)
	if err != nil {
		log.Printf("Invoice generation failed for enrollment %s: %v", enrollment.ID, err)
	} else {
		if err := s.store.AttachInvoice(ctx, enrollment.ID, invoiceURL); err != nil {
			log.Printf("Failed to attach invoice to enrollment %s: %v", enrollment.ID, err)
		}
		enrollment.InvoiceURL = invoiceURL
		result.InvoiceURL = invoiceURL
		result.Enrollment.InvoiceURL = invoiceURL
	}

	course, err := s.store.GetCourse(ctx, enrollment.CourseID)
	if err != nil {
		// Course deleted between payment and notification; fall back to
		// the snapshot for message copy.
		course = &model.Course{ID: enrollment.CourseID, Name: enrollment.CourseName, Price: enrollment.CoursePrice}
	}

	summary, err := s.notifier.SendEnrollmentConfirmations(ctx, enrollment, course)
	if err != nil {
		log.Printf("Notification dispatch failed for enrollment %s: %v", enrollment.ID, err)
	}
	result.Notifications = summary

	return result, nil
}

// Fail handles the checkout failure or abandonment callback.
func (s *EnrollmentService) Fail(ctx context.Context, ident auth.Identity, enrollmentID, reason string) (*model.Enrollment, error) {
	enrollment, err := s.loadOwned(ctx, ident, enrollmentID)
	if err != nil {
		return nil, err
	}

	if enrollment.PaymentStatus != model.PaymentStatusPending {
		return nil, ErrNotPending
	}

	if reason != "" {
		log.Printf("Enrollment %s failed: %s", enrollment.ID, reason)
	}

	if err := s.store.UpdateStatus(ctx, enrollment.ID, StatusUpdate{
		PaymentStatus: model.PaymentStatusFailed,
		UpdatedAt:     time.Now(),
	}); err != nil {
		return nil, fmt.Errorf("failed to mark enrollment failed: %w", err)
	}

	enrollment.PaymentStatus = model.PaymentStatusFailed
	return enrollment, nil
}

// ListMine returns the caller's own enrollments, completed first, newest
// first within each group.
func (s *EnrollmentService) ListMine(ctx context.Context, ident auth.Identity) ([]model.Enrollment, error) {
	return s.store.ListByUser(ctx, ident.UserID)
}

func (s *EnrollmentService) loadOwned(ctx context.Context, ident auth.Identity, enrollmentID string) (*model.Enrollment, error) {
	enrollment, err := s.store.GetEnrollment(ctx, enrollmentID)
	if err != nil {
		return nil, err
	}

	if enrollment.UserID != ident.UserID {
		return nil, ErrNotOwner
	}

	return enrollment, nil
}

func (s *EnrollmentService) markFailed(ctx context.Context, enrollmentID, paymentID string) {
	err := s.store.UpdateStatus(ctx, enrollmentID, StatusUpdate{
		PaymentID:     paymentID,
		PaymentStatus: model.PaymentStatusFailed,
		UpdatedAt:     time.Now(),
	})
	if err != nil {
		log.Printf("Failed to mark enrollment %s failed: %v", enrollmentID, err)
	}
}
