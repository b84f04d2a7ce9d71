package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/englishmaster/api/model"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ErrAllChannelsFailed is returned when none of the notification channels
// accepted the message.
var ErrAllChannelsFailed = errors.New("all notification channels failed")

// Notification channels
const (
	ChannelUserEmail     = "user_email"
	ChannelUserWhatsApp  = "user_whatsapp"
	ChannelAdminEmail    = "admin_email"
	ChannelAdminWhatsApp = "admin_whatsapp"
)

// EmailSender sends a templated email to one recipient.
type EmailSender interface {
	SendTemplate(ctx context.Context, to, subject, templateID string, data map[string]interface{}) error
}

// MessageSender sends a template message to one phone number.
type MessageSender interface {
	SendTemplate(ctx context.Context, to, templateName string, data map[string]interface{}) error
}

// ChannelResult records the outcome of one delivery channel.
type ChannelResult struct {
	Channel string `json:"channel"`
	OK      bool   `json:"ok"`
	Error   string `json:"error,omitempty"`
}

// DispatchSummary is the per-channel outcome of one confirmation fan-out.
// Partial failures are visible here instead of being swallowed.
type DispatchSummary struct {
	EnrollmentID string          `json:"enrollment_id"`
	Results      []ChannelResult `json:"results"`
}

// Succeeded returns the number of channels that accepted the message.
func (s *DispatchSummary) Succeeded() int {
	n := 0
	for _, r := range s.Results {
		if r.OK {
			n++
		}
	}
	return n
}

// NotificationService fires the enrollment confirmation fan-out: user email,
// user WhatsApp, admin email, admin WhatsApp. The four sends run in a bounded
// group; each outcome is recorded individually and the whole dispatch only
// errors when every channel fails.
type NotificationService struct {
	db         *gorm.DB
	email      EmailSender
	whatsapp   MessageSender
	adminEmail string
	adminPhone string
}

// NewNotificationService creates a new notification service
func NewNotificationService(db *gorm.DB, email EmailSender, whatsapp MessageSender, adminEmail, adminPhone string) *NotificationService {
	return &NotificationService{
		db:         db,
		email:      email,
		whatsapp:   whatsapp,
		adminEmail: adminEmail,
		adminPhone: adminPhone,
	}
}

// SendEnrollmentConfirmations dispatches all four confirmation messages for a
// completed enrollment. The course argument supplies the current course name
// for message copy; amounts come from the enrollment snapshot.
func (s *NotificationService) SendEnrollmentConfirmations(ctx context.Context, enrollment *model.Enrollment, course *model.Course) (*DispatchSummary, error) {
	return s.dispatch(ctx, enrollment, course, model.NotificationTriggerEnrollment)
}

// ResendEnrollmentConfirmations re-runs the confirmation fan-out for one
// enrollment, triggered manually from the admin console.
func (s *NotificationService) ResendEnrollmentConfirmations(ctx context.Context, enrollment *model.Enrollment, course *model.Course) (*DispatchSummary, error) {
	return s.dispatch(ctx, enrollment, course, model.NotificationTriggerResend)
}

func (s *NotificationService) dispatch(ctx context.Context, enrollment *model.Enrollment, course *model.Course, trigger string) (*DispatchSummary, error) {
	enrollmentDate := enrollment.EnrolledAt.Format("02/01/2006")

	userData := map[string]interface{}{
		"userName":       enrollment.UserName,
		"courseName":     course.Name,
		"amount":         enrollment.CoursePrice,
		"enrollmentId":   enrollment.ID,
		"paymentId":      enrollment.PaymentID,
		"enrollmentDate": enrollmentDate,
	}
	adminData := map[string]interface{}{
		"userName":       enrollment.UserName,
		"userEmail":      enrollment.UserEmail,
		"userPhone":      enrollment.UserPhone,
		"courseName":     course.Name,
		"amount":         enrollment.CoursePrice,
		"enrollmentId":   enrollment.ID,
		"paymentId":      enrollment.PaymentID,
		"enrollmentDate": enrollmentDate,
	}

	sends := []struct {
		channel string
		fn      func(context.Context) error
	}{
		{ChannelUserEmail, func(ctx context.Context) error {
			subject := fmt.Sprintf("Your Enrollment in %s is Confirmed!", course.Name)
			return s.email.SendTemplate(ctx, enrollment.UserEmail, subject, "enrollment-confirmation", userData)
		}},
		{ChannelUserWhatsApp, func(ctx context.Context) error {
			return s.whatsapp.SendTemplate(ctx, enrollment.UserPhone, "enrollment_confirmation", map[string]interface{}{
				"userName":     enrollment.UserName,
				"courseName":   course.Name,
				"enrollmentId": enrollment.ID,
			})
		}},
		{ChannelAdminEmail, func(ctx context.Context) error {
			subject := fmt.Sprintf("New Enrollment: %s", course.Name)
			return s.email.SendTemplate(ctx, s.adminEmail, subject, "admin-enrollment-notification", adminData)
		}},
		{ChannelAdminWhatsApp, func(ctx context.Context) error {
			return s.whatsapp.SendTemplate(ctx, s.adminPhone, "admin_enrollment_notification", map[string]interface{}{
				"userName":     enrollment.UserName,
				"courseName":   course.Name,
				"enrollmentId": enrollment.ID,
				"amount":       enrollment.CoursePrice,
			})
		}},
	}

	results := make([]ChannelResult, len(sends))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(len(sends))
	for i, send := range sends {
		i, send := i, send
		g.Go(func() error {
			if err := send.fn(gctx); err != nil {
				log.Printf("Notification channel %s failed for enrollment %s: %v", send.channel, enrollment.ID, err)
				results[i] = ChannelResult{Channel: send.channel, OK: false, Error: err.Error()}
				return nil // one channel failing must not cancel the others
			}
			results[i] = ChannelResult{Channel: send.channel, OK: true}
			return nil
		})
	}
	_ = g.Wait()

	summary := &DispatchSummary{
		EnrollmentID: enrollment.ID,
		Results:      results,
	}

	s.record(ctx, summary, trigger)

	if summary.Succeeded() == 0 {
		return summary, ErrAllChannelsFailed
	}

	return summary, nil
}

// record persists the dispatch outcome for the admin console audit trail.
// Best-effort: a failed write is logged, not propagated.
func (s *NotificationService) record(ctx context.Context, summary *DispatchSummary, trigger string) {
	if s.db == nil {
		return
	}

	resultsJSON, err := json.Marshal(summary.Results)
	if err != nil {
		log.Printf("Failed to marshal notification results for enrollment %s: %v", summary.EnrollmentID, err)
		return
	}

	delivery := model.NotificationDelivery{
		EnrollmentID: summary.EnrollmentID,
		Trigger:      trigger,
		Results:      datatypes.JSON(resultsJSON),
		CreatedAt:    time.Now(),
	}

	if err := s.db.WithContext(ctx).Create(&delivery).Error; err != nil {
		log.Printf("Failed to record notification delivery for enrollment %s: %v", summary.EnrollmentID, err)
	}
}
