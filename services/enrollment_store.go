package services

import (
	"context"
	"time"

	"github.com/englishmaster/api/model"
	"gorm.io/gorm"
)

// GormEnrollmentStore is the Postgres-backed EnrollmentStore. Status writes
// select their fields explicitly so a transition can never clobber the
// snapshot columns.
type GormEnrollmentStore struct {
	db *gorm.DB
}

// NewGormEnrollmentStore creates a new GORM-backed enrollment store
func NewGormEnrollmentStore(db *gorm.DB) *GormEnrollmentStore {
	return &GormEnrollmentStore{db: db}
}

func (s *GormEnrollmentStore) GetCourse(ctx context.Context, courseID uint) (*model.Course, error) {
	var course model.Course
	if err := s.db.WithContext(ctx).First(&course, courseID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrCourseNotFound
		}
		return nil, err
	}
	return &course, nil
}

func (s *GormEnrollmentStore) CreateEnrollment(ctx context.Context, enrollment *model.Enrollment) error {
	return s.db.WithContext(ctx).Create(enrollment).Error
}

func (s *GormEnrollmentStore) GetEnrollment(ctx context.Context, id string) (*model.Enrollment, error) {
	var enrollment model.Enrollment
	if err := s.db.WithContext(ctx).First(&enrollment, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrEnrollmentNotFound
		}
		return nil, err
	}
	return &enrollment, nil
}

func (s *GormEnrollmentStore) SetOrderID(ctx context.Context, id, orderID string) error {
	return s.db.WithContext(ctx).
		Model(&model.Enrollment{}).
		Where("id = ?", id).
		Select("razorpay_order_id", "updated_at").
		Updates(model.Enrollment{RazorpayOrderID: orderID, UpdatedAt: time.Now()}).
		Error
}

func (s *GormEnrollmentStore) UpdateStatus(ctx context.Context, id string, update StatusUpdate) error {
	return s.db.WithContext(ctx).
		Model(&model.Enrollment{}).
		Where("id = ?", id).
		Select("payment_id", "payment_status", "updated_at").
		Updates(model.Enrollment{
			PaymentID:     update.PaymentID,
			PaymentStatus: update.PaymentStatus,
			UpdatedAt:     update.UpdatedAt,
		}).
		Error
}

func (s *GormEnrollmentStore) AttachInvoice(ctx context.Context, id, invoiceURL string) error {
	return s.db.WithContext(ctx).
		Model(&model.Enrollment{}).
		Where("id = ?", id).
		Select("invoice_url", "updated_at").
		Updates(model.Enrollment{InvoiceURL: invoiceURL, UpdatedAt: time.Now()}).
		Error
}

func (s *GormEnrollmentStore) IncrementEnrollmentCount(ctx context.Context, courseID uint) error {
	return s.db.WithContext(ctx).
		Model(&model.Course{}).
		Where("id = ?", courseID).
		UpdateColumn("enrollment_count", gorm.Expr("enrollment_count + ?", 1)).
		Error
}

func (s *GormEnrollmentStore) HasCompletedEnrollment(ctx context.Context, userID, courseID uint) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&model.Enrollment{}).
		Where("user_id = ? AND course_id = ? AND payment_status = ?", userID, courseID, model.PaymentStatusCompleted).
		Count(&count).
		Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *GormEnrollmentStore) ListByUser(ctx context.Context, userID uint) ([]model.Enrollment, error) {
	var enrollments []model.Enrollment
	err := s.db.WithContext(ctx).
		Preload("Course").
		Where("user_id = ?", userID).
		Order("(payment_status = 'completed') DESC, enrolled_at DESC").
		Find(&enrollments).
		Error
	return enrollments, err
}
