package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Payment statuses for an enrollment. Pending is the only non-terminal
// status: a record moves to exactly one of completed or failed and never
// transitions again.
const (
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
	PaymentStatusFailed    = "failed"
)

// Enrollment records one user's attempt to purchase access to one course.
// User and course details are snapshotted at creation time and never
// refreshed from their source records, even if the course changes later.
type Enrollment struct {
	ID       string `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID   uint   `gorm:"not null;index" json:"user_id"`
	CourseID uint   `gorm:"not null;index" json:"course_id"`

	// Snapshot fields, captured when the enrollment is created
	UserName    string `gorm:"not null" json:"user_name"`
	UserEmail   string `gorm:"not null" json:"user_email"`
	UserPhone   string `gorm:"type:varchar(20)" json:"user_phone"`
	CourseName  string `gorm:"not null" json:"course_name"`
	CoursePrice int    `gorm:"not null" json:"course_price"`

	RazorpayOrderID string `gorm:"type:varchar(100);index" json:"razorpay_order_id"`
	PaymentID       string `gorm:"type:varchar(100)" json:"payment_id"`
	PaymentStatus   string `gorm:"type:varchar(20);default:'pending';index" json:"payment_status"`
	InvoiceURL      string `gorm:"type:varchar(500)" json:"invoice_url,omitempty"`

	EnrolledAt time.Time `gorm:"autoCreateTime;index" json:"enrolled_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	// Relationships
	User   User   `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Course Course `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"course,omitempty"`
}

// TableName specifies the table name for Enrollment
func (Enrollment) TableName() string {
	return "enrollments"
}

// BeforeCreate assigns a UUID primary key.
func (e *Enrollment) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	return nil
}

// IsTerminal reports whether the payment status admits no further transition.
func (e *Enrollment) IsTerminal() bool {
	return e.PaymentStatus == PaymentStatusCompleted || e.PaymentStatus == PaymentStatusFailed
}

// CanTransition reports whether an enrollment may move from one payment
// status to another. Only pending -> completed and pending -> failed exist.
func CanTransition(from, to string) bool {
	if from != PaymentStatusPending {
		return false
	}
	return to == PaymentStatusCompleted || to == PaymentStatusFailed
}

// MatchesSearch reports whether the enrollment matches a free-text search
// term across the snapshotted user name, email, phone and course name.
// Matching is a case-insensitive substring test; an empty term matches
// everything.
func (e *Enrollment) MatchesSearch(term string) bool {
	if term == "" {
		return true
	}
	needle := strings.ToLower(term)
	return strings.Contains(strings.ToLower(e.UserName), needle) ||
		strings.Contains(strings.ToLower(e.UserEmail), needle) ||
		strings.Contains(e.UserPhone, term) ||
		strings.Contains(strings.ToLower(e.CourseName), needle)
}
