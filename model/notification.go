package model

import (
	"time"

	"gorm.io/datatypes"
)

// Notification triggers
const (
	NotificationTriggerEnrollment = "enrollment"
	NotificationTriggerResend     = "resend"
)

// NotificationDelivery is an audit record of one dispatch of the enrollment
// confirmation fan-out (user email, user WhatsApp, admin email, admin
// WhatsApp). Results holds the per-channel outcome as JSON so partial
// failures stay visible instead of being swallowed.
type NotificationDelivery struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	EnrollmentID string         `gorm:"type:varchar(36);not null;index" json:"enrollment_id"`
	Trigger      string         `gorm:"type:varchar(20);not null" json:"trigger"` // enrollment, resend
	Results      datatypes.JSON `json:"results"`
	CreatedAt    time.Time      `json:"created_at"`

	// Relationships
	Enrollment Enrollment `gorm:"foreignKey:EnrollmentID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for NotificationDelivery
func (NotificationDelivery) TableName() string {
	return "notification_deliveries"
}
