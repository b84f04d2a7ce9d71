package model

import (
	"time"

	"gorm.io/gorm"
)

// Course levels
const (
	LevelBeginner     = "Beginner"
	LevelIntermediate = "Intermediate"
	LevelAdvanced     = "Advanced"
	LevelAllLevels    = "All Levels"
)

// Course represents a purchasable unit of instruction.
// Courses are created and edited by the seed tooling only; the API treats
// them as read-only except for the enrollment counter.
type Course struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`
	Name             string         `gorm:"not null" json:"name"`
	Description      string         `gorm:"type:text" json:"description"`
	Price            int            `gorm:"not null" json:"price"` // whole currency units (INR)
	ImageURL         string         `gorm:"type:varchar(500)" json:"image_url"`
	Duration         string         `gorm:"type:varchar(50)" json:"duration"` // e.g. "8 weeks"
	Level            string         `gorm:"type:varchar(20);index" json:"level"`
	MeetLink         string         `gorm:"type:varchar(500)" json:"meet_link,omitempty"`
	InstructorName   string         `gorm:"type:varchar(100)" json:"instructor_name"`
	InstructorAvatar string         `gorm:"type:varchar(500)" json:"instructor_avatar"`
	Lessons          int            `gorm:"default:0" json:"lessons"`
	EnrollmentCount  int            `gorm:"default:0;index" json:"enrollment_count"`

	// Relationships
	Enrollments []Enrollment `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"-"`
}

// ValidLevel reports whether level is one of the known course levels.
func ValidLevel(level string) bool {
	switch level {
	case LevelBeginner, LevelIntermediate, LevelAdvanced, LevelAllLevels:
		return true
	}
	return false
}
