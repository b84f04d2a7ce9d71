package database

import (
	"fmt"
	"log"
	"os"

	"github.com/englishmaster/api/model"
	"github.com/englishmaster/api/utils/auth"
	"gorm.io/gorm"
)

// Seeder handles database seeding operations
type Seeder struct {
	db *gorm.DB
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB) *Seeder {
	return &Seeder{db: db}
}

// SeedAll runs all seed functions
func (s *Seeder) SeedAll() error {
	log.Println("Starting database seeding...")

	if err := s.SeedAdminUser(); err != nil {
		return fmt.Errorf("failed to seed admin user: %w", err)
	}

	if err := s.SeedCourses(); err != nil {
		return fmt.Errorf("failed to seed courses: %w", err)
	}

	log.Println("Database seeding completed")
	return nil
}

// SeedAdminUser creates the default admin account if it does not exist.
// Password comes from ADMIN_PASSWORD; the account is skipped when unset.
func (s *Seeder) SeedAdminUser() error {
	adminEmail := os.Getenv("ADMIN_EMAIL")
	if adminEmail == "" {
		adminEmail = "admin@englishmaster.com"
	}

	var existing model.User
	if err := s.db.Where("email = ?", adminEmail).First(&existing).Error; err == nil {
		log.Printf("Admin user %s already exists, skipping", adminEmail)
		return nil
	}

	adminPassword := os.Getenv("ADMIN_PASSWORD")
	if adminPassword == "" {
		log.Println("ADMIN_PASSWORD not set, skipping admin user seed")
		return nil
	}

	hash, err := auth.HashPassword(adminPassword)
	if err != nil {
		return err
	}

	admin := model.User{
		Email:        adminEmail,
		PasswordHash: hash,
		Name:         "EnglishMaster Admin",
		Phone:        os.Getenv("ADMIN_PHONE"),
		Role:         model.RoleAdmin,
	}

	if err := s.db.Create(&admin).Error; err != nil {
		return err
	}

	log.Printf("Seeded admin user %s", adminEmail)
	return nil
}

// SeedCourses inserts the course catalog fixtures. Existing courses (matched
// by name) are left untouched so re-running the seeder is safe.
func (s *Seeder) SeedCourses() error {
	courses := []model.Course{
		{
			Name:           "Grammar Basics",
			Description:    "Master the building blocks of English grammar, from tenses to sentence structure.",
			Price:          1000,
			Duration:       "6 weeks",
			Level:          model.LevelBeginner,
			InstructorName: "Priya Sharma",
			Lessons:        18,
		},
		{
			Name:           "Conversation Skills",
			Description:    "Build fluency and confidence in everyday spoken English.",
			Price:          1500,
			Duration:       "8 weeks",
			Level:          model.LevelIntermediate,
			InstructorName: "James Carter",
			Lessons:        24,
		},
		{
			Name:           "Business English",
			Description:    "Professional communication for meetings, emails and presentations.",
			Price:          2500,
			Duration:       "10 weeks",
			Level:          model.LevelAdvanced,
			InstructorName: "Anita Desai",
			Lessons:        30,
		},
		{
			Name:           "IELTS Preparation",
			Description:    "Structured preparation for all four IELTS modules with mock tests.",
			Price:          3000,
			Duration:       "12 weeks",
			Level:          model.LevelAdvanced,
			InstructorName: "Rahul Mehta",
			Lessons:        36,
		},
		{
			Name:           "English for Everyone",
			Description:    "A flexible course covering reading, writing, listening and speaking.",
			Price:          1200,
			Duration:       "8 weeks",
			Level:          model.LevelAllLevels,
			InstructorName: "Sarah Thomas",
			Lessons:        20,
		},
	}

	for _, course := range courses {
		var existing model.Course
		err := s.db.Where("name = ?", course.Name).First(&existing).Error
		if err == nil {
			continue
		}
		if err != gorm.ErrRecordNotFound {
			return err
		}
		if err := s.db.Create(&course).Error; err != nil {
			return err
		}
		log.Printf("Seeded course %q", course.Name)
	}

	return nil
}
