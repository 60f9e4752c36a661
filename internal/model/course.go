package model

import (
	"time"

	"gorm.io/gorm"
)

const (
	CourseDraft     = "draft"
	CoursePublished = "published"
	CourseArchived  = "archived"
)

type Course struct {
	ID           uint   `gorm:"primarykey" json:"id"`
	Title        string `json:"title" gorm:"not null"`
	Description  string `json:"description,omitempty"`
	InstructorID uint   `json:"instructor_id" gorm:"not null;index"`
	Instructor   User   `json:"instructor,omitempty" gorm:"foreignKey:InstructorID"`
	Status       string `json:"status" gorm:"not null;default:'draft'"` // "draft", "published", "archived"

	// EnrollmentCount is a cached counter maintained by the enrollment
	// service; incremented on enroll and idempotently decremented on
	// unenroll.
	EnrollmentCount int `json:"enrollment_count" gorm:"not null;default:0"`

	Lessons   []Lesson       `json:"lessons,omitempty" gorm:"foreignKey:CourseID"`
	Exams     []Exam         `json:"exams,omitempty" gorm:"foreignKey:CourseID"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
