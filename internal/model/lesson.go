package model

import (
	"time"

	"gorm.io/gorm"
)

type Lesson struct {
	ID            uint           `gorm:"primarykey" json:"id"`
	CourseID      uint           `json:"course_id" gorm:"not null;index"`
	Title         string         `json:"title" gorm:"not null"`
	OrderInCourse int            `json:"order_in_course" gorm:"not null"`
	Published     bool           `json:"published" gorm:"not null;default:false"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}
