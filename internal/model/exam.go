package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	ScoringHighest = "highest"
	ScoringLatest  = "latest"
	ScoringAverage = "average"
)

const (
	ShowAnswersNever       = "never"
	ShowAnswersAfterSubmit = "after_submit"
	ShowAnswersAfterClose  = "after_close"
)

// Exam is read-mostly configuration; authoring owns writes, the attempt
// state machine only reads it.
type Exam struct {
	ID              uint   `gorm:"primarykey" json:"id"`
	CourseID        uint   `json:"course_id" gorm:"not null;index"`
	Title           string `json:"title" gorm:"not null"`
	DurationMinutes int    `json:"duration_minutes" gorm:"not null"`
	TotalPoints     float64 `json:"total_points" gorm:"not null"`
	PassingScore    float64 `json:"passing_score" gorm:"not null"`

	OpenAt  *time.Time `json:"open_at,omitempty"`
	CloseAt *time.Time `json:"close_at,omitempty"`

	// MaxAttempts nil means unlimited.
	MaxAttempts *int `json:"max_attempts,omitempty"`

	ScoringMethod       string  `json:"scoring_method" gorm:"not null;default:'highest'"` // "highest", "latest", "average"
	ShowCorrectAnswers  string  `json:"show_correct_answers" gorm:"not null;default:'never'"`
	AllowLateSubmission bool    `json:"allow_late_submission" gorm:"not null;default:false"`
	LatePenaltyPercent  float64 `json:"late_penalty_percent" gorm:"not null;default:0"` // 0..100

	// Required exams gate enrollment completion; non-required passes are
	// informational only.
	Required  bool `json:"required" gorm:"not null;default:true"`
	Published bool `json:"published" gorm:"not null;default:false"`

	Questions []ExamQuestion `json:"questions,omitempty" gorm:"foreignKey:ExamID"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// Open reports whether the exam accepts new attempts at t.
func (e *Exam) Open(t time.Time) bool {
	if e.OpenAt != nil && t.Before(*e.OpenAt) {
		return false
	}
	if e.CloseAt != nil && t.After(*e.CloseAt) {
		return false
	}
	return true
}

type ExamQuestion struct {
	ID            uint           `gorm:"primarykey" json:"id"`
	ExamID        uint           `json:"exam_id" gorm:"not null;index"`
	Prompt        string         `json:"prompt" gorm:"type:text;not null"`
	Options       datatypes.JSON `json:"options,omitempty"`
	CorrectAnswer string         `json:"-" gorm:"not null"`
	Points        float64        `json:"points" gorm:"not null"`
	OrderInExam   int            `json:"order_in_exam" gorm:"not null"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}
