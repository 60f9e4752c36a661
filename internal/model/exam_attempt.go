package model

import (
	"time"

	"gorm.io/datatypes"
)

const (
	AttemptInProgress = "in_progress"
	AttemptSubmitted  = "submitted"
	AttemptExpired    = "expired"
	AttemptAbandoned  = "abandoned"
)

// ExamAttempt is one timed try at an exam. The partial unique index on
// (exam_id, student_id) for status='in_progress' is what enforces
// at-most-one active attempt per student and exam under concurrent starts.
// Transitions out of in_progress are conditional updates; submitted,
// expired and abandoned are terminal.
type ExamAttempt struct {
	ID           uint `gorm:"primarykey" json:"id"`
	ExamID       uint `json:"exam_id" gorm:"not null;uniqueIndex:idx_attempt_active,where:status = 'in_progress'"`
	StudentID    uint `json:"student_id" gorm:"not null;uniqueIndex:idx_attempt_active,where:status = 'in_progress'"`
	EnrollmentID uint `json:"enrollment_id" gorm:"not null;index"`

	AttemptNumber int    `json:"attempt_number" gorm:"not null"`
	Status        string `json:"status" gorm:"not null;default:'in_progress'"`

	StartedAt   time.Time  `json:"started_at" gorm:"not null"`
	SubmittedAt *time.Time `json:"submitted_at,omitempty"`

	// SavedAnswers is the last autosaved answer state, graded on expiry.
	SavedAnswers datatypes.JSON `json:"saved_answers,omitempty"`

	Score    *float64 `json:"score,omitempty"`
	MaxScore *float64 `json:"max_score,omitempty"`
	Passed   *bool    `json:"passed,omitempty"`
	Late     bool     `json:"late" gorm:"not null;default:false"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Terminal reports whether the attempt has left in_progress.
func (a *ExamAttempt) Terminal() bool {
	return a.Status != AttemptInProgress
}

// Deadline is the instant the attempt times out.
func (a *ExamAttempt) Deadline(durationMinutes int) time.Time {
	return a.StartedAt.Add(time.Duration(durationMinutes) * time.Minute)
}
