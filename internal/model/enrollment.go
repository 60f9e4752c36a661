package model

import (
	"time"
)

const (
	EnrollmentActive    = "active"
	EnrollmentCompleted = "completed"
	EnrollmentSuspended = "suspended"
	EnrollmentExpired   = "expired"
)

// Enrollment is one student's relationship to one course. The
// (student_id, course_id) pair is unique at the storage layer so concurrent
// duplicate enroll requests cannot both succeed. Rows are hard-deleted on
// unenroll together with their progress and attempt rows.
type Enrollment struct {
	ID        uint   `gorm:"primarykey" json:"id"`
	StudentID uint   `json:"student_id" gorm:"not null;uniqueIndex:idx_student_course"`
	CourseID  uint   `json:"course_id" gorm:"not null;uniqueIndex:idx_student_course"`
	Student   User   `json:"student,omitempty" gorm:"foreignKey:StudentID"`
	Course    Course `json:"course,omitempty" gorm:"foreignKey:CourseID"`

	Status string `json:"status" gorm:"not null;default:'active'"` // "active", "completed", "suspended", "expired"

	// TotalLessons is the published-lesson count snapshotted at enrollment
	// time; later course edits never change it.
	TotalLessons int `json:"total_lessons" gorm:"not null"`

	// Progress is derived: completed / TotalLessons * 100, capped at 100.
	Progress       float64    `json:"progress" gorm:"not null;default:0"`
	TotalTimeSpent int        `json:"total_time_spent" gorm:"not null;default:0"` // minutes
	CompletedAt    *time.Time `json:"completed_at,omitempty"`

	// PaymentRef is an audit-only reference to an external payment.
	PaymentRef *string `json:"payment_ref,omitempty"`

	// Certificate block. CertificateIssued flips false->true exactly once;
	// the snapshot fields are frozen at issuance and never recalculated.
	CertificateIssued        bool       `json:"certificate_issued" gorm:"not null;default:false"`
	CertificateID            *string    `json:"certificate_id,omitempty" gorm:"uniqueIndex"`
	CertificateIssuedAt      *time.Time `json:"certificate_issued_at,omitempty"`
	CertificateURL           *string    `json:"certificate_url,omitempty"`
	SnapshotTotalLessons     *int       `json:"snapshot_total_lessons,omitempty"`
	SnapshotCompletedLessons *int       `json:"snapshot_completed_lessons,omitempty"`
	SnapshotDate             *time.Time `json:"snapshot_date,omitempty"`

	// Version is the optimistic-lock counter for progress recomputation.
	Version   int       `json:"-" gorm:"not null;default:0"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LessonProgress is the completedLessons set, one row per completed lesson.
// The composite unique index makes re-completion idempotent and concurrent
// completions lossless.
type LessonProgress struct {
	ID           uint      `gorm:"primarykey" json:"id"`
	EnrollmentID uint      `json:"enrollment_id" gorm:"not null;uniqueIndex:idx_enrollment_lesson"`
	LessonID     uint      `json:"lesson_id" gorm:"not null;uniqueIndex:idx_enrollment_lesson"`
	CompletedAt  time.Time `json:"completed_at"`
}

// ExamResult is the authoritative per-exam outcome for an enrollment,
// aggregated over terminal attempts by the exam's scoring policy. Required
// results gate completion; non-required ones are informational.
type ExamResult struct {
	ID           uint      `gorm:"primarykey" json:"id"`
	EnrollmentID uint      `json:"enrollment_id" gorm:"not null;uniqueIndex:idx_enrollment_exam"`
	ExamID       uint      `json:"exam_id" gorm:"not null;uniqueIndex:idx_enrollment_exam"`
	Score        float64   `json:"score" gorm:"not null"`
	Passed       bool      `json:"passed" gorm:"not null"`
	Required     bool      `json:"required" gorm:"not null"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
