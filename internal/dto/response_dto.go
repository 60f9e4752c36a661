package dto

import "time"

type ErrorResponse struct {
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
}

type EnrollmentResponse struct {
	ID                uint       `json:"id"`
	StudentID         uint       `json:"student_id"`
	CourseID          uint       `json:"course_id"`
	CourseTitle       string     `json:"course_title,omitempty"`
	Status            string     `json:"status"`
	TotalLessons      int        `json:"total_lessons"`
	CompletedLessons  int        `json:"completed_lessons"`
	Progress          float64    `json:"progress"`
	TotalTimeSpent    int        `json:"total_time_spent"`
	CompletedAt       *time.Time `json:"completed_at,omitempty"`
	CertificateIssued bool       `json:"certificate_issued"`
	CreatedAt         time.Time  `json:"created_at"`
}

type AttemptResponse struct {
	ID            uint       `json:"id"`
	ExamID        uint       `json:"exam_id"`
	StudentID     uint       `json:"student_id"`
	AttemptNumber int        `json:"attempt_number"`
	Status        string     `json:"status"`
	StartedAt     time.Time  `json:"started_at"`
	SubmittedAt   *time.Time `json:"submitted_at,omitempty"`
	Score         *float64   `json:"score,omitempty"`
	MaxScore      *float64   `json:"max_score,omitempty"`
	Passed        *bool      `json:"passed,omitempty"`
	Late          bool       `json:"late"`
}

// ExamResultResponse is the policy-aggregated outcome across all terminal
// attempts, not any single attempt's score.
type ExamResultResponse struct {
	ExamID        uint    `json:"exam_id"`
	ScoringMethod string  `json:"scoring_method"`
	FinalScore    float64 `json:"final_score"`
	PassingScore  float64 `json:"passing_score"`
	Passed        bool    `json:"passed"`
	AttemptsUsed  int     `json:"attempts_used"`
}

type CertificateResponse struct {
	CertificateID    string    `json:"certificate_id"`
	CertificateURL   string    `json:"certificate_url"`
	EnrollmentID     uint      `json:"enrollment_id"`
	StudentName      string    `json:"student_name"`
	CourseTitle      string    `json:"course_title"`
	InstructorName   string    `json:"instructor_name"`
	IssuedAt         time.Time `json:"issued_at"`
	TotalLessons     int       `json:"total_lessons"`
	CompletedLessons int       `json:"completed_lessons"`
	SnapshotDate     time.Time `json:"snapshot_date"`
}

// CertificatePublicView is the unauthenticated verification payload. It is
// field-for-field consistent with CertificateResponse for the same
// certificate.
type CertificatePublicView struct {
	CertificateID    string    `json:"certificate_id"`
	StudentName      string    `json:"student_name"`
	CourseTitle      string    `json:"course_title"`
	InstructorName   string    `json:"instructor_name"`
	IssuedAt         time.Time `json:"issued_at"`
	TotalLessons     int       `json:"total_lessons"`
	CompletedLessons int       `json:"completed_lessons"`
	SnapshotDate     time.Time `json:"snapshot_date"`
}

// ContentDriftResponse reports whether course content grew after the
// certificate snapshot was frozen.
type ContentDriftResponse struct {
	EnrollmentID         uint `json:"enrollment_id"`
	SnapshotTotalLessons int  `json:"snapshot_total_lessons"`
	CurrentTotalLessons  int  `json:"current_total_lessons"`
	HasNewContent        bool `json:"has_new_content"`
}

type CourseResponse struct {
	ID              uint      `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description,omitempty"`
	InstructorID    uint      `json:"instructor_id"`
	Status          string    `json:"status"`
	EnrollmentCount int       `json:"enrollment_count"`
	CreatedAt       time.Time `json:"created_at"`
}
