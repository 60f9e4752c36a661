package dto

// EnrollRequest creates an enrollment for a student in a course.
// PaymentRef is an optional external payment reference kept for audit only.
type EnrollRequest struct {
	StudentID  uint    `json:"student_id" binding:"required"`
	CourseID   uint    `json:"course_id" binding:"required"`
	PaymentRef *string `json:"payment_ref"`
}

type RecordTimeRequest struct {
	StudentID uint `json:"student_id" binding:"required"`
	// Minutes must be non-negative; negative deltas are rejected.
	Minutes int `json:"minutes"`
}

type StartAttemptRequest struct {
	StudentID uint `json:"student_id" binding:"required"`
}

// AnswersRequest carries answer state keyed by question ID, used both for
// autosave and for final submission.
type AnswersRequest struct {
	StudentID uint            `json:"student_id" binding:"required"`
	Answers   map[uint]string `json:"answers"`
}
