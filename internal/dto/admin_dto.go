package dto

import "time"

type CreateUserRequest struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"required,email"`
	Role  string `json:"role" binding:"required,oneof=student instructor admin"`
}

type CreateCourseRequest struct {
	Title        string `json:"title" binding:"required"`
	Description  string `json:"description"`
	InstructorID uint   `json:"instructor_id" binding:"required"`
}

type CreateLessonRequest struct {
	Title         string `json:"title" binding:"required"`
	OrderInCourse int    `json:"order_in_course" binding:"required,min=1"`
	Published     bool   `json:"published"`
}

type ExamQuestionRequest struct {
	Prompt        string   `json:"prompt" binding:"required"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer" binding:"required"`
	Points        float64  `json:"points" binding:"required,gt=0"`
	OrderInExam   int      `json:"order_in_exam" binding:"required,min=1"`
}

type CreateExamRequest struct {
	Title               string                `json:"title" binding:"required"`
	DurationMinutes     int                   `json:"duration_minutes" binding:"required,min=1"`
	PassingScore        float64               `json:"passing_score" binding:"min=0"`
	OpenAt              *time.Time            `json:"open_at"`
	CloseAt             *time.Time            `json:"close_at"`
	MaxAttempts         *int                  `json:"max_attempts" binding:"omitempty,min=1"`
	ScoringMethod       string                `json:"scoring_method" binding:"required,oneof=highest latest average"`
	ShowCorrectAnswers  string                `json:"show_correct_answers" binding:"omitempty,oneof=never after_submit after_close"`
	AllowLateSubmission bool                  `json:"allow_late_submission"`
	LatePenaltyPercent  float64               `json:"late_penalty_percent" binding:"min=0,max=100"`
	Required            bool                  `json:"required"`
	Published           bool                  `json:"published"`
	Questions           []ExamQuestionRequest `json:"questions" binding:"required,min=1,dive"`
}
