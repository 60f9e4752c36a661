package service

import (
	"time"

	"github.com/lshigami/Sifaka/internal/apperrors"
	"github.com/lshigami/Sifaka/internal/model"
)

// EligibilityService centralizes the authorization-adjacent business rules
// the lifecycle services consume. It operates on already-loaded entities;
// callers own identity resolution and storage access.
type EligibilityService interface {
	CanEnroll(student *model.User, course *model.Course) error
	CanViewEnrollment(requester *model.User, enrollment *model.Enrollment) error
	ExamWindowOpen(exam *model.Exam, now time.Time) error
}

type eligibilityService struct{}

func NewEligibilityService() EligibilityService {
	return &eligibilityService{}
}

func (s *eligibilityService) CanEnroll(student *model.User, course *model.Course) error {
	if student.Role != model.RoleStudent {
		return apperrors.InvalidState("only students may enroll")
	}
	if course.Status != model.CoursePublished {
		return apperrors.InvalidState("course is not published")
	}
	if course.InstructorID == student.ID {
		return apperrors.InvalidState("instructor cannot enroll in own course")
	}
	return nil
}

func (s *eligibilityService) CanViewEnrollment(requester *model.User, enrollment *model.Enrollment) error {
	if requester.ID == enrollment.StudentID || requester.Role == model.RoleAdmin {
		return nil
	}
	return apperrors.Forbidden("enrollment belongs to another student")
}

func (s *eligibilityService) ExamWindowOpen(exam *model.Exam, now time.Time) error {
	if !exam.Open(now) {
		return apperrors.Forbidden("exam is outside its open window")
	}
	return nil
}
