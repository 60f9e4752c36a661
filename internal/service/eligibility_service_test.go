package service

import (
	"testing"
	"time"

	"github.com/lshigami/Sifaka/internal/apperrors"
	"github.com/lshigami/Sifaka/internal/model"
	"github.com/stretchr/testify/assert"
)

func TestCanEnrollRules(t *testing.T) {
	eligibility := NewEligibilityService()
	student := &model.User{ID: 1, Role: model.RoleStudent}
	instructor := &model.User{ID: 2, Role: model.RoleInstructor}
	published := &model.Course{ID: 10, InstructorID: 2, Status: model.CoursePublished}
	draft := &model.Course{ID: 11, InstructorID: 2, Status: model.CourseDraft}

	assert.NoError(t, eligibility.CanEnroll(student, published))

	err := eligibility.CanEnroll(instructor, published)
	assert.ErrorIs(t, err, apperrors.ErrInvalidState)

	err = eligibility.CanEnroll(student, draft)
	assert.ErrorIs(t, err, apperrors.ErrInvalidState)

	ownCourse := &model.Course{ID: 12, InstructorID: 1, Status: model.CoursePublished}
	err = eligibility.CanEnroll(student, ownCourse)
	assert.ErrorIs(t, err, apperrors.ErrInvalidState)
}

func TestCanViewEnrollmentOwnerAndAdminOnly(t *testing.T) {
	eligibility := NewEligibilityService()
	enrollment := &model.Enrollment{ID: 5, StudentID: 1}

	owner := &model.User{ID: 1, Role: model.RoleStudent}
	admin := &model.User{ID: 9, Role: model.RoleAdmin}
	stranger := &model.User{ID: 3, Role: model.RoleStudent}

	assert.NoError(t, eligibility.CanViewEnrollment(owner, enrollment))
	assert.NoError(t, eligibility.CanViewEnrollment(admin, enrollment))
	assert.ErrorIs(t, eligibility.CanViewEnrollment(stranger, enrollment), apperrors.ErrForbidden)
}

func TestExamWindowOpen(t *testing.T) {
	eligibility := NewEligibilityService()
	now := time.Now()
	opensAt := now.Add(-time.Hour)
	closesAt := now.Add(time.Hour)

	inWindow := &model.Exam{OpenAt: &opensAt, CloseAt: &closesAt}
	assert.NoError(t, eligibility.ExamWindowOpen(inWindow, now))

	notYet := &model.Exam{OpenAt: &closesAt}
	assert.ErrorIs(t, eligibility.ExamWindowOpen(notYet, now), apperrors.ErrForbidden)

	closed := &model.Exam{CloseAt: &opensAt}
	assert.ErrorIs(t, eligibility.ExamWindowOpen(closed, now), apperrors.ErrForbidden)

	unbounded := &model.Exam{}
	assert.NoError(t, eligibility.ExamWindowOpen(unbounded, now))
}
