package service

import (
	"errors"
	"testing"

	"github.com/lshigami/Sifaka/internal/apperrors"
	"github.com/lshigami/Sifaka/internal/dto"
	"github.com/lshigami/Sifaka/internal/model"
	"github.com/lshigami/Sifaka/internal/testutil"
)

func TestLessonCompletionIsIdempotentAndMonotonic(t *testing.T) {
	env := newTestEnv(t)
	instructor := testutil.CreateInstructor(t, env.db, "inst@example.com")
	student := testutil.CreateStudent(t, env.db, "stu@example.com")
	course := testutil.CreatePublishedCourse(t, env.db, instructor.ID, 4)

	enr, err := env.enrollments.Enroll(dto.EnrollRequest{StudentID: student.ID, CourseID: course.ID})
	if err != nil {
		t.Fatalf("Enroll: %v", err)
	}

	resp, err := env.progress.RecordLessonCompletion(enr.ID, course.Lessons[0].ID, student.ID)
	if err != nil {
		t.Fatalf("RecordLessonCompletion: %v", err)
	}
	if resp.Progress != 25 || resp.CompletedLessons != 1 {
		t.Fatalf("expected 25%% after 1 of 4, got %.1f%% (%d completed)", resp.Progress, resp.CompletedLessons)
	}

	// Completing the same lesson again changes nothing.
	resp, err = env.progress.RecordLessonCompletion(enr.ID, course.Lessons[0].ID, student.ID)
	if err != nil {
		t.Fatalf("duplicate completion must not error: %v", err)
	}
	if resp.Progress != 25 || resp.CompletedLessons != 1 {
		t.Fatalf("duplicate completion must not move progress, got %.1f%% (%d completed)", resp.Progress, resp.CompletedLessons)
	}

	resp, err = env.progress.RecordLessonCompletion(enr.ID, course.Lessons[1].ID, student.ID)
	if err != nil {
		t.Fatalf("RecordLessonCompletion: %v", err)
	}
	if resp.Progress != 50 {
		t.Fatalf("expected 50%%, got %.1f%%", resp.Progress)
	}
}

func TestLessonCompletionValidatesLesson(t *testing.T) {
	env := newTestEnv(t)
	instructor := testutil.CreateInstructor(t, env.db, "inst@example.com")
	student := testutil.CreateStudent(t, env.db, "stu@example.com")
	course := testutil.CreatePublishedCourse(t, env.db, instructor.ID, 1)
	other := testutil.CreatePublishedCourse(t, env.db, instructor.ID, 1)

	enr, err := env.enrollments.Enroll(dto.EnrollRequest{StudentID: student.ID, CourseID: course.ID})
	if err != nil {
		t.Fatalf("Enroll: %v", err)
	}

	_, err = env.progress.RecordLessonCompletion(enr.ID, other.Lessons[0].ID, student.ID)
	if !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("foreign lesson should be invalid input, got %v", err)
	}

	unpublished := model.Lesson{CourseID: course.ID, Title: "Hidden", OrderInCourse: 2, Published: false}
	env.db.Create(&unpublished)
	_, err = env.progress.RecordLessonCompletion(enr.ID, unpublished.ID, student.ID)
	if !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("unpublished lesson should be invalid input, got %v", err)
	}

	_, err = env.progress.RecordLessonCompletion(enr.ID, 9999, student.ID)
	if !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("unknown lesson should be not found, got %v", err)
	}
}

func TestCompletionRequiresAllLessonsAndRequiredExams(t *testing.T) {
	env := newTestEnv(t)
	instructor := testutil.CreateInstructor(t, env.db, "inst@example.com")
	student := testutil.CreateStudent(t, env.db, "stu@example.com")
	course := testutil.CreatePublishedCourse(t, env.db, instructor.ID, 2)
	exam := testutil.CreateExam(t, env.db, course.ID, nil) // required

	enr, err := env.enrollments.Enroll(dto.EnrollRequest{StudentID: student.ID, CourseID: course.ID})
	if err != nil {
		t.Fatalf("Enroll: %v", err)
	}

	// All lessons done but the required exam is not passed: still active.
	for _, lesson := range course.Lessons {
		if _, err := env.progress.RecordLessonCompletion(enr.ID, lesson.ID, student.ID); err != nil {
			t.Fatalf("RecordLessonCompletion: %v", err)
		}
	}
	got, err := env.enrollments.GetEnrollment(enr.ID, student.ID)
	if err != nil {
		t.Fatalf("GetEnrollment: %v", err)
	}
	if got.Progress != 100 {
		t.Fatalf("expected 100%% progress, got %.1f%%", got.Progress)
	}
	if got.Status != model.EnrollmentActive {
		t.Fatalf("required exam unmet, status must stay active, got %s", got.Status)
	}

	// A failing result does not complete the course.
	if err := env.progress.RecordExamResult(enr.ID, exam, 0, false); err != nil {
		t.Fatalf("RecordExamResult: %v", err)
	}
	got, _ = env.enrollments.GetEnrollment(enr.ID, student.ID)
	if got.Status != model.EnrollmentActive {
		t.Fatalf("failed exam must not complete, got %s", got.Status)
	}

	// Passing it does.
	if err := env.progress.RecordExamResult(enr.ID, exam, 2, true); err != nil {
		t.Fatalf("RecordExamResult: %v", err)
	}
	got, _ = env.enrollments.GetEnrollment(enr.ID, student.ID)
	if got.Status != model.EnrollmentCompleted {
		t.Fatalf("expected completed, got %s", got.Status)
	}
	if got.CompletedAt == nil {
		t.Fatal("completed_at must be set on transition")
	}
}

func TestNonRequiredExamDoesNotGateCompletion(t *testing.T) {
	env := newTestEnv(t)
	instructor := testutil.CreateInstructor(t, env.db, "inst@example.com")
	student := testutil.CreateStudent(t, env.db, "stu@example.com")
	course := testutil.CreatePublishedCourse(t, env.db, instructor.ID, 1)
	testutil.CreateExam(t, env.db, course.ID, func(e *model.Exam) { e.Required = false })

	enr, err := env.enrollments.Enroll(dto.EnrollRequest{StudentID: student.ID, CourseID: course.ID})
	if err != nil {
		t.Fatalf("Enroll: %v", err)
	}

	resp, err := env.progress.RecordLessonCompletion(enr.ID, course.Lessons[0].ID, student.ID)
	if err != nil {
		t.Fatalf("RecordLessonCompletion: %v", err)
	}
	if resp.Status != model.EnrollmentCompleted {
		t.Fatalf("optional exam must not block completion, got %s", resp.Status)
	}
}

func TestExamOnlyCourseCompletesThroughExam(t *testing.T) {
	env := newTestEnv(t)
	instructor := testutil.CreateInstructor(t, env.db, "inst@example.com")
	student := testutil.CreateStudent(t, env.db, "stu@example.com")
	course := testutil.CreatePublishedCourse(t, env.db, instructor.ID, 0)
	exam := testutil.CreateExam(t, env.db, course.ID, nil)

	enr, err := env.enrollments.Enroll(dto.EnrollRequest{StudentID: student.ID, CourseID: course.ID})
	if err != nil {
		t.Fatalf("Enroll: %v", err)
	}
	if enr.TotalLessons != 0 {
		t.Fatalf("expected zero-lesson snapshot, got %d", enr.TotalLessons)
	}

	if err := env.progress.RecordExamResult(enr.ID, exam, 2, true); err != nil {
		t.Fatalf("RecordExamResult: %v", err)
	}
	got, err := env.enrollments.GetEnrollment(enr.ID, student.ID)
	if err != nil {
		t.Fatalf("GetEnrollment: %v", err)
	}
	if got.Progress != 100 || got.Status != model.EnrollmentCompleted {
		t.Fatalf("exam-only course should complete, got %.1f%% %s", got.Progress, got.Status)
	}
}

func TestRecordTimeSpentAccumulatesAndRejectsNegatives(t *testing.T) {
	env := newTestEnv(t)
	instructor := testutil.CreateInstructor(t, env.db, "inst@example.com")
	student := testutil.CreateStudent(t, env.db, "stu@example.com")
	course := testutil.CreatePublishedCourse(t, env.db, instructor.ID, 1)

	enr, err := env.enrollments.Enroll(dto.EnrollRequest{StudentID: student.ID, CourseID: course.ID})
	if err != nil {
		t.Fatalf("Enroll: %v", err)
	}

	if _, err := env.progress.RecordTimeSpent(enr.ID, student.ID, 30); err != nil {
		t.Fatalf("RecordTimeSpent: %v", err)
	}
	resp, err := env.progress.RecordTimeSpent(enr.ID, student.ID, 15)
	if err != nil {
		t.Fatalf("RecordTimeSpent: %v", err)
	}
	if resp.TotalTimeSpent != 45 {
		t.Fatalf("expected 45 minutes, got %d", resp.TotalTimeSpent)
	}

	_, err = env.progress.RecordTimeSpent(enr.ID, student.ID, -5)
	if !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("negative delta should be invalid input, got %v", err)
	}
}
