package service

import (
	"errors"
	"testing"
	"time"

	"github.com/lshigami/Sifaka/internal/apperrors"
	"github.com/lshigami/Sifaka/internal/dto"
	"github.com/lshigami/Sifaka/internal/model"
	"github.com/lshigami/Sifaka/internal/testutil"
)

func TestCreateUserRejectsDuplicateEmail(t *testing.T) {
	env := newTestEnv(t)

	user, err := env.admin.CreateUser(dto.CreateUserRequest{Name: "A", Email: "a@example.com", Role: model.RoleStudent})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if user.ID == 0 {
		t.Fatal("expected assigned user ID")
	}

	_, err = env.admin.CreateUser(dto.CreateUserRequest{Name: "B", Email: "a@example.com", Role: model.RoleStudent})
	if !errors.Is(err, apperrors.ErrConflict) {
		t.Fatalf("duplicate email should conflict, got %v", err)
	}
}

func TestCreateCourseRequiresInstructor(t *testing.T) {
	env := newTestEnv(t)
	student := testutil.CreateStudent(t, env.db, "stu@example.com")
	instructor := testutil.CreateInstructor(t, env.db, "inst@example.com")

	_, err := env.admin.CreateCourse(dto.CreateCourseRequest{Title: "C", InstructorID: student.ID})
	if !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("student-owned course should be invalid, got %v", err)
	}

	course, err := env.admin.CreateCourse(dto.CreateCourseRequest{Title: "C", InstructorID: instructor.ID})
	if err != nil {
		t.Fatalf("CreateCourse: %v", err)
	}
	if course.Status != model.CourseDraft {
		t.Fatalf("new courses start as drafts, got %s", course.Status)
	}

	published, err := env.admin.PublishCourse(course.ID)
	if err != nil {
		t.Fatalf("PublishCourse: %v", err)
	}
	if published.Status != model.CoursePublished {
		t.Fatalf("expected published, got %s", published.Status)
	}
}

func TestAddExamValidatesConfiguration(t *testing.T) {
	env := newTestEnv(t)
	instructor := testutil.CreateInstructor(t, env.db, "inst@example.com")
	course := testutil.CreatePublishedCourse(t, env.db, instructor.ID, 0)

	base := dto.CreateExamRequest{
		Title:           "Quiz",
		DurationMinutes: 20,
		PassingScore:    3,
		ScoringMethod:   model.ScoringHighest,
		Required:        true,
		Published:       true,
		Questions: []dto.ExamQuestionRequest{
			{Prompt: "Q1", CorrectAnswer: "A", Points: 1, OrderInExam: 1},
			{Prompt: "Q2", CorrectAnswer: "B", Points: 1, OrderInExam: 2},
		},
	}

	// Passing score above the derived total is rejected.
	_, err := env.admin.AddExam(course.ID, base)
	if !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("passing score above total should be invalid, got %v", err)
	}

	ok := base
	ok.PassingScore = 2
	exam, err := env.admin.AddExam(course.ID, ok)
	if err != nil {
		t.Fatalf("AddExam: %v", err)
	}
	if exam.TotalPoints != 2 {
		t.Fatalf("total points derived from questions should be 2, got %.1f", exam.TotalPoints)
	}
	if exam.ShowCorrectAnswers != model.ShowAnswersNever {
		t.Fatalf("show_correct_answers defaults to never, got %s", exam.ShowCorrectAnswers)
	}
	if len(exam.Questions) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(exam.Questions))
	}

	inverted := ok
	open := time.Now()
	closed := open.Add(-time.Hour)
	inverted.OpenAt = &open
	inverted.CloseAt = &closed
	_, err = env.admin.AddExam(course.ID, inverted)
	if !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("inverted window should be invalid, got %v", err)
	}
}
