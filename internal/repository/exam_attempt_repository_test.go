package repository

import (
	"errors"
	"testing"
	"time"

	"github.com/lshigami/Sifaka/internal/model"
	"github.com/lshigami/Sifaka/internal/testutil"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func seedAttemptFixtures(t *testing.T, db *gorm.DB) (*model.Exam, *model.Enrollment) {
	t.Helper()
	instructor := testutil.CreateInstructor(t, db, "inst@example.com")
	student := testutil.CreateStudent(t, db, "stu@example.com")
	course := testutil.CreatePublishedCourse(t, db, instructor.ID, 1)
	exam := testutil.CreateExam(t, db, course.ID, nil)
	enrollment := testutil.CreateEnrollment(t, db, student.ID, course.ID, 1)
	return exam, enrollment
}

func TestOnlyOneInProgressAttemptPerExamAndStudent(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewExamAttemptRepository(db)
	exam, enrollment := seedAttemptFixtures(t, db)

	first := model.ExamAttempt{
		ExamID: exam.ID, StudentID: enrollment.StudentID, EnrollmentID: enrollment.ID,
		AttemptNumber: 1, Status: model.AttemptInProgress, StartedAt: time.Now(),
	}
	if err := repo.Create(&first); err != nil {
		t.Fatalf("first attempt should start: %v", err)
	}

	second := model.ExamAttempt{
		ExamID: exam.ID, StudentID: enrollment.StudentID, EnrollmentID: enrollment.ID,
		AttemptNumber: 2, Status: model.AttemptInProgress, StartedAt: time.Now(),
	}
	if err := repo.Create(&second); !errors.Is(err, gorm.ErrDuplicatedKey) {
		t.Fatalf("concurrent second attempt should hit the partial index, got %v", err)
	}

	// Once the first attempt is terminal the index no longer applies.
	ok, err := repo.Terminate(first.ID, AttemptTerminalUpdate{
		Status: model.AttemptSubmitted, SubmittedAt: time.Now(), Score: 1, MaxScore: 2, Passed: true,
	})
	if err != nil || !ok {
		t.Fatalf("terminate should succeed: ok=%v err=%v", ok, err)
	}
	if err := repo.Create(&second); err != nil {
		t.Fatalf("new attempt after terminal should start: %v", err)
	}
}

func TestTerminateIsConditionalOnInProgress(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewExamAttemptRepository(db)
	exam, enrollment := seedAttemptFixtures(t, db)

	attempt := model.ExamAttempt{
		ExamID: exam.ID, StudentID: enrollment.StudentID, EnrollmentID: enrollment.ID,
		AttemptNumber: 1, Status: model.AttemptInProgress, StartedAt: time.Now(),
	}
	if err := repo.Create(&attempt); err != nil {
		t.Fatalf("Create: %v", err)
	}

	ok, err := repo.Terminate(attempt.ID, AttemptTerminalUpdate{
		Status: model.AttemptSubmitted, SubmittedAt: time.Now(), Score: 2, MaxScore: 2, Passed: true,
	})
	if err != nil || !ok {
		t.Fatalf("first terminate should win: ok=%v err=%v", ok, err)
	}

	// A racing expiry must lose and leave the submitted result untouched.
	ok, err = repo.Terminate(attempt.ID, AttemptTerminalUpdate{
		Status: model.AttemptExpired, SubmittedAt: time.Now(), Score: 0, MaxScore: 2, Passed: false,
	})
	if err != nil {
		t.Fatalf("second terminate: %v", err)
	}
	if ok {
		t.Fatal("second terminate must report the attempt already terminal")
	}

	reloaded, err := repo.FindByID(attempt.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if reloaded.Status != model.AttemptSubmitted {
		t.Fatalf("status must remain submitted, got %s", reloaded.Status)
	}
	if reloaded.Score == nil || *reloaded.Score != 2 {
		t.Fatalf("submitted score must stand, got %v", reloaded.Score)
	}

	// Autosave against a terminal attempt is refused the same way.
	saved, err := repo.SaveAnswers(attempt.ID, datatypes.JSON([]byte(`{"1":"A"}`)))
	if err != nil {
		t.Fatalf("SaveAnswers: %v", err)
	}
	if saved {
		t.Fatal("SaveAnswers must not touch a terminal attempt")
	}
}

func TestCountTerminalIgnoresInProgress(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewExamAttemptRepository(db)
	exam, enrollment := seedAttemptFixtures(t, db)

	for i, status := range []string{model.AttemptSubmitted, model.AttemptExpired, model.AttemptInProgress} {
		attempt := model.ExamAttempt{
			ExamID: exam.ID, StudentID: enrollment.StudentID, EnrollmentID: enrollment.ID,
			AttemptNumber: i + 1, Status: status, StartedAt: time.Now(),
		}
		if err := db.Create(&attempt).Error; err != nil {
			t.Fatalf("seed attempt: %v", err)
		}
	}

	count, err := repo.CountTerminal(exam.ID, enrollment.StudentID)
	if err != nil {
		t.Fatalf("CountTerminal: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 terminal attempts, got %d", count)
	}

	terminal, err := repo.FindTerminalByExamAndStudent(exam.ID, enrollment.StudentID)
	if err != nil {
		t.Fatalf("FindTerminalByExamAndStudent: %v", err)
	}
	if len(terminal) != 2 {
		t.Fatalf("expected 2 terminal attempts, got %d", len(terminal))
	}

	inProgress, err := repo.FindInProgress()
	if err != nil {
		t.Fatalf("FindInProgress: %v", err)
	}
	if len(inProgress) != 1 {
		t.Fatalf("expected 1 in-progress attempt, got %d", len(inProgress))
	}
}
