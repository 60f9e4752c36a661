package repository

import (
	"testing"
	"time"

	"github.com/lshigami/Sifaka/internal/model"
	"github.com/lshigami/Sifaka/internal/testutil"
)

func TestLessonProgressAddHasSetSemantics(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewLessonProgressRepository(db)

	instructor := testutil.CreateInstructor(t, db, "inst@example.com")
	student := testutil.CreateStudent(t, db, "stu@example.com")
	course := testutil.CreatePublishedCourse(t, db, instructor.ID, 2)
	enrollment := testutil.CreateEnrollment(t, db, student.ID, course.ID, 2)
	lesson := course.Lessons[0]

	added, err := repo.Add(&model.LessonProgress{
		EnrollmentID: enrollment.ID, LessonID: lesson.ID, CompletedAt: time.Now(),
	})
	if err != nil || !added {
		t.Fatalf("first completion should insert: added=%v err=%v", added, err)
	}

	// A duplicate completion is absorbed, not an error.
	added, err = repo.Add(&model.LessonProgress{
		EnrollmentID: enrollment.ID, LessonID: lesson.ID, CompletedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("duplicate completion must not error: %v", err)
	}
	if added {
		t.Fatal("duplicate completion must report not-added")
	}

	count, err := repo.CountByEnrollment(enrollment.ID)
	if err != nil {
		t.Fatalf("CountByEnrollment: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected exactly 1 completion, got %d", count)
	}
}
