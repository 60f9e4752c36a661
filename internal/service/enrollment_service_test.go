package service

import (
	"errors"
	"testing"

	"github.com/lshigami/Sifaka/internal/apperrors"
	"github.com/lshigami/Sifaka/internal/dto"
	"github.com/lshigami/Sifaka/internal/model"
	"github.com/lshigami/Sifaka/internal/testutil"
)

func TestEnrollSnapshotsLessonCountAndMaintainsCounter(t *testing.T) {
	env := newTestEnv(t)
	instructor := testutil.CreateInstructor(t, env.db, "inst@example.com")
	student := testutil.CreateStudent(t, env.db, "stu@example.com")
	course := testutil.CreatePublishedCourse(t, env.db, instructor.ID, 3)

	resp, err := env.enrollments.Enroll(dto.EnrollRequest{StudentID: student.ID, CourseID: course.ID})
	if err != nil {
		t.Fatalf("Enroll: %v", err)
	}
	if resp.TotalLessons != 3 {
		t.Fatalf("expected snapshot of 3 lessons, got %d", resp.TotalLessons)
	}
	if resp.Status != model.EnrollmentActive {
		t.Fatalf("expected active enrollment, got %s", resp.Status)
	}

	var reloaded model.Course
	if err := env.db.First(&reloaded, course.ID).Error; err != nil {
		t.Fatalf("reload course: %v", err)
	}
	if reloaded.EnrollmentCount != 1 {
		t.Fatalf("expected enrollment_count 1, got %d", reloaded.EnrollmentCount)
	}

	// Adding a lesson afterwards never changes the snapshot.
	env.db.Create(&model.Lesson{CourseID: course.ID, Title: "Late addition", OrderInCourse: 4, Published: true})
	got, err := env.enrollments.GetEnrollment(resp.ID, student.ID)
	if err != nil {
		t.Fatalf("GetEnrollment: %v", err)
	}
	if got.TotalLessons != 3 {
		t.Fatalf("snapshot must be frozen at 3, got %d", got.TotalLessons)
	}
}

func TestEnrollDuplicateIsConflict(t *testing.T) {
	env := newTestEnv(t)
	instructor := testutil.CreateInstructor(t, env.db, "inst@example.com")
	student := testutil.CreateStudent(t, env.db, "stu@example.com")
	course := testutil.CreatePublishedCourse(t, env.db, instructor.ID, 1)

	if _, err := env.enrollments.Enroll(dto.EnrollRequest{StudentID: student.ID, CourseID: course.ID}); err != nil {
		t.Fatalf("first enroll: %v", err)
	}
	_, err := env.enrollments.Enroll(dto.EnrollRequest{StudentID: student.ID, CourseID: course.ID})
	if !errors.Is(err, apperrors.ErrConflict) {
		t.Fatalf("duplicate enroll should be a conflict, got %v", err)
	}

	// The failed attempt must not bump the counter.
	var course2 model.Course
	env.db.First(&course2, course.ID)
	if course2.EnrollmentCount != 1 {
		t.Fatalf("expected enrollment_count 1 after duplicate, got %d", course2.EnrollmentCount)
	}
}

func TestEnrollRejectsDraftCourseAndNonStudents(t *testing.T) {
	env := newTestEnv(t)
	instructor := testutil.CreateInstructor(t, env.db, "inst@example.com")
	student := testutil.CreateStudent(t, env.db, "stu@example.com")

	draft := model.Course{Title: "Draft", InstructorID: instructor.ID, Status: model.CourseDraft}
	env.db.Create(&draft)
	_, err := env.enrollments.Enroll(dto.EnrollRequest{StudentID: student.ID, CourseID: draft.ID})
	if !errors.Is(err, apperrors.ErrInvalidState) {
		t.Fatalf("enrolling in a draft course should be invalid, got %v", err)
	}

	published := testutil.CreatePublishedCourse(t, env.db, instructor.ID, 1)
	_, err = env.enrollments.Enroll(dto.EnrollRequest{StudentID: instructor.ID, CourseID: published.ID})
	if !errors.Is(err, apperrors.ErrInvalidState) {
		t.Fatalf("instructors should not enroll, got %v", err)
	}

	_, err = env.enrollments.Enroll(dto.EnrollRequest{StudentID: 9999, CourseID: published.ID})
	if !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("unknown student should be not found, got %v", err)
	}
}

func TestUnenrollCascadesAndDecrementsOnce(t *testing.T) {
	env := newTestEnv(t)
	instructor := testutil.CreateInstructor(t, env.db, "inst@example.com")
	student := testutil.CreateStudent(t, env.db, "stu@example.com")
	course := testutil.CreatePublishedCourse(t, env.db, instructor.ID, 2)

	resp, err := env.enrollments.Enroll(dto.EnrollRequest{StudentID: student.ID, CourseID: course.ID})
	if err != nil {
		t.Fatalf("Enroll: %v", err)
	}
	if _, err := env.progress.RecordLessonCompletion(resp.ID, course.Lessons[0].ID, student.ID); err != nil {
		t.Fatalf("RecordLessonCompletion: %v", err)
	}

	if err := env.enrollments.Unenroll(resp.ID, student.ID); err != nil {
		t.Fatalf("Unenroll: %v", err)
	}

	var progressRows int64
	env.db.Model(&model.LessonProgress{}).Where("enrollment_id = ?", resp.ID).Count(&progressRows)
	if progressRows != 0 {
		t.Fatalf("progress rows must cascade, got %d", progressRows)
	}

	var reloaded model.Course
	env.db.First(&reloaded, course.ID)
	if reloaded.EnrollmentCount != 0 {
		t.Fatalf("expected enrollment_count 0, got %d", reloaded.EnrollmentCount)
	}

	// A second unenroll of the same row is NotFound and leaves the counter
	// alone.
	err = env.enrollments.Unenroll(resp.ID, student.ID)
	if !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("second unenroll should be not found, got %v", err)
	}
	env.db.First(&reloaded, course.ID)
	if reloaded.EnrollmentCount != 0 {
		t.Fatalf("counter must not go negative, got %d", reloaded.EnrollmentCount)
	}
}

func TestUnenrollRequiresOwnerOrAdmin(t *testing.T) {
	env := newTestEnv(t)
	instructor := testutil.CreateInstructor(t, env.db, "inst@example.com")
	student := testutil.CreateStudent(t, env.db, "stu@example.com")
	stranger := testutil.CreateStudent(t, env.db, "other@example.com")
	course := testutil.CreatePublishedCourse(t, env.db, instructor.ID, 1)

	resp, err := env.enrollments.Enroll(dto.EnrollRequest{StudentID: student.ID, CourseID: course.ID})
	if err != nil {
		t.Fatalf("Enroll: %v", err)
	}

	err = env.enrollments.Unenroll(resp.ID, stranger.ID)
	if !errors.Is(err, apperrors.ErrForbidden) {
		t.Fatalf("stranger unenroll should be forbidden, got %v", err)
	}

	admin := testutil.CreateUser(t, env.db, "Admin", "admin@example.com", model.RoleAdmin)
	if err := env.enrollments.Unenroll(resp.ID, admin.ID); err != nil {
		t.Fatalf("admin unenroll should succeed: %v", err)
	}
}

func TestListMyEnrollmentsFiltersByStatus(t *testing.T) {
	env := newTestEnv(t)
	instructor := testutil.CreateInstructor(t, env.db, "inst@example.com")
	student := testutil.CreateStudent(t, env.db, "stu@example.com")

	for i := 0; i < 2; i++ {
		course := testutil.CreatePublishedCourse(t, env.db, instructor.ID, 1)
		if _, err := env.enrollments.Enroll(dto.EnrollRequest{StudentID: student.ID, CourseID: course.ID}); err != nil {
			t.Fatalf("Enroll: %v", err)
		}
	}

	all, err := env.enrollments.ListMyEnrollments(student.ID, nil, 1, 20)
	if err != nil {
		t.Fatalf("ListMyEnrollments: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 enrollments, got %d", len(all))
	}

	completed := model.EnrollmentCompleted
	none, err := env.enrollments.ListMyEnrollments(student.ID, &completed, 1, 20)
	if err != nil {
		t.Fatalf("ListMyEnrollments filtered: %v", err)
	}
	if len(none) != 0 {
		t.Fatalf("expected no completed enrollments, got %d", len(none))
	}
}
