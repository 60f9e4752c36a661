// Package testutil provides the in-memory database and seed fixtures shared
// by repository and service tests.
package testutil

import (
	"fmt"
	"testing"

	"github.com/lshigami/Sifaka/internal/model"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// NewTestDB opens a private in-memory sqlite database with the full schema
// migrated. TranslateError is on so unique-constraint violations surface as
// gorm.ErrDuplicatedKey exactly as they do against postgres.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	err = db.AutoMigrate(
		&model.User{},
		&model.Course{},
		&model.Lesson{},
		&model.Exam{},
		&model.ExamQuestion{},
		&model.Enrollment{},
		&model.LessonProgress{},
		&model.ExamResult{},
		&model.ExamAttempt{},
	)
	if err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

func CreateUser(t *testing.T, db *gorm.DB, name, email, role string) *model.User {
	t.Helper()
	user := model.User{Name: name, Email: email, Role: role}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("failed to create user %s: %v", email, err)
	}
	return &user
}

func CreateStudent(t *testing.T, db *gorm.DB, email string) *model.User {
	t.Helper()
	return CreateUser(t, db, "Student "+email, email, model.RoleStudent)
}

func CreateInstructor(t *testing.T, db *gorm.DB, email string) *model.User {
	t.Helper()
	return CreateUser(t, db, "Instructor "+email, email, model.RoleInstructor)
}

// CreatePublishedCourse seeds a published course with the given number of
// published lessons.
func CreatePublishedCourse(t *testing.T, db *gorm.DB, instructorID uint, lessons int) *model.Course {
	t.Helper()
	course := model.Course{
		Title:        "Test Course",
		InstructorID: instructorID,
		Status:       model.CoursePublished,
	}
	if err := db.Create(&course).Error; err != nil {
		t.Fatalf("failed to create course: %v", err)
	}
	for i := 0; i < lessons; i++ {
		lesson := model.Lesson{
			CourseID:      course.ID,
			Title:         fmt.Sprintf("Lesson %d", i+1),
			OrderInCourse: i + 1,
			Published:     true,
		}
		if err := db.Create(&lesson).Error; err != nil {
			t.Fatalf("failed to create lesson: %v", err)
		}
		course.Lessons = append(course.Lessons, lesson)
	}
	return &course
}

// CreateExam seeds a published exam with two one-point questions whose
// correct answers are "A" and "B".
func CreateExam(t *testing.T, db *gorm.DB, courseID uint, mutate func(*model.Exam)) *model.Exam {
	t.Helper()
	exam := model.Exam{
		CourseID:        courseID,
		Title:           "Test Exam",
		DurationMinutes: 30,
		TotalPoints:     2,
		PassingScore:    1,
		ScoringMethod:   model.ScoringHighest,
		Required:        true,
		Published:       true,
		Questions: []model.ExamQuestion{
			{Prompt: "Q1", CorrectAnswer: "A", Points: 1, OrderInExam: 1},
			{Prompt: "Q2", CorrectAnswer: "B", Points: 1, OrderInExam: 2},
		},
	}
	if mutate != nil {
		mutate(&exam)
	}
	if err := db.Create(&exam).Error; err != nil {
		t.Fatalf("failed to create exam: %v", err)
	}
	return &exam
}

// CreateEnrollment seeds an active enrollment with the lesson snapshot set.
func CreateEnrollment(t *testing.T, db *gorm.DB, studentID, courseID uint, totalLessons int) *model.Enrollment {
	t.Helper()
	enrollment := model.Enrollment{
		StudentID:    studentID,
		CourseID:     courseID,
		Status:       model.EnrollmentActive,
		TotalLessons: totalLessons,
	}
	if err := db.Create(&enrollment).Error; err != nil {
		t.Fatalf("failed to create enrollment: %v", err)
	}
	return &enrollment
}
