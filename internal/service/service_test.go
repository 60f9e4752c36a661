package service

import (
	"testing"

	"github.com/lshigami/Sifaka/internal/notification"
	"github.com/lshigami/Sifaka/internal/renderer"
	"github.com/lshigami/Sifaka/internal/repository"
	"github.com/lshigami/Sifaka/internal/testutil"
	"gorm.io/gorm"
)

// testEnv wires the full service graph against an in-memory database, the
// log-only dispatcher and the local certificate renderer.
type testEnv struct {
	db *gorm.DB

	enrollmentRepo repository.EnrollmentRepository
	progressRepo   repository.LessonProgressRepository
	resultRepo     repository.ExamResultRepository
	attemptRepo    repository.ExamAttemptRepository

	enrollments  EnrollmentService
	progress     ProgressService
	certificates CertificateService
	attempts     AttemptService
	admin        AdminCourseService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.NewTestDB(t)

	userRepo := repository.NewUserRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	lessonRepo := repository.NewLessonRepository(db)
	examRepo := repository.NewExamRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	progressRepo := repository.NewLessonProgressRepository(db)
	resultRepo := repository.NewExamResultRepository(db)
	attemptRepo := repository.NewExamAttemptRepository(db)

	eligibility := NewEligibilityService()
	catalog := NewCourseCatalog(lessonRepo, examRepo)
	scoring := NewScoringPolicyService()
	grader := NewGraderService()
	dispatcher := notification.NewLogDispatcher()

	progress := NewProgressService(enrollmentRepo, progressRepo, resultRepo, lessonRepo, userRepo, catalog, eligibility)

	return &testEnv{
		db:             db,
		enrollmentRepo: enrollmentRepo,
		progressRepo:   progressRepo,
		resultRepo:     resultRepo,
		attemptRepo:    attemptRepo,
		enrollments:    NewEnrollmentService(enrollmentRepo, progressRepo, userRepo, courseRepo, catalog, eligibility, dispatcher, db),
		progress:       progress,
		certificates:   NewCertificateService(enrollmentRepo, progressRepo, userRepo, catalog, eligibility, renderer.NewLocalRenderer(), dispatcher),
		attempts:       NewAttemptService(attemptRepo, examRepo, enrollmentRepo, scoring, grader, progress, eligibility),
		admin:          NewAdminCourseService(userRepo, courseRepo, lessonRepo, examRepo),
	}
}
