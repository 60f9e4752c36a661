package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/lshigami/Sifaka/internal/apperrors"
	"github.com/lshigami/Sifaka/internal/dto"
	"github.com/lshigami/Sifaka/internal/model"
	"github.com/lshigami/Sifaka/internal/repository"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// maxRecomputeRetries bounds the optimistic-lock retry loop for enrollment
// recomputation. Contention on a single enrollment is a student racing
// themselves, so a handful of retries is plenty.
const maxRecomputeRetries = 5

// ProgressService recomputes an enrollment's derived progress state from
// lesson-completion and exam-result events. All writes go through the
// enrollment's optimistic version check so a concurrently added completion
// is never lost.
type ProgressService interface {
	RecordLessonCompletion(enrollmentID, lessonID, requesterID uint) (*dto.EnrollmentResponse, error)
	RecordTimeSpent(enrollmentID, requesterID uint, minutes int) (*dto.EnrollmentResponse, error)

	// RecordExamResult upserts the policy-aggregated result for an exam and
	// re-evaluates the completion transition. Non-required exams are
	// recorded for display only and never gate completion.
	RecordExamResult(enrollmentID uint, exam *model.Exam, score float64, passed bool) error
}

type progressService struct {
	enrollmentRepo repository.EnrollmentRepository
	progressRepo   repository.LessonProgressRepository
	resultRepo     repository.ExamResultRepository
	lessonRepo     repository.LessonRepository
	userRepo       repository.UserRepository
	catalog        CourseCatalog
	eligibility    EligibilityService
}

func NewProgressService(
	enrollmentRepo repository.EnrollmentRepository,
	progressRepo repository.LessonProgressRepository,
	resultRepo repository.ExamResultRepository,
	lessonRepo repository.LessonRepository,
	userRepo repository.UserRepository,
	catalog CourseCatalog,
	eligibility EligibilityService,
) ProgressService {
	return &progressService{
		enrollmentRepo: enrollmentRepo,
		progressRepo:   progressRepo,
		resultRepo:     resultRepo,
		lessonRepo:     lessonRepo,
		userRepo:       userRepo,
		catalog:        catalog,
		eligibility:    eligibility,
	}
}

func (s *progressService) RecordLessonCompletion(enrollmentID, lessonID, requesterID uint) (*dto.EnrollmentResponse, error) {
	enrollment, err := s.loadOwned(enrollmentID, requesterID)
	if err != nil {
		return nil, err
	}

	lesson, err := s.lessonRepo.FindByID(lessonID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("lesson not found")
		}
		return nil, fmt.Errorf("loading lesson %d: %w", lessonID, err)
	}
	if lesson.CourseID != enrollment.CourseID {
		return nil, apperrors.InvalidInput("lesson does not belong to the enrolled course")
	}
	if !lesson.Published {
		return nil, apperrors.InvalidInput("lesson is not published")
	}

	// Set semantics: a duplicate completion is a no-op, not an error.
	added, err := s.progressRepo.Add(&model.LessonProgress{
		EnrollmentID: enrollmentID,
		LessonID:     lessonID,
		CompletedAt:  time.Now(),
	})
	if err != nil {
		return nil, fmt.Errorf("recording lesson completion: %w", err)
	}
	if !added {
		log.Debug().Uint("enrollmentID", enrollmentID).Uint("lessonID", lessonID).
			Msg("Lesson already completed, skipping recompute")
	}

	updated, err := s.recompute(enrollmentID, nil)
	if err != nil {
		return nil, err
	}
	completed, err := s.progressRepo.CountByEnrollment(enrollmentID)
	if err != nil {
		return nil, err
	}
	resp := toEnrollmentResponse(updated, int(completed))
	return &resp, nil
}

func (s *progressService) RecordTimeSpent(enrollmentID, requesterID uint, minutes int) (*dto.EnrollmentResponse, error) {
	if minutes < 0 {
		return nil, apperrors.InvalidInput("time spent delta must be non-negative")
	}

	enrollment, err := s.loadOwned(enrollmentID, requesterID)
	if err != nil {
		return nil, err
	}

	updated, err := s.recompute(enrollment.ID, func(e *model.Enrollment) {
		e.TotalTimeSpent += minutes
	})
	if err != nil {
		return nil, err
	}
	completed, err := s.progressRepo.CountByEnrollment(enrollmentID)
	if err != nil {
		return nil, err
	}
	resp := toEnrollmentResponse(updated, int(completed))
	return &resp, nil
}

func (s *progressService) RecordExamResult(enrollmentID uint, exam *model.Exam, score float64, passed bool) error {
	err := s.resultRepo.Upsert(&model.ExamResult{
		EnrollmentID: enrollmentID,
		ExamID:       exam.ID,
		Score:        score,
		Passed:       passed,
		Required:     exam.Required,
	})
	if err != nil {
		return fmt.Errorf("recording exam result: %w", err)
	}

	_, err = s.recompute(enrollmentID, nil)
	return err
}

func (s *progressService) loadOwned(enrollmentID, requesterID uint) (*model.Enrollment, error) {
	enrollment, err := s.enrollmentRepo.FindByID(enrollmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("enrollment not found")
		}
		return nil, fmt.Errorf("loading enrollment %d: %w", enrollmentID, err)
	}
	requester, err := s.userRepo.FindByID(requesterID)
	if err != nil {
		return nil, apperrors.Forbidden("unknown requester")
	}
	if err := s.eligibility.CanViewEnrollment(requester, enrollment); err != nil {
		return nil, err
	}
	return enrollment, nil
}

// recompute reloads the enrollment, applies the optional mutation, derives
// progress and the completion transition, and writes back under the version
// check. A lost race reloads and tries again, so concurrent recomputes
// converge instead of overwriting each other.
func (s *progressService) recompute(enrollmentID uint, mutate func(*model.Enrollment)) (*model.Enrollment, error) {
	for i := 0; i < maxRecomputeRetries; i++ {
		enrollment, err := s.enrollmentRepo.FindByID(enrollmentID)
		if err != nil {
			return nil, fmt.Errorf("reloading enrollment %d: %w", enrollmentID, err)
		}

		if mutate != nil {
			mutate(enrollment)
		}

		completed, err := s.progressRepo.CountByEnrollment(enrollmentID)
		if err != nil {
			return nil, err
		}
		enrollment.Progress = deriveProgress(int(completed), enrollment.TotalLessons)

		if enrollment.Status == model.EnrollmentActive && enrollment.Progress >= 100 {
			satisfied, err := s.requiredExamsSatisfied(enrollment)
			if err != nil {
				return nil, err
			}
			if satisfied {
				now := time.Now()
				enrollment.Status = model.EnrollmentCompleted
				enrollment.CompletedAt = &now
			}
		}

		ok, err := s.enrollmentRepo.SaveVersioned(enrollment)
		if err != nil {
			return nil, fmt.Errorf("saving enrollment %d: %w", enrollmentID, err)
		}
		if ok {
			return enrollment, nil
		}
		log.Debug().Uint("enrollmentID", enrollmentID).Int("retry", i+1).
			Msg("Enrollment version conflict, retrying recompute")
	}
	return nil, fmt.Errorf("enrollment %d: too many concurrent updates", enrollmentID)
}

func (s *progressService) requiredExamsSatisfied(enrollment *model.Enrollment) (bool, error) {
	required, err := s.catalog.RequiredPublishedExams(enrollment.CourseID)
	if err != nil {
		return false, err
	}
	if len(required) == 0 {
		return true, nil
	}

	results, err := s.resultRepo.FindByEnrollment(enrollment.ID)
	if err != nil {
		return false, err
	}
	passed := make(map[uint]bool, len(results))
	for _, r := range results {
		if r.Passed {
			passed[r.ExamID] = true
		}
	}
	for _, exam := range required {
		if !passed[exam.ID] {
			return false, nil
		}
	}
	return true, nil
}

// deriveProgress caps at 100 and treats a course with no published lessons
// at enrollment time as fully progressed, so exam-only courses can complete.
func deriveProgress(completed, total int) float64 {
	if total <= 0 {
		return 100
	}
	progress := float64(completed) / float64(total) * 100
	if progress > 100 {
		return 100
	}
	return progress
}
