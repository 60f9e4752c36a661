package service

import (
	"errors"
	"fmt"

	"github.com/jinzhu/copier"
	"github.com/lshigami/Sifaka/internal/apperrors"
	"github.com/lshigami/Sifaka/internal/dto"
	"github.com/lshigami/Sifaka/internal/model"
	"github.com/lshigami/Sifaka/internal/notification"
	"github.com/lshigami/Sifaka/internal/repository"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// EnrollmentService owns the enrollment lifecycle: creation with uniqueness
// enforced at the storage layer, read-side DTO assembly, and the idempotent
// unenroll cascade.
type EnrollmentService interface {
	Enroll(req dto.EnrollRequest) (*dto.EnrollmentResponse, error)
	Unenroll(enrollmentID, requesterID uint) error
	ListMyEnrollments(studentID uint, status *string, page, limit int) ([]dto.EnrollmentResponse, error)
	GetEnrollment(enrollmentID, requesterID uint) (*dto.EnrollmentResponse, error)
}

type enrollmentService struct {
	enrollmentRepo repository.EnrollmentRepository
	progressRepo   repository.LessonProgressRepository
	userRepo       repository.UserRepository
	courseRepo     repository.CourseRepository
	catalog        CourseCatalog
	eligibility    EligibilityService
	dispatcher     notification.Dispatcher
	db             *gorm.DB // transactions for enroll counter + unenroll cascade
}

func NewEnrollmentService(
	enrollmentRepo repository.EnrollmentRepository,
	progressRepo repository.LessonProgressRepository,
	userRepo repository.UserRepository,
	courseRepo repository.CourseRepository,
	catalog CourseCatalog,
	eligibility EligibilityService,
	dispatcher notification.Dispatcher,
	db *gorm.DB,
) EnrollmentService {
	return &enrollmentService{
		enrollmentRepo: enrollmentRepo,
		progressRepo:   progressRepo,
		userRepo:       userRepo,
		courseRepo:     courseRepo,
		catalog:        catalog,
		eligibility:    eligibility,
		dispatcher:     dispatcher,
		db:             db,
	}
}

func (s *enrollmentService) Enroll(req dto.EnrollRequest) (*dto.EnrollmentResponse, error) {
	student, err := s.userRepo.FindByID(req.StudentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("student not found")
		}
		return nil, fmt.Errorf("loading student %d: %w", req.StudentID, err)
	}

	course, err := s.courseRepo.FindByID(req.CourseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("course not found")
		}
		return nil, fmt.Errorf("loading course %d: %w", req.CourseID, err)
	}

	if err := s.eligibility.CanEnroll(student, course); err != nil {
		return nil, err
	}

	// TotalLessons is fixed at enrollment time; later course edits only
	// matter for drift detection.
	totalLessons, err := s.catalog.PublishedLessonCount(course.ID)
	if err != nil {
		return nil, fmt.Errorf("counting published lessons for course %d: %w", course.ID, err)
	}

	enrollment := model.Enrollment{
		StudentID:    student.ID,
		CourseID:     course.ID,
		Status:       model.EnrollmentActive,
		TotalLessons: totalLessons,
		PaymentRef:   req.PaymentRef,
	}

	// The insert and the counter increment commit together. The composite
	// unique index rejects a concurrent duplicate, not a read-then-write
	// check here.
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&enrollment).Error; err != nil {
			return err
		}
		return tx.Model(&model.Course{}).Where("id = ?", course.ID).
			UpdateColumn("enrollment_count", gorm.Expr("enrollment_count + 1")).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.Conflict("student is already enrolled in this course")
		}
		log.Error().Err(err).Uint("studentID", student.ID).Uint("courseID", course.ID).Msg("Enroll: create failed")
		return nil, fmt.Errorf("creating enrollment: %w", err)
	}

	s.dispatcher.Dispatch(notification.Event{
		Type:           notification.EventEnrollmentCreated,
		RecipientEmail: student.Email,
		RecipientName:  student.Name,
		CourseTitle:    course.Title,
	})

	enrollment.Course = *course
	resp := toEnrollmentResponse(&enrollment, 0)
	return &resp, nil
}

func (s *enrollmentService) Unenroll(enrollmentID, requesterID uint) error {
	enrollment, err := s.enrollmentRepo.FindByID(enrollmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NotFound("enrollment not found")
		}
		return fmt.Errorf("loading enrollment %d: %w", enrollmentID, err)
	}

	requester, err := s.userRepo.FindByID(requesterID)
	if err != nil {
		return apperrors.Forbidden("unknown requester")
	}
	if err := s.eligibility.CanViewEnrollment(requester, enrollment); err != nil {
		return err
	}

	// Cascade and counter decrement are keyed by the enrollment row actually
	// being deleted, so a retried unenroll never decrements twice.
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("enrollment_id = ?", enrollmentID).Delete(&model.LessonProgress{}).Error; err != nil {
			return err
		}
		if err := tx.Where("enrollment_id = ?", enrollmentID).Delete(&model.ExamResult{}).Error; err != nil {
			return err
		}
		if err := tx.Where("enrollment_id = ?", enrollmentID).Delete(&model.ExamAttempt{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&model.Enrollment{}, enrollmentID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		return tx.Model(&model.Course{}).
			Where("id = ? AND enrollment_count > 0", enrollment.CourseID).
			UpdateColumn("enrollment_count", gorm.Expr("enrollment_count - 1")).Error
	})
}

func (s *enrollmentService) ListMyEnrollments(studentID uint, status *string, page, limit int) ([]dto.EnrollmentResponse, error) {
	enrollments, err := s.enrollmentRepo.FindAllByStudent(studentID, status, page, limit)
	if err != nil {
		return nil, fmt.Errorf("listing enrollments for student %d: %w", studentID, err)
	}

	responses := make([]dto.EnrollmentResponse, 0, len(enrollments))
	for i := range enrollments {
		completed, err := s.progressRepo.CountByEnrollment(enrollments[i].ID)
		if err != nil {
			return nil, err
		}
		responses = append(responses, toEnrollmentResponse(&enrollments[i], int(completed)))
	}
	return responses, nil
}

func (s *enrollmentService) GetEnrollment(enrollmentID, requesterID uint) (*dto.EnrollmentResponse, error) {
	enrollment, err := s.enrollmentRepo.FindByIDWithCourse(enrollmentID)
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

	completed, err := s.progressRepo.CountByEnrollment(enrollment.ID)
	if err != nil {
		return nil, err
	}
	resp := toEnrollmentResponse(enrollment, int(completed))
	return &resp, nil
}

func toEnrollmentResponse(enrollment *model.Enrollment, completedLessons int) dto.EnrollmentResponse {
	var resp dto.EnrollmentResponse
	if err := copier.Copy(&resp, enrollment); err != nil {
		log.Error().Err(err).Uint("enrollmentID", enrollment.ID).Msg("Failed to copy enrollment to DTO")
	}
	resp.CourseTitle = enrollment.Course.Title
	resp.CompletedLessons = completedLessons
	return resp
}
