package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lshigami/Sifaka/internal/apperrors"
	"github.com/lshigami/Sifaka/internal/dto"
	"github.com/lshigami/Sifaka/internal/model"
	"github.com/lshigami/Sifaka/internal/notification"
	"github.com/lshigami/Sifaka/internal/renderer"
	"github.com/lshigami/Sifaka/internal/repository"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// CertificateService issues the immutable completion artifact exactly once
// per enrollment, serves it back idempotently, and detects content drift
// after issuance without ever regenerating the certificate.
type CertificateService interface {
	Generate(enrollmentID, requesterID uint) (*dto.CertificateResponse, error)
	Get(enrollmentID, requesterID uint) (*dto.CertificateResponse, error)

	// Verify is the public, unauthenticated lookup. Unknown IDs and
	// not-yet-issued certificates are indistinguishable NotFounds.
	Verify(certificateID string) (*dto.CertificatePublicView, error)

	HasNewContentSinceCompletion(enrollmentID, requesterID uint) (*dto.ContentDriftResponse, error)
}

type certificateService struct {
	enrollmentRepo repository.EnrollmentRepository
	progressRepo   repository.LessonProgressRepository
	userRepo       repository.UserRepository
	catalog        CourseCatalog
	eligibility    EligibilityService
	renderer       renderer.CertificateRenderer
	dispatcher     notification.Dispatcher
}

func NewCertificateService(
	enrollmentRepo repository.EnrollmentRepository,
	progressRepo repository.LessonProgressRepository,
	userRepo repository.UserRepository,
	catalog CourseCatalog,
	eligibility EligibilityService,
	certRenderer renderer.CertificateRenderer,
	dispatcher notification.Dispatcher,
) CertificateService {
	return &certificateService{
		enrollmentRepo: enrollmentRepo,
		progressRepo:   progressRepo,
		userRepo:       userRepo,
		catalog:        catalog,
		eligibility:    eligibility,
		renderer:       certRenderer,
		dispatcher:     dispatcher,
	}
}

func (s *certificateService) Generate(enrollmentID, requesterID uint) (*dto.CertificateResponse, error) {
	enrollment, student, err := s.loadOwnedWithCourse(enrollmentID, requesterID)
	if err != nil {
		return nil, err
	}

	// Issuance is idempotent: a second call returns the same certificate,
	// never a new ID.
	if enrollment.CertificateIssued {
		return s.buildResponse(enrollment)
	}

	if enrollment.Status != model.EnrollmentCompleted || enrollment.Progress < 100 {
		return nil, apperrors.InvalidState("course is not completed")
	}

	instructor, err := s.userRepo.FindByID(enrollment.Course.InstructorID)
	if err != nil {
		return nil, fmt.Errorf("loading instructor %d: %w", enrollment.Course.InstructorID, err)
	}

	completed, err := s.progressRepo.CountByEnrollment(enrollment.ID)
	if err != nil {
		return nil, err
	}

	certificateID := uuid.NewString()
	issuedAt := time.Now()

	// Render before any state change: a renderer failure leaves
	// certificate_issued false and the whole operation safely retriable.
	url, err := s.renderer.Render(renderer.RenderRequest{
		CertificateID:    certificateID,
		StudentName:      student.Name,
		CourseTitle:      enrollment.Course.Title,
		InstructorName:   instructor.Name,
		TotalLessons:     enrollment.TotalLessons,
		CompletedLessons: int(completed),
		IssuedAt:         issuedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("rendering certificate: %w", err)
	}

	issued, err := s.enrollmentRepo.MarkCertificateIssued(enrollment.ID, repository.CertificateGrant{
		CertificateID:            certificateID,
		CertificateURL:           url,
		IssuedAt:                 issuedAt,
		SnapshotTotalLessons:     enrollment.TotalLessons,
		SnapshotCompletedLessons: int(completed),
	})
	if err != nil {
		return nil, fmt.Errorf("marking certificate issued: %w", err)
	}
	if !issued {
		// A concurrent request won the conditional update; serve its
		// certificate and discard ours.
		log.Info().Uint("enrollmentID", enrollment.ID).Msg("Certificate already issued concurrently")
		reloaded, err := s.enrollmentRepo.FindByIDWithCourse(enrollment.ID)
		if err != nil {
			return nil, err
		}
		return s.buildResponse(reloaded)
	}

	s.dispatcher.Dispatch(notification.Event{
		Type:           notification.EventCertificateIssued,
		RecipientEmail: student.Email,
		RecipientName:  student.Name,
		CourseTitle:    enrollment.Course.Title,
		CertificateURL: url,
	})

	log.Info().Uint("enrollmentID", enrollment.ID).Str("certificateID", certificateID).
		Msg("Certificate issued")

	reloaded, err := s.enrollmentRepo.FindByIDWithCourse(enrollment.ID)
	if err != nil {
		return nil, err
	}
	return s.buildResponse(reloaded)
}

func (s *certificateService) Get(enrollmentID, requesterID uint) (*dto.CertificateResponse, error) {
	enrollment, _, err := s.loadOwnedWithCourse(enrollmentID, requesterID)
	if err != nil {
		return nil, err
	}
	if !enrollment.CertificateIssued {
		return nil, apperrors.NotFound("certificate not found")
	}
	return s.buildResponse(enrollment)
}

func (s *certificateService) Verify(certificateID string) (*dto.CertificatePublicView, error) {
	enrollment, err := s.enrollmentRepo.FindByCertificateID(certificateID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("certificate not found")
		}
		return nil, fmt.Errorf("looking up certificate: %w", err)
	}

	instructor, err := s.userRepo.FindByID(enrollment.Course.InstructorID)
	if err != nil {
		return nil, fmt.Errorf("loading instructor: %w", err)
	}

	return &dto.CertificatePublicView{
		CertificateID:    *enrollment.CertificateID,
		StudentName:      enrollment.Student.Name,
		CourseTitle:      enrollment.Course.Title,
		InstructorName:   instructor.Name,
		IssuedAt:         *enrollment.CertificateIssuedAt,
		TotalLessons:     *enrollment.SnapshotTotalLessons,
		CompletedLessons: *enrollment.SnapshotCompletedLessons,
		SnapshotDate:     *enrollment.SnapshotDate,
	}, nil
}

func (s *certificateService) HasNewContentSinceCompletion(enrollmentID, requesterID uint) (*dto.ContentDriftResponse, error) {
	enrollment, _, err := s.loadOwnedWithCourse(enrollmentID, requesterID)
	if err != nil {
		return nil, err
	}
	if !enrollment.CertificateIssued || enrollment.SnapshotTotalLessons == nil {
		return nil, apperrors.InvalidState("no completion snapshot exists for this enrollment")
	}

	current, err := s.catalog.PublishedLessonCount(enrollment.CourseID)
	if err != nil {
		return nil, err
	}

	return &dto.ContentDriftResponse{
		EnrollmentID:         enrollment.ID,
		SnapshotTotalLessons: *enrollment.SnapshotTotalLessons,
		CurrentTotalLessons:  current,
		HasNewContent:        current > *enrollment.SnapshotTotalLessons,
	}, nil
}

func (s *certificateService) loadOwnedWithCourse(enrollmentID, requesterID uint) (*model.Enrollment, *model.User, error) {
	enrollment, err := s.enrollmentRepo.FindByIDWithCourse(enrollmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, apperrors.NotFound("enrollment not found")
		}
		return nil, nil, fmt.Errorf("loading enrollment %d: %w", enrollmentID, err)
	}
	requester, err := s.userRepo.FindByID(requesterID)
	if err != nil {
		return nil, nil, apperrors.Forbidden("unknown requester")
	}
	if err := s.eligibility.CanViewEnrollment(requester, enrollment); err != nil {
		return nil, nil, err
	}

	student := requester
	if requester.ID != enrollment.StudentID {
		student, err = s.userRepo.FindByID(enrollment.StudentID)
		if err != nil {
			return nil, nil, fmt.Errorf("loading student %d: %w", enrollment.StudentID, err)
		}
	}
	return enrollment, student, nil
}

func (s *certificateService) buildResponse(enrollment *model.Enrollment) (*dto.CertificateResponse, error) {
	if !enrollment.CertificateIssued || enrollment.CertificateID == nil {
		return nil, apperrors.NotFound("certificate not found")
	}

	student, err := s.userRepo.FindByID(enrollment.StudentID)
	if err != nil {
		return nil, fmt.Errorf("loading student: %w", err)
	}
	instructor, err := s.userRepo.FindByID(enrollment.Course.InstructorID)
	if err != nil {
		return nil, fmt.Errorf("loading instructor: %w", err)
	}

	url := ""
	if enrollment.CertificateURL != nil {
		url = *enrollment.CertificateURL
	}
	return &dto.CertificateResponse{
		CertificateID:    *enrollment.CertificateID,
		CertificateURL:   url,
		EnrollmentID:     enrollment.ID,
		StudentName:      student.Name,
		CourseTitle:      enrollment.Course.Title,
		InstructorName:   instructor.Name,
		IssuedAt:         *enrollment.CertificateIssuedAt,
		TotalLessons:     *enrollment.SnapshotTotalLessons,
		CompletedLessons: *enrollment.SnapshotCompletedLessons,
		SnapshotDate:     *enrollment.SnapshotDate,
	}, nil
}
