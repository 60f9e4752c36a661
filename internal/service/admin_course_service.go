package service

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jinzhu/copier"
	"github.com/lshigami/Sifaka/internal/apperrors"
	"github.com/lshigami/Sifaka/internal/dto"
	"github.com/lshigami/Sifaka/internal/model"
	"github.com/lshigami/Sifaka/internal/repository"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AdminCourseService is the thin authoring surface: just enough to create
// users, courses, lessons and exams for the lifecycle logic to operate on.
type AdminCourseService interface {
	CreateUser(req dto.CreateUserRequest) (*model.User, error)
	CreateCourse(req dto.CreateCourseRequest) (*dto.CourseResponse, error)
	PublishCourse(courseID uint) (*dto.CourseResponse, error)
	AddLesson(courseID uint, req dto.CreateLessonRequest) (*model.Lesson, error)
	AddExam(courseID uint, req dto.CreateExamRequest) (*model.Exam, error)
}

type adminCourseService struct {
	userRepo   repository.UserRepository
	courseRepo repository.CourseRepository
	lessonRepo repository.LessonRepository
	examRepo   repository.ExamRepository
}

func NewAdminCourseService(
	userRepo repository.UserRepository,
	courseRepo repository.CourseRepository,
	lessonRepo repository.LessonRepository,
	examRepo repository.ExamRepository,
) AdminCourseService {
	return &adminCourseService{
		userRepo:   userRepo,
		courseRepo: courseRepo,
		lessonRepo: lessonRepo,
		examRepo:   examRepo,
	}
}

func (s *adminCourseService) CreateUser(req dto.CreateUserRequest) (*model.User, error) {
	user := model.User{Name: req.Name, Email: req.Email, Role: req.Role}
	if err := s.userRepo.Create(&user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.Conflict("a user with this email already exists")
		}
		return nil, fmt.Errorf("creating user: %w", err)
	}
	return &user, nil
}

func (s *adminCourseService) CreateCourse(req dto.CreateCourseRequest) (*dto.CourseResponse, error) {
	instructor, err := s.userRepo.FindByID(req.InstructorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("instructor not found")
		}
		return nil, fmt.Errorf("loading instructor: %w", err)
	}
	if instructor.Role != model.RoleInstructor && instructor.Role != model.RoleAdmin {
		return nil, apperrors.InvalidInput("course owner must be an instructor")
	}

	course := model.Course{
		Title:        req.Title,
		Description:  req.Description,
		InstructorID: instructor.ID,
		Status:       model.CourseDraft,
	}
	if err := s.courseRepo.Create(&course); err != nil {
		return nil, fmt.Errorf("creating course: %w", err)
	}
	return toCourseResponse(&course), nil
}

func (s *adminCourseService) PublishCourse(courseID uint) (*dto.CourseResponse, error) {
	course, err := s.courseRepo.FindByID(courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("course not found")
		}
		return nil, fmt.Errorf("loading course: %w", err)
	}
	if course.Status == model.CourseArchived {
		return nil, apperrors.InvalidState("archived courses cannot be published")
	}
	if err := s.courseRepo.UpdateStatus(courseID, model.CoursePublished); err != nil {
		return nil, fmt.Errorf("publishing course: %w", err)
	}
	course.Status = model.CoursePublished
	return toCourseResponse(course), nil
}

func (s *adminCourseService) AddLesson(courseID uint, req dto.CreateLessonRequest) (*model.Lesson, error) {
	if _, err := s.courseRepo.FindByID(courseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("course not found")
		}
		return nil, fmt.Errorf("loading course: %w", err)
	}

	lesson := model.Lesson{
		CourseID:      courseID,
		Title:         req.Title,
		OrderInCourse: req.OrderInCourse,
		Published:     req.Published,
	}
	if err := s.lessonRepo.Create(&lesson); err != nil {
		return nil, fmt.Errorf("creating lesson: %w", err)
	}
	return &lesson, nil
}

func (s *adminCourseService) AddExam(courseID uint, req dto.CreateExamRequest) (*model.Exam, error) {
	if _, err := s.courseRepo.FindByID(courseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("course not found")
		}
		return nil, fmt.Errorf("loading course: %w", err)
	}

	totalPoints := 0.0
	questions := make([]model.ExamQuestion, 0, len(req.Questions))
	for _, q := range req.Questions {
		totalPoints += q.Points
		options, err := json.Marshal(q.Options)
		if err != nil {
			return nil, apperrors.InvalidInput("question options are not serializable")
		}
		questions = append(questions, model.ExamQuestion{
			Prompt:        q.Prompt,
			Options:       datatypes.JSON(options),
			CorrectAnswer: q.CorrectAnswer,
			Points:        q.Points,
			OrderInExam:   q.OrderInExam,
		})
	}
	if req.PassingScore > totalPoints {
		return nil, apperrors.InvalidInput("passing score exceeds total points")
	}
	if req.OpenAt != nil && req.CloseAt != nil && req.CloseAt.Before(*req.OpenAt) {
		return nil, apperrors.InvalidInput("close_at precedes open_at")
	}

	showAnswers := req.ShowCorrectAnswers
	if showAnswers == "" {
		showAnswers = model.ShowAnswersNever
	}

	exam := model.Exam{
		CourseID:            courseID,
		Title:               req.Title,
		DurationMinutes:     req.DurationMinutes,
		TotalPoints:         totalPoints,
		PassingScore:        req.PassingScore,
		OpenAt:              req.OpenAt,
		CloseAt:             req.CloseAt,
		MaxAttempts:         req.MaxAttempts,
		ScoringMethod:       req.ScoringMethod,
		ShowCorrectAnswers:  showAnswers,
		AllowLateSubmission: req.AllowLateSubmission,
		LatePenaltyPercent:  req.LatePenaltyPercent,
		Required:            req.Required,
		Published:           req.Published,
		Questions:           questions,
	}
	if err := s.examRepo.Create(&exam); err != nil {
		return nil, fmt.Errorf("creating exam: %w", err)
	}
	log.Info().Uint("courseID", courseID).Uint("examID", exam.ID).Msg("Exam created")
	return &exam, nil
}

func toCourseResponse(course *model.Course) *dto.CourseResponse {
	var resp dto.CourseResponse
	if err := copier.Copy(&resp, course); err != nil {
		log.Error().Err(err).Uint("courseID", course.ID).Msg("Failed to copy course to DTO")
	}
	return &resp
}
