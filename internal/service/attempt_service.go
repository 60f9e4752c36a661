package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jinzhu/copier"
	"github.com/lshigami/Sifaka/internal/apperrors"
	"github.com/lshigami/Sifaka/internal/dto"
	"github.com/lshigami/Sifaka/internal/model"
	"github.com/lshigami/Sifaka/internal/repository"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AttemptService is the exam-attempt state machine. An attempt is created
// in_progress and leaves it exactly once, through a conditional update, into
// submitted, expired or abandoned. Exclusivity and quota are enforced at the
// storage layer, not by read-then-write checks.
type AttemptService interface {
	Start(examID, studentID uint) (*dto.AttemptResponse, error)
	SaveAnswers(attemptID, studentID uint, answers map[uint]string) (*dto.AttemptResponse, error)
	Submit(attemptID, studentID uint, answers map[uint]string) (*dto.AttemptResponse, error)

	// Abandon gives up an in-progress attempt without grading. The attempt
	// is terminal and counts toward the quota but carries no score.
	Abandon(attemptID, studentID uint) (*dto.AttemptResponse, error)

	ListMyAttempts(examID, studentID uint) ([]dto.AttemptResponse, error)
	FinalResult(examID, studentID uint) (*dto.ExamResultResponse, error)

	// ExpireOverdue transitions every in_progress attempt past its deadline
	// to expired, grading the last autosaved answers (zero when none). Runs
	// from the periodic sweep; returns the number of attempts transitioned.
	ExpireOverdue(ctx context.Context) (int, error)
}

type attemptService struct {
	attemptRepo    repository.ExamAttemptRepository
	examRepo       repository.ExamRepository
	enrollmentRepo repository.EnrollmentRepository
	scoring        ScoringPolicyService
	grader         GraderService
	progress       ProgressService
	eligibility    EligibilityService
}

func NewAttemptService(
	attemptRepo repository.ExamAttemptRepository,
	examRepo repository.ExamRepository,
	enrollmentRepo repository.EnrollmentRepository,
	scoring ScoringPolicyService,
	grader GraderService,
	progress ProgressService,
	eligibility EligibilityService,
) AttemptService {
	return &attemptService{
		attemptRepo:    attemptRepo,
		examRepo:       examRepo,
		enrollmentRepo: enrollmentRepo,
		scoring:        scoring,
		grader:         grader,
		progress:       progress,
		eligibility:    eligibility,
	}
}

func (s *attemptService) Start(examID, studentID uint) (*dto.AttemptResponse, error) {
	exam, err := s.loadPublishedExam(examID)
	if err != nil {
		return nil, err
	}

	enrollment, err := s.enrollmentRepo.FindByStudentAndCourse(studentID, exam.CourseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.Forbidden("student is not enrolled in the exam's course")
		}
		return nil, fmt.Errorf("loading enrollment: %w", err)
	}

	now := time.Now()
	if err := s.eligibility.ExamWindowOpen(exam, now); err != nil {
		return nil, err
	}

	terminalCount, err := s.attemptRepo.CountTerminal(examID, studentID)
	if err != nil {
		return nil, fmt.Errorf("counting attempts: %w", err)
	}
	if exam.MaxAttempts != nil && terminalCount >= int64(*exam.MaxAttempts) {
		return nil, apperrors.ResourceExhausted("attempt quota reached for this exam")
	}

	attempt := model.ExamAttempt{
		ExamID:        examID,
		StudentID:     studentID,
		EnrollmentID:  enrollment.ID,
		AttemptNumber: int(terminalCount) + 1,
		Status:        model.AttemptInProgress,
		StartedAt:     now,
	}
	if err := s.attemptRepo.Create(&attempt); err != nil {
		// The partial unique index turns a concurrent double-start into a
		// duplicate key, so exactly one of the racers wins.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.Conflict("an attempt is already in progress for this exam")
		}
		return nil, fmt.Errorf("creating attempt: %w", err)
	}

	log.Info().Uint("examID", examID).Uint("studentID", studentID).Int("attemptNumber", attempt.AttemptNumber).
		Msg("Exam attempt started")
	resp := toAttemptResponse(&attempt)
	return &resp, nil
}

func (s *attemptService) SaveAnswers(attemptID, studentID uint, answers map[uint]string) (*dto.AttemptResponse, error) {
	attempt, exam, err := s.loadOwnedAttempt(attemptID, studentID)
	if err != nil {
		return nil, err
	}
	if attempt.Terminal() {
		return nil, apperrors.InvalidState("attempt is not in progress")
	}

	now := time.Now()
	if now.After(attempt.Deadline(exam.DurationMinutes)) {
		s.expireAttempt(attempt, exam, now)
		return nil, apperrors.InvalidState("attempt time has expired")
	}

	payload, err := json.Marshal(answers)
	if err != nil {
		return nil, apperrors.InvalidInput("answers are not serializable")
	}
	saved, err := s.attemptRepo.SaveAnswers(attemptID, datatypes.JSON(payload))
	if err != nil {
		return nil, fmt.Errorf("saving answers: %w", err)
	}
	if !saved {
		return nil, apperrors.InvalidState("attempt is not in progress")
	}

	attempt.SavedAnswers = datatypes.JSON(payload)
	resp := toAttemptResponse(attempt)
	return &resp, nil
}

func (s *attemptService) Submit(attemptID, studentID uint, answers map[uint]string) (*dto.AttemptResponse, error) {
	attempt, exam, err := s.loadOwnedAttempt(attemptID, studentID)
	if err != nil {
		return nil, err
	}
	if attempt.Terminal() {
		return nil, apperrors.InvalidState("attempt is not in progress")
	}

	now := time.Now()
	if now.After(attempt.Deadline(exam.DurationMinutes)) {
		// Past the duration deadline a submit never succeeds; run the same
		// expiry transition the sweep would apply.
		s.expireAttempt(attempt, exam, now)
		return nil, apperrors.InvalidState("attempt time has expired")
	}

	late := exam.CloseAt != nil && now.After(*exam.CloseAt)
	if late && !exam.AllowLateSubmission {
		return nil, apperrors.InvalidState("exam is closed and late submission is not allowed")
	}

	score, maxScore := s.grader.Grade(exam, answers)
	if late {
		score = ApplyLatePenalty(score, exam.LatePenaltyPercent)
	}
	passed := score >= exam.PassingScore

	ok, err := s.attemptRepo.Terminate(attemptID, repository.AttemptTerminalUpdate{
		Status:      model.AttemptSubmitted,
		SubmittedAt: now,
		Score:       score,
		MaxScore:    maxScore,
		Passed:      passed,
		Late:        late,
	})
	if err != nil {
		return nil, fmt.Errorf("submitting attempt: %w", err)
	}
	if !ok {
		// The expiry sweep got there first.
		return nil, apperrors.InvalidState("attempt is not in progress")
	}

	if err := s.updateExamResult(attempt.EnrollmentID, exam, examKey(attempt)); err != nil {
		log.Error().Err(err).Uint("attemptID", attemptID).Msg("Submit: failed to update exam result")
	}

	reloaded, err := s.attemptRepo.FindByID(attemptID)
	if err != nil {
		return nil, err
	}
	resp := toAttemptResponse(reloaded)
	return &resp, nil
}

func (s *attemptService) Abandon(attemptID, studentID uint) (*dto.AttemptResponse, error) {
	attempt, exam, err := s.loadOwnedAttempt(attemptID, studentID)
	if err != nil {
		return nil, err
	}
	if attempt.Terminal() {
		return nil, apperrors.InvalidState("attempt is not in progress")
	}

	now := time.Now()
	if now.After(attempt.Deadline(exam.DurationMinutes)) {
		// Past the deadline the expiry transition takes precedence so the
		// autosaved answers still get graded.
		s.expireAttempt(attempt, exam, now)
		return nil, apperrors.InvalidState("attempt time has expired")
	}

	ok, err := s.attemptRepo.Abandon(attemptID, now)
	if err != nil {
		return nil, fmt.Errorf("abandoning attempt: %w", err)
	}
	if !ok {
		return nil, apperrors.InvalidState("attempt is not in progress")
	}

	log.Info().Uint("attemptID", attemptID).Msg("Exam attempt abandoned")
	reloaded, err := s.attemptRepo.FindByID(attemptID)
	if err != nil {
		return nil, err
	}
	resp := toAttemptResponse(reloaded)
	return &resp, nil
}

func (s *attemptService) ListMyAttempts(examID, studentID uint) ([]dto.AttemptResponse, error) {
	attempts, err := s.attemptRepo.FindAllByExamAndStudent(examID, studentID)
	if err != nil {
		return nil, fmt.Errorf("listing attempts: %w", err)
	}
	responses := make([]dto.AttemptResponse, 0, len(attempts))
	for i := range attempts {
		responses = append(responses, toAttemptResponse(&attempts[i]))
	}
	return responses, nil
}

func (s *attemptService) FinalResult(examID, studentID uint) (*dto.ExamResultResponse, error) {
	exam, err := s.loadPublishedExam(examID)
	if err != nil {
		return nil, err
	}
	attempts, err := s.attemptRepo.FindTerminalByExamAndStudent(examID, studentID)
	if err != nil {
		return nil, fmt.Errorf("listing attempts: %w", err)
	}
	score, passed, ok := s.scoring.Evaluate(exam, attempts)
	if !ok {
		return nil, apperrors.NotFound("no terminal attempts for this exam")
	}
	return &dto.ExamResultResponse{
		ExamID:        examID,
		ScoringMethod: exam.ScoringMethod,
		FinalScore:    score,
		PassingScore:  exam.PassingScore,
		Passed:        passed,
		AttemptsUsed:  len(attempts),
	}, nil
}

func (s *attemptService) ExpireOverdue(ctx context.Context) (int, error) {
	attempts, err := s.attemptRepo.FindInProgress()
	if err != nil {
		return 0, fmt.Errorf("listing in-progress attempts: %w", err)
	}

	exams := make(map[uint]*model.Exam)
	now := time.Now()
	expired := 0
	for i := range attempts {
		select {
		case <-ctx.Done():
			return expired, ctx.Err()
		default:
		}

		attempt := &attempts[i]
		exam, ok := exams[attempt.ExamID]
		if !ok {
			exam, err = s.examRepo.FindByIDWithQuestions(attempt.ExamID)
			if err != nil {
				log.Error().Err(err).Uint("examID", attempt.ExamID).Msg("ExpireOverdue: failed to load exam")
				continue
			}
			exams[attempt.ExamID] = exam
		}

		if !now.After(attempt.Deadline(exam.DurationMinutes)) {
			continue
		}
		if s.expireAttempt(attempt, exam, now) {
			expired++
		}
	}
	if expired > 0 {
		log.Info().Int("expired", expired).Msg("Expired overdue exam attempts")
	}
	return expired, nil
}

// expireAttempt performs the conditional in_progress -> expired transition,
// grading the last autosaved answers (zero if none were saved). Returns
// false when a concurrent submit or another sweep already terminated the
// attempt.
func (s *attemptService) expireAttempt(attempt *model.ExamAttempt, exam *model.Exam, now time.Time) bool {
	answers := map[uint]string{}
	if len(attempt.SavedAnswers) > 0 {
		if err := json.Unmarshal(attempt.SavedAnswers, &answers); err != nil {
			log.Warn().Err(err).Uint("attemptID", attempt.ID).Msg("ExpireOverdue: unreadable saved answers, scoring zero")
			answers = map[uint]string{}
		}
	}

	score, maxScore := s.grader.Grade(exam, answers)
	passed := score >= exam.PassingScore

	ok, err := s.attemptRepo.Terminate(attempt.ID, repository.AttemptTerminalUpdate{
		Status:      model.AttemptExpired,
		SubmittedAt: now,
		Score:       score,
		MaxScore:    maxScore,
		Passed:      passed,
		Late:        false,
	})
	if err != nil {
		log.Error().Err(err).Uint("attemptID", attempt.ID).Msg("ExpireOverdue: transition failed")
		return false
	}
	if !ok {
		return false
	}

	if err := s.updateExamResult(attempt.EnrollmentID, exam, examKey(attempt)); err != nil {
		log.Error().Err(err).Uint("attemptID", attempt.ID).Msg("ExpireOverdue: failed to update exam result")
	}
	return true
}

// updateExamResult recomputes the policy-aggregated result over all terminal
// attempts and records it on the enrollment.
func (s *attemptService) updateExamResult(enrollmentID uint, exam *model.Exam, key attemptKey) error {
	attempts, err := s.attemptRepo.FindTerminalByExamAndStudent(key.examID, key.studentID)
	if err != nil {
		return err
	}
	score, passed, ok := s.scoring.Evaluate(exam, attempts)
	if !ok {
		return nil
	}
	return s.progress.RecordExamResult(enrollmentID, exam, score, passed)
}

type attemptKey struct {
	examID    uint
	studentID uint
}

func examKey(attempt *model.ExamAttempt) attemptKey {
	return attemptKey{examID: attempt.ExamID, studentID: attempt.StudentID}
}

func (s *attemptService) loadPublishedExam(examID uint) (*model.Exam, error) {
	exam, err := s.examRepo.FindByIDWithQuestions(examID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("exam not found")
		}
		return nil, fmt.Errorf("loading exam %d: %w", examID, err)
	}
	if !exam.Published {
		return nil, apperrors.NotFound("exam not found")
	}
	return exam, nil
}

func (s *attemptService) loadOwnedAttempt(attemptID, studentID uint) (*model.ExamAttempt, *model.Exam, error) {
	attempt, err := s.attemptRepo.FindByID(attemptID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, apperrors.NotFound("attempt not found")
		}
		return nil, nil, fmt.Errorf("loading attempt %d: %w", attemptID, err)
	}
	if attempt.StudentID != studentID {
		return nil, nil, apperrors.InvalidState("attempt belongs to a different student")
	}
	exam, err := s.examRepo.FindByIDWithQuestions(attempt.ExamID)
	if err != nil {
		return nil, nil, fmt.Errorf("loading exam %d: %w", attempt.ExamID, err)
	}
	return attempt, exam, nil
}

func toAttemptResponse(attempt *model.ExamAttempt) dto.AttemptResponse {
	var resp dto.AttemptResponse
	if err := copier.Copy(&resp, attempt); err != nil {
		log.Error().Err(err).Uint("attemptID", attempt.ID).Msg("Failed to copy attempt to DTO")
	}
	return resp
}
