package service

import (
	"github.com/lshigami/Sifaka/internal/model"
)

// ScoringPolicyService aggregates a student's terminal attempts into the one
// authoritative score for an exam. The exam's scoring method picks the rule;
// the same policy-selected score decides passed.
type ScoringPolicyService interface {
	// FinalScore returns the aggregated score over terminal attempts with a
	// recorded score. ok is false when no such attempt exists.
	FinalScore(method string, attempts []model.ExamAttempt) (float64, bool)

	// Evaluate applies FinalScore and compares against the exam's passing
	// score.
	Evaluate(exam *model.Exam, attempts []model.ExamAttempt) (score float64, passed, ok bool)
}

type scoringPolicyService struct{}

func NewScoringPolicyService() ScoringPolicyService {
	return &scoringPolicyService{}
}

func (s *scoringPolicyService) FinalScore(method string, attempts []model.ExamAttempt) (float64, bool) {
	scored := make([]model.ExamAttempt, 0, len(attempts))
	for _, a := range attempts {
		if a.Terminal() && a.Score != nil {
			scored = append(scored, a)
		}
	}
	if len(scored) == 0 {
		return 0, false
	}

	switch method {
	case model.ScoringLatest:
		latest := scored[0]
		for _, a := range scored[1:] {
			if a.SubmittedAt != nil &&
				(latest.SubmittedAt == nil || a.SubmittedAt.After(*latest.SubmittedAt)) {
				latest = a
			}
		}
		return *latest.Score, true

	case model.ScoringAverage:
		sum := 0.0
		for _, a := range scored {
			sum += *a.Score
		}
		return sum / float64(len(scored)), true

	default: // model.ScoringHighest
		highest := *scored[0].Score
		for _, a := range scored[1:] {
			if *a.Score > highest {
				highest = *a.Score
			}
		}
		return highest, true
	}
}

func (s *scoringPolicyService) Evaluate(exam *model.Exam, attempts []model.ExamAttempt) (float64, bool, bool) {
	score, ok := s.FinalScore(exam.ScoringMethod, attempts)
	if !ok {
		return 0, false, false
	}
	return score, score >= exam.PassingScore, true
}
