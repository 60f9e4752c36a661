package service

import (
	"strings"

	"github.com/lshigami/Sifaka/internal/model"
)

// GraderService computes a raw score from submitted answers. Grading is a
// pure function of the exam's answer key and the answers; it holds no state
// and touches no storage.
type GraderService interface {
	Grade(exam *model.Exam, answers map[uint]string) (score, maxScore float64)
}

type graderService struct{}

func NewGraderService() GraderService {
	return &graderService{}
}

func (g *graderService) Grade(exam *model.Exam, answers map[uint]string) (float64, float64) {
	score := 0.0
	maxScore := 0.0
	for _, q := range exam.Questions {
		maxScore += q.Points
		answer, ok := answers[q.ID]
		if !ok {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(answer), strings.TrimSpace(q.CorrectAnswer)) {
			score += q.Points
		}
	}
	return score, maxScore
}

// ApplyLatePenalty scales a raw score by the exam's late-submission penalty.
func ApplyLatePenalty(score, penaltyPercent float64) float64 {
	if penaltyPercent <= 0 {
		return score
	}
	if penaltyPercent >= 100 {
		return 0
	}
	return score * (1 - penaltyPercent/100)
}
