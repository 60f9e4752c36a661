package repository

import (
	"time"

	"github.com/lshigami/Sifaka/internal/model"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AttemptTerminalUpdate carries the terminal fields written when an attempt
// leaves in_progress.
type AttemptTerminalUpdate struct {
	Status      string
	SubmittedAt time.Time
	Score       float64
	MaxScore    float64
	Passed      bool
	Late        bool
}

type ExamAttemptRepository interface {
	Create(attempt *model.ExamAttempt) error
	FindByID(id uint) (*model.ExamAttempt, error)
	FindAllByExamAndStudent(examID, studentID uint) ([]model.ExamAttempt, error)
	FindTerminalByExamAndStudent(examID, studentID uint) ([]model.ExamAttempt, error)
	CountTerminal(examID, studentID uint) (int64, error)
	FindInProgress() ([]model.ExamAttempt, error)

	// SaveAnswers stores the autosave state; false when the attempt is no
	// longer in_progress.
	SaveAnswers(id uint, answers datatypes.JSON) (bool, error)

	// Terminate performs the single conditional in_progress -> terminal
	// transition. false means the attempt already left in_progress (a
	// concurrent submit or the expiry sweep won).
	Terminate(id uint, update AttemptTerminalUpdate) (bool, error)

	// Abandon is the scoreless terminal transition; the attempt keeps nil
	// score fields but still consumes quota.
	Abandon(id uint, at time.Time) (bool, error)
}

type examAttemptRepository struct {
	db *gorm.DB
}

func NewExamAttemptRepository(db *gorm.DB) ExamAttemptRepository {
	return &examAttemptRepository{db: db}
}

func (r *examAttemptRepository) Create(attempt *model.ExamAttempt) error {
	// The partial unique index on (exam_id, student_id) where
	// status='in_progress' rejects a second concurrent active attempt.
	return r.db.Create(attempt).Error
}

func (r *examAttemptRepository) FindByID(id uint) (*model.ExamAttempt, error) {
	var attempt model.ExamAttempt
	if err := r.db.First(&attempt, id).Error; err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (r *examAttemptRepository) FindAllByExamAndStudent(examID, studentID uint) ([]model.ExamAttempt, error) {
	var attempts []model.ExamAttempt
	err := r.db.Where("exam_id = ? AND student_id = ?", examID, studentID).
		Order("started_at ASC").Find(&attempts).Error
	return attempts, err
}

func (r *examAttemptRepository) FindTerminalByExamAndStudent(examID, studentID uint) ([]model.ExamAttempt, error) {
	var attempts []model.ExamAttempt
	err := r.db.Where("exam_id = ? AND student_id = ? AND status <> ?",
		examID, studentID, model.AttemptInProgress).
		Order("started_at ASC").Find(&attempts).Error
	return attempts, err
}

func (r *examAttemptRepository) CountTerminal(examID, studentID uint) (int64, error) {
	var count int64
	err := r.db.Model(&model.ExamAttempt{}).
		Where("exam_id = ? AND student_id = ? AND status <> ?",
			examID, studentID, model.AttemptInProgress).
		Count(&count).Error
	return count, err
}

func (r *examAttemptRepository) FindInProgress() ([]model.ExamAttempt, error) {
	var attempts []model.ExamAttempt
	err := r.db.Where("status = ?", model.AttemptInProgress).Find(&attempts).Error
	return attempts, err
}

func (r *examAttemptRepository) SaveAnswers(id uint, answers datatypes.JSON) (bool, error) {
	res := r.db.Model(&model.ExamAttempt{}).
		Where("id = ? AND status = ?", id, model.AttemptInProgress).
		Update("saved_answers", answers)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *examAttemptRepository) Abandon(id uint, at time.Time) (bool, error) {
	res := r.db.Model(&model.ExamAttempt{}).
		Where("id = ? AND status = ?", id, model.AttemptInProgress).
		Updates(map[string]interface{}{
			"status":       model.AttemptAbandoned,
			"submitted_at": at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *examAttemptRepository) Terminate(id uint, update AttemptTerminalUpdate) (bool, error) {
	res := r.db.Model(&model.ExamAttempt{}).
		Where("id = ? AND status = ?", id, model.AttemptInProgress).
		Updates(map[string]interface{}{
			"status":       update.Status,
			"submitted_at": update.SubmittedAt,
			"score":        update.Score,
			"max_score":    update.MaxScore,
			"passed":       update.Passed,
			"late":         update.Late,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
