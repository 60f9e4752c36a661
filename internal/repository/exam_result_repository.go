package repository

import (
	"github.com/lshigami/Sifaka/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ExamResultRepository interface {
	Upsert(result *model.ExamResult) error
	FindByEnrollment(enrollmentID uint) ([]model.ExamResult, error)
	FindByEnrollmentAndExam(enrollmentID, examID uint) (*model.ExamResult, error)
}

type examResultRepository struct {
	db *gorm.DB
}

func NewExamResultRepository(db *gorm.DB) ExamResultRepository {
	return &examResultRepository{db: db}
}

func (r *examResultRepository) Upsert(result *model.ExamResult) error {
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "enrollment_id"}, {Name: "exam_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"score", "passed", "updated_at"}),
	}).Create(result).Error
}

func (r *examResultRepository) FindByEnrollment(enrollmentID uint) ([]model.ExamResult, error) {
	var results []model.ExamResult
	err := r.db.Where("enrollment_id = ?", enrollmentID).Find(&results).Error
	return results, err
}

func (r *examResultRepository) FindByEnrollmentAndExam(enrollmentID, examID uint) (*model.ExamResult, error) {
	var result model.ExamResult
	err := r.db.Where("enrollment_id = ? AND exam_id = ?", enrollmentID, examID).First(&result).Error
	if err != nil {
		return nil, err
	}
	return &result, nil
}
