package repository

import (
	"errors"

	"github.com/lshigami/Sifaka/internal/model"
	"gorm.io/gorm"
)

type LessonProgressRepository interface {
	// Add inserts the (enrollment, lesson) row. Returns false without error
	// when the lesson was already completed (set semantics).
	Add(progress *model.LessonProgress) (bool, error)
	CountByEnrollment(enrollmentID uint) (int64, error)
	FindByEnrollment(enrollmentID uint) ([]model.LessonProgress, error)
}

type lessonProgressRepository struct {
	db *gorm.DB
}

func NewLessonProgressRepository(db *gorm.DB) LessonProgressRepository {
	return &lessonProgressRepository{db: db}
}

func (r *lessonProgressRepository) Add(progress *model.LessonProgress) (bool, error) {
	if err := r.db.Create(progress).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *lessonProgressRepository) CountByEnrollment(enrollmentID uint) (int64, error) {
	var count int64
	err := r.db.Model(&model.LessonProgress{}).
		Where("enrollment_id = ?", enrollmentID).
		Count(&count).Error
	return count, err
}

func (r *lessonProgressRepository) FindByEnrollment(enrollmentID uint) ([]model.LessonProgress, error) {
	var rows []model.LessonProgress
	err := r.db.Where("enrollment_id = ?", enrollmentID).
		Order("completed_at ASC").Find(&rows).Error
	return rows, err
}
