package repository

import (
	"github.com/lshigami/Sifaka/internal/model"
	"gorm.io/gorm"
)

// LessonRepository is injected explicitly wherever lesson lookups are
// needed; nothing resolves models through a global registry.
type LessonRepository interface {
	Create(lesson *model.Lesson) error
	FindByID(id uint) (*model.Lesson, error)
	FindByCourseID(courseID uint) ([]model.Lesson, error)
	CountPublishedByCourseID(courseID uint) (int64, error)
}

type lessonRepository struct {
	db *gorm.DB
}

func NewLessonRepository(db *gorm.DB) LessonRepository {
	return &lessonRepository{db: db}
}

func (r *lessonRepository) Create(lesson *model.Lesson) error {
	return r.db.Create(lesson).Error
}

func (r *lessonRepository) FindByID(id uint) (*model.Lesson, error) {
	var lesson model.Lesson
	if err := r.db.First(&lesson, id).Error; err != nil {
		return nil, err
	}
	return &lesson, nil
}

func (r *lessonRepository) FindByCourseID(courseID uint) ([]model.Lesson, error) {
	var lessons []model.Lesson
	err := r.db.Where("course_id = ?", courseID).Order("order_in_course ASC").Find(&lessons).Error
	return lessons, err
}

func (r *lessonRepository) CountPublishedByCourseID(courseID uint) (int64, error) {
	var count int64
	err := r.db.Model(&model.Lesson{}).
		Where("course_id = ? AND published = ?", courseID, true).
		Count(&count).Error
	return count, err
}
