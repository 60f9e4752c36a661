package repository

import (
	"github.com/lshigami/Sifaka/internal/model"
	"gorm.io/gorm"
)

type ExamRepository interface {
	Create(exam *model.Exam) error
	FindByID(id uint) (*model.Exam, error)
	FindByIDWithQuestions(id uint) (*model.Exam, error)
	FindRequiredPublishedByCourseID(courseID uint) ([]model.Exam, error)
	CountPublishedByCourseID(courseID uint) (int64, error)
}

type examRepository struct {
	db *gorm.DB
}

func NewExamRepository(db *gorm.DB) ExamRepository {
	return &examRepository{db: db}
}

func (r *examRepository) Create(exam *model.Exam) error {
	// Creates associated questions when exam.Questions is populated.
	return r.db.Create(exam).Error
}

func (r *examRepository) FindByID(id uint) (*model.Exam, error) {
	var exam model.Exam
	if err := r.db.First(&exam, id).Error; err != nil {
		return nil, err
	}
	return &exam, nil
}

func (r *examRepository) FindByIDWithQuestions(id uint) (*model.Exam, error) {
	var exam model.Exam
	err := r.db.Preload("Questions", func(db *gorm.DB) *gorm.DB {
		return db.Order("exam_questions.order_in_exam ASC")
	}).First(&exam, id).Error
	if err != nil {
		return nil, err
	}
	return &exam, nil
}

func (r *examRepository) FindRequiredPublishedByCourseID(courseID uint) ([]model.Exam, error) {
	var exams []model.Exam
	err := r.db.Where("course_id = ? AND required = ? AND published = ?", courseID, true, true).
		Find(&exams).Error
	return exams, err
}

func (r *examRepository) CountPublishedByCourseID(courseID uint) (int64, error) {
	var count int64
	err := r.db.Model(&model.Exam{}).
		Where("course_id = ? AND published = ?", courseID, true).
		Count(&count).Error
	return count, err
}
