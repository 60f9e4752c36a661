package service

import (
	"github.com/lshigami/Sifaka/internal/model"
	"github.com/lshigami/Sifaka/internal/repository"
)

// CourseCatalog exposes the published-content counts the lifecycle logic
// depends on. Injected explicitly so enrollment and certificate code never
// reach into lesson/exam storage directly.
type CourseCatalog interface {
	PublishedLessonCount(courseID uint) (int, error)
	PublishedExamCount(courseID uint) (int, error)
	RequiredPublishedExams(courseID uint) ([]model.Exam, error)
}

type courseCatalog struct {
	lessonRepo repository.LessonRepository
	examRepo   repository.ExamRepository
}

func NewCourseCatalog(lessonRepo repository.LessonRepository, examRepo repository.ExamRepository) CourseCatalog {
	return &courseCatalog{lessonRepo: lessonRepo, examRepo: examRepo}
}

func (c *courseCatalog) PublishedLessonCount(courseID uint) (int, error) {
	count, err := c.lessonRepo.CountPublishedByCourseID(courseID)
	return int(count), err
}

func (c *courseCatalog) PublishedExamCount(courseID uint) (int, error) {
	count, err := c.examRepo.CountPublishedByCourseID(courseID)
	return int(count), err
}

func (c *courseCatalog) RequiredPublishedExams(courseID uint) ([]model.Exam, error) {
	return c.examRepo.FindRequiredPublishedByCourseID(courseID)
}
