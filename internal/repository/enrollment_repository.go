package repository

import (
	"time"

	"github.com/lshigami/Sifaka/internal/model"
	"gorm.io/gorm"
)

// CertificateGrant carries the fields frozen onto an enrollment at issuance.
type CertificateGrant struct {
	CertificateID            string
	CertificateURL           string
	IssuedAt                 time.Time
	SnapshotTotalLessons     int
	SnapshotCompletedLessons int
}

type EnrollmentRepository interface {
	Create(enrollment *model.Enrollment) error
	FindByID(id uint) (*model.Enrollment, error)
	FindByIDWithCourse(id uint) (*model.Enrollment, error)
	FindByCertificateID(certificateID string) (*model.Enrollment, error)
	FindByStudentAndCourse(studentID, courseID uint) (*model.Enrollment, error)
	FindAllByStudent(studentID uint, status *string, page, limit int) ([]model.Enrollment, error)

	// SaveVersioned writes derived fields guarded by the optimistic version
	// counter; false means another writer got there first and the caller
	// should reload and retry.
	SaveVersioned(enrollment *model.Enrollment) (bool, error)

	// MarkCertificateIssued flips certificate_issued false->true in a single
	// conditional update. false means the certificate was already issued.
	MarkCertificateIssued(id uint, grant CertificateGrant) (bool, error)
}

type enrollmentRepository struct {
	db *gorm.DB
}

func NewEnrollmentRepository(db *gorm.DB) EnrollmentRepository {
	return &enrollmentRepository{db: db}
}

func (r *enrollmentRepository) Create(enrollment *model.Enrollment) error {
	// Relies on the (student_id, course_id) unique index; duplicates come
	// back as gorm.ErrDuplicatedKey.
	return r.db.Create(enrollment).Error
}

func (r *enrollmentRepository) FindByID(id uint) (*model.Enrollment, error) {
	var enrollment model.Enrollment
	if err := r.db.First(&enrollment, id).Error; err != nil {
		return nil, err
	}
	return &enrollment, nil
}

func (r *enrollmentRepository) FindByIDWithCourse(id uint) (*model.Enrollment, error) {
	var enrollment model.Enrollment
	if err := r.db.Preload("Course").First(&enrollment, id).Error; err != nil {
		return nil, err
	}
	return &enrollment, nil
}

func (r *enrollmentRepository) FindByCertificateID(certificateID string) (*model.Enrollment, error) {
	var enrollment model.Enrollment
	err := r.db.Preload("Course").Preload("Student").
		Where("certificate_id = ? AND certificate_issued = ?", certificateID, true).
		First(&enrollment).Error
	if err != nil {
		return nil, err
	}
	return &enrollment, nil
}

func (r *enrollmentRepository) FindByStudentAndCourse(studentID, courseID uint) (*model.Enrollment, error) {
	var enrollment model.Enrollment
	err := r.db.Where("student_id = ? AND course_id = ?", studentID, courseID).First(&enrollment).Error
	if err != nil {
		return nil, err
	}
	return &enrollment, nil
}

func (r *enrollmentRepository) FindAllByStudent(studentID uint, status *string, page, limit int) ([]model.Enrollment, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	query := r.db.Preload("Course").Where("student_id = ?", studentID)
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	var enrollments []model.Enrollment
	err := query.Order("created_at DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&enrollments).Error
	return enrollments, err
}

func (r *enrollmentRepository) SaveVersioned(enrollment *model.Enrollment) (bool, error) {
	currentVersion := enrollment.Version
	res := r.db.Model(&model.Enrollment{}).
		Where("id = ? AND version = ?", enrollment.ID, currentVersion).
		Updates(map[string]interface{}{
			"status":           enrollment.Status,
			"progress":         enrollment.Progress,
			"total_time_spent": enrollment.TotalTimeSpent,
			"completed_at":     enrollment.CompletedAt,
			"version":          currentVersion + 1,
		})
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	enrollment.Version = currentVersion + 1
	return true, nil
}

func (r *enrollmentRepository) MarkCertificateIssued(id uint, grant CertificateGrant) (bool, error) {
	res := r.db.Model(&model.Enrollment{}).
		Where("id = ? AND certificate_issued = ?", id, false).
		Updates(map[string]interface{}{
			"certificate_issued":         true,
			"certificate_id":             grant.CertificateID,
			"certificate_url":            grant.CertificateURL,
			"certificate_issued_at":      grant.IssuedAt,
			"snapshot_total_lessons":     grant.SnapshotTotalLessons,
			"snapshot_completed_lessons": grant.SnapshotCompletedLessons,
			"snapshot_date":              grant.IssuedAt,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
