package user

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/lshigami/Sifaka/internal/controller"
	"github.com/lshigami/Sifaka/internal/dto"
	"github.com/lshigami/Sifaka/internal/service"
	"github.com/rs/zerolog/log"
)

type EnrollmentController struct {
	enrollmentSvc service.EnrollmentService
	progressSvc   service.ProgressService
}

func NewEnrollmentController(enrollmentSvc service.EnrollmentService, progressSvc service.ProgressService) *EnrollmentController {
	return &EnrollmentController{enrollmentSvc: enrollmentSvc, progressSvc: progressSvc}
}

// Enroll godoc
// @Summary Enroll a student in a course
// @Description Creates the unique (student, course) enrollment. The published-lesson count is snapshotted at this moment.
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param enrollment body dto.EnrollRequest true "Student, course and optional payment reference"
// @Success 201 {object} dto.EnrollmentResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid request body"
// @Failure 404 {object} dto.ErrorResponse "Student or course not found"
// @Failure 409 {object} dto.ErrorResponse "Already enrolled"
// @Failure 422 {object} dto.ErrorResponse "Course not published or enrollment not allowed"
// @Router /enrollments [post]
func (ctrl *EnrollmentController) Enroll(c *gin.Context) {
	var req dto.EnrollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}

	enrollment, err := ctrl.enrollmentSvc.Enroll(req)
	if err != nil {
		controller.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, enrollment)
}

// ListMyEnrollments godoc
// @Summary List a student's enrollments
// @Tags Enrollments
// @Produce json
// @Param student_id query int true "Student ID"
// @Param status query string false "Filter by status (active, completed, suspended, expired)"
// @Param page query int false "Page number (default 1)"
// @Param limit query int false "Page size (default 20, max 100)"
// @Success 200 {array} dto.EnrollmentResponse
// @Router /enrollments [get]
func (ctrl *EnrollmentController) ListMyEnrollments(c *gin.Context) {
	studentID, ok := controller.ParseUintQuery(c, "student_id")
	if !ok {
		return
	}

	var status *string
	if raw := c.Query("status"); raw != "" {
		status = &raw
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	enrollments, err := ctrl.enrollmentSvc.ListMyEnrollments(studentID, status, page, limit)
	if err != nil {
		controller.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, enrollments)
}

// GetEnrollment godoc
// @Summary Get one enrollment
// @Tags Enrollments
// @Produce json
// @Param enrollment_id path int true "Enrollment ID"
// @Param requester_id query int true "Requesting user ID"
// @Success 200 {object} dto.EnrollmentResponse
// @Failure 403 {object} dto.ErrorResponse "Not the owner"
// @Failure 404 {object} dto.ErrorResponse "Enrollment not found"
// @Router /enrollments/{enrollment_id} [get]
func (ctrl *EnrollmentController) GetEnrollment(c *gin.Context) {
	enrollmentID, ok := controller.ParseUintParam(c, "enrollment_id")
	if !ok {
		return
	}
	requesterID, ok := controller.ParseUintQuery(c, "requester_id")
	if !ok {
		return
	}

	enrollment, err := ctrl.enrollmentSvc.GetEnrollment(enrollmentID, requesterID)
	if err != nil {
		controller.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, enrollment)
}

// Unenroll godoc
// @Summary Remove an enrollment
// @Description Deletes the enrollment and cascades its progress and attempt rows. Retried deletes never double-decrement the course counter.
// @Tags Enrollments
// @Produce json
// @Param enrollment_id path int true "Enrollment ID"
// @Param requester_id query int true "Requesting user ID"
// @Success 204 "Unenrolled"
// @Failure 403 {object} dto.ErrorResponse "Not the owner"
// @Failure 404 {object} dto.ErrorResponse "Enrollment not found"
// @Router /enrollments/{enrollment_id} [delete]
func (ctrl *EnrollmentController) Unenroll(c *gin.Context) {
	enrollmentID, ok := controller.ParseUintParam(c, "enrollment_id")
	if !ok {
		return
	}
	requesterID, ok := controller.ParseUintQuery(c, "requester_id")
	if !ok {
		return
	}

	if err := ctrl.enrollmentSvc.Unenroll(enrollmentID, requesterID); err != nil {
		controller.RespondError(c, err)
		return
	}
	log.Info().Uint("enrollmentID", enrollmentID).Msg("Enrollment removed")
	c.Status(http.StatusNoContent)
}

// CompleteLesson godoc
// @Summary Record a lesson completion
// @Description Idempotent: completing the same lesson twice is a no-op. May transition the enrollment to completed.
// @Tags Progress
// @Produce json
// @Param enrollment_id path int true "Enrollment ID"
// @Param lesson_id path int true "Lesson ID"
// @Param requester_id query int true "Requesting user ID"
// @Success 200 {object} dto.EnrollmentResponse
// @Failure 400 {object} dto.ErrorResponse "Lesson outside course or unpublished"
// @Failure 404 {object} dto.ErrorResponse "Enrollment or lesson not found"
// @Router /enrollments/{enrollment_id}/lessons/{lesson_id}/complete [post]
func (ctrl *EnrollmentController) CompleteLesson(c *gin.Context) {
	enrollmentID, ok := controller.ParseUintParam(c, "enrollment_id")
	if !ok {
		return
	}
	lessonID, ok := controller.ParseUintParam(c, "lesson_id")
	if !ok {
		return
	}
	requesterID, ok := controller.ParseUintQuery(c, "requester_id")
	if !ok {
		return
	}

	enrollment, err := ctrl.progressSvc.RecordLessonCompletion(enrollmentID, lessonID, requesterID)
	if err != nil {
		controller.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, enrollment)
}

// RecordTime godoc
// @Summary Add study time to an enrollment
// @Tags Progress
// @Accept json
// @Produce json
// @Param enrollment_id path int true "Enrollment ID"
// @Param time body dto.RecordTimeRequest true "Minutes spent (non-negative)"
// @Success 200 {object} dto.EnrollmentResponse
// @Failure 400 {object} dto.ErrorResponse "Negative delta"
// @Router /enrollments/{enrollment_id}/time [post]
func (ctrl *EnrollmentController) RecordTime(c *gin.Context) {
	enrollmentID, ok := controller.ParseUintParam(c, "enrollment_id")
	if !ok {
		return
	}
	var req dto.RecordTimeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}

	enrollment, err := ctrl.progressSvc.RecordTimeSpent(enrollmentID, req.StudentID, req.Minutes)
	if err != nil {
		controller.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, enrollment)
}
