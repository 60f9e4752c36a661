package user

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lshigami/Sifaka/internal/controller"
	"github.com/lshigami/Sifaka/internal/dto"
	"github.com/lshigami/Sifaka/internal/service"
)

type AttemptController struct {
	attemptSvc service.AttemptService
}

func NewAttemptController(attemptSvc service.AttemptService) *AttemptController {
	return &AttemptController{attemptSvc: attemptSvc}
}

// StartAttempt godoc
// @Summary Start a timed exam attempt
// @Description The deadline is fixed at start time. At most one in-progress attempt per (exam, student) is allowed.
// @Tags Attempts
// @Accept json
// @Produce json
// @Param exam_id path int true "Exam ID"
// @Param attempt body dto.StartAttemptRequest true "Student starting the attempt"
// @Success 201 {object} dto.AttemptResponse
// @Failure 403 {object} dto.ErrorResponse "Not enrolled in the exam's course"
// @Failure 409 {object} dto.ErrorResponse "An attempt is already in progress"
// @Failure 422 {object} dto.ErrorResponse "Exam window closed"
// @Failure 429 {object} dto.ErrorResponse "Attempt quota exhausted"
// @Router /exams/{exam_id}/attempts [post]
func (ctrl *AttemptController) StartAttempt(c *gin.Context) {
	examID, ok := controller.ParseUintParam(c, "exam_id")
	if !ok {
		return
	}
	var req dto.StartAttemptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}

	attempt, err := ctrl.attemptSvc.Start(examID, req.StudentID)
	if err != nil {
		controller.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, attempt)
}

// SaveAnswers godoc
// @Summary Autosave draft answers on an in-progress attempt
// @Description Replaces the saved answer set. Saving past the deadline expires the attempt instead.
// @Tags Attempts
// @Accept json
// @Produce json
// @Param attempt_id path int true "Attempt ID"
// @Param answers body dto.AnswersRequest true "Full answer set keyed by question ID"
// @Success 200 {object} dto.AttemptResponse
// @Failure 422 {object} dto.ErrorResponse "Attempt is not in progress or has expired"
// @Router /exam-attempts/{attempt_id}/answers [put]
func (ctrl *AttemptController) SaveAnswers(c *gin.Context) {
	attemptID, ok := controller.ParseUintParam(c, "attempt_id")
	if !ok {
		return
	}
	var req dto.AnswersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}

	attempt, err := ctrl.attemptSvc.SaveAnswers(attemptID, req.StudentID, req.Answers)
	if err != nil {
		controller.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, attempt)
}

// SubmitAttempt godoc
// @Summary Submit an attempt for grading
// @Description Grades against the answer key, applies the late penalty when applicable, and folds the score into the exam result.
// @Tags Attempts
// @Accept json
// @Produce json
// @Param attempt_id path int true "Attempt ID"
// @Param answers body dto.AnswersRequest true "Final answer set keyed by question ID"
// @Success 200 {object} dto.AttemptResponse
// @Failure 422 {object} dto.ErrorResponse "Attempt already terminal, expired, or late submission not allowed"
// @Router /exam-attempts/{attempt_id}/submit [post]
func (ctrl *AttemptController) SubmitAttempt(c *gin.Context) {
	attemptID, ok := controller.ParseUintParam(c, "attempt_id")
	if !ok {
		return
	}
	var req dto.AnswersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}

	attempt, err := ctrl.attemptSvc.Submit(attemptID, req.StudentID, req.Answers)
	if err != nil {
		controller.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, attempt)
}

// AbandonAttempt godoc
// @Summary Abandon an in-progress attempt
// @Description Terminal and scoreless; the attempt still counts toward the quota.
// @Tags Attempts
// @Produce json
// @Param attempt_id path int true "Attempt ID"
// @Param student_id query int true "Student ID"
// @Success 200 {object} dto.AttemptResponse
// @Failure 422 {object} dto.ErrorResponse "Attempt already terminal or expired"
// @Router /exam-attempts/{attempt_id}/abandon [post]
func (ctrl *AttemptController) AbandonAttempt(c *gin.Context) {
	attemptID, ok := controller.ParseUintParam(c, "attempt_id")
	if !ok {
		return
	}
	studentID, ok := controller.ParseUintQuery(c, "student_id")
	if !ok {
		return
	}

	attempt, err := ctrl.attemptSvc.Abandon(attemptID, studentID)
	if err != nil {
		controller.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, attempt)
}

// ListMyAttempts godoc
// @Summary List a student's attempts on an exam
// @Tags Attempts
// @Produce json
// @Param exam_id path int true "Exam ID"
// @Param student_id query int true "Student ID"
// @Success 200 {array} dto.AttemptResponse
// @Router /exams/{exam_id}/my-attempts [get]
func (ctrl *AttemptController) ListMyAttempts(c *gin.Context) {
	examID, ok := controller.ParseUintParam(c, "exam_id")
	if !ok {
		return
	}
	studentID, ok := controller.ParseUintQuery(c, "student_id")
	if !ok {
		return
	}

	attempts, err := ctrl.attemptSvc.ListMyAttempts(examID, studentID)
	if err != nil {
		controller.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, attempts)
}

// FinalResult godoc
// @Summary Get the aggregated exam result
// @Description Aggregates terminal attempts under the exam's scoring method (highest, latest or average).
// @Tags Attempts
// @Produce json
// @Param exam_id path int true "Exam ID"
// @Param student_id query int true "Student ID"
// @Success 200 {object} dto.ExamResultResponse
// @Failure 404 {object} dto.ErrorResponse "No graded attempt exists yet"
// @Router /exams/{exam_id}/my-result [get]
func (ctrl *AttemptController) FinalResult(c *gin.Context) {
	examID, ok := controller.ParseUintParam(c, "exam_id")
	if !ok {
		return
	}
	studentID, ok := controller.ParseUintQuery(c, "student_id")
	if !ok {
		return
	}

	result, err := ctrl.attemptSvc.FinalResult(examID, studentID)
	if err != nil {
		controller.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
