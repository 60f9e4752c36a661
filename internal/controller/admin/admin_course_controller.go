package admin

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lshigami/Sifaka/internal/controller"
	"github.com/lshigami/Sifaka/internal/dto"
	"github.com/lshigami/Sifaka/internal/service"
)

type CourseController struct {
	adminSvc service.AdminCourseService
}

func NewCourseController(adminSvc service.AdminCourseService) *CourseController {
	return &CourseController{adminSvc: adminSvc}
}

// CreateUser godoc
// @Summary Create a user
// @Tags Admin
// @Accept json
// @Produce json
// @Param user body dto.CreateUserRequest true "Name, email and role"
// @Success 201 {object} model.User
// @Failure 409 {object} dto.ErrorResponse "Email already registered"
// @Router /admin/users [post]
func (ctrl *CourseController) CreateUser(c *gin.Context) {
	var req dto.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}

	user, err := ctrl.adminSvc.CreateUser(req)
	if err != nil {
		controller.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

// CreateCourse godoc
// @Summary Create a course in draft state
// @Tags Admin
// @Accept json
// @Produce json
// @Param course body dto.CreateCourseRequest true "Title, description and instructor"
// @Success 201 {object} dto.CourseResponse
// @Failure 404 {object} dto.ErrorResponse "Instructor not found"
// @Router /admin/courses [post]
func (ctrl *CourseController) CreateCourse(c *gin.Context) {
	var req dto.CreateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}

	course, err := ctrl.adminSvc.CreateCourse(req)
	if err != nil {
		controller.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, course)
}

// PublishCourse godoc
// @Summary Publish a course
// @Description Published courses accept enrollments. Archived courses cannot be republished.
// @Tags Admin
// @Produce json
// @Param course_id path int true "Course ID"
// @Success 200 {object} dto.CourseResponse
// @Failure 422 {object} dto.ErrorResponse "Course is archived"
// @Router /admin/courses/{course_id}/publish [put]
func (ctrl *CourseController) PublishCourse(c *gin.Context) {
	courseID, ok := controller.ParseUintParam(c, "course_id")
	if !ok {
		return
	}

	course, err := ctrl.adminSvc.PublishCourse(courseID)
	if err != nil {
		controller.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, course)
}

// AddLesson godoc
// @Summary Add a lesson to a course
// @Tags Admin
// @Accept json
// @Produce json
// @Param course_id path int true "Course ID"
// @Param lesson body dto.CreateLessonRequest true "Lesson title, order and published flag"
// @Success 201 {object} model.Lesson
// @Failure 404 {object} dto.ErrorResponse "Course not found"
// @Router /admin/courses/{course_id}/lessons [post]
func (ctrl *CourseController) AddLesson(c *gin.Context) {
	courseID, ok := controller.ParseUintParam(c, "course_id")
	if !ok {
		return
	}
	var req dto.CreateLessonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}

	lesson, err := ctrl.adminSvc.AddLesson(courseID, req)
	if err != nil {
		controller.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, lesson)
}

// AddExam godoc
// @Summary Add an exam with its questions to a course
// @Description Total points are derived from the questions. Correct answers never appear in responses.
// @Tags Admin
// @Accept json
// @Produce json
// @Param course_id path int true "Course ID"
// @Param exam body dto.CreateExamRequest true "Exam configuration and questions"
// @Success 201 {object} model.Exam
// @Failure 400 {object} dto.ErrorResponse "Passing score exceeds total points or window inverted"
// @Failure 404 {object} dto.ErrorResponse "Course not found"
// @Router /admin/courses/{course_id}/exams [post]
func (ctrl *CourseController) AddExam(c *gin.Context) {
	courseID, ok := controller.ParseUintParam(c, "course_id")
	if !ok {
		return
	}
	var req dto.CreateExamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}

	exam, err := ctrl.adminSvc.AddExam(courseID, req)
	if err != nil {
		controller.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, exam)
}
