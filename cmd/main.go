package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/lshigami/Sifaka/config"
	"github.com/lshigami/Sifaka/database"
	adminctrl "github.com/lshigami/Sifaka/internal/controller/admin"
	userctrl "github.com/lshigami/Sifaka/internal/controller/user"
	"github.com/lshigami/Sifaka/internal/logger"
	"github.com/lshigami/Sifaka/internal/model"
	"github.com/lshigami/Sifaka/internal/notification"
	"github.com/lshigami/Sifaka/internal/renderer"
	"github.com/lshigami/Sifaka/internal/repository"
	"github.com/lshigami/Sifaka/internal/scheduler"
	"github.com/lshigami/Sifaka/internal/service"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

// @title Course Progress & Certification API
// @version 1.0
// @description Course enrollment, lesson progress tracking, timed exam attempts and certificate issuance.
// @contact.name API Support
// @contact.email support@example.com
// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html
// @host localhost:8080
// @BasePath /api/v1
// @schemes http https
func main() {
	logger.Init()

	app := fx.New(
		// Core application components
		fx.Provide(
			config.NewConfig,
			database.NewDatabase, // Provides *gorm.DB
			NewGinEngine,
			NewDispatcher,
			NewCertificateRenderer,
		),

		// Repositories layer
		fx.Provide(
			repository.NewUserRepository,
			repository.NewCourseRepository,
			repository.NewLessonRepository,
			repository.NewExamRepository,
			repository.NewEnrollmentRepository,
			repository.NewLessonProgressRepository,
			repository.NewExamResultRepository,
			repository.NewExamAttemptRepository,
		),

		// Services layer
		fx.Provide(
			service.NewEligibilityService,
			service.NewCourseCatalog,
			service.NewScoringPolicyService,
			service.NewGraderService,
			service.NewEnrollmentService,
			service.NewProgressService,
			service.NewCertificateService,
			service.NewAttemptService,
			service.NewAdminCourseService,
		),

		// API controllers layer
		fx.Provide(
			adminctrl.NewCourseController,
			userctrl.NewEnrollmentController,
			userctrl.NewAttemptController,
			userctrl.NewCertificateController,
		),

		fx.Invoke(RegisterRoutesAndStartServer),
		fx.Invoke(AutoMigrateDB),
		fx.Invoke(scheduler.Register),
	)

	if err := app.Start(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to start application")
	}

	<-app.Done()
	log.Info().Msg("Application shutting down gracefully...")
}

// NewDispatcher picks the notification backend: SendGrid when an API key is
// configured, a log-only dispatcher otherwise.
func NewDispatcher(cfg *config.Config) notification.Dispatcher {
	if cfg.Notification.SendGridAPIKey != "" {
		return notification.NewSendGridDispatcher(
			cfg.Notification.SendGridAPIKey,
			cfg.Notification.FromEmail,
			cfg.Notification.FromName,
		)
	}
	log.Info().Msg("No SendGrid API key configured, notifications will be logged only")
	return notification.NewLogDispatcher()
}

// NewCertificateRenderer picks the certificate backend: the external HTTP
// rendering service when configured, a deterministic local URL otherwise.
func NewCertificateRenderer(cfg *config.Config) renderer.CertificateRenderer {
	if cfg.Renderer.BaseURL != "" {
		return renderer.NewHTTPRenderer(cfg.Renderer.BaseURL)
	}
	return renderer.NewLocalRenderer()
}

func NewGinEngine() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	r.Use(gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		log.Info().
			Str("client_ip", param.ClientIP).
			Str("method", param.Method).
			Str("path", param.Path).
			Int("status_code", param.StatusCode).
			Dur("latency", param.Latency).
			Str("error_message", param.ErrorMessage).
			Msg("gin_request")
		return ""
	}))
	r.Use(gin.Recovery())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Swagger UI at /swagger/index.html
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}

// RegisterRoutesAndStartServer configures API routes and manages the server
// lifecycle.
func RegisterRoutesAndStartServer(
	lc fx.Lifecycle,
	router *gin.Engine,
	cfg *config.Config,
	courseCtrl *adminctrl.CourseController,
	enrollmentCtrl *userctrl.EnrollmentController,
	attemptCtrl *userctrl.AttemptController,
	certificateCtrl *userctrl.CertificateController,
) {
	// Admin routes (prefixed with /api/v1/admin)
	adminGroup := router.Group("/api/v1/admin")
	{
		adminGroup.POST("/users", courseCtrl.CreateUser)
		adminGroup.POST("/courses", courseCtrl.CreateCourse)
		adminGroup.PUT("/courses/:course_id/publish", courseCtrl.PublishCourse)
		adminGroup.POST("/courses/:course_id/lessons", courseCtrl.AddLesson)
		adminGroup.POST("/courses/:course_id/exams", courseCtrl.AddExam)
	}

	// User routes (prefixed with /api/v1)
	apiGroup := router.Group("/api/v1")
	{
		// Enrollment lifecycle
		apiGroup.POST("/enrollments", enrollmentCtrl.Enroll)
		apiGroup.GET("/enrollments", enrollmentCtrl.ListMyEnrollments)
		apiGroup.GET("/enrollments/:enrollment_id", enrollmentCtrl.GetEnrollment)
		apiGroup.DELETE("/enrollments/:enrollment_id", enrollmentCtrl.Unenroll)

		// Progress tracking
		apiGroup.POST("/enrollments/:enrollment_id/lessons/:lesson_id/complete", enrollmentCtrl.CompleteLesson)
		apiGroup.POST("/enrollments/:enrollment_id/time", enrollmentCtrl.RecordTime)

		// Certificates
		apiGroup.POST("/enrollments/:enrollment_id/certificate", certificateCtrl.GenerateCertificate)
		apiGroup.GET("/enrollments/:enrollment_id/certificate", certificateCtrl.GetCertificate)
		apiGroup.GET("/enrollments/:enrollment_id/content-drift", certificateCtrl.ContentDrift)

		// Public verification, no identity required
		apiGroup.GET("/certificates/:certificate_id", certificateCtrl.VerifyCertificate)

		// Timed exam attempts
		apiGroup.POST("/exams/:exam_id/attempts", attemptCtrl.StartAttempt)
		apiGroup.GET("/exams/:exam_id/my-attempts", attemptCtrl.ListMyAttempts)
		apiGroup.GET("/exams/:exam_id/my-result", attemptCtrl.FinalResult)
		apiGroup.PUT("/exam-attempts/:attempt_id/answers", attemptCtrl.SaveAnswers)
		apiGroup.POST("/exam-attempts/:attempt_id/submit", attemptCtrl.SubmitAttempt)
		apiGroup.POST("/exam-attempts/:attempt_id/abandon", attemptCtrl.AbandonAttempt)
	}

	server := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info().Msgf("Course progress API server starting on port %s", cfg.Server.Port)
			log.Info().Msgf("Swagger UI available at http://localhost:%s/swagger/index.html", cfg.Server.Port)
			go func() {
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal().Err(err).Msg("Server ListenAndServe failed")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info().Msg("Server shutting down...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		},
	})
}

func AutoMigrateDB(db *gorm.DB) error {
	log.Info().Msg("Running database migrations...")
	err := db.AutoMigrate(
		&model.User{},
		&model.Course{},
		&model.Lesson{},
		&model.Exam{},
		&model.ExamQuestion{},
		&model.Enrollment{},
		&model.LessonProgress{},
		&model.ExamResult{},
		&model.ExamAttempt{},
	)
	if err != nil {
		log.Error().Err(err).Msg("Database migration failed")
		return err
	}
	log.Info().Msg("Database migration completed successfully.")
	return nil
}
