package router

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/notenpfad-api/internal/handler"
	"github.com/noah-isme/notenpfad-api/internal/middleware"
	"github.com/noah-isme/notenpfad-api/internal/models"
	"github.com/noah-isme/notenpfad-api/internal/service"
	"github.com/noah-isme/notenpfad-api/pkg/config"
	"github.com/noah-isme/notenpfad-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/notenpfad-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/notenpfad-api/pkg/middleware/requestid"
)

// Dependencies bundles everything the HTTP layer needs.
type Dependencies struct {
	Config    *config.Config
	Logger    *zap.Logger
	Metrics   *service.MetricsService
	Auth      *service.AuthService
	Grades    *service.GradeService
	Subjects  *service.SubjectService
	Students  *service.StudentService
	Topics    *service.TopicService
	Reports   *service.ReportService
	Assistant *service.AssistantService
	// Checks back the /ready probe.
	Checks map[string]handler.ReadinessCheck
}

// New builds the gin engine with every route mounted under the configured prefix.
func New(deps Dependencies) *gin.Engine {
	cfg := deps.Config
	logr := deps.Logger
	if logr == nil {
		logr = zap.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(deps.Metrics))
	r.Use(middleware.WithResponseMeta())

	presentation := handler.PresentationConfig{
		DisplayPrecision: cfg.Grades.DisplayPrecision,
		PassThreshold:    cfg.Grades.PassThreshold,
	}
	authHandler := handler.NewAuthHandler(deps.Auth)
	gradeHandler := handler.NewGradeHandler(deps.Grades, presentation)
	subjectHandler := handler.NewSubjectHandler(deps.Subjects)
	topicHandler := handler.NewTopicHandler(deps.Topics)
	studentHandler := handler.NewStudentHandler(deps.Students, deps.Reports)
	chatHandler := handler.NewChatHandler(deps.Assistant)
	metricsHandler := handler.NewMetricsHandler(deps.Metrics, deps.Checks)

	api := r.Group(cfg.APIPrefix)

	api.GET("/health", metricsHandler.Health)
	api.GET("/ready", metricsHandler.Ready)
	api.GET("/status", metricsHandler.Status)
	api.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		api.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api.POST("/login", authHandler.Login)
	api.POST("/chat", middleware.OptionalJWT(deps.Auth), chatHandler.Chat)

	secured := api.Group("")
	secured.Use(middleware.JWT(deps.Auth))

	admin := middleware.RequireRoles(models.RoleAdmin)
	adminOrSelf := middleware.RBAC(string(models.RoleAdmin), middleware.AllowSelf)

	secured.GET("/me", authHandler.Me)

	grades := secured.Group("/grades")
	grades.GET("", gradeHandler.List)
	grades.POST("", middleware.Audit(logr, "create", "grade"), gradeHandler.Create)
	grades.GET("/:id", gradeHandler.Get)
	grades.DELETE("/:id", middleware.Audit(logr, "delete", "grade"), gradeHandler.Delete)

	secured.GET("/averages", gradeHandler.Averages)
	secured.POST("/prediction", gradeHandler.Predict)

	subjects := secured.Group("/subjects")
	subjects.GET("", subjectHandler.List)
	subjects.GET("/:id", subjectHandler.Get)
	subjects.GET("/:id/topics", topicHandler.ListBySubject)
	subjects.POST("", admin, middleware.Audit(logr, "create", "subject"), subjectHandler.Create)
	subjects.PUT("/:id", admin, middleware.Audit(logr, "update", "subject"), subjectHandler.Update)
	subjects.DELETE("/:id", admin, middleware.Audit(logr, "delete", "subject"), subjectHandler.Delete)

	topics := secured.Group("/topics")
	topics.POST("", admin, middleware.Audit(logr, "create", "topic"), topicHandler.Create)
	topics.PUT("/:id/toggle", middleware.Audit(logr, "toggle", "topic"), topicHandler.Toggle)

	students := secured.Group("/students")
	students.GET("", admin, studentHandler.List)
	students.POST("", admin, middleware.Audit(logr, "create", "student"), studentHandler.Create)
	students.GET("/:id", adminOrSelf, studentHandler.Get)
	students.PUT("/:id", admin, middleware.Audit(logr, "update", "student"), studentHandler.Update)
	students.DELETE("/:id", admin, middleware.Audit(logr, "delete", "student"), studentHandler.Delete)
	students.POST("/:id/reset", admin, middleware.Audit(logr, "reset", "student"), studentHandler.Reset)
	students.GET("/:id/report", adminOrSelf, studentHandler.Report)

	return r
}
