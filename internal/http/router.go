package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/skillsdna-backend/internal/http/handlers"
	httpMW "github.com/yungbote/skillsdna-backend/internal/http/middleware"
	"github.com/yungbote/skillsdna-backend/internal/observability"
	"github.com/yungbote/skillsdna-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log         *logger.Logger
	Metrics     *observability.Metrics
	CORSOrigins []string
	// TracingService names the otelgin server spans; empty disables the middleware.
	TracingService string

	AuthMiddleware *httpMW.AuthMiddleware

	CompetencyHandler *httpH.CompetencyHandler
	ProgressHandler   *httpH.ProgressHandler
	DiagnosticHandler *httpH.DiagnosticHandler
	HealthHandler     *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.TracingService != "" {
		r.Use(otelgin.Middleware(cfg.TracingService))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapF(cfg.Metrics.WriteHTTP))
	}

	api := r.Group("/api")

	// Authoring routes require a bearer token only when a secret is configured.
	authoring := api.Group("/")
	if cfg.AuthMiddleware != nil {
		authoring.Use(cfg.AuthMiddleware.RequireAuthor())
	}

	// Competencies
	if cfg.CompetencyHandler != nil {
		api.GET("/competencies", cfg.CompetencyHandler.List)
		api.GET("/competencies/:id", cfg.CompetencyHandler.Get)
		api.GET("/competencies/course/:courseId", cfg.CompetencyHandler.CourseBreakdown)
		api.GET("/competencies/course/:courseId/map", cfg.CompetencyHandler.CourseMap)
		api.GET("/competencies/module/:moduleId", cfg.CompetencyHandler.ModuleCompetencies)

		authoring.POST("/competencies", cfg.CompetencyHandler.Create)
		authoring.PUT("/competencies/:id", cfg.CompetencyHandler.Update)
		authoring.POST("/competencies/module/:moduleId/competency", cfg.CompetencyHandler.LinkToModule)
	}

	// Progress
	if cfg.ProgressHandler != nil {
		api.GET("/competencies/user/:userId/progress", cfg.ProgressHandler.List)
		api.POST("/competencies/user/:userId/progress", cfg.ProgressHandler.Upsert)
		api.GET("/competencies/user/:userId/summary", cfg.ProgressHandler.Summary)
	}

	// Diagnostics
	if cfg.DiagnosticHandler != nil {
		api.POST("/diagnostics/results", cfg.DiagnosticHandler.SaveResults)
	}

	return r
}
