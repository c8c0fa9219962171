package app

import (
	"fmt"

	httpserver "github.com/yungbote/skillsdna-backend/internal/http"
	httpH "github.com/yungbote/skillsdna-backend/internal/http/handlers"
	httpMW "github.com/yungbote/skillsdna-backend/internal/http/middleware"
	"github.com/yungbote/skillsdna-backend/internal/observability"
	"github.com/yungbote/skillsdna-backend/internal/platform/logger"
)

type Handlers struct {
	Health     *httpH.HealthHandler
	Competency *httpH.CompetencyHandler
	Progress   *httpH.ProgressHandler
	Diagnostic *httpH.DiagnosticHandler
}

func wireHandlers(log *logger.Logger, svcs Services, health httpH.Pinger) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:     httpH.NewHealthHandler(health),
		Competency: httpH.NewCompetencyHandler(log, svcs.Competency, svcs.CompetencyMap),
		Progress:   httpH.NewProgressHandler(log, svcs.Progress, svcs.Summary),
		Diagnostic: httpH.NewDiagnosticHandler(log, svcs.Progress),
	}
}

func wireServer(cfg Config, log *logger.Logger, handlers Handlers, metrics *observability.Metrics) (*httpserver.Server, error) {
	if err := httpMW.RegisterValidators(); err != nil {
		return nil, fmt.Errorf("register validators: %w", err)
	}
	auth := httpMW.NewAuthMiddleware(log, cfg.JWTSecretKey)
	if auth == nil {
		log.Warn("JWT_SECRET_KEY is empty; authoring routes are unauthenticated")
	}
	tracing := ""
	if cfg.OTel.Enabled {
		tracing = cfg.OTel.ServiceName
	}
	return httpserver.NewServer(cfg.HTTPAddr, httpserver.RouterConfig{
		Log:               log,
		Metrics:           metrics,
		CORSOrigins:       cfg.CORSOrigins,
		TracingService:    tracing,
		AuthMiddleware:    auth,
		CompetencyHandler: handlers.Competency,
		ProgressHandler:   handlers.Progress,
		DiagnosticHandler: handlers.Diagnostic,
		HealthHandler:     handlers.Health,
	}), nil
}
