package app

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/skillsdna-backend/internal/data/db"
	"github.com/yungbote/skillsdna-backend/internal/data/repos"
	httpserver "github.com/yungbote/skillsdna-backend/internal/http"
	"github.com/yungbote/skillsdna-backend/internal/observability"
	"github.com/yungbote/skillsdna-backend/internal/platform/logger"
)

type App struct {
	Log      *logger.Logger
	DB       *db.Service
	Cfg      Config
	Repos    repos.Set
	Services Services
	Clients  Clients
	Metrics  *observability.Metrics
	Server   *httpserver.Server

	otelShutdown func(context.Context) error
}

// New opens the database and every configured client and wires the service graph.
// Callers must Close the returned App.
func New(ctx context.Context, cfg Config, log *logger.Logger) (*App, error) {
	if cfg.LogMode == "production" || cfg.LogMode == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	dbs, err := db.Open(cfg.DB, log)
	if err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}
	a := &App{Log: log, DB: dbs, Cfg: cfg}

	if cfg.AutoMigrate {
		if err := db.AutoMigrateAll(dbs.DB()); err != nil {
			a.Close()
			return nil, fmt.Errorf("automigrate: %w", err)
		}
	}

	a.otelShutdown = observability.InitOTel(ctx, log, cfg.OTel)
	a.Metrics = observability.Init(log)

	a.Clients, err = wireClients(cfg, log)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.Repos = repos.NewSet(dbs.DB(), log)
	a.Services, err = wireServices(dbs.DB(), log, a.Repos, a.Clients, a.Metrics)
	if err != nil {
		a.Close()
		return nil, err
	}

	sqlDB, err := dbs.DB().DB()
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("db handle: %w", err)
	}
	a.Server, err = wireServer(cfg, log, wireHandlers(log, a.Services, sqlDB), a.Metrics)
	if err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

// Run starts background collectors and serves HTTP until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	a.Metrics.StartDBCollector(ctx, a.Log, a.DB.DB())
	if a.Clients.Bus != nil {
		a.Metrics.StartRedisCollector(ctx, a.Log, a.Clients.Bus.Client())
	}
	a.Log.Info("HTTP server listening", "addr", a.Cfg.HTTPAddr)
	return a.Server.Run(ctx)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	a.Clients.Close()
	if a.otelShutdown != nil {
		_ = a.otelShutdown(context.Background())
	}
	if a.DB != nil {
		_ = a.DB.Close()
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
