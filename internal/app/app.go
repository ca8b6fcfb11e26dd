package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	httpserver "github.com/mizanhq/mizan-backend/internal/http"
	"github.com/mizanhq/mizan-backend/internal/observability"
	"github.com/mizanhq/mizan-backend/internal/platform/logger"
	"github.com/mizanhq/mizan-backend/internal/services"
)

const shutdownTimeout = 15 * time.Second

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Router   *gin.Engine
	Cfg      Config
	Clients  Clients
	Repos    Repos
	Services Services
	Metrics  *observability.Metrics

	otelShutdown func(context.Context) error
	cancel       context.CancelFunc
	background   sync.WaitGroup
}

func New() (*App, error) {
	log, err := logger.New(LogModeFromEnv())
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("Loading environment variables...")
	cfg := LoadConfig(log)
	if cfg.JWTSecretKey == "defaultsecret" {
		log.Warn("JWT_SECRET_KEY not set; using the development default")
	}

	ctx := context.Background()
	otelShutdown := observability.InitOTel(ctx, log, cfg.Otel)
	metrics := observability.New(cfg.MetricsEnabled)

	clients, err := wireClients(ctx, log, cfg)
	if err != nil {
		log.Sync()
		return nil, err
	}
	theDB := clients.Database.DB()

	reposet := wireRepos(theDB, log)
	serviceset := wireServices(theDB, log, cfg, reposet, clients, metrics)
	middleware := wireMiddleware(log, cfg, serviceset, metrics)
	handlerset := wireHandlers(log, theDB, serviceset)
	router := wireRouter(log, cfg, handlerset, middleware, metrics)

	return &App{
		Log:          log,
		DB:           theDB,
		Router:       router,
		Cfg:          cfg,
		Clients:      clients,
		Repos:        reposet,
		Services:     serviceset,
		Metrics:      metrics,
		otelShutdown: otelShutdown,
	}, nil
}

// Start runs the optional startup seed and the background collectors.
func (a *App) Start() error {
	if a == nil || a.cancel != nil {
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	if a.Cfg.SeedOnStart {
		if err := a.SeedFromFile(ctx, a.Cfg.SeedFile, false); err != nil {
			return err
		}
	}

	a.Metrics.StartDBCollector(ctx, a.Log, a.DB, 30*time.Second)
	if a.Clients.Redis != nil {
		a.Metrics.StartRedisCollector(ctx, a.Log, a.Clients.Redis, 30*time.Second)
	}

	// Warm the snapshot so the first graph request does not pay for the load.
	a.background.Add(1)
	go func() {
		defer a.background.Done()
		if _, err := a.Services.Graph.Snapshot(ctx); err != nil && !errors.Is(err, context.Canceled) {
			a.Log.Warn("graph snapshot warmup failed", "error", err)
			return
		}
		if a.Clients.Neo4j != nil {
			if err := a.Services.Graph.Project(ctx); err != nil && !errors.Is(err, context.Canceled) {
				a.Log.Warn("initial graph projection failed", "error", err)
			}
		}
	}()
	return nil
}

func (a *App) SeedFromFile(ctx context.Context, path string, reset bool) error {
	doc, err := services.LoadSeedFile(path)
	if err != nil {
		return fmt.Errorf("load seed %s: %w", path, err)
	}
	report, err := a.Services.Seed.Seed(ctx, doc, reset)
	if err != nil {
		return fmt.Errorf("seed %s: %w", path, err)
	}
	a.Log.Info("seed applied",
		"file", path,
		"reset", report.Reset,
		"frameworks", report.Frameworks,
		"controls", report.Controls,
		"articles", report.Articles,
		"provisions", report.Provisions,
		"edges_created", report.EdgesCreated,
		"edges_skipped", report.EdgesSkipped,
	)
	return nil
}

// Run serves until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Router == nil {
		return fmt.Errorf("app not initialized")
	}
	srv := httpserver.NewServer(a.Cfg.Addr(), a.Router)
	a.Log.Info("HTTP server listening", "addr", srv.Addr())
	if err := srv.Run(ctx); err != nil {
		return err
	}
	a.Log.Info("HTTP server stopped")
	return nil
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	a.background.Wait()
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	// Projections started by the last writes still need the neo4j client.
	if a.Services.Graph != nil {
		if err := a.Services.Graph.Drain(ctx); err != nil && a.Log != nil {
			a.Log.Warn("graph projections still running at shutdown", "error", err)
		}
	}
	if a.otelShutdown != nil {
		_ = a.otelShutdown(ctx)
	}
	a.Clients.Close(ctx)
	if a.Log != nil {
		a.Log.Sync()
	}
}
