package app

import (
	"context"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	httpserver "github.com/mizanhq/mizan-backend/internal/http"
	httpH "github.com/mizanhq/mizan-backend/internal/http/handlers"
	httpMW "github.com/mizanhq/mizan-backend/internal/http/middleware"
	"github.com/mizanhq/mizan-backend/internal/observability"
	"github.com/mizanhq/mizan-backend/internal/platform/logger"
)

type Middleware struct {
	Auth         *httpMW.AuthMiddleware
	LoginLimiter *httpMW.IPRateLimiter
}

type Handlers struct {
	Health    *httpH.HealthHandler
	Auth      *httpH.AuthHandler
	User      *httpH.UserHandler
	Framework *httpH.FrameworkHandler
	Control   *httpH.ControlHandler
	Article   *httpH.ArticleHandler
	Provision *httpH.ProvisionHandler
	Edge      *httpH.EdgeHandler
	Graph     *httpH.GraphHandler
}

func wireMiddleware(log *logger.Logger, cfg Config, services Services, metrics *observability.Metrics) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth:         httpMW.NewAuthMiddleware(log, services.Auth, metrics),
		LoginLimiter: httpMW.NewIPRateLimiter(cfg.LoginRatePerMinute, cfg.LoginBurst, metrics),
	}
}

func wireHandlers(log *logger.Logger, db *gorm.DB, services Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:    httpH.NewHealthHandler(pingDB(db)),
		Auth:      httpH.NewAuthHandler(services.Auth),
		User:      httpH.NewUserHandler(services.User),
		Framework: httpH.NewFrameworkHandler(services.Framework),
		Control:   httpH.NewControlHandler(services.Control),
		Article:   httpH.NewArticleHandler(services.Article),
		Provision: httpH.NewProvisionHandler(services.Provision),
		Edge:      httpH.NewEdgeHandler(services.Edge),
		Graph:     httpH.NewGraphHandler(services.Graph, services.Dashboard),
	}
}

func wireRouter(log *logger.Logger, cfg Config, handlers Handlers, middleware Middleware, metrics *observability.Metrics) *gin.Engine {
	return httpserver.NewRouter(httpserver.RouterConfig{
		Log:            log,
		Metrics:        metrics,
		ServiceName:    cfg.Otel.ServiceName,
		TracingEnabled: cfg.Otel.Enabled,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		LoginLimiter:   middleware.LoginLimiter,

		AuthHandler:    handlers.Auth,
		AuthMiddleware: middleware.Auth,
		UserHandler:    handlers.User,

		FrameworkHandler: handlers.Framework,
		ControlHandler:   handlers.Control,
		ArticleHandler:   handlers.Article,
		ProvisionHandler: handlers.Provision,
		EdgeHandler:      handlers.Edge,
		GraphHandler:     handlers.Graph,

		HealthHandler: handlers.Health,
	})
}

func pingDB(db *gorm.DB) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}
}
