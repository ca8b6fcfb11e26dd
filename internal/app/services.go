package app

import (
	"gorm.io/gorm"

	"github.com/mizanhq/mizan-backend/internal/clients/redis"
	"github.com/mizanhq/mizan-backend/internal/data/graph"
	"github.com/mizanhq/mizan-backend/internal/observability"
	"github.com/mizanhq/mizan-backend/internal/platform/logger"
	"github.com/mizanhq/mizan-backend/internal/services"
)

type Services struct {
	Auth services.AuthService
	User services.UserService

	Graph     services.GraphService
	Dashboard services.DashboardService

	Framework services.FrameworkService
	Control   services.ControlService
	Article   services.ArticleService
	Provision services.ProvisionService
	Edge      services.EdgeService
	Seed      services.SeedService
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, r Repos, clients Clients, metrics *observability.Metrics) Services {
	log.Info("Wiring services...")

	deps := services.GraphServiceDeps{
		Frameworks: r.Framework,
		Controls:   r.Control,
		Articles:   r.Article,
		Provisions: r.Provision,
		Edges:      r.Edge,
		Metrics:    metrics,
		TTL:        cfg.GraphCacheTTL,
	}
	if clients.Redis != nil {
		deps.Cache = redis.NewSnapshotCache(log, clients.Redis, redis.DefaultSnapshotKey)
	}
	if clients.Neo4j != nil {
		deps.Projector = graph.NewProjector(clients.Neo4j, log)
	}
	graphService := services.NewGraphService(log, deps)

	return Services{
		Auth: services.NewAuthService(db, log, r.User, r.UserToken, services.AuthConfig{
			JWTSecretKey: cfg.JWTSecretKey,
			AccessTTL:    cfg.AccessTokenTTL,
			RefreshTTL:   cfg.RefreshTokenTTL,
			AdminEmails:  cfg.AdminEmails,
		}),
		User: services.NewUserService(db, log, r.User),

		Graph:     graphService,
		Dashboard: services.NewDashboardService(log, graphService),

		Framework: services.NewFrameworkService(db, log, r.Framework, r.Control, r.Article, r.Provision, r.Edge, graphService),
		Control:   services.NewControlService(db, log, r.Framework, r.Control, r.Edge, graphService),
		Article:   services.NewArticleService(db, log, r.Framework, r.Article, r.Provision, r.Edge, graphService),
		Provision: services.NewProvisionService(db, log, r.Article, r.Provision, r.Edge, graphService),
		Edge:      services.NewEdgeService(db, log, r.Framework, r.Control, r.Article, r.Provision, r.Edge, graphService),
		Seed:      services.NewSeedService(db, log, r.Framework, r.Control, r.Article, r.Provision, r.Edge, graphService),
	}
}
