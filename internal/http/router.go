package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	types "github.com/mizanhq/mizan-backend/internal/domain"
	httpH "github.com/mizanhq/mizan-backend/internal/http/handlers"
	httpMW "github.com/mizanhq/mizan-backend/internal/http/middleware"
	"github.com/mizanhq/mizan-backend/internal/observability"
	"github.com/mizanhq/mizan-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	Metrics        *observability.Metrics
	ServiceName    string
	TracingEnabled bool
	AllowedOrigins []string
	LoginLimiter   *httpMW.IPRateLimiter

	AuthHandler    *httpH.AuthHandler
	AuthMiddleware *httpMW.AuthMiddleware
	UserHandler    *httpH.UserHandler

	FrameworkHandler *httpH.FrameworkHandler
	ControlHandler   *httpH.ControlHandler
	ArticleHandler   *httpH.ArticleHandler
	ProvisionHandler *httpH.ProvisionHandler
	EdgeHandler      *httpH.EdgeHandler
	GraphHandler     *httpH.GraphHandler

	HealthHandler *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.TracingEnabled {
		serviceName := cfg.ServiceName
		if serviceName == "" {
			serviceName = "mizan-api"
		}
		r.Use(otelgin.Middleware(serviceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.AllowedOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	api := r.Group("/api")
	{
		// Auth (public)
		if cfg.AuthHandler != nil {
			api.POST("/register", cfg.AuthHandler.Register)
			api.POST("/login", cfg.LoginLimiter.Middleware(), cfg.AuthHandler.Login)
		}
	}

	protected := api.Group("/")
	admin := api.Group("/")
	{
		// Middleware
		if cfg.AuthMiddleware != nil {
			protected.Use(cfg.AuthMiddleware.RequireAuth())
			admin.Use(cfg.AuthMiddleware.RequireAuth(), cfg.AuthMiddleware.RequireRole(types.RoleAdmin))
		} else {
			admin.Use(func(c *gin.Context) {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
					"error": gin.H{"message": "admin routes disabled", "code": "forbidden"},
				})
			})
		}

		// Auth (protected)
		if cfg.AuthHandler != nil {
			protected.POST("/refresh", cfg.AuthHandler.Refresh)
			protected.POST("/logout", cfg.AuthHandler.Logout)
		}

		// User (Me)
		if cfg.UserHandler != nil {
			protected.GET("/me", cfg.UserHandler.GetMe)
			protected.PATCH("/user/name", cfg.UserHandler.ChangeName)
		}

		// Frameworks
		if cfg.FrameworkHandler != nil {
			protected.GET("/frameworks", cfg.FrameworkHandler.List)
			protected.GET("/frameworks/:id", cfg.FrameworkHandler.Get)
			protected.GET("/frameworks/:id/controls", cfg.FrameworkHandler.ListControls)
			protected.GET("/frameworks/:id/articles", cfg.FrameworkHandler.ListArticles)
			admin.POST("/frameworks", cfg.FrameworkHandler.Create)
			admin.PUT("/frameworks/:id", cfg.FrameworkHandler.Update)
			admin.DELETE("/frameworks/:id", cfg.FrameworkHandler.Delete)
		}

		// Controls
		if cfg.ControlHandler != nil {
			protected.GET("/controls/:id", cfg.ControlHandler.Get)
			admin.POST("/controls", cfg.ControlHandler.Create)
			admin.PUT("/controls/:id", cfg.ControlHandler.Update)
			admin.DELETE("/controls/:id", cfg.ControlHandler.Delete)
		}

		// Articles
		if cfg.ArticleHandler != nil {
			protected.GET("/articles/:id", cfg.ArticleHandler.Get)
			protected.GET("/articles/:id/provisions", cfg.ArticleHandler.ListProvisions)
			admin.POST("/articles", cfg.ArticleHandler.Create)
			admin.PUT("/articles/:id", cfg.ArticleHandler.Update)
			admin.DELETE("/articles/:id", cfg.ArticleHandler.Delete)
		}

		// Provisions
		if cfg.ProvisionHandler != nil {
			protected.GET("/provisions/:id", cfg.ProvisionHandler.Get)
			admin.POST("/provisions", cfg.ProvisionHandler.Create)
			admin.PUT("/provisions/:id", cfg.ProvisionHandler.Update)
			admin.DELETE("/provisions/:id", cfg.ProvisionHandler.Delete)
		}

		// Edges
		if cfg.EdgeHandler != nil {
			protected.GET("/edges", cfg.EdgeHandler.List)
			admin.POST("/edges", cfg.EdgeHandler.Create)
			admin.DELETE("/edges/:id", cfg.EdgeHandler.Delete)
		}

		// Graph
		if cfg.GraphHandler != nil {
			protected.GET("/graph", cfg.GraphHandler.View)
			protected.POST("/graph/view", cfg.GraphHandler.ViewPost)
			protected.GET("/graph/nodes/:id/neighbors", cfg.GraphHandler.Neighbors)
			protected.GET("/search", cfg.GraphHandler.Search)
			protected.GET("/dashboard", cfg.GraphHandler.Dashboard)
		}
	}

	return r
}
