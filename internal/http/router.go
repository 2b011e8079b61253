package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	types "github.com/yungbote/civicpulse-backend/internal/domain"
	httpH "github.com/yungbote/civicpulse-backend/internal/http/handlers"
	httpMW "github.com/yungbote/civicpulse-backend/internal/http/middleware"
	"github.com/yungbote/civicpulse-backend/internal/observability"
	"github.com/yungbote/civicpulse-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	Metrics        *observability.Metrics
	ServiceName    string
	TracingEnabled bool
	CORSOrigins    []string

	AuthHandler      *httpH.AuthHandler
	AuthMiddleware   *httpMW.AuthMiddleware
	UserHandler      *httpH.UserHandler
	ComplaintHandler *httpH.ComplaintHandler
	UploadHandler    *httpH.UploadHandler

	HealthHandler *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.TracingEnabled {
		name := cfg.ServiceName
		if name == "" {
			name = "civicpulse"
		}
		r.Use(otelgin.Middleware(name))
	}
	r.Use(httpMW.RequestIDs())
	r.Use(httpMW.Observe(cfg.Log, cfg.Metrics))
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
		r.GET("/readyz", cfg.HealthHandler.Ready)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	api := r.Group("/api")
	{
		// Auth (public)
		if cfg.AuthHandler != nil {
			api.POST("/auth/register", cfg.AuthHandler.Register)
			api.POST("/auth/login", cfg.AuthHandler.Login)
			api.POST("/auth/refresh", cfg.AuthHandler.Refresh)
		}
	}

	protected := api.Group("/")
	{
		if cfg.AuthMiddleware != nil {
			protected.Use(cfg.AuthMiddleware.RequireAuth())
		}

		if cfg.AuthHandler != nil {
			protected.POST("/auth/logout", cfg.AuthHandler.Logout)
		}

		// User (Me)
		if cfg.UserHandler != nil {
			protected.GET("/me", cfg.UserHandler.GetMe)
		}

		// Complaints
		if cfg.ComplaintHandler != nil {
			protected.POST("/complaints", cfg.ComplaintHandler.Create)
			protected.GET("/complaints", cfg.ComplaintHandler.List)
			protected.GET("/complaints/:id", cfg.ComplaintHandler.Get)
			protected.GET("/departments", cfg.ComplaintHandler.Departments)

			admin := protected.Group("/")
			if cfg.AuthMiddleware != nil {
				admin.Use(cfg.AuthMiddleware.RequireRole(types.RoleAdmin))
			}
			admin.GET("/complaints/stats", cfg.ComplaintHandler.Stats)
			admin.PATCH("/complaints/:id", cfg.ComplaintHandler.Update)
		}

		// Uploads
		if cfg.UploadHandler != nil {
			protected.POST("/upload", cfg.UploadHandler.Upload)
		}
	}

	return r
}
