package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/yungbote/civicpulse-backend/internal/data/db"
	"github.com/yungbote/civicpulse-backend/internal/data/repos"
	httpapi "github.com/yungbote/civicpulse-backend/internal/http"
	httpH "github.com/yungbote/civicpulse-backend/internal/http/handlers"
	httpMW "github.com/yungbote/civicpulse-backend/internal/http/middleware"
	"github.com/yungbote/civicpulse-backend/internal/modules/triage"
	"github.com/yungbote/civicpulse-backend/internal/observability"
	"github.com/yungbote/civicpulse-backend/internal/platform/gcp"
	"github.com/yungbote/civicpulse-backend/internal/platform/llm"
	"github.com/yungbote/civicpulse-backend/internal/platform/logger"
	"github.com/yungbote/civicpulse-backend/internal/realtime"
	"github.com/yungbote/civicpulse-backend/internal/realtime/bus"
	"github.com/yungbote/civicpulse-backend/internal/services"
)

type Repos struct {
	User      repos.UserRepo
	UserToken repos.UserTokenRepo
	Complaint repos.ComplaintRepo
}

type Services struct {
	Auth      services.AuthService
	User      services.UserService
	Complaint services.ComplaintService
	Upload    services.UploadService
}

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Cfg      Config
	Repos    Repos
	Services Services
	Metrics  *observability.Metrics
	Bus      bus.Bus
	Bucket   gcp.PhotoBucket
	Server   *httpapi.Server

	dbService    *db.PostgresService
	otelShutdown func(context.Context) error
}

// New connects every dependency and wires the HTTP server. Call Close when done.
func New(ctx context.Context, log *logger.Logger, cfg Config) (*App, error) {
	a := &App{Log: log, Cfg: cfg}
	if err := a.init(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) init(ctx context.Context) error {
	log, cfg := a.Log, a.Cfg
	if cfg.UsingDevSecret() {
		log.Warn("JWT_SECRET_KEY not set; using development secret")
	}

	shutdown, err := observability.InitTracing(ctx, log, cfg.Tracing)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	a.otelShutdown = shutdown
	if cfg.MetricsEnabled {
		a.Metrics = observability.Init(log)
	}

	pg, err := db.NewPostgresService(log, cfg.DB)
	if err != nil {
		return fmt.Errorf("init database: %w", err)
	}
	a.dbService = pg
	a.DB = pg.DB()
	if cfg.AutoMigrate {
		if err := pg.AutoMigrateAll(); err != nil {
			return fmt.Errorf("automigrate: %w", err)
		}
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		if err := a.Metrics.RegisterDB(sqlDB, cfg.DB.Driver); err != nil {
			log.Warn("DB stats collector not registered", "error", err)
		}
	}

	a.Bus, err = bus.New(ctx, log, cfg.Redis)
	if err != nil {
		return err
	}

	a.Bucket, err = resolvePhotoBucket(log, cfg)
	if err != nil {
		return err
	}

	pipeline, err := newTriagePipeline(log, cfg, a.Metrics)
	if err != nil {
		return err
	}

	log.Info("Wiring repos...")
	a.Repos = Repos{
		User:      repos.NewUserRepo(a.DB, log),
		UserToken: repos.NewUserTokenRepo(a.DB, log),
		Complaint: repos.NewComplaintRepo(a.DB, log),
	}

	log.Info("Wiring services...")
	var photoStore services.PhotoStore
	if a.Bucket != nil {
		photoStore = a.Bucket
	}
	a.Services = Services{
		Auth:      services.NewAuthService(a.DB, log, a.Repos.User, a.Repos.UserToken, cfg.JWTSecretKey, cfg.AccessTokenTTL, cfg.RefreshTokenTTL),
		User:      services.NewUserService(a.DB, log, a.Repos.User),
		Complaint: services.NewComplaintService(a.DB, log, a.Repos.User, a.Repos.Complaint, pipeline, a.Bus),
		Upload:    services.NewUploadService(log, photoStore, cfg.UploadMaxBytes),
	}

	log.Info("Wiring handlers...")
	if err := httpH.RegisterValidators(); err != nil {
		return fmt.Errorf("register validators: %w", err)
	}
	var pinger httpH.Pinger
	if sqlDB, err := a.DB.DB(); err == nil {
		pinger = sqlDB
	}
	a.Server = httpapi.NewServer(httpapi.RouterConfig{
		Log:              log,
		Metrics:          a.Metrics,
		ServiceName:      cfg.ServiceName,
		TracingEnabled:   cfg.Tracing.Enabled,
		CORSOrigins:      cfg.CORSOrigins,
		AuthHandler:      httpH.NewAuthHandler(log, a.Services.Auth, cfg.CookieSecure),
		AuthMiddleware:   httpMW.NewAuthMiddleware(log, a.Services.Auth),
		UserHandler:      httpH.NewUserHandler(a.Services.User),
		ComplaintHandler: httpH.NewComplaintHandler(a.Services.Complaint),
		UploadHandler:    httpH.NewUploadHandler(a.Services.Upload),
		HealthHandler:    httpH.NewHealthHandler(pinger),
	}, httpapi.ServerConfig{
		Addr:              cfg.Addr,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	})
	return nil
}

func newTriagePipeline(log *logger.Logger, cfg Config, metrics *observability.Metrics) (*triage.Pipeline, error) {
	rules, err := triage.LoadRules(cfg.TriageRulesPath)
	if err != nil {
		return nil, fmt.Errorf("load triage rules: %w", err)
	}
	opts := []triage.Option{triage.WithRules(rules)}
	if metrics != nil {
		opts = append(opts, triage.WithRecorder(metrics))
	}

	var scorer triage.PriorityScorer
	client, err := llm.NewClientWithConfig(log, cfg.LLM)
	switch {
	case err == nil:
		scorer = triage.NewLLMScorer(client)
		log.Info("LLM priority scoring enabled", "model", client.Model())
	case errors.Is(err, llm.ErrNotConfigured):
		log.Warn("LLM_API_KEY not set; complaints get the default priority")
	default:
		return nil, fmt.Errorf("init llm client: %w", err)
	}
	return triage.NewPipeline(log, scorer, opts...), nil
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.Log.Info("HTTP server listening", "addr", a.Server.Addr())
		return a.Server.Run()
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Cfg.ShutdownTimeout)
		defer cancel()
		a.Log.Info("Shutting down HTTP server")
		return a.Server.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		err := a.Bus.StartForwarder(gctx, a.onEvent)
		if err != nil && gctx.Err() == nil {
			a.Log.Warn("Event forwarder stopped", "error", err)
		}
		return nil
	})

	g.Go(func() error {
		a.purgeTokens(gctx)
		return nil
	})

	if rc, ok := a.Bus.(interface{ Client() *goredis.Client }); ok && a.Metrics != nil {
		a.Metrics.StartRedisCollector(gctx, a.Log, rc.Client())
	}

	return g.Wait()
}

func (a *App) onEvent(ev realtime.Event) {
	a.Log.Debug("Complaint event",
		"type", ev.Type,
		"complaint_id", ev.ComplaintID,
		"status", ev.Status,
		"priority", ev.Priority,
	)
}

func (a *App) purgeTokens(ctx context.Context) {
	if a.Cfg.TokenPurgeInterval <= 0 {
		return
	}
	ticker := time.NewTicker(a.Cfg.TokenPurgeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := a.Services.Auth.PurgeExpiredTokens(ctx)
			if err != nil {
				a.Log.Warn("Expired token purge failed", "error", err)
				continue
			}
			if n > 0 {
				a.Log.Info("Purged expired tokens", "count", n)
			}
		}
	}
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.Bus != nil {
		_ = a.Bus.Close()
	}
	if a.Bucket != nil {
		_ = a.Bucket.Close()
	}
	if a.dbService != nil {
		_ = a.dbService.Close()
	}
	if a.otelShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = a.otelShutdown(ctx)
		cancel()
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
