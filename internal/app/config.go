package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/yungbote/civicpulse-backend/internal/data/db"
	"github.com/yungbote/civicpulse-backend/internal/observability"
	"github.com/yungbote/civicpulse-backend/internal/platform/envutil"
	"github.com/yungbote/civicpulse-backend/internal/platform/gcp"
	"github.com/yungbote/civicpulse-backend/internal/platform/llm"
	"github.com/yungbote/civicpulse-backend/internal/realtime/bus"
	"github.com/yungbote/civicpulse-backend/internal/services"
)

const (
	EnvProduction  = "production"
	EnvDevelopment = "development"

	devJWTSecret = "civicpulse-dev-secret"
)

type Config struct {
	Env         string
	ServiceName string
	Version     string
	LogMode     string

	Addr              string
	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	ShutdownTimeout   time.Duration
	CORSOrigins       []string

	DB          db.Config
	AutoMigrate bool

	JWTSecretKey       string
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration
	CookieSecure       bool
	TokenPurgeInterval time.Duration

	Storage        gcp.StorageConfig
	UploadMaxBytes int64

	TriageRulesPath string
	LLM             llm.Config
	Redis           bus.RedisConfig

	MetricsEnabled bool
	Tracing        observability.TracingConfig
}

// LoadConfig reads the process configuration from the environment.
func LoadConfig() (Config, error) {
	env := strings.ToLower(envutil.String("APP_ENV", EnvDevelopment))
	cfg := Config{
		Env:         env,
		ServiceName: envutil.String("SERVICE_NAME", "civicpulse"),
		Version:     envutil.String("APP_VERSION", "dev"),
		LogMode:     envutil.String("LOG_MODE", EnvDevelopment),

		Addr:              envutil.String("HTTP_ADDR", ":"+envutil.String("PORT", "8080")),
		ReadHeaderTimeout: envutil.Seconds("HTTP_READ_HEADER_TIMEOUT_SECONDS", 10*time.Second),
		ReadTimeout:       envutil.Seconds("HTTP_READ_TIMEOUT_SECONDS", 60*time.Second),
		WriteTimeout:      envutil.Seconds("HTTP_WRITE_TIMEOUT_SECONDS", 60*time.Second),
		IdleTimeout:       envutil.Seconds("HTTP_IDLE_TIMEOUT_SECONDS", 120*time.Second),
		ShutdownTimeout:   envutil.Seconds("HTTP_SHUTDOWN_TIMEOUT_SECONDS", 15*time.Second),
		CORSOrigins:       envutil.List("CORS_ALLOWED_ORIGINS", nil),

		DB: db.Config{
			Driver:          envutil.String("DB_DRIVER", db.DriverPostgres),
			DSN:             envutil.String("DATABASE_URL", ""),
			Host:            envutil.String("POSTGRES_HOST", "localhost"),
			Port:            envutil.String("POSTGRES_PORT", "5432"),
			User:            envutil.String("POSTGRES_USER", "postgres"),
			Password:        envutil.String("POSTGRES_PASSWORD", ""),
			Name:            envutil.String("POSTGRES_NAME", "civicpulse"),
			SSLMode:         envutil.String("POSTGRES_SSLMODE", "disable"),
			MaxOpenConns:    envutil.Int("DB_MAX_OPEN_CONNS", 20),
			MaxIdleConns:    envutil.Int("DB_MAX_IDLE_CONNS", 10),
			ConnMaxLifetime: envutil.Seconds("DB_CONN_MAX_LIFETIME_SECONDS", 30*time.Minute),
			SlowThreshold:   envutil.Seconds("DB_SLOW_QUERY_SECONDS", time.Second),
		},
		AutoMigrate: envutil.Bool("DB_AUTO_MIGRATE", true),

		JWTSecretKey:       envutil.String("JWT_SECRET_KEY", ""),
		AccessTokenTTL:     envutil.Seconds("ACCESS_TOKEN_TTL", 7*24*time.Hour),
		RefreshTokenTTL:    envutil.Seconds("REFRESH_TOKEN_TTL", 30*24*time.Hour),
		CookieSecure:       envutil.Bool("AUTH_COOKIE_SECURE", env == EnvProduction),
		TokenPurgeInterval: envutil.Seconds("TOKEN_PURGE_INTERVAL_SECONDS", time.Hour),

		UploadMaxBytes: envutil.Int64("UPLOAD_MAX_BYTES", services.DefaultUploadMaxBytes),

		TriageRulesPath: envutil.String("TRIAGE_RULES_PATH", ""),
		LLM:             llm.ConfigFromEnv(),
		Redis:           bus.RedisConfigFromEnv(),

		MetricsEnabled: envutil.Bool("METRICS_ENABLED", true),
		Tracing:        observability.TracingConfigFromEnv(),
	}

	// Storage errors are reported by resolvePhotoBucket at startup so that
	// commands which never touch photos still run.
	cfg.Storage, _ = gcp.StorageConfigFromEnv()

	cfg.Tracing.ServiceName = cfg.ServiceName
	cfg.Tracing.Environment = cfg.Env
	cfg.Tracing.Version = cfg.Version

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.JWTSecretKey == "" {
		if c.Env == EnvProduction {
			return fmt.Errorf("JWT_SECRET_KEY is required when APP_ENV=%s", EnvProduction)
		}
		c.JWTSecretKey = devJWTSecret
	}
	if c.AccessTokenTTL <= 0 || c.RefreshTokenTTL <= 0 {
		return fmt.Errorf("token TTLs must be positive")
	}
	if c.RefreshTokenTTL < c.AccessTokenTTL {
		return fmt.Errorf("REFRESH_TOKEN_TTL (%s) must not be shorter than ACCESS_TOKEN_TTL (%s)", c.RefreshTokenTTL, c.AccessTokenTTL)
	}
	if c.UploadMaxBytes <= 0 {
		return fmt.Errorf("UPLOAD_MAX_BYTES must be positive")
	}
	return nil
}

// UsingDevSecret reports whether the JWT secret fell back to the built-in value.
func (c Config) UsingDevSecret() bool { return c.JWTSecretKey == devJWTSecret }
