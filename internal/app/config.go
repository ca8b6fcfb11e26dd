package app

import (
	"time"

	"github.com/mizanhq/mizan-backend/internal/clients/redis"
	"github.com/mizanhq/mizan-backend/internal/data/db"
	"github.com/mizanhq/mizan-backend/internal/observability"
	"github.com/mizanhq/mizan-backend/internal/platform/envutil"
	"github.com/mizanhq/mizan-backend/internal/platform/logger"
	"github.com/mizanhq/mizan-backend/internal/platform/neo4jdb"
)

type Config struct {
	Port    string
	LogMode string

	DB    db.Config
	Redis redis.Config
	Neo4j neo4jdb.Config
	Otel  observability.OtelConfig

	JWTSecretKey    string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	AdminEmails     []string

	CORSAllowedOrigins []string
	LoginRatePerMinute int
	LoginBurst         int

	GraphCacheTTL  time.Duration
	MetricsEnabled bool

	SeedFile    string
	SeedOnStart bool
}

func LoadConfig(log *logger.Logger) Config {
	return Config{
		Port:    envutil.String("PORT", "8080", log),
		LogMode: envutil.String("LOG_MODE", "development", log),

		DB: db.Config{
			Driver:       envutil.String("DB_DRIVER", db.DriverPostgres, log),
			Host:         envutil.String("POSTGRES_HOST", "localhost", log),
			Port:         envutil.String("POSTGRES_PORT", "5432", log),
			User:         envutil.String("POSTGRES_USER", "postgres", log),
			Password:     envutil.String("POSTGRES_PASSWORD", "", log),
			Name:         envutil.String("POSTGRES_NAME", "mizan", log),
			SSLMode:      envutil.String("POSTGRES_SSLMODE", "disable", log),
			SQLitePath:   envutil.String("SQLITE_PATH", "", log),
			MaxOpenConns: envutil.Int("POSTGRES_MAX_OPEN_CONNS", 20, log),
			MaxIdleConns: envutil.Int("POSTGRES_MAX_IDLE_CONNS", 10, log),
		},
		Redis: redis.Config{
			Addr:     envutil.String("REDIS_ADDR", "", log),
			Password: envutil.String("REDIS_PASSWORD", "", log),
			DB:       envutil.Int("REDIS_DB", 0, log),
		},
		Neo4j: neo4jdb.Config{
			URI:         envutil.String("NEO4J_URI", "", log),
			User:        envutil.String("NEO4J_USER", "neo4j", log),
			Password:    envutil.String("NEO4J_PASSWORD", "", log),
			Database:    envutil.String("NEO4J_DATABASE", "", log),
			Timeout:     envutil.Seconds("NEO4J_TIMEOUT_SECONDS", 10*time.Second, log),
			MaxPoolSize: envutil.Int("NEO4J_MAX_POOL_SIZE", 0, log),
		},
		Otel: observability.OtelConfig{
			Enabled:     envutil.Bool("OTEL_ENABLED", false, log),
			ServiceName: envutil.String("OTEL_SERVICE_NAME", "mizan-api", log),
			Environment: envutil.String("OTEL_ENVIRONMENT", "development", log),
			Version:     envutil.String("OTEL_SERVICE_VERSION", "", log),
			SampleRatio: envutil.Float("OTEL_SAMPLE_RATIO", 1, log),
			Endpoint:    envutil.String("OTEL_EXPORTER_OTLP_ENDPOINT", "", log),
			Headers:     envutil.String("OTEL_EXPORTER_OTLP_HEADERS", "", log),
			Insecure:    envutil.Bool("OTEL_EXPORTER_OTLP_INSECURE", false, log),
		},

		JWTSecretKey:    envutil.String("JWT_SECRET_KEY", "defaultsecret", log),
		AccessTokenTTL:  envutil.Seconds("ACCESS_TOKEN_TTL", time.Hour, log),
		RefreshTokenTTL: envutil.Seconds("REFRESH_TOKEN_TTL", 24*time.Hour, log),
		AdminEmails:     envutil.List("ADMIN_EMAILS", nil, log),

		CORSAllowedOrigins: envutil.List("CORS_ALLOWED_ORIGINS", nil, log),
		LoginRatePerMinute: envutil.Int("LOGIN_RATE_PER_MINUTE", 10, log),
		LoginBurst:         envutil.Int("LOGIN_RATE_BURST", 5, log),

		GraphCacheTTL:  envutil.Seconds("GRAPH_CACHE_TTL_SECONDS", 5*time.Minute, log),
		MetricsEnabled: envutil.Bool("METRICS_ENABLED", true, log),

		SeedFile:    envutil.String("SEED_FILE", "seeds/regulatory.yaml", log),
		SeedOnStart: envutil.Bool("SEED_ON_START", false, log),
	}
}

func (c Config) Addr() string {
	return ":" + c.Port
}

// LogModeFromEnv is read before the logger exists, so it cannot go through
// envutil's debug logging.
func LogModeFromEnv() string {
	return envutil.String("LOG_MODE", "development", nil)
}
