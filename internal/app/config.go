package app

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/yungbote/skillsdna-backend/internal/data/db"
	"github.com/yungbote/skillsdna-backend/internal/observability"
	"github.com/yungbote/skillsdna-backend/internal/platform/envutil"
	"github.com/yungbote/skillsdna-backend/internal/platform/neo4jdb"
	"github.com/yungbote/skillsdna-backend/internal/platform/redisbus"
)

const serviceName = "skillsdna"

type Config struct {
	LogMode     string
	HTTPAddr    string
	AutoMigrate bool

	DB db.Options

	JWTSecretKey string
	CORSOrigins  []string

	Redis redisbus.Config
	Neo4j neo4jdb.Config
	OTel  observability.OtelConfig
}

// LoadDotEnv loads envFile (or ./.env when empty) without overriding variables already set.
// A missing default file is not an error.
func LoadDotEnv(envFile string) error {
	if strings.TrimSpace(envFile) != "" {
		return godotenv.Load(envFile)
	}
	if _, err := os.Stat(".env"); err != nil {
		return nil
	}
	return godotenv.Load()
}

func LoadConfig() Config {
	return Config{
		LogMode:     envutil.String("LOG_MODE", "development"),
		HTTPAddr:    envutil.String("HTTP_ADDR", ":8080"),
		AutoMigrate: envutil.Bool("DB_AUTO_MIGRATE", true),
		DB: db.Options{
			Driver:            envutil.String("DB_DRIVER", db.DriverPostgres),
			PostgresHost:      envutil.String("POSTGRES_HOST", "localhost"),
			PostgresPort:      envutil.String("POSTGRES_PORT", "5432"),
			PostgresUser:      envutil.String("POSTGRES_USER", "postgres"),
			PostgresPassword:  envutil.String("POSTGRES_PASSWORD", ""),
			PostgresName:      envutil.String("POSTGRES_NAME", "skillsdna"),
			PostgresSSLMode:   envutil.String("POSTGRES_SSLMODE", "disable"),
			SQLitePath:        envutil.String("SQLITE_PATH", "skillsdna.db"),
			SQLiteBusyTimeout: envutil.Seconds("SQLITE_BUSY_TIMEOUT_SECONDS", 5*time.Second),
			MaxOpenConns:      envutil.Int("DB_MAX_OPEN_CONNS", 20),
			MaxIdleConns:      envutil.Int("DB_MAX_IDLE_CONNS", 5),
		},
		JWTSecretKey: envutil.String("JWT_SECRET_KEY", ""),
		CORSOrigins:  envutil.List("CORS_ALLOWED_ORIGINS", nil),
		Redis: redisbus.Config{
			Addr:     envutil.String("REDIS_ADDR", ""),
			Password: envutil.String("REDIS_PASSWORD", ""),
			DB:       envutil.Int("REDIS_DB", 0),
			Channel:  envutil.String("REDIS_CHANNEL", ""),
		},
		Neo4j: neo4jdb.Config{
			URI:      envutil.String("NEO4J_URI", ""),
			User:     envutil.String("NEO4J_USER", "neo4j"),
			Password: envutil.String("NEO4J_PASSWORD", ""),
			Database: envutil.String("NEO4J_DATABASE", ""),
			Timeout:  envutil.Seconds("NEO4J_TIMEOUT_SECONDS", 0),
		},
		OTel: observability.OtelConfig{
			Enabled:     envutil.Bool("OTEL_ENABLED", false),
			ServiceName: envutil.String("OTEL_SERVICE_NAME", serviceName),
			Environment: envutil.String("APP_ENV", "development"),
			Version:     envutil.String("APP_VERSION", "dev"),
			Endpoint:    envutil.String("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			Insecure:    envutil.Bool("OTEL_EXPORTER_OTLP_INSECURE", true),
			Headers:     observability.ParseHeaders(envutil.String("OTEL_EXPORTER_OTLP_HEADERS", "")),
			SampleRatio: envutil.Float("OTEL_SAMPLER_RATIO", 1),
		},
	}
}
