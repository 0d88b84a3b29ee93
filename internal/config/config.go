package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"

	PayloadDatabase = "database"
	PayloadMinIO    = "minio"
)

// DatabaseConfig holds PostgreSQL database connection settings.
type DatabaseConfig struct {
	Host               string `env:"DB_HOST"`
	Port               string `env:"DB_PORT" env-default:"5432"`
	User               string `env:"DB_USER"`
	Password           string `env:"DB_PASSWORD"`
	Name               string `env:"DB_NAME"`
	SSLMode            string `env:"DB_SSLMODE" env-default:"disable"`
	MaxOpenConns       int    `env:"DB_MAX_OPEN_CONNS" env-default:"10"`
	MaxIdleConns       int    `env:"DB_MAX_IDLE_CONNS" env-default:"5"`
	ConnMaxLifetimeSec int    `env:"DB_CONN_MAX_LIFETIME_SEC" env-default:"300"`
}

// MinIOConfig holds object storage settings for MinIO.
// Only used when the payload backend is "minio".
type MinIOConfig struct {
	Endpoint  string `env:"MINIO_ENDPOINT"`
	AccessKey string `env:"MINIO_ACCESS_KEY"`
	SecretKey string `env:"MINIO_SECRET_KEY"`
	Bucket    string `env:"MINIO_BUCKET"`
	UseSSL    bool   `env:"MINIO_USE_SSL" env-default:"false"`
}

// RedisConfig holds the connection used by the rate limiter. An empty Addr disables it.
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" env-default:"0"`
}

// RateLimitConfig controls the fixed-window limiter on login and download.
type RateLimitConfig struct {
	RPS    float64       `env:"RATE_LIMIT_RPS" env-default:"5"`
	Burst  int           `env:"RATE_LIMIT_BURST" env-default:"10"`
	Window time.Duration `env:"RATE_LIMIT_WINDOW" env-default:"1s"`
}

type AuthConfig struct {
	JWTSecret    string        `env:"SECRET_KEY" env-default:"dev-secret-key-change-in-production"`
	TokenTTL     time.Duration `env:"ACCESS_TOKEN_TTL" env-default:"30m"`
	CookieName   string        `env:"AUTH_COOKIE_NAME" env-default:"access_token"`
	CookieSecure bool          `env:"AUTH_COOKIE_SECURE" env-default:"false"`
}

type EncryptionConfig struct {
	Key string `env:"ENCRYPTION_KEY" env-default:"dev-encryption-key-change-this-32b"`
	// RequireFullKey rejects secrets shorter than 32 bytes instead of zero-padding them.
	RequireFullKey bool `env:"ENCRYPTION_REQUIRE_FULL_KEY" env-default:"false"`
}

// TracingConfig follows the standard OTEL_* variables; the OTLP exporters read
// endpoint and header settings from the environment themselves.
type TracingConfig struct {
	Disabled    bool   `env:"OTEL_SDK_DISABLED" env-default:"false"`
	ServiceName string `env:"OTEL_SERVICE_NAME" env-default:"briefcase"`
	Protocol    string `env:"OTEL_EXPORTER_OTLP_PROTOCOL" env-default:"grpc"`
	Endpoint    string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	Sampler     string `env:"OTEL_TRACES_SAMPLER" env-default:"parentbased_traceidratio"`
	SamplerArg  string `env:"OTEL_TRACES_SAMPLER_ARG" env-default:"1.0"`
}

type LogConfig struct {
	Level  string `env:"LOG_LEVEL" env-default:"info"`
	Format string `env:"LOG_FORMAT" env-default:"json"`
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded
// except for the development defaults of the original deployment.
type AppConfig struct {
	Env            string        `env:"APP_ENV" env-default:"local"`
	Port           string        `env:"PORT" env-default:"8080"`
	Timezone       string        `env:"APP_TIMEZONE" env-default:"UTC"`
	BodyLimitMB    int           `env:"BODY_LIMIT_MB" env-default:"32"`
	ReadTimeout    time.Duration `env:"HTTP_READ_TIMEOUT" env-default:"30s"`
	WriteTimeout   time.Duration `env:"HTTP_WRITE_TIMEOUT" env-default:"30s"`
	StoreBackend   string        `env:"STORE_BACKEND" env-default:"postgres"`
	PayloadBackend string        `env:"PAYLOAD_BACKEND" env-default:"database"`

	Log        LogConfig
	Tracing    TracingConfig
	Database   DatabaseConfig
	MinIO      MinIOConfig
	Redis      RedisConfig
	RateLimit  RateLimitConfig
	Auth       AuthConfig
	Encryption EncryptionConfig
}

// PerWindow is the number of requests one caller may make per rate limit window.
func (r RateLimitConfig) PerWindow() int {
	return int(r.RPS*r.Window.Seconds()) + r.Burst
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// Real environment variables take precedence.
func Load() (*AppConfig, error) {
	var cfg AppConfig
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// MustLoad is Load for binaries: it panics on invalid configuration.
func MustLoad() *AppConfig {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Location resolves Timezone, falling back to UTC when it is unknown.
func (c *AppConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c *AppConfig) validate() error {
	switch c.StoreBackend {
	case StorePostgres, StoreMemory:
	default:
		return fmt.Errorf("invalid STORE_BACKEND %q", c.StoreBackend)
	}
	switch c.PayloadBackend {
	case PayloadDatabase, PayloadMinIO:
	default:
		return fmt.Errorf("invalid PAYLOAD_BACKEND %q", c.PayloadBackend)
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("SECRET_KEY must not be empty")
	}
	if c.Encryption.Key == "" {
		return fmt.Errorf("ENCRYPTION_KEY must not be empty")
	}
	return nil
}
