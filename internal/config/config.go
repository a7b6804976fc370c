package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Media     MediaConfig     `yaml:"media"`
	Stream    StreamConfig    `yaml:"stream"`
	Database  DatabaseConfig  `yaml:"database"`
	Cache     CacheConfig     `yaml:"cache"`
	Auth      AuthConfig      `yaml:"auth"`
	Events    EventsConfig    `yaml:"events"`
	Worker    WorkerConfig    `yaml:"worker"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host           string        `yaml:"host" envconfig:"SERVER_HOST" default:"0.0.0.0"`
	Port           int           `yaml:"port" envconfig:"SERVER_PORT" default:"5000"`
	ReadTimeout    time.Duration `yaml:"read_timeout" envconfig:"SERVER_READ_TIMEOUT" default:"30s"`
	WriteTimeout   time.Duration `yaml:"write_timeout" envconfig:"SERVER_WRITE_TIMEOUT" default:"0s"`
	RequestTimeout time.Duration `yaml:"request_timeout" envconfig:"SERVER_REQUEST_TIMEOUT" default:"30s"`
	AllowedOrigin  string        `yaml:"allowed_origin" envconfig:"CORS_ALLOWED_ORIGIN" default:"*"`
}

// Media backends.
const (
	MediaBackendFilesystem = "fs"
	MediaBackendS3         = "s3"
)

// MediaConfig holds the location of stored video files.
type MediaConfig struct {
	Backend    string `yaml:"backend" envconfig:"MEDIA_BACKEND" default:"fs"`
	BasePath   string `yaml:"base_path" envconfig:"MEDIA_PATH" default:"/data/uploads/videos"`
	S3Bucket   string `yaml:"s3_bucket" envconfig:"MEDIA_S3_BUCKET"`
	S3Region   string `yaml:"s3_region" envconfig:"MEDIA_S3_REGION" default:"us-east-1"`
	S3Endpoint string `yaml:"s3_endpoint" envconfig:"MEDIA_S3_ENDPOINT"`
	S3Prefix   string `yaml:"s3_prefix" envconfig:"MEDIA_S3_PREFIX"`
}

// StreamConfig holds range-streaming limits.
type StreamConfig struct {
	MaxChunkSize      int64 `yaml:"max_chunk_size" envconfig:"STREAM_MAX_CHUNK_SIZE" default:"10485760"`           // 10 MiB
	FullBodyThreshold int64 `yaml:"full_body_threshold" envconfig:"STREAM_FULL_BODY_THRESHOLD" default:"52428800"` // 50 MiB
	DefaultChunkSize  int64 `yaml:"default_chunk_size" envconfig:"STREAM_DEFAULT_CHUNK_SIZE" default:"2097152"`    // 2 MiB
}

// Database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// DatabaseConfig selects and configures the feed store.
type DatabaseConfig struct {
	Driver      string `yaml:"driver" envconfig:"DB_DRIVER" default:"sqlite"`
	SQLitePath  string `yaml:"sqlite_path" envconfig:"DB_SQLITE_PATH" default:"/data/newsreel.db"`
	PostgresDSN string `yaml:"postgres_dsn" envconfig:"DB_POSTGRES_DSN"`
	MaxConns    int32  `yaml:"max_conns" envconfig:"DB_MAX_CONNS" default:"10"`
}

// Cache backends.
const (
	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"
	CacheBackendNone   = "none"
)

// CacheConfig configures the feed response cache.
type CacheConfig struct {
	Backend   string        `yaml:"backend" envconfig:"CACHE_BACKEND" default:"memory"`
	Size      int           `yaml:"size" envconfig:"CACHE_SIZE" default:"1024"`
	TTL       time.Duration `yaml:"ttl" envconfig:"CACHE_TTL" default:"60s"`
	RedisAddr string        `yaml:"redis_addr" envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisDB   int           `yaml:"redis_db" envconfig:"REDIS_DB" default:"0"`
}

// AuthConfig configures bearer token verification. Tokens are issued by the
// accounts service; this service only verifies them.
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret" envconfig:"JWT_SECRET"`
	Issuer    string `yaml:"issuer" envconfig:"JWT_ISSUER"`
}

// EventsConfig configures domain event publishing.
type EventsConfig struct {
	NATSURL string `yaml:"nats_url" envconfig:"EVENTS_NATS_URL"`
	Stream  string `yaml:"stream" envconfig:"EVENTS_STREAM" default:"NEWSREEL_VIEWS"`
	Subject string `yaml:"subject" envconfig:"EVENTS_SUBJECT" default:"newsreel.videos.viewed"`
}

// WorkerConfig holds view-counter worker configuration.
type WorkerConfig struct {
	Count     int `yaml:"count" envconfig:"WORKER_COUNT" default:"2"`
	QueueSize int `yaml:"queue_size" envconfig:"WORKER_QUEUE_SIZE" default:"1024"`
}

// TelemetryConfig toggles trace export.
type TelemetryConfig struct {
	TracingEnabled bool   `yaml:"tracing_enabled" envconfig:"TRACING_ENABLED" default:"false"`
	ServiceName    string `yaml:"service_name" envconfig:"SERVICE_NAME" default:"newsreel"`
}

// Load reads configuration from file and environment variables.
// A .env file in the working directory is loaded first without overriding
// variables already set; environment variables override file values.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{}

	// Load from YAML file if provided
	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	// Override with environment variables
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration values are set.
func (c *Config) Validate() error {
	switch c.Media.Backend {
	case MediaBackendFilesystem:
		if c.Media.BasePath == "" {
			return fmt.Errorf("MEDIA_PATH is required")
		}
	case MediaBackendS3:
		if c.Media.S3Bucket == "" {
			return fmt.Errorf("MEDIA_S3_BUCKET is required for the s3 backend")
		}
	default:
		return fmt.Errorf("unknown MEDIA_BACKEND %q", c.Media.Backend)
	}

	if c.Stream.MaxChunkSize <= 0 {
		return fmt.Errorf("STREAM_MAX_CHUNK_SIZE must be positive")
	}
	if c.Stream.DefaultChunkSize <= 0 || c.Stream.DefaultChunkSize > c.Stream.MaxChunkSize {
		return fmt.Errorf("STREAM_DEFAULT_CHUNK_SIZE must be in (0, STREAM_MAX_CHUNK_SIZE]")
	}
	if c.Stream.FullBodyThreshold <= 0 {
		return fmt.Errorf("STREAM_FULL_BODY_THRESHOLD must be positive")
	}

	switch c.Database.Driver {
	case DriverSQLite:
		if c.Database.SQLitePath == "" {
			return fmt.Errorf("DB_SQLITE_PATH is required")
		}
	case DriverPostgres:
		if c.Database.PostgresDSN == "" {
			return fmt.Errorf("DB_POSTGRES_DSN is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown DB_DRIVER %q", c.Database.Driver)
	}

	switch c.Cache.Backend {
	case CacheBackendMemory:
		if c.Cache.Size <= 0 {
			return fmt.Errorf("CACHE_SIZE must be positive")
		}
	case CacheBackendRedis:
		if c.Cache.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR is required for the redis cache")
		}
	case CacheBackendNone:
	default:
		return fmt.Errorf("unknown CACHE_BACKEND %q", c.Cache.Backend)
	}

	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	return nil
}

// Address returns the server address in host:port format.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
