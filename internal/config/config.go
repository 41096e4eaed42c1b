// Package config provides configuration loading from environment variables
// and an optional .env file.
package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

// Storage backends.
const (
	BackendS3    = "s3"
	BackendMinIO = "minio"
)

// Static errors for configuration validation.
var (
	// ErrJWTSecretRequired is returned when JWT_SECRET is not set.
	ErrJWTSecretRequired = errors.New("config: JWT_SECRET is required")
	// ErrBucketRequired is returned when S3_BUCKET is not set.
	ErrBucketRequired = errors.New("config: S3_BUCKET is required")
	// ErrInvalidBackend is returned when STORAGE_BACKEND is not s3 or minio.
	ErrInvalidBackend = errors.New("config: STORAGE_BACKEND must be s3 or minio")
	// ErrMinIOEndpointRequired is returned when the minio backend has no endpoint.
	ErrMinIOEndpointRequired = errors.New("config: MINIO_ENDPOINT is required for the minio backend")
	// ErrInvalidSignedURLTTL is returned when SIGNED_URL_TTL is not positive.
	ErrInvalidSignedURLTTL = errors.New("config: SIGNED_URL_TTL must be positive")
)

// Config holds all configuration for the application.
type Config struct {
	// Server settings
	Port           int      `env:"PORT, default=8091" json:"port"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS, default=*" json:"allowed_origins"`
	JWTSecret      string   `env:"JWT_SECRET, required" json:"-"` // Masked in JSON

	// Local staging and metadata
	AssetsRoot string `env:"ASSETS_ROOT, default=/tmp/tubely/assets" json:"assets_root"`
	DBPath     string `env:"DB_PATH, default=tubely.db" json:"db_path"`

	// Object storage settings
	StorageBackend     string        `env:"STORAGE_BACKEND, default=s3" json:"storage_backend"`
	S3Bucket           string        `env:"S3_BUCKET, required" json:"s3_bucket"`
	S3Region           string        `env:"S3_REGION, default=us-east-1" json:"s3_region"`
	S3Endpoint         string        `env:"S3_ENDPOINT" json:"s3_endpoint,omitempty"`
	AWSAccessKeyID     string        `env:"AWS_ACCESS_KEY_ID" json:"-"`     // Masked in JSON
	AWSSecretAccessKey string        `env:"AWS_SECRET_ACCESS_KEY" json:"-"` // Masked in JSON
	SignedURLTTL       time.Duration `env:"SIGNED_URL_TTL, default=1h" json:"signed_url_ttl"`

	// MinIO settings, used when StorageBackend is "minio"
	MinIOEndpoint  string `env:"MINIO_ENDPOINT" json:"minio_endpoint,omitempty"`
	MinIOAccessKey string `env:"MINIO_ACCESS_KEY" json:"-"` // Masked in JSON
	MinIOSecretKey string `env:"MINIO_SECRET_KEY" json:"-"` // Masked in JSON
	MinIOUseSSL    bool   `env:"MINIO_USE_SSL, default=false" json:"minio_use_ssl"`

	// Media tools
	FFmpegPath  string `env:"FFMPEG_PATH, default=ffmpeg" json:"ffmpeg_path"`
	FFprobePath string `env:"FFPROBE_PATH, default=ffprobe" json:"ffprobe_path"`

	// Logging settings
	LogFormat string `env:"LOG_FORMAT, default=text" json:"log_format"` // "json" or "text"
	LogLevel  string `env:"LOG_LEVEL, default=info" json:"log_level"`   // "debug", "info", "warn", "error"
}

// Load reads configuration from environment variables using go-envconfig.
// Variables from the given .env files (".env" when none are given) are
// loaded first without overriding the process environment; missing files
// are skipped. It returns an error if required variables are not set.
func Load(envFiles ...string) (*Config, error) {
	if err := loadDotEnv(envFiles); err != nil {
		return nil, err
	}

	cfg := &Config{}

	if err := envconfig.Process(context.Background(), cfg); err != nil {
		// Map envconfig errors to our domain errors for required fields
		if strings.Contains(err.Error(), "JWT_SECRET") {
			return nil, ErrJWTSecretRequired
		}
		if strings.Contains(err.Error(), "S3_BUCKET") {
			return nil, ErrBucketRequired
		}
		return nil, fmt.Errorf("config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func loadDotEnv(files []string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}

	existing := make([]string, 0, len(files))
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return nil
	}

	if err := godotenv.Load(existing...); err != nil {
		return fmt.Errorf("config: load env file: %w", err)
	}
	return nil
}

// Validate checks that all required configuration is present and consistent.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return ErrJWTSecretRequired
	}
	if c.S3Bucket == "" {
		return ErrBucketRequired
	}
	switch c.StorageBackend {
	case BackendS3:
	case BackendMinIO:
		if c.MinIOEndpoint == "" {
			return ErrMinIOEndpointRequired
		}
	default:
		return ErrInvalidBackend
	}
	if c.SignedURLTTL <= 0 {
		return ErrInvalidSignedURLTTL
	}
	return nil
}

// InMemoryStore reports whether video records are kept in memory only.
func (c *Config) InMemoryStore() bool {
	return c.DBPath == ""
}

// NewLogger creates a structured logger based on the configuration.
// When LogFormat is "json", it outputs JSON logs suitable for production.
// Otherwise, it outputs human-readable text logs.
func (c *Config) NewLogger() *slog.Logger {
	level := parseLogLevel(c.LogLevel)

	var handler slog.Handler
	if strings.ToLower(c.LogFormat) == "json" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	}

	return slog.New(handler)
}

// String returns a string representation of the config with sensitive values masked.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Port: %d, AssetsRoot: %s, DBPath: %s, StorageBackend: %s, S3Bucket: %s, S3Region: %s, S3Endpoint: %s, MinIOEndpoint: %s, SignedURLTTL: %s, LogFormat: %s, LogLevel: %s}",
		c.Port,
		c.AssetsRoot,
		c.DBPath,
		c.StorageBackend,
		c.S3Bucket,
		c.S3Region,
		c.S3Endpoint,
		c.MinIOEndpoint,
		c.SignedURLTTL,
		c.LogFormat,
		c.LogLevel,
	)
}

// parseLogLevel converts a string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
