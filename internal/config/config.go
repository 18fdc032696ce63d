// Package config provides configuration loading from environment variables.
package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Static errors for configuration validation.
var (
	// ErrAuthSecretRequired is returned when AUTH_SECRET is not set.
	ErrAuthSecretRequired = errors.New("config: AUTH_SECRET is required")
	// ErrScriptsDirRequired is returned when SCRIPTS_DIR is not set.
	ErrScriptsDirRequired = errors.New("config: SCRIPTS_DIR is required")
)

// Config holds all configuration for the application.
type Config struct {
	// Server settings
	Port int `env:"PORT, default=8080" json:"port"`

	// Auth settings
	AuthSecret string `env:"AUTH_SECRET, required" json:"-"` // Masked in JSON

	// Script execution settings
	ScriptsDir string `env:"SCRIPTS_DIR, required" json:"scripts_dir"`
	PythonBin  string `env:"PYTHON_BIN, default=python3" json:"python_bin"`

	// Staging settings
	TempDir string `env:"TEMP_DIR, default=/tmp/clipforge" json:"temp_dir"`

	// Job settings
	JobTimeout     time.Duration `env:"JOB_TIMEOUT, default=10m" json:"job_timeout"`
	MaxJobsPerUser int           `env:"MAX_JOBS_PER_USER, default=4" json:"max_jobs_per_user"`

	// Optional S3 settings; local disk storage is used when unset
	S3Bucket           string `env:"S3_BUCKET" json:"s3_bucket,omitempty"`
	S3Region           string `env:"S3_REGION" json:"s3_region,omitempty"`
	S3Endpoint         string `env:"S3_ENDPOINT" json:"s3_endpoint,omitempty"`
	AWSAccessKeyID     string `env:"AWS_ACCESS_KEY_ID" json:"-"`     // Masked in JSON
	AWSSecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY" json:"-"` // Masked in JSON

	// Local store settings (used when S3 is not configured)
	LocalStoreDir string `env:"LOCAL_STORE_DIR" json:"local_store_dir,omitempty"`
	PublicBaseURL string `env:"PUBLIC_BASE_URL, default=http://localhost:8080/files" json:"public_base_url"`

	// Logging settings
	LogFormat string `env:"LOG_FORMAT, default=text" json:"log_format"` // "json" or "text"
	LogLevel  string `env:"LOG_LEVEL, default=info" json:"log_level"`   // "debug", "info", "warn", "error"
}

// S3Enabled returns true if S3 configuration is provided.
func (c *Config) S3Enabled() bool {
	return c.S3Bucket != "" && c.S3Region != ""
}

// Load reads configuration from environment variables using go-envconfig.
// It returns an error if required variables are not set.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := envconfig.Process(context.Background(), cfg); err != nil {
		// Map envconfig errors to our domain errors for required fields
		if strings.Contains(err.Error(), "AUTH_SECRET") {
			return nil, ErrAuthSecretRequired
		}
		if strings.Contains(err.Error(), "SCRIPTS_DIR") {
			return nil, ErrScriptsDirRequired
		}
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration is present.
func (c *Config) Validate() error {
	if c.AuthSecret == "" {
		return ErrAuthSecretRequired
	}
	if c.ScriptsDir == "" {
		return ErrScriptsDirRequired
	}
	return nil
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
		"Config{Port: %d, ScriptsDir: %s, PythonBin: %s, TempDir: %s, JobTimeout: %s, MaxJobsPerUser: %d, S3Bucket: %s, S3Region: %s, LogFormat: %s, LogLevel: %s}",
		c.Port,
		c.ScriptsDir,
		c.PythonBin,
		c.TempDir,
		c.JobTimeout,
		c.MaxJobsPerUser,
		c.S3Bucket,
		c.S3Region,
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
