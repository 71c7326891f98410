// Package config provides configuration loading from environment variables.
package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Static errors for configuration validation.
var (
	// ErrAPITokenRequired is returned when REPLICATE_API_TOKEN is not set.
	ErrAPITokenRequired = errors.New("config: REPLICATE_API_TOKEN is required")
)

// Display mode values.
const (
	DisplayPlain   = "plain"
	DisplayConsole = "console"
	DisplayRich    = "rich"
)

// Config holds all configuration for the application.
type Config struct {
	// Replicate settings. The token is only required for generation runs;
	// cost estimation works without it, so Load does not enforce it.
	ReplicateAPIToken string `env:"REPLICATE_API_TOKEN" json:"-"` // Masked in JSON

	// Polling settings
	PollInterval   time.Duration `env:"POLL_INTERVAL, default=3s" json:"poll_interval"`
	MaxWait        time.Duration `env:"MAX_WAIT, default=20m" json:"max_wait"`
	MaxRetries     int           `env:"MAX_RETRIES, default=3" json:"max_retries"`
	RateLimitDelay time.Duration `env:"RATE_LIMIT_DELAY, default=60s" json:"rate_limit_delay"`

	// File layout settings
	UserFilesDir string `env:"USER_FILES_DIR, default=USER-FILES" json:"user_files_dir"`

	// Display settings
	DisplayMode string `env:"DISPLAY_MODE, default=rich" json:"display_mode"` // "plain", "console" or "rich"

	// Optional S3 settings
	S3Bucket           string `env:"S3_BUCKET" json:"s3_bucket,omitempty"`
	S3Region           string `env:"S3_REGION" json:"s3_region,omitempty"`
	S3Endpoint         string `env:"S3_ENDPOINT" json:"s3_endpoint,omitempty"`
	AWSAccessKeyID     string `env:"AWS_ACCESS_KEY_ID" json:"-"`     // Masked in JSON
	AWSSecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY" json:"-"` // Masked in JSON

	// Logging settings
	LogFormat string `env:"LOG_FORMAT, default=text" json:"log_format"` // "json" or "text"
	LogLevel  string `env:"LOG_LEVEL, default=info" json:"log_level"`   // "debug", "info", "warn", "error"
}

// ImageURLDir returns the directory holding per-item image URL files.
// The numbered directory names match the layout users already keep on disk.
func (c *Config) ImageURLDir() string {
	return filepath.Join(c.UserFilesDir, "04.INPUT", "04.1.IMAGE_URL")
}

// FramesDir returns the directory holding per-item frame count files.
func (c *Config) FramesDir() string {
	return filepath.Join(c.UserFilesDir, "04.INPUT", "04.2.NUM_FRAMES")
}

// PromptDir returns the directory holding per-item motion prompt files.
func (c *Config) PromptDir() string {
	return filepath.Join(c.UserFilesDir, "04.INPUT", "04.3.PROMPT")
}

// ProfilesDir returns the directory holding generation profile YAML files.
func (c *Config) ProfilesDir() string {
	return filepath.Join(c.UserFilesDir, "03.PROFILES")
}

// OutputDir returns the root under which run directories are created.
func (c *Config) OutputDir() string {
	return filepath.Join(c.UserFilesDir, "05.OUTPUT")
}

// S3Enabled returns true if S3 configuration is provided.
func (c *Config) S3Enabled() bool {
	return c.S3Bucket != "" && c.S3Region != ""
}

// Load reads configuration from environment variables using go-envconfig.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := envconfig.Process(context.Background(), cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

// Validate checks that configuration required for generation runs is
// present. Commands that never talk to the API skip this.
func (c *Config) Validate() error {
	if c.ReplicateAPIToken == "" {
		return ErrAPITokenRequired
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
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
			Level: level,
		})
	} else {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: level,
		})
	}

	return slog.New(handler)
}

// String returns a string representation of the config with sensitive values masked.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{PollInterval: %s, MaxWait: %s, MaxRetries: %d, RateLimitDelay: %s, UserFilesDir: %s, DisplayMode: %s, S3Bucket: %s, S3Region: %s, LogFormat: %s, LogLevel: %s}",
		c.PollInterval,
		c.MaxWait,
		c.MaxRetries,
		c.RateLimitDelay,
		c.UserFilesDir,
		c.DisplayMode,
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
