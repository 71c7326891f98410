// Package bootstrap provides dependency initialization for the generation CLI.
package bootstrap

import (
	"fmt"
	"log/slog"

	"github.com/rubenxyz/replicate-img-to-vid-tool/internal/config"
	"github.com/rubenxyz/replicate-img-to-vid-tool/internal/download"
	"github.com/rubenxyz/replicate-img-to-vid-tool/internal/engine"
	"github.com/rubenxyz/replicate-img-to-vid-tool/internal/replicate"
	"github.com/rubenxyz/replicate-img-to-vid-tool/internal/storage"
)

// Dependencies holds all initialized dependencies for a generation run.
type Dependencies struct {
	Engine     *engine.Client
	Downloader *download.Downloader
}

// NewDependencies creates and initializes all dependencies for the application.
func NewDependencies(cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	apiClient, err := replicate.NewClient(replicate.WithAPIToken(cfg.ReplicateAPIToken))
	if err != nil {
		return nil, fmt.Errorf("create Replicate client: %w", err)
	}

	policy := engine.BackoffPolicy{
		PollInterval:   cfg.PollInterval,
		BaseDelay:      engine.DefaultBackoffPolicy().BaseDelay,
		RateLimitFloor: cfg.RateLimitDelay,
		MaxDelay:       engine.DefaultBackoffPolicy().MaxDelay,
		MaxAttempts:    cfg.MaxRetries,
	}

	eng := engine.NewClient(
		engine.NewReplicateService(apiClient),
		engine.WithLogger(logger),
		engine.WithBackoffPolicy(policy),
		engine.WithMaxWait(cfg.MaxWait),
	)

	return &Dependencies{
		Engine:     eng,
		Downloader: download.New(),
	}, nil
}

// NewStore creates the appropriate storage backend based on configuration.
// The label is appended to the run directory name.
func NewStore(cfg *config.Config, label string, logger *slog.Logger) (storage.Store, error) {
	if cfg.S3Enabled() {
		s3Cfg := storage.S3Config{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
		}
		store, err := storage.NewS3Store(cfg.OutputDir(), label, s3Cfg)
		if err != nil {
			return nil, fmt.Errorf("create S3 storage: %w", err)
		}
		logger.Info("S3 delivery configured",
			slog.String("bucket", cfg.S3Bucket),
			slog.String("region", cfg.S3Region),
		)
		return store, nil
	}

	store, err := storage.NewLocalStore(cfg.OutputDir(), label)
	if err != nil {
		return nil, fmt.Errorf("create local storage: %w", err)
	}
	return store, nil
}
