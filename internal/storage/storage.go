// Package storage manages timestamped run output directories and optional
// S3 delivery of finished artifacts. It defines the Store interface (port)
// with implementations for local disk and S3-backed delivery.
package storage

import (
	"context"
	"errors"
	"io"
)

// ErrS3NotConfigured is returned when S3 delivery is attempted without
// S3 configuration.
var ErrS3NotConfigured = errors.New("storage: S3 is not configured")

// Store writes run outputs. One Store instance corresponds to one run
// directory; reports and artifacts for a batch land under it.
type Store interface {
	// RunDir returns the absolute path of this run's output directory.
	RunDir() string

	// WriteFile writes data to relPath under the run directory, creating
	// intermediate directories, and returns the absolute path.
	WriteFile(ctx context.Context, relPath string, data io.Reader) (path string, err error)

	// Publish uploads data under the given key and returns a public URL.
	// Returns ErrS3NotConfigured when no S3 backend is attached.
	Publish(ctx context.Context, key string, data io.Reader) (url string, err error)
}
