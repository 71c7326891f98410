package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// runDirLayout is the timestamp format for run directory names,
// e.g. "260830_142501".
const runDirLayout = "060102_150405"

// LocalStore writes run outputs to a timestamped directory on local disk.
// It does not support S3 delivery unless wrapped by S3Store.
type LocalStore struct {
	runDir string
}

// NewLocalStore creates the run directory under outputRoot. The label,
// when non-empty, is appended to the timestamp; use the profile nickname
// for single-profile runs.
func NewLocalStore(outputRoot, label string) (*LocalStore, error) {
	name := time.Now().Format(runDirLayout)
	if label != "" {
		name += "_" + label
	}
	runDir := filepath.Join(outputRoot, name)

	if err := os.MkdirAll(runDir, 0o750); err != nil {
		return nil, fmt.Errorf("storage: create run directory: %w", err)
	}
	return &LocalStore{runDir: runDir}, nil
}

// RunDir returns the absolute path of this run's output directory.
func (s *LocalStore) RunDir() string {
	return s.runDir
}

// WriteFile writes data to relPath under the run directory and returns
// the absolute path.
func (s *LocalStore) WriteFile(ctx context.Context, relPath string, data io.Reader) (string, error) {
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("storage: %w", ctx.Err())
	default:
	}

	path := filepath.Join(s.runDir, relPath)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return "", fmt.Errorf("storage: create directory: %w", err)
	}

	f, err := os.Create(path) // #nosec G304 - path is inside the run directory
	if err != nil {
		return "", fmt.Errorf("storage: create file: %w", err)
	}
	if _, err := io.Copy(f, data); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("storage: write file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("storage: close file: %w", err)
	}
	return path, nil
}

// Publish is not supported by LocalStore and returns ErrS3NotConfigured.
func (s *LocalStore) Publish(_ context.Context, _ string, _ io.Reader) (string, error) {
	return "", ErrS3NotConfigured
}
