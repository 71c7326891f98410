// Package download fetches generated artifacts over HTTP and streams them
// to disk.
package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// ErrBadStatus is returned when the artifact server answers with a
// non-2xx status code.
var ErrBadStatus = errors.New("download: unexpected status")

// Downloader streams remote artifacts to local files.
type Downloader struct {
	httpClient *http.Client
}

// Option configures a Downloader.
type Option func(*Downloader)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(d *Downloader) {
		d.httpClient = c
	}
}

// New creates a Downloader. The default client allows 5 minutes per
// download; generated videos can be large.
func New(opts ...Option) *Downloader {
	d := &Downloader{
		httpClient: &http.Client{Timeout: 5 * time.Minute},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Fetch downloads url into destPath, creating parent directories as
// needed. A partial file is removed on failure.
func (d *Downloader) Fetch(ctx context.Context, url, destPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("download: create request: %w", err)
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("download: request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w %d for %s", ErrBadStatus, resp.StatusCode, url)
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0o750); err != nil {
		return fmt.Errorf("download: create directory: %w", err)
	}

	f, err := os.Create(destPath) // #nosec G304 - destination chosen by caller
	if err != nil {
		return fmt.Errorf("download: create file: %w", err)
	}

	if _, err := io.Copy(f, resp.Body); err != nil {
		_ = f.Close()
		_ = os.Remove(destPath)
		return fmt.Errorf("download: write file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(destPath)
		return fmt.Errorf("download: close file: %w", err)
	}

	return nil
}
