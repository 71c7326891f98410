package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewLocalStore_CreatesRunDir(t *testing.T) {
	root := t.TempDir()

	s, err := NewLocalStore(root, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	info, err := os.Stat(s.RunDir())
	if err != nil {
		t.Fatalf("run dir not created: %v", err)
	}
	if !info.IsDir() {
		t.Error("run dir is not a directory")
	}
	if filepath.Dir(s.RunDir()) != root {
		t.Errorf("run dir %q not under %q", s.RunDir(), root)
	}

	// Timestamped name: yymmdd_hhmmss.
	base := filepath.Base(s.RunDir())
	if len(base) != len("060102_150405") {
		t.Errorf("run dir name %q has unexpected shape", base)
	}
}

func TestNewLocalStore_Label(t *testing.T) {
	root := t.TempDir()

	s, err := NewLocalStore(root, "wan480")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasSuffix(filepath.Base(s.RunDir()), "_wan480") {
		t.Errorf("run dir %q missing label suffix", s.RunDir())
	}
}

func TestLocalStore_WriteFile(t *testing.T) {
	s, err := NewLocalStore(t.TempDir(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	path, err := s.WriteFile(context.Background(), "shot-01/generation.md", strings.NewReader("# report"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if filepath.Dir(path) != filepath.Join(s.RunDir(), "shot-01") {
		t.Errorf("file landed at %q", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(data) != "# report" {
		t.Errorf("content = %q", data)
	}
}

func TestLocalStore_WriteFile_CanceledContext(t *testing.T) {
	s, err := NewLocalStore(t.TempDir(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = s.WriteFile(ctx, "x.md", strings.NewReader("x"))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
}

func TestLocalStore_PublishNotConfigured(t *testing.T) {
	s, err := NewLocalStore(t.TempDir(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = s.Publish(context.Background(), "key", strings.NewReader("data"))
	if !errors.Is(err, ErrS3NotConfigured) {
		t.Fatalf("error = %v, want ErrS3NotConfigured", err)
	}
}
