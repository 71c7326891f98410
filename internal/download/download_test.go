package download

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("video-bytes"))
	}))
	defer server.Close()

	dest := filepath.Join(t.TempDir(), "shot-01", "shot-01.mp4")

	d := New()
	if err := d.Fetch(context.Background(), server.URL, dest); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(data) != "video-bytes" {
		t.Errorf("content = %q", data)
	}
}

func TestFetch_BadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	dest := filepath.Join(t.TempDir(), "out.mp4")

	d := New()
	err := d.Fetch(context.Background(), server.URL, dest)
	if !errors.Is(err, ErrBadStatus) {
		t.Fatalf("error = %v, want ErrBadStatus", err)
	}
	if _, statErr := os.Stat(dest); !os.IsNotExist(statErr) {
		t.Error("no file should exist after a failed download")
	}
}

func TestFetch_ConnectionRefused(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "out.mp4")

	d := New()
	err := d.Fetch(context.Background(), "http://127.0.0.1:1", dest)
	if err == nil {
		t.Fatal("expected error")
	}
}
