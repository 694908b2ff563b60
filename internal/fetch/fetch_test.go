// ABOUTME: Tests for the track fetcher
// ABOUTME: Tests HTTP download, caching, and error handling
package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
)

func TestNewFetcher(t *testing.T) {
	f, err := NewFetcher(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create fetcher: %v", err)
	}

	if _, err := os.Stat(f.cacheDir); os.IsNotExist(err) {
		t.Error("cache directory was not created")
	}
}

func TestNewFetcherDefaultDir(t *testing.T) {
	f, err := NewFetcher("")
	if err != nil {
		t.Fatalf("failed to create fetcher: %v", err)
	}
	defer f.Cleanup()

	if !strings.HasPrefix(f.cacheDir, os.TempDir()) {
		t.Error("default cache directory should be under the temp dir")
	}
	if !strings.Contains(f.cacheDir, "woodshed-tracks") {
		t.Error("default cache directory should contain 'woodshed-tracks'")
	}
}

func TestFetchSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("fake track data"))
	}))
	defer server.Close()

	f, err := NewFetcher(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create fetcher: %v", err)
	}

	data, err := f.Fetch(context.Background(), server.URL+"/track.wav")
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if string(data) != "fake track data" {
		t.Errorf("expected 'fake track data', got %q", string(data))
	}
}

func TestFetchCaching(t *testing.T) {
	requestCount := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestCount++
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("fake track data"))
	}))
	defer server.Close()

	f, err := NewFetcher(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create fetcher: %v", err)
	}

	if _, err := f.Fetch(context.Background(), server.URL); err != nil {
		t.Fatalf("first fetch failed: %v", err)
	}
	if requestCount != 1 {
		t.Errorf("expected 1 request, got %d", requestCount)
	}

	data, err := f.Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("second fetch failed: %v", err)
	}
	if requestCount != 1 {
		t.Errorf("expected cached fetch to not hit server, got %d requests", requestCount)
	}
	if string(data) != "fake track data" {
		t.Errorf("cached data mismatch: %q", string(data))
	}
}

func TestFetchHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	f, err := NewFetcher(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create fetcher: %v", err)
	}

	_, err = f.Fetch(context.Background(), server.URL)
	if err == nil {
		t.Fatal("expected error for 404 response")
	}
	if !strings.Contains(err.Error(), "404") {
		t.Errorf("expected error to mention 404, got: %v", err)
	}
}

func TestFetchEmptyURL(t *testing.T) {
	f, err := NewFetcher(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create fetcher: %v", err)
	}

	if _, err := f.Fetch(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty URL")
	}
}

func TestFetchInvalidURL(t *testing.T) {
	f, err := NewFetcher(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create fetcher: %v", err)
	}

	if _, err := f.Fetch(context.Background(), "not-a-valid-url"); err == nil {
		t.Fatal("expected error for invalid URL")
	}
}

func TestFetchCanceledContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("data"))
	}))
	defer server.Close()

	f, err := NewFetcher(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create fetcher: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := f.Fetch(ctx, server.URL); err == nil {
		t.Fatal("expected error for canceled context")
	}
}

func TestName(t *testing.T) {
	tests := []struct {
		url      string
		expected string
	}{
		{"http://example.com/tracks/song.mp3", "song.mp3"},
		{"http://example.com/song.wav?token=abc", "song.wav"},
		{"http://example.com/", "example.com"},
		{"http://example.com", "example.com"},
		{"http://example.com/a/b/loop.flac", "loop.flac"},
	}

	for _, tt := range tests {
		if got := Name(tt.url); got != tt.expected {
			t.Errorf("Name(%q) = %q, expected %q", tt.url, got, tt.expected)
		}
	}
}

func TestCleanup(t *testing.T) {
	dir := t.TempDir()
	f, err := NewFetcher(dir + "/cache")
	if err != nil {
		t.Fatalf("failed to create fetcher: %v", err)
	}

	if err := f.Cleanup(); err != nil {
		t.Fatalf("cleanup failed: %v", err)
	}
	if _, err := os.Stat(f.cacheDir); !os.IsNotExist(err) {
		t.Error("cache directory still exists after cleanup")
	}
}
