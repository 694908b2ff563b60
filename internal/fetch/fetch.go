// ABOUTME: Remote track fetcher with an on-disk cache
// ABOUTME: Downloads audio from URLs and caches by URL hash
package fetch

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

// Fetcher downloads remote tracks, caching them under a temp directory
// keyed by URL hash so repeat loads skip the network.
type Fetcher struct {
	cacheDir string
	client   *http.Client
}

// NewFetcher creates a fetcher. An empty cacheDir uses a directory
// under the system temp dir.
func NewFetcher(cacheDir string) (*Fetcher, error) {
	if cacheDir == "" {
		cacheDir = filepath.Join(os.TempDir(), "woodshed-tracks")
	}
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	return &Fetcher{
		cacheDir: cacheDir,
		client:   &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// Fetch returns the track bytes for rawURL, from cache when possible.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	if rawURL == "" {
		return nil, fmt.Errorf("empty URL")
	}

	hash := sha256.Sum256([]byte(rawURL))
	filename := fmt.Sprintf("%x%s", hash[:8], extension(rawURL))
	cachePath := filepath.Join(f.cacheDir, filename)

	if data, err := os.ReadFile(cachePath); err == nil {
		log.Printf("Track cache hit: %s", cachePath)
		return data, nil
	}

	log.Printf("Downloading track: %s", rawURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download track: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("track download failed: HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read track body: %w", err)
	}

	if err := os.WriteFile(cachePath, data, 0644); err != nil {
		log.Printf("Warning: failed to cache track: %v", err)
	} else {
		log.Printf("Track cached: %s", cachePath)
	}
	return data, nil
}

// Name derives a display name from a track URL, stripping the query
// string. Falls back to the host when the path has no base name.
func Name(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	base := path.Base(u.Path)
	if base == "." || base == "/" || base == "" {
		return u.Host
	}
	return base
}

// Cleanup removes the cache directory.
func (f *Fetcher) Cleanup() error {
	return os.RemoveAll(f.cacheDir)
}

// extension extracts the file extension from a URL without its query.
func extension(rawURL string) string {
	rawURL = strings.Split(rawURL, "?")[0]
	return filepath.Ext(rawURL)
}
