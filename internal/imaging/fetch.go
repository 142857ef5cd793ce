package imaging

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	fetchTimeout  = 30 * time.Second
	maxFetchBytes = 10 * 1024 * 1024

	// Tiny responses are placeholder images, not label photos.
	minFetchBytes = 1000
)

// Fetcher retrieves label photos referenced by URL so they can run
// through the same pipeline as direct uploads.
type Fetcher struct {
	HTTPClient *http.Client
}

// NewFetcher creates a new image fetcher
func NewFetcher() *Fetcher {
	return &Fetcher{
		HTTPClient: &http.Client{
			Timeout: fetchTimeout,
		},
	}
}

// Fetch downloads one image and returns a reader over its bytes.
func (f *Fetcher) Fetch(ctx context.Context, url string) (io.Reader, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build image request: %w", err)
	}

	resp, err := f.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("image URL returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}
	if len(data) < minFetchBytes {
		return nil, fmt.Errorf("image too small (likely placeholder), size: %d bytes", len(data))
	}

	return bytes.NewReader(data), nil
}
