package vision

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"
)

// requestTimeout bounds each per-image extraction request. A request
// that exceeds it is aborted and counts as a failure for that image.
const requestTimeout = 30 * time.Second

// Image is one encoded transport payload.
type Image struct {
	Data []byte
	MIME string
}

// Client fans label photos out to a vision provider and merges the
// responses.
type Client struct {
	provider Provider
	model    string
	timeout  time.Duration
}

// NewClient builds a client from the environment. LABELSCAN_PROVIDER
// selects gemini, openai, or ollama; gemini is the default.
func NewClient() (*Client, error) {
	name := os.Getenv("LABELSCAN_PROVIDER")
	if name == "" {
		name = "gemini"
	}

	provider, err := NewProvider(name)
	if err != nil {
		return nil, err
	}

	return &Client{
		provider: provider,
		model:    DefaultModel(name),
		timeout:  requestTimeout,
	}, nil
}

// NewClientWithProvider wires an explicit provider, used by tests and
// by callers that already resolved the configuration.
func NewClientWithProvider(provider Provider, model string) *Client {
	return &Client{
		provider: provider,
		model:    model,
		timeout:  requestTimeout,
	}
}

// Extract sends every image concurrently and merges the results in
// image order. Any per-image failure aborts the whole operation so no
// partial merge ever reaches the form; a rate-limit signal from any
// response wins over other failure reasons.
func (c *Client) Extract(ctx context.Context, images []Image) (*Fields, error) {
	if len(images) == 0 {
		return nil, fmt.Errorf("no images to extract")
	}

	results := make([]*Fields, len(images))
	errs := make([]error, len(images))

	var wg sync.WaitGroup
	for i, img := range images {
		wg.Add(1)
		go func(i int, img Image) {
			defer wg.Done()

			reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
			defer cancel()

			raw, err := c.provider.Extract(reqCtx, Request{
				Model:  c.model,
				Prompt: buildExtractionPrompt(i+1, len(images)),
				Image:  img.Data,
				MIME:   img.MIME,
			})
			if err != nil {
				errs[i] = fmt.Errorf("image %d: %w", i+1, err)
				return
			}

			fields, err := parseResponse(raw)
			if err != nil {
				errs[i] = fmt.Errorf("image %d: %w", i+1, err)
				return
			}
			results[i] = fields
		}(i, img)
	}
	wg.Wait()

	var firstErr error
	for _, err := range errs {
		if err == nil {
			continue
		}
		if errors.Is(err, ErrRateLimited) {
			return nil, err
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	if firstErr != nil {
		return nil, firstErr
	}

	merged := Merge(results)
	slog.Info("Extraction merged", "images", len(images), "name", merged.Name, "barcode", merged.Barcode)
	return merged, nil
}
