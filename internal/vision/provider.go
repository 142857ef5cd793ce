// Package vision sends label photos to a vision-capable LLM and merges
// the per-image extractions into one product record.
package vision

import (
	"context"
	"errors"
	"fmt"
	"os"
)

// ErrRateLimited reports that the extraction endpoint asked us to back
// off. The whole operation aborts so the user can wait and retry.
var ErrRateLimited = errors.New("extraction rate limited")

// ErrMalformedResponse reports a response that could not be parsed into
// extracted fields.
var ErrMalformedResponse = errors.New("malformed extraction response")

// Request is one image sent for extraction.
type Request struct {
	Model  string
	Prompt string
	Image  []byte
	MIME   string
}

// Provider defines the interface for a vision LLM provider.
type Provider interface {
	Extract(ctx context.Context, req Request) (string, error)
}

// NewProvider returns the provider for the given name.
func NewProvider(name string) (Provider, error) {
	switch name {
	case "gemini":
		return NewGemini(), nil
	case "openai":
		return NewOpenAI(), nil
	case "ollama":
		return NewOllama(), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", name)
	}
}

// DefaultModel returns the model used when none is configured.
func DefaultModel(provider string) string {
	switch provider {
	case "gemini":
		if model := os.Getenv("GEMINI_MODEL"); model != "" {
			return model
		}
		return "gemini-1.5-flash"
	case "openai":
		if model := os.Getenv("OPENAI_MODEL"); model != "" {
			return model
		}
		return "gpt-4o"
	case "ollama":
		if model := os.Getenv("OLLAMA_MODEL"); model != "" {
			return model
		}
		return "mistral-small3.2:24b"
	default:
		return ""
	}
}
