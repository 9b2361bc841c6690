// Package llm provides LLM client functionality for SQL generation.
package llm

import (
	"context"
)

// Options control a single completion request.
type Options struct {
	// Temperature for sampling. The generator uses a near-deterministic value
	// on the first attempt and raises it on retries.
	Temperature float64

	// JSONMode requests a JSON-shaped response where the backend supports it.
	JSONMode bool
}

// LLMClient is the interface for chat completion backends.
// Use this interface for dependency injection to enable mocking in tests.
type LLMClient interface {
	// GenerateResponse generates a chat completion response.
	GenerateResponse(ctx context.Context, prompt string, systemMessage string, opts Options) (string, error)

	// GetModel returns the configured model name.
	GetModel() string

	// GetEndpoint returns the configured endpoint.
	GetEndpoint() string
}
