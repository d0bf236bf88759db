// Package llm provides the text-generation oracle used by the resolver.
//
// LLM Provider interface - the abstract interface for LLM providers.
// Each provider implementation hides:
// - API client initialization and authentication
// - Request/response format conversion
// - Provider-specific error handling

package llm

import (
	"context"
)

// Provider defines the abstract interface for LLM providers.
// Implementations hide provider-specific details while exposing
// a consistent interface for chat completions.
type Provider interface {
	// Name returns the provider name (for logging/debugging).
	Name() string

	// Model returns the current model being used.
	Model() string

	// Chat sends a chat completion request.
	Chat(ctx context.Context, messages []ChatMessage) (LLMResponse, error)
}

// Oracle answers one system/user prompt pair with free-form text.
// The resolver depends on this and nothing else from the package.
type Oracle interface {
	Query(ctx context.Context, system, user string) (string, error)
}
