// Package llm wraps the hosted language models used for placement analysis,
// lesson content, checkpoint scoring and weak-point classification. Every
// call asks for JSON matching a schema; callers fall back to heuristics when
// no provider is configured or a call fails.
package llm

import (
	"context"
	"encoding/json"
)

// Provider generates structured completions.
type Provider interface {
	// Generate runs one completion. When req.Schema is set the returned
	// Content has been validated against it.
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID is the model requests are sent to.
	ModelID() string

	// ProviderName identifies the backend, e.g. "anthropic" or "mock".
	ProviderName() string
}

// Request is a single-turn or short multi-turn prompt.
type Request struct {
	System   string
	Messages []Message

	// Schema selects the provider's native structured output mode.
	Schema *Schema

	MaxTokens int

	// Temperature in [0, 1]; zero leaves the provider default.
	Temperature float64
}

// Message is one conversation turn.
type Message struct {
	Role    Role
	Content string
}

// Role is the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Schema names a JSON Schema document. Name doubles as the cache key for
// the compiled validator, so it must be unique per definition.
type Schema struct {
	Name        string
	Description string
	Definition  map[string]any
}

// Response is a completed generation.
type Response struct {
	// Content is the JSON document returned by the model. Schema-less
	// replies are encoded as a JSON string.
	Content json.RawMessage

	Usage Usage
	Model string

	// StopReason is "end" or "max_tokens".
	StopReason string
}

// Usage counts the tokens billed for one call.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

const (
	stopEnd       = "end"
	stopMaxTokens = "max_tokens"
)
