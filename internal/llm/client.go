package llm

import (
	"context"
	"encoding/json"
	"errors"
)

// completion is what a backend returns before validation.
type completion struct {
	text      string
	model     string
	usage     Usage
	truncated bool
}

// backend is the SDK-specific half of a Client.
type backend interface {
	complete(ctx context.Context, model string, req Request) (completion, error)
}

// Client is a Provider backed by one hosted API. The SDK adapters only
// translate requests and replies; validation and classification live here.
type Client struct {
	provider string
	model    string
	backend  backend
}

func newClient(provider, model string, b backend) *Client {
	return &Client{provider: provider, model: resolveModel(provider, model), backend: b}
}

func (c *Client) ModelID() string      { return c.model }
func (c *Client) ProviderName() string { return c.provider }

func (c *Client) Generate(ctx context.Context, req Request) (*Response, error) {
	out, err := c.backend.complete(ctx, c.model, req)
	if err != nil {
		var e *Error
		if errors.As(err, &e) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, &Error{Kind: KindUnavailable, Provider: c.provider, Err: err}
	}

	content := json.RawMessage(out.text)
	if req.Schema == nil {
		content, _ = json.Marshal(out.text)
	}

	stop := stopEnd
	if out.truncated {
		stop = stopMaxTokens
		if req.Schema != nil {
			return nil, &Error{Kind: KindTruncated, Provider: c.provider, Content: content}
		}
	}

	if err := validateAgainst(req.Schema, content); err != nil {
		err.Provider = c.provider
		return nil, err
	}

	model := out.model
	if model == "" {
		model = c.model
	}
	usage := out.usage
	if usage.TotalTokens == 0 {
		usage.TotalTokens = usage.InputTokens + usage.OutputTokens
	}
	return &Response{Content: content, Usage: usage, Model: model, StopReason: stop}, nil
}

// modelAliases maps short names accepted in config to model IDs. Anything
// not listed is sent as written.
var modelAliases = map[string]map[string]string{
	"anthropic": {
		"claude-haiku":  "claude-haiku-4-5",
		"claude-sonnet": "claude-sonnet-4-5",
		"claude-opus":   "claude-opus-4-1",
	},
	"openai": {
		"gpt-mini": "gpt-4o-mini",
		"gpt":      "gpt-4o",
	},
	"gemini": {
		"gemini-flash": "gemini-2.5-flash",
		"gemini-lite":  "gemini-2.5-flash-lite",
		"gemini-pro":   "gemini-2.5-pro",
	},
}

func resolveModel(provider, name string) string {
	if id, ok := modelAliases[provider][name]; ok {
		return id
	}
	return name
}
