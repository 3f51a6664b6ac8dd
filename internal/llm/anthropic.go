package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

type anthropicBackend struct {
	client anthropic.Client
}

// NewAnthropicProvider returns a Client for the Anthropic Messages API.
func NewAnthropicProvider(ep Endpoint, opts ...option.RequestOption) (*Client, error) {
	if ep.APIKey == "" {
		return nil, errors.New("anthropic: API key is required")
	}
	opts = append([]option.RequestOption{option.WithAPIKey(ep.APIKey), option.WithMaxRetries(0)}, opts...)
	if ep.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(ep.BaseURL))
	}
	return newClient("anthropic", ep.Model, &anthropicBackend{client: anthropic.NewClient(opts...)}), nil
}

func (b *anthropicBackend) complete(ctx context.Context, model string, req Request) (completion, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: int64(req.MaxTokens),
	}
	for _, m := range req.Messages {
		block := anthropic.NewTextBlock(m.Content)
		if m.Role == RoleAssistant {
			params.Messages = append(params.Messages, anthropic.NewAssistantMessage(block))
		} else {
			params.Messages = append(params.Messages, anthropic.NewUserMessage(block))
		}
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}
	if req.Temperature > 0 {
		params.Temperature = anthropic.Float(req.Temperature)
	}
	if req.Schema != nil {
		params.OutputConfig = anthropic.OutputConfigParam{
			Format: anthropic.JSONOutputFormatParam{Schema: req.Schema.Definition},
		}
	}

	msg, err := b.client.Messages.New(ctx, params)
	if err != nil {
		return completion{}, anthropicError(err)
	}

	var text strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return completion{}, &Error{
			Kind:     KindInvalidResponse,
			Provider: "anthropic",
			Err:      fmt.Errorf("reply has no text block (stop reason %q)", msg.StopReason),
		}
	}

	return completion{
		text:  text.String(),
		model: string(msg.Model),
		usage: Usage{
			InputTokens:  int(msg.Usage.InputTokens),
			OutputTokens: int(msg.Usage.OutputTokens),
		},
		truncated: msg.StopReason == anthropic.StopReasonMaxTokens,
	}, nil
}

func anthropicError(err error) error {
	var apiErr *anthropic.Error
	if !errors.As(err, &apiErr) {
		return err
	}
	e := fromStatus("anthropic", apiErr.StatusCode, err)
	if apiErr.Response != nil {
		e.RetryAfter = parseRetryAfter(apiErr.Response.Header.Get("Retry-After"))
	}
	return e
}
