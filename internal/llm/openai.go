package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

const defaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"

// openaiBackend speaks the Chat Completions API, which OpenRouter and most
// self-hosted gateways also implement.
type openaiBackend struct {
	name   string
	client *openai.Client
}

// NewOpenAIProvider returns a Client for OpenAI or any compatible API at
// ep.BaseURL.
func NewOpenAIProvider(ep Endpoint) (*Client, error) {
	return newChatCompletions("openai", ep, "")
}

// NewOpenRouterProvider returns a Client for OpenRouter. Model IDs are
// vendor-qualified, e.g. "google/gemini-2.0-flash-exp".
func NewOpenRouterProvider(ep Endpoint) (*Client, error) {
	return newChatCompletions("openrouter", ep, defaultOpenRouterBaseURL)
}

func newChatCompletions(name string, ep Endpoint, defaultBaseURL string) (*Client, error) {
	if ep.APIKey == "" {
		return nil, fmt.Errorf("%s: API key is required", name)
	}
	cfg := openai.DefaultConfig(ep.APIKey)
	switch {
	case ep.BaseURL != "":
		cfg.BaseURL = ep.BaseURL
	case defaultBaseURL != "":
		cfg.BaseURL = defaultBaseURL
	}
	b := &openaiBackend{name: name, client: openai.NewClientWithConfig(cfg)}
	return newClient(name, ep.Model, b), nil
}

func (b *openaiBackend) complete(ctx context.Context, model string, req Request) (completion, error) {
	chat := openai.ChatCompletionRequest{
		Model:               model,
		MaxCompletionTokens: req.MaxTokens,
		Temperature:         float32(req.Temperature),
	}
	if req.System != "" {
		chat.Messages = append(chat.Messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	for _, m := range req.Messages {
		role := openai.ChatMessageRoleUser
		if m.Role == RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		chat.Messages = append(chat.Messages, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}
	if req.Schema != nil {
		def, err := json.Marshal(req.Schema.Definition)
		if err != nil {
			return completion{}, fmt.Errorf("encode schema %s: %w", req.Schema.Name, err)
		}
		chat.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:        req.Schema.Name,
				Description: req.Schema.Description,
				Schema:      json.RawMessage(def),
				Strict:      true,
			},
		}
	}

	resp, err := b.client.CreateChatCompletion(ctx, chat)
	if err != nil {
		return completion{}, b.classify(err)
	}
	if len(resp.Choices) == 0 {
		return completion{}, &Error{Kind: KindInvalidResponse, Provider: b.name, Err: errors.New("reply has no choices")}
	}

	choice := resp.Choices[0]
	return completion{
		text:  choice.Message.Content,
		model: resp.Model,
		usage: Usage{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
			TotalTokens:  resp.Usage.TotalTokens,
		},
		truncated: choice.FinishReason == openai.FinishReasonLength,
	}, nil
}

func (b *openaiBackend) classify(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fromStatus(b.name, apiErr.HTTPStatusCode, err)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return fromStatus(b.name, reqErr.HTTPStatusCode, err)
	}
	return err
}
