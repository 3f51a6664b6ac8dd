package llm

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"
)

type geminiBackend struct {
	client *genai.Client
}

// NewGeminiProvider returns a Client for the Gemini API.
func NewGeminiProvider(ctx context.Context, ep Endpoint) (*Client, error) {
	if ep.APIKey == "" {
		return nil, errors.New("gemini: API key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: ep.APIKey, Backend: genai.BackendGeminiAPI})
	if err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}
	return newClient("gemini", ep.Model, &geminiBackend{client: client}), nil
}

func (b *geminiBackend) complete(ctx context.Context, model string, req Request) (completion, error) {
	cfg := &genai.GenerateContentConfig{MaxOutputTokens: int32(req.MaxTokens)}
	if req.Temperature > 0 {
		t := float32(req.Temperature)
		cfg.Temperature = &t
	}
	if req.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if req.Schema != nil {
		cfg.ResponseMIMEType = "application/json"
		cfg.ResponseSchema = toGeminiSchema(req.Schema.Definition)
	}

	contents := make([]*genai.Content, 0, len(req.Messages))
	for _, m := range req.Messages {
		role := genai.Role(genai.RoleUser)
		if m.Role == RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Content, role))
	}

	result, err := b.client.Models.GenerateContent(ctx, model, contents, cfg)
	if err != nil {
		return completion{}, geminiError(err)
	}

	out := completion{text: result.Text(), model: result.ModelVersion}
	if len(result.Candidates) > 0 {
		out.truncated = result.Candidates[0].FinishReason == genai.FinishReasonMaxTokens
	}
	if u := result.UsageMetadata; u != nil {
		out.usage = Usage{
			InputTokens:  int(u.PromptTokenCount),
			OutputTokens: int(u.CandidatesTokenCount),
			TotalTokens:  int(u.TotalTokenCount),
		}
	}
	if out.text == "" {
		return completion{}, &Error{Kind: KindInvalidResponse, Provider: "gemini", Err: errors.New("reply has no text")}
	}
	return out, nil
}

func geminiError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return fromStatus("gemini", apiErr.Code, err)
	}
	return err
}

var geminiTypes = map[string]genai.Type{
	"string":  genai.TypeString,
	"number":  genai.TypeNumber,
	"integer": genai.TypeInteger,
	"boolean": genai.TypeBoolean,
	"array":   genai.TypeArray,
	"object":  genai.TypeObject,
}

// toGeminiSchema converts the subset of JSON Schema our definitions use.
// Gemini has no additionalProperties, so open maps degrade to an object
// with no declared properties.
func toGeminiSchema(def map[string]any) *genai.Schema {
	s := &genai.Schema{Type: genai.TypeString}
	if t, ok := def["type"].(string); ok {
		if gt, ok := geminiTypes[t]; ok {
			s.Type = gt
		}
	}
	s.Description, _ = def["description"].(string)
	if v, ok := number(def["minimum"]); ok {
		s.Minimum = &v
	}
	if v, ok := number(def["maximum"]); ok {
		s.Maximum = &v
	}

	if props, ok := def["properties"].(map[string]any); ok {
		s.Properties = make(map[string]*genai.Schema, len(props))
		for name, p := range props {
			if pd, ok := p.(map[string]any); ok {
				s.Properties[name] = toGeminiSchema(pd)
			}
		}
	}
	if items, ok := def["items"].(map[string]any); ok {
		s.Items = toGeminiSchema(items)
	}
	s.Required = stringList(def["required"])
	s.Enum = stringList(def["enum"])
	return s
}

// stringList accepts both []string and []any, since definitions are written
// by hand as Go literals.
func stringList(v any) []string {
	switch vs := v.(type) {
	case []string:
		return vs
	case []any:
		out := make([]string, 0, len(vs))
		for _, x := range vs {
			if s, ok := x.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	}
	return 0, false
}
