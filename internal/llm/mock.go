package llm

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
)

// MockResponse is one scripted reply. A non-nil Err is returned instead of
// content.
type MockResponse struct {
	Content json.RawMessage
	Usage   Usage
	Err     error
}

// MockProvider replays scripted responses in order and records requests.
// Once the script runs out every call fails as unavailable, which makes the
// zero value a provider that always falls back to heuristics.
type MockProvider struct {
	mu     sync.Mutex
	script []MockResponse
	Calls  []Request
}

var errScriptExhausted = errors.New("no scripted response left")

// NewMockProvider returns a MockProvider that replays responses.
func NewMockProvider(responses ...MockResponse) *MockProvider {
	return &MockProvider{script: responses}
}

func (m *MockProvider) ModelID() string      { return "mock" }
func (m *MockProvider) ProviderName() string { return "mock" }

func (m *MockProvider) Generate(_ context.Context, req Request) (*Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, req)
	if len(m.script) == 0 {
		return nil, &Error{Kind: KindUnavailable, Provider: "mock", Err: errScriptExhausted}
	}
	next := m.script[0]
	m.script = m.script[1:]
	if next.Err != nil {
		return nil, next.Err
	}

	usage := next.Usage
	if usage.TotalTokens == 0 {
		usage.TotalTokens = usage.InputTokens + usage.OutputTokens
	}
	return &Response{Content: next.Content, Usage: usage, Model: "mock", StopReason: stopEnd}, nil
}

// Enqueue appends scripted responses.
func (m *MockProvider) Enqueue(responses ...MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = append(m.script, responses...)
}

// CallCount returns how many requests were made.
func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}
