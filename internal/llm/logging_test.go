package llm

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"
	"time"
)

type recorderFunc func(ctx context.Context, ev RequestEvent) error

func (f recorderFunc) AppendLLMRequest(ctx context.Context, ev RequestEvent) error { return f(ctx, ev) }

func collect(events *[]RequestEvent) EventRecorder {
	return recorderFunc(func(_ context.Context, ev RequestEvent) error {
		*events = append(*events, ev)
		return nil
	})
}

func TestWithLogging_RecordsEvent(t *testing.T) {
	c := newClient("openai", "gpt-mini", backendFunc(func(context.Context, string, Request) (completion, error) {
		return completion{
			text:  `{"score":1}`,
			model: "gpt-4o-mini-2024-07-18",
			usage: Usage{InputTokens: 1_000_000, OutputTokens: 1_000_000},
		}, nil
	}))
	var got []RequestEvent
	p := WithLogging(c, collect(&got), nil)

	ctx := WithPurpose(context.Background(), "checkpoint-analysis")
	req := Request{System: "sys", Messages: []Message{{Role: RoleUser, Content: "hi"}}, Schema: answerSchema}
	if _, err := p.Generate(ctx, req); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("recorded %d events, want 1", len(got))
	}
	ev := got[0]
	if ev.Provider != "openai" || ev.Model != "gpt-4o-mini-2024-07-18" || ev.Purpose != "checkpoint-analysis" || !ev.Success {
		t.Errorf("event = %+v", ev)
	}
	if math.Abs(ev.CostUSD-0.75) > 1e-9 {
		t.Errorf("cost = %v, want 0.75", ev.CostUSD)
	}
	for _, want := range []string{"[system]\nsys", "[user]\nhi", "[schema: test-answer]"} {
		if !strings.Contains(ev.RequestBody, want) {
			t.Errorf("request body missing %q:\n%s", want, ev.RequestBody)
		}
	}
	if ev.ResponseBody != `{"score":1}` {
		t.Errorf("response body = %q", ev.ResponseBody)
	}
}

func TestWithLogging_RecordsFailure(t *testing.T) {
	var got []RequestEvent
	p := WithLogging(NewMockProvider(MockResponse{Err: errors.New("boom")}), collect(&got), nil)
	if _, err := p.Generate(context.Background(), Request{}); err == nil {
		t.Fatal("expected error")
	}
	if len(got) != 1 || got[0].Success || got[0].ErrorMessage != "boom" || got[0].Purpose != "unknown" || got[0].Provider != "mock" {
		t.Errorf("events = %+v", got)
	}
}

func TestWithLogging_RecorderFailureIsIgnored(t *testing.T) {
	p := WithLogging(NewMockProvider(MockResponse{Content: json.RawMessage(`{}`)}), recorderFunc(func(context.Context, RequestEvent) error {
		return errors.New("disk full")
	}), nil)
	if _, err := p.Generate(context.Background(), Request{}); err != nil {
		t.Fatalf("Generate: %v", err)
	}
}

func TestTranscript(t *testing.T) {
	got := transcript(Request{
		System:   "be brief",
		Messages: []Message{{Role: RoleUser, Content: "q"}, {Role: RoleAssistant, Content: "a"}},
	})
	want := "[system]\nbe brief\n\n[user]\nq\n\n[assistant]\na\n"
	if got != want {
		t.Errorf("transcript = %q, want %q", got, want)
	}
}

type blockingProvider struct{ *MockProvider }

func (blockingProvider) Generate(ctx context.Context, _ Request) (*Response, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestWithTimeout(t *testing.T) {
	p := WithTimeout(blockingProvider{NewMockProvider()}, 5*time.Millisecond)
	if _, err := p.Generate(context.Background(), Request{}); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want deadline exceeded", err)
	}
	mock := NewMockProvider()
	if WithTimeout(mock, 0) != Provider(mock) {
		t.Error("zero timeout should return the provider unchanged")
	}
}

func TestNewProvider(t *testing.T) {
	for _, name := range []string{"", "none"} {
		p, err := NewProvider(context.Background(), Config{Provider: name}, nil, nil)
		if err != nil || p != nil {
			t.Errorf("NewProvider(%q) = %v, %v; want nil, nil", name, p, err)
		}
	}

	if _, err := NewProvider(context.Background(), Config{Provider: "openrouter"}, nil, nil); err == nil {
		t.Error("expected an error for a provider without its key")
	}

	p, err := NewProvider(context.Background(), Config{Provider: "mock"}, nil, nil)
	if err != nil || p.ProviderName() != "mock" {
		t.Fatalf("mock = %v, %v", p, err)
	}

	cfg := DefaultConfig()
	cfg.Provider = "openai"
	cfg.OpenAI.APIKey = "sk-test"
	p, err = NewProvider(context.Background(), cfg, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if p.ProviderName() != "openai" || p.ModelID() != "gpt-4o-mini" {
		t.Errorf("decorated provider = %s/%s", p.ProviderName(), p.ModelID())
	}
}
