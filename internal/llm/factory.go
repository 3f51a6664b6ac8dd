package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/abhisek/ailp/internal/logger"
)

// NewProvider builds the configured provider. Calls pass through timeout,
// then retry, then logging, so every attempt is recorded. It returns
// (nil, nil) when LLM features are disabled.
func NewProvider(ctx context.Context, cfg Config, recorder EventRecorder, log *logger.Logger) (Provider, error) {
	if !cfg.Enabled() {
		return nil, nil
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var (
		base Provider
		err  error
	)
	switch cfg.Provider {
	case "mock":
		return NewMockProvider(), nil
	case "anthropic":
		base, err = NewAnthropicProvider(cfg.Anthropic)
	case "openai":
		base, err = NewOpenAIProvider(cfg.OpenAI)
	case "openrouter":
		base, err = NewOpenRouterProvider(cfg.OpenRouter)
	case "gemini":
		base, err = NewGeminiProvider(ctx, cfg.Gemini)
	}
	if err != nil {
		return nil, err
	}
	if base == nil {
		return nil, fmt.Errorf("unknown LLM provider: %q", cfg.Provider)
	}

	return WithTimeout(WithRetry(WithLogging(base, recorder, log), cfg.Retry), cfg.Timeout), nil
}

type timeoutProvider struct {
	inner   Provider
	timeout time.Duration
}

// WithTimeout bounds each Generate call by d. A non-positive d leaves p
// unchanged.
func WithTimeout(p Provider, d time.Duration) Provider {
	if d <= 0 {
		return p
	}
	return &timeoutProvider{inner: p, timeout: d}
}

func (t *timeoutProvider) ModelID() string      { return t.inner.ModelID() }
func (t *timeoutProvider) ProviderName() string { return t.inner.ProviderName() }

func (t *timeoutProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.inner.Generate(ctx, req)
}
