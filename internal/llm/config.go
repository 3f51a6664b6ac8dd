package llm

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Config selects and configures the LLM provider.
type Config struct {
	// Provider is "anthropic", "openai", "gemini", "openrouter" or "mock".
	// Empty or "none" disables LLM features.
	Provider string

	Anthropic  Endpoint
	OpenAI     Endpoint
	Gemini     Endpoint
	OpenRouter Endpoint

	Retry RetryConfig

	// Timeout bounds one Generate call including retries.
	Timeout time.Duration
}

// Endpoint is the connection detail of one hosted API.
type Endpoint struct {
	APIKey  string
	Model   string
	BaseURL string // optional
}

// RetryConfig is the backoff schedule for transient failures.
type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64
}

// hosted lists the key-based providers in discovery order, with the
// standard environment variable each SDK documents.
var hosted = []struct {
	name   string
	keyEnv string
	get    func(*Config) *Endpoint
}{
	{"gemini", "GEMINI_API_KEY", func(c *Config) *Endpoint { return &c.Gemini }},
	{"openai", "OPENAI_API_KEY", func(c *Config) *Endpoint { return &c.OpenAI }},
	{"anthropic", "ANTHROPIC_API_KEY", func(c *Config) *Endpoint { return &c.Anthropic }},
	{"openrouter", "OPENROUTER_API_KEY", func(c *Config) *Endpoint { return &c.OpenRouter }},
}

// DefaultConfig has LLM features disabled and a cheap model per provider.
func DefaultConfig() Config {
	return Config{
		Provider:   "none",
		Anthropic:  Endpoint{Model: "claude-haiku"},
		OpenAI:     Endpoint{Model: "gpt-mini"},
		Gemini:     Endpoint{Model: "gemini-flash"},
		OpenRouter: Endpoint{Model: "google/gemini-2.0-flash-exp"},
		Retry: RetryConfig{
			MaxAttempts: 3,
			InitialWait: time.Second,
			MaxWait:     10 * time.Second,
			Multiplier:  2,
		},
		Timeout: 30 * time.Second,
	}
}

// DiscoverConfig picks the first provider whose standard API key variable
// is set. It reports false when none is.
func DiscoverConfig() (Config, bool) {
	cfg := DefaultConfig()
	for _, h := range hosted {
		if k := os.Getenv(h.keyEnv); k != "" {
			cfg.Provider = h.name
			h.get(&cfg).APIKey = k
			return cfg, true
		}
	}
	return Config{}, false
}

// Enabled reports whether a provider is selected.
func (c Config) Enabled() bool {
	return c.Provider != "" && c.Provider != "none"
}

// Endpoint returns the settings of the selected hosted provider.
func (c *Config) Endpoint() (Endpoint, bool) {
	for _, h := range hosted {
		if h.name == c.Provider {
			return *h.get(c), true
		}
	}
	return Endpoint{}, false
}

// Validate checks the provider name and that hosted providers have a key.
func (c Config) Validate() error {
	switch c.Provider {
	case "", "none", "mock":
		return nil
	}
	ep, ok := c.Endpoint()
	if !ok {
		return fmt.Errorf("unknown LLM provider: %q", c.Provider)
	}
	if ep.APIKey == "" {
		return fmt.Errorf("AILP_LLM_%s_API_KEY is required for the %s provider", strings.ToUpper(c.Provider), c.Provider)
	}
	return nil
}
