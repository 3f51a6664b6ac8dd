package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/abhisek/ailp/internal/llm"
	"github.com/abhisek/ailp/internal/mastery"
	"github.com/abhisek/ailp/internal/remediation"
	"github.com/abhisek/ailp/internal/roadmap"
)

// EnvPrefix prefixes every environment override, e.g. AILP_HTTP_ADDR.
const EnvPrefix = "AILP"

// Config is the resolved process configuration.
type Config struct {
	Env string

	HTTP struct {
		Addr           string
		AllowedOrigins []string
	}

	// DatabaseDSN is a SQLite path or DSN, a postgres:// URL, or "none"
	// to run without persistence.
	DatabaseDSN string

	// RedisAddr selects the redis session store when set.
	RedisAddr string

	Session struct {
		TTL    time.Duration
		Cookie string
		Secure bool
	}

	// CatalogPath is a YAML catalog file. Empty uses the embedded catalog.
	CatalogPath string

	OTel struct {
		Enabled     bool
		Exporter    string // "stdout" or "otlp"
		Endpoint    string
		SampleRatio float64
	}

	Thresholds       roadmap.Thresholds
	LegacyCompletion bool
	Remediation      remediation.Policy

	LLM llm.Config
}

// Persistent reports whether a database is configured.
func (c *Config) Persistent() bool {
	return c.DatabaseDSN != "" && c.DatabaseDSN != "none"
}

// Production reports whether the process runs in production mode.
func (c *Config) Production() bool {
	return c.Env == "prod" || c.Env == "production"
}

func setDefaults(v *viper.Viper) {
	th := roadmap.DefaultThresholds()
	pol := remediation.DefaultPolicy()
	lc := llm.DefaultConfig()

	v.SetDefault("env", "dev")
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("database.dsn", "ailp.db")
	v.SetDefault("redis.addr", "")
	v.SetDefault("session.ttl", 30*24*time.Hour)
	v.SetDefault("session.cookie", "ailp_session")
	v.SetDefault("session.secure", false)
	v.SetDefault("catalog.path", "")

	v.SetDefault("otel.enabled", false)
	v.SetDefault("otel.exporter", "stdout")
	v.SetDefault("otel.endpoint", "")
	v.SetDefault("otel.sample_ratio", 1.0)

	v.SetDefault("thresholds.unlock_confidence", th.UnlockConfidence)
	v.SetDefault("thresholds.blocking_confidence", th.BlockingConfidence)
	v.SetDefault("thresholds.in_progress_confidence", th.InProgressConfidence)
	v.SetDefault("thresholds.mastery_ratio", mastery.DefaultMasteryRatio)
	v.SetDefault("roadmap.legacy_completion", false)

	v.SetDefault("remediation.severity_threshold", pol.SeverityThreshold)
	v.SetDefault("remediation.score_threshold", pol.ScoreThreshold)
	v.SetDefault("remediation.hard_score_threshold", pol.HardScoreThreshold)
	v.SetDefault("remediation.hard_difficulty", pol.HardDifficulty)
	v.SetDefault("remediation.failing_score", pol.FailingScore)
	v.SetDefault("remediation.failing_count", pol.FailingCount)

	v.SetDefault("llm.provider", lc.Provider)
	v.SetDefault("llm.timeout", lc.Timeout)
	v.SetDefault("llm.anthropic.api_key", "")
	v.SetDefault("llm.anthropic.model", lc.Anthropic.Model)
	v.SetDefault("llm.openai.api_key", "")
	v.SetDefault("llm.openai.model", lc.OpenAI.Model)
	v.SetDefault("llm.openai.base_url", "")
	v.SetDefault("llm.gemini.api_key", "")
	v.SetDefault("llm.gemini.model", lc.Gemini.Model)
	v.SetDefault("llm.openrouter.api_key", "")
	v.SetDefault("llm.openrouter.model", lc.OpenRouter.Model)
	v.SetDefault("llm.openrouter.base_url", "")
	v.SetDefault("llm.retry.max_attempts", lc.Retry.MaxAttempts)
}

// Load resolves configuration from defaults, an optional .env file in the
// working directory, an optional YAML file at path and AILP_* environment
// variables, in increasing precedence.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	c := &Config{
		Env:              strings.ToLower(v.GetString("env")),
		DatabaseDSN:      strings.TrimSpace(v.GetString("database.dsn")),
		RedisAddr:        strings.TrimSpace(v.GetString("redis.addr")),
		CatalogPath:      v.GetString("catalog.path"),
		LegacyCompletion: v.GetBool("roadmap.legacy_completion"),
	}
	c.HTTP.Addr = v.GetString("http.addr")
	c.HTTP.AllowedOrigins = splitList(v.GetStringSlice("http.allowed_origins"))
	c.Session.TTL = v.GetDuration("session.ttl")
	c.Session.Cookie = v.GetString("session.cookie")
	c.Session.Secure = v.GetBool("session.secure")

	c.OTel.Enabled = v.GetBool("otel.enabled")
	c.OTel.Exporter = v.GetString("otel.exporter")
	c.OTel.Endpoint = v.GetString("otel.endpoint")
	c.OTel.SampleRatio = v.GetFloat64("otel.sample_ratio")

	c.Thresholds = roadmap.Thresholds{
		UnlockConfidence:     v.GetFloat64("thresholds.unlock_confidence"),
		BlockingConfidence:   v.GetFloat64("thresholds.blocking_confidence"),
		InProgressConfidence: v.GetFloat64("thresholds.in_progress_confidence"),
		MasteryRatio:         v.GetFloat64("thresholds.mastery_ratio"),
	}
	c.Remediation = remediation.Policy{
		SeverityThreshold:  v.GetFloat64("remediation.severity_threshold"),
		ScoreThreshold:     v.GetFloat64("remediation.score_threshold"),
		HardScoreThreshold: v.GetFloat64("remediation.hard_score_threshold"),
		HardDifficulty:     v.GetInt("remediation.hard_difficulty"),
		FailingScore:       v.GetFloat64("remediation.failing_score"),
		FailingCount:       v.GetInt("remediation.failing_count"),
	}

	c.LLM = llmConfig(v)
	return c, c.Validate()
}

func llmConfig(v *viper.Viper) llm.Config {
	provider := strings.ToLower(v.GetString("llm.provider"))
	if provider == "auto" {
		if cfg, ok := llm.DiscoverConfig(); ok {
			cfg.Timeout = v.GetDuration("llm.timeout")
			return cfg
		}
		provider = "none"
	}

	cfg := llm.DefaultConfig()
	cfg.Provider = provider
	cfg.Timeout = v.GetDuration("llm.timeout")
	cfg.Anthropic.APIKey = v.GetString("llm.anthropic.api_key")
	cfg.Anthropic.Model = v.GetString("llm.anthropic.model")
	cfg.OpenAI.APIKey = v.GetString("llm.openai.api_key")
	cfg.OpenAI.Model = v.GetString("llm.openai.model")
	cfg.OpenAI.BaseURL = v.GetString("llm.openai.base_url")
	cfg.Gemini.APIKey = v.GetString("llm.gemini.api_key")
	cfg.Gemini.Model = v.GetString("llm.gemini.model")
	cfg.OpenRouter.APIKey = v.GetString("llm.openrouter.api_key")
	cfg.OpenRouter.Model = v.GetString("llm.openrouter.model")
	cfg.OpenRouter.BaseURL = v.GetString("llm.openrouter.base_url")
	cfg.Retry.MaxAttempts = v.GetInt("llm.retry.max_attempts")
	return cfg
}

// Validate checks ranges and the LLM provider selection.
func (c *Config) Validate() error {
	if err := c.Thresholds.Validate(); err != nil {
		return err
	}
	if err := c.Remediation.Validate(); err != nil {
		return err
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("session.ttl must be positive, got %s", c.Session.TTL)
	}
	if c.OTel.SampleRatio < 0 || c.OTel.SampleRatio > 1 {
		return fmt.Errorf("otel.sample_ratio must be in [0, 1], got %v", c.OTel.SampleRatio)
	}
	switch c.OTel.Exporter {
	case "stdout", "otlp":
	default:
		return fmt.Errorf("otel.exporter must be stdout or otlp, got %q", c.OTel.Exporter)
	}
	if c.CatalogPath != "" {
		if _, err := os.Stat(c.CatalogPath); err != nil {
			return fmt.Errorf("catalog.path: %w", err)
		}
	}
	return c.LLM.Validate()
}

// splitList accepts both YAML lists and comma-separated environment values.
func splitList(in []string) []string {
	var out []string
	for _, s := range in {
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
