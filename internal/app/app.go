// Package app resolves the process's capabilities once at startup.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/abhisek/ailp/internal/assessment"
	"github.com/abhisek/ailp/internal/auth"
	"github.com/abhisek/ailp/internal/conceptgraph"
	"github.com/abhisek/ailp/internal/config"
	"github.com/abhisek/ailp/internal/learner"
	"github.com/abhisek/ailp/internal/llm"
	"github.com/abhisek/ailp/internal/logger"
	"github.com/abhisek/ailp/internal/remediation"
	"github.com/abhisek/ailp/internal/roadmap"
	"github.com/abhisek/ailp/internal/store"
)

// Capabilities is everything a request handler or command may use. Optional
// collaborators are nil when their backing service is not configured, and
// callers check for that explicitly.
type Capabilities struct {
	Config *config.Config
	Log    *logger.Logger

	Graph  *conceptgraph.Graph
	Engine *roadmap.Engine
	Policy remediation.Policy

	// Analyzer and Detector work without a learner and back the
	// stateless endpoints.
	Analyzer *assessment.Analyzer
	Detector *remediation.Detector

	// LLM is nil when no provider is configured.
	LLM llm.Provider

	// Store, Sessions, Auth and Learner are nil when running without a
	// database.
	Store    *store.Store
	Sessions auth.SessionStore
	Auth     *auth.Service
	Learner  *learner.Service

	closers []func() error
}

// Build resolves capabilities from cfg. The caller must Close the result.
func Build(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Capabilities, error) {
	if log == nil {
		log = logger.Nop()
	}
	c := &Capabilities{Config: cfg, Log: log, Policy: cfg.Remediation}

	g, err := LoadCatalog(cfg.CatalogPath)
	if err != nil {
		return nil, err
	}
	c.Graph = g
	c.Engine = roadmap.New(g,
		roadmap.WithThresholds(cfg.Thresholds),
		roadmap.WithLegacyCompletion(cfg.LegacyCompletion),
	)

	if cfg.Persistent() {
		st, err := store.Open(ctx, cfg.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("open store: %w", err)
		}
		c.Store = st
		c.closers = append(c.closers, st.Close)
	}

	var recorder llm.EventRecorder
	if c.Store != nil {
		recorder = c.Store.Events()
	}
	provider, err := llm.NewProvider(ctx, cfg.LLM, recorder, log)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("create llm provider: %w", err)
	}
	c.LLM = provider

	c.Analyzer = assessment.NewAnalyzer(provider, g, assessment.DefaultAnalyzerConfig())
	c.Detector = remediation.NewDetector(provider, g, remediation.DefaultDetectorConfig())

	if c.Store != nil {
		if err := c.buildAccounts(ctx); err != nil {
			c.Close()
			return nil, err
		}
		opts := learner.DefaultOptions()
		opts.Policy = cfg.Remediation
		c.Learner = learner.New(c.Store, c.Engine, provider, opts, log)
	}

	log.Info("capabilities resolved",
		"catalog", g.Subject(),
		"catalog_version", g.Version(),
		"concepts", g.Len(),
		"store", c.Store != nil,
		"redis_sessions", cfg.RedisAddr != "",
		"llm", llmName(provider),
		"legacy_completion", cfg.LegacyCompletion,
	)
	return c, nil
}

func (c *Capabilities) buildAccounts(ctx context.Context) error {
	var sessions auth.SessionStore = auth.NewSQLSessionStore(c.Store.Sessions())
	if c.Config.RedisAddr != "" {
		rs, err := auth.NewRedisSessionStore(ctx, c.Config.RedisAddr)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		c.closers = append(c.closers, rs.Close)
		sessions = rs
	}
	c.Sessions = sessions
	c.Auth = auth.NewService(c.Store.Users(), sessions, c.Config.Session.TTL, c.Log)
	return nil
}

// Persistent reports whether learner state is stored.
func (c *Capabilities) Persistent() bool {
	return c.Learner != nil
}

// Close releases every opened backend, newest first.
func (c *Capabilities) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}

// LoadCatalog reads the catalog at path, or returns the embedded Python
// catalog when path is empty.
func LoadCatalog(path string) (*conceptgraph.Graph, error) {
	if path == "" {
		return conceptgraph.Python(), nil
	}
	g, err := conceptgraph.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	return g, nil
}

func llmName(p llm.Provider) string {
	if p == nil {
		return "none"
	}
	return p.ModelID()
}
