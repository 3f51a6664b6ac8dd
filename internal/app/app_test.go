package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/ailp/internal/auth"
	"github.com/abhisek/ailp/internal/config"
	"github.com/abhisek/ailp/internal/llm"
	"github.com/abhisek/ailp/internal/remediation"
	"github.com/abhisek/ailp/internal/roadmap"
)

func testConfig(dsn string) *config.Config {
	cfg := &config.Config{
		Env:         "dev",
		DatabaseDSN: dsn,
		Thresholds:  roadmap.DefaultThresholds(),
		Remediation: remediation.DefaultPolicy(),
		LLM:         llm.DefaultConfig(),
	}
	cfg.Session.TTL = auth.DefaultSessionTTL
	cfg.Session.Cookie = "ailp_session"
	cfg.OTel.Exporter = "stdout"
	return cfg
}

func TestBuildWithoutDatabase(t *testing.T) {
	c, err := Build(context.Background(), testConfig("none"), nil)
	require.NoError(t, err)
	defer c.Close()

	assert.Nil(t, c.Store)
	assert.Nil(t, c.Auth)
	assert.Nil(t, c.Learner)
	assert.Nil(t, c.LLM)
	assert.False(t, c.Persistent())
	assert.NotNil(t, c.Analyzer)
	assert.NotNil(t, c.Detector)
	assert.Equal(t, 12, c.Graph.Len())
}

func TestBuildWithDatabase(t *testing.T) {
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	c, err := Build(context.Background(), testConfig(dsn), nil)
	require.NoError(t, err)
	defer c.Close()

	require.NotNil(t, c.Store)
	assert.IsType(t, &auth.SQLSessionStore{}, c.Sessions)
	assert.NotNil(t, c.Auth)
	require.NotNil(t, c.Learner)
	assert.True(t, c.Persistent())

	rm, err := c.Learner.Roadmap(context.Background(), mustUser(t, c))
	require.NoError(t, err)
	assert.Equal(t, "intro", rm.Next())
}

func TestBuildWithMockLLM(t *testing.T) {
	cfg := testConfig("none")
	cfg.LLM.Provider = "mock"
	c, err := Build(context.Background(), cfg, nil)
	require.NoError(t, err)
	defer c.Close()
	assert.NotNil(t, c.LLM)
}

func TestBuildCustomCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`subject: sql
version: v1.0.0
concepts:
  - id: select
    title: SELECT
    level: beginner
    difficulty: 1
  - id: joins
    title: Joins
    level: intermediate
    difficulty: 3
    prerequisites: [select]
`), 0o600))

	cfg := testConfig("none")
	cfg.CatalogPath = path
	cfg.LegacyCompletion = true
	c, err := Build(context.Background(), cfg, nil)
	require.NoError(t, err)
	defer c.Close()

	assert.Equal(t, "sql", c.Graph.Subject())
	assert.Equal(t, 2, c.Engine.Graph().Len())
}

func TestBuildMissingCatalog(t *testing.T) {
	cfg := testConfig("none")
	cfg.CatalogPath = filepath.Join(t.TempDir(), "missing.yaml")
	_, err := Build(context.Background(), cfg, nil)
	assert.Error(t, err)
}

func mustUser(t *testing.T, c *Capabilities) string {
	t.Helper()
	u, _, err := c.Auth.Signup(context.Background(), uuid.NewString()+"@example.com", "correct horse", "Ada")
	require.NoError(t, err)
	return u.ID
}
