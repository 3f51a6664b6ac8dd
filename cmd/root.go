package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/ailp/internal/app"
	"github.com/abhisek/ailp/internal/config"
	"github.com/abhisek/ailp/internal/logger"
	"github.com/abhisek/ailp/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "ailp",
	Short: "Adaptive learning roadmap engine",
	Long: "ailp serves a knowledge-graph learning roadmap: concept gating, completion,\n" +
		"placement assessment and weak-point remediation over HTTP, plus tools to\n" +
		"inspect the catalog, learner roadmaps and LLM usage.",
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().String("db", "", "Database DSN (overrides AILP_DATABASE_DSN)")
	rootCmd.PersistentFlags().String("log-mode", "", "Logger mode: dev or prod (defaults to env)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(conceptCmd)
	rootCmd.AddCommand(roadmapCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig resolves configuration, applying the --db flag last.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if dsn, _ := cmd.Flags().GetString("db"); dsn != "" {
		cfg.DatabaseDSN = dsn
	}
	if f := cmd.Flags().Lookup("addr"); f != nil && f.Changed {
		cfg.HTTP.Addr = f.Value.String()
	}
	return cfg, nil
}

func newLogger(cmd *cobra.Command, cfg *config.Config) (*logger.Logger, error) {
	mode, _ := cmd.Flags().GetString("log-mode")
	if mode == "" {
		mode = cfg.Env
	}
	return logger.New(mode)
}

// withCapabilities loads config, builds capabilities and hands them to fn,
// closing everything afterwards.
func withCapabilities(cmd *cobra.Command, fn func(ctx context.Context, caps *app.Capabilities) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log, err := newLogger(cmd, cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	caps, err := app.Build(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer caps.Close()
	return fn(ctx, caps)
}

// withStore opens only the database, for commands that inspect stored data.
func withStore(cmd *cobra.Command, fn func(ctx context.Context, s *store.Store) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if !cfg.Persistent() {
		return errNoDatabase
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	s, err := store.Open(ctx, cfg.DatabaseDSN)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer s.Close()
	return fn(ctx, s)
}

var errNoDatabase = errors.New("this command needs a database; set --db or AILP_DATABASE_DSN")
