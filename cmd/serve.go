package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/abhisek/ailp/internal/app"
	"github.com/abhisek/ailp/internal/observability"
	"github.com/abhisek/ailp/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		cmd.SetContext(ctx)

		return withCapabilities(cmd, func(ctx context.Context, caps *app.Capabilities) error {
			cfg := caps.Config
			shutdown, err := observability.Init(ctx, observability.Config{
				Enabled:     cfg.OTel.Enabled,
				ServiceName: "ailp",
				Environment: cfg.Env,
				Version:     version,
				Exporter:    cfg.OTel.Exporter,
				Endpoint:    cfg.OTel.Endpoint,
				Insecure:    !cfg.Production(),
				SampleRatio: cfg.OTel.SampleRatio,
			}, caps.Log)
			if err != nil {
				return fmt.Errorf("init tracing: %w", err)
			}
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					caps.Log.Warn("tracing shutdown failed", "error", err)
				}
			}()

			if !caps.Persistent() {
				caps.Log.Warn("running without a database; accounts and learner endpoints are disabled")
			}
			return server.New(caps).Run(ctx)
		})
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (overrides http.addr)")
}
