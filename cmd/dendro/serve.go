package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/chriscorrea/dendro/internal/config"
	"github.com/chriscorrea/dendro/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve clustering runs over HTTP",
	Long: `Serve starts an HTTP server. POST /api/runs accepts {"text", "mode", "options"}
and answers with the resulting tree; clients sending "Accept: text/event-stream"
receive progress events as the run advances.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return fmt.Errorf("configuration error: %w", err)
		}
		if cmd.Flags().Changed("addr") {
			cfg.Addr, _ = cmd.Flags().GetString("addr")
		}
		if cmd.Flags().Changed("log-level") {
			cfg.LogLevel, _ = cmd.Flags().GetString("log-level")
		}

		handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: config.ParseLevel(cfg.LogLevel)})
		slog.SetDefault(slog.New(handler))

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return server.New(cfg).ListenAndServe(ctx, cfg.Addr)
	},
}

func init() {
	serveCmd.Flags().String("addr", config.DefaultAddr, "Listen address (overrides $DENDRO_ADDR)")
	serveCmd.Flags().String("log-level", config.DefaultLogLevel, "Log level: debug, info, warn or error")
	serveCmd.Flags().String("config", "", "Config file (default $DENDRO_CONFIG or dendro.yaml)")
}
