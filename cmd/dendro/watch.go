package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/chriscorrea/dendro/internal/app"
	"github.com/chriscorrea/dendro/internal/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch FILE -o OUT",
	Short: "Re-cluster FILE every time it changes",
	Long: `Watch runs once, then re-runs whenever FILE is saved and rewrites OUT.
Every run starts from scratch; nothing carries over between runs.`,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		debug, _ := cmd.Flags().GetBool("debug")
		setupLogger(debug)

		if out, _ := cmd.Flags().GetString("output"); out == "" {
			return fmt.Errorf("watch requires --output")
		}

		cfg, err := loadConfig(cmd)
		if err != nil {
			return fmt.Errorf("configuration error: %w", err)
		}
		appCfg, err := buildConfig(cmd, args, cfg)
		if err != nil {
			return fmt.Errorf("configuration error: %w", err)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		rerun := func(ctx context.Context) {
			result, err := app.Run(ctx, appCfg)
			if err != nil {
				// keep watching; the next save may fix the input
				slog.Error("Run failed", "file", args[0], "error", err)
				fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
				return
			}
			if err := writeOutput(cmd, result); err != nil {
				slog.Error("Write failed", "error", err)
				return
			}
			if !appCfg.Quiet {
				fmt.Fprintf(cmd.ErrOrStderr(), "Updated %s\n", cmd.Flag("output").Value.String())
			}
		}

		rerun(ctx)
		return watch.New(args[0], rerun).Run(ctx)
	},
}

func init() {
	addRunFlags(watchCmd)
}
