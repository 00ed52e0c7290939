package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/recipechat-server/internal/app"
	"github.com/vovakirdan/recipechat-server/internal/config"
	"github.com/vovakirdan/recipechat-server/internal/log"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		overrides  config.Config
	)

	cmd := &cobra.Command{
		Use:           "recipechat-server",
		Short:         "Recipe assistant chat backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			bootLogger := log.New("info")

			cfg, resolvedPath, err := config.Load(bootLogger, configPath)
			if err != nil {
				return err
			}
			cfg.UpdateFrom(overrides)
			// UpdateFrom skips zero values, so an explicit --dev-mode=false needs its own check.
			if cmd.Flags().Changed("dev-mode") {
				cfg.DevMode = overrides.DevMode
			}

			logger := log.New(cfg.LogLevel)
			logger.Info().Str("config", resolvedPath).Msg("configuration loaded")

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			application, err := app.New(&cfg, logger)
			if err != nil {
				return fmt.Errorf("init app: %w", err)
			}

			logger.Info().Str("addr", cfg.Addr).Msg("starting recipechat server")
			if err := application.Run(ctx); err != nil {
				return fmt.Errorf("server exited with error: %w", err)
			}
			logger.Info().Msg("server stopped")
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&configPath, "config", "", "path to config file (default: $RECIPECHAT_CONFIG_DEFAULT_PATH or ./config.yaml)")
	flags.StringVar(&overrides.Addr, "addr", "", "HTTP listen address")
	flags.StringVar(&overrides.LogLevel, "log-level", "", "log level (debug, info, warn, error)")
	flags.StringVar(&overrides.DatabasePath, "db", "", "SQLite database path")
	flags.BoolVar(&overrides.DevMode, "dev-mode", false, "accept unsigned websocket tokens (never in production)")
	flags.IntVar(&overrides.MaxConnections, "max-connections", 0, "maximum concurrent chat connections (0 = unbounded)")

	return cmd
}
