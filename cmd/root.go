// Package cmd defines and implements the CLI commands for the fuelwatch
// executable.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tmasselin/fuelwatch/internal/config"
	"github.com/tmasselin/fuelwatch/internal/logging"
)

var cfgFile string

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fuelwatch",
		Short: "Tracks fuel prices for a configured set of stations.",
		Long: `fuelwatch periodically scrapes fuel prices for configured stations
from the public price-comparison site, persists readings to a flat JSON
store, and serves a small dashboard summarizing price history.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml if present)")

	cmd.AddCommand(newFetchCmd())
	cmd.AddCommand(newServeCmd())

	return cmd
}

// Execute is the main entry point. The command context is canceled on
// SIGINT/SIGTERM so both modes shut down cleanly.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// setup loads configuration and builds the logger. A missing or
// unparseable config file is fatal here, before any command logic runs.
func setup() (config.Config, *zap.Logger, error) {
	path := cfgFile
	if path == "" {
		// An adjacent config.yaml is picked up when present; otherwise
		// defaults and environment variables apply.
		if _, err := os.Stat("config.yaml"); err == nil {
			path = "config.yaml"
		}
	}

	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("init logger: %w", err)
	}

	if path != "" {
		logger.Info("Using config file", zap.String("path", path))
	} else {
		logger.Info("No config file found; using defaults and environment variables")
	}
	return cfg, logger, nil
}
