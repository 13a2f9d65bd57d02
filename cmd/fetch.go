package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/tmasselin/fuelwatch/internal/clock/system"
	"github.com/tmasselin/fuelwatch/internal/config"
	"github.com/tmasselin/fuelwatch/internal/metrics"
	"github.com/tmasselin/fuelwatch/internal/orchestrator"
	"github.com/tmasselin/fuelwatch/internal/scraper"
	"github.com/tmasselin/fuelwatch/internal/store"
)

const probeTimeout = 10 * time.Second

// newFetchCmd creates the 'fetch' subcommand. It runs one scrape of all
// configured stations and exits, or keeps running on a cron schedule when
// --cron is given.
func newFetchCmd() *cobra.Command {
	var cronSpec string

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetches current prices for all configured stations",
		Long: `Runs the scrape batch once: for every configured (postal code,
station) pair a fresh headless browser session queries the site, and
accepted prices are merged into the store. Station failures are logged
and never abort the batch.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck // best-effort flush

			if cronSpec == "" {
				return runFetch(cmd.Context(), cfg, logger)
			}
			return runScheduled(cmd.Context(), cfg, logger, cronSpec)
		},
	}

	cmd.Flags().StringVar(&cronSpec, "cron", "",
		`cron schedule; keeps the process running and re-fetches on schedule (e.g. "0 7 * * *")`)
	return cmd
}

// runFetch executes a single batch against a fresh store snapshot.
func runFetch(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	metrics.Init()

	st, err := store.New(cfg.Store, system.New(), logger)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}

	if len(cfg.Stations) == 0 {
		logger.Warn("No stations configured; nothing to fetch")
	}

	probe := scraper.NewProbe(cfg.Scraper.UserAgent, probeTimeout, logger)
	if !probe.SiteReachable(cfg.Scraper.SiteURL) {
		logger.Warn("Site probe failed; attempting browser sessions anyway")
	}

	extractor := scraper.NewExtractor(cfg.ExtractorConfig(), logger)
	var limiter *rate.Limiter
	if cfg.Scraper.RatePerMinute > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.Scraper.RatePerMinute/60.0), 1)
	}

	orc := orchestrator.New(cfg.Stations, extractor, st, limiter, logger)
	updated, total := orc.Run(ctx)
	logger.Info("Fetch finished",
		zap.Int("updated", updated), zap.Int("configured", total))
	return nil
}

// runScheduled re-runs the batch on a cron schedule until the context is
// canceled.
func runScheduled(ctx context.Context, cfg config.Config, logger *zap.Logger, spec string) error {
	c := cron.New()
	if _, err := c.AddFunc(spec, func() {
		if err := runFetch(ctx, cfg, logger); err != nil {
			logger.Warn("Scheduled fetch failed", zap.Error(err))
		}
	}); err != nil {
		return fmt.Errorf("parse cron spec %q: %w", spec, err)
	}

	c.Start()
	logger.Info("Scheduled fetch started", zap.String("spec", spec))
	<-ctx.Done()

	stopped := c.Stop()
	<-stopped.Done()
	logger.Info("Scheduled fetch stopped")
	return nil
}
