package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tmasselin/fuelwatch/internal/api"
	"github.com/tmasselin/fuelwatch/internal/clock/system"
	"github.com/tmasselin/fuelwatch/internal/config"
	"github.com/tmasselin/fuelwatch/internal/metrics"
	"github.com/tmasselin/fuelwatch/internal/store"
)

const shutdownGrace = 10 * time.Second

// newServeCmd creates the 'serve' subcommand: the read-only dashboard
// over the price store.
func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serves the price-history dashboard",
		Long: `Starts the HTTP view over the price store. The server is read-only;
each request re-reads the store file, so a fetch process running
alongside shows up without a restart.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck // best-effort flush
			return runServe(cmd.Context(), cfg, logger)
		},
	}
}

func runServe(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	metrics.Init()

	open := func() (api.History, error) {
		return store.New(cfg.Store, system.New(), logger)
	}
	srv := api.NewServer(open, logger)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening",
			zap.Int("port", cfg.Server.Port),
			zap.String("store", cfg.Store.Path),
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("HTTP server stopped")
	return nil
}
