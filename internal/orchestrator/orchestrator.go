// Package orchestrator iterates the configured stations and commits
// successfully extracted prices to the store.
package orchestrator

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/tmasselin/fuelwatch/internal/metrics"
	"github.com/tmasselin/fuelwatch/internal/store"
)

// Station is one tracked station within a postal code.
type Station struct {
	Name string `mapstructure:"name" json:"name"`
	Fuel string `mapstructure:"fuel" json:"fuel"`
}

// Extractor produces a validated price for one station or an error. Any
// error is treated as an absent result.
type Extractor interface {
	Extract(ctx context.Context, postal, station string) (float64, error)
}

// Recorder commits accepted prices to the history.
type Recorder interface {
	AddPrice(price float64, postal, station, fuel string) store.PriceEntry
	Len() int
}

// Orchestrator runs one sequential fetch batch over the configured
// (postal code, station) pairs. Stations fail independently: a single
// failed extraction never aborts the batch.
type Orchestrator struct {
	stations  map[string][]Station
	extractor Extractor
	recorder  Recorder
	limiter   *rate.Limiter
	logger    *zap.Logger
}

// New builds an orchestrator. The limiter paces successive browser
// sessions toward the target site and may be nil.
func New(
	stations map[string][]Station,
	extractor Extractor,
	recorder Recorder,
	limiter *rate.Limiter,
	logger *zap.Logger,
) *Orchestrator {
	return &Orchestrator{
		stations:  stations,
		extractor: extractor,
		recorder:  recorder,
		limiter:   limiter,
		logger:    logger,
	}
}

// Run fetches every configured station once and returns how many were
// updated out of how many were configured. The batch stops early only on
// context cancellation; total always counts the full configuration.
func (o *Orchestrator) Run(ctx context.Context) (updated, total int) {
	postals := make([]string, 0, len(o.stations))
	for postal, sts := range o.stations {
		postals = append(postals, postal)
		total += len(sts)
	}
	sort.Strings(postals)

	for _, postal := range postals {
		o.logger.Info("Fetching prices for postal code", zap.String("postal", postal))
		for _, st := range o.stations[postal] {
			if err := o.wait(ctx); err != nil {
				o.logger.Warn("Batch canceled", zap.Error(err))
				return updated, total
			}
			if o.fetchStation(ctx, postal, st) {
				updated++
			}
		}
	}

	metrics.SetStoreEntries(o.recorder.Len())
	o.logger.Info("Fetch complete",
		zap.Int("updated", updated), zap.Int("configured", total))
	return updated, total
}

func (o *Orchestrator) fetchStation(ctx context.Context, postal string, st Station) bool {
	metrics.FetchAttempt(st.Name)
	start := time.Now()
	price, err := o.extractor.Extract(ctx, postal, st.Name)
	metrics.ObserveExtraction(time.Since(start))
	if err != nil {
		o.logger.Warn("Could not fetch price",
			zap.String("station", st.Name),
			zap.String("postal", postal),
			zap.Error(err),
		)
		return false
	}

	o.recorder.AddPrice(price, postal, st.Name, st.Fuel)
	metrics.FetchSuccess(st.Name)
	return true
}

func (o *Orchestrator) wait(ctx context.Context) error {
	if o.limiter == nil {
		return ctx.Err()
	}
	return o.limiter.Wait(ctx)
}
