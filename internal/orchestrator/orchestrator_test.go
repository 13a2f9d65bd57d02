// Package orchestrator_test tests the fetch batch loop.
package orchestrator_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tmasselin/fuelwatch/internal/orchestrator"
	"github.com/tmasselin/fuelwatch/internal/store"
)

// stubExtractor returns scripted prices per station name.
type stubExtractor struct {
	prices map[string]float64
	calls  []string
}

func (s *stubExtractor) Extract(_ context.Context, postal, station string) (float64, error) {
	s.calls = append(s.calls, postal+"/"+station)
	price, ok := s.prices[station]
	if !ok {
		return 0, errors.New("station not found in rendered page")
	}
	return price, nil
}

// memRecorder records AddPrice calls without touching disk.
type memRecorder struct {
	entries []store.PriceEntry
}

func (r *memRecorder) AddPrice(price float64, postal, station, fuel string) store.PriceEntry {
	e := store.PriceEntry{Price: price, Postal: postal, Station: station, Fuel: fuel}
	r.entries = append(r.entries, e)
	return e
}

func (r *memRecorder) Len() int { return len(r.entries) }

func TestRunCommitsSuccessesAndToleratesFailures(t *testing.T) {
	ex := &stubExtractor{prices: map[string]float64{
		"StationA": 1.899,
		"StationC": 1.755,
	}}
	rec := &memRecorder{}
	stations := map[string][]orchestrator.Station{
		"92400": {
			{Name: "StationA", Fuel: "SP98"},
			{Name: "StationB", Fuel: "SP98"}, // extractor fails for this one
		},
		"92000": {
			{Name: "StationC", Fuel: "E10"},
		},
	}

	o := orchestrator.New(stations, ex, rec, nil, zap.NewNop())
	updated, total := o.Run(context.Background())

	assert.Equal(t, 2, updated)
	assert.Equal(t, 3, total)
	require.Len(t, rec.entries, 2)

	// Postal codes are visited in sorted order.
	require.Len(t, ex.calls, 3)
	assert.Equal(t, "92000/StationC", ex.calls[0])

	for _, e := range rec.entries {
		if e.Station == "StationC" {
			assert.Equal(t, "E10", e.Fuel)
			assert.Equal(t, "92000", e.Postal)
		}
	}
}

func TestRunEmptyConfig(t *testing.T) {
	o := orchestrator.New(nil, &stubExtractor{}, &memRecorder{}, nil, zap.NewNop())
	updated, total := o.Run(context.Background())
	assert.Zero(t, updated)
	assert.Zero(t, total)
}

func TestRunStopsOnCanceledContext(t *testing.T) {
	ex := &stubExtractor{prices: map[string]float64{"StationA": 1.899}}
	rec := &memRecorder{}
	stations := map[string][]orchestrator.Station{
		"92400": {{Name: "StationA"}, {Name: "StationB"}},
		"92000": {{Name: "StationC"}},
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	o := orchestrator.New(stations, ex, rec, nil, zap.NewNop())
	updated, total := o.Run(ctx)

	assert.Zero(t, updated)
	assert.Equal(t, 3, total, "total counts the whole configuration even on early return")
	assert.Empty(t, ex.calls, "no extraction after cancellation")
}
