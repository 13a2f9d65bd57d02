package cmd

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/tmasselin/fuelwatch/internal/config"
)

// emptyFetchConfig is a minimal config with no stations and no site URL,
// so runFetch completes without launching a browser.
func emptyFetchConfig(t *testing.T) config.Config {
	t.Helper()
	var cfg config.Config
	cfg.Store.Path = filepath.Join(t.TempDir(), "prices.json")
	return cfg
}

func TestRunFetchRegistersCollectors(t *testing.T) {
	require.NoError(t, runFetch(context.Background(), emptyFetchConfig(t), zap.NewNop()))

	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)

	names := make(map[string]bool, len(families))
	for _, mf := range families {
		names[mf.GetName()] = true
	}
	assert.True(t, names["fuelwatch_store_entries"],
		"fetch mode must register collectors before the batch runs")
	assert.True(t, names["fuelwatch_extract_duration_seconds"])
}

func TestRunFetchWarnsOnEmptyStations(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	logger := zap.New(core)

	require.NoError(t, runFetch(context.Background(), emptyFetchConfig(t), logger))

	warned := false
	for _, entry := range logs.All() {
		if entry.Message == "No stations configured; nothing to fetch" {
			warned = true
		}
	}
	assert.True(t, warned, "empty station map must be called out")
}
