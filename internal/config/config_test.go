// Package config_test tests configuration loading and validation.
package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tmasselin/fuelwatch/internal/config"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "prices.json", cfg.Store.Path)
	assert.Equal(t, "https://www.prix-carburants.gouv.fr/", cfg.Scraper.SiteURL)
	assert.Equal(t, 4*time.Second, cfg.Scraper.SettleWait)
	assert.Equal(t, 45*time.Second, cfg.Scraper.NavTimeout)
	assert.True(t, cfg.Logging.Development)
	assert.Empty(t, cfg.Stations)
}

func TestLoadStations(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9100
store:
  path: /tmp/prices.json
  location: Courbevoie
stations:
  "92400":
    - name: "RELAIS DE COURBEVOIE | TotalEnergies"
      fuel: SP98
    - name: "AVIA COURBEVOIE CENTRE"
  "92000":
    - name: "ESSO NANTERRE"
      fuel: E10
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Server.Port)
	require.Len(t, cfg.Stations, 2)
	require.Len(t, cfg.Stations["92400"], 2)
	assert.Equal(t, "RELAIS DE COURBEVOIE | TotalEnergies", cfg.Stations["92400"][0].Name)
	assert.Equal(t, "SP98", cfg.Stations["92400"][0].Fuel)
	assert.Empty(t, cfg.Stations["92400"][1].Fuel, "fuel default is applied at write time, not load time")
	assert.Equal(t, "E10", cfg.Stations["92000"][0].Fuel)
}

func TestLoadErrors(t *testing.T) {
	t.Run("MissingFile", func(t *testing.T) {
		_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})

	t.Run("Unparseable", func(t *testing.T) {
		path := writeConfig(t, "stations: [not: valid: yaml")
		_, err := config.Load(path)
		assert.Error(t, err)
	})

	t.Run("StationWithoutName", func(t *testing.T) {
		path := writeConfig(t, `
stations:
  "92400":
    - fuel: SP98
`)
		_, err := config.Load(path)
		assert.ErrorContains(t, err, "name must be set")
	})

	t.Run("BadPort", func(t *testing.T) {
		path := writeConfig(t, "server:\n  port: -1\n")
		_, err := config.Load(path)
		assert.ErrorContains(t, err, "server.port")
	})
}

func TestDurationOverrides(t *testing.T) {
	path := writeConfig(t, `
scraper:
  settle_wait: 250ms
  nav_timeout: 20s
`)
	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, cfg.Scraper.SettleWait)
	assert.Equal(t, 20*time.Second, cfg.Scraper.NavTimeout)
}

func TestExtractorConfigMapping(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	ec := cfg.ExtractorConfig()
	assert.Equal(t, cfg.Scraper.SiteURL, ec.SiteURL)
	assert.Equal(t, cfg.Scraper.SettleWait, ec.SettleWait)
	assert.Equal(t, cfg.Scraper.NavTimeout, ec.NavTimeout)
}
