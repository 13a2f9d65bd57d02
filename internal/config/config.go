// Package config loads and validates tracker configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/tmasselin/fuelwatch/internal/orchestrator"
	"github.com/tmasselin/fuelwatch/internal/scraper"
	"github.com/tmasselin/fuelwatch/internal/store"
)

// Config captures all service configuration loaded via Viper.
type Config struct {
	Server   ServerConfig                      `mapstructure:"server"`
	Store    store.Config                      `mapstructure:"store"`
	Scraper  ScraperConfig                     `mapstructure:"scraper"`
	Logging  LoggingConfig                     `mapstructure:"logging"`
	Stations map[string][]orchestrator.Station `mapstructure:"stations"`
}

// ServerConfig controls the HTTP view.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// ScraperConfig governs the browser session and batch pacing.
type ScraperConfig struct {
	SiteURL       string        `mapstructure:"site_url"`
	UserAgent     string        `mapstructure:"user_agent"`
	NavTimeout    time.Duration `mapstructure:"nav_timeout"`
	SettleWait    time.Duration `mapstructure:"settle_wait"`
	InputWait     time.Duration `mapstructure:"input_wait"`
	ResultsWait   time.Duration `mapstructure:"results_wait"`
	ScrollWait    time.Duration `mapstructure:"scroll_wait"`
	RatePerMinute float64       `mapstructure:"rate_per_minute"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk and environment. An empty path falls
// back to defaults plus environment overrides; a path that cannot be read
// or parsed is a fatal configuration error.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("FUELWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 9000)
	v.SetDefault("store.path", "prices.json")
	v.SetDefault("store.location", "Courbevoie")
	v.SetDefault("scraper.site_url", scraper.DefaultSiteURL)
	v.SetDefault("scraper.user_agent", "fuelwatch/1.0 (+https://github.com/tmasselin/fuelwatch)")
	v.SetDefault("scraper.nav_timeout", "45s")
	v.SetDefault("scraper.settle_wait", "4s")
	v.SetDefault("scraper.input_wait", "2s")
	v.SetDefault("scraper.results_wait", "3s")
	v.SetDefault("scraper.scroll_wait", "2s")
	v.SetDefault("scraper.rate_per_minute", 2.0)
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if strings.TrimSpace(c.Store.Path) == "" {
		return fmt.Errorf("store.path must be set")
	}
	if c.Scraper.NavTimeout <= 0 {
		return fmt.Errorf("scraper.nav_timeout must be > 0")
	}
	if c.Scraper.RatePerMinute < 0 {
		return fmt.Errorf("scraper.rate_per_minute must be >= 0")
	}
	for postal, stations := range c.Stations {
		if strings.TrimSpace(postal) == "" {
			return fmt.Errorf("stations: empty postal code key")
		}
		for i, st := range stations {
			if strings.TrimSpace(st.Name) == "" {
				return fmt.Errorf("stations[%s][%d]: name must be set", postal, i)
			}
		}
	}
	return nil
}

// ExtractorConfig maps the scraper section onto the extractor's own
// config type.
func (c Config) ExtractorConfig() scraper.Config {
	return scraper.Config{
		SiteURL:     c.Scraper.SiteURL,
		UserAgent:   c.Scraper.UserAgent,
		NavTimeout:  c.Scraper.NavTimeout,
		SettleWait:  c.Scraper.SettleWait,
		InputWait:   c.Scraper.InputWait,
		ResultsWait: c.Scraper.ResultsWait,
		ScrollWait:  c.Scraper.ScrollWait,
	}
}
