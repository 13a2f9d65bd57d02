// Package scraper drives a headless browser against the price-comparison
// site and extracts plausible fuel prices for named stations.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
	"go.uber.org/zap"
)

// Expected failure modes. Callers treat any Extract error as an absent
// result; these sentinels only make the cause inspectable.
var (
	// ErrStationNotFound means the station identifier never appeared in
	// the rendered page.
	ErrStationNotFound = errors.New("station not found in rendered page")
	// ErrNoPlausiblePrice means the page matched the station but no
	// strategy produced a price inside the plausibility window.
	ErrNoPlausiblePrice = errors.New("no plausible price found")
)

// DefaultSiteURL is the public price-comparison site the extractor
// queries.
const DefaultSiteURL = "https://www.prix-carburants.gouv.fr/"

// Config controls the browser session and its fixed waits. The waits are
// pure timed sleeps; the site gives no reliable rendered-done signal, so
// flakiness here is a known trade-off.
type Config struct {
	SiteURL     string        `mapstructure:"site_url"`
	UserAgent   string        `mapstructure:"user_agent"`
	NavTimeout  time.Duration `mapstructure:"nav_timeout"`
	SettleWait  time.Duration `mapstructure:"settle_wait"`
	InputWait   time.Duration `mapstructure:"input_wait"`
	ResultsWait time.Duration `mapstructure:"results_wait"`
	ScrollWait  time.Duration `mapstructure:"scroll_wait"`
}

// postalSelectors are the ordered CSS strategies for locating the postal
// code input. A bare text input anywhere on the page is the last resort.
var postalSelectors = []string{
	`input[placeholder*='postal']`,
	`input[placeholder*='code']`,
	`input[type='text'][id*='postal']`,
	`input[type='text'][id*='commune']`,
	`input[type='text']`,
}

// Extractor produces a validated price for one (postal code, station)
// pair per call, spinning up and tearing down a fresh headless browser
// session each time. No session is ever reused.
type Extractor struct {
	cfg        Config
	strategies []Strategy
	logger     *zap.Logger
}

// NewExtractor builds an extractor with the default strategy pipeline.
func NewExtractor(cfg Config, logger *zap.Logger) *Extractor {
	if cfg.SiteURL == "" {
		cfg.SiteURL = DefaultSiteURL
	}
	if cfg.NavTimeout <= 0 {
		cfg.NavTimeout = 45 * time.Second
	}
	return &Extractor{
		cfg:        cfg,
		strategies: defaultStrategies(),
		logger:     logger,
	}
}

// Extract renders the site for the given postal code and pulls a
// plausible price for the named station out of the page. Every failure
// mode, from browser startup to an implausible page, comes back as an
// error the caller logs and treats as "not found".
func (e *Extractor) Extract(ctx context.Context, postal, station string) (float64, error) {
	e.logger.Info("Starting browser session",
		zap.String("station", station), zap.String("postal", postal))

	snapshot, err := e.renderResults(ctx, postal)
	if err != nil {
		return 0, fmt.Errorf("render results for %s: %w", postal, err)
	}
	return e.priceFromSnapshot(snapshot, station)
}

// renderResults runs the full browser protocol and returns the rendered
// HTML. The allocator and browser contexts are scoped to this call, so
// the session is torn down on every path.
func (e *Extractor) renderResults(ctx context.Context, postal string) (string, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.WindowSize(1920, 1080),
	)
	if e.cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(e.cfg.UserAgent))
	}
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	defer allocCancel()
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	defer browserCancel()
	taskCtx, taskCancel := context.WithTimeout(browserCtx, e.cfg.NavTimeout)
	defer taskCancel()

	var snapshot string
	tasks := chromedp.Tasks{
		network.Enable(),
		chromedp.Navigate(e.cfg.SiteURL),
		chromedp.Sleep(e.cfg.SettleWait),
		e.submitPostalAction(postal),
		chromedp.Evaluate(`window.scrollTo(0, document.body.scrollHeight);`, nil),
		chromedp.Sleep(e.cfg.ScrollWait),
		chromedp.OuterHTML("html", &snapshot, chromedp.ByQuery),
	}
	if err := chromedp.Run(taskCtx, tasks); err != nil {
		return "", fmt.Errorf("chromedp run: %w", err)
	}
	return snapshot, nil
}

// submitPostalAction locates the postal input, types the code and submits
// it with an Enter key event. A page without a usable input is not fatal:
// extraction proceeds against whatever content is already rendered.
func (e *Extractor) submitPostalAction(postal string) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		sel, found := findPostalInput(ctx)
		if !found {
			e.logger.Warn("No postal code input found, extracting from current page")
			return nil
		}
		submit := chromedp.Tasks{
			chromedp.Clear(sel, chromedp.ByQuery),
			chromedp.SendKeys(sel, postal, chromedp.ByQuery),
			chromedp.Sleep(e.cfg.InputWait),
			chromedp.SendKeys(sel, kb.Enter, chromedp.ByQuery),
			chromedp.Sleep(e.cfg.ResultsWait),
		}
		if err := submit.Do(ctx); err != nil {
			e.logger.Warn("Postal code submission failed", zap.Error(err))
			return nil
		}
		e.logger.Debug("Postal code submitted", zap.String("postal", postal), zap.String("selector", sel))
		return nil
	})
}

// findPostalInput tries the selector strategies in order and returns the
// first one that matches at least one node.
func findPostalInput(ctx context.Context) (string, bool) {
	for _, sel := range postalSelectors {
		var nodes []*cdp.Node
		if err := chromedp.Nodes(sel, &nodes, chromedp.ByQueryAll, chromedp.AtLeast(0)).Do(ctx); err != nil {
			continue
		}
		if len(nodes) > 0 {
			return sel, true
		}
	}
	return "", false
}

// priceFromSnapshot gates on station presence and runs the strategy
// pipeline over the rendered HTML.
func (e *Extractor) priceFromSnapshot(snapshot, station string) (float64, error) {
	if !stationPresent(snapshot, station) {
		return 0, fmt.Errorf("%q: %w", station, ErrStationNotFound)
	}
	for _, strat := range e.strategies {
		if price, ok := strat.Extract(snapshot); ok {
			e.logger.Info("Extracted price",
				zap.Float64("price", price),
				zap.String("station", station),
				zap.String("strategy", strat.Name()),
			)
			return price, nil
		}
	}
	return 0, fmt.Errorf("%q: %w", station, ErrNoPlausiblePrice)
}
