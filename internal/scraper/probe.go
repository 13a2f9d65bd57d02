package scraper

import (
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"
)

// Probe checks that the target site answers plain HTTP before a browser
// session is spent on it. The result is advisory only: a failed probe is
// logged and the scrape proceeds anyway, since the site sometimes rejects
// non-browser clients it will happily serve a full session.
type Probe struct {
	userAgent string
	timeout   time.Duration
	logger    *zap.Logger
}

// NewProbe builds a probe with the given client identity and timeout.
func NewProbe(userAgent string, timeout time.Duration, logger *zap.Logger) *Probe {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Probe{
		userAgent: userAgent,
		timeout:   timeout,
		logger:    logger,
	}
}

// SiteReachable issues a single GET against the site root and reports
// whether it answered with a non-error status.
func (p *Probe) SiteReachable(siteURL string) bool {
	c := colly.NewCollector(colly.UserAgent(p.userAgent))
	c.SetRequestTimeout(p.timeout)

	var status int
	c.OnResponse(func(r *colly.Response) {
		status = r.StatusCode
	})

	if err := c.Visit(siteURL); err != nil {
		p.logger.Warn("Site probe failed", zap.String("url", siteURL), zap.Error(err))
		return false
	}
	ok := status >= 200 && status < 400
	if ok {
		p.logger.Info("Site probe succeeded", zap.String("url", siteURL), zap.Int("status", status))
	} else {
		p.logger.Warn("Site probe returned error status", zap.String("url", siteURL), zap.Int("status", status))
	}
	return ok
}
