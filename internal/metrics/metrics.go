// Package metrics exposes Prometheus collectors for the tracker.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	fetchAttemptsTotal     *prometheus.CounterVec
	fetchSuccessTotal      *prometheus.CounterVec
	extractDurationSeconds prometheus.Histogram
	storeEntries           prometheus.Gauge

	once sync.Once
)

// Init registers the collectors. Safe to call multiple times.
func Init() {
	once.Do(func() {
		fetchAttemptsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fuelwatch_fetch_attempts_total",
				Help: "Total number of per-station price fetch attempts.",
			},
			[]string{"station"},
		)

		fetchSuccessTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fuelwatch_fetch_success_total",
				Help: "Total number of per-station fetches that stored a price.",
			},
			[]string{"station"},
		)

		extractDurationSeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "fuelwatch_extract_duration_seconds",
				Help:    "Wall time of one browser extraction, fixed waits included.",
				Buckets: prometheus.ExponentialBuckets(1, 2, 8),
			},
		)

		storeEntries = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "fuelwatch_store_entries",
				Help: "Number of price entries currently persisted.",
			},
		)
	})
}

// FetchAttempt counts one extraction attempt for a station.
func FetchAttempt(station string) {
	if fetchAttemptsTotal != nil {
		fetchAttemptsTotal.WithLabelValues(station).Inc()
	}
}

// FetchSuccess counts one stored price for a station.
func FetchSuccess(station string) {
	if fetchSuccessTotal != nil {
		fetchSuccessTotal.WithLabelValues(station).Inc()
	}
}

// ObserveExtraction records the duration of one extraction.
func ObserveExtraction(d time.Duration) {
	if extractDurationSeconds != nil {
		extractDurationSeconds.Observe(d.Seconds())
	}
}

// SetStoreEntries records the current store size.
func SetStoreEntries(n int) {
	if storeEntries != nil {
		storeEntries.Set(float64(n))
	}
}
