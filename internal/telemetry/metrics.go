// Package telemetry exposes run counters over Prometheus and the small
// HTTP surface the monitor command serves them on.
package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sawpanic/cryptovet/internal/backtest"
)

// Metrics holds the instrument set on its own registry, so tests can
// create as many instances as they need without collisions.
type Metrics struct {
	registry *prometheus.Registry

	RunsTotal        *prometheus.CounterVec
	CandlesProcessed prometheus.Counter
	TradesTotal      *prometheus.CounterVec
	FetchRequests    *prometheus.CounterVec
	CacheHits        prometheus.Counter
	CacheMisses      prometheus.Counter
	LastRunReturn    prometheus.Gauge
	RunDuration      prometheus.Histogram
}

// NewMetrics builds and registers the full instrument set.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		RunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cryptovet_runs_total",
				Help: "Total backtest runs by mode",
			},
			[]string{"mode"},
		),
		CandlesProcessed: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "cryptovet_candles_processed_total",
				Help: "Total candles replayed through the engine",
			},
		),
		TradesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cryptovet_trades_total",
				Help: "Total simulated trades by exit reason",
			},
			[]string{"exit_reason"},
		),
		FetchRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cryptovet_fetch_requests_total",
				Help: "Exchange fetch attempts by outcome",
			},
			[]string{"status"},
		),
		CacheHits: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "cryptovet_cache_hits_total",
				Help: "Candle cache hits",
			},
		),
		CacheMisses: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "cryptovet_cache_misses_total",
				Help: "Candle cache misses",
			},
		),
		LastRunReturn: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "cryptovet_last_run_return_pct",
				Help: "Total return of the most recent run, percent",
			},
		),
		RunDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "cryptovet_run_duration_seconds",
				Help:    "Wall time of one backtest run",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
		),
	}

	m.registry.MustRegister(
		m.RunsTotal,
		m.CandlesProcessed,
		m.TradesTotal,
		m.FetchRequests,
		m.CacheHits,
		m.CacheMisses,
		m.LastRunReturn,
		m.RunDuration,
	)

	return m
}

// ObserveRun records one completed run's headline numbers.
func (m *Metrics) ObserveRun(mode string, res *backtest.Result, elapsed time.Duration) {
	m.RunsTotal.WithLabelValues(mode).Inc()
	m.CandlesProcessed.Add(float64(len(res.EquityCurve)))
	for _, t := range res.Trades {
		m.TradesTotal.WithLabelValues(string(t.ExitReason)).Inc()
	}
	m.LastRunReturn.Set(res.TotalReturn)
	m.RunDuration.Observe(elapsed.Seconds())
}

// ObserveFetch counts one exchange fetch attempt by outcome. Safe on a
// nil receiver so fetch paths without a metrics server skip the
// plumbing instead of guarding every call site.
func (m *Metrics) ObserveFetch(status string) {
	if m == nil {
		return
	}
	m.FetchRequests.WithLabelValues(status).Inc()
}

// ObserveCache counts one candle cache lookup. Nil-safe like
// ObserveFetch.
func (m *Metrics) ObserveCache(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.CacheHits.Inc()
	} else {
		m.CacheMisses.Inc()
	}
}

// Handler serves the registry in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
