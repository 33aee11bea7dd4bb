// Package metrics exposes attribution run, baseline and API metrics to
// Prometheus.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rotisserie/eris"

	"github.com/sells-group/lift-cli/internal/model"
)

const namespace = "lift"

// Metrics holds every collector. Each instance owns its registry.
type Metrics struct {
	Registry *prometheus.Registry

	Results      *prometheus.CounterVec
	Capped       *prometheus.CounterVec
	Attributed   *prometheus.HistogramVec
	RunDuration  prometheus.Histogram
	Brands       prometheus.Gauge
	BaselineLoad *prometheus.CounterVec
	Requests     *prometheus.CounterVec
	Throttled    prometheus.Counter
}

// New creates and registers all metrics on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		Registry: reg,
		Results: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "attribution_results_total",
			Help:      "Attribution results produced, by model and confidence label",
		}, []string{"model", "confidence"}),
		Capped: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "attribution_capped_total",
			Help:      "Attribution results clamped to their cap, by model",
		}, []string{"model"}),
		Attributed: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "attribution_dollars",
			Help:      "Attributed dollars per brand, by model",
			Buckets:   prometheus.ExponentialBuckets(100, 4, 8),
		}, []string{"model"}),
		RunDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "attribution_run_duration_seconds",
			Help:      "Wall time of one attribution run over a portfolio",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
		Brands: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "attribution_brands",
			Help:      "Brands in the most recent run",
		}),
		BaselineLoad: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "baseline_loads_total",
			Help:      "Prior-year table loads, by driver and outcome",
		}, []string{"driver", "outcome"}),
		Requests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "API requests, by route and status code",
		}, []string{"route", "code"}),
		Throttled: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_throttled_total",
			Help:      "API requests rejected by the rate limiter",
		}),
	}
}

// ObserveRun records one run's results.
func (m *Metrics) ObserveRun(brands int, results []model.AttributionResult, elapsed time.Duration) {
	m.RunDuration.Observe(elapsed.Seconds())
	m.Brands.Set(float64(brands))
	for _, r := range results {
		label := string(r.Confidence)
		if label == "" {
			label = "none"
		}
		m.Results.WithLabelValues(r.Model, label).Inc()
		m.Attributed.WithLabelValues(r.Model).Observe(r.AttributedDollars)
		if r.Capped {
			m.Capped.WithLabelValues(r.Model).Inc()
		}
	}
}

// ObserveBaselineLoad records a prior-year table load attempt.
func (m *Metrics) ObserveBaselineLoad(driver string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.BaselineLoad.WithLabelValues(driver, outcome).Inc()
}

// ObserveRequest records one API response.
func (m *Metrics) ObserveRequest(route string, code int) {
	m.Requests.WithLabelValues(route, strconv.Itoa(code)).Inc()
}

// WriteTextfile writes the registry in the node_exporter textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	return eris.Wrapf(prometheus.WriteToTextfile(path, m.Registry), "metrics: write textfile %s", path)
}
