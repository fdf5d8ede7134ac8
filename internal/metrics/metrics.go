// Package metrics exposes Prometheus collectors for the analysis server.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Fit result label values
const (
	ResultOK          = "ok"
	ResultInput       = "input_error"
	ResultConvergence = "convergence_error"
	ResultCancelled   = "cancelled"
	ResultError       = "error"
)

// Metrics holds all Prometheus metrics for the analysis server.
type Metrics struct {
	FitsTotal       *prometheus.CounterVec // labels: result
	FitDuration     prometheus.Histogram
	FitOuterIters   prometheus.Histogram
	DetectionsTotal prometheus.Counter
	SessionsActive  prometheus.Gauge

	gatherer prometheus.Gatherer
}

// NewMetrics creates the collectors and registers them with reg. A nil reg
// gets a private registry.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	m := &Metrics{
		FitsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wellmrc_fits_total",
			Help: "Recession fits by result",
		}, []string{"result"}),
		FitDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "wellmrc_fit_duration_seconds",
			Help:    "Wall time of one recession fit",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
		FitOuterIters: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "wellmrc_fit_outer_iterations",
			Help:    "Outer line search passes per successful fit",
			Buckets: prometheus.ExponentialBuckets(4, 2, 10),
		}),
		DetectionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wellmrc_detections_total",
			Help: "Extrema detection runs",
		}),
		SessionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "wellmrc_sessions_active",
			Help: "Open peak selection sessions",
		}),
		gatherer: reg,
	}

	reg.MustRegister(
		m.FitsTotal,
		m.FitDuration,
		m.FitOuterIters,
		m.DetectionsTotal,
		m.SessionsActive,
	)
	return m
}

// ObserveFit records one fit attempt. outer is ignored unless result is ResultOK.
func (m *Metrics) ObserveFit(result string, elapsed time.Duration, outer int) {
	m.FitsTotal.WithLabelValues(result).Inc()
	m.FitDuration.Observe(elapsed.Seconds())
	if result == ResultOK {
		m.FitOuterIters.Observe(float64(outer))
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
