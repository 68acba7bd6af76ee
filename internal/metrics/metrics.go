// Package metrics holds the Prometheus collectors of the humanize workflow.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	Runs           *prometheus.CounterVec
	RunDuration    *prometheus.HistogramVec
	PollAttempts   prometheus.Histogram
	LedgerFailures prometheus.Counter
}

// New creates the collectors and registers them on a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "humanize_runs_total",
			Help: "Humanize runs by mode and outcome code.",
		}, []string{"mode", "outcome"}),
		RunDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "humanize_run_duration_seconds",
			Help:    "Wall time of a humanize run.",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 15, 30},
		}, []string{"mode"}),
		PollAttempts: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "humanize_poll_attempts",
			Help:    "Provider queries issued per polled job.",
			Buckets: prometheus.LinearBuckets(1, 1, 10),
		}),
		LedgerFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "humanize_ledger_failures_total",
			Help: "Credit decrements that failed after a successful run.",
		}),
	}
	reg.MustRegister(m.Runs, m.RunDuration, m.PollAttempts, m.LedgerFailures)
	return m
}

// ObserveRun records the outcome and duration of one run.
func (m *Metrics) ObserveRun(mode, outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.Runs.WithLabelValues(mode, outcome).Inc()
	m.RunDuration.WithLabelValues(mode).Observe(seconds)
}

// ObservePoll records how many queries a job needed.
func (m *Metrics) ObservePoll(attempts int) {
	if m == nil {
		return
	}
	m.PollAttempts.Observe(float64(attempts))
}

// LedgerFailed counts one failed decrement.
func (m *Metrics) LedgerFailed() {
	if m == nil {
		return
	}
	m.LedgerFailures.Inc()
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
