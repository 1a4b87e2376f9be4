// Package metrics exposes generation counters for Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry    *prometheus.Registry
	generated   *prometheus.CounterVec
	failed      *prometheus.CounterVec
	warnings    *prometheus.CounterVec
	rowsRemoved prometheus.Counter
	duration    *prometheus.HistogramVec
	purged      prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		generated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "proposals_generated_total",
			Help: "Proposals generated, by proposal type.",
		}, []string{"proposal"}),
		failed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "proposal_generation_failures_total",
			Help: "Failed generations, by proposal type and reason.",
		}, []string{"proposal", "reason"}),
		warnings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "proposal_generation_warnings_total",
			Help: "Non-fatal generation warnings, by proposal type.",
		}, []string{"proposal"}),
		rowsRemoved: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "proposal_empty_rows_removed_total",
			Help: "Table rows removed because their value was empty.",
		}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "proposal_generation_duration_seconds",
			Help:    "Time spent building a proposal document.",
			Buckets: prometheus.DefBuckets,
		}, []string{"proposal"}),
		purged: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "proposal_documents_purged_total",
			Help: "Stored documents removed by retention.",
		}),
	}
	m.registry.MustRegister(m.generated, m.failed, m.warnings, m.rowsRemoved, m.duration, m.purged)
	return m
}

// All methods accept a nil receiver so callers can run without metrics.

func (m *Metrics) Generated(proposal string, seconds float64, rowsRemoved, warnings int) {
	if m == nil {
		return
	}
	m.generated.WithLabelValues(proposal).Inc()
	m.duration.WithLabelValues(proposal).Observe(seconds)
	m.rowsRemoved.Add(float64(rowsRemoved))
	if warnings > 0 {
		m.warnings.WithLabelValues(proposal).Add(float64(warnings))
	}
}

func (m *Metrics) Failed(proposal, reason string) {
	if m == nil {
		return
	}
	m.failed.WithLabelValues(proposal, reason).Inc()
}

func (m *Metrics) Purged(n int) {
	if m == nil {
		return
	}
	m.purged.Add(float64(n))
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
