package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics exposes counters for graph mutations, backend persistence, and
// full-tree syncs. All metrics hang off a private registry so tests can
// instantiate metrics without double-registration panics.
type Metrics struct {
	registry *prometheus.Registry

	GraphMutations  *prometheus.CounterVec
	PersistFailures *prometheus.CounterVec
	Reconciliations prometheus.Counter
	SyncTotal       *prometheus.CounterVec
	SyncDuration    prometheus.Histogram
}

// NewMetrics creates and registers all application metrics.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		registry: registry,
		GraphMutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kintree",
			Name:      "graph_mutations_total",
			Help:      "Graph mutations applied to the in-memory person store.",
		}, []string{"operation"}),
		PersistFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kintree",
			Name:      "persist_failures_total",
			Help:      "Backend persistence calls that failed and triggered a rollback.",
		}, []string{"operation"}),
		Reconciliations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "kintree",
			Name:      "temp_id_reconciliations_total",
			Help:      "Temporary person IDs remapped to backend-assigned IDs.",
		}),
		SyncTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kintree",
			Name:      "tree_syncs_total",
			Help:      "Full family-tree hydrations, by outcome.",
		}, []string{"status"}),
		SyncDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "kintree",
			Name:      "tree_sync_duration_seconds",
			Help:      "Duration of full family-tree hydrations.",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	registry.MustRegister(
		m.GraphMutations,
		m.PersistFailures,
		m.Reconciliations,
		m.SyncTotal,
		m.SyncDuration,
	)

	return m
}

// RecordMutation counts one applied graph mutation.
func (m *Metrics) RecordMutation(operation string) {
	m.GraphMutations.WithLabelValues(operation).Inc()
}

// RecordPersistFailure counts one failed backend persistence call.
func (m *Metrics) RecordPersistFailure(operation string) {
	m.PersistFailures.WithLabelValues(operation).Inc()
}

// RecordSync counts one sync attempt and observes its duration.
func (m *Metrics) RecordSync(start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	m.SyncTotal.WithLabelValues(status).Inc()
	m.SyncDuration.Observe(time.Since(start).Seconds())
}

// Handler returns the HTTP handler serving the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
