package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "storm_atcf"

// Metrics holds the Prometheus counters, histograms, and gauges for the ATCF service.
type Metrics struct {
	// Feed ingestion.
	Refreshes       *prometheus.CounterVec // labels: source={primary,alternate,disk}, outcome={success,error,empty,timeout}
	RefreshDuration prometheus.Histogram
	ParseErrors     *prometheus.CounterVec // labels: mode={std,interp}
	ActiveStorms    prometheus.Gauge
	PipelineRunning prometheus.Gauge

	// Records and publishing.
	RecordUpdates    prometheus.Counter
	MessagesProduced prometheus.Counter
	PublishErrors    prometheus.Counter
	StormsByCategory *prometheus.GaugeVec // labels: category

	// Best-track archive.
	BestTrackQueries *prometheus.CounterVec // labels: outcome={found,ambiguous,not_found,error}
	BestTrackCache   *prometheus.CounterVec // labels: result={hit,miss}
	BestTrackImports *prometheus.CounterVec // labels: table, outcome
}

// NewMetrics creates and registers all service metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.Refreshes,
		m.RefreshDuration,
		m.ParseErrors,
		m.ActiveStorms,
		m.PipelineRunning,
		m.RecordUpdates,
		m.MessagesProduced,
		m.PublishErrors,
		m.StormsByCategory,
		m.BestTrackQueries,
		m.BestTrackCache,
		m.BestTrackImports,
	)
	return m
}

// NewUnregisteredMetrics creates Metrics that are never exported. The CLI
// uses it for one-shot commands that have no /metrics endpoint.
func NewUnregisteredMetrics() *Metrics {
	return newMetrics()
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		Refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feed_refreshes_total",
			Help:      "Feed refresh attempts by source and outcome.",
		}, []string{"source", "outcome"}),
		RefreshDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "feed_refresh_duration_seconds",
			Help:      "Duration of a complete fetch, reload and publish cycle.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 30},
		}),
		ParseErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feed_parse_errors_total",
			Help:      "Feed lines skipped because they did not parse.",
		}, []string{"mode"}),
		ActiveStorms: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_storms",
			Help:      "Number of systems in the active table.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 when the refresh loop is active, 0 when shut down.",
		}),
		RecordUpdates: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "record_updates_total",
			Help:      "Times the strongest-storm record was replaced.",
		}),
		MessagesProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_produced_total",
			Help:      "Active storm messages written to the sink topic.",
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_errors_total",
			Help:      "Failed publish attempts.",
		}),
		StormsByCategory: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "storms_by_category",
			Help:      "Active systems per classification category.",
		}, []string{"category"}),
		BestTrackQueries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "besttrack_queries_total",
			Help:      "Best-track lookups by outcome.",
		}, []string{"outcome"}),
		BestTrackCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "besttrack_cache_total",
			Help:      "Best-track cache lookups by result.",
		}, []string{"result"}),
		BestTrackImports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "besttrack_imports_total",
			Help:      "Best-track CSV imports by table and outcome.",
		}, []string{"table", "outcome"}),
	}
}
