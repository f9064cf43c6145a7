package metrics

import "github.com/prometheus/client_golang/prometheus"

// Grid pipeline Prometheus metrics.
var (
	SchemaResetsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "resultgrid",
			Name:      "schema_resets_total",
			Help:      "Column view rebuilds by reason",
		},
		[]string{"reason"}, // initial / all_entities / filter_changed / schema_changed
	)

	RowsFlattened = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "resultgrid",
			Name:      "rows_flattened",
			Help:      "Display rows produced per ingested result set",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		},
	)

	ColumnEditsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "resultgrid",
			Name:      "column_edits_total",
			Help:      "Column edits by kind and outcome",
		},
		[]string{"kind", "outcome"}, // outcome: applied / stale
	)

	MalformedRecordsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "resultgrid",
			Name:      "malformed_records_total",
			Help:      "Hits whose property groups could not be read",
		},
	)

	SessionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "resultgrid",
			Name:      "sessions_active",
			Help:      "Grid sessions currently held in memory",
		},
	)
)

var gridMetricsRegistered bool

// RegisterGridMetrics registers Prometheus grid metrics. Must be called once from main.
func RegisterGridMetrics() {
	if gridMetricsRegistered {
		return
	}
	prometheus.MustRegister(SchemaResetsTotal)
	prometheus.MustRegister(RowsFlattened)
	prometheus.MustRegister(ColumnEditsTotal)
	prometheus.MustRegister(MalformedRecordsTotal)
	prometheus.MustRegister(SessionsActive)
	gridMetricsRegistered = true
}

// EditOutcome maps a reducer result to the outcome label.
func EditOutcome(applied bool) string {
	if applied {
		return "applied"
	}
	return "stale"
}
