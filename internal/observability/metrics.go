// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Ledger metrics
	MessagesProcessed *prometheus.CounterVec
	ResultsRecorded   *prometheus.CounterVec
	ResultsRejected   *prometheus.CounterVec
	LedgerSize        prometheus.Gauge
	HintDisagreements prometheus.Counter

	// Catalog metrics
	PredictionsImported *prometheus.CounterVec
	PredictionsLaunched prometheus.Counter
	PredictionsVerified *prometheus.CounterVec
	CatalogPending      prometheus.Gauge

	// Persistence and transport metrics
	PersistenceErrors *prometheus.CounterVec
	OutboundErrors    *prometheus.CounterVec
	FeedReconnects    prometheus.Counter

	// Rollover metrics
	RolloverRunsTotal *prometheus.CounterVec
	RolloverDuration  prometheus.Histogram

	// Health metrics
	LastMessageHandled prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "baccarat_ledger"
	}

	return &Metrics{
		MessagesProcessed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "inbound",
			Name:      "messages_processed_total",
			Help:      "Total number of inbound messages processed by kind",
		}, []string{"kind"}),
		ResultsRecorded: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "results_recorded_total",
			Help:      "Total number of results accepted by winner",
		}, []string{"winner"}),
		ResultsRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "results_rejected_total",
			Help:      "Total number of rejected messages by reason",
		}, []string{"reason"}),
		LedgerSize: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "results",
			Help:      "Current number of results in the ledger",
		}),
		HintDisagreements: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "hint_disagreements_total",
			Help:      "Total number of accepted results whose text hint named the other side",
		}),

		PredictionsImported: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "catalog",
			Name:      "predictions_imported_total",
			Help:      "Total number of imported rows by outcome",
		}, []string{"outcome"}),
		PredictionsLaunched: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "catalog",
			Name:      "predictions_launched_total",
			Help:      "Total number of predictions launched",
		}),
		PredictionsVerified: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "catalog",
			Name:      "predictions_verified_total",
			Help:      "Total number of predictions verified by status",
		}, []string{"status"}),
		CatalogPending: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "catalog",
			Name:      "pending_predictions",
			Help:      "Current number of pending predictions",
		}),

		PersistenceErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "persistence_errors_total",
			Help:      "Total number of failed snapshot writes by store",
		}, []string{"store"}),
		OutboundErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "transport",
			Name:      "outbound_errors_total",
			Help:      "Total number of failed outbound calls by operation",
		}, []string{"operation"}),
		FeedReconnects: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "transport",
			Name:      "feed_reconnects_total",
			Help:      "Total number of websocket feed reconnect attempts",
		}),

		RolloverRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rollover",
			Name:      "runs_total",
			Help:      "Total number of daily rollovers by status",
		}, []string{"status"}),
		RolloverDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "rollover",
			Name:      "duration_seconds",
			Help:      "Daily rollover duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60},
		}),

		LastMessageHandled: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_message_handled_timestamp",
			Help:      "Unix timestamp of the last handled inbound message",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordMessage increments the processed counter and the last-handled gauge.
func RecordMessage(kind string, unixSeconds int64) {
	DefaultMetrics.MessagesProcessed.WithLabelValues(kind).Inc()
	DefaultMetrics.LastMessageHandled.Set(float64(unixSeconds))
}

// RecordResult records an accepted result.
func RecordResult(winner string, ledgerSize int) {
	DefaultMetrics.ResultsRecorded.WithLabelValues(winner).Inc()
	DefaultMetrics.LedgerSize.Set(float64(ledgerSize))
}

// RecordRejection records a rejected message.
func RecordRejection(reason string) {
	DefaultMetrics.ResultsRejected.WithLabelValues(reason).Inc()
}

// RecordHintDisagreement records a winner hint contradicting the suit rule.
func RecordHintDisagreement() {
	DefaultMetrics.HintDisagreements.Inc()
}

// UpdateLedgerSize sets the ledger size gauge.
func UpdateLedgerSize(n int) {
	DefaultMetrics.LedgerSize.Set(float64(n))
}

// RecordImport records the outcome counts of a catalog import.
func RecordImport(imported, skippedConsecutive, skippedLaunched, skippedDuplicate int) {
	DefaultMetrics.PredictionsImported.WithLabelValues("imported").Add(float64(imported))
	DefaultMetrics.PredictionsImported.WithLabelValues("skipped_consecutive").Add(float64(skippedConsecutive))
	DefaultMetrics.PredictionsImported.WithLabelValues("skipped_already_launched").Add(float64(skippedLaunched))
	DefaultMetrics.PredictionsImported.WithLabelValues("skipped_duplicate").Add(float64(skippedDuplicate))
}

// RecordLaunch increments the launched counter.
func RecordLaunch() {
	DefaultMetrics.PredictionsLaunched.Inc()
}

// RecordVerdict records a prediction closed with status.
func RecordVerdict(status string) {
	DefaultMetrics.PredictionsVerified.WithLabelValues(status).Inc()
}

// UpdateCatalogPending sets the pending predictions gauge.
func UpdateCatalogPending(n int) {
	DefaultMetrics.CatalogPending.Set(float64(n))
}

// RecordPersistenceError records a failed snapshot write.
func RecordPersistenceError(store string) {
	DefaultMetrics.PersistenceErrors.WithLabelValues(store).Inc()
}

// RecordOutboundError records a failed send or edit.
func RecordOutboundError(operation string) {
	DefaultMetrics.OutboundErrors.WithLabelValues(operation).Inc()
}

// RecordFeedReconnect increments the feed reconnect counter.
func RecordFeedReconnect() {
	DefaultMetrics.FeedReconnects.Inc()
}

// RecordRollover records a daily rollover run.
func RecordRollover(status string, durationSeconds float64) {
	DefaultMetrics.RolloverRunsTotal.WithLabelValues(status).Inc()
	DefaultMetrics.RolloverDuration.Observe(durationSeconds)
}
