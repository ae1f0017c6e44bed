package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	snapshotsIngested *prometheus.CounterVec
	snapshotsRejected *prometheus.CounterVec
	errorsTotal       *prometheus.CounterVec
	lastIP            *prometheus.GaugeVec
	latency           *prometheus.HistogramVec
	evaluations       *prometheus.CounterVec
	steamFlags        *prometheus.CounterVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		snapshotsIngested: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "oddspulse_snapshots_ingested_total",
				Help: "Total number of odds snapshots ingested",
			},
			[]string{"book", "market_type"},
		),
		snapshotsRejected: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "oddspulse_snapshots_rejected_total",
				Help: "Total number of snapshots rejected before storage",
			},
			[]string{"reason"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "oddspulse_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		lastIP: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "oddspulse_last_implied_probability",
				Help: "Last observed home implied probability for a market",
			},
			[]string{"market"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "oddspulse_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		evaluations: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "oddspulse_evaluations_total",
				Help: "Total number of market evaluations run",
			},
			[]string{"market_type"},
		),
		steamFlags: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "oddspulse_steam_flags_total",
				Help: "Total number of active steam flags raised",
			},
			[]string{"market_type"},
		),
	}
}

// RecordSnapshotIngested records a snapshot accepted into the backend.
func (r *Recorder) RecordSnapshotIngested(book, marketType string) {
	r.snapshotsIngested.WithLabelValues(book, marketType).Inc()
}

// RecordSnapshotRejected records a snapshot dropped before storage.
func (r *Recorder) RecordSnapshotRejected(reason string) {
	r.snapshotsRejected.WithLabelValues(reason).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLastIP records the last home implied probability for a market.
func (r *Recorder) RecordLastIP(marketKey string, ip float64) {
	r.lastIP.WithLabelValues(marketKey).Set(ip)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// RecordEvaluation counts a pipeline evaluation for a market type.
func (r *Recorder) RecordEvaluation(marketType string) {
	r.evaluations.WithLabelValues(marketType).Inc()
}

// RecordSteamFlag counts an active steam flag for a market type.
func (r *Recorder) RecordSteamFlag(marketType string) {
	r.steamFlags.WithLabelValues(marketType).Inc()
}
