package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	EvaluationLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "oddspulse",
			Subsystem: "analysis",
			Name:      "latency_seconds",
			Help:      "Latency of analysis endpoints",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	EvaluationErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "oddspulse",
			Subsystem: "analysis",
			Name:      "errors_total",
			Help:      "Errors by analysis endpoint",
		},
		[]string{"endpoint"},
	)
)

func Register() {
	once.Do(func() {
		prometheus.MustRegister(EvaluationLatency, EvaluationErrors)
	})
}
