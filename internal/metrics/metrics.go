// Package metrics holds the process-wide Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "itda"

var (
	SubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transcript_submissions_total",
			Help:      "Transcript submissions by outcome (created, appended, failed, degraded).",
		},
		[]string{"outcome"},
	)

	CounselTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "counsel_requests_total",
			Help:      "Counsel requests by outcome.",
		},
		[]string{"outcome"},
	)

	StageFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stage_failures_total",
			Help:      "Pipeline stage failures.",
		},
		[]string{"pipeline", "stage"},
	)

	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Latency of external pipeline stages.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"pipeline", "stage"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP handler latency by route and status.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"route", "method", "status"},
	)

	PersistConflictsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "counsel_persist_conflicts_total",
			Help:      "Version conflicts retried while persisting counsel turns.",
		},
	)

	PanicsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_panics_total",
			Help:      "Handler panics recovered.",
		},
	)
)

// ObserveStage records a stage latency and, when err is non-nil, a failure.
func ObserveStage(pipeline, stage string, seconds float64, err error) {
	StageDuration.WithLabelValues(pipeline, stage).Observe(seconds)
	if err != nil {
		StageFailuresTotal.WithLabelValues(pipeline, stage).Inc()
	}
}
