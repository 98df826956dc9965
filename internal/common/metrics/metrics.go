// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AdmissionChecksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "admission_checks_total",
			Help: "Total number of admission checks by outcome and verdict source",
		},
		[]string{"university", "outcome", "source"},
	)

	AdmissionCheckDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "admission_check_duration_seconds",
			Help:    "Duration of one admission check in seconds",
			Buckets: []float64{1, 5, 10, 20, 30, 60, 120, 300},
		},
		[]string{"university"},
	)

	FallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "admission_fallbacks_total",
			Help: "Total number of checks answered in degraded mode",
		},
		[]string{"university", "source"},
	)

	LocatorFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "browser_locator_failures_total",
			Help: "Total number of UI targets no locator strategy could resolve",
		},
		[]string{"target"},
	)

	BrowserSessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "browser_sessions_active",
			Help: "Number of open browser sessions",
		},
	)

	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)
)
