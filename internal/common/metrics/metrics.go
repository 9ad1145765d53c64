// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
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

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)

	SyncRecordsPushed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_records_pushed_total",
			Help: "Total number of local records pushed to the remote store",
		},
		[]string{"kind"},
	)

	SyncPushFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_push_failures_total",
			Help: "Total number of failed push attempts during sync sweeps",
		},
		[]string{"kind"},
	)

	SyncPendingRecords = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sync_pending_records",
			Help: "Number of unsynced records observed at the start of a sweep",
		},
	)

	RelevanceSearches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relevance_searches_total",
			Help: "Total number of similar-job searches by candidate strategy used",
		},
		[]string{"strategy"},
	)
)
