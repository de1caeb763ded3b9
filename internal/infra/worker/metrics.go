package worker

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// JobRunsTotal counts scheduler job executions per job.
	JobRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "digest_worker_job_runs_total",
			Help: "Total scheduler job executions",
		},
		[]string{"job"},
	)

	// JobDuration measures how long one job execution takes.
	JobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "digest_worker_job_duration_seconds",
			Help:    "Scheduler job execution duration",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120},
		},
		[]string{"job"},
	)

	// JobLastRunTimestamp records when each job last finished.
	JobLastRunTimestamp = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "digest_worker_job_last_run_timestamp_seconds",
			Help: "Unix timestamp of the last completed run per job",
		},
		[]string{"job"},
	)

	// MaintenanceRunsTotal counts cache maintenance executions by status.
	MaintenanceRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "digest_worker_maintenance_runs_total",
			Help: "Total cache maintenance runs",
		},
		[]string{"status"},
	)
)

// RecordJobRun records one completed scheduler job execution.
func RecordJobRun(job string, duration time.Duration) {
	JobRunsTotal.WithLabelValues(job).Inc()
	JobDuration.WithLabelValues(job).Observe(duration.Seconds())
	JobLastRunTimestamp.WithLabelValues(job).SetToCurrentTime()
}

// RecordMaintenance records a cache maintenance run outcome.
func RecordMaintenance(err error) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	MaintenanceRunsTotal.WithLabelValues(status).Inc()
}
