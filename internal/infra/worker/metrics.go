package worker

import (
	"time"

	"mext-feed/internal/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Job run statuses.
const (
	JobSuccess = "success"
	JobFailure = "failure"
)

// WorkerMetrics provides Prometheus metrics for the scheduled poller.
//
// Embedded metrics (from ConfigMetrics):
//   - worker_config_load_timestamp
//   - worker_config_validation_errors_total{field}
//   - worker_config_fallbacks_total{field}
//   - worker_config_fallback_active
//
// Job metrics:
//   - worker_cron_job_runs_total{status}
//   - worker_cron_job_duration_seconds
//   - worker_cron_job_feeds_processed_total
//   - worker_cron_job_last_success_timestamp
type WorkerMetrics struct {
	*config.ConfigMetrics

	CronJobRunsTotal            *prometheus.CounterVec
	CronJobDurationSeconds      prometheus.Histogram
	CronJobFeedsProcessedTotal  prometheus.Counter
	CronJobLastSuccessTimestamp prometheus.Gauge
}

// NewWorkerMetrics creates the worker metrics and registers them with reg.
func NewWorkerMetrics(reg prometheus.Registerer) *WorkerMetrics {
	factory := promauto.With(reg)
	return &WorkerMetrics{
		ConfigMetrics: config.NewConfigMetrics("worker", reg),

		CronJobRunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "worker_cron_job_runs_total",
			Help: "Total number of cron job runs by status (success/failure)",
		}, []string{"status"}),

		CronJobDurationSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "worker_cron_job_duration_seconds",
			Help:    "Duration of cron job execution in seconds",
			Buckets: []float64{1, 5, 30, 60, 300, 900, 1800}, // 1s, 5s, 30s, 1m, 5m, 15m, 30m
		}),

		CronJobFeedsProcessedTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "worker_cron_job_feeds_processed_total",
			Help: "Total number of feeds processed across all cron job runs",
		}),

		CronJobLastSuccessTimestamp: factory.NewGauge(prometheus.GaugeOpts{
			Name: "worker_cron_job_last_success_timestamp",
			Help: "Unix timestamp of the last successful cron job run",
		}),
	}
}

// RecordJob records one finished job run. feeds is ignored for failed runs.
func (m *WorkerMetrics) RecordJob(err error, duration time.Duration, feeds int) {
	if m == nil {
		return
	}
	m.CronJobDurationSeconds.Observe(duration.Seconds())
	if err != nil {
		m.CronJobRunsTotal.WithLabelValues(JobFailure).Inc()
		return
	}
	m.CronJobRunsTotal.WithLabelValues(JobSuccess).Inc()
	if feeds > 0 {
		m.CronJobFeedsProcessedTotal.Add(float64(feeds))
	}
	m.CronJobLastSuccessTimestamp.SetToCurrentTime()
}
