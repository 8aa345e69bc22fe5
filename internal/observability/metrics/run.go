package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Feed status label values.
const (
	FeedStatusOK          = "ok"
	FeedStatusFetchFailed = "fetch_failed"
	FeedStatusParseFailed = "parse_failed"
	FeedStatusInvalid     = "invalid"
)

// Item stage label values.
const (
	StageParsed            = "parsed"
	StageDroppedIncomplete = "dropped_incomplete"
	StageFiltered          = "filtered"
	StageKept              = "kept"
)

// RunMetrics holds the per-run metric families of the poller.
type RunMetrics struct {
	FeedsTotal           *prometheus.CounterVec
	ItemsTotal           *prometheus.CounterVec
	SnapshotItems        prometheus.Gauge
	RunDuration          prometheus.Histogram
	LastSuccessTimestamp prometheus.Gauge
}

// NewRunMetrics creates the run metrics and registers them with reg.
// Passing a nil registerer creates unregistered metrics (useful for tests that
// only need the call sites to work).
func NewRunMetrics(reg prometheus.Registerer) *RunMetrics {
	factory := promauto.With(reg)

	return &RunMetrics{
		FeedsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mextfeed_feeds_total",
				Help: "Total number of feeds processed, by outcome",
			},
			[]string{"status"},
		),
		ItemsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mextfeed_items_total",
				Help: "Total number of feed items seen at each pipeline stage",
			},
			[]string{"stage"},
		),
		SnapshotItems: factory.NewGauge(prometheus.GaugeOpts{
			Name: "mextfeed_snapshot_items",
			Help: "Number of items in the most recently written snapshot",
		}),
		RunDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "mextfeed_run_duration_seconds",
			Help:    "Duration of a full poll run in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}),
		LastSuccessTimestamp: factory.NewGauge(prometheus.GaugeOpts{
			Name: "mextfeed_last_success_timestamp_seconds",
			Help: "Unix timestamp of the last run that wrote a snapshot",
		}),
	}
}

// RecordFeed counts one feed outcome.
func (m *RunMetrics) RecordFeed(status string) {
	if m == nil {
		return
	}
	m.FeedsTotal.WithLabelValues(status).Inc()
}

// RecordItems adds n items to the given stage.
func (m *RunMetrics) RecordItems(stage string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.ItemsTotal.WithLabelValues(stage).Add(float64(n))
}

// RecordSnapshot records a successful snapshot write.
func (m *RunMetrics) RecordSnapshot(items int, duration time.Duration) {
	if m == nil {
		return
	}
	m.SnapshotItems.Set(float64(items))
	m.RunDuration.Observe(duration.Seconds())
	m.LastSuccessTimestamp.SetToCurrentTime()
}
