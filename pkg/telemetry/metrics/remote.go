package metrics

import (
	"time"

	"mercator-hq/rulec/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// Remote poll results.
const (
	PollUpdated   = "updated"
	PollUnchanged = "unchanged"
	PollError     = "error"
)

// RemoteMetrics tracks polling of the remote rule snapshot.
//
// Metrics:
//   - rulec_remote_polls_total: Polls by result (updated, unchanged, error)
//   - rulec_remote_poll_duration_seconds: Fetch duration
//   - rulec_remote_snapshot_timestamp_seconds: Time the snapshot last changed
type RemoteMetrics struct {
	pollsTotal *prometheus.CounterVec

	pollDuration prometheus.Histogram

	snapshotUpdated prometheus.Gauge
}

// NewRemoteMetrics creates and registers remote metrics with the provided registry.
func NewRemoteMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *RemoteMetrics {
	rm := &RemoteMetrics{
		pollsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "remote_polls_total",
				Help:      "Total number of remote rule document polls",
			},
			[]string{"result"},
		),

		pollDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "remote_poll_duration_seconds",
				Help:      "Duration of remote rule document polls in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~10s
			},
		),

		snapshotUpdated: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "remote_snapshot_timestamp_seconds",
				Help:      "Unix time the remote snapshot last changed",
			},
		),
	}

	registry.MustRegister(
		rm.pollsTotal,
		rm.pollDuration,
		rm.snapshotUpdated,
	)

	return rm
}

// RecordPoll records one poll.
func (rm *RemoteMetrics) RecordPoll(result string, duration time.Duration) {
	rm.pollsTotal.WithLabelValues(result).Inc()
	rm.pollDuration.Observe(duration.Seconds())
	if result == PollUpdated {
		rm.snapshotUpdated.SetToCurrentTime()
	}
}
