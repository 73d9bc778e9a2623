package metrics

import (
	"time"

	"mercator-hq/rulec/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// CompileMetrics tracks rule group compiles.
//
// Metrics:
//   - rulec_compiles_total: Compile attempts by source and status
//   - rulec_compile_duration_seconds: Validate, resolve and register duration
//   - rulec_registered_groups: Rule groups currently registered
//   - rulec_last_compile_timestamp_seconds: Time of the last compile by status
type CompileMetrics struct {
	compilesTotal *prometheus.CounterVec

	compileDuration *prometheus.HistogramVec

	registeredGroups prometheus.Gauge

	lastCompile *prometheus.GaugeVec
}

// NewCompileMetrics creates and registers compile metrics with the provided registry.
func NewCompileMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *CompileMetrics {
	cm := &CompileMetrics{
		compilesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "compiles_total",
				Help:      "Total number of rule group compile attempts",
			},
			[]string{"source", "status"},
		),

		compileDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "compile_duration_seconds",
				Help:      "Duration of rule group compiles in seconds",
				Buckets:   cfg.CompileDurationBuckets,
			},
			[]string{"status"},
		),

		registeredGroups: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "registered_groups",
				Help:      "Number of rule groups currently registered",
			},
		),

		lastCompile: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "last_compile_timestamp_seconds",
				Help:      "Unix time of the last rule group compile",
			},
			[]string{"status"},
		),
	}

	registry.MustRegister(
		cm.compilesTotal,
		cm.compileDuration,
		cm.registeredGroups,
		cm.lastCompile,
	)

	return cm
}

// RecordCompile records one compile attempt.
func (cm *CompileMetrics) RecordCompile(source, status string, duration time.Duration) {
	cm.compilesTotal.WithLabelValues(source, status).Inc()
	cm.compileDuration.WithLabelValues(status).Observe(duration.Seconds())
	cm.lastCompile.WithLabelValues(status).SetToCurrentTime()
}

// SetRegisteredGroups sets the registered group gauge.
func (cm *CompileMetrics) SetRegisteredGroups(n int) {
	cm.registeredGroups.Set(float64(n))
}
