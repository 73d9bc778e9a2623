package metrics

import (
	"mercator-hq/rulec/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// CacheStatsFunc reports the script cache size and its hit and miss counts.
type CacheStatsFunc func() (size int, hits, misses int64)

// registerScriptCache exposes a script cache read on every scrape.
//
// Metrics:
//   - rulec_script_cache_entries: Compiled scripts held in the cache
//   - rulec_script_cache_hits_total: Script loads served from the cache
//   - rulec_script_cache_misses_total: Script loads that compiled a file
func registerScriptCache(cfg *config.MetricsConfig, registry *prometheus.Registry, stats CacheStatsFunc) error {
	collectors := []prometheus.Collector{
		prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "script_cache_entries",
				Help:      "Number of compiled scripts in the cache",
			},
			func() float64 {
				size, _, _ := stats()
				return float64(size)
			},
		),
		prometheus.NewCounterFunc(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "script_cache_hits_total",
				Help:      "Total number of script loads served from the cache",
			},
			func() float64 {
				_, hits, _ := stats()
				return float64(hits)
			},
		),
		prometheus.NewCounterFunc(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "script_cache_misses_total",
				Help:      "Total number of script loads that compiled a file",
			},
			func() float64 {
				_, _, misses := stats()
				return float64(misses)
			},
		),
	}

	for _, c := range collectors {
		if err := registry.Register(c); err != nil {
			return err
		}
	}
	return nil
}
