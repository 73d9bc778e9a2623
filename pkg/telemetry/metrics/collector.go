package metrics

import (
	"fmt"
	"sync"
	"time"

	"mercator-hq/rulec/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// OtherSource replaces compile sources past the cardinality limit.
const OtherSource = "other"

// DefaultMaxSources bounds the distinct source label values. Sources are
// file paths, so a large rule tree could otherwise grow the series count
// without limit.
const DefaultMaxSources = 500

// Collector owns the Prometheus registry and every rulec metric. It
// implements manager.Recorder.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	compileMetrics *CompileMetrics
	remoteMetrics  *RemoteMetrics

	sources *CardinalityLimiter
}

// NewCollector creates a collector. If registry is nil a new registry with
// the Go runtime and process collectors is created.
//
// Example:
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	mgr.WithRecorder(collector)
//	http.Handle(cfg.Telemetry.Metrics.Path, collector.Handler())
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}
	if len(cfg.CompileDurationBuckets) == 0 {
		cfg.CompileDurationBuckets = append([]float64(nil), config.DefaultCompileDurationBuckets...)
	}

	return &Collector{
		config:         cfg,
		registry:       registry,
		compileMetrics: NewCompileMetrics(cfg, registry),
		remoteMetrics:  NewRemoteMetrics(cfg, registry),
		sources:        NewCardinalityLimiter(DefaultMaxSources),
	}
}

// RecordCompile records one rule group compile attempt.
func (c *Collector) RecordCompile(source, status string, duration time.Duration) {
	if !c.sources.Allow(source) {
		source = OtherSource
	}
	c.compileMetrics.RecordCompile(source, status, duration)
}

// SetRegisteredGroups sets the number of registered rule groups.
func (c *Collector) SetRegisteredGroups(n int) {
	c.compileMetrics.SetRegisteredGroups(n)
}

// RecordRemotePoll records one poll of the remote rule document.
func (c *Collector) RecordRemotePoll(changed bool, err error, duration time.Duration) {
	result := PollUnchanged
	switch {
	case err != nil:
		result = PollError
	case changed:
		result = PollUpdated
	}
	c.remoteMetrics.RecordPoll(result, duration)
}

// RegisterScriptCache exposes the script cache statistics reported by stats.
func (c *Collector) RegisterScriptCache(stats CacheStatsFunc) error {
	if stats == nil {
		return fmt.Errorf("cache stats function cannot be nil")
	}
	return registerScriptCache(c.config, c.registry, stats)
}

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// CardinalityLimiter caps the number of distinct values admitted for a label.
type CardinalityLimiter struct {
	maxCardinality int
	current        map[string]struct{}
	mu             sync.RWMutex
}

// NewCardinalityLimiter creates a new cardinality limiter with the specified
// maximum cardinality.
func NewCardinalityLimiter(maxCardinality int) *CardinalityLimiter {
	return &CardinalityLimiter{
		maxCardinality: maxCardinality,
		current:        make(map[string]struct{}),
	}
}

// Allow checks if a label set is allowed. Returns true if the label set
// already exists or if we haven't reached the cardinality limit yet.
// Returns false if adding this label set would exceed the limit.
func (cl *CardinalityLimiter) Allow(labelSet string) bool {
	cl.mu.RLock()
	if _, exists := cl.current[labelSet]; exists {
		cl.mu.RUnlock()
		return true
	}
	cl.mu.RUnlock()

	cl.mu.Lock()
	defer cl.mu.Unlock()

	// Double-check after acquiring write lock
	if _, exists := cl.current[labelSet]; exists {
		return true
	}

	if len(cl.current) >= cl.maxCardinality {
		return false
	}

	cl.current[labelSet] = struct{}{}
	return true
}

// Count returns the current cardinality.
func (cl *CardinalityLimiter) Count() int {
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	return len(cl.current)
}
