// Package metrics provides Prometheus metrics for rulec.
//
// # Metrics
//
//   - Compile metrics: attempts by source and status, duration, registered groups
//   - Remote metrics: poll results and duration, snapshot change time
//   - Script cache metrics: entries, hits and misses of the file-backed factory
//
// # Usage
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	mgr, err := manager.NewManager(registry, scripts, nil, nil)
//	if err != nil {
//	    return err
//	}
//	mgr.WithRecorder(collector)
//
//	mux := http.NewServeMux()
//	mux.Handle("/metrics", collector.Handler())
//
// Compile sources are file paths and therefore unbounded; past
// DefaultMaxSources distinct values they are reported as "other".
package metrics
