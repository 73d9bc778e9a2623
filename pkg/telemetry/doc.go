// Package telemetry groups the observability packages of the rule service.
//
// # Components
//
//   - logging: slog loggers with secret redaction
//   - metrics: Prometheus compile, remote poll and script cache metrics
//   - health: liveness and readiness probes
//
// # Usage
//
//	logger, err := logging.New(logging.FromConfig(cfg.Telemetry.Logging))
//	if err != nil {
//	    return err
//	}
//	logger.SetDefault()
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	mgr.WithRecorder(collector)
//
//	checker := health.New(5 * time.Second)
//	checker.RegisterCheck("journal", health.Reachable(journal))
//
// # Redaction
//
// Log records pass through a redacting handler. Bearer tokens, URL
// credentials, token query parameters and attributes with sensitive keys
// such as authorization or password are replaced with "***".
package telemetry
