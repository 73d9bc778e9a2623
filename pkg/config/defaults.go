package config

import "time"

// Default values for configuration fields.
const (
	// Rules defaults
	DefaultRulesDebounceInterval = 100 * time.Millisecond
	DefaultRulesMaxDocumentSize  = int64(10 * 1024 * 1024) // 10MB

	// Remote defaults
	DefaultRemoteSchedule = "@every 1m"
	DefaultRemoteTimeout  = 10 * time.Second

	// Journal defaults
	DefaultJournalDriver        = "sqlite"
	DefaultJournalPath          = "data/journal.db"
	DefaultJournalPruneSchedule = "0 3 * * *"

	// Telemetry defaults
	DefaultLogLevel             = "info"
	DefaultLogFormat            = "json"
	DefaultMetricsListenAddress = "127.0.0.1:9090"
	DefaultMetricsPath          = "/metrics"
	DefaultMetricsNamespace     = "rulec"
)

// DefaultCompileDurationBuckets are histogram buckets for compile duration
// in seconds. Compiles are expected to finish well under a second.
var DefaultCompileDurationBuckets = []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1}

// ApplyDefaults fills zero-valued fields with their defaults.
// Boolean switches default to false and are left alone.
func ApplyDefaults(cfg *Config) {
	// Rules defaults
	if cfg.Rules.DebounceInterval == 0 {
		cfg.Rules.DebounceInterval = DefaultRulesDebounceInterval
	}
	if cfg.Rules.MaxDocumentSize == 0 {
		cfg.Rules.MaxDocumentSize = DefaultRulesMaxDocumentSize
	}

	// Remote defaults
	if cfg.Remote.Schedule == "" {
		cfg.Remote.Schedule = DefaultRemoteSchedule
	}
	if cfg.Remote.Timeout == 0 {
		cfg.Remote.Timeout = DefaultRemoteTimeout
	}

	// Journal defaults
	if cfg.Journal.Driver == "" {
		cfg.Journal.Driver = DefaultJournalDriver
	}
	if cfg.Journal.Path == "" {
		cfg.Journal.Path = DefaultJournalPath
	}
	if cfg.Journal.PruneSchedule == "" {
		cfg.Journal.PruneSchedule = DefaultJournalPruneSchedule
	}

	// Telemetry defaults
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLogLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLogFormat
	}
	if cfg.Telemetry.Metrics.ListenAddress == "" {
		cfg.Telemetry.Metrics.ListenAddress = DefaultMetricsListenAddress
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultMetricsNamespace
	}
	if len(cfg.Telemetry.Metrics.CompileDurationBuckets) == 0 {
		cfg.Telemetry.Metrics.CompileDurationBuckets = append([]float64(nil), DefaultCompileDurationBuckets...)
	}
}

// NewDefaultConfig returns a configuration with every default applied.
func NewDefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
