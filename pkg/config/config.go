package config

import "time"

// Config is the root configuration structure for rulec.
// It contains all configuration sections for the compiler service.
type Config struct {
	// Rules configures where rule documents are read from.
	Rules RulesConfig `yaml:"rules"`

	// Scripts configures the file-backed script factory.
	Scripts ScriptsConfig `yaml:"scripts"`

	// Remote configures the remotely managed rule snapshot.
	Remote RemoteConfig `yaml:"remote"`

	// Journal configures the compile journal.
	Journal JournalConfig `yaml:"journal"`

	// Telemetry configures logging and metrics.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// RulesConfig configures rule document loading.
type RulesConfig struct {
	// Paths lists rule document files or directories.
	// Directories are walked for .yaml, .yml and .json files.
	Paths []string `yaml:"paths"`

	// Watch enables hot reload when a rule document changes.
	Watch bool `yaml:"watch"`

	// DebounceInterval delays a reload after the last file event.
	// Default: 100ms
	DebounceInterval time.Duration `yaml:"debounce_interval"`

	// MaxDocumentSize is the largest accepted rule document in bytes.
	// Default: 10MB
	MaxDocumentSize int64 `yaml:"max_document_size"`

	// SkipSchemaValidation disables the structural schema check that runs
	// before rule groups are built.
	SkipSchemaValidation bool `yaml:"skip_schema_validation"`
}

// ScriptsConfig configures user scripts referenced by "script" kinds.
type ScriptsConfig struct {
	// Dir holds one expression file per script identifier.
	// Empty disables file-backed scripts.
	Dir string `yaml:"dir"`

	// Watch invalidates cached scripts when their file changes.
	Watch bool `yaml:"watch"`
}

// RemoteConfig configures polling of a remotely managed rule document.
type RemoteConfig struct {
	// Enabled turns on remote polling.
	Enabled bool `yaml:"enabled"`

	// URL serves the rule document.
	URL string `yaml:"url"`

	// Schedule is a cron expression or descriptor (e.g. "@every 1m").
	// Default: "@every 1m"
	Schedule string `yaml:"schedule"`

	// Timeout bounds a single fetch.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout"`

	// Headers are sent with every request.
	Headers map[string]string `yaml:"headers"`
}

// JournalConfig configures the SQLite compile journal.
type JournalConfig struct {
	// Enabled turns on journaling of compile attempts.
	Enabled bool `yaml:"enabled"`

	// Driver is "sqlite" (pure Go) or "sqlite3" (cgo).
	// Default: "sqlite"
	Driver string `yaml:"driver"`

	// Path is the database file path.
	// Default: "data/journal.db"
	Path string `yaml:"path"`

	// RetentionDays prunes attempts older than this many days.
	// Zero keeps everything.
	RetentionDays int `yaml:"retention_days"`

	// PruneSchedule is the cron schedule for retention pruning.
	// Default: "0 3 * * *"
	PruneSchedule string `yaml:"prune_schedule"`
}

// TelemetryConfig contains observability configuration.
type TelemetryConfig struct {
	// Logging configures the process logger.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics configures Prometheus metrics.
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn" or "error".
	// Default: "info"
	Level string `yaml:"level"`

	// Format is the log output format: "json" or "text".
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes the source file and line in log records.
	AddSource bool `yaml:"add_source"`
}

// MetricsConfig contains Prometheus metrics configuration.
type MetricsConfig struct {
	// Enabled serves metrics over HTTP.
	Enabled bool `yaml:"enabled"`

	// ListenAddress is the metrics server address.
	// Default: "127.0.0.1:9090"
	ListenAddress string `yaml:"listen_address"`

	// Path is the HTTP path for the metrics endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace prefixes every metric name.
	// Default: "rulec"
	Namespace string `yaml:"namespace"`

	// Subsystem is the optional second metric name segment.
	Subsystem string `yaml:"subsystem"`

	// CompileDurationBuckets are the histogram buckets in seconds.
	CompileDurationBuckets []float64 `yaml:"compile_duration_buckets"`
}
