package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rulec.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestLoadConfig_ValidFile(t *testing.T) {
	path := writeConfig(t, `
rules:
  paths: ["./rules", "./more-rules/groups.yaml"]
  watch: true
  debounce_interval: "250ms"
scripts:
  dir: "./scripts"
remote:
  enabled: true
  url: "https://config.example.com/rules.yaml"
  schedule: "@every 30s"
  headers:
    Authorization: "Bearer token"
journal:
  enabled: true
  driver: "sqlite3"
  path: "./journal.db"
  retention_days: 7
telemetry:
  logging:
    level: "debug"
    format: "text"
  metrics:
    enabled: true
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if len(cfg.Rules.Paths) != 2 || cfg.Rules.Paths[1] != "./more-rules/groups.yaml" {
		t.Errorf("Rules.Paths = %v", cfg.Rules.Paths)
	}
	if cfg.Rules.DebounceInterval != 250*time.Millisecond {
		t.Errorf("Rules.DebounceInterval = %v, want 250ms", cfg.Rules.DebounceInterval)
	}
	if cfg.Rules.MaxDocumentSize != DefaultRulesMaxDocumentSize {
		t.Errorf("Rules.MaxDocumentSize = %d, want default %d", cfg.Rules.MaxDocumentSize, DefaultRulesMaxDocumentSize)
	}
	if cfg.Remote.Schedule != "@every 30s" {
		t.Errorf("Remote.Schedule = %q", cfg.Remote.Schedule)
	}
	if cfg.Remote.Timeout != DefaultRemoteTimeout {
		t.Errorf("Remote.Timeout = %v, want %v", cfg.Remote.Timeout, DefaultRemoteTimeout)
	}
	if cfg.Remote.Headers["Authorization"] != "Bearer token" {
		t.Errorf("Remote.Headers = %v", cfg.Remote.Headers)
	}
	if cfg.Journal.Driver != "sqlite3" || cfg.Journal.RetentionDays != 7 {
		t.Errorf("Journal = %+v", cfg.Journal)
	}
	if cfg.Telemetry.Logging.Level != "debug" || cfg.Telemetry.Logging.Format != "text" {
		t.Errorf("Logging = %+v", cfg.Telemetry.Logging)
	}
	if cfg.Telemetry.Metrics.Path != DefaultMetricsPath {
		t.Errorf("Metrics.Path = %q, want %q", cfg.Telemetry.Metrics.Path, DefaultMetricsPath)
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "malformed yaml",
			content: "rules: [",
			wantErr: "failed to parse configuration file",
		},
		{
			name: "remote without url",
			content: `
remote:
  enabled: true
`,
			wantErr: "remote.url",
		},
		{
			name: "bad log level",
			content: `
telemetry:
  logging:
    level: "verbose"
`,
			wantErr: "telemetry.logging.level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.content))
			if err == nil {
				t.Fatal("LoadConfig() error = nil, want error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("LoadConfig() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil {
		t.Fatal("LoadConfig() error = nil, want error")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("LoadConfig() error = %v, want os.ErrNotExist", err)
	}
}

func TestLoadConfig_ValidationErrorType(t *testing.T) {
	path := writeConfig(t, `
journal:
  enabled: true
  driver: "postgres"
`)

	_, err := LoadConfig(path)
	var ve ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("LoadConfig() error = %v, want ValidationError", err)
	}
	if len(ve.Errors) != 1 || ve.Errors[0].Field != "journal.driver" {
		t.Errorf("ValidationError.Errors = %v", ve.Errors)
	}
}

func TestLoadConfigWithEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
rules:
  paths: ["./rules"]
telemetry:
  logging:
    level: "info"
`)

	t.Setenv("RULEC_RULES_PATHS", "a.yaml, ,b.yaml")
	t.Setenv("RULEC_RULES_WATCH", "true")
	t.Setenv("RULEC_REMOTE_ENABLED", "true")
	t.Setenv("RULEC_REMOTE_URL", "http://localhost:8081/rules.json")
	t.Setenv("RULEC_REMOTE_TIMEOUT", "3s")
	t.Setenv("RULEC_REMOTE_AUTHORIZATION", "Bearer abc")
	t.Setenv("RULEC_JOURNAL_RETENTION_DAYS", "not-a-number")
	t.Setenv("RULEC_TELEMETRY_LOGGING_LEVEL", "warn")

	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		t.Fatalf("LoadConfigWithEnvOverrides() error = %v", err)
	}

	if got := strings.Join(cfg.Rules.Paths, "|"); got != "a.yaml|b.yaml" {
		t.Errorf("Rules.Paths = %q, want %q", got, "a.yaml|b.yaml")
	}
	if !cfg.Rules.Watch {
		t.Error("Rules.Watch = false, want true")
	}
	if cfg.Remote.URL != "http://localhost:8081/rules.json" {
		t.Errorf("Remote.URL = %q", cfg.Remote.URL)
	}
	if cfg.Remote.Timeout != 3*time.Second {
		t.Errorf("Remote.Timeout = %v, want 3s", cfg.Remote.Timeout)
	}
	if cfg.Remote.Headers["Authorization"] != "Bearer abc" {
		t.Errorf("Remote.Headers = %v", cfg.Remote.Headers)
	}
	if cfg.Journal.RetentionDays != 0 {
		t.Errorf("Journal.RetentionDays = %d, want unparseable override ignored", cfg.Journal.RetentionDays)
	}
	if cfg.Telemetry.Logging.Level != "warn" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Telemetry.Logging.Level, "warn")
	}
}

func TestLoadConfigWithEnvOverrides_NoFile(t *testing.T) {
	t.Setenv("RULEC_SCRIPTS_DIR", "/opt/scripts")

	cfg, err := LoadConfigWithEnvOverrides("")
	if err != nil {
		t.Fatalf("LoadConfigWithEnvOverrides() error = %v", err)
	}
	if cfg.Scripts.Dir != "/opt/scripts" {
		t.Errorf("Scripts.Dir = %q, want %q", cfg.Scripts.Dir, "/opt/scripts")
	}
	if cfg.Telemetry.Logging.Level != DefaultLogLevel {
		t.Errorf("Logging.Level = %q, want default %q", cfg.Telemetry.Logging.Level, DefaultLogLevel)
	}
}

func TestLoadConfigWithEnvOverrides_InvalidOverride(t *testing.T) {
	t.Setenv("RULEC_TELEMETRY_LOGGING_FORMAT", "xml")

	if _, err := LoadConfigWithEnvOverrides(""); err == nil {
		t.Fatal("LoadConfigWithEnvOverrides() error = nil, want validation error")
	}
}
