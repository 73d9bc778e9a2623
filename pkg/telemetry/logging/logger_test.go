package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"mercator-hq/rulec/pkg/config"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name       string
		config     Config
		wantFormat LogFormat
		wantLevel  slog.Level
		wantErr    bool
	}{
		{
			name:       "defaults",
			config:     Config{},
			wantFormat: FormatJSON,
			wantLevel:  slog.LevelInfo,
		},
		{
			name:       "text debug",
			config:     Config{Level: "debug", Format: "text"},
			wantFormat: FormatText,
			wantLevel:  slog.LevelDebug,
		},
		{
			name:       "upper case",
			config:     Config{Level: "WARNING", Format: "JSON"},
			wantFormat: FormatJSON,
			wantLevel:  slog.LevelWarn,
		},
		{
			name:    "invalid level",
			config:  Config{Level: "trace"},
			wantErr: true,
		},
		{
			name:    "invalid format",
			config:  Config{Format: "console"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.config.Writer = &buf

			logger, err := New(tt.config)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if logger.Format() != tt.wantFormat {
				t.Errorf("Format() = %v, want %v", logger.Format(), tt.wantFormat)
			}
			if logger.Level() != tt.wantLevel {
				t.Errorf("Level() = %v, want %v", logger.Level(), tt.wantLevel)
			}
		})
	}
}

func TestLogger_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Level: "info", Format: "json", Writer: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	logger.With("component", "rules.manager").Info("Rule group registered", "group", "vip", "rules", 2)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, buf.String())
	}
	if entry["msg"] != "Rule group registered" {
		t.Errorf("msg = %v", entry["msg"])
	}
	if entry["component"] != "rules.manager" || entry["group"] != "vip" {
		t.Errorf("entry = %v", entry)
	}
}

func TestLogger_SetLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Level: "info", Format: "text", Writer: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	derived := logger.With("component", "test")

	derived.Debug("hidden")
	if buf.Len() != 0 {
		t.Fatalf("debug record written at info level: %s", buf.String())
	}

	if err := logger.SetLevel("debug"); err != nil {
		t.Fatalf("SetLevel() error = %v", err)
	}
	derived.Debug("visible")
	if !strings.Contains(buf.String(), "visible") {
		t.Errorf("derived logger did not follow level change: %q", buf.String())
	}

	if err := logger.SetLevel("loud"); err == nil {
		t.Error("SetLevel() error = nil for unknown level")
	}
}

func TestFromConfig(t *testing.T) {
	cfg := FromConfig(config.LoggingConfig{Level: "warn", Format: "text", AddSource: true})
	if cfg.Level != "warn" || cfg.Format != "text" || !cfg.AddSource || !cfg.Redact {
		t.Errorf("FromConfig() = %+v", cfg)
	}
}

func TestLogger_SetDefault(t *testing.T) {
	previous := slog.Default()
	t.Cleanup(func() { slog.SetDefault(previous) })

	var buf bytes.Buffer
	logger, err := New(Config{Format: "text", Writer: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	logger.SetDefault()

	slog.Default().Info("through default")
	if !strings.Contains(buf.String(), "through default") {
		t.Errorf("default logger output = %q", buf.String())
	}
}
