package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"syscall"
	"testing"
	"time"

	"mercator-hq/rulec/pkg/config"
	rglErrors "mercator-hq/rulec/pkg/rgl/errors"
)

func TestParseOutputFormat(t *testing.T) {
	tests := []struct {
		input   string
		want    OutputFormat
		wantErr bool
	}{
		{"", FormatText, false},
		{"text", FormatText, false},
		{"JSON", FormatJSON, false},
		{"csv", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseOutputFormat(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseOutputFormat(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseOutputFormat(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestTextFormatter(t *testing.T) {
	formatter := &TextFormatter{}
	buf := &bytes.Buffer{}

	if err := formatter.FormatTo(buf, "2 group(s) registered"); err != nil {
		t.Fatalf("FormatTo() error = %v", err)
	}
	if buf.String() != "2 group(s) registered\n" {
		t.Errorf("FormatTo() = %q", buf.String())
	}

	out, err := formatter.Format(42)
	if err != nil || string(out) != "42\n" {
		t.Errorf("Format() = %q, %v", out, err)
	}
}

func TestJSONFormatter(t *testing.T) {
	type result struct {
		File  string `json:"file"`
		Valid bool   `json:"valid"`
	}

	tests := []struct {
		name   string
		indent bool
	}{
		{name: "compact", indent: false},
		{name: "indented", indent: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			formatter := &JSONFormatter{Indent: tt.indent}
			buf := &bytes.Buffer{}
			if err := formatter.FormatTo(buf, result{File: "rules.yaml", Valid: true}); err != nil {
				t.Fatalf("FormatTo() error = %v", err)
			}

			var got result
			if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
				t.Fatalf("output is not JSON: %v", err)
			}
			if got.File != "rules.yaml" || !got.Valid {
				t.Errorf("decoded = %+v", got)
			}
			if tt.indent != bytes.Contains(buf.Bytes(), []byte("\n  ")) {
				t.Errorf("indentation mismatch: %q", buf.String())
			}
		})
	}
}

func TestNewFormatter(t *testing.T) {
	if _, ok := NewFormatter(FormatJSON).(*JSONFormatter); !ok {
		t.Error("NewFormatter(FormatJSON) should return *JSONFormatter")
	}
	if _, ok := NewFormatter(FormatText).(*TextFormatter); !ok {
		t.Error("NewFormatter(FormatText) should return *TextFormatter")
	}
}

func TestCommandError(t *testing.T) {
	underlying := errors.New("underlying error")
	err := NewCommandError("lint", underlying)

	if err.Error() != "command lint failed: underlying error" {
		t.Errorf("Error() = %q", err.Error())
	}
	if !errors.Is(err, underlying) {
		t.Error("CommandError should unwrap to the underlying error")
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "nil", err: nil, want: ExitOK},
		{name: "generic", err: errors.New("boom"), want: ExitFailure},
		{
			name: "configuration error wrapped in command error",
			err:  NewCommandError("compile", rglErrors.New("rule has no conditions")),
			want: ExitInvalidRules,
		},
		{
			name: "cli config error",
			err:  NewConfigError("format", "unknown"),
			want: ExitBadConfig,
		},
		{
			name: "config validation error",
			err:  fmt.Errorf("load: %w", config.ValidationError{Errors: []config.FieldError{{Field: "remote.url", Message: "required"}}}),
			want: ExitBadConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.want {
				t.Errorf("ExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestSetupSignalHandler(t *testing.T) {
	ctx := SetupSignalHandler()

	select {
	case <-ctx.Done():
		t.Error("context should not be cancelled initially")
	case <-time.After(10 * time.Millisecond):
	}
}

func TestNotifyReload(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reload := NotifyReload(ctx)

	if err := syscall.Kill(os.Getpid(), syscall.SIGHUP); err != nil {
		t.Fatalf("failed to send SIGHUP: %v", err)
	}

	select {
	case <-reload:
	case <-time.After(2 * time.Second):
		t.Fatal("no reload notification after SIGHUP")
	}
}
