package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"mercator-hq/rulec/pkg/cli"
)

func testCommand() (*cobra.Command, *bytes.Buffer) {
	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	return cmd, &buf
}

func TestLintDocuments(t *testing.T) {
	tests := []struct {
		name     string
		file     string
		dir      string
		format   string
		wantErr  bool
		wantCode int
		wantOut  []string
	}{
		{
			name:    "valid yaml",
			file:    "testdata/valid.yaml",
			wantOut: []string{"Linting testdata/valid.yaml", "✓ 1 rule group(s) valid", "1 valid, 0 invalid"},
		},
		{
			name:     "unknown operation",
			file:     "testdata/invalid.yaml",
			wantErr:  true,
			wantCode: cli.ExitInvalidRules,
			wantOut:  []string{`unknown operation kind "gtt"`, "late-refund", "1 invalid"},
		},
		{
			name:     "directory mixes results",
			dir:      "testdata",
			wantErr:  true,
			wantCode: cli.ExitInvalidRules,
			wantOut:  []string{"valid.json", "2 valid, 1 invalid"},
		},
		{
			name:     "missing flags",
			wantErr:  true,
			wantCode: cli.ExitBadConfig,
		},
		{
			name:     "bad format",
			file:     "testdata/valid.yaml",
			format:   "xml",
			wantErr:  true,
			wantCode: cli.ExitBadConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lintFlags.file = tt.file
			lintFlags.dir = tt.dir
			lintFlags.scripts = ""
			lintFlags.format = tt.format

			cmd, out := testCommand()
			err := lintDocuments(cmd, nil)
			if (err != nil) != tt.wantErr {
				t.Fatalf("lintDocuments() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && cli.ExitCode(err) != tt.wantCode {
				t.Errorf("ExitCode() = %d, want %d (error %v)", cli.ExitCode(err), tt.wantCode, err)
			}
			for _, want := range tt.wantOut {
				if !strings.Contains(out.String(), want) {
					t.Errorf("output missing %q:\n%s", want, out.String())
				}
			}
		})
	}
}

func TestLintDocuments_JSON(t *testing.T) {
	lintFlags.file = "testdata/invalid.yaml"
	lintFlags.dir = ""
	lintFlags.scripts = ""
	lintFlags.format = "json"

	cmd, out := testCommand()
	if err := lintDocuments(cmd, nil); err == nil {
		t.Fatal("lintDocuments() error = nil, want error")
	}

	var results []LintResult
	if err := json.Unmarshal(out.Bytes(), &results); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out.String())
	}
	if len(results) != 1 || results[0].Valid || results[0].Error == nil {
		t.Fatalf("results = %+v", results)
	}
	issue := results[0].Error
	if issue.Group != "refunds" || issue.Rule != "late-refund" {
		t.Errorf("issue = %+v, want group refunds rule late-refund", issue)
	}
	if issue.Line == 0 {
		t.Error("issue has no line number")
	}
}

func TestLintDocuments_Scripts(t *testing.T) {
	dir := t.TempDir()
	scripts := filepath.Join(dir, "scripts")
	if err := os.Mkdir(scripts, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(scripts, "is_vip.expr"), []byte(`facts.customer.tier == "gold"`), 0o644); err != nil {
		t.Fatal(err)
	}
	doc := filepath.Join(dir, "rules.yaml")
	if err := os.WriteFile(doc, []byte(`
ruleengine:
  groups:
    - name: vip
      project: shop
      rules:
        - name: vip
          when:
            - operation: script
              target: is_vip
`), 0o644); err != nil {
		t.Fatal(err)
	}

	lintFlags.file = doc
	lintFlags.dir = ""
	lintFlags.format = "text"

	lintFlags.scripts = scripts
	cmd, out := testCommand()
	if err := lintDocuments(cmd, nil); err != nil {
		t.Fatalf("lintDocuments() with scripts error = %v\n%s", err, out.String())
	}

	lintFlags.scripts = ""
	cmd, _ = testCommand()
	if err := lintDocuments(cmd, nil); err == nil {
		t.Error("lintDocuments() without scripts error = nil, want unresolvable script")
	}
}

func TestCompileDocuments(t *testing.T) {
	compileFlags.file = ""
	compileFlags.dir = "testdata"
	compileFlags.scripts = ""
	compileFlags.format = "json"

	cmd, out := testCommand()
	err := compileDocuments(cmd, nil)
	if err == nil {
		t.Fatal("compileDocuments() error = nil, want error for invalid.yaml")
	}
	if cli.ExitCode(err) != cli.ExitInvalidRules {
		t.Errorf("ExitCode() = %d, want %d", cli.ExitCode(err), cli.ExitInvalidRules)
	}

	var summary CompileSummary
	if err := json.Unmarshal(out.Bytes(), &summary); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out.String())
	}

	var keys []string
	for _, g := range summary.Groups {
		keys = append(keys, g.Key)
	}
	if got := strings.Join(keys, ","); got != "shop/orders,shop/payments" {
		t.Errorf("registered groups = %q, want %q", got, "shop/orders,shop/payments")
	}
	if len(summary.Errors) != 1 || !strings.Contains(summary.Errors[0], "gtt") {
		t.Errorf("errors = %v", summary.Errors)
	}
	if summary.Version == "" {
		t.Error("summary has no registry version")
	}
}

func TestCompileDocuments_Text(t *testing.T) {
	compileFlags.file = "testdata/valid.yaml"
	compileFlags.dir = ""
	compileFlags.scripts = ""
	compileFlags.format = "text"

	cmd, out := testCommand()
	if err := compileDocuments(cmd, nil); err != nil {
		t.Fatalf("compileDocuments() error = %v", err)
	}
	if !strings.Contains(out.String(), "✓ shop/orders (2 rule(s), enabled)") {
		t.Errorf("output = %q", out.String())
	}
	if !strings.Contains(out.String(), "1 group(s) registered, 0 error(s)") {
		t.Errorf("output = %q", out.String())
	}
}

func TestVersionCommand(t *testing.T) {
	origVersion := Version
	defer func() { Version = origVersion }()
	Version = "0.1.0-test"

	cmd, out := testCommand()
	versionCmd.Run(cmd, nil)

	if !strings.HasPrefix(out.String(), "rulec 0.1.0-test\n") {
		t.Errorf("version output = %q", out.String())
	}
}

func TestRootCommand_Subcommands(t *testing.T) {
	want := map[string]bool{"lint": false, "compile": false, "run": false, "version": false}
	for _, c := range rootCmd.Commands() {
		if _, ok := want[c.Name()]; ok {
			want[c.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}
