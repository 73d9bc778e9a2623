package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"mercator-hq/rulec/pkg/cli"
	"mercator-hq/rulec/pkg/rgl"
	"mercator-hq/rulec/pkg/rgl/ast"
	rglErrors "mercator-hq/rulec/pkg/rgl/errors"
	"mercator-hq/rulec/pkg/rgl/parser"
	"mercator-hq/rulec/pkg/rgl/script"
	"mercator-hq/rulec/pkg/rules/manager"
)

var lintFlags struct {
	file    string
	dir     string
	scripts string
	format  string
}

var lintCmd = &cobra.Command{
	Use:   "lint",
	Short: "Validate rule documents",
	Long: `Validate rule documents without registering them.

Every group is built and validated. Script and class references are loaded
once to prove they resolve; nothing is bound or registered.

Examples:
  # Lint single file
  rulec lint --file rules/orders.yaml

  # Lint a directory, resolving scripts from scripts/
  rulec lint --dir rules/ --scripts scripts/

  # JSON output for CI/CD
  rulec lint --dir rules/ --format json`,
	RunE: lintDocuments,
}

func init() {
	rootCmd.AddCommand(lintCmd)

	lintCmd.Flags().StringVarP(&lintFlags.file, "file", "f", "", "rule document to validate")
	lintCmd.Flags().StringVarP(&lintFlags.dir, "dir", "d", "", "directory of rule documents")
	lintCmd.Flags().StringVar(&lintFlags.scripts, "scripts", "", "script directory for script kinds")
	lintCmd.Flags().StringVar(&lintFlags.format, "format", "text", "output format: text, json")
}

// LintResult is the outcome for one rule document.
type LintResult struct {
	File   string     `json:"file"`
	Valid  bool       `json:"valid"`
	Groups []string   `json:"groups,omitempty"`
	Error  *LintIssue `json:"error,omitempty"`

	err *rglErrors.ConfigurationError
}

// LintIssue describes the first violation found in a document.
type LintIssue struct {
	Message    string `json:"message"`
	Group      string `json:"group,omitempty"`
	Rule       string `json:"rule,omitempty"`
	Path       string `json:"path,omitempty"`
	Line       int    `json:"line,omitempty"`
	Column     int    `json:"column,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

func lintDocuments(cmd *cobra.Command, args []string) error {
	paths := documentPaths(lintFlags.file, lintFlags.dir)
	if len(paths) == 0 {
		return cli.NewConfigError("file", "either --file or --dir must be specified")
	}

	format, err := cli.ParseOutputFormat(lintFlags.format)
	if err != nil {
		return err
	}

	scripts, _, err := newScriptFactory(lintFlags.scripts)
	if err != nil {
		return err
	}

	files, err := manager.DocumentFiles(paths)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return cli.NewConfigError("dir", "no rule documents found")
	}

	results := make([]LintResult, 0, len(files))
	var firstErr error
	invalid := 0
	for _, file := range files {
		result, err := lintFile(file, scripts)
		if err != nil {
			invalid++
			if firstErr == nil {
				firstErr = err
			}
		}
		results = append(results, result)
	}

	out := cmd.OutOrStdout()
	if format == cli.FormatJSON {
		if err := cli.NewFormatter(format).FormatTo(out, results); err != nil {
			return err
		}
	} else {
		writeLintText(out, results)
	}

	if firstErr != nil {
		return cli.NewCommandError("lint", fmt.Errorf("%d of %d document(s) invalid: %w", invalid, len(files), firstErr))
	}
	return nil
}

func lintFile(path string, scripts script.Factory) (LintResult, error) {
	result := LintResult{File: path, Valid: true}

	text, err := parser.NewParser().ReadFile(path)
	if err == nil {
		var groups []*ast.RuleGroup
		groups, err = rgl.Lint(path, text, scripts, nil)
		for _, g := range groups {
			result.Groups = append(result.Groups, manager.Key(g.Project, g.Name))
		}
		if cfgErr, ok := rglErrors.AsConfigurationError(err); ok && cfgErr.Context == "" && cfgErr.Location.IsValid() {
			rglErrors.WithContext(cfgErr, text, 2)
		}
	}
	if err == nil {
		return result, nil
	}

	result.Valid = false
	cfgErr, ok := rglErrors.AsConfigurationError(err)
	if !ok {
		cfgErr = rglErrors.Wrap(err, "failed to lint document")
	}
	result.err = cfgErr
	result.Error = &LintIssue{
		Message:    cfgErr.Message,
		Group:      cfgErr.Group,
		Rule:       cfgErr.Rule,
		Path:       cfgErr.Path,
		Line:       cfgErr.Location.Line,
		Column:     cfgErr.Location.Column,
		Suggestion: cfgErr.Suggestion,
	}
	return result, cfgErr
}

func writeLintText(w io.Writer, results []LintResult) {
	valid := 0
	for _, result := range results {
		fmt.Fprintf(w, "Linting %s...\n", result.File)
		if result.Valid {
			valid++
			fmt.Fprintf(w, "✓ %d rule group(s) valid\n\n", len(result.Groups))
			continue
		}
		fmt.Fprintf(w, "✗ %s\n", result.err.Detailed())
	}

	fmt.Fprintln(w, "Summary:")
	fmt.Fprintf(w, "  %d valid, %d invalid\n", valid, len(results)-valid)
}
