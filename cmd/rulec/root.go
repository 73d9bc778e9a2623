package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"mercator-hq/rulec/pkg/cli"
	"mercator-hq/rulec/pkg/telemetry/logging"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "rulec",
	Short: "rulec - rule group compiler",
	Long: `rulec turns declarative rule engine documents into validated rule groups
with every condition and action bound to an executable handler.

Documents are YAML or JSON with rule groups under "ruleengine.groups". Each
group is validated, resolved and registered independently.`,
	Version:           Version,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setupCommandLogging,
}

// Execute runs the root command and exits with cli.ExitCode on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.ExitCode(err))
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (run only; defaults plus RULEC_* environment when empty)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// setupCommandLogging installs a stderr text logger for one-shot commands.
// run replaces it with the configured logger.
func setupCommandLogging(cmd *cobra.Command, args []string) error {
	level := "warn"
	if verbose {
		level = "debug"
	}

	logger, err := logging.New(logging.Config{
		Level:  level,
		Format: string(logging.FormatText),
		Redact: true,
		Writer: cmd.ErrOrStderr(),
	})
	if err != nil {
		return err
	}
	logger.SetDefault()
	return nil
}
