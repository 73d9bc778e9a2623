/*
Package cli provides command-line helpers for the rulec command.

Output Formatting:

Commands print results as text or JSON:

	format, err := cli.ParseOutputFormat(flagValue)
	if err != nil {
		return err
	}
	if err := cli.NewFormatter(format).FormatTo(os.Stdout, result); err != nil {
		return err
	}

Exit Codes:

ExitCode maps command errors to process exit codes. Rule documents that
fail to compile exit with ExitInvalidRules.

Signal Handling:

	ctx := cli.SetupSignalHandler()  // canceled on SIGINT/SIGTERM
	reload := cli.NotifyReload(ctx)  // receives on SIGHUP
*/
package cli
