/*
Package cli provides helpers shared by the socialschedule commands.

Output Formatting:

Command results are written as text or JSON:

	format, err := cli.ParseFormat(flagValue)
	if err != nil {
		return err
	}
	return cli.Write(os.Stdout, format, report)

Signal Handling:

For graceful shutdown on SIGINT/SIGTERM:

	ctx, stop := cli.SignalContext(context.Background())
	defer stop()

Exit Codes:

ExitCode maps command errors to process exit codes: 2 for configuration
errors, 1 for anything else.
*/
package cli
