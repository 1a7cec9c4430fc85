package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// validChannels are the execution channels the metrics model counts.
var validChannels = []string{"api", "mcp", "public", "webhook"}

// RecordOptions holds flags for the record command.
type RecordOptions struct {
	*RootOptions
	Database  string
	ElapsedMS int64
	Channel   string
	Failed    bool
}

// NewRecordCommand creates the record command.
func NewRecordCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RecordOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "record <flow-id> <version>",
		Short: "Record one execution against a version",
		Long: `Record one execution of a version: elapsed time, outcome, and the
channel it ran through.

Counters and the running average update atomically; a failed execution
additionally bumps the error counter. The version identifier may be a
number ("3" or "v3"), a tag, or a UUID.

Exit codes:
  0 - Execution recorded
  1 - Flow or version not found
  2 - Command error (invalid arguments, database not found, etc.)

Examples:
  flowvault record 0190a8f2-... v3 --db ./flows.db --elapsed-ms 150
  flowvault record 0190a8f2-... v3 --db ./flows.db --elapsed-ms 90 --channel webhook --failed`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecord(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database")
	cmd.Flags().Int64Var(&opts.ElapsedMS, "elapsed-ms", 0, "execution time in milliseconds (required)")
	_ = cmd.MarkFlagRequired("elapsed-ms")
	cmd.Flags().StringVar(&opts.Channel, "channel", "api", "execution channel (api|mcp|public|webhook)")
	cmd.Flags().BoolVar(&opts.Failed, "failed", false, "record the execution as failed")

	return cmd
}

func runRecord(opts *RecordOptions, flowArg, versionArg string, cmd *cobra.Command) error {
	configureLogging(opts.Verbose)
	ctx := context.Background()

	flowID, err := parseFlowID(flowArg)
	if err != nil {
		return err
	}
	if !isValidChannel(opts.Channel) {
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid channel %q: must be one of %v", opts.Channel, validChannels))
	}

	st, err := openStore(opts.RootOptions, opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	svc, err := newService(opts.RootOptions, st)
	if err != nil {
		return err
	}

	version, err := svc.GetVersion(ctx, flowID, versionArg)
	if err != nil {
		return operationError("record", err)
	}

	if err := svc.RecordExecutionMetrics(ctx, version.ID, opts.ElapsedMS, !opts.Failed, opts.Channel); err != nil {
		return operationError("record", err)
	}

	m, err := svc.GetVersionMetrics(ctx, version.ID)
	if err != nil {
		return operationError("record", err)
	}

	if opts.Format == "json" {
		return writeJSON(cmd.OutOrStdout(), CLIResponse{Status: "ok", Data: m})
	}

	w := cmd.OutOrStdout()
	outcome := "ok"
	if opts.Failed {
		outcome = "failed"
	}
	fmt.Fprintf(w, "Recorded %s execution for version %d (%dms via %s)\n",
		outcome, version.VersionNumber, opts.ElapsedMS, opts.Channel)
	fmt.Fprintf(w, "  Executions: %d (%d errors)\n", m.ExecutionCount, m.ErrorCount)
	if m.AvgExecutionTimeMS != nil {
		fmt.Fprintf(w, "  Avg Time:   %.1fms\n", *m.AvgExecutionTimeMS)
	}
	return nil
}

// isValidChannel checks the channel against the counted set.
func isValidChannel(channel string) bool {
	for _, c := range validChannels {
		if c == channel {
			return true
		}
	}
	return false
}
