package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// MetricsOptions holds flags for the metrics command.
type MetricsOptions struct {
	*RootOptions
	Database string
}

// NewMetricsCommand creates the metrics command.
func NewMetricsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &MetricsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "metrics <flow-id> <version>",
		Short: "Show a version's execution metrics",
		Long: `Show the execution counters accumulated for a version.

Covers total executions, errors, average execution time, per-channel
counters, and rollbacks. A freshly published version reports zeros.
The version identifier may be a number ("3" or "v3"), a tag, or a
UUID.

Exit codes:
  0 - Metrics printed
  1 - Flow or version not found
  2 - Command error (invalid arguments, database not found, etc.)

Examples:
  flowvault metrics 0190a8f2-... v3 --db ./flows.db
  flowvault metrics 0190a8f2-... stable --db ./flows.db --format json`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMetrics(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database")

	return cmd
}

func runMetrics(opts *MetricsOptions, flowArg, versionArg string, cmd *cobra.Command) error {
	configureLogging(opts.Verbose)
	ctx := context.Background()

	flowID, err := parseFlowID(flowArg)
	if err != nil {
		return err
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
		return operationError("metrics", err)
	}

	m, err := svc.GetVersionMetrics(ctx, version.ID)
	if err != nil {
		return operationError("metrics", err)
	}

	if opts.Format == "json" {
		return writeJSON(cmd.OutOrStdout(), CLIResponse{Status: "ok", Data: m})
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Metrics for version %d (%s)\n", version.VersionNumber, truncateID(m.VersionID.String()))
	fmt.Fprintf(w, "  Executions: %d (%d errors)\n", m.ExecutionCount, m.ErrorCount)
	if m.AvgExecutionTimeMS != nil {
		fmt.Fprintf(w, "  Avg Time:   %.1fms\n", *m.AvgExecutionTimeMS)
	}
	if m.LastExecutedAt != nil {
		fmt.Fprintf(w, "  Last Run:   %s\n", formatTime(*m.LastExecutedAt))
	}
	if m.LastErrorAt != nil {
		fmt.Fprintf(w, "  Last Error: %s\n", formatTime(*m.LastErrorAt))
	}
	fmt.Fprintf(w, "  Channels:   api=%d mcp=%d public=%d webhook=%d\n",
		m.APIExecutions, m.MCPExecutions, m.PublicExecutions, m.WebhookExecutions)
	fmt.Fprintf(w, "  Rollbacks:  %d\n", m.RollbackCount)
	return nil
}
