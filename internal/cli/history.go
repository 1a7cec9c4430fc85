package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database string
	Limit    int
	Offset   int
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history <flow-id>",
		Short: "List a flow's versions, newest first",
		Long: `List the flow's published versions, newest first.

Each line shows the version number, tag, status, publish time, and
execution counters. The active version is marked with a star.

Exit codes:
  0 - History printed (possibly empty)
  1 - Flow not found
  2 - Command error (invalid arguments, database not found, etc.)

Examples:
  flowvault history 0190a8f2-... --db ./flows.db
  flowvault history 0190a8f2-... --db ./flows.db --limit 10 --offset 10`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "page size (default 50)")
	cmd.Flags().IntVar(&opts.Offset, "offset", 0, "versions to skip")

	return cmd
}

func runHistory(opts *HistoryOptions, flowArg string, cmd *cobra.Command) error {
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

	// An unknown flow and a flow with no versions both list as empty;
	// tell them apart before listing.
	if _, err := st.GetFlow(ctx, flowID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return NewExitError(ExitFailure, fmt.Sprintf("flow %s not found", flowID))
		}
		return operationError("history", err)
	}

	summaries, err := svc.GetVersionHistory(ctx, flowID, opts.Limit, opts.Offset)
	if err != nil {
		return operationError("history", err)
	}

	if opts.Format == "json" {
		return writeJSON(cmd.OutOrStdout(), CLIResponse{Status: "ok", Data: map[string]any{
			"flow_id":  flowID,
			"versions": summaries,
		}})
	}

	w := cmd.OutOrStdout()
	if len(summaries) == 0 {
		fmt.Fprintln(w, "No versions published.")
		return nil
	}

	fmt.Fprintf(w, "History for flow %s (%d shown)\n", flowID, len(summaries))
	fmt.Fprintln(w)
	writeSummaryLines(w, summaries)
	return nil
}
