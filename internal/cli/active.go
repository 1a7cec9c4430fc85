package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/flowvault/flowvault/internal/flow"
)

// ActiveOptions holds flags for the active command.
type ActiveOptions struct {
	*RootOptions
	Database string
	Strict   bool
}

// NewActiveCommand creates the active command.
func NewActiveCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ActiveOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "active <flow-id>",
		Short: "Show a flow's active version",
		Long: `Show the version the flow currently serves.

A flow with published versions but no active one is a valid state; by
default that prints a notice and exits 0. With --strict it is an error,
matching what a caller serving the flow would see.

Exit codes:
  0 - Active version printed (or none, without --strict)
  1 - Flow not found, or no active version under --strict
  2 - Command error (invalid arguments, database not found, etc.)

Examples:
  flowvault active 0190a8f2-... --db ./flows.db
  flowvault active 0190a8f2-... --db ./flows.db --strict`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runActive(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database")
	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "treat a missing active version as an error")

	return cmd
}

func runActive(opts *ActiveOptions, flowArg string, cmd *cobra.Command) error {
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

	// "No active version" only makes sense for a flow that exists.
	if _, err := st.GetFlow(ctx, flowID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return NewExitError(ExitFailure, fmt.Sprintf("flow %s not found", flowID))
		}
		return operationError("active", err)
	}

	var read *flow.VersionRead
	if opts.Strict {
		read, err = svc.RequireActiveVersion(ctx, flowID)
	} else {
		read, err = svc.GetActiveVersion(ctx, flowID)
	}
	if err != nil {
		return operationError("active", err)
	}

	if read == nil {
		if opts.Format == "json" {
			return writeJSON(cmd.OutOrStdout(), CLIResponse{Status: "ok", Data: nil})
		}
		fmt.Fprintf(cmd.OutOrStdout(), "No active version for flow %s\n", flowID)
		return nil
	}

	if opts.Format == "json" {
		return writeJSON(cmd.OutOrStdout(), CLIResponse{Status: "ok", Data: read})
	}
	writeVersionText(cmd.OutOrStdout(), read, opts.Verbose)
	return nil
}
