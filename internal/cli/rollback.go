package cli

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"
)

// RollbackOptions holds flags for the rollback command.
type RollbackOptions struct {
	*RootOptions
	Database string
}

// NewRollbackCommand creates the rollback command.
func NewRollbackCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RollbackOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "rollback <flow-id> <version>",
		Short: "Repoint a flow at an earlier version",
		Long: `Repoint the flow at a previously published version.

Rollback never creates a new version; it activates the old snapshot and
bumps its rollback counter. The version identifier may be a number
("3" or "v3"), a tag, or a UUID.

Exit codes:
  0 - Rolled back
  1 - Flow or version not found
  2 - Command error (invalid arguments, database not found, etc.)

Examples:
  flowvault rollback 0190a8f2-... v1 --db ./flows.db
  flowvault rollback 0190a8f2-... last-good --db ./flows.db`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRollback(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database")

	return cmd
}

func runRollback(opts *RollbackOptions, flowArg, versionArg string, cmd *cobra.Command) error {
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

	target, err := svc.GetVersion(ctx, flowID, versionArg)
	if err != nil {
		return operationError("rollback", err)
	}

	read, err := svc.RollbackToVersion(ctx, flowID, target.ID)
	if err != nil {
		return operationError("rollback", err)
	}

	// The repoint already committed; a failed counter bump is not worth
	// reporting the whole rollback as failed.
	if err := svc.RecordRollback(ctx, read.ID); err != nil {
		slog.Warn("failed to record rollback", "version_id", read.ID, "error", err)
	}

	if opts.Format == "json" {
		return writeJSON(cmd.OutOrStdout(), CLIResponse{Status: "ok", Data: read})
	}
	writeVersionText(cmd.OutOrStdout(), read, opts.Verbose)
	return nil
}
