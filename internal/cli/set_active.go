package cli

import (
	"context"

	"github.com/spf13/cobra"
)

// SetActiveOptions holds flags for the set-active command.
type SetActiveOptions struct {
	*RootOptions
	Database string
}

// NewSetActiveCommand creates the set-active command.
func NewSetActiveCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SetActiveOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "set-active <flow-id> <version>",
		Short: "Make a version the flow's active one",
		Long: `Make the given version the flow's single active one.

Every sibling version is deactivated and the flow's pointer repointed in
one transaction. The version identifier may be a number ("3" or "v3"),
a tag, or a UUID.

Exit codes:
  0 - Version activated
  1 - Flow or version not found
  2 - Command error (invalid arguments, database not found, etc.)

Examples:
  flowvault set-active 0190a8f2-... v2 --db ./flows.db
  flowvault set-active 0190a8f2-... stable --db ./flows.db`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSetActive(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database")

	return cmd
}

func runSetActive(opts *SetActiveOptions, flowArg, versionArg string, cmd *cobra.Command) error {
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
		return operationError("set-active", err)
	}

	read, err := svc.SetActiveVersion(ctx, flowID, target.ID)
	if err != nil {
		return operationError("set-active", err)
	}

	if opts.Format == "json" {
		return writeJSON(cmd.OutOrStdout(), CLIResponse{Status: "ok", Data: read})
	}
	writeVersionText(cmd.OutOrStdout(), read, opts.Verbose)
	return nil
}
