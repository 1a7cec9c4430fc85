package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/flowvault/flowvault/internal/flow"
)

// AnnotateOptions holds flags for the annotate command.
type AnnotateOptions struct {
	*RootOptions
	Database    string
	Description string
	Changelog   string
}

// NewAnnotateCommand creates the annotate command.
func NewAnnotateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AnnotateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "annotate <flow-id> <version>",
		Short: "Update a version's description or changelog",
		Long: `Update the two version fields that stay mutable after publish: the
description and the changelog. The snapshot content never changes.

Flags that are not given leave their fields untouched. The version
identifier may be a number ("3" or "v3"), a tag, or a UUID.

Exit codes:
  0 - Version annotated
  1 - Flow or version not found
  2 - Command error (invalid arguments, database not found, etc.)

Examples:
  flowvault annotate 0190a8f2-... v3 --db ./flows.db --changelog "fixes retry loop"
  flowvault annotate 0190a8f2-... v3 --db ./flows.db --description "hotfix build"`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnnotate(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database")
	cmd.Flags().StringVar(&opts.Description, "description", "", "version description")
	cmd.Flags().StringVar(&opts.Changelog, "changelog", "", "version changelog")

	return cmd
}

func runAnnotate(opts *AnnotateOptions, flowArg, versionArg string, cmd *cobra.Command) error {
	configureLogging(opts.Verbose)
	ctx := context.Background()

	flowID, err := parseFlowID(flowArg)
	if err != nil {
		return err
	}

	var upd flow.VersionUpdate
	if cmd.Flags().Changed("description") {
		upd.DescriptionVersion = &opts.Description
	}
	if cmd.Flags().Changed("changelog") {
		upd.Changelog = &opts.Changelog
	}
	if upd.DescriptionVersion == nil && upd.Changelog == nil {
		return NewExitError(ExitCommandError, "nothing to update: pass --description or --changelog")
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
		return operationError("annotate", err)
	}

	read, err := svc.UpdateVersionAnnotations(ctx, flowID, version.ID, upd)
	if err != nil {
		return operationError("annotate", err)
	}

	if opts.Format == "json" {
		return writeJSON(cmd.OutOrStdout(), CLIResponse{Status: "ok", Data: read})
	}
	writeVersionText(cmd.OutOrStdout(), read, opts.Verbose)
	return nil
}
