package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/flowvault/flowvault/internal/flow"
)

// ShowOptions holds flags for the show command.
type ShowOptions struct {
	*RootOptions
	Database string
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ShowOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "show <flow-id> [version]",
		Short: "Show a flow or one of its versions",
		Long: `Show the flow aggregate, or one version resolved by identifier.

Without a version argument the command prints the flow with its full
version history, active version, and current draft. With one it prints
that version; the identifier may be a version number ("3" or "v3"), a
version tag, or the version's UUID.

Exit codes:
  0 - Found
  1 - Flow or version not found
  2 - Command error (invalid arguments, database not found, etc.)

Examples:
  flowvault show 0190a8f2-... --db ./flows.db
  flowvault show 0190a8f2-... v3 --db ./flows.db
  flowvault show 0190a8f2-... stable --db ./flows.db --format json`,
		Args:          cobra.RangeArgs(1, 2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database")

	return cmd
}

func runShow(opts *ShowOptions, args []string, cmd *cobra.Command) error {
	configureLogging(opts.Verbose)
	ctx := context.Background()

	flowID, err := parseFlowID(args[0])
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

	if len(args) == 2 {
		read, err := svc.GetVersion(ctx, flowID, args[1])
		if err != nil {
			return operationError("show", err)
		}
		if opts.Format == "json" {
			return writeJSON(cmd.OutOrStdout(), CLIResponse{Status: "ok", Data: read})
		}
		writeVersionText(cmd.OutOrStdout(), read, opts.Verbose)
		return nil
	}

	view, err := svc.GetFlowWithVersions(ctx, flowID)
	if err != nil {
		return operationError("show", err)
	}

	if opts.Format == "json" {
		return writeJSON(cmd.OutOrStdout(), CLIResponse{Status: "ok", Data: view})
	}

	writeFlowText(cmd.OutOrStdout(), view, opts.Verbose)
	return nil
}

// writeFlowText renders the flow aggregate view.
func writeFlowText(w io.Writer, view *flow.FlowWithVersions, verbose bool) {
	fmt.Fprintf(w, "Flow %q (%s)\n", view.Name, view.ID)
	if view.Description != nil {
		fmt.Fprintf(w, "  Description:    %s\n", *view.Description)
	}
	fmt.Fprintf(w, "  Versions:       %d\n", view.VersionCount)
	if view.LastPublishedAt != nil {
		fmt.Fprintf(w, "  Last Published: %s\n", formatTime(*view.LastPublishedAt))
	}
	fmt.Fprintf(w, "  Draft Mode:     %v\n", view.IsDraft)
	if verbose {
		fmt.Fprintf(w, "  Draft Data:     %s\n", formatDocument(view.DraftData))
	}

	if len(view.Versions) == 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "No versions published.")
		return
	}

	fmt.Fprintln(w)
	writeSummaryLines(w, view.Versions)
}
