package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// DraftOptions holds flags for the draft command.
type DraftOptions struct {
	*RootOptions
	Database string
}

// NewDraftCommand creates the draft command.
func NewDraftCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DraftOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "draft <flow-id> <version>",
		Short: "Restore the draft from a version snapshot",
		Long: `Overwrite the flow's live draft with a version's snapshot content.

The flow returns to draft mode; the active pointer is untouched.
Publishing the restored draft with --from records the source version
as the new version's lineage. The version identifier may be a number
("3" or "v3"), a tag, or a UUID.

Exit codes:
  0 - Draft restored
  1 - Flow or version not found
  2 - Command error (invalid arguments, database not found, etc.)

Examples:
  flowvault draft 0190a8f2-... v2 --db ./flows.db
  flowvault draft 0190a8f2-... stable --db ./flows.db --format json`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDraft(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database")

	return cmd
}

func runDraft(opts *DraftOptions, flowArg, versionArg string, cmd *cobra.Command) error {
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

	source, err := svc.GetVersion(ctx, flowID, versionArg)
	if err != nil {
		return operationError("draft", err)
	}

	doc, err := svc.CreateDraftFromVersion(ctx, flowID, source.ID)
	if err != nil {
		return operationError("draft", err)
	}

	if opts.Format == "json" {
		return writeJSON(cmd.OutOrStdout(), CLIResponse{Status: "ok", Data: map[string]any{
			"flow_id":       flowID,
			"restored_from": source.VersionNumber,
			"draft":         doc,
		}})
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Draft restored from version %d\n", source.VersionNumber)
	fmt.Fprintf(w, "  Data: %s\n", formatDocument(doc))
	return nil
}
