package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/flowvault/flowvault/internal/document"
)

// SetDraftOptions holds flags for the set-draft command.
type SetDraftOptions struct {
	*RootOptions
	Database string
	Data     string
}

// NewSetDraftCommand creates the set-draft command.
func NewSetDraftCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SetDraftOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "set-draft <flow-id>",
		Short: "Overwrite a flow's live draft",
		Long: `Overwrite the flow's live draft document and mark the flow as a draft.

Published versions are untouched; the next publish freezes this
content.

Exit codes:
  0 - Draft updated
  1 - Flow not found
  2 - Command error (invalid arguments, database not found, etc.)

Examples:
  flowvault set-draft 0190a8f2-... --db ./flows.db --data '{"steps":["pay"]}'`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSetDraft(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database")
	cmd.Flags().StringVar(&opts.Data, "data", "", "draft document as JSON (required)")
	_ = cmd.MarkFlagRequired("data")

	return cmd
}

func runSetDraft(opts *SetDraftOptions, flowArg string, cmd *cobra.Command) error {
	configureLogging(opts.Verbose)
	ctx := context.Background()

	flowID, err := parseFlowID(flowArg)
	if err != nil {
		return err
	}
	doc, err := document.Decode([]byte(opts.Data))
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid --data JSON", err)
	}

	st, err := openStore(opts.RootOptions, opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.SaveFlowDraft(ctx, flowID, doc, time.Now().UTC()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return NewExitError(ExitFailure, fmt.Sprintf("flow %s not found", flowID))
		}
		return operationError("set-draft", err)
	}

	if opts.Format == "json" {
		return writeJSON(cmd.OutOrStdout(), CLIResponse{Status: "ok", Data: map[string]any{
			"flow_id": flowID,
			"draft":   doc,
		}})
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Draft updated for flow %s\n", flowID)
	return nil
}
