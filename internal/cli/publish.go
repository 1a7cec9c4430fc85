package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/flowvault/flowvault/internal/versioning"
)

// PublishOptions holds flags for the publish command.
type PublishOptions struct {
	*RootOptions
	Database    string
	By          string
	Tag         string
	Description string
	Changelog   string
	From        string
	NoActivate  bool
}

// NewPublishCommand creates the publish command.
func NewPublishCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PublishOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "publish <flow-id>",
		Short: "Freeze the draft into a new version",
		Long: `Freeze the flow's current draft into a new immutable version.

The version receives the next sequential number and becomes active
unless --no-activate is given. The draft stays live for further edits.

Exit codes:
  0 - Version published
  1 - Publish failed (flow not found, empty draft, duplicate tag, etc.)
  2 - Command error (invalid arguments, database not found, etc.)

Examples:
  flowvault publish 0190a8f2-... --db ./flows.db --by alice
  flowvault publish 0190a8f2-... --db ./flows.db --by alice --tag v1.0 --changelog "initial release"
  flowvault publish 0190a8f2-... --db ./flows.db --by alice --from v1 --changelog "revert to stable"
  flowvault publish 0190a8f2-... --db ./flows.db --by alice --no-activate`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPublish(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database")
	cmd.Flags().StringVar(&opts.By, "by", "", "publisher (UUID or name)")
	cmd.Flags().StringVar(&opts.Tag, "tag", "", "version tag, unique within the flow")
	cmd.Flags().StringVar(&opts.Description, "description", "", "version description")
	cmd.Flags().StringVar(&opts.Changelog, "changelog", "", "what changed since the previous version")
	cmd.Flags().StringVar(&opts.From, "from", "", "version this draft was restored from (lineage)")
	cmd.Flags().BoolVar(&opts.NoActivate, "no-activate", false, "publish without activating")

	return cmd
}

func runPublish(opts *PublishOptions, flowArg string, cmd *cobra.Command) error {
	configureLogging(opts.Verbose)
	ctx := context.Background()

	flowID, err := parseFlowID(flowArg)
	if err != nil {
		return err
	}
	publisher, err := resolvePublisher(opts.RootOptions, opts.By)
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

	pubOpts := versioning.PublishOptions{Activate: !opts.NoActivate}
	if opts.Tag != "" {
		pubOpts.VersionTag = &opts.Tag
	}
	if opts.Description != "" {
		pubOpts.Description = &opts.Description
	}
	if opts.Changelog != "" {
		pubOpts.Changelog = &opts.Changelog
	}
	if opts.From != "" {
		source, err := svc.GetVersion(ctx, flowID, opts.From)
		if err != nil {
			return operationError("publish", err)
		}
		pubOpts.CreatedFromVersionID = &source.ID
	}

	read, err := svc.Publish(ctx, flowID, publisher, pubOpts)
	if err != nil {
		return operationError("publish", err)
	}

	if opts.Format == "json" {
		return writeJSON(cmd.OutOrStdout(), CLIResponse{Status: "ok", Data: read})
	}

	writeVersionText(cmd.OutOrStdout(), read, opts.Verbose)
	return nil
}
