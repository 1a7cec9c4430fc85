package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/flowvault/flowvault/internal/document"
	"github.com/flowvault/flowvault/internal/flow"
)

// CreateFlowOptions holds flags for the create-flow command.
type CreateFlowOptions struct {
	*RootOptions
	Database    string
	Description string
	Data        string
	Tags        []string
	Endpoint    string
	Public      bool
}

// NewCreateFlowCommand creates the create-flow command.
func NewCreateFlowCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CreateFlowOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "create-flow <name>",
		Short: "Create a flow with a live draft",
		Long: `Create a flow whose draft starts from the given document.

The flow begins with zero published versions; use publish to freeze the
draft into the first one.

Exit codes:
  0 - Flow created
  1 - Creation failed
  2 - Command error (invalid arguments, database not found, etc.)

Examples:
  flowvault create-flow Checkout --db ./flows.db
  flowvault create-flow Checkout --db ./flows.db --data '{"steps":[]}' --tags payments,checkout
  flowvault create-flow Status --db ./flows.db --public --endpoint status`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCreateFlow(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database")
	cmd.Flags().StringVar(&opts.Description, "description", "", "flow description")
	cmd.Flags().StringVar(&opts.Data, "data", "{}", "draft document as JSON")
	cmd.Flags().StringSliceVar(&opts.Tags, "tags", nil, "flow tags")
	cmd.Flags().StringVar(&opts.Endpoint, "endpoint", "", "endpoint name")
	cmd.Flags().BoolVar(&opts.Public, "public", false, "allow public execution")

	return cmd
}

func runCreateFlow(opts *CreateFlowOptions, name string, cmd *cobra.Command) error {
	configureLogging(opts.Verbose)
	ctx := context.Background()

	doc, err := document.Decode([]byte(opts.Data))
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid --data JSON", err)
	}

	st, err := openStore(opts.RootOptions, opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	now := time.Now().UTC()
	f := &flow.Flow{
		ID: uuid.Must(uuid.NewV7()),
		Snapshot: flow.Snapshot{
			Name:       name,
			Data:       doc,
			Tags:       opts.Tags,
			AccessType: flow.AccessPrivate,
		},
		IsDraft:   true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if opts.Description != "" {
		f.Description = &opts.Description
	}
	if opts.Endpoint != "" {
		f.EndpointName = &opts.Endpoint
	}
	if opts.Public {
		f.AccessType = flow.AccessPublic
	}

	if err := st.CreateFlow(ctx, f); err != nil {
		return operationError("create-flow", err)
	}

	if opts.Format == "json" {
		return writeJSON(cmd.OutOrStdout(), CLIResponse{Status: "ok", Data: f})
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Created flow %q\n", name)
	fmt.Fprintf(w, "  ID: %s\n", f.ID)
	return nil
}
