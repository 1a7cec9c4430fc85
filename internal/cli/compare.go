package cli

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/flowvault/flowvault/internal/document"
)

// CompareOptions holds flags for the compare command.
type CompareOptions struct {
	*RootOptions
	Database string
}

// NewCompareCommand creates the compare command.
func NewCompareCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompareOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compare <flow-id> <from> <to>",
		Short: "Diff two versions of a flow",
		Long: `Compute the structural difference between two version snapshots.

Changed paths print as "~ path: old -> new"; added keys as "+ path:
value"; removed keys as "- path". Version identifiers may be numbers
("3" or "v3"), tags, or UUIDs.

Exit codes:
  0 - Comparison printed
  1 - Flow or version not found
  2 - Command error (invalid arguments, database not found, etc.)

Examples:
  flowvault compare 0190a8f2-... v1 v3 --db ./flows.db
  flowvault compare 0190a8f2-... stable 4 --db ./flows.db --format json`,
		Args:          cobra.ExactArgs(3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompare(opts, args[0], args[1], args[2], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database")

	return cmd
}

func runCompare(opts *CompareOptions, flowArg, fromArg, toArg string, cmd *cobra.Command) error {
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

	from, err := svc.GetVersion(ctx, flowID, fromArg)
	if err != nil {
		return operationError("compare", err)
	}
	to, err := svc.GetVersion(ctx, flowID, toArg)
	if err != nil {
		return operationError("compare", err)
	}

	result, err := svc.CompareVersions(ctx, from.ID, to.ID)
	if err != nil {
		return operationError("compare", err)
	}

	if opts.Format == "json" {
		return writeJSON(cmd.OutOrStdout(), CLIResponse{Status: "ok", Data: result})
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Comparing version %d to version %d\n", result.VersionA.VersionNumber, result.VersionB.VersionNumber)
	fmt.Fprintf(w, "%s\n", result.Summary)

	lines := diffLines(result.Differences)
	if len(lines) > 0 {
		fmt.Fprintln(w)
		for _, line := range lines {
			fmt.Fprintf(w, "  %s\n", line)
		}
	}
	return nil
}

// diffLines flattens a diff tree into sorted display lines, one per
// changed path.
func diffLines(diff document.Diff) []string {
	var lines []string
	collectDiffLines(map[string]any(diff), "", &lines)
	sort.Strings(lines)
	return lines
}

func collectDiffLines(node map[string]any, prefix string, lines *[]string) {
	for key, v := range node {
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}

		m, ok := v.(map[string]any)
		if !ok {
			// Not produced by Compare; render and move on.
			*lines = append(*lines, fmt.Sprintf("~ %s: %s", path, formatValue(v)))
			continue
		}

		switch {
		case isChangeMarker(m):
			*lines = append(*lines, fmt.Sprintf("~ %s: %s -> %s", path, formatValue(m["from"]), formatValue(m["to"])))
		case isAddMarker(m):
			*lines = append(*lines, fmt.Sprintf("+ %s: %s", path, formatValue(m["added"])))
		case isRemoveMarker(m):
			*lines = append(*lines, fmt.Sprintf("- %s", path))
		default:
			collectDiffLines(m, path, lines)
		}
	}
}

func isChangeMarker(m map[string]any) bool {
	if len(m) != 2 {
		return false
	}
	_, hasFrom := m["from"]
	_, hasTo := m["to"]
	return hasFrom && hasTo
}

func isAddMarker(m map[string]any) bool {
	if len(m) != 1 {
		return false
	}
	_, ok := m["added"]
	return ok
}

func isRemoveMarker(m map[string]any) bool {
	if len(m) != 1 {
		return false
	}
	_, ok := m["removed"]
	return ok
}
