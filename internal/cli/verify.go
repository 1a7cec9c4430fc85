package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/flowvault/flowvault/internal/harness"
)

// VerifyOptions holds flags for the verify command.
type VerifyOptions struct {
	*RootOptions
}

// NewVerifyCommand creates the verify command.
func NewVerifyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &VerifyOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "verify <scenarios-dir>",
		Short: "Run YAML scenarios against a fresh engine",
		Long: `Run every scenario file in a directory against a fresh in-memory
engine, validating expectations and final-state assertions.

Each scenario gets its own database, so runs are isolated and
deterministic.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid paths, etc.)

Examples:
  flowvault verify ./scenarios
  flowvault verify ./scenarios --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(opts, args[0], cmd)
		},
	}

	return cmd
}

func runVerify(opts *VerifyOptions, scenariosDir string, cmd *cobra.Command) error {
	configureLogging(opts.Verbose)

	if _, err := os.Stat(scenariosDir); os.IsNotExist(err) {
		return NewExitError(ExitCommandError, fmt.Sprintf("scenarios directory not found: %s", scenariosDir))
	}

	suite, err := harness.RunDir(scenariosDir)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to run scenarios", err)
	}

	if opts.Format == "json" {
		return outputVerifyJSON(cmd, suite)
	}
	return outputVerifyText(cmd, suite, opts.Verbose)
}

// outputVerifyJSON outputs the suite result as JSON.
func outputVerifyJSON(cmd *cobra.Command, suite *harness.SuiteResult) error {
	response := CLIResponse{
		Status: "ok",
		Data:   suite,
	}
	if suite.Failed > 0 {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    "E_SCENARIOS_FAILED",
			Message: fmt.Sprintf("%d scenario(s) failed", suite.Failed),
		}
	}

	if err := writeJSON(cmd.OutOrStdout(), response); err != nil {
		return err
	}

	if suite.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", suite.Failed))
	}
	return nil
}

// outputVerifyText outputs the suite result as text.
func outputVerifyText(cmd *cobra.Command, suite *harness.SuiteResult, verbose bool) error {
	w := cmd.OutOrStdout()

	for _, failure := range suite.Failures {
		fmt.Fprintf(w, "✗ %s\n", failure.Scenario)
		fmt.Fprintf(w, "  %s\n", failure.Error)
		if verbose {
			fmt.Fprintf(w, "  Path: %s\n", failure.Path)
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Scenario Summary: %d passed, %d failed, %d total\n",
		suite.Passed, suite.Failed, suite.TotalScenarios)

	if suite.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", suite.Failed))
	}

	fmt.Fprintln(w, "✓ All scenarios passed")
	return nil
}
