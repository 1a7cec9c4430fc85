package main

import (
	"fmt"
	"os"

	"github.com/flowvault/flowvault/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		// Subcommands silence cobra's own reporting; errors surface here
		// exactly once, with their exit codes intact.
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(cli.GetExitCode(err))
	}
}
