// Command deferred runs a deferred task scheduler that computes Fibonacci
// numbers at random offsets, exposes scheduler metrics, and reports a
// summary of the executions on shutdown.
//
// Usage:
//
//	deferred run [--tasks N] [--poll-interval D] [--max-offset D] [--metrics-addr ADDR]
//
// Every flag can also be set through a DEFERRED_* environment variable,
// e.g. DEFERRED_POLL_INTERVAL=500ms.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version is set with -ldflags at build time.
var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:           "deferred",
		Short:         "Deferred task scheduler demo",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(newRunCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
