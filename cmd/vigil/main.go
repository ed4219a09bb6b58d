package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "vigil",
		Short: "Live record inspection for Go processes",
		Long: `Vigil watches collections of live records and streams
added/updated/removed diffs to debugging tools.

The CLI serves a directory of <type>.json record files over the
inspector WebSocket protocol: point a tool at ws://<listen>/inspect,
edit the files, and watch the diffs arrive.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		serveCmd(),
		snapshotCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
