package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "stathive",
	Short: "Stathive - process-shared counter registry and exporter",
	Long: `Stathive maintains a fixed-capacity table of named 64-bit counters in
a memory-mapped region file shared by cooperating processes.

It provides:
  - Lock-protected get-or-create registration of named counters
  - Atomic increment returning the previous value
  - Consistent snapshots for enumeration and export
  - A Prometheus exposition endpoint for the whole registry

For more information, visit: https://github.com/stathive-hq/stathive`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global persistent flags (available to all subcommands)
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
