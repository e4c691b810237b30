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
	Use:   "sentinel",
	Short: "Sentinel - constitutional policy enforcement engine",
	Long: `Sentinel is a constitutional policy enforcement and multi-model
consensus engine.

It evaluates governance decisions against a versioned set of constitutional
principles, providing:
  - Constitutional hash validation on every decision path
  - Multi-model consensus with weighted, majority, and adaptive strategies
  - Decision caching and last-known-good fallback
  - Automatic rollback circuit breaking on sustained degradation
  - Append-only audit trail with retention`,
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
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
