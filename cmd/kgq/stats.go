package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var statsFormat string

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show engine counters and cache state",
	Long: `Show the engine's operation counters, result cache statistics, and
per-store readiness.

Examples:
  kgq stats --store graph.db`,
	Args: cobra.NoArgs,
	Run:  runStats,
}

func init() {
	statsCmd.Flags().StringVar(&statsFormat, "format", "json", "Output format (json, human)")
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) {
	logger := newLogger(statsFormat)

	engine := mustGetEngine(logger)

	stats := engine.Stats()

	output, err := FormatResponse(&stats, OutputFormat(statsFormat))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error formatting output: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(output)
}
