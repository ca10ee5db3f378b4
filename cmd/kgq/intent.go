package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var intentFormat string

var intentCmd = &cobra.Command{
	Use:   "intent <text>",
	Short: "Classify a query's intent",
	Long: `Show how a query would be classified before running it: the matched
intent, the edge types that intent favors, and the keywords it boosts.

Examples:
  kgq intent "how does the parser reach the search api"
  kgq intent "what breaks if the indexer goes down"`,
	Args: cobra.ExactArgs(1),
	Run:  runIntent,
}

func init() {
	intentCmd.Flags().StringVar(&intentFormat, "format", "json", "Output format (json, human)")
	rootCmd.AddCommand(intentCmd)
}

func runIntent(cmd *cobra.Command, args []string) {
	logger := newLogger(intentFormat)

	// Classification needs no store, only the engine's pattern table.
	engine := mustGetEngine(logger)

	result := engine.ClassifyIntent(args[0])

	output, err := FormatResponse(&result, OutputFormat(intentFormat))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error formatting output: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(output)
}
