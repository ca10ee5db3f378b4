package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var composeFormat string

var composeCmd = &cobra.Command{
	Use:   "compose <goal>",
	Short: "Assemble a workflow from a multi-step goal",
	Long: `Split a goal phrase into sub-goals on commas, "and", and "then",
then pick the best node for each step. Candidates linked to the
previous step through a composition edge are preferred, so adjacent
steps chain through the graph where possible.

Examples:
  kgq compose "parse the csv and validate the schema" --store graph.db
  kgq compose "ingest feed, index records, then serve search"`,
	Args: cobra.ExactArgs(1),
	Run:  runCompose,
}

func init() {
	composeCmd.Flags().StringVar(&composeFormat, "format", "json", "Output format (json, human)")
	rootCmd.AddCommand(composeCmd)
}

func runCompose(cmd *cobra.Command, args []string) {
	start := time.Now()
	logger := newLogger(composeFormat)
	goal := args[0]

	store := mustStoreID()
	engine := mustGetEngine(logger)
	ctx := newContext()

	result, err := engine.ComposeWorkflow(ctx, store, goal)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error composing workflow: %v\n", err)
		os.Exit(1)
	}

	output, err := FormatResponse(result, OutputFormat(composeFormat))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error formatting output: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(output)

	logger.Debug("compose completed",
		"goal", goal,
		"steps", len(result.Steps),
		"complete", result.Complete,
		"duration", time.Since(start).Milliseconds(),
	)
}
