package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	wantToLimit  int
	wantToFormat string
)

var wantToCmd = &cobra.Command{
	Use:   "want-to <goal>",
	Short: "Find nodes that serve a stated goal",
	Long: `Rank nodes by how well they serve a goal, boosting nodes whose
neighbors enable or provide them. An empty result is a valid answer:
nothing in the store serves the goal.

Examples:
  kgq want-to "fulltext search" --store graph.db
  kgq want-to "parse csv files" --limit=3`,
	Args: cobra.ExactArgs(1),
	Run:  runWantTo,
}

func init() {
	wantToCmd.Flags().IntVar(&wantToLimit, "limit", 0, "Maximum number of matches (default from config)")
	wantToCmd.Flags().StringVar(&wantToFormat, "format", "json", "Output format (json, human)")
	rootCmd.AddCommand(wantToCmd)
}

func runWantTo(cmd *cobra.Command, args []string) {
	start := time.Now()
	logger := newLogger(wantToFormat)
	goal := args[0]

	store := mustStoreID()
	engine := mustGetEngine(logger)
	ctx := newContext()

	result, err := engine.WantTo(ctx, store, goal, wantToLimit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error resolving goal: %v\n", err)
		os.Exit(1)
	}

	output, err := FormatResponse(result, OutputFormat(wantToFormat))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error formatting output: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(output)

	logger.Debug("want-to completed",
		"goal", goal,
		"matches", len(result.Matches),
		"duration", time.Since(start).Milliseconds(),
	)
}
