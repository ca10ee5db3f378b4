package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	similarLimit  int
	similarFormat string
)

var similarCmd = &cobra.Command{
	Use:   "similar <node-id>",
	Short: "Find structurally similar nodes",
	Long: `Rank nodes by structural similarity to a target node.

Similarity blends shared neighbors, matching type, and name token
overlap. No embeddings are involved, so this works on any store.

Examples:
  kgq similar n1 --store graph.db
  kgq similar n1 --limit=5`,
	Args: cobra.ExactArgs(1),
	Run:  runSimilar,
}

func init() {
	similarCmd.Flags().IntVar(&similarLimit, "limit", 0, "Maximum number of matches (default from config)")
	similarCmd.Flags().StringVar(&similarFormat, "format", "json", "Output format (json, human)")
	rootCmd.AddCommand(similarCmd)
}

func runSimilar(cmd *cobra.Command, args []string) {
	start := time.Now()
	logger := newLogger(similarFormat)

	store := mustStoreID()
	engine := mustGetEngine(logger)
	ctx := newContext()

	result, err := engine.SimilarTo(ctx, store, args[0], similarLimit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error finding similar nodes: %v\n", err)
		os.Exit(1)
	}

	output, err := FormatResponse(result, OutputFormat(similarFormat))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error formatting output: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(output)

	logger.Debug("similar completed",
		"node", args[0],
		"matches", len(result.Matches),
		"duration", time.Since(start).Milliseconds(),
	)
}
