package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var canItFormat string

var canItCmd = &cobra.Command{
	Use:   "can-it <subject> <capability>",
	Short: "Ask whether a node has a capability",
	Long: `Answer yes, no, or unknown for a capability question about a node.

The subject may be a node id or free text resolved to the best match.
Evidence comes from the subject's own text and its capability edges;
limitation edges count against. The verdict reports its confidence and
the facts behind it.

Examples:
  kgq can-it n1 "parse csv" --store graph.db
  kgq can-it "batch tool" "streaming uploads"`,
	Args: cobra.ExactArgs(2),
	Run:  runCanIt,
}

func init() {
	canItCmd.Flags().StringVar(&canItFormat, "format", "json", "Output format (json, human)")
	rootCmd.AddCommand(canItCmd)
}

func runCanIt(cmd *cobra.Command, args []string) {
	start := time.Now()
	logger := newLogger(canItFormat)

	store := mustStoreID()
	engine := mustGetEngine(logger)
	ctx := newContext()

	result, err := engine.CanIt(ctx, store, args[0], args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error answering capability question: %v\n", err)
		os.Exit(1)
	}

	output, err := FormatResponse(result, OutputFormat(canItFormat))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error formatting output: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(output)

	logger.Debug("can-it completed",
		"subject", args[0],
		"answer", result.Answer,
		"duration", time.Since(start).Milliseconds(),
	)
}
