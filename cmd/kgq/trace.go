package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	traceDepth  int
	traceFormat string
)

var traceCmd = &cobra.Command{
	Use:   "trace <from-id> <to-id>",
	Short: "Find the shortest path between two nodes",
	Long: `Find the shortest path between two nodes, ignoring edge direction.

Each step reports whether the edge was crossed along its direction or
against it. Both endpoints must exist in the store.

Examples:
  kgq trace n1 n4 --store graph.db
  kgq trace n1 n4 --depth=3`,
	Args: cobra.ExactArgs(2),
	Run:  runTrace,
}

func init() {
	traceCmd.Flags().IntVar(&traceDepth, "depth", 0, "Maximum path length (default from config)")
	traceCmd.Flags().StringVar(&traceFormat, "format", "json", "Output format (json, human)")
	rootCmd.AddCommand(traceCmd)
}

func runTrace(cmd *cobra.Command, args []string) {
	start := time.Now()
	logger := newLogger(traceFormat)

	store := mustStoreID()
	engine := mustGetEngine(logger)
	ctx := newContext()

	result, err := engine.TracePath(ctx, store, args[0], args[1], traceDepth)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error tracing path: %v\n", err)
		os.Exit(1)
	}

	output, err := FormatResponse(result, OutputFormat(traceFormat))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error formatting output: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(output)

	logger.Debug("trace completed",
		"from", args[0],
		"to", args[1],
		"found", result.Found,
		"duration", time.Since(start).Milliseconds(),
	)
}
