package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	exploreDepth  int
	exploreFormat string
)

var exploreCmd = &cobra.Command{
	Use:   "explore <node-id>",
	Short: "Walk a node's neighborhood",
	Long: `Walk outward from a node in both edge directions and report the
neighborhood layer by layer. Nodes are ranked by degree within each
layer, and high-degree nodes are flagged as hubs.

Examples:
  kgq explore n4 --store graph.db
  kgq explore n4 --depth=3`,
	Args: cobra.ExactArgs(1),
	Run:  runExplore,
}

func init() {
	exploreCmd.Flags().IntVar(&exploreDepth, "depth", 0, "Neighborhood radius (default 2)")
	exploreCmd.Flags().StringVar(&exploreFormat, "format", "json", "Output format (json, human)")
	rootCmd.AddCommand(exploreCmd)
}

func runExplore(cmd *cobra.Command, args []string) {
	start := time.Now()
	logger := newLogger(exploreFormat)

	store := mustStoreID()
	engine := mustGetEngine(logger)
	ctx := newContext()

	result, err := engine.Explore(ctx, store, args[0], exploreDepth)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error exploring neighborhood: %v\n", err)
		os.Exit(1)
	}

	output, err := FormatResponse(result, OutputFormat(exploreFormat))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error formatting output: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(output)

	logger.Debug("explore completed",
		"node", args[0],
		"total", result.Total,
		"duration", time.Since(start).Milliseconds(),
	)
}
