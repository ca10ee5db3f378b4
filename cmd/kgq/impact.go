package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"kgq/internal/query"
)

var (
	impactDirection string
	impactDepth     int
	impactFormat    string
)

var impactCmd = &cobra.Command{
	Use:   "impact <node-id>",
	Short: "Compute the blast radius of a node",
	Long: `Walk outward from a node and report everything it can affect,
grouped by distance. Risk decays with depth and grows with a node's
own fanout.

Direction selects which edges to follow: "out" finds what depends on
this node's output, "in" finds what it depends on, "both" ignores
direction.

Examples:
  kgq impact n3 --store graph.db
  kgq impact n3 --direction=in --depth=2`,
	Args: cobra.ExactArgs(1),
	Run:  runImpact,
}

func init() {
	impactCmd.Flags().StringVar(&impactDirection, "direction", "out", "Traversal direction (out, in, both)")
	impactCmd.Flags().IntVar(&impactDepth, "depth", 0, "Maximum traversal depth (default from config)")
	impactCmd.Flags().StringVar(&impactFormat, "format", "json", "Output format (json, human)")
	rootCmd.AddCommand(impactCmd)
}

func runImpact(cmd *cobra.Command, args []string) {
	start := time.Now()
	logger := newLogger(impactFormat)

	store := mustStoreID()
	engine := mustGetEngine(logger)
	ctx := newContext()

	dir, err := query.ParseDirection(impactDirection)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	result, err := engine.ImpactOf(ctx, store, args[0], dir, impactDepth)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error computing impact: %v\n", err)
		os.Exit(1)
	}

	output, err := FormatResponse(result, OutputFormat(impactFormat))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error formatting output: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(output)

	logger.Debug("impact completed",
		"node", args[0],
		"direction", string(dir),
		"affected", result.Total,
		"duration", time.Since(start).Milliseconds(),
	)
}
