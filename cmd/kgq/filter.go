package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"kgq/internal/query"
)

var (
	filterWhere  []string
	filterFormat string
)

var filterCmd = &cobra.Command{
	Use:   "filter",
	Short: "Filter nodes by numeric property bounds",
	Long: `Select nodes whose numeric properties fall inside the given ranges.

Each --where takes name=min..max; either bound may be left open. A
property is read from the node's property bag directly or from its
nested "dimensions" object. Multiple constraints must all hold.

Examples:
  kgq filter --where latency_sensitivity=0.5..1.0 --store graph.db
  kgq filter --where cost=..5 --where latency_sensitivity=0.5..`,
	Args: cobra.NoArgs,
	Run:  runFilter,
}

func init() {
	filterCmd.Flags().StringArrayVar(&filterWhere, "where", nil, "Dimension constraint (name=min..max, repeatable)")
	filterCmd.Flags().StringVar(&filterFormat, "format", "json", "Output format (json, human)")
	rootCmd.AddCommand(filterCmd)
}

// parseWhere parses one dimension constraint of the form name=min..max.
// Either bound may be omitted: "cost=..5" or "latency=0.2..".
func parseWhere(arg string) (string, query.Bounds, error) {
	var bounds query.Bounds

	parts := strings.SplitN(arg, "=", 2)
	if len(parts) != 2 || parts[0] == "" {
		return "", bounds, fmt.Errorf("expected name=min..max, got %q", arg)
	}
	name := parts[0]

	ends := strings.SplitN(parts[1], "..", 2)
	if len(ends) != 2 {
		return "", bounds, fmt.Errorf("expected name=min..max, got %q", arg)
	}

	if ends[0] != "" {
		v, err := strconv.ParseFloat(ends[0], 64)
		if err != nil {
			return "", bounds, fmt.Errorf("bad lower bound in %q: %w", arg, err)
		}
		bounds.Min = &v
	}
	if ends[1] != "" {
		v, err := strconv.ParseFloat(ends[1], 64)
		if err != nil {
			return "", bounds, fmt.Errorf("bad upper bound in %q: %w", arg, err)
		}
		bounds.Max = &v
	}
	return name, bounds, nil
}

func runFilter(cmd *cobra.Command, args []string) {
	start := time.Now()
	logger := newLogger(filterFormat)

	dims := make(map[string]query.Bounds, len(filterWhere))
	for _, arg := range filterWhere {
		name, bounds, err := parseWhere(arg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		dims[name] = bounds
	}

	store := mustStoreID()
	engine := mustGetEngine(logger)
	ctx := newContext()

	result, err := engine.FilterByDimensions(ctx, store, dims)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error filtering nodes: %v\n", err)
		os.Exit(1)
	}

	output, err := FormatResponse(result, OutputFormat(filterFormat))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error formatting output: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(output)

	logger.Debug("filter completed",
		"constraints", len(dims),
		"matched", result.Total,
		"via", result.Via,
		"duration", time.Since(start).Milliseconds(),
	)
}
