package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"kgq/internal/query"
)

var (
	queryAlpha   float64
	queryBeta    float64
	queryGamma   float64
	queryDelta   float64
	queryLimit   int
	queryMethods string
	queryFormat  string
)

var queryCmd = &cobra.Command{
	Use:   "query <text>",
	Short: "Run a fused multi-signal query",
	Long: `Run a natural-language query against the selected store.

The four signals (vector, lexical, graph, intent) are scored separately,
scaled by their weights, and summed into one ranked list. Weights left
unset fall back to the configured defaults; a weight of zero disables
that signal's contribution without skipping its computation. Use
--methods to skip computing signals entirely.

Examples:
  kgq query "which tool parses csv files" --store graph.db
  kgq query "parse csv" --beta=2 --alpha=0
  kgq query "parse csv" --methods=lexical,graph --limit=5`,
	Args: cobra.ExactArgs(1),
	Run:  runQuery,
}

func init() {
	queryCmd.Flags().Float64Var(&queryAlpha, "alpha", 0, "Vector signal weight (default from config)")
	queryCmd.Flags().Float64Var(&queryBeta, "beta", 0, "Lexical signal weight (default from config)")
	queryCmd.Flags().Float64Var(&queryGamma, "gamma", 0, "Graph signal weight (default from config)")
	queryCmd.Flags().Float64Var(&queryDelta, "delta", 0, "Intent signal weight (default from config)")
	queryCmd.Flags().IntVar(&queryLimit, "limit", 0, "Maximum number of results (default from config)")
	queryCmd.Flags().StringVar(&queryMethods, "methods", "", "Signals to compute (comma-separated: vector,lexical,graph,intent)")
	queryCmd.Flags().StringVar(&queryFormat, "format", "json", "Output format (json, human)")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) {
	start := time.Now()
	logger := newLogger(queryFormat)
	text := args[0]

	store := mustStoreID()
	engine := mustGetEngine(logger)
	ctx := newContext()

	// Zero is a meaningful weight, so only overrides that were actually
	// set on the command line are passed through.
	opts := query.QueryOptions{Text: text}
	flags := cmd.Flags()
	if flags.Changed("alpha") {
		opts.Alpha = &queryAlpha
	}
	if flags.Changed("beta") {
		opts.Beta = &queryBeta
	}
	if flags.Changed("gamma") {
		opts.Gamma = &queryGamma
	}
	if flags.Changed("delta") {
		opts.Delta = &queryDelta
	}
	if flags.Changed("limit") {
		opts.Limit = &queryLimit
	}
	if queryMethods != "" {
		opts.Methods = strings.Split(queryMethods, ",")
	}

	response, err := engine.Query(ctx, store, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error running query: %v\n", err)
		os.Exit(1)
	}

	output, err := FormatResponse(response, OutputFormat(queryFormat))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error formatting output: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(output)

	logger.Debug("query completed",
		"text", text,
		"results", response.Total,
		"cached", response.Cached,
		"duration", time.Since(start).Milliseconds(),
	)
}
