package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var refreshFormat string

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Re-detect the store schema and drop cached results",
	Long: `Invalidate everything the engine holds for the selected store: the
detected schema, the lexical index, the embedding scorer, and any
cached query results. The store is then re-detected from scratch and
the fresh profile is printed.

Run this after the store file has been modified by another process.

Examples:
  kgq refresh --store graph.db`,
	Args: cobra.NoArgs,
	Run:  runRefresh,
}

func init() {
	refreshCmd.Flags().StringVar(&refreshFormat, "format", "json", "Output format (json, human)")
	rootCmd.AddCommand(refreshCmd)
}

func runRefresh(cmd *cobra.Command, args []string) {
	start := time.Now()
	logger := newLogger(refreshFormat)

	store := mustStoreID()
	engine := mustGetEngine(logger)
	ctx := newContext()

	if err := engine.Invalidate(store); err != nil {
		fmt.Fprintf(os.Stderr, "Error invalidating store: %v\n", err)
		os.Exit(1)
	}

	profile, err := engine.Schema(ctx, store)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error re-detecting schema: %v\n", err)
		os.Exit(1)
	}

	output, err := FormatResponse(profile, OutputFormat(refreshFormat))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error formatting output: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(output)

	logger.Debug("store refreshed",
		"store", store,
		"profile", profile.Name,
		"duration", time.Since(start).Milliseconds(),
	)
}
