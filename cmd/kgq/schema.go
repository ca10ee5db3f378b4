package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var schemaFormat string

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Show the detected store layout",
	Long: `Detect and show the selected store's schema profile: which tables
and columns hold nodes, edges, and embeddings.

Detection tries the known profiles first and falls back to matching
column shapes, so unfamiliar stores still resolve to a usable mapping.

Examples:
  kgq schema --store graph.db`,
	Args: cobra.NoArgs,
	Run:  runSchema,
}

func init() {
	schemaCmd.Flags().StringVar(&schemaFormat, "format", "json", "Output format (json, human)")
	rootCmd.AddCommand(schemaCmd)
}

func runSchema(cmd *cobra.Command, args []string) {
	start := time.Now()
	logger := newLogger(schemaFormat)

	store := mustStoreID()
	engine := mustGetEngine(logger)
	ctx := newContext()

	profile, err := engine.Schema(ctx, store)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error detecting schema: %v\n", err)
		os.Exit(1)
	}

	output, err := FormatResponse(profile, OutputFormat(schemaFormat))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error formatting output: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(output)

	logger.Debug("schema detection completed",
		"profile", profile.Name,
		"duration", time.Since(start).Milliseconds(),
	)
}
