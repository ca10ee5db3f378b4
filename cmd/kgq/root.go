package main

import (
	"os"

	"kgq/internal/version"

	"github.com/spf13/cobra"
)

var (
	// storeFlag is the CLI --store flag value
	storeFlag string

	// storeIDFlag is the identifier the selected store is registered under
	storeIDFlag string

	// verboseFlag enables debug logging
	verboseFlag bool
)

var rootCmd = &cobra.Command{
	Use:   "kgq",
	Short: "KGQ - Knowledge Graph Query engine",
	Long: `KGQ (Knowledge Graph Query) answers questions over SQLite knowledge stores
with arbitrary schemas. It detects the store layout, then fuses vector,
lexical, graph, and intent signals into one ranked result list.`,
	Version: version.Version,
}

func init() {
	rootCmd.SetVersionTemplate("KGQ version {{.Version}}\n")
	rootCmd.PersistentFlags().StringVar(&storeFlag, "store", "",
		"Path to the SQLite store file")
	rootCmd.PersistentFlags().StringVar(&storeIDFlag, "store-id", "main",
		"Identifier the store is registered under")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false,
		"Enable debug logging")
}

// resolveStorePath determines the store file from CLI flag and env var.
// Precedence: --store flag > KGQ_STORE env var. Empty means no store
// was selected.
func resolveStorePath() string {
	if storeFlag != "" {
		return storeFlag
	}
	return os.Getenv("KGQ_STORE")
}
