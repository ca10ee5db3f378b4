package main

import (
	"log/slog"
	"os"

	"kgq/internal/slogutil"
)

func main() {
	logger := slogutil.NewLogger(os.Stderr, slog.LevelInfo)

	if err := rootCmd.Execute(); err != nil {
		logger.Error("command execution failed", "error", err)
		os.Exit(1)
	}
}
