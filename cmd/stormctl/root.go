package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/storm-data-atcf/internal/config"
	"github.com/couchcryptid/storm-data-atcf/internal/observability"
)

// Version is set at build time via -ldflags.
var Version = "dev"

var (
	logLevel  string
	logFormat string
	jsonOut   bool
)

var rootCmd = &cobra.Command{
	Use:   "stormctl",
	Short: "Inspect active tropical cyclones and the best-track archive",
	Long: `stormctl reads the same environment (and .env file) as the atcf service.

Examples:
  stormctl refresh                            # Fetch the live feed into the cache
  stormctl list --filter 'wind >= 64'         # Show cached storms
  stormctl classify INVEST 45 SS ATL          # Label a hypothetical storm
  stormctl besttrack import --variant last3   # Load IBTrACS into SQLite
  stormctl besttrack find --name katrina --season 2005`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddGroup(
		&cobra.Group{ID: "live", Title: "Live Feed Commands:"},
		&cobra.Group{ID: "archive", Title: "Archive Commands:"},
	)

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log format (text, json)")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Print results as JSON")

	rootCmd.AddCommand(refreshCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(classifyCmd)
	rootCmd.AddCommand(dumpCmd)
	rootCmd.AddCommand(recordCmd)
	rootCmd.AddCommand(besttrackCmd)
}

// setup loads configuration and builds a logger that writes to stderr so
// command output stays clean.
func setup() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, observability.NewLoggerTo(os.Stderr, logLevel, logFormat), nil
}
