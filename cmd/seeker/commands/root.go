package commands

import (
	"github.com/spf13/cobra"

	"github.com/wonny/dividend-seeker/pkg/config"
)

var (
	// Global flags
	dataDir   string
	logFormat string
	verbose   bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "seeker",
	Short: "Dividend Seeker - nightly dividend screener",
	Long: `Dividend Seeker CLI

Scans index constituents for high-yield, sustainable dividend payers.
Pipeline: market list → quote fetch → derive → screen → persist → top picks.

Usage:
  go run ./cmd/seeker [command]

Examples:
  go run ./cmd/seeker markets refresh
  go run ./cmd/seeker scan sp500
  go run ./cmd/seeker scan --all
  go run ./cmd/seeker lookup T VZ ENEL.MI
  go run ./cmd/seeker scheduler start
  go run ./cmd/seeker api`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "data directory (overrides DATA_DIR)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "json|console (overrides LOG_FORMAT)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}

// loadConfig reads the environment and applies the global flags
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	if logFormat != "" {
		cfg.LogFormat = logFormat
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	return cfg, nil
}
