package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/tabloom-cli/internal/config"
	"github.com/KaramelBytes/tabloom-cli/internal/explore"
	"github.com/KaramelBytes/tabloom-cli/internal/logging"
)

var (
	// Global flags
	cfgFile   string
	debug     bool
	logLevel  string
	logFormat string

	// Loaded configuration
	cfg *cfgpkg.Global
	// Shared across the commands of one process so repeated loads of the
	// same input hit the memo.
	explorer *explore.Explorer
)

var rootCmd = &cobra.Command{
	Use:   "tabloom",
	Short: "tabloom: explore delimited data files from the command line",
	Long: `tabloom loads CSV/TSV files, filters rows by column values and summarizes
what is left: value counts, descriptive statistics, correlations, monthly
trends and histograms. Results can be charted, exported as CSV, JSON or
Parquet, or served over HTTP.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(loadConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.tabloom/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug|info|warn|error (overrides config)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format: text|json (overrides config)")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: fall back to built-in defaults
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		c = cfgpkg.Default()
	}
	cfg = c

	level, format := cfg.LogLevel, cfg.LogFormat
	if logLevel != "" {
		level = logLevel
	}
	if logFormat != "" {
		format = logFormat
	}
	if debug {
		level = "debug"
	}
	logging.Setup(level, format, os.Stderr)

	if explorer == nil {
		explorer = explore.New(cfg.CacheEntries)
	}
}

// settings returns the loaded configuration, or the defaults when loading
// has not run.
func settings() *cfgpkg.Global {
	if cfg == nil {
		return cfgpkg.Default()
	}
	return cfg
}

func sharedExplorer() *explore.Explorer {
	if explorer == nil {
		explorer = explore.New(settings().CacheEntries)
	}
	return explorer
}
