package main

import (
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"pescan/internal/cache"
	"pescan/internal/config"
	"pescan/internal/logging"
	"pescan/internal/malapi"
	"pescan/internal/version"
)

var (
	flagInfo          bool
	flagLibrary       bool
	flagDocumentation bool
	flagAll           bool
	flagUpdate        bool
	flagFormat        string
	flagOutput        string
	flagWidth         int
	flagRules         string
	flagLogLevel      string
	flagLogFormat     string
)

var rootCmd = &cobra.Command{
	Use:   "pescan [flags] FILE",
	Short: "Static analysis of PE files via API import matching",
	Long: `pescan inspects a Windows PE sample's imported API names and flags the
ones known to be associated with malicious behavior, grouped by behavioral
category. Reference data comes from malapi.io and is cached locally, so
repeated scans run offline.`,
	Version:       version.Version,
	Args:          cobra.ExactArgs(1),
	RunE:          runScan,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.SetVersionTemplate("pescan version {{.Version}}\n")

	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info",
		"Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&flagLogFormat, "log-format", "human",
		"Log format (human, json)")

	rootCmd.Flags().BoolVarP(&flagInfo, "info", "i", false,
		"Show summary of API functionality")
	rootCmd.Flags().BoolVarP(&flagLibrary, "library", "l", false,
		"Show DLL library of API")
	rootCmd.Flags().BoolVarP(&flagDocumentation, "documentation", "d", false,
		"Show link to documentation of API")
	rootCmd.Flags().BoolVarP(&flagAll, "all", "A", false,
		"Alias for -ild")
	rootCmd.Flags().BoolVarP(&flagUpdate, "update", "u", false,
		"Refresh the cached reference data before scanning")
	rootCmd.Flags().StringVarP(&flagFormat, "format", "f", "txt",
		"Output format (txt, json, yaml, toml, csv)")
	rootCmd.Flags().StringVarP(&flagOutput, "output", "o", "",
		"Output path (for csv: an existing directory)")
	rootCmd.Flags().IntVarP(&flagWidth, "width", "w", 80,
		"Maximum width of txt tables")
	rootCmd.Flags().StringVar(&flagRules, "rules", "",
		"TOML file with extra categories to match against")
}

// newLogger builds the invocation logger. Every entry carries a scan id
// so interleaved output from concurrent invocations can be told apart.
func newLogger() *logging.Logger {
	logger := logging.NewLogger(logging.Config{
		Format: logging.Format(flagLogFormat),
		Level:  logging.LogLevel(flagLogLevel),
	})
	return logger.With(map[string]interface{}{
		"scan_id": uuid.New().String(),
	})
}

// newFetcher builds the reference-source fetcher from configuration
func newFetcher(cfg *config.Config, logger *logging.Logger) *malapi.Fetcher {
	return malapi.NewFetcher(cfg.Source, logger)
}

// newManager wires the cache store and fetcher from configuration
func newManager(cfg *config.Config, logger *logging.Logger) (*cache.Manager, *cache.Store, error) {
	store, err := cache.NewStore(cfg.Cache.Dir, logger)
	if err != nil {
		return nil, nil, err
	}
	return cache.NewManager(store, newFetcher(cfg, logger), logger), store, nil
}
