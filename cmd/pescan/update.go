package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"pescan/internal/config"
)

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Refresh the cached reference data",
	Long: `Fetch the current categorized API data from the reference source and
replace the local cache with it. Unlike scanning with --update, a failed
fetch here is an error even when a stale cache exists: an explicit update
that silently keeps old data would be misleading.`,
	Args: cobra.NoArgs,
	RunE: runUpdate,
}

func init() {
	rootCmd.AddCommand(updateCmd)
}

func runUpdate(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	_, store, err := newManager(cfg, logger)
	if err != nil {
		return err
	}

	fetcher := newFetcher(cfg, logger)
	manifest, err := fetcher.Fetch(cmd.Context())
	if err != nil {
		return err
	}

	if err := store.Save(manifest); err != nil {
		return err
	}

	logger.Info("reference data refreshed", map[string]interface{}{
		"path":       store.Path(),
		"categories": len(manifest.Categories),
	})
	return nil
}
