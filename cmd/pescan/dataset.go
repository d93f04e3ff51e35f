package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"pescan/internal/bundle"
	"pescan/internal/config"
	"pescan/internal/errors"
)

var datasetCmd = &cobra.Command{
	Use:   "dataset",
	Short: "Export or import the reference dataset",
	Long: `Move the cached reference dataset between hosts as a compressed bundle.
Export on a connected machine, copy the bundle, and import it on an
air-gapped one; scans there then run entirely offline.`,
}

var datasetExportCmd = &cobra.Command{
	Use:   "export PATH",
	Short: "Write the reference dataset to a bundle file",
	Args:  cobra.ExactArgs(1),
	RunE:  runDatasetExport,
}

var datasetImportCmd = &cobra.Command{
	Use:   "import PATH",
	Short: "Replace the local cache with a bundle file",
	Args:  cobra.ExactArgs(1),
	RunE:  runDatasetImport,
}

func init() {
	datasetCmd.AddCommand(datasetExportCmd)
	datasetCmd.AddCommand(datasetImportCmd)
	rootCmd.AddCommand(datasetCmd)
}

func runDatasetExport(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	manager, _, err := newManager(cfg, logger)
	if err != nil {
		return err
	}
	manifest, err := manager.Load(cmd.Context(), false)
	if err != nil {
		return err
	}

	f, err := os.Create(args[0])
	if err != nil {
		return errors.New(errors.OutputFailed,
			fmt.Sprintf("cannot create bundle file %q", args[0]), err)
	}

	werr := bundle.Write(f, manifest)
	if cerr := f.Close(); werr == nil && cerr != nil {
		werr = errors.New(errors.OutputFailed,
			fmt.Sprintf("cannot write bundle file %q", args[0]), cerr)
	}
	if werr != nil {
		return werr
	}

	logger.Info("dataset exported", map[string]interface{}{
		"path":       args[0],
		"categories": len(manifest.Categories),
	})
	return nil
}

func runDatasetImport(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	f, err := os.Open(args[0])
	if err != nil {
		return errors.New(errors.CacheInvalid,
			fmt.Sprintf("cannot open bundle file %q", args[0]), err)
	}
	defer f.Close()

	manifest, err := bundle.Read(f)
	if err != nil {
		return err
	}

	_, store, err := newManager(cfg, logger)
	if err != nil {
		return err
	}
	if err := store.Save(manifest); err != nil {
		return err
	}

	logger.Info("dataset imported", map[string]interface{}{
		"path":       store.Path(),
		"categories": len(manifest.Categories),
	})
	return nil
}
