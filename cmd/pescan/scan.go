package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"pescan/internal/config"
	"pescan/internal/errors"
	"pescan/internal/malapi"
	"pescan/internal/match"
	"pescan/internal/output"
	"pescan/internal/peimport"
)

// containerEnv marks a non-interactive/containerized run; it only adjusts
// the diagnostic when the sample cannot be read.
const containerEnv = "PESCAN_CONTAINER"

func runScan(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	format, err := output.ParseFormat(flagFormat)
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	samplePath := args[0]
	data, err := os.ReadFile(samplePath)
	if err != nil {
		if os.Getenv(containerEnv) != "" {
			return errors.New(errors.SampleUnreadable,
				fmt.Sprintf("cannot read sample %q; mount the sample into the container filesystem", samplePath), err)
		}
		return errors.New(errors.SampleUnreadable,
			fmt.Sprintf("cannot read sample %q", samplePath), err)
	}

	imports, err := peimport.Imports(data)
	if err != nil {
		return err
	}
	names := peimport.Names(imports)
	logger.Debug("extracted imports", map[string]interface{}{
		"sample":  samplePath,
		"imports": len(names),
	})

	manager, _, err := newManager(cfg, logger)
	if err != nil {
		return err
	}
	manifest, err := manager.Load(cmd.Context(), flagUpdate)
	if err != nil {
		return err
	}

	if flagRules != "" {
		extra, err := malapi.LoadRules(flagRules)
		if err != nil {
			return err
		}
		manifest = manifest.Append(extra)
	}

	suspects := match.Suspects(manifest, names)
	report := match.Resolve(manifest, suspects, detailKinds())

	return writeReport(report, format)
}

// detailKinds maps the CLI flags onto the resolver's selection
func detailKinds() match.Details {
	if flagAll {
		return match.All()
	}
	return match.Details{
		Info:          flagInfo,
		Library:       flagLibrary,
		Documentation: flagDocumentation,
	}
}

func writeReport(report *match.Report, format output.Format) error {
	if format == output.FormatCSV && flagOutput != "" {
		return output.RenderCSVDir(flagOutput, report)
	}

	if flagOutput == "" {
		return output.Render(os.Stdout, report, format, flagWidth)
	}

	f, err := os.Create(flagOutput)
	if err != nil {
		return errors.New(errors.OutputFailed,
			fmt.Sprintf("cannot create output file %q", flagOutput), err)
	}

	werr := output.Render(f, report, format, flagWidth)
	if cerr := f.Close(); werr == nil && cerr != nil {
		werr = errors.New(errors.OutputFailed,
			fmt.Sprintf("cannot write output file %q", flagOutput), cerr)
	}
	return werr
}
