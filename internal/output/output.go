// Package output renders a scan report in the supported serialization
// formats. The core pipeline never serializes; everything user-visible
// about a report lives here.
package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"pescan/internal/errors"
	"pescan/internal/match"
)

// Format represents the report output format
type Format string

const (
	FormatTXT  Format = "txt"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
	FormatCSV  Format = "csv"
)

// ParseFormat validates a format name from the CLI
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case FormatTXT:
		return FormatTXT, nil
	case FormatJSON:
		return FormatJSON, nil
	case FormatYAML:
		return FormatYAML, nil
	case FormatTOML:
		return FormatTOML, nil
	case FormatCSV:
		return FormatCSV, nil
	default:
		return "", errors.Newf(errors.OutputFailed,
			"unsupported format %q (txt, json, yaml, toml, csv)", s)
	}
}

// document is the serialized report shape for json/yaml/toml. Categories
// stay a slice so their order survives encoding; categories without
// suspects are omitted entirely.
type document struct {
	Categories []documentCategory `json:"categories" yaml:"categories" toml:"categories"`
}

type documentCategory struct {
	Category string                `json:"category" yaml:"category" toml:"category"`
	Imports  []match.SuspectImport `json:"imports" yaml:"imports" toml:"imports"`
}

func buildDocument(report *match.Report) document {
	doc := document{Categories: []documentCategory{}}
	for i, header := range report.Headers {
		if len(report.Suspects[i]) == 0 {
			continue
		}
		doc.Categories = append(doc.Categories, documentCategory{
			Category: header,
			Imports:  report.Suspects[i],
		})
	}
	return doc
}

// Render writes the report to w in the given format. The width parameter
// only affects txt tables. CSV to a single writer emits one block per
// non-empty category; use RenderCSVDir for one file per category.
func Render(w io.Writer, report *match.Report, format Format, width int) error {
	switch format {
	case FormatTXT:
		return renderTXT(w, report, width)
	case FormatJSON:
		return renderJSON(w, report)
	case FormatYAML:
		return renderYAML(w, report)
	case FormatTOML:
		return renderTOML(w, report)
	case FormatCSV:
		return renderCSV(w, report)
	default:
		return errors.Newf(errors.OutputFailed, "unsupported format %q", format)
	}
}

func renderJSON(w io.Writer, report *match.Report) error {
	data, err := json.MarshalIndent(buildDocument(report), "", "  ")
	if err != nil {
		return errors.New(errors.OutputFailed, "cannot encode json", err)
	}
	if _, err := fmt.Fprintln(w, string(data)); err != nil {
		return errors.New(errors.OutputFailed, "cannot write report", err)
	}
	return nil
}

func renderYAML(w io.Writer, report *match.Report) error {
	data, err := yaml.Marshal(buildDocument(report))
	if err != nil {
		return errors.New(errors.OutputFailed, "cannot encode yaml", err)
	}
	if _, err := w.Write(data); err != nil {
		return errors.New(errors.OutputFailed, "cannot write report", err)
	}
	return nil
}

func renderTOML(w io.Writer, report *match.Report) error {
	data, err := toml.Marshal(buildDocument(report))
	if err != nil {
		return errors.New(errors.OutputFailed, "cannot encode toml", err)
	}
	if _, err := w.Write(data); err != nil {
		return errors.New(errors.OutputFailed, "cannot write report", err)
	}
	return nil
}

// renderTXT prints one aligned table per non-empty category. Long cells
// are clipped to keep tables near the requested total width.
// Documentation URLs shorten to OSC 8 hyperlinks, like the original
// terminal output this replaces.
func renderTXT(w io.Writer, report *match.Report, width int) error {
	if width < 20 {
		width = 80
	}

	columns := 1
	if report.Details.Info {
		columns++
	}
	if report.Details.Library {
		columns++
	}
	if report.Details.Documentation {
		columns++
	}
	cellWidth := width / columns

	for i, header := range report.Headers {
		suspects := report.Suspects[i]
		if len(suspects) == 0 {
			continue
		}

		if _, err := fmt.Fprintf(w, "%s:\n", header); err != nil {
			return errors.New(errors.OutputFailed, "cannot write report", err)
		}

		tw := tabwriter.NewWriter(w, 2, 4, 2, ' ', 0)
		for _, s := range suspects {
			row := []string{clip(s.Name, cellWidth)}
			if report.Details.Info {
				row = append(row, clip(s.Info, cellWidth))
			}
			if report.Details.Library {
				row = append(row, clip(s.Library, cellWidth))
			}
			if report.Details.Documentation {
				row = append(row, hyperlink(s.Documentation))
			}
			fmt.Fprintln(tw, strings.Join(row, "\t"))
		}
		if err := tw.Flush(); err != nil {
			return errors.New(errors.OutputFailed, "cannot write report", err)
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return errors.New(errors.OutputFailed, "cannot write report", err)
		}
	}

	return nil
}

// clip shortens a cell to at most width runes, marking the cut
func clip(s string, width int) string {
	if width < 8 {
		width = 8
	}
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	return string(runes[:width-3]) + "..."
}

// hyperlink renders a URL as an OSC 8 terminal hyperlink labelled [link]
func hyperlink(url string) string {
	if url == "" {
		return ""
	}
	return "\x1b]8;;" + url + "\x1b\\[link]\x1b]8;;\x1b\\"
}

// csvHeader returns the column header row for the requested details
func csvHeader(details match.Details) []string {
	header := []string{"name"}
	if details.Info {
		header = append(header, "info")
	}
	if details.Library {
		header = append(header, "library")
	}
	if details.Documentation {
		header = append(header, "documentation")
	}
	return header
}

func csvRecord(s match.SuspectImport, details match.Details) []string {
	record := []string{s.Name}
	if details.Info {
		record = append(record, s.Info)
	}
	if details.Library {
		record = append(record, s.Library)
	}
	if details.Documentation {
		record = append(record, s.Documentation)
	}
	return record
}

func renderCSV(w io.Writer, report *match.Report) error {
	for i, header := range report.Headers {
		suspects := report.Suspects[i]
		if len(suspects) == 0 {
			continue
		}

		if _, err := fmt.Fprintf(w, "%s:\n", header); err != nil {
			return errors.New(errors.OutputFailed, "cannot write report", err)
		}

		cw := csv.NewWriter(w)
		if err := cw.Write(csvHeader(report.Details)); err != nil {
			return errors.New(errors.OutputFailed, "cannot write csv", err)
		}
		for _, s := range suspects {
			if err := cw.Write(csvRecord(s, report.Details)); err != nil {
				return errors.New(errors.OutputFailed, "cannot write csv", err)
			}
		}
		cw.Flush()
		if err := cw.Error(); err != nil {
			return errors.New(errors.OutputFailed, "cannot write csv", err)
		}

		if _, err := fmt.Fprintln(w); err != nil {
			return errors.New(errors.OutputFailed, "cannot write report", err)
		}
	}

	return nil
}

// RenderCSVDir writes one {header}.csv file per non-empty category into
// dir, which must be an existing directory.
func RenderCSVDir(dir string, report *match.Report) error {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return errors.Newf(errors.OutputFailed, "csv output path %q must be a directory", dir)
	}

	for i, header := range report.Headers {
		suspects := report.Suspects[i]
		if len(suspects) == 0 {
			continue
		}

		path := filepath.Join(dir, header+".csv")
		f, err := os.Create(path)
		if err != nil {
			return errors.New(errors.OutputFailed, fmt.Sprintf("cannot create %q", path), err)
		}

		cw := csv.NewWriter(f)
		werr := cw.Write(csvHeader(report.Details))
		for _, s := range suspects {
			if werr != nil {
				break
			}
			werr = cw.Write(csvRecord(s, report.Details))
		}
		cw.Flush()
		if werr == nil {
			werr = cw.Error()
		}

		if cerr := f.Close(); werr == nil {
			werr = cerr
		}
		if werr != nil {
			return errors.New(errors.OutputFailed, fmt.Sprintf("cannot write %q", path), werr)
		}
	}

	return nil
}
