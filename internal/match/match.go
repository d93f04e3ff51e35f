// Package match computes per-category suspect imports and optionally
// enriches them with metadata from the reference data.
package match

import (
	"pescan/internal/malapi"
)

// Suspects returns, for each category in manifest order, the sample
// import names known to that category. Comparison is exact and
// case-sensitive, with no normalization: names are matched exactly as
// the PE parser reported them. Imports matching no category are simply
// absent from every result. Within a category, matches keep the
// category's stored name order, so the result is deterministic.
func Suspects(manifest *malapi.Manifest, imports []string) [][]string {
	importSet := make(map[string]struct{}, len(imports))
	for _, name := range imports {
		importSet[name] = struct{}{}
	}

	suspects := make([][]string, len(manifest.Categories))
	for ci, category := range manifest.Categories {
		var matched []string
		for _, api := range category.APIs {
			if _, ok := importSet[api.Name]; ok {
				matched = append(matched, api.Name)
			}
		}
		suspects[ci] = matched
	}

	return suspects
}

// Details selects which metadata fields the resolver populates
type Details struct {
	Info          bool
	Library       bool
	Documentation bool
}

// All returns a selection with every detail kind enabled
func All() Details {
	return Details{Info: true, Library: true, Documentation: true}
}

// Any reports whether any detail kind is requested
func (d Details) Any() bool {
	return d.Info || d.Library || d.Documentation
}

// SuspectImport is one matched import, with requested metadata fields
// populated where the store has them. An empty field means the store had
// no entry for it; that is expected, not an error.
type SuspectImport struct {
	Name          string `json:"name" yaml:"name" toml:"name"`
	Info          string `json:"info,omitempty" yaml:"info,omitempty" toml:"info,omitempty"`
	Library       string `json:"library,omitempty" yaml:"library,omitempty" toml:"library,omitempty"`
	Documentation string `json:"documentation,omitempty" yaml:"documentation,omitempty" toml:"documentation,omitempty"`
}

// Report pairs category headers with their suspect imports, parallel by
// index and in manifest order. Details records which metadata kinds were
// requested, so renderers know which columns exist.
type Report struct {
	Headers  []string
	Suspects [][]SuspectImport
	Details  Details
}

// Empty reports whether no category matched anything
func (r *Report) Empty() bool {
	for _, category := range r.Suspects {
		if len(category) > 0 {
			return false
		}
	}
	return true
}

// Resolve builds the report for the given suspects. When details are
// requested, each matched name is looked up in its own category's
// metadata; names the store has no record for keep empty fields. With no
// details requested the lookup is skipped entirely.
func Resolve(manifest *malapi.Manifest, suspects [][]string, details Details) *Report {
	report := &Report{
		Headers:  manifest.Headers(),
		Suspects: make([][]SuspectImport, len(suspects)),
		Details:  details,
	}

	for ci, names := range suspects {
		resolved := make([]SuspectImport, len(names))
		for ni, name := range names {
			suspect := SuspectImport{Name: name}

			if details.Any() {
				if api, ok := manifest.Lookup(ci, name); ok {
					if details.Info {
						suspect.Info = api.Info
					}
					if details.Library {
						suspect.Library = api.Library
					}
					if details.Documentation {
						suspect.Documentation = api.Documentation
					}
				}
			}

			resolved[ni] = suspect
		}
		report.Suspects[ci] = resolved
	}

	return report
}
