// Package peimport extracts the import table from a PE sample.
package peimport

import (
	"bytes"
	"debug/pe"
	"sort"
	"strings"

	"pescan/internal/errors"
)

// Import is one imported API function and the DLL it resolves from
type Import struct {
	Name string `json:"name"`
	DLL  string `json:"dll"`
}

// Imports parses a PE image from raw bytes and returns its imported
// functions. Anything that is not a PE file, or a PE file without a
// readable import table, is fatal to the scan: there is no partial-sample
// analysis.
func Imports(data []byte) ([]Import, error) {
	f, err := pe.NewFile(bytes.NewReader(data))
	if err != nil {
		return nil, errors.New(errors.SampleInvalid, "not a PE file", err)
	}
	defer f.Close()

	symbols, err := f.ImportedSymbols()
	if err != nil {
		return nil, errors.New(errors.SampleInvalid, "cannot read import table", err)
	}

	imports := make([]Import, 0, len(symbols))
	for _, symbol := range symbols {
		name, dll, ok := splitSymbol(symbol)
		if !ok {
			continue
		}
		imports = append(imports, Import{Name: name, DLL: dll})
	}

	return imports, nil
}

// splitSymbol parses debug/pe's "FunctionName:DLL.dll" symbol format.
// Ordinal-only imports have no function name and are skipped.
func splitSymbol(symbol string) (name, dll string, ok bool) {
	idx := strings.LastIndex(symbol, ":")
	if idx <= 0 {
		return "", "", false
	}
	return symbol[:idx], symbol[idx+1:], true
}

// Names flattens imports into a sorted, deduplicated name list for
// matching. Matching treats imports as a set; duplicates across DLLs
// collapse.
func Names(imports []Import) []string {
	seen := make(map[string]struct{}, len(imports))
	names := make([]string, 0, len(imports))
	for _, imp := range imports {
		if _, dup := seen[imp.Name]; dup {
			continue
		}
		seen[imp.Name] = struct{}{}
		names = append(names, imp.Name)
	}
	sort.Strings(names)
	return names
}
