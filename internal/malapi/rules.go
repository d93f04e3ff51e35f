package malapi

import (
	"os"

	"github.com/BurntSushi/toml"

	"pescan/internal/errors"
)

// Local rule files let analysts append their own categories to the scraped
// dataset at scan time. They are never persisted into the cache.
//
//	[[category]]
//	header = "company watchlist"
//	names = ["RegisterRawInputDevices"]
//
//	[[category.api]]
//	name = "NtSetInformationProcess"
//	info = "used by internal loader"
type rulesFile struct {
	Categories []ruleCategory `toml:"category"`
}

type ruleCategory struct {
	Header string    `toml:"header"`
	Names  []string  `toml:"names"`
	APIs   []ruleAPI `toml:"api"`
}

type ruleAPI struct {
	Name          string `toml:"name"`
	Info          string `toml:"info"`
	Library       string `toml:"library"`
	Documentation string `toml:"documentation"`
}

// LoadRules decodes a local TOML rules file into categories, in file
// order. Bare names and detailed entries may be mixed within a category;
// bare names come first.
func LoadRules(path string) ([]Category, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New(errors.RulesInvalid, "cannot read rules file", err)
	}

	var file rulesFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, errors.New(errors.RulesInvalid, "cannot decode rules file", err)
	}

	if len(file.Categories) == 0 {
		return nil, errors.Newf(errors.RulesInvalid, "rules file declares no categories")
	}

	seen := make(map[string]struct{}, len(file.Categories))
	categories := make([]Category, 0, len(file.Categories))

	for _, rc := range file.Categories {
		if rc.Header == "" {
			return nil, errors.Newf(errors.RulesInvalid, "rules category is missing a header")
		}
		if _, dup := seen[rc.Header]; dup {
			return nil, errors.Newf(errors.RulesInvalid, "duplicate rules category %q", rc.Header)
		}
		seen[rc.Header] = struct{}{}

		apis := make([]API, 0, len(rc.Names)+len(rc.APIs))
		for _, name := range rc.Names {
			if name == "" {
				return nil, errors.Newf(errors.RulesInvalid,
					"rules category %q contains an empty name", rc.Header)
			}
			apis = append(apis, API{Name: name})
		}
		for _, ra := range rc.APIs {
			if ra.Name == "" {
				return nil, errors.Newf(errors.RulesInvalid,
					"rules category %q contains an entry without a name", rc.Header)
			}
			apis = append(apis, API{
				Name:          ra.Name,
				Info:          ra.Info,
				Library:       ra.Library,
				Documentation: ra.Documentation,
			})
		}

		categories = append(categories, Category{Header: rc.Header, APIs: apis})
	}

	return categories, nil
}
