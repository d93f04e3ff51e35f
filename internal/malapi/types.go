// Package malapi defines the categorized API reference data scraped from
// malapi.io, and the fetcher that produces it.
package malapi

// API is one known API name within a category, with optional metadata
// scraped from its detail page. Empty metadata fields mean the source had
// no entry for that field, which is valid.
type API struct {
	Name          string `json:"name"`
	Info          string `json:"info,omitempty"`
	Library       string `json:"library,omitempty"`
	Documentation string `json:"documentation,omitempty"`
}

// Category is one behavioral grouping: a header label plus the API records
// discovered under it, in source order.
type Category struct {
	Header string `json:"header"`
	APIs   []API  `json:"apis"`
}

// Names returns the category's API names in stored order.
func (c *Category) Names() []string {
	names := make([]string, len(c.APIs))
	for i, a := range c.APIs {
		names[i] = a.Name
	}
	return names
}

// Manifest is the full categorized reference dataset. Category order is
// significant: downstream results are correlated back to categories by
// positional index, so it must survive persistence round-trips.
type Manifest struct {
	Categories []Category `json:"categories"`
}

// Headers returns the category header labels in stored order.
func (m *Manifest) Headers() []string {
	headers := make([]string, len(m.Categories))
	for i, c := range m.Categories {
		headers[i] = c.Header
	}
	return headers
}

// Lookup returns the API record for name within the category at the given
// index. The second return is false when the category has no record for
// the name, which callers treat as "no metadata", not as an error.
func (m *Manifest) Lookup(categoryIndex int, name string) (*API, bool) {
	if categoryIndex < 0 || categoryIndex >= len(m.Categories) {
		return nil, false
	}
	for i := range m.Categories[categoryIndex].APIs {
		if m.Categories[categoryIndex].APIs[i].Name == name {
			return &m.Categories[categoryIndex].APIs[i], true
		}
	}
	return nil, false
}

// Append returns a copy of the manifest with extra categories added after
// the persisted ones. Used for local rule files; the stored manifest is
// never mutated.
func (m *Manifest) Append(extra []Category) *Manifest {
	merged := &Manifest{
		Categories: make([]Category, 0, len(m.Categories)+len(extra)),
	}
	merged.Categories = append(merged.Categories, m.Categories...)
	merged.Categories = append(merged.Categories, extra...)
	return merged
}
