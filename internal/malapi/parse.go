package malapi

import (
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"pescan/internal/errors"
)

// malapi.io index page structure: every <th> is a category header, every
// td > table > tbody is the matching category column, and each .map-item
// cell inside a column is one API name. Detail pages carry .content blocks
// in a fixed order; info, library and documentation sit at indexes 1, 2
// and 4.
const (
	headerSelector  = "th"
	columnSelector  = "td > table > tbody"
	apiSelector     = ".map-item"
	contentSelector = ".content"

	contentInfoIndex          = 1
	contentLibraryIndex       = 2
	contentDocumentationIndex = 4
)

// parseIndex converts the index document into a manifest skeleton:
// ordered categories with names only, metadata unpopulated. The source is
// third-party and may drift; a document whose headers and columns do not
// line up is rejected outright rather than partially parsed.
func parseIndex(r io.Reader) (*Manifest, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, errors.New(errors.ParseFailed, "reference index is not parsable HTML", err)
	}

	var headers []string
	doc.Find(headerSelector).Each(func(_ int, s *goquery.Selection) {
		headers = append(headers, strings.TrimSpace(s.Text()))
	})

	var columns [][]string
	doc.Find(columnSelector).Each(func(_ int, col *goquery.Selection) {
		var names []string
		col.Find(apiSelector).Each(func(_ int, cell *goquery.Selection) {
			names = append(names, strings.TrimSpace(cell.Text()))
		})
		columns = append(columns, names)
	})

	if len(headers) == 0 {
		return nil, errors.Newf(errors.ParseFailed, "reference index contains no category headers")
	}
	if len(headers) != len(columns) {
		return nil, errors.Newf(errors.ParseFailed,
			"reference index has %d headers but %d category columns", len(headers), len(columns))
	}

	manifest := &Manifest{Categories: make([]Category, len(headers))}
	for i, header := range headers {
		apis := make([]API, len(columns[i]))
		for j, name := range columns[i] {
			apis[j] = API{Name: name}
		}
		manifest.Categories[i] = Category{Header: header, APIs: apis}
	}

	return manifest, nil
}

// detail holds the scraped fields of one API detail page
type detail struct {
	info          string
	library       string
	documentation string
}

// parseDetail extracts metadata from an API detail page. A page missing
// the expected .content blocks yields empty metadata, not an error: the
// source's detail pages lag behind its index.
func parseDetail(r io.Reader) (detail, bool) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return detail{}, false
	}

	content := doc.Find(contentSelector)
	if content.Length() <= contentDocumentationIndex {
		return detail{}, false
	}

	return detail{
		info:          strings.TrimSpace(content.Eq(contentInfoIndex).Text()),
		library:       strings.TrimSpace(content.Eq(contentLibraryIndex).Text()),
		documentation: strings.TrimSpace(content.Eq(contentDocumentationIndex).Text()),
	}, true
}
