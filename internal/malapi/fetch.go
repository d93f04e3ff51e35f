package malapi

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"pescan/internal/config"
	"pescan/internal/errors"
	"pescan/internal/logging"
	"pescan/internal/version"
)

// Fetcher retrieves the categorized API reference data from malapi.io.
// It never touches persistent storage; persistence belongs to the cache
// manager so that fetching stays independently testable.
type Fetcher struct {
	client      *http.Client
	endpoint    string
	detailPath  string
	concurrency int
	logger      *logging.Logger
}

// NewFetcher creates a fetcher for the configured reference source
func NewFetcher(cfg config.SourceConfig, logger *logging.Logger) *Fetcher {
	concurrency := cfg.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}

	return &Fetcher{
		client: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
		endpoint:    strings.TrimRight(cfg.Endpoint, "/"),
		detailPath:  cfg.DetailPath,
		concurrency: concurrency,
		logger:      logger,
	}
}

// Fetch retrieves the index page, parses it into categories, and enriches
// every API name from its detail page. Transport failures map to
// FETCH_FAILED and schema drift to PARSE_FAILED so the cache manager can
// decide whether a stale store is an acceptable fallback.
func (f *Fetcher) Fetch(ctx context.Context) (*Manifest, error) {
	resp, err := f.get(ctx, f.endpoint)
	if err != nil {
		return nil, errors.New(errors.FetchFailed, "reference source unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Newf(errors.FetchFailed,
			"reference source returned status %d", resp.StatusCode)
	}

	manifest, err := parseIndex(resp.Body)
	if err != nil {
		return nil, err
	}

	if err := f.fetchDetails(ctx, manifest); err != nil {
		return nil, err
	}

	return manifest, nil
}

// fetchDetails fills in API metadata for every name in the manifest,
// running at most f.concurrency requests at a time. Each goroutine writes
// its own (category, index) slot, so no result locking is needed.
func (f *Fetcher) fetchDetails(ctx context.Context, manifest *Manifest) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sem := make(chan struct{}, f.concurrency)

	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error

	fail := func(err error) {
		mu.Lock()
		if firstErr == nil {
			firstErr = err
			cancel()
		}
		mu.Unlock()
	}

	for ci := range manifest.Categories {
		for ai := range manifest.Categories[ci].APIs {
			wg.Add(1)
			go func(ci, ai int) {
				defer wg.Done()

				select {
				case sem <- struct{}{}:
					defer func() { <-sem }()
				case <-ctx.Done():
					return
				}

				api := &manifest.Categories[ci].APIs[ai]
				d, err := f.fetchDetail(ctx, api.Name)
				if err != nil {
					fail(err)
					return
				}

				api.Info = d.info
				api.Library = d.library
				api.Documentation = d.documentation
			}(ci, ai)
		}
	}

	wg.Wait()
	return firstErr
}

// fetchDetail retrieves and parses one detail page. The source answers
// 406 for a handful of names it knows but does not document; those come
// back with empty metadata rather than failing the refresh.
func (f *Fetcher) fetchDetail(ctx context.Context, name string) (detail, error) {
	url := f.endpoint + f.detailPath + name

	resp, err := f.get(ctx, url)
	if err != nil {
		if ctx.Err() != nil {
			return detail{}, ctx.Err()
		}
		return detail{}, errors.New(errors.FetchFailed,
			fmt.Sprintf("detail page for %q unreachable", name), err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotAcceptable:
		f.logger.Warn("detail page unavailable, caching name only", map[string]interface{}{
			"api": name,
		})
		return detail{}, nil
	case resp.StatusCode != http.StatusOK:
		return detail{}, errors.Newf(errors.FetchFailed,
			"detail page for %q returned status %d", name, resp.StatusCode)
	}

	d, ok := parseDetail(resp.Body)
	if !ok {
		f.logger.Warn("detail page missing expected content, caching name only", map[string]interface{}{
			"api": name,
		})
		return detail{}, nil
	}

	return d, nil
}

func (f *Fetcher) get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", version.UserAgent())

	return f.client.Do(req)
}
