package malapi

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"pescan/internal/config"
	"pescan/internal/errors"
	"pescan/internal/logging"
)

func testLogger() *logging.Logger {
	return logging.NewLogger(logging.Config{Level: logging.ErrorLevel})
}

func testFetcher(t *testing.T, handler http.Handler) (*Fetcher, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	f := NewFetcher(config.SourceConfig{
		Endpoint:       srv.URL,
		DetailPath:     "/winapi/",
		Concurrency:    2,
		TimeoutSeconds: 5,
	}, testLogger())

	return f, srv
}

func detailPage(info, library, documentation string) string {
	return fmt.Sprintf(`<html><body>
		<div class="content">name</div>
		<div class="content">%s</div>
		<div class="content">%s</div>
		<div class="content">samples</div>
		<div class="content">%s</div>
	</body></html>`, info, library, documentation)
}

func TestFetchBuildsManifest(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, sampleIndex)
	})
	mux.HandleFunc("/winapi/", func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(r.URL.Path, "/winapi/")
		if name == "EnumProcesses" {
			// malapi.io answers 406 for names it indexes but does not document
			w.WriteHeader(http.StatusNotAcceptable)
			return
		}
		fmt.Fprint(w, detailPage("info for "+name, "kernel32.dll", "https://example.invalid/"+name))
	})

	f, _ := testFetcher(t, mux)

	manifest, err := f.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	if got := manifest.Headers(); len(got) != 2 || got[0] != "Enumeration" || got[1] != "Injection" {
		t.Fatalf("headers = %v", got)
	}

	api, ok := manifest.Lookup(1, "VirtualAllocEx")
	if !ok {
		t.Fatal("VirtualAllocEx missing from manifest")
	}
	if api.Info != "info for VirtualAllocEx" || api.Library != "kernel32.dll" {
		t.Errorf("metadata = %+v", api)
	}

	// 406'd name stays in the category, just without metadata
	skipped, ok := manifest.Lookup(0, "EnumProcesses")
	if !ok {
		t.Fatal("EnumProcesses missing from manifest")
	}
	if skipped.Info != "" || skipped.Library != "" || skipped.Documentation != "" {
		t.Errorf("expected empty metadata for 406'd name, got %+v", skipped)
	}
}

func TestFetchIndexStatusError(t *testing.T) {
	f, _ := testFetcher(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))

	_, err := f.Fetch(context.Background())
	if err == nil {
		t.Fatal("expected an error")
	}
	if !errors.HasCode(err, errors.FetchFailed) {
		t.Errorf("error code = %q, want FETCH_FAILED", errors.CodeOf(err))
	}
}

func TestFetchUnreachableHost(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close() // nothing listens on this address anymore

	f := NewFetcher(config.SourceConfig{
		Endpoint:       srv.URL,
		DetailPath:     "/winapi/",
		Concurrency:    1,
		TimeoutSeconds: 1,
	}, testLogger())

	_, err := f.Fetch(context.Background())
	if !errors.HasCode(err, errors.FetchFailed) {
		t.Errorf("error = %v, want FETCH_FAILED", err)
	}
}

func TestFetchDriftedIndex(t *testing.T) {
	f, _ := testFetcher(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><h1>we moved everything around</h1></body></html>`)
	}))

	_, err := f.Fetch(context.Background())
	if !errors.HasCode(err, errors.ParseFailed) {
		t.Errorf("error = %v, want PARSE_FAILED", err)
	}
}

func TestFetchDetailServerError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, sampleIndex)
	})
	mux.HandleFunc("/winapi/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	f, _ := testFetcher(t, mux)

	_, err := f.Fetch(context.Background())
	if !errors.HasCode(err, errors.FetchFailed) {
		t.Errorf("error = %v, want FETCH_FAILED", err)
	}
}
