package opengraph

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// testFetcherConfig disables politeness delays so tests run fast.
func testFetcherConfig() FetcherConfig {
	cfg := DefaultFetcherConfig()
	cfg.DomainDelay = 0
	cfg.Timeout = 5 * time.Second
	return cfg
}

func serveHTML(t *testing.T, body string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, body)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestFetchMetadataOpenGraphTags(t *testing.T) {
	server := serveHTML(t, `<!DOCTYPE html>
<html><head>
<meta property="og:title" content="OG Title">
<title>Fallback Title</title>
<meta property="og:description" content="OG description text">
<meta property="og:image" content="https://img.example/pic.png">
<meta property="og:site_name" content="Example Site">
</head><body><p>Body text</p></body></html>`)

	f := NewFetcher(testFetcherConfig())
	md, err := f.FetchMetadata(t.Context(), server.URL)
	if err != nil {
		t.Fatalf("FetchMetadata failed: %v", err)
	}

	expectations := map[string]string{
		KeyTitle:       "OG Title",
		KeyDescription: "OG description text",
		KeyImage:       "https://img.example/pic.png",
		KeySiteName:    "Example Site",
	}
	for key, want := range expectations {
		if got := md[key]; got != want {
			t.Errorf("%s = %q, want %q", key, got, want)
		}
	}
	if md[KeyCanonicalURL] != server.URL {
		t.Errorf("canonical_url = %q, want %q", md[KeyCanonicalURL], server.URL)
	}
}

func TestFetchMetadataFallbacks(t *testing.T) {
	server := serveHTML(t, `<!DOCTYPE html>
<html><head><title>Plain Title</title></head>
<body><p>A paragraph long enough to serve as the description fallback.</p></body></html>`)

	f := NewFetcher(testFetcherConfig())
	md, err := f.FetchMetadata(t.Context(), server.URL)
	if err != nil {
		t.Fatalf("FetchMetadata failed: %v", err)
	}

	if md[KeyTitle] != "Plain Title" {
		t.Errorf("title = %q, want the <title> fallback", md[KeyTitle])
	}
	if !strings.Contains(md[KeyDescription], "description fallback") {
		t.Errorf("description = %q, want the first-paragraph fallback", md[KeyDescription])
	}
	// Site name falls back to the host.
	if md[KeySiteName] == "" {
		t.Error("site_name fallback missing")
	}
}

func TestFetchMetadataCanonicalLink(t *testing.T) {
	server := serveHTML(t, `<html><head>
<title>T</title>
<link rel="canonical" href="https://canonical.example/page">
</head><body></body></html>`)

	f := NewFetcher(testFetcherConfig())
	md, err := f.FetchMetadata(t.Context(), server.URL)
	if err != nil {
		t.Fatalf("FetchMetadata failed: %v", err)
	}
	if md[KeyCanonicalURL] != "https://canonical.example/page" {
		t.Errorf("canonical_url = %q", md[KeyCanonicalURL])
	}
}

func TestFetchMetadataNonHTML(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"not": "html"}`)
	}))
	defer server.Close()

	f := NewFetcher(testFetcherConfig())
	if _, err := f.FetchMetadata(t.Context(), server.URL); err == nil {
		t.Error("expected error for non-HTML content type")
	}
}

func TestFetchMetadataHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	f := NewFetcher(testFetcherConfig())
	if _, err := f.FetchMetadata(t.Context(), server.URL); err == nil {
		t.Error("expected error for status 404")
	}
}

func TestFetchMetadataBlockedDomain(t *testing.T) {
	f := NewFetcher(testFetcherConfig())
	_, err := f.FetchMetadata(t.Context(), "https://x.com/some/post")
	if !errors.Is(err, ErrBlockedDomain) {
		t.Errorf("expected ErrBlockedDomain, got %v", err)
	}
}

func TestFetchMetadataInvalidURL(t *testing.T) {
	f := NewFetcher(testFetcherConfig())
	if _, err := f.FetchMetadata(t.Context(), "not a url"); err == nil {
		t.Error("expected error for invalid URL")
	}
}

func TestFetchMetadataDomainDelay(t *testing.T) {
	server := serveHTML(t, `<html><head><title>T</title></head><body></body></html>`)

	cfg := testFetcherConfig()
	cfg.DomainDelay = 60 * time.Millisecond
	f := NewFetcher(cfg)

	ctx := t.Context()
	start := time.Now()
	if _, err := f.FetchMetadata(ctx, server.URL+"/a"); err != nil {
		t.Fatalf("first fetch failed: %v", err)
	}
	if _, err := f.FetchMetadata(ctx, server.URL+"/b"); err != nil {
		t.Fatalf("second fetch failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed < cfg.DomainDelay {
		t.Errorf("two same-domain fetches finished in %v, politeness delay not applied", elapsed)
	}
}

func TestCleanup(t *testing.T) {
	md := map[string]string{
		KeyTitle:       "  padded title\x00  ",
		KeyDescription: strings.Repeat("d", 600),
		KeyImage:       "not a valid url",
		KeySiteName:    "",
	}
	cleanup(md)

	if md[KeyTitle] != "padded title" {
		t.Errorf("title = %q", md[KeyTitle])
	}
	if len(md[KeyDescription]) != 500 || !strings.HasSuffix(md[KeyDescription], "...") {
		t.Errorf("description not truncated: len=%d", len(md[KeyDescription]))
	}
	if _, ok := md[KeyImage]; ok {
		t.Error("invalid image URL survived cleanup")
	}
	if _, ok := md[KeySiteName]; ok {
		t.Error("empty key survived cleanup")
	}
}
