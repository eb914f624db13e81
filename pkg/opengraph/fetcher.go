// Package opengraph implements the external fetch collaborator for the
// metadata cache: it retrieves a page over HTTP and scrapes OpenGraph
// tags (with title/meta/twitter-card fallbacks) into a metadata map.
// Caching, retries and single-flight all live in the cache layer, so a
// call here always performs exactly one scrape.
package opengraph

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"

	httputil "github.com/lepinkainen/entity-forge/pkg/http"
	"github.com/lepinkainen/entity-forge/pkg/metacache"
	"github.com/lepinkainen/entity-forge/pkg/urlutils"
)

// Metadata keys produced by this fetcher.
const (
	KeyTitle        = "title"
	KeyDescription  = "description"
	KeyImage        = "image"
	KeySiteName     = "site_name"
	KeyCanonicalURL = "canonical_url"
)

// ErrBlockedDomain marks URLs on domains known to refuse scrapers; the
// cache caches this like any other failure, which is exactly right.
var ErrBlockedDomain = fmt.Errorf("domain blocks metadata fetching")

// FetcherConfig tunes the scraper.
type FetcherConfig struct {
	UserAgent      string
	Timeout        time.Duration
	MaxBodySize    int64
	MaxConcurrent  int
	DomainDelay    time.Duration // politeness delay between hits on one domain
	BlockedDomains []string
}

// DefaultFetcherConfig returns the stock scraper configuration.
func DefaultFetcherConfig() FetcherConfig {
	return FetcherConfig{
		UserAgent:     "Mozilla/5.0 (compatible; entity-forge/1.0; metadata fetcher)",
		Timeout:       10 * time.Second,
		MaxBodySize:   1024 * 1024,
		MaxConcurrent: 5,
		DomainDelay:   time.Second,
		BlockedDomains: []string{
			"x.com",
			"twitter.com",
			"facebook.com",
			"instagram.com",
			"linkedin.com",
		},
	}
}

// Fetcher scrapes OpenGraph metadata. It satisfies metacache.Fetcher.
type Fetcher struct {
	cfg    FetcherConfig
	client *httputil.Client

	semaphore   chan struct{}
	domainMutex sync.Mutex
	lastFetch   map[string]time.Time
}

var _ metacache.Fetcher = (*Fetcher)(nil)

// NewFetcher creates a fetcher with the given configuration.
func NewFetcher(cfg FetcherConfig) *Fetcher {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 1
	}

	clientCfg := httputil.DefaultConfig()
	clientCfg.Timeout = cfg.Timeout
	clientCfg.UserAgent = cfg.UserAgent
	// The cache layer owns the retry policy; one attempt per call here.
	clientCfg.MaxRetries = 0
	clientCfg.Headers = map[string]string{
		"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
		"Accept-Language": "en-US,en;q=0.5",
		"Accept-Encoding": "gzip",
	}

	return &Fetcher{
		cfg:       cfg,
		client:    httputil.NewClient(clientCfg),
		semaphore: make(chan struct{}, cfg.MaxConcurrent),
		lastFetch: make(map[string]time.Time),
	}
}

// FetchMetadata implements metacache.Fetcher.
func (f *Fetcher) FetchMetadata(ctx context.Context, targetURL string) (metacache.Metadata, error) {
	if !urlutils.IsValidURL(targetURL) {
		return nil, fmt.Errorf("invalid URL format: %s", targetURL)
	}
	if f.isBlockedURL(targetURL) {
		slog.Debug("skipping blocked URL", "url", targetURL)
		return nil, fmt.Errorf("%w: %s", ErrBlockedDomain, targetURL)
	}

	select {
	case f.semaphore <- struct{}{}:
		defer func() { <-f.semaphore }()
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if err := f.waitForDomain(ctx, targetURL); err != nil {
		return nil, err
	}

	slog.Debug("fetching metadata", "url", targetURL)
	resp, err := f.client.GetWithContext(ctx, targetURL)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if err := httputil.EnsureStatusOK(resp); err != nil {
		return nil, err
	}

	contentType := strings.ToLower(httputil.GetContentType(resp))
	if !strings.Contains(contentType, "text/html") && !strings.Contains(contentType, "application/xhtml") {
		return nil, fmt.Errorf("not an HTML page: %s", contentType)
	}

	var reader io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		defer gz.Close()
		reader = gz
	}

	body, err := io.ReadAll(io.LimitReader(reader, f.cfg.MaxBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	htmlContent := f.convertToUTF8(body, contentType)

	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	md := metacache.Metadata{KeyCanonicalURL: targetURL}
	extractTags(doc, md)
	f.applyFallbacks(md, htmlContent, targetURL)
	cleanup(md)

	slog.Debug("extracted metadata", "url", targetURL, "title", md[KeyTitle])
	return md, nil
}

// waitForDomain applies the per-domain politeness delay.
func (f *Fetcher) waitForDomain(ctx context.Context, targetURL string) error {
	if f.cfg.DomainDelay <= 0 {
		return nil
	}

	parsed, err := url.Parse(targetURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	domain := parsed.Host

	f.domainMutex.Lock()
	if last, exists := f.lastFetch[domain]; exists {
		if since := time.Since(last); since < f.cfg.DomainDelay {
			sleep := f.cfg.DomainDelay - since
			f.domainMutex.Unlock()
			slog.Debug("rate limiting domain", "domain", domain, "sleep", sleep)
			select {
			case <-time.After(sleep):
			case <-ctx.Done():
				return ctx.Err()
			}
			f.domainMutex.Lock()
		}
	}
	f.lastFetch[domain] = time.Now()
	f.domainMutex.Unlock()
	return nil
}

func (f *Fetcher) isBlockedURL(targetURL string) bool {
	for _, domain := range f.cfg.BlockedDomains {
		if strings.Contains(targetURL, domain) {
			return true
		}
	}
	return false
}

// convertToUTF8 converts the response body using charset detection,
// falling back to treating it as UTF-8.
func (f *Fetcher) convertToUTF8(body []byte, contentType string) string {
	utf8Reader, err := charset.NewReader(strings.NewReader(string(body)), contentType)
	if err != nil {
		slog.Warn("failed to detect charset, assuming UTF-8", "error", err)
		return string(body)
	}

	utf8Bytes, err := io.ReadAll(utf8Reader)
	if err != nil {
		return string(body)
	}
	return string(utf8Bytes)
}
