package metacache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/lepinkainen/entity-forge/pkg/urlutils"
)

// Cache is the metadata cache and fetch layer. Per key it moves through
// absent -> fetching -> fresh -> stale; every transition into fetching is
// deduplicated through singleflight so concurrent readers share one
// external fetch.
type Cache struct {
	cfg     Config
	store   Store
	fetcher Fetcher
	backoff BackoffPolicy
	sf      singleflight.Group
	stats   fetchStats

	// sleep is swapped out in tests to observe backoff delays.
	sleep func(time.Duration)
}

// New creates a cache over the given store and fetch collaborator.
func New(cfg Config, store Store, fetcher Fetcher) (*Cache, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if store == nil {
		store = NewMemoryStore()
	}
	if fetcher == nil {
		return nil, fmt.Errorf("metacache: fetcher must not be nil")
	}

	return &Cache{
		cfg:     cfg,
		store:   store,
		fetcher: fetcher,
		backoff: BackoffPolicy{
			BaseDelay: cfg.BaseDelay,
			MaxDelay:  cfg.MaxDelay,
		},
		sleep: time.Sleep,
	}, nil
}

// Get returns the metadata for a link, fetching it if the cache has no
// fresh entry. A fetch failure is returned as metadata whose error field
// is set, never as an error; the error return covers unusable keys and
// caller cancellation only.
//
// If the calling context is cancelled while a fetch is in flight, the
// fetch keeps running and populates the cache for future readers.
func (c *Cache) Get(ctx context.Context, rawURL string) (Metadata, error) {
	key, err := urlutils.Canonicalize(rawURL)
	if err != nil {
		return nil, err
	}

	entry := c.read(key)
	if entry != nil && !entry.Expired(time.Now(), c.ttlFactor()) {
		slog.Debug("metadata cache hit", "key", key)
		return entry.Value, nil
	}

	if entry != nil && c.cfg.StaleWhileRevalidate {
		slog.Debug("serving stale metadata, refreshing in background", "key", key)
		c.sf.DoChan(key, func() (any, error) {
			return c.fetchAndStore(key, entry), nil
		})
		return entry.Value, nil
	}

	ch := c.sf.DoChan(key, func() (any, error) {
		return c.fetchAndStore(key, entry), nil
	})

	select {
	case res := <-ch:
		return res.Val.(Metadata), nil
	case <-ctx.Done():
		// Abandoning caller; the in-flight fetch continues on its own.
		return nil, ctx.Err()
	}
}

// Invalidate removes a link's entry, returning the key to the absent
// state regardless of where it was.
func (c *Cache) Invalidate(rawURL string) error {
	key, err := urlutils.Canonicalize(rawURL)
	if err != nil {
		return err
	}
	return c.store.Delete(key)
}

// FailureRatio exposes the rolling failed-to-total fetch ratio.
func (c *Cache) FailureRatio() float64 {
	return c.stats.FailureRatio()
}

// Degraded reports whether the cache currently distrusts its entries and
// shortens effective TTLs.
func (c *Cache) Degraded() bool {
	return c.stats.Degraded(c.cfg.DegradedThreshold)
}

// Close releases the backing store.
func (c *Cache) Close() error {
	return c.store.Close()
}

// Store returns the backing store, for stats and cleanup surfaces.
func (c *Cache) Store() Store {
	return c.store
}

// ttlFactor scales effective TTLs down while the external dependency
// looks degraded, so recovery is detected promptly.
func (c *Cache) ttlFactor() float64 {
	if c.stats.Degraded(c.cfg.DegradedThreshold) {
		return c.cfg.DegradedTTLFactor
	}
	return 1
}

// read loads an entry, treating store trouble (including corruption) as a
// miss. Fail open: a broken cache row must trigger a refetch, not an
// error to the caller.
func (c *Cache) read(key string) *Entry {
	entry, err := c.store.Read(key)
	if err != nil {
		slog.Warn("cache read failed, treating as miss", "key", key, "error", err)
		return nil
	}
	return entry
}

func (c *Cache) write(entry *Entry) {
	if err := c.store.Write(entry); err != nil {
		slog.Warn("cache write failed", "key", entry.Key, "error", err)
	}
}

// fetchAndStore performs the bounded retry loop for one key and caches
// the outcome, success or failure. It runs under singleflight and is
// deliberately detached from any caller's context.
func (c *Cache) fetchAndStore(key string, prev *Entry) Metadata {
	var lastErr error
	for attempt := 1; attempt <= c.cfg.MaxAttempts; attempt++ {
		if attempt > 1 {
			delay := c.backoff.Delay(attempt - 1)
			slog.Debug("retrying metadata fetch",
				"key", key,
				"attempt", attempt,
				"maxAttempts", c.cfg.MaxAttempts,
				"backoff", delay)
			c.sleep(delay)
		}

		ctx, cancel := context.WithTimeout(context.Background(), c.cfg.FetchTimeout)
		md, err := c.fetcher.FetchMetadata(ctx, key)
		cancel()

		if err == nil {
			c.stats.Record(true)
			entry := &Entry{
				Key:       key,
				Value:     md,
				FetchedAt: time.Now(),
				TTL:       c.cfg.TTL,
			}
			c.write(entry)
			if attempt > 1 {
				slog.Debug("metadata fetch succeeded after retry", "key", key, "attempt", attempt)
			}
			return md
		}

		c.stats.Record(false)
		lastErr = err
	}

	// Retries exhausted: cache the failure briefly so subsequent reads
	// do not hammer the failing endpoint.
	failures := uint8(1)
	if prev != nil && prev.FailureCount < 255 {
		failures = prev.FailureCount + 1
	}

	md := Metadata{ErrorKey: lastErr.Error()}
	entry := &Entry{
		Key:          key,
		Value:        md,
		FetchedAt:    time.Now(),
		TTL:          c.cfg.FailureTTL,
		FailureCount: failures,
	}
	c.write(entry)

	slog.Warn("metadata fetch failed, caching failure",
		"key", key,
		"attempts", c.cfg.MaxAttempts,
		"failureCount", failures,
		"error", lastErr)
	return md
}
