// Package metacache resolves link metadata through a caching, retrying
// fetch layer. For any key at most one external fetch is in flight at a
// time; concurrent readers share its outcome. Fetch failures are cached
// briefly (as values, not absences) so a failing endpoint is not hammered,
// and a rolling failure ratio shortens effective TTLs when the external
// dependency looks degraded, so recovery is noticed promptly.
package metacache

import (
	"context"
	"fmt"
	"time"
)

// ErrorKey is the metadata key carrying a failed fetch's error text.
// Error state lives in the value so failures themselves are cacheable.
const ErrorKey = "error"

// Metadata is the opaque key-value result of a fetch (title, description,
// image, canonical URL, ...).
type Metadata map[string]string

// Failed reports whether this metadata represents a failed fetch.
func (m Metadata) Failed() bool {
	return m[ErrorKey] != ""
}

// Error returns the fetch error text, empty for successful fetches.
func (m Metadata) Error() string {
	return m[ErrorKey]
}

// Fetcher is the external collaborator that actually retrieves metadata
// for a link. The cache assumes nothing about the transport.
type Fetcher interface {
	FetchMetadata(ctx context.Context, url string) (Metadata, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, url string) (Metadata, error)

// FetchMetadata implements Fetcher.
func (f FetcherFunc) FetchMetadata(ctx context.Context, url string) (Metadata, error) {
	return f(ctx, url)
}

// Config holds every tunable of the cache layer. Construct via
// DefaultConfig and override; an invalid config fails at New, not at
// first use.
type Config struct {
	// TTL is how long a successfully fetched entry stays fresh.
	TTL time.Duration
	// FailureTTL is the short lifetime of a cached failure.
	FailureTTL time.Duration
	// FetchTimeout bounds a single fetch attempt.
	FetchTimeout time.Duration
	// MaxAttempts is the total number of fetch attempts before the
	// failure is cached.
	MaxAttempts int
	// BaseDelay seeds the golden-ratio backoff between attempts.
	BaseDelay time.Duration
	// MaxDelay caps the backoff.
	MaxDelay time.Duration
	// DegradedThreshold is the rolling failure ratio above which the
	// cache considers the external dependency degraded.
	DegradedThreshold float64
	// DegradedTTLFactor scales effective TTLs while degraded (0 < f <= 1).
	DegradedTTLFactor float64
	// StaleWhileRevalidate serves an expired entry to the triggering
	// caller while the refresh proceeds in the background. Off by
	// default: a stale read revalidates synchronously.
	StaleWhileRevalidate bool
}

// DefaultConfig returns the stock cache configuration.
func DefaultConfig() Config {
	return Config{
		TTL:               24 * time.Hour,
		FailureTTL:        1 * time.Hour,
		FetchTimeout:      8 * time.Second,
		MaxAttempts:       3,
		BaseDelay:         50 * time.Millisecond,
		MaxDelay:          30 * time.Second,
		DegradedThreshold: 0.10,
		DegradedTTLFactor: 0.10,
	}
}

// validate rejects configurations that cannot work. These are programmer
// errors and fail hard, unlike anything data-dependent.
func (c Config) validate() error {
	if c.TTL <= 0 {
		return fmt.Errorf("metacache: TTL must be positive, got %v", c.TTL)
	}
	if c.FailureTTL <= 0 {
		return fmt.Errorf("metacache: FailureTTL must be positive, got %v", c.FailureTTL)
	}
	if c.FetchTimeout <= 0 {
		return fmt.Errorf("metacache: FetchTimeout must be positive, got %v", c.FetchTimeout)
	}
	if c.MaxAttempts < 1 {
		return fmt.Errorf("metacache: MaxAttempts must be at least 1, got %d", c.MaxAttempts)
	}
	if c.BaseDelay < 0 || c.MaxDelay < 0 {
		return fmt.Errorf("metacache: backoff delays must not be negative")
	}
	if c.DegradedThreshold < 0 || c.DegradedThreshold > 1 {
		return fmt.Errorf("metacache: DegradedThreshold must be in [0,1], got %v", c.DegradedThreshold)
	}
	if c.DegradedTTLFactor <= 0 || c.DegradedTTLFactor > 1 {
		return fmt.Errorf("metacache: DegradedTTLFactor must be in (0,1], got %v", c.DegradedTTLFactor)
	}
	return nil
}
