package metacache

import (
	"math"
	"time"
)

// BackoffPolicy computes the delay before a retry attempt. The default
// multiplier is the golden ratio, which grows noticeably slower than
// doubling while still being strictly increasing.
type BackoffPolicy struct {
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	Multiplier float64
}

// DefaultBackoffPolicy returns the golden-ratio policy used by the cache.
func DefaultBackoffPolicy() BackoffPolicy {
	return BackoffPolicy{
		BaseDelay:  50 * time.Millisecond,
		MaxDelay:   30 * time.Second,
		Multiplier: math.Phi,
	}
}

// Delay returns the wait before the given retry. attempt counts completed
// attempts, so the first retry (attempt 1) waits BaseDelay, the second
// BaseDelay*phi, and so on. Non-positive attempts wait nothing.
func (p BackoffPolicy) Delay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}

	mult := p.Multiplier
	if mult <= 1 {
		mult = math.Phi
	}

	d := float64(p.BaseDelay) * math.Pow(mult, float64(attempt-1))
	if p.MaxDelay > 0 && d > float64(p.MaxDelay) {
		d = float64(p.MaxDelay)
	}
	return time.Duration(d)
}
