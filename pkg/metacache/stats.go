package metacache

import "sync"

// statsWindowSize is how many recent fetch attempts the failure ratio is
// computed over.
const statsWindowSize = 50

// statsMinSamples is the minimum number of recorded attempts before the
// ratio is trusted; a single early failure must not flip the cache into
// degraded mode.
const statsMinSamples = 10

// fetchStats tracks a rolling failed-to-total ratio over the most recent
// fetch attempts.
type fetchStats struct {
	mu       sync.Mutex
	window   [statsWindowSize]bool // true = failure
	next     int
	filled   int
	failures int
}

// Record adds one attempt outcome to the window.
func (s *fetchStats) Record(ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.filled == statsWindowSize {
		// Evict the outcome this slot previously held.
		if s.window[s.next] {
			s.failures--
		}
	} else {
		s.filled++
	}

	s.window[s.next] = !ok
	if !ok {
		s.failures++
	}
	s.next = (s.next + 1) % statsWindowSize
}

// FailureRatio returns the fraction of failed attempts in the window.
func (s *fetchStats) FailureRatio() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.filled == 0 {
		return 0
	}
	return float64(s.failures) / float64(s.filled)
}

// Degraded reports whether the failure ratio exceeds the threshold, once
// enough samples exist to judge.
func (s *fetchStats) Degraded(threshold float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.filled < statsMinSamples {
		return false
	}
	return float64(s.failures)/float64(s.filled) > threshold
}
