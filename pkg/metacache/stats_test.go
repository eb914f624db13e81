package metacache

import "testing"

func TestFetchStatsRatio(t *testing.T) {
	var s fetchStats

	if got := s.FailureRatio(); got != 0 {
		t.Errorf("empty ratio = %v, want 0", got)
	}

	for i := 0; i < 8; i++ {
		s.Record(true)
	}
	s.Record(false)
	s.Record(false)

	if got := s.FailureRatio(); got != 0.2 {
		t.Errorf("ratio = %v, want 0.2", got)
	}
}

func TestFetchStatsWindowEviction(t *testing.T) {
	var s fetchStats

	for i := 0; i < statsWindowSize; i++ {
		s.Record(false)
	}
	if got := s.FailureRatio(); got != 1 {
		t.Fatalf("ratio = %v, want 1 after all failures", got)
	}

	// A full window of successes pushes every failure out.
	for i := 0; i < statsWindowSize; i++ {
		s.Record(true)
	}
	if got := s.FailureRatio(); got != 0 {
		t.Errorf("ratio = %v, want 0 after eviction", got)
	}
}

func TestFetchStatsDegraded(t *testing.T) {
	var s fetchStats

	// Below the minimum sample count a bad streak is not trusted.
	for i := 0; i < statsMinSamples-1; i++ {
		s.Record(false)
	}
	if s.Degraded(0.10) {
		t.Error("degraded before minimum sample count")
	}

	s.Record(false)
	if !s.Degraded(0.10) {
		t.Error("not degraded at 100% failure with enough samples")
	}

	// The threshold is strict: exactly at it is not degraded.
	var even fetchStats
	for i := 0; i < 9; i++ {
		even.Record(true)
	}
	even.Record(false)
	if even.Degraded(0.10) {
		t.Error("degraded at exactly the threshold")
	}
	if !even.Degraded(0.05) {
		t.Error("not degraded above a lower threshold")
	}
}
