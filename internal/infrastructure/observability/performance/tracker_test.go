package performance

import (
	"testing"
)

func TestCompleteAggregatesStats(t *testing.T) {
	tracker := NewTracker()

	marker := tracker.StartOperation("score_customer", "shop-a")
	marker.Complete()

	stats := tracker.Stats()
	if len(stats) != 1 {
		t.Fatalf("stats entries = %d, want 1 after a completed operation", len(stats))
	}
	if stats[0].Operation != "score_customer" {
		t.Errorf("operation = %q, want score_customer", stats[0].Operation)
	}
	if stats[0].Count != 1 {
		t.Errorf("count = %d, want 1", stats[0].Count)
	}
	if stats[0].Failures != 0 {
		t.Errorf("failures = %d, want 0", stats[0].Failures)
	}
}

func TestCompleteCountsFailures(t *testing.T) {
	tracker := NewTracker()

	marker := tracker.StartOperation("score_customer", "shop-a")
	marker.SetSuccess(false)
	marker.Complete()

	ok := tracker.StartOperation("score_customer", "shop-a")
	ok.Complete()

	stats := tracker.Stats()
	if len(stats) != 1 {
		t.Fatalf("stats entries = %d, want 1", len(stats))
	}
	if stats[0].Count != 2 {
		t.Errorf("count = %d, want 2", stats[0].Count)
	}
	if stats[0].Failures != 1 {
		t.Errorf("failures = %d, want 1", stats[0].Failures)
	}
}

func TestCompleteIsIdempotent(t *testing.T) {
	tracker := NewTracker()

	marker := tracker.StartOperation("forecast_revenue", "shop-a")
	marker.Complete()
	marker.Complete()

	stats := tracker.Stats()
	if len(stats) != 1 || stats[0].Count != 1 {
		t.Errorf("stats = %+v, want a single entry counted once", stats)
	}
}

func TestCompleteDropsMarkerFromInFlightSet(t *testing.T) {
	tracker := NewTracker()

	first := tracker.StartOperation("generate_insights", "shop-a")
	second := tracker.StartOperation("generate_insights", "shop-b")
	first.Complete()

	tracker.mu.RLock()
	live := len(tracker.markers)
	tracker.mu.RUnlock()
	if live != 1 {
		t.Errorf("in-flight markers = %d, want 1 while one operation is still running", live)
	}

	second.Complete()
	tracker.mu.RLock()
	live = len(tracker.markers)
	tracker.mu.RUnlock()
	if live != 0 {
		t.Errorf("in-flight markers = %d, want 0 after all operations complete", live)
	}
}
