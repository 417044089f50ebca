package metrics

import (
	"math"
	"testing"
	"time"

	"github.com/pqmsg/pqmsg-go/pkg/mode"
)

func TestCollectorEnvelopeCounters(t *testing.T) {
	c := NewCollector(nil)

	c.EnvelopeCreated(mode.Classical)
	c.EnvelopeCreated(mode.Hybrid)
	c.EnvelopeCreated(mode.Hybrid)
	c.EnvelopeOpened(mode.Quantum)

	snap := c.Snapshot()
	if snap.EnvelopesCreated["classical"] != 1 {
		t.Errorf("classical created = %d, want 1", snap.EnvelopesCreated["classical"])
	}
	if snap.EnvelopesCreated["hybrid"] != 2 {
		t.Errorf("hybrid created = %d, want 2", snap.EnvelopesCreated["hybrid"])
	}
	if snap.EnvelopesOpened["quantum"] != 1 {
		t.Errorf("quantum opened = %d, want 1", snap.EnvelopesOpened["quantum"])
	}
}

func TestCollectorRejections(t *testing.T) {
	c := NewCollector(nil)

	c.RejectedByPolicy()
	c.RejectedExpired()
	c.RejectedReplay()
	c.RejectedReplay()
	c.RejectedSignature()
	c.RejectedDecrypt()

	snap := c.Snapshot()
	if snap.RejectedPolicy != 1 || snap.RejectedExpired != 1 ||
		snap.RejectedReplay != 2 || snap.RejectedSignature != 1 ||
		snap.RejectedDecrypt != 1 {
		t.Errorf("unexpected rejection counts: %+v", snap)
	}
}

func TestCollectorAdaptive(t *testing.T) {
	c := NewCollector(nil)

	c.AdaptiveSelected(false)
	c.AdaptiveSelected(true)
	c.AdaptiveSelected(true)

	snap := c.Snapshot()
	if snap.AdaptiveSelections != 3 {
		t.Errorf("selections = %d, want 3", snap.AdaptiveSelections)
	}
	if snap.AdaptiveClamped != 2 {
		t.Errorf("clamped = %d, want 2", snap.AdaptiveClamped)
	}
}

func TestCollectorReset(t *testing.T) {
	c := NewCollector(nil)
	c.EnvelopeCreated(mode.Hybrid)
	c.RejectedReplay()
	c.RecordSealLatency(100 * time.Microsecond)

	c.Reset()

	snap := c.Snapshot()
	if snap.EnvelopesCreated["hybrid"] != 0 || snap.RejectedReplay != 0 {
		t.Error("counters should be zero after reset")
	}
	if snap.SealLatency.Count != 0 {
		t.Error("histogram should be empty after reset")
	}
}

func TestCollectorLabels(t *testing.T) {
	c := NewCollector(Labels{"relay": "eu-west"})
	snap := c.Snapshot()
	if snap.Labels["relay"] != "eu-west" {
		t.Errorf("labels not carried into snapshot: %v", snap.Labels)
	}
}

func TestHistogramObserve(t *testing.T) {
	h := NewHistogram([]float64{10, 100, 1000})

	for _, v := range []float64{5, 50, 500, 5000} {
		h.Observe(v)
	}

	s := h.Summary()
	if s.Count != 4 {
		t.Errorf("Count = %d, want 4", s.Count)
	}
	if s.Min != 5 || s.Max != 5000 {
		t.Errorf("Min/Max = %v/%v", s.Min, s.Max)
	}
	if s.Mean != (5+50+500+5000)/4.0 {
		t.Errorf("Mean = %v", s.Mean)
	}

	// Cumulative bucket counts, last is +Inf.
	want := []uint64{1, 2, 3, 4}
	for i, b := range s.Buckets {
		if b.Count != want[i] {
			t.Errorf("bucket %d count = %d, want %d", i, b.Count, want[i])
		}
	}
	if !math.IsInf(s.Buckets[len(s.Buckets)-1].UpperBound, 1) {
		t.Error("last bucket should be +Inf")
	}
}

func TestHistogramEmpty(t *testing.T) {
	h := NewHistogram(LatencyBuckets)
	s := h.Summary()
	if s.Count != 0 || len(s.Buckets) != 0 {
		t.Errorf("empty histogram summary: %+v", s)
	}
	if h.Mean() != 0 {
		t.Errorf("Mean of empty = %v, want 0", h.Mean())
	}
}

func TestHistogramPercentiles(t *testing.T) {
	h := NewHistogram([]float64{10, 20, 30, 40, 50})
	for i := 1; i <= 100; i++ {
		h.Observe(float64(i % 50))
	}

	s := h.Summary()
	p50, ok := s.Percentiles[0.5]
	if !ok {
		t.Fatal("p50 missing")
	}
	if p50 <= 0 || p50 > 50 {
		t.Errorf("p50 = %v, out of range", p50)
	}
}
