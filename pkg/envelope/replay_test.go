package envelope

import (
	"fmt"
	"sync"
	"testing"
	"time"

	qerrors "github.com/pqmsg/pqmsg-go/internal/errors"
)

func guardAt(now *time.Time) *ReplayGuard {
	g := NewReplayGuard()
	g.now = func() time.Time { return *now }
	return g
}

func TestReplayGuardDetectsDuplicate(t *testing.T) {
	now := time.Now()
	g := guardAt(&now)
	expiry := now.Add(time.Hour).Unix()

	if err := g.Check("inbox-a", "n1"); err != nil {
		t.Fatalf("fresh nonce rejected: %v", err)
	}
	g.Record("inbox-a", "n1", expiry)

	if err := g.Check("inbox-a", "n1"); !qerrors.Is(err, qerrors.ErrReplayDetected) {
		t.Errorf("expected ErrReplayDetected, got %v", err)
	}
	if err := g.Check("inbox-b", "n1"); err != nil {
		t.Errorf("same nonce in another inbox rejected: %v", err)
	}
}

func TestReplayGuardEviction(t *testing.T) {
	now := time.Now()
	g := guardAt(&now)
	expiry := now.Add(time.Minute).Unix()

	g.Record("inbox-a", "n1", expiry)
	if g.Len() != 1 {
		t.Fatalf("Len = %d, want 1", g.Len())
	}

	// Advance past expiry plus retention.
	now = now.Add(time.Minute + g.retention + time.Second)
	g.EvictExpired()

	if g.Len() != 0 {
		t.Errorf("Len = %d after eviction, want 0", g.Len())
	}
	if err := g.Check("inbox-a", "n1"); err != nil {
		t.Errorf("nonce still rejected after eviction: %v", err)
	}
}

func TestReplayGuardReserve(t *testing.T) {
	now := time.Now()
	g := guardAt(&now)
	expiry := now.Add(time.Hour).Unix()

	if err := g.Reserve("inbox-a", "n1", expiry); err != nil {
		t.Fatalf("fresh reservation rejected: %v", err)
	}
	// A reservation blocks duplicates while the open is in flight.
	if err := g.Reserve("inbox-a", "n1", expiry); !qerrors.Is(err, qerrors.ErrReplayDetected) {
		t.Errorf("duplicate reservation: got %v, want ErrReplayDetected", err)
	}
	if err := g.Check("inbox-a", "n1"); !qerrors.Is(err, qerrors.ErrReplayDetected) {
		t.Errorf("Check during reservation: got %v, want ErrReplayDetected", err)
	}

	// Releasing a failed open frees the nonce for a later delivery.
	g.Release("inbox-a", "n1")
	if err := g.Reserve("inbox-a", "n1", expiry); err != nil {
		t.Fatalf("nonce still blocked after release: %v", err)
	}

	// Recording promotes the reservation; Release no longer frees it.
	g.Record("inbox-a", "n1", expiry)
	g.Release("inbox-a", "n1")
	if err := g.Reserve("inbox-a", "n1", expiry); !qerrors.Is(err, qerrors.ErrReplayDetected) {
		t.Errorf("delivered nonce reservable: got %v, want ErrReplayDetected", err)
	}
}

func TestReplayGuardConcurrentReserve(t *testing.T) {
	now := time.Now()
	g := guardAt(&now)
	expiry := now.Add(time.Hour).Unix()

	const workers = 8
	start := make(chan struct{})
	errs := make([]error, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			<-start
			errs[slot] = g.Reserve("inbox-a", "contested", expiry)
		}(i)
	}
	close(start)
	wg.Wait()

	won := 0
	for _, err := range errs {
		if err == nil {
			won++
		} else if !qerrors.Is(err, qerrors.ErrReplayDetected) {
			t.Errorf("unexpected error: %v", err)
		}
	}
	if won != 1 {
		t.Errorf("%d reservations won for one nonce, want 1", won)
	}
}

func TestReplayGuardBoundedWindow(t *testing.T) {
	now := time.Now()
	g := guardAt(&now)
	expiry := now.Add(time.Hour).Unix()

	over := 100
	for i := 0; i < 1<<16+over; i++ {
		g.Record("inbox-a", fmt.Sprintf("n%d", i), expiry)
	}
	if got := g.Len(); got > 1<<16 {
		t.Errorf("window grew to %d entries, cap is %d", got, 1<<16)
	}
}

func TestReplayGuardConcurrentAccess(t *testing.T) {
	now := time.Now()
	g := guardAt(&now)
	expiry := now.Add(time.Hour).Unix()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			inbox := fmt.Sprintf("inbox-%d", worker%4)
			for j := 0; j < 200; j++ {
				nonce := fmt.Sprintf("w%d-n%d", worker, j)
				if err := g.Check(inbox, nonce); err != nil {
					t.Errorf("unexpected rejection: %v", err)
					return
				}
				g.Record(inbox, nonce, expiry)
			}
		}(i)
	}
	wg.Wait()

	if g.Len() != 8*200 {
		t.Errorf("Len = %d, want %d", g.Len(), 8*200)
	}
}
