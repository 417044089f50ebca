package envelope

import (
	"context"
	"sync"
	"time"

	"github.com/pqmsg/pqmsg-go/internal/constants"
	qerrors "github.com/pqmsg/pqmsg-go/internal/errors"
)

// ReplayGuard tracks recently seen envelope nonces per inbox and
// rejects duplicates inside the retention window.
//
// Locking is scoped per inbox: receipt of messages for different
// inboxes never contends. The guard retains a nonce until the
// envelope's expiry plus the retention margin, after which the sweeper
// evicts it; an envelope older than that is already rejected as
// Expired before the guard is consulted.
type ReplayGuard struct {
	mu      sync.RWMutex
	inboxes map[string]*inboxWindow

	retention time.Duration
	now       func() time.Time
}

type inboxWindow struct {
	mu     sync.Mutex
	nonces map[string]nonceEntry
}

// nonceEntry tracks one nonce until its retention deadline. A pending
// entry is a reservation held by an in-flight open; it blocks duplicate
// deliveries but is released again if that open fails.
type nonceEntry struct {
	deadline int64 // unix seconds
	pending  bool
}

// NewReplayGuard creates a guard with the standard retention margin.
func NewReplayGuard() *ReplayGuard {
	return &ReplayGuard{
		inboxes:   make(map[string]*inboxWindow),
		retention: constants.ReplayRetentionSeconds * time.Second,
		now:       time.Now,
	}
}

func (g *ReplayGuard) window(inboxID string, create bool) *inboxWindow {
	g.mu.RLock()
	w := g.inboxes[inboxID]
	g.mu.RUnlock()
	if w != nil || !create {
		return w
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if w = g.inboxes[inboxID]; w == nil {
		w = &inboxWindow{nonces: make(map[string]nonceEntry)}
		g.inboxes[inboxID] = w
	}
	return w
}

// Check reports whether the nonce has been seen for this inbox. It does
// not record or reserve the nonce; the receive path uses Reserve so
// concurrent deliveries of the same nonce cannot interleave past it.
func (g *ReplayGuard) Check(inboxID, nonce string) error {
	w := g.window(inboxID, false)
	if w == nil {
		return nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if e, seen := w.nonces[nonce]; seen && e.deadline >= g.now().Unix() {
		return qerrors.ErrReplayDetected
	}
	return nil
}

// Reserve atomically checks the nonce and claims it for an in-flight
// open. The reservation blocks any other delivery of the same (inbox,
// nonce) pair; the caller must then either Record the nonce on a
// successful open or Release it, so a failed decryption does not burn
// the nonce for a later legitimate delivery.
func (g *ReplayGuard) Reserve(inboxID, nonce string, expiry int64) error {
	w := g.window(inboxID, true)

	w.mu.Lock()
	defer w.mu.Unlock()
	if e, seen := w.nonces[nonce]; seen && e.deadline >= g.now().Unix() {
		return qerrors.ErrReplayDetected
	}

	if len(w.nonces) >= constants.MaxNoncesPerInbox {
		w.evictLocked(g.now().Unix())
		for len(w.nonces) >= constants.MaxNoncesPerInbox {
			w.dropEarliestLocked()
		}
	}
	w.nonces[nonce] = nonceEntry{
		deadline: expiry + int64(g.retention/time.Second),
		pending:  true,
	}
	return nil
}

// Release drops a reservation after a failed open. A nonce already
// recorded as delivered is left in place.
func (g *ReplayGuard) Release(inboxID, nonce string) {
	w := g.window(inboxID, false)
	if w == nil {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if e, seen := w.nonces[nonce]; seen && e.pending {
		delete(w.nonces, nonce)
	}
}

// Record marks a nonce as delivered for this inbox until expiry plus
// the retention margin, promoting any reservation held for it. The
// per-inbox window is bounded; when full, the entries closest to
// eviction are dropped to make room.
func (g *ReplayGuard) Record(inboxID, nonce string, expiry int64) {
	deadline := expiry + int64(g.retention/time.Second)
	w := g.window(inboxID, true)

	w.mu.Lock()
	defer w.mu.Unlock()

	if _, seen := w.nonces[nonce]; !seen && len(w.nonces) >= constants.MaxNoncesPerInbox {
		w.evictLocked(g.now().Unix())
		for len(w.nonces) >= constants.MaxNoncesPerInbox {
			w.dropEarliestLocked()
		}
	}
	w.nonces[nonce] = nonceEntry{deadline: deadline}
}

func (w *inboxWindow) evictLocked(now int64) {
	for nonce, e := range w.nonces {
		if e.deadline < now {
			delete(w.nonces, nonce)
		}
	}
}

// dropEarliestLocked removes the entry closest to eviction, preferring
// delivered entries so active reservations keep blocking duplicates.
func (w *inboxWindow) dropEarliestLocked() {
	var victim string
	var earliest int64
	victimPending := true
	first := true
	for nonce, e := range w.nonces {
		if first || (victimPending && !e.pending) || (e.pending == victimPending && e.deadline < earliest) {
			victim, earliest, victimPending, first = nonce, e.deadline, e.pending, false
		}
	}
	if !first {
		delete(w.nonces, victim)
	}
}

// EvictExpired sweeps all inboxes, removing nonces past their retention
// deadline and empty windows.
func (g *ReplayGuard) EvictExpired() {
	now := g.now().Unix()

	g.mu.Lock()
	defer g.mu.Unlock()
	for inboxID, w := range g.inboxes {
		w.mu.Lock()
		w.evictLocked(now)
		empty := len(w.nonces) == 0
		w.mu.Unlock()
		if empty {
			delete(g.inboxes, inboxID)
		}
	}
}

// Run sweeps periodically until the context is cancelled. Intended to
// be launched as a goroutine alongside the receive path.
func (g *ReplayGuard) Run(ctx context.Context) {
	ticker := time.NewTicker(constants.ReplayEvictionIntervalSeconds * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			g.EvictExpired()
		}
	}
}

// Len returns the total number of tracked nonces across all inboxes.
func (g *ReplayGuard) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	total := 0
	for _, w := range g.inboxes {
		w.mu.Lock()
		total += len(w.nonces)
		w.mu.Unlock()
	}
	return total
}
