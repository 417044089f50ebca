// Package directory resolves recipient identifiers to their current
// public-key bundle and advertised maximum crypto mode.
//
// The real directory lives on a relay; this package defines the lookup
// contract the send path depends on and an in-memory implementation for
// tests, tooling, and single-process deployments.
package directory

import (
	"context"
	"sync"

	qerrors "github.com/pqmsg/pqmsg-go/internal/errors"
	"github.com/pqmsg/pqmsg-go/pkg/hybrid"
	"github.com/pqmsg/pqmsg-go/pkg/mode"
)

// Entry is one directory record: a recipient's published key bundle and
// the highest mode it advertises support for.
type Entry struct {
	InboxID string
	Bundle  *hybrid.PublicBundle
	MaxMode mode.Mode
}

// Resolver looks up a recipient by inbox identifier.
type Resolver interface {
	Resolve(ctx context.Context, inboxID string) (*Entry, error)
}

// StaticResolver is an in-memory Resolver backed by a map. Safe for
// concurrent use.
type StaticResolver struct {
	mu      sync.RWMutex
	entries map[string]*Entry
}

// NewStaticResolver creates an empty in-memory resolver.
func NewStaticResolver() *StaticResolver {
	return &StaticResolver{entries: make(map[string]*Entry)}
}

// Register publishes or replaces an entry. The advertised mode must be
// consistent with the bundle: a bundle without post-quantum keys cannot
// advertise Hybrid or Quantum.
func (r *StaticResolver) Register(e *Entry) error {
	if e == nil || e.InboxID == "" || e.Bundle == nil {
		return qerrors.ErrInvalidPublicKey
	}
	if !e.MaxMode.IsValid() {
		return qerrors.ErrInvalidMode
	}
	if !e.Bundle.SupportsMode(e.MaxMode) {
		return qerrors.ErrMissingRequiredComponent
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[e.InboxID] = e
	return nil
}

// Resolve returns the entry for inboxID, or ErrUnknownRecipient.
func (r *StaticResolver) Resolve(ctx context.Context, inboxID string) (*Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[inboxID]
	if !ok {
		return nil, qerrors.ErrUnknownRecipient
	}
	return e, nil
}

// Remove deletes an entry, for key rotation or account removal.
func (r *StaticResolver) Remove(inboxID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, inboxID)
}
