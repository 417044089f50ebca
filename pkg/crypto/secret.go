// secret.go implements the consume-once SharedSecret type.
//
// A shared secret produced by key agreement exists to be fed into exactly
// one key derivation and then destroyed. Duplicating it after use defeats
// the purpose of ephemeral agreement, so the type deliberately exposes no
// raw-bytes accessor: the only way out is consumption by a KDF in this
// package, which zeroizes the secret as it goes.
package crypto

import (
	"sync"

	qerrors "github.com/pqmsg/pqmsg-go/internal/errors"
)

// SharedSecret is an ephemeral key-agreement output. It can be consumed
// exactly once; any further use fails with ErrSecretConsumed. SharedSecret
// must not be copied after creation.
type SharedSecret struct {
	mu       sync.Mutex
	bytes    []byte
	consumed bool
}

// NewSharedSecret wraps raw agreement output in a consume-once container.
// The container takes ownership of b; callers must not retain the slice.
func NewSharedSecret(b []byte) *SharedSecret {
	return &SharedSecret{bytes: b}
}

// Consumed reports whether the secret has already been used.
func (s *SharedSecret) Consumed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.consumed
}

// Len returns the secret's length in bytes without exposing its content.
func (s *SharedSecret) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.bytes)
}

// Destroy zeroizes the secret without consuming it into a derivation.
// Used when an in-flight agreement is abandoned before completion.
// Safe to call on an already-consumed or already-destroyed secret.
func (s *SharedSecret) Destroy() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.wipeLocked()
}

// take transfers the secret material out for a single derivation,
// marking the secret consumed. Only KDF code in this package calls it.
func (s *SharedSecret) take() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.consumed {
		return nil, qerrors.ErrSecretConsumed
	}
	b := s.bytes
	s.bytes = nil
	s.consumed = true
	return b, nil
}

func (s *SharedSecret) wipeLocked() {
	Zeroize(s.bytes)
	s.bytes = nil
	s.consumed = true
}
