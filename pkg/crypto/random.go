// Package crypto provides the primitive adapters for the PQMsg core:
// X25519 and Ed25519 on the classical side, ML-KEM-1024 and ML-DSA-87 on
// the post-quantum side, AEAD payload encryption, and SHAKE-256 key
// derivation. The rest of the core depends only on these adapters, never on
// the underlying libraries directly.
//
// All random number generation uses crypto/rand, which sources entropy from
// the operating system CSPRNG.
package crypto

import (
	"crypto/rand"
	"crypto/subtle"
	"io"

	qerrors "github.com/pqmsg/pqmsg-go/internal/errors"
)

// Reader is the random source used for key generation and nonces.
// It wraps crypto/rand.Reader for consistent error handling.
var Reader io.Reader = rand.Reader

// SecureRandom fills b with cryptographically secure random bytes.
// An error indicates CSPRNG failure and should be treated as critical.
func SecureRandom(b []byte) error {
	if _, err := io.ReadFull(Reader, b); err != nil {
		return qerrors.NewCryptoError("SecureRandom", err)
	}
	return nil
}

// SecureRandomBytes returns n cryptographically secure random bytes.
func SecureRandomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if err := SecureRandom(b); err != nil {
		return nil, err
	}
	return b, nil
}

// ConstantTimeCompare compares two byte slices in constant time.
// Returns true if the slices are equal.
func ConstantTimeCompare(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare(a, b) == 1
}

// Zeroize overwrites sensitive data with zeros. Call on keys and secrets
// as soon as they are no longer needed.
//
// Note: the runtime may have copied the data already; for stronger
// guarantees use OS-level memory protection in deployment.
func Zeroize(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// ZeroizeMultiple zeroizes several buffers.
func ZeroizeMultiple(bufs ...[]byte) {
	for _, b := range bufs {
		Zeroize(b)
	}
}
