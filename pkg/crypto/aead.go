// aead.go implements authenticated payload encryption.
//
// Two suites are supported:
//   - AES-256-GCM: FIPS-approved, hardware-accelerated on modern CPUs
//   - ChaCha20-Poly1305: fast without hardware support
//
// Envelopes are sealed under per-message session keys with per-message
// random nonces, so no counter state is kept here. Nonce reuse under the
// same key breaks both suites; the envelope layer guarantees a fresh nonce
// per message and the replay guard rejects duplicates on receipt.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/pqmsg/pqmsg-go/internal/constants"
	qerrors "github.com/pqmsg/pqmsg-go/internal/errors"
)

// AEAD wraps an authenticated cipher for a single session key.
type AEAD struct {
	cipher cipher.AEAD
	suite  constants.CipherSuite
}

// NewAEAD creates an AEAD for the given suite and 32-byte key.
func NewAEAD(suite constants.CipherSuite, key []byte) (*AEAD, error) {
	if len(key) != constants.AEADKeySize {
		return nil, qerrors.ErrInvalidKeySize
	}

	var aeadCipher cipher.AEAD

	switch suite {
	case constants.CipherSuiteAES256GCM:
		block, err := aes.NewCipher(key)
		if err != nil {
			return nil, qerrors.NewCryptoError("NewAEAD", err)
		}
		aeadCipher, err = cipher.NewGCM(block)
		if err != nil {
			return nil, qerrors.NewCryptoError("NewAEAD", err)
		}

	case constants.CipherSuiteChaCha20Poly1305:
		var err error
		aeadCipher, err = chacha20poly1305.New(key)
		if err != nil {
			return nil, qerrors.NewCryptoError("NewAEAD", err)
		}

	default:
		return nil, qerrors.ErrUnsupportedCipherSuite
	}

	return &AEAD{cipher: aeadCipher, suite: suite}, nil
}

// Suite returns the cipher suite of this AEAD.
func (a *AEAD) Suite() constants.CipherSuite {
	return a.suite
}

// Seal encrypts and authenticates plaintext under the given nonce and
// additional authenticated data.
func (a *AEAD) Seal(nonce, plaintext, aad []byte) ([]byte, error) {
	if len(nonce) != constants.AEADNonceSize {
		return nil, qerrors.ErrInvalidNonce
	}
	return a.cipher.Seal(nil, nonce, plaintext, aad), nil
}

// Open decrypts and verifies ciphertext. A failed tag check returns
// ErrAuthenticationFailed with no partial plaintext.
func (a *AEAD) Open(nonce, ciphertext, aad []byte) ([]byte, error) {
	if len(nonce) != constants.AEADNonceSize {
		return nil, qerrors.ErrInvalidNonce
	}
	if len(ciphertext) < constants.AEADTagSize {
		return nil, qerrors.ErrAuthenticationFailed
	}

	plaintext, err := a.cipher.Open(nil, nonce, ciphertext, aad)
	if err != nil {
		return nil, qerrors.ErrAuthenticationFailed
	}
	return plaintext, nil
}
