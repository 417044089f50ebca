// Package errors defines the error taxonomy for the PQMsg crypto core.
// Errors carry enough context for debugging without leaking key material
// in their messages.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for crypto modes and policy.
var (
	// ErrInvalidMode indicates an unrecognized crypto mode string or value.
	ErrInvalidMode = errors.New("mode: invalid crypto mode")

	// ErrConfigInvalid indicates a crypto config failed validation at
	// construction time. Fatal: caught at startup, never clamped.
	ErrConfigInvalid = errors.New("policy: invalid config")

	// ErrModeBelowMinimum indicates a message's mode fails the policy floor.
	ErrModeBelowMinimum = errors.New("policy: mode below configured minimum")

	// ErrIncompatiblePeerMode indicates the peer's advertised capability
	// cannot satisfy the local policy without a downgrade.
	ErrIncompatiblePeerMode = errors.New("policy: incompatible peer mode")

	// ErrDowngradeRejected indicates an attempted mode transition to a lower
	// level. Downgrades are always rejected regardless of policy.
	ErrDowngradeRejected = errors.New("mode: downgrade transition rejected")
)

// Sentinel errors for hybrid key agreement and signatures.
var (
	// ErrClassicalAgreementFailed indicates the X25519 agreement step failed.
	ErrClassicalAgreementFailed = errors.New("hybrid: classical key agreement failed")

	// ErrPqEncapsulationFailed indicates the ML-KEM encapsulation or
	// decapsulation step failed.
	ErrPqEncapsulationFailed = errors.New("hybrid: post-quantum encapsulation failed")

	// ErrSignatureInvalid indicates a signature component failed verification.
	ErrSignatureInvalid = errors.New("hybrid: signature verification failed")

	// ErrMissingRequiredComponent indicates a mode requires a component
	// (PQ ciphertext or signature) that the message lacks.
	ErrMissingRequiredComponent = errors.New("hybrid: missing required component")

	// ErrSecretConsumed indicates a shared secret was used after consumption.
	// Shared secrets are single-use by construction.
	ErrSecretConsumed = errors.New("crypto: shared secret already consumed")
)

// Sentinel errors for primitive adapters.
var (
	// ErrInvalidKeySize indicates a key buffer has the wrong length.
	ErrInvalidKeySize = errors.New("crypto: invalid key size")

	// ErrInvalidPublicKey indicates a public key is malformed or missing.
	ErrInvalidPublicKey = errors.New("crypto: invalid public key")

	// ErrInvalidPrivateKey indicates a private key is malformed or missing.
	ErrInvalidPrivateKey = errors.New("crypto: invalid private key")

	// ErrInvalidCiphertext indicates a KEM ciphertext is malformed.
	ErrInvalidCiphertext = errors.New("crypto: invalid ciphertext")

	// ErrInvalidNonce indicates the nonce size is incorrect.
	ErrInvalidNonce = errors.New("crypto: invalid nonce size")

	// ErrAuthenticationFailed indicates AEAD authentication failed.
	ErrAuthenticationFailed = errors.New("crypto: authentication failed")

	// ErrUnsupportedCipherSuite indicates an unsupported AEAD suite.
	ErrUnsupportedCipherSuite = errors.New("crypto: unsupported cipher suite")
)

// Sentinel errors for the envelope protocol.
var (
	// ErrInvalidEnvelope indicates an envelope is structurally malformed.
	ErrInvalidEnvelope = errors.New("envelope: invalid envelope")

	// ErrUnsupportedVersion indicates an unknown envelope version string.
	ErrUnsupportedVersion = errors.New("envelope: unsupported version")

	// ErrExpired indicates the envelope expiry has passed.
	ErrExpired = errors.New("envelope: expired")

	// ErrReplayDetected indicates the nonce was already seen for this inbox
	// within the retention window.
	ErrReplayDetected = errors.New("envelope: replay detected")

	// ErrNotDowngradable indicates a Hybrid or Quantum envelope cannot be
	// converted to the legacy format without loss.
	ErrNotDowngradable = errors.New("envelope: not downgradable to legacy")

	// ErrPayloadTooLarge indicates the payload exceeds the maximum size.
	ErrPayloadTooLarge = errors.New("envelope: payload too large")
)

// Sentinel errors for key generation.
var (
	// ErrKeygenTimedOut indicates the caller's deadline elapsed before a
	// key pair was available. This is a scheduling failure, not a crypto one.
	ErrKeygenTimedOut = errors.New("keygen: timed out waiting for key pair")

	// ErrKeygenClosed indicates the key generation pool has been shut down.
	ErrKeygenClosed = errors.New("keygen: pool is closed")
)

// Sentinel errors for directory lookup.
var (
	// ErrUnknownRecipient indicates the inbox identifier has no directory
	// entry.
	ErrUnknownRecipient = errors.New("directory: unknown recipient")
)

// CryptoError wraps a cryptographic error with the failing operation.
type CryptoError struct {
	Op  string // Operation that failed
	Err error  // Underlying error
}

func (e *CryptoError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *CryptoError) Unwrap() error {
	return e.Err
}

// NewCryptoError creates a new CryptoError.
func NewCryptoError(op string, err error) *CryptoError {
	return &CryptoError{Op: op, Err: err}
}

// PolicyError wraps a policy rejection with the constraint that failed,
// so a rejected send can report which constraint was violated.
type PolicyError struct {
	Constraint string // Constraint that failed (e.g., "minimum_mode")
	Err        error  // Underlying sentinel
}

func (e *PolicyError) Error() string {
	return fmt.Sprintf("policy constraint %s: %v", e.Constraint, e.Err)
}

func (e *PolicyError) Unwrap() error {
	return e.Err
}

// NewPolicyError creates a new PolicyError.
func NewPolicyError(constraint string, err error) *PolicyError {
	return &PolicyError{Constraint: constraint, Err: err}
}

// Is reports whether any error in err's chain matches target.
// This is a convenience wrapper around errors.Is.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
// This is a convenience wrapper around errors.As.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
