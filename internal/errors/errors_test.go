package errors

import (
	"strings"
	"testing"
)

func TestCryptoError(t *testing.T) {
	err := NewCryptoError("mlkem.Encapsulate", ErrInvalidPublicKey)

	msg := err.Error()
	if !strings.Contains(msg, "mlkem.Encapsulate") {
		t.Errorf("Error() = %q, want it to contain the operation", msg)
	}
	if !strings.Contains(msg, ErrInvalidPublicKey.Error()) {
		t.Errorf("Error() = %q, want it to contain the underlying error", msg)
	}

	if err.Op != "mlkem.Encapsulate" {
		t.Errorf("Op = %q, want %q", err.Op, "mlkem.Encapsulate")
	}
	if err.Unwrap() != ErrInvalidPublicKey {
		t.Errorf("Unwrap() = %v, want %v", err.Unwrap(), ErrInvalidPublicKey)
	}
}

func TestPolicyError(t *testing.T) {
	err := NewPolicyError("minimum_mode", ErrModeBelowMinimum)

	msg := err.Error()
	if !strings.Contains(msg, "minimum_mode") {
		t.Errorf("Error() = %q, want it to contain the constraint", msg)
	}
	if !strings.Contains(msg, ErrModeBelowMinimum.Error()) {
		t.Errorf("Error() = %q, want it to contain the underlying error", msg)
	}

	if err.Constraint != "minimum_mode" {
		t.Errorf("Constraint = %q, want %q", err.Constraint, "minimum_mode")
	}
	if err.Unwrap() != ErrModeBelowMinimum {
		t.Errorf("Unwrap() = %v, want %v", err.Unwrap(), ErrModeBelowMinimum)
	}
}

func TestIsFunction(t *testing.T) {
	if !Is(ErrReplayDetected, ErrReplayDetected) {
		t.Error("Is() should match a sentinel against itself")
	}

	wrapped := NewCryptoError("aead.Open", ErrAuthenticationFailed)
	if !Is(wrapped, ErrAuthenticationFailed) {
		t.Error("Is() should match the sentinel through a CryptoError wrapper")
	}
	if Is(wrapped, ErrSignatureInvalid) {
		t.Error("Is() should not match an unrelated sentinel")
	}

	rejected := NewPolicyError("require_post_quantum", ErrModeBelowMinimum)
	if !Is(rejected, ErrModeBelowMinimum) {
		t.Error("Is() should match the sentinel through a PolicyError wrapper")
	}
}

func TestAsFunction(t *testing.T) {
	wrapped := NewCryptoError("hybrid.Agree", ErrClassicalAgreementFailed)

	var cerr *CryptoError
	if !As(wrapped, &cerr) {
		t.Fatal("As() should find the CryptoError in the chain")
	}
	if cerr.Op != "hybrid.Agree" {
		t.Errorf("Op = %q, want %q", cerr.Op, "hybrid.Agree")
	}

	var perr *PolicyError
	if As(wrapped, &perr) {
		t.Error("As() should not find a PolicyError in a CryptoError chain")
	}
}
