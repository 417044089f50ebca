package crypto_test

import (
	"testing"

	qerrors "github.com/pqmsg/pqmsg-go/internal/errors"
	"github.com/pqmsg/pqmsg-go/pkg/crypto"
)

func TestSharedSecretConsumeOnce(t *testing.T) {
	s := crypto.NewSharedSecret([]byte("ephemeral agreement output"))

	if s.Consumed() {
		t.Fatal("fresh secret should not be consumed")
	}

	if _, err := crypto.DeriveSessionKey([]*crypto.SharedSecret{s}, nil); err != nil {
		t.Fatalf("first derivation failed: %v", err)
	}
	if !s.Consumed() {
		t.Error("secret should be consumed after derivation")
	}

	// A second derivation from the same secret must fail.
	if _, err := crypto.DeriveSessionKey([]*crypto.SharedSecret{s}, nil); !qerrors.Is(err, qerrors.ErrSecretConsumed) {
		t.Errorf("expected ErrSecretConsumed, got %v", err)
	}
}

func TestSharedSecretDestroy(t *testing.T) {
	s := crypto.NewSharedSecret([]byte("abandoned handshake secret"))
	s.Destroy()

	if !s.Consumed() {
		t.Error("destroyed secret should count as consumed")
	}
	if _, err := crypto.DeriveSessionKey([]*crypto.SharedSecret{s}, nil); !qerrors.Is(err, qerrors.ErrSecretConsumed) {
		t.Errorf("expected ErrSecretConsumed after destroy, got %v", err)
	}

	// Destroy is idempotent.
	s.Destroy()
}

func TestDeriveSessionKeyPartialConsumption(t *testing.T) {
	// If any input secret is already consumed, the whole derivation fails
	// and no key is produced from the remaining secrets alone.
	used := crypto.NewSharedSecret([]byte("used"))
	used.Destroy()
	fresh := crypto.NewSharedSecret([]byte("fresh"))

	if _, err := crypto.DeriveSessionKey([]*crypto.SharedSecret{used, fresh}, nil); !qerrors.Is(err, qerrors.ErrSecretConsumed) {
		t.Errorf("expected ErrSecretConsumed, got %v", err)
	}
}

func TestDeriveSessionKeyContextBinding(t *testing.T) {
	// The same agreement output under different mode contexts must derive
	// different keys: this is the downgrade/cross-protocol binding.
	raw := []byte("raw agreement output with enough length")
	clone := func() *crypto.SharedSecret {
		b := make([]byte, len(raw))
		copy(b, raw)
		return crypto.NewSharedSecret(b)
	}

	classical, err := crypto.DeriveSessionKey([]*crypto.SharedSecret{clone()}, [][]byte{[]byte("classical")})
	if err != nil {
		t.Fatal(err)
	}
	hybrid, err := crypto.DeriveSessionKey([]*crypto.SharedSecret{clone()}, [][]byte{[]byte("hybrid")})
	if err != nil {
		t.Fatal(err)
	}

	if crypto.ConstantTimeCompare(classical, hybrid) {
		t.Error("mode context should change the derived session key")
	}
}
