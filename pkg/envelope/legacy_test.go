package envelope_test

import (
	"bytes"
	"encoding/base64"
	"testing"
	"time"

	"github.com/pqmsg/pqmsg-go/internal/constants"
	qerrors "github.com/pqmsg/pqmsg-go/internal/errors"
	"github.com/pqmsg/pqmsg-go/pkg/envelope"
	"github.com/pqmsg/pqmsg-go/pkg/mode"
)

func testLegacy() *envelope.LegacyEnvelope {
	nonce := base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{0x42}, constants.EnvelopeNonceSize))
	return &envelope.LegacyEnvelope{
		Version: constants.LegacyEnvelopeVersion,
		InboxID: testInbox,
		Payload: []byte("classical ciphertext bytes"),
		Nonce:   nonce,
		Expiry:  time.Now().Add(time.Hour).Unix(),
	}
}

func TestUpgradeLegacy(t *testing.T) {
	legacy := testLegacy()

	up, err := envelope.UpgradeLegacy(legacy)
	if err != nil {
		t.Fatalf("UpgradeLegacy failed: %v", err)
	}

	if up.Version != constants.QuantumSafeEnvelopeVersion {
		t.Errorf("Version = %q", up.Version)
	}
	if up.CryptoMode != mode.Classical {
		t.Errorf("CryptoMode = %v, want Classical", up.CryptoMode)
	}
	if up.PQCiphertext != nil || up.PQSignature != nil {
		t.Error("upgraded envelope must have no pq fields")
	}
	if up.LegacyCompat == nil || !*up.LegacyCompat {
		t.Error("upgraded envelope must be marked legacy compatible")
	}
}

func TestUpgradeThenDowngradeIsIdentity(t *testing.T) {
	legacy := testLegacy()

	up, err := envelope.UpgradeLegacy(legacy)
	if err != nil {
		t.Fatal(err)
	}
	down, err := envelope.DowngradeToLegacy(up)
	if err != nil {
		t.Fatalf("DowngradeToLegacy failed: %v", err)
	}

	if down.Version != legacy.Version ||
		down.InboxID != legacy.InboxID ||
		!bytes.Equal(down.Payload, legacy.Payload) ||
		down.Nonce != legacy.Nonce ||
		down.Expiry != legacy.Expiry {
		t.Errorf("round trip not identity:\n got %+v\nwant %+v", down, legacy)
	}
}

func TestDowngradeRejectsPostQuantum(t *testing.T) {
	sender := newIdentity(t)
	recipient := newIdentity(t)
	sh := newHandler(t, sender, openPolicy(), envelope.HandlerConfig{})

	for _, m := range []mode.Mode{mode.Hybrid, mode.Quantum} {
		t.Run(m.String(), func(t *testing.T) {
			env, err := sh.Create(m, testInbox, []byte("not downgradable"), recipient.Bundle())
			if err != nil {
				t.Fatal(err)
			}
			if _, err := envelope.DowngradeToLegacy(env); !qerrors.Is(err, qerrors.ErrNotDowngradable) {
				t.Errorf("expected ErrNotDowngradable, got %v", err)
			}
		})
	}
}

func TestUpgradeRejectsWrongVersion(t *testing.T) {
	legacy := testLegacy()
	legacy.Version = "1.0"
	if _, err := envelope.UpgradeLegacy(legacy); !qerrors.Is(err, qerrors.ErrUnsupportedVersion) {
		t.Errorf("expected ErrUnsupportedVersion, got %v", err)
	}
}

func TestLegacyWireRoundTrip(t *testing.T) {
	legacy := testLegacy()

	data, err := legacy.Marshal()
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	parsed, err := envelope.UnmarshalLegacy(data)
	if err != nil {
		t.Fatalf("UnmarshalLegacy failed: %v", err)
	}
	if parsed.InboxID != legacy.InboxID || !bytes.Equal(parsed.Payload, legacy.Payload) {
		t.Error("legacy wire round trip mismatch")
	}
}
