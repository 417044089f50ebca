// Package fuzz provides fuzz tests for security-critical parsing functions.
//
// Run fuzz tests with:
//
//	go test -fuzz=FuzzUnmarshal -fuzztime=30s ./test/fuzz/
//	go test -fuzz=FuzzUnmarshalLegacy -fuzztime=30s ./test/fuzz/
//	go test -fuzz=FuzzParseMode -fuzztime=30s ./test/fuzz/
//	go test -fuzz=FuzzParsePublicBundle -fuzztime=30s ./test/fuzz/
//	go test -fuzz=FuzzDecodeSignature -fuzztime=30s ./test/fuzz/
//	go test -fuzz=FuzzAEADOpen -fuzztime=30s ./test/fuzz/
//
// Run all fuzz tests sequentially:
//
//	go test -fuzz=Fuzz -fuzztime=10s ./test/fuzz/
package fuzz

import (
	"testing"
	"time"

	"github.com/pqmsg/pqmsg-go/internal/constants"
	"github.com/pqmsg/pqmsg-go/pkg/crypto"
	"github.com/pqmsg/pqmsg-go/pkg/envelope"
	"github.com/pqmsg/pqmsg-go/pkg/hybrid"
	"github.com/pqmsg/pqmsg-go/pkg/mode"
	"github.com/pqmsg/pqmsg-go/pkg/policy"
)

// FuzzUnmarshal fuzzes the quantum-safe envelope JSON decoder. This is
// security-critical as it runs on untrusted input before any signature
// check.
func FuzzUnmarshal(f *testing.F) {
	// Seed with a valid envelope from a real seal.
	sender, _ := hybrid.GenerateKeyPair()
	recipient, _ := hybrid.GenerateKeyPair()
	handler, err := envelope.NewHandler(sender, policy.Default(), envelope.HandlerConfig{})
	if err != nil {
		f.Fatalf("NewHandler: %v", err)
	}
	env, err := handler.Create(mode.Hybrid, "fuzz-inbox", []byte("seed payload"), recipient.Bundle())
	if err != nil {
		f.Fatalf("Create: %v", err)
	}
	wire, _ := env.Marshal()
	f.Add(wire)

	// Edge cases
	f.Add([]byte{})
	f.Add([]byte("{}"))
	f.Add([]byte(`{"version":"2.0-quantum"}`))
	f.Add([]byte(`{"version":"1.1","inbox_id":"x","payload":"aGk=","nonce":"AAAAAAAAAAAAAAAA","expiry":1}`))
	f.Add([]byte(`{"version":"2.0-quantum","crypto_mode":"classical","inbox_id":"x","payload":"` +
		`AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA=","nonce":"AAAAAAAAAAAAAAAA","expiry":99999999999}`))

	f.Fuzz(func(t *testing.T, data []byte) {
		// Should not panic regardless of input
		e, err := envelope.Unmarshal(data)
		if err != nil {
			return
		}

		// A successful decode implies a validated envelope that
		// round-trips through Marshal.
		if err := e.Validate(); err != nil {
			t.Errorf("Unmarshal accepted envelope that fails Validate: %v", err)
		}
		reserialized, err := e.Marshal()
		if err != nil {
			t.Errorf("accepted envelope does not re-marshal: %v", err)
		}
		again, err := envelope.Unmarshal(reserialized)
		if err != nil {
			t.Errorf("re-marshaled envelope does not decode: %v", err)
		} else if again.Nonce != e.Nonce || again.CryptoMode != e.CryptoMode {
			t.Error("round trip changed envelope identity fields")
		}
	})
}

// FuzzUnmarshalLegacy fuzzes the legacy envelope JSON decoder.
func FuzzUnmarshalLegacy(f *testing.F) {
	f.Add([]byte(`{"version":"1.1","inbox_id":"x","payload":"aGk=","nonce":"AAAAAAAAAAAAAAAA","expiry":1}`))
	f.Add([]byte{})
	f.Add([]byte("{}"))
	f.Add([]byte(`{"version":"2.0-quantum"}`))

	f.Fuzz(func(t *testing.T, data []byte) {
		legacy, err := envelope.UnmarshalLegacy(data)
		if err != nil {
			return
		}

		// Anything the legacy decoder accepts must be upgradable.
		upgraded, err := envelope.UpgradeLegacy(legacy)
		if err != nil {
			t.Errorf("accepted legacy envelope does not upgrade: %v", err)
			return
		}
		if upgraded.CryptoMode != mode.Classical {
			t.Errorf("upgraded legacy envelope has mode %v", upgraded.CryptoMode)
		}
	})
}

// FuzzParseMode fuzzes the crypto mode string parser.
func FuzzParseMode(f *testing.F) {
	f.Add("classical")
	f.Add("hybrid")
	f.Add("quantum")
	f.Add("quantum-safe")
	f.Add("QUANTUM")
	f.Add("")
	f.Add("hybrid ")

	f.Fuzz(func(t *testing.T, s string) {
		m, err := mode.Parse(s)
		if err != nil {
			return
		}
		if !m.IsValid() {
			t.Errorf("Parse(%q) returned invalid mode %d", s, m)
		}
		// Parsing a mode's own name must reproduce it.
		again, err := mode.Parse(m.String())
		if err != nil || again != m {
			t.Errorf("Parse(%q).String() does not round-trip", s)
		}
	})
}

// FuzzParsePublicBundle fuzzes the identity key bundle decoder.
func FuzzParsePublicBundle(f *testing.F) {
	kp, _ := hybrid.GenerateKeyPair()
	f.Add(kp.Bundle().Bytes())

	classical := &hybrid.PublicBundle{
		EncryptionKey: kp.Bundle().EncryptionKey,
		VerifyKey:     kp.Bundle().VerifyKey,
	}
	f.Add(classical.Bytes())

	f.Add([]byte{})
	f.Add(make([]byte, 8))
	f.Add(make([]byte, 64))

	f.Fuzz(func(t *testing.T, data []byte) {
		b, err := hybrid.ParsePublicBundle(data)
		if err != nil {
			return
		}
		if len(b.Bytes()) != len(data) {
			t.Errorf("reserialized bundle size %d, input %d", len(b.Bytes()), len(data))
		}
	})
}

// FuzzDecodeSignature fuzzes the hybrid signature pair decoder.
func FuzzDecodeSignature(f *testing.F) {
	kp, _ := hybrid.GenerateKeyPair()
	digest := crypto.TranscriptHash([]byte("fuzz seed"))
	sig, _ := hybrid.Sign(mode.Hybrid, kp, digest)
	f.Add(sig.Encode())

	classicalSig, _ := hybrid.Sign(mode.Classical, kp, digest)
	f.Add(classicalSig.Encode())

	f.Add([]byte{})
	f.Add(make([]byte, 4))
	f.Add(make([]byte, constants.Ed25519SignatureSize))

	f.Fuzz(func(t *testing.T, data []byte) {
		s, err := hybrid.DecodeSignature(data)
		if err != nil {
			return
		}
		reserialized := s.Encode()
		if len(reserialized) != len(data) {
			t.Errorf("reserialized signature size %d, input %d", len(reserialized), len(data))
		}
	})
}

// FuzzAEADOpen verifies the AEAD never panics or accepts forged input.
func FuzzAEADOpen(f *testing.F) {
	key := make([]byte, constants.SessionKeySize)
	aead, err := crypto.NewAEAD(constants.CipherSuiteAES256GCM, key)
	if err != nil {
		f.Fatalf("NewAEAD: %v", err)
	}
	nonce := make([]byte, constants.AEADNonceSize)
	valid, _ := aead.Seal(nonce, []byte("fuzz plaintext"), []byte("aad"))

	f.Add(nonce, valid, []byte("aad"))
	f.Add(nonce, []byte{}, []byte{})
	f.Add([]byte{}, valid, []byte("aad"))

	f.Fuzz(func(t *testing.T, fuzzNonce, ciphertext, aad []byte) {
		plaintext, err := aead.Open(fuzzNonce, ciphertext, aad)
		if err != nil {
			return
		}
		// Only the exact sealed triple opens to the seed plaintext.
		if string(plaintext) == "fuzz plaintext" {
			if string(fuzzNonce) != string(nonce) || string(aad) != "aad" {
				t.Error("AEAD opened under wrong nonce or aad")
			}
		}
	})
}

// FuzzPolicyParseJSON fuzzes the policy config decoder.
func FuzzPolicyParseJSON(f *testing.F) {
	f.Add([]byte(`{"mode":"hybrid","minimum_mode":"classical","allow_auto_upgrade":true}`))
	f.Add([]byte(`{"mode":"quantum","minimum_mode":"hybrid","require_post_quantum":true}`))
	f.Add([]byte("{}"))
	f.Add([]byte{})

	f.Fuzz(func(t *testing.T, data []byte) {
		cfg, err := policy.ParseJSON(data)
		if err != nil {
			return
		}
		// The parser only returns validated configs.
		if err := cfg.Validate(); err != nil {
			t.Errorf("ParseJSON accepted invalid config: %v", err)
		}
		if cfg.Mode < cfg.MinimumMode {
			t.Error("accepted config with mode below its floor")
		}
	})
}

// FuzzReplayNonce checks the replay guard tolerates arbitrary nonce
// strings without panicking.
func FuzzReplayNonce(f *testing.F) {
	f.Add("inbox-a", "AAAAAAAAAAAAAAAA")
	f.Add("", "")
	f.Add("inbox-b", "not base64 \x00\xff")

	f.Fuzz(func(t *testing.T, inboxID, nonce string) {
		guard := envelope.NewReplayGuard()
		expiry := time.Now().Add(time.Minute).Unix()

		if err := guard.Check(inboxID, nonce); err != nil {
			t.Errorf("first Check reported replay: %v", err)
		}
		guard.Record(inboxID, nonce, expiry)
		if err := guard.Check(inboxID, nonce); err == nil {
			t.Error("recorded nonce not detected as replay")
		}
	})
}
