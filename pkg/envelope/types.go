// Package envelope implements the versioned message container carried
// between peers and relays.
//
// Two generations exist on the wire. The legacy "1.1" envelope predates
// post-quantum support and carries only classical ciphertext. The
// "2.0-quantum" envelope tags its crypto mode and carries the optional
// post-quantum ciphertext and hybrid signature alongside the payload.
//
// Wire format (JSON):
//
//	{
//	  "version":       "2.0-quantum",
//	  "crypto_mode":   "hybrid",
//	  "inbox_id":      "...",
//	  "payload":       base64(ephemeral_pub || aead_ciphertext),
//	  "pq_ciphertext": base64(mlkem_ct),      // absent in classical mode
//	  "pq_signature":  base64(sig_pair),      // absent in classical mode
//	  "nonce":         base64(12 bytes),
//	  "expiry":        unix_seconds,
//	  "legacy_compat": true                   // only when downgradable
//	}
package envelope

import (
	"encoding/base64"
	"encoding/json"
	"time"

	"github.com/pqmsg/pqmsg-go/internal/constants"
	qerrors "github.com/pqmsg/pqmsg-go/internal/errors"
	"github.com/pqmsg/pqmsg-go/pkg/mode"
)

// LegacyEnvelope is the classical-only container still emitted by
// pre-quantum peers.
type LegacyEnvelope struct {
	Version string `json:"version"`
	InboxID string `json:"inbox_id"`
	Payload []byte `json:"payload"`
	Nonce   string `json:"nonce"`
	Expiry  int64  `json:"expiry"`
}

// QuantumSafeEnvelope is the current container. PQCiphertext and
// PQSignature are present iff CryptoMode is not Classical.
type QuantumSafeEnvelope struct {
	Version      string    `json:"version"`
	CryptoMode   mode.Mode `json:"crypto_mode"`
	InboxID      string    `json:"inbox_id"`
	Payload      []byte    `json:"payload"`
	PQCiphertext []byte    `json:"pq_ciphertext,omitempty"`
	PQSignature  []byte    `json:"pq_signature,omitempty"`
	Nonce        string    `json:"nonce"`
	Expiry       int64     `json:"expiry"`
	LegacyCompat *bool     `json:"legacy_compat,omitempty"`
}

// legacyWire and quantumWire are the JSON shapes; byte fields travel
// base64-encoded as strings.
type legacyWire struct {
	Version string `json:"version"`
	InboxID string `json:"inbox_id"`
	Payload string `json:"payload"`
	Nonce   string `json:"nonce"`
	Expiry  int64  `json:"expiry"`
}

type quantumWire struct {
	Version      string `json:"version"`
	CryptoMode   string `json:"crypto_mode"`
	InboxID      string `json:"inbox_id"`
	Payload      string `json:"payload"`
	PQCiphertext string `json:"pq_ciphertext,omitempty"`
	PQSignature  string `json:"pq_signature,omitempty"`
	Nonce        string `json:"nonce"`
	Expiry       int64  `json:"expiry"`
	LegacyCompat *bool  `json:"legacy_compat,omitempty"`
}

// Validate checks structural invariants without touching key material.
func (e *QuantumSafeEnvelope) Validate() error {
	if e.Version != constants.QuantumSafeEnvelopeVersion {
		return qerrors.ErrUnsupportedVersion
	}
	if !e.CryptoMode.IsValid() {
		return qerrors.ErrInvalidMode
	}
	if e.InboxID == "" || len(e.Payload) == 0 {
		return qerrors.ErrInvalidEnvelope
	}
	if len(e.Payload) > constants.MaxPayloadSize+constants.X25519PublicKeySize+constants.AEADTagSize {
		return qerrors.ErrPayloadTooLarge
	}

	nonce, err := base64.StdEncoding.DecodeString(e.Nonce)
	if err != nil || len(nonce) != constants.EnvelopeNonceSize {
		return qerrors.ErrInvalidNonce
	}

	// PQ fields are present exactly when the mode demands them.
	if e.CryptoMode.RequiresPostQuantum() {
		if len(e.PQCiphertext) == 0 || len(e.PQSignature) == 0 {
			return qerrors.ErrMissingRequiredComponent
		}
	} else {
		if len(e.PQCiphertext) != 0 || len(e.PQSignature) != 0 {
			return qerrors.ErrInvalidEnvelope
		}
	}
	return nil
}

// Expired reports whether the envelope's expiry has passed at now.
func (e *QuantumSafeEnvelope) Expired(now time.Time) bool {
	return now.Unix() > e.Expiry
}

// NonceBytes decodes the envelope nonce.
func (e *QuantumSafeEnvelope) NonceBytes() ([]byte, error) {
	nonce, err := base64.StdEncoding.DecodeString(e.Nonce)
	if err != nil || len(nonce) != constants.EnvelopeNonceSize {
		return nil, qerrors.ErrInvalidNonce
	}
	return nonce, nil
}

// Marshal serializes the envelope to its JSON wire form.
func (e *QuantumSafeEnvelope) Marshal() ([]byte, error) {
	if err := e.Validate(); err != nil {
		return nil, err
	}
	w := quantumWire{
		Version:      e.Version,
		CryptoMode:   e.CryptoMode.String(),
		InboxID:      e.InboxID,
		Payload:      base64.StdEncoding.EncodeToString(e.Payload),
		Nonce:        e.Nonce,
		Expiry:       e.Expiry,
		LegacyCompat: e.LegacyCompat,
	}
	if len(e.PQCiphertext) > 0 {
		w.PQCiphertext = base64.StdEncoding.EncodeToString(e.PQCiphertext)
	}
	if len(e.PQSignature) > 0 {
		w.PQSignature = base64.StdEncoding.EncodeToString(e.PQSignature)
	}
	return json.Marshal(w)
}

// Unmarshal parses and validates a quantum-safe envelope from its JSON
// wire form. Malformed input is a recoverable error, never a panic.
func Unmarshal(data []byte) (*QuantumSafeEnvelope, error) {
	var w quantumWire
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, qerrors.ErrInvalidEnvelope
	}
	if w.Version != constants.QuantumSafeEnvelopeVersion {
		return nil, qerrors.ErrUnsupportedVersion
	}

	m, err := mode.Parse(w.CryptoMode)
	if err != nil {
		return nil, err
	}

	e := &QuantumSafeEnvelope{
		Version:      w.Version,
		CryptoMode:   m,
		InboxID:      w.InboxID,
		Nonce:        w.Nonce,
		Expiry:       w.Expiry,
		LegacyCompat: w.LegacyCompat,
	}
	if e.Payload, err = base64.StdEncoding.DecodeString(w.Payload); err != nil {
		return nil, qerrors.ErrInvalidEnvelope
	}
	if w.PQCiphertext != "" {
		if e.PQCiphertext, err = base64.StdEncoding.DecodeString(w.PQCiphertext); err != nil {
			return nil, qerrors.ErrInvalidEnvelope
		}
	}
	if w.PQSignature != "" {
		if e.PQSignature, err = base64.StdEncoding.DecodeString(w.PQSignature); err != nil {
			return nil, qerrors.ErrInvalidEnvelope
		}
	}

	if err := e.Validate(); err != nil {
		return nil, err
	}
	return e, nil
}

// Marshal serializes the legacy envelope to its JSON wire form.
func (e *LegacyEnvelope) Marshal() ([]byte, error) {
	if e.Version != constants.LegacyEnvelopeVersion {
		return nil, qerrors.ErrUnsupportedVersion
	}
	return json.Marshal(legacyWire{
		Version: e.Version,
		InboxID: e.InboxID,
		Payload: base64.StdEncoding.EncodeToString(e.Payload),
		Nonce:   e.Nonce,
		Expiry:  e.Expiry,
	})
}

// UnmarshalLegacy parses a legacy envelope from its JSON wire form.
func UnmarshalLegacy(data []byte) (*LegacyEnvelope, error) {
	var w legacyWire
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, qerrors.ErrInvalidEnvelope
	}
	if w.Version != constants.LegacyEnvelopeVersion {
		return nil, qerrors.ErrUnsupportedVersion
	}
	payload, err := base64.StdEncoding.DecodeString(w.Payload)
	if err != nil {
		return nil, qerrors.ErrInvalidEnvelope
	}
	return &LegacyEnvelope{
		Version: w.Version,
		InboxID: w.InboxID,
		Payload: payload,
		Nonce:   w.Nonce,
		Expiry:  w.Expiry,
	}, nil
}

// UpgradeLegacy lifts a legacy envelope into the quantum-safe format.
// The result is tagged Classical with no post-quantum fields and is
// marked losslessly downgradable.
func UpgradeLegacy(legacy *LegacyEnvelope) (*QuantumSafeEnvelope, error) {
	if legacy.Version != constants.LegacyEnvelopeVersion {
		return nil, qerrors.ErrUnsupportedVersion
	}
	compat := true
	return &QuantumSafeEnvelope{
		Version:      constants.QuantumSafeEnvelopeVersion,
		CryptoMode:   mode.Classical,
		InboxID:      legacy.InboxID,
		Payload:      legacy.Payload,
		Nonce:        legacy.Nonce,
		Expiry:       legacy.Expiry,
		LegacyCompat: &compat,
	}, nil
}

// DowngradeToLegacy converts a quantum-safe envelope back to the legacy
// format. Only Classical envelopes downgrade; a Hybrid or Quantum
// envelope encodes material a legacy receiver cannot use safely, so the
// conversion fails with NotDowngradable instead of dropping fields.
func DowngradeToLegacy(e *QuantumSafeEnvelope) (*LegacyEnvelope, error) {
	if err := e.Validate(); err != nil {
		return nil, err
	}
	if e.CryptoMode != mode.Classical {
		return nil, qerrors.ErrNotDowngradable
	}
	return &LegacyEnvelope{
		Version: constants.LegacyEnvelopeVersion,
		InboxID: e.InboxID,
		Payload: e.Payload,
		Nonce:   e.Nonce,
		Expiry:  e.Expiry,
	}, nil
}
