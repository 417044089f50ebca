package envelope

import (
	"encoding/base64"
	"encoding/binary"
	"time"

	"github.com/pqmsg/pqmsg-go/internal/constants"
	qerrors "github.com/pqmsg/pqmsg-go/internal/errors"
	"github.com/pqmsg/pqmsg-go/pkg/crypto"
	"github.com/pqmsg/pqmsg-go/pkg/hybrid"
	"github.com/pqmsg/pqmsg-go/pkg/mode"
	"github.com/pqmsg/pqmsg-go/pkg/policy"
)

// HandlerConfig tunes envelope creation and acceptance.
type HandlerConfig struct {
	// Suite selects the AEAD used for payload encryption. Both sides
	// of a conversation must agree on it.
	Suite constants.CipherSuite

	// TTL is the validity window given to created envelopes.
	TTL time.Duration

	// Clock overrides time.Now, for tests.
	Clock func() time.Time
}

func (c *HandlerConfig) applyDefaults() {
	if c.Suite == 0 {
		c.Suite = constants.CipherSuiteAES256GCM
	}
	if c.TTL <= 0 {
		c.TTL = constants.DefaultEnvelopeTTLSeconds * time.Second
	}
	if c.Clock == nil {
		c.Clock = time.Now
	}
}

func (c *HandlerConfig) validate() error {
	if !c.Suite.IsSupported() {
		return qerrors.ErrUnsupportedCipherSuite
	}
	return nil
}

// Handler creates and opens envelopes for one local identity. It is
// safe for concurrent use; the only mutable state is the replay guard,
// which serializes per inbox.
type Handler struct {
	keys   *hybrid.KeyPair
	policy policy.Config
	guard  *ReplayGuard
	config HandlerConfig
}

// NewHandler builds an envelope handler around a local identity and its
// validated policy.
func NewHandler(keys *hybrid.KeyPair, pol policy.Config, config HandlerConfig) (*Handler, error) {
	config.applyDefaults()
	if err := config.validate(); err != nil {
		return nil, err
	}
	if err := pol.Validate(); err != nil {
		return nil, err
	}
	return &Handler{
		keys:   keys,
		policy: pol,
		guard:  NewReplayGuard(),
		config: config,
	}, nil
}

// Guard exposes the replay guard so callers can run its sweeper.
func (h *Handler) Guard() *ReplayGuard { return h.guard }

// Create encrypts payload for the recipient and wraps it in a
// quantum-safe envelope in the given mode.
//
// The session key comes from a fresh hybrid key agreement; the
// ephemeral classical public key is carried as a fixed-size prefix of
// the payload field, and the KEM ciphertext in pq_ciphertext. In
// Hybrid and Quantum modes the envelope transcript is signed with both
// signature algorithms and the pair stored in pq_signature.
func (h *Handler) Create(m mode.Mode, inboxID string, payload []byte, recipient *hybrid.PublicBundle) (*QuantumSafeEnvelope, error) {
	if !m.IsValid() {
		return nil, qerrors.ErrInvalidMode
	}
	if !h.policy.AcceptsMode(m) {
		return nil, qerrors.NewPolicyError("minimum_mode", qerrors.ErrModeBelowMinimum)
	}
	if inboxID == "" {
		return nil, qerrors.ErrInvalidEnvelope
	}
	if len(payload) > constants.MaxPayloadSize {
		return nil, qerrors.ErrPayloadTooLarge
	}

	agreement, err := hybrid.Establish(m, h.keys.Bundle().Fingerprint(), recipient)
	if err != nil {
		return nil, err
	}
	defer agreement.Zeroize()

	aead, err := crypto.NewAEAD(h.config.Suite, agreement.SessionKey)
	if err != nil {
		return nil, err
	}

	nonce, err := crypto.SecureRandomBytes(constants.EnvelopeNonceSize)
	if err != nil {
		return nil, err
	}
	nonceB64 := base64.StdEncoding.EncodeToString(nonce)
	expiry := h.config.Clock().Add(h.config.TTL).Unix()

	ciphertext, err := aead.Seal(nonce, payload, envelopeAAD(m, inboxID))
	if err != nil {
		return nil, err
	}

	// Payload field: ephemeral classical public key, then ciphertext.
	wirePayload := make([]byte, 0, len(agreement.EphemeralPublic)+len(ciphertext))
	wirePayload = append(wirePayload, agreement.EphemeralPublic...)
	wirePayload = append(wirePayload, ciphertext...)

	env := &QuantumSafeEnvelope{
		Version:      constants.QuantumSafeEnvelopeVersion,
		CryptoMode:   m,
		InboxID:      inboxID,
		Payload:      wirePayload,
		PQCiphertext: agreement.PQCiphertext,
		Nonce:        nonceB64,
		Expiry:       expiry,
	}
	if m == mode.Classical {
		compat := true
		env.LegacyCompat = &compat
	}

	if m.RequiresPostQuantum() {
		sig, err := hybrid.Sign(m, h.keys, transcriptDigest(env))
		if err != nil {
			return nil, err
		}
		env.PQSignature = sig.Encode()
	}

	if err := env.Validate(); err != nil {
		return nil, err
	}
	return env, nil
}

// DecryptAndVerify opens an envelope addressed to the local identity.
//
// Checks run cheapest first and all before any decryption work: policy
// floor, expiry, replay, then signature, then key agreement and AEAD.
// The replay check reserves the nonce so concurrent deliveries of the
// same envelope cannot race past it; the reservation is released on any
// failure and committed only after the envelope fully opens, so a
// forged envelope cannot burn a nonce for a later legitimate one.
func (h *Handler) DecryptAndVerify(env *QuantumSafeEnvelope, sender *hybrid.PublicBundle) ([]byte, error) {
	if err := env.Validate(); err != nil {
		return nil, err
	}

	if !h.policy.AcceptsMode(env.CryptoMode) {
		return nil, qerrors.NewPolicyError("minimum_mode", qerrors.ErrModeBelowMinimum)
	}
	if env.Expired(h.config.Clock()) {
		return nil, qerrors.ErrExpired
	}
	if err := h.guard.Reserve(env.InboxID, env.Nonce, env.Expiry); err != nil {
		return nil, err
	}
	delivered := false
	defer func() {
		if !delivered {
			h.guard.Release(env.InboxID, env.Nonce)
		}
	}()

	if env.CryptoMode.RequiresPostQuantum() {
		sig, err := hybrid.DecodeSignature(env.PQSignature)
		if err != nil {
			return nil, err
		}
		if err := hybrid.Verify(env.CryptoMode, sender, transcriptDigest(env), sig); err != nil {
			return nil, err
		}
	}

	if len(env.Payload) < constants.X25519PublicKeySize+constants.AEADTagSize {
		return nil, qerrors.ErrInvalidEnvelope
	}
	ephemeralPublic := env.Payload[:constants.X25519PublicKeySize]
	ciphertext := env.Payload[constants.X25519PublicKeySize:]

	sessionKey, err := hybrid.Receive(env.CryptoMode, h.keys, sender, ephemeralPublic, env.PQCiphertext)
	if err != nil {
		return nil, err
	}
	defer crypto.Zeroize(sessionKey)

	aead, err := crypto.NewAEAD(h.config.Suite, sessionKey)
	if err != nil {
		return nil, err
	}
	nonce, err := env.NonceBytes()
	if err != nil {
		return nil, err
	}

	plaintext, err := aead.Open(nonce, ciphertext, envelopeAAD(env.CryptoMode, env.InboxID))
	if err != nil {
		return nil, err
	}

	h.guard.Record(env.InboxID, env.Nonce, env.Expiry)
	delivered = true
	return plaintext, nil
}

// envelopeAAD binds version, mode, and destination inbox into the AEAD
// so a ciphertext cannot be replanted in a different envelope context.
func envelopeAAD(m mode.Mode, inboxID string) []byte {
	aad := make([]byte, 0, len(constants.QuantumSafeEnvelopeVersion)+1+len(inboxID))
	aad = append(aad, constants.QuantumSafeEnvelopeVersion...)
	aad = append(aad, byte(m))
	aad = append(aad, inboxID...)
	return aad
}

// transcriptDigest hashes the envelope fields covered by the hybrid
// signature. The signature is computed after encryption, over the
// ciphertext, so verification can run before any decryption work.
func transcriptDigest(env *QuantumSafeEnvelope) []byte {
	var expiry [8]byte
	binary.BigEndian.PutUint64(expiry[:], uint64(env.Expiry))

	return crypto.TranscriptHash(
		[]byte(constants.DomainSeparatorSignature),
		[]byte(env.Version),
		[]byte(env.CryptoMode.String()),
		[]byte(env.InboxID),
		[]byte(env.Nonce),
		expiry[:],
		env.Payload,
		env.PQCiphertext,
	)
}
