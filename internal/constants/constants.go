// Package constants defines security parameters and protocol constants for
// the PQMsg quantum-safe messaging core.
//
// Post-quantum primitives target NIST Category 5 (ML-KEM-1024, ML-DSA-87),
// paired with X25519 and Ed25519 on the classical side.
package constants

// Protocol identification
const (
	// ProtocolName is used for domain separation in key derivation.
	ProtocolName = "PQMSG-v2"

	// LegacyEnvelopeVersion is the version string of the classical-only envelope.
	LegacyEnvelopeVersion = "1.1"

	// QuantumSafeEnvelopeVersion is the version string of the current envelope.
	QuantumSafeEnvelopeVersion = "2.0-quantum"
)

// ML-KEM-1024 parameters (NIST FIPS 203)
const (
	// MLKEMPublicKeySize is the size of the ML-KEM-1024 encapsulation key in bytes.
	MLKEMPublicKeySize = 1568

	// MLKEMPrivateKeySize is the size of the ML-KEM-1024 decapsulation key in bytes.
	MLKEMPrivateKeySize = 3168

	// MLKEMCiphertextSize is the size of an ML-KEM-1024 ciphertext in bytes.
	MLKEMCiphertextSize = 1568

	// MLKEMSharedSecretSize is the size of the ML-KEM shared secret in bytes.
	MLKEMSharedSecretSize = 32

	// MLKEMSeedSize is the seed length for deterministic ML-KEM key generation.
	MLKEMSeedSize = 64
)

// ML-DSA-87 parameters (NIST FIPS 204)
const (
	// MLDSAPublicKeySize is the size of the ML-DSA-87 verification key in bytes.
	MLDSAPublicKeySize = 2592

	// MLDSAPrivateKeySize is the size of the ML-DSA-87 signing key in bytes.
	MLDSAPrivateKeySize = 4896

	// MLDSASignatureSize is the size of an ML-DSA-87 signature in bytes.
	MLDSASignatureSize = 4627
)

// X25519 parameters (RFC 7748)
const (
	// X25519PublicKeySize is the size of an X25519 public key in bytes.
	X25519PublicKeySize = 32

	// X25519PrivateKeySize is the size of an X25519 private key in bytes.
	X25519PrivateKeySize = 32

	// X25519SharedSecretSize is the size of an X25519 shared secret in bytes.
	X25519SharedSecretSize = 32
)

// Ed25519 parameters (RFC 8032)
const (
	// Ed25519PublicKeySize is the size of an Ed25519 public key in bytes.
	Ed25519PublicKeySize = 32

	// Ed25519SignatureSize is the size of an Ed25519 signature in bytes.
	Ed25519SignatureSize = 64
)

// Symmetric encryption parameters
const (
	// AEADKeySize is the key size for both supported AEAD suites in bytes.
	AEADKeySize = 32

	// AEADNonceSize is the nonce size for both supported AEAD suites in bytes.
	AEADNonceSize = 12

	// AEADTagSize is the authentication tag size in bytes.
	AEADTagSize = 16
)

// Key derivation parameters (SHAKE-256)
const (
	// SessionKeySize is the size of a derived message session key in bytes.
	SessionKeySize = 32

	// TranscriptHashSize is the size of transcript and fingerprint hashes in bytes.
	TranscriptHashSize = 32

	// DomainSeparatorSessionKey is used when deriving message session keys.
	DomainSeparatorSessionKey = ProtocolName + "-SessionKey"

	// DomainSeparatorSignature is used when hashing envelope signing transcripts.
	DomainSeparatorSignature = ProtocolName + "-Signature"

	// DomainSeparatorFingerprint is used when fingerprinting public key bundles.
	DomainSeparatorFingerprint = ProtocolName + "-Fingerprint"
)

// Envelope parameters
const (
	// EnvelopeNonceSize is the size of the envelope nonce in bytes. The nonce
	// doubles as the AEAD nonce and the replay-detection key.
	EnvelopeNonceSize = AEADNonceSize

	// MaxPayloadSize is the maximum plaintext payload per envelope.
	MaxPayloadSize = 1 << 20

	// DefaultEnvelopeTTLSeconds is the default validity window of an envelope.
	DefaultEnvelopeTTLSeconds = 3600
)

// Replay guard parameters
const (
	// ReplayRetentionSeconds is how long a seen nonce is retained beyond the
	// envelope expiry horizon.
	ReplayRetentionSeconds = 300

	// ReplayEvictionIntervalSeconds is how often the guard sweeps expired nonces.
	ReplayEvictionIntervalSeconds = 60

	// MaxNoncesPerInbox bounds the per-inbox window so a flood of unique
	// nonces cannot grow memory without limit.
	MaxNoncesPerInbox = 1 << 16
)

// CipherSuite identifies the AEAD used for payload encryption.
type CipherSuite uint16

const (
	// CipherSuiteAES256GCM uses AES-256-GCM for payload encryption.
	CipherSuiteAES256GCM CipherSuite = 0x0001

	// CipherSuiteChaCha20Poly1305 uses ChaCha20-Poly1305 for payload encryption.
	CipherSuiteChaCha20Poly1305 CipherSuite = 0x0002
)

// String returns a human-readable name for the cipher suite.
func (cs CipherSuite) String() string {
	switch cs {
	case CipherSuiteAES256GCM:
		return "AES-256-GCM"
	case CipherSuiteChaCha20Poly1305:
		return "ChaCha20-Poly1305"
	default:
		return "Unknown"
	}
}

// IsSupported returns true if the cipher suite is supported.
func (cs CipherSuite) IsSupported() bool {
	return cs == CipherSuiteAES256GCM || cs == CipherSuiteChaCha20Poly1305
}
