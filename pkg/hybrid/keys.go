// Package hybrid implements the combiners at the center of the PQMsg core:
// hybrid key agreement (X25519 + ML-KEM-1024 under a SHAKE-256 derivation)
// and hybrid signatures (Ed25519 + ML-DSA-87 with AND verification).
//
// The security goal of both combiners is the same: the result remains
// secure if either the classical or the post-quantum primitive holds. For
// key agreement this means neither input is ever skipped or weakened when
// the mode carries both; for signatures it means a forger must break both
// algorithms.
package hybrid

import (
	"crypto/ecdh"
	"crypto/ed25519"

	"github.com/cloudflare/circl/sign/mldsa/mldsa87"

	"github.com/pqmsg/pqmsg-go/internal/constants"
	qerrors "github.com/pqmsg/pqmsg-go/internal/errors"
	"github.com/pqmsg/pqmsg-go/pkg/crypto"
	"github.com/pqmsg/pqmsg-go/pkg/mode"
)

// ClassicalKeyPair owns one X25519 encryption key pair and one Ed25519
// signing key pair. Private halves are never copied; only the public
// halves are shareable through PublicBundle.
type ClassicalKeyPair struct {
	Encryption *crypto.X25519KeyPair
	Signing    *crypto.Ed25519KeyPair
}

// GenerateClassicalKeyPair generates both classical key pairs.
func GenerateClassicalKeyPair() (*ClassicalKeyPair, error) {
	enc, err := crypto.GenerateX25519KeyPair()
	if err != nil {
		return nil, err
	}
	sig, err := crypto.GenerateEd25519KeyPair()
	if err != nil {
		return nil, err
	}
	return &ClassicalKeyPair{Encryption: enc, Signing: sig}, nil
}

// Zeroize erases the private key material of both pairs.
func (kp *ClassicalKeyPair) Zeroize() {
	if kp.Encryption != nil {
		kp.Encryption.Zeroize()
	}
	if kp.Signing != nil {
		kp.Signing.Zeroize()
	}
}

// PostQuantumKeyPair owns one ML-KEM-1024 key pair and one ML-DSA-87
// signing key pair.
type PostQuantumKeyPair struct {
	KEM     *crypto.MLKEMKeyPair
	Signing *crypto.MLDSAKeyPair
}

// GeneratePostQuantumKeyPair generates both post-quantum key pairs.
func GeneratePostQuantumKeyPair() (*PostQuantumKeyPair, error) {
	kem, err := crypto.GenerateMLKEMKeyPair()
	if err != nil {
		return nil, err
	}
	sig, err := crypto.GenerateMLDSAKeyPair()
	if err != nil {
		return nil, err
	}
	return &PostQuantumKeyPair{KEM: kem, Signing: sig}, nil
}

// Zeroize erases the private key material of both pairs.
func (kp *PostQuantumKeyPair) Zeroize() {
	if kp.KEM != nil {
		kp.KEM.Zeroize()
	}
	if kp.Signing != nil {
		kp.Signing.Zeroize()
	}
}

// KeyPair is the full hybrid identity: exactly one classical and one
// post-quantum key pair with a single owner. It has no cryptographic
// meaning of its own; operations decompose it per mode.
type KeyPair struct {
	Classical   *ClassicalKeyPair
	PostQuantum *PostQuantumKeyPair
}

// GenerateKeyPair generates a complete hybrid identity. Key generation is
// expensive (two lattice key pairs); callers on a hot path should use the
// keygen pool instead of calling this inline.
func GenerateKeyPair() (*KeyPair, error) {
	classical, err := GenerateClassicalKeyPair()
	if err != nil {
		return nil, err
	}
	pq, err := GeneratePostQuantumKeyPair()
	if err != nil {
		classical.Zeroize()
		return nil, err
	}
	return &KeyPair{Classical: classical, PostQuantum: pq}, nil
}

// Bundle returns the shareable public halves of the identity.
func (kp *KeyPair) Bundle() *PublicBundle {
	return &PublicBundle{
		EncryptionKey: kp.Classical.Encryption.PublicKey,
		VerifyKey:     kp.Classical.Signing.PublicKey,
		KEMKey:        kp.PostQuantum.KEM.EncapsulationKey,
		PQVerifyKey:   kp.PostQuantum.Signing.PublicKey,
	}
}

// Zeroize erases all private key material of the identity.
func (kp *KeyPair) Zeroize() {
	if kp.Classical != nil {
		kp.Classical.Zeroize()
	}
	if kp.PostQuantum != nil {
		kp.PostQuantum.Zeroize()
	}
}

// PublicBundle is the public half of an identity as published through the
// directory. The post-quantum keys are absent for classical-only legacy
// peers.
type PublicBundle struct {
	EncryptionKey *ecdh.PublicKey
	VerifyKey     ed25519.PublicKey
	KEMKey        *crypto.MLKEMPublicKey
	PQVerifyKey   *mldsa87.PublicKey
}

// HasPostQuantum reports whether the bundle carries post-quantum keys.
func (b *PublicBundle) HasPostQuantum() bool {
	return b.KEMKey != nil && b.PQVerifyKey != nil
}

// classicalBundleSize is the encoded size of a classical-only bundle.
const classicalBundleSize = constants.X25519PublicKeySize + constants.Ed25519PublicKeySize

// fullBundleSize is the encoded size of a bundle with post-quantum keys.
const fullBundleSize = classicalBundleSize + constants.MLKEMPublicKeySize + constants.MLDSAPublicKeySize

// Bytes serializes the bundle.
//
// Format: x25519_pub (32) || ed25519_pub (32) [|| mlkem_pub (1568) || mldsa_pub (2592)]
func (b *PublicBundle) Bytes() []byte {
	size := classicalBundleSize
	if b.HasPostQuantum() {
		size = fullBundleSize
	}

	out := make([]byte, 0, size)
	out = append(out, b.EncryptionKey.Bytes()...)
	out = append(out, b.VerifyKey...)
	if b.HasPostQuantum() {
		out = append(out, b.KEMKey.Bytes()...)
		out = append(out, crypto.MLDSAPublicKeyBytes(b.PQVerifyKey)...)
	}
	return out
}

// ParsePublicBundle parses a serialized bundle. Both the classical-only
// and the full layout are accepted; any other length is rejected.
func ParsePublicBundle(data []byte) (*PublicBundle, error) {
	if len(data) != classicalBundleSize && len(data) != fullBundleSize {
		return nil, qerrors.ErrInvalidPublicKey
	}

	enc, err := crypto.ParseX25519PublicKey(data[:constants.X25519PublicKeySize])
	if err != nil {
		return nil, err
	}
	verify, err := crypto.ParseEd25519PublicKey(data[constants.X25519PublicKeySize:classicalBundleSize])
	if err != nil {
		return nil, err
	}

	bundle := &PublicBundle{EncryptionKey: enc, VerifyKey: verify}
	if len(data) == classicalBundleSize {
		return bundle, nil
	}

	offset := classicalBundleSize
	kem, err := crypto.ParseMLKEMPublicKey(data[offset : offset+constants.MLKEMPublicKeySize])
	if err != nil {
		return nil, err
	}
	offset += constants.MLKEMPublicKeySize
	pqVerify, err := crypto.ParseMLDSAPublicKey(data[offset:])
	if err != nil {
		return nil, err
	}

	bundle.KEMKey = kem
	bundle.PQVerifyKey = pqVerify
	return bundle, nil
}

// Fingerprint returns the SHA3-256 fingerprint of the serialized bundle.
// Fingerprints of both parties are bound into every session-key derivation.
func (b *PublicBundle) Fingerprint() []byte {
	return crypto.Fingerprint(b.Bytes())
}

// SupportsMode reports whether the bundle carries the key material the
// given mode requires.
func (b *PublicBundle) SupportsMode(m mode.Mode) bool {
	if m.RequiresPostQuantum() {
		return b.HasPostQuantum()
	}
	return true
}
