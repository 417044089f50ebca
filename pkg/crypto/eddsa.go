// eddsa.go wraps Ed25519 signatures (RFC 8032) for the classical half of
// the hybrid signature scheme.
package crypto

import (
	"crypto/ed25519"

	"github.com/pqmsg/pqmsg-go/internal/constants"
	qerrors "github.com/pqmsg/pqmsg-go/internal/errors"
)

// Ed25519KeyPair represents an Ed25519 signing key pair.
type Ed25519KeyPair struct {
	PublicKey  ed25519.PublicKey
	PrivateKey ed25519.PrivateKey
}

// GenerateEd25519KeyPair generates a new Ed25519 key pair from the CSPRNG.
func GenerateEd25519KeyPair() (*Ed25519KeyPair, error) {
	pub, priv, err := ed25519.GenerateKey(Reader)
	if err != nil {
		return nil, qerrors.NewCryptoError("Ed25519KeyPair.Generate", err)
	}

	return &Ed25519KeyPair{PublicKey: pub, PrivateKey: priv}, nil
}

// NewEd25519KeyPairFromSeed derives a key pair from a 32-byte seed.
// Deterministic: the same seed always produces the same key pair.
func NewEd25519KeyPairFromSeed(seed []byte) (*Ed25519KeyPair, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, qerrors.ErrInvalidKeySize
	}

	priv := ed25519.NewKeyFromSeed(seed)
	return &Ed25519KeyPair{
		PublicKey:  priv.Public().(ed25519.PublicKey),
		PrivateKey: priv,
	}, nil
}

// Ed25519Sign signs a message digest with the private key.
func Ed25519Sign(priv ed25519.PrivateKey, digest []byte) ([]byte, error) {
	if len(priv) != ed25519.PrivateKeySize {
		return nil, qerrors.ErrInvalidPrivateKey
	}
	return ed25519.Sign(priv, digest), nil
}

// Ed25519Verify reports whether sig is a valid signature over digest.
// Malformed keys or signatures verify as false, never panic.
func Ed25519Verify(pub ed25519.PublicKey, digest, sig []byte) bool {
	if len(pub) != constants.Ed25519PublicKeySize {
		return false
	}
	if len(sig) != constants.Ed25519SignatureSize {
		return false
	}
	return ed25519.Verify(pub, digest, sig)
}

// ParseEd25519PublicKey validates and returns an Ed25519 public key.
func ParseEd25519PublicKey(data []byte) (ed25519.PublicKey, error) {
	if len(data) != constants.Ed25519PublicKeySize {
		return nil, qerrors.ErrInvalidPublicKey
	}
	pub := make(ed25519.PublicKey, constants.Ed25519PublicKeySize)
	copy(pub, data)
	return pub, nil
}

// Zeroize erases the private key material.
func (kp *Ed25519KeyPair) Zeroize() {
	Zeroize(kp.PrivateKey)
	kp.PrivateKey = nil
	kp.PublicKey = nil
}
