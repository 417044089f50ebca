// mldsa.go wraps ML-DSA-87 signatures (NIST FIPS 204) for the post-quantum
// half of the hybrid signature scheme. ML-DSA-87 targets NIST Category 5.
package crypto

import (
	"github.com/cloudflare/circl/sign/mldsa/mldsa87"

	"github.com/pqmsg/pqmsg-go/internal/constants"
	qerrors "github.com/pqmsg/pqmsg-go/internal/errors"
)

// MLDSAKeyPair represents an ML-DSA-87 signing key pair.
type MLDSAKeyPair struct {
	PublicKey  *mldsa87.PublicKey
	PrivateKey *mldsa87.PrivateKey
}

// GenerateMLDSAKeyPair generates a new ML-DSA-87 key pair from the CSPRNG.
func GenerateMLDSAKeyPair() (*MLDSAKeyPair, error) {
	pub, priv, err := mldsa87.GenerateKey(Reader)
	if err != nil {
		return nil, qerrors.NewCryptoError("MLDSAKeyPair.Generate", err)
	}

	return &MLDSAKeyPair{PublicKey: pub, PrivateKey: priv}, nil
}

// NewMLDSAKeyPairFromSeed derives a key pair from a 32-byte seed.
// Deterministic: the same seed always produces the same key pair.
func NewMLDSAKeyPairFromSeed(seed []byte) (*MLDSAKeyPair, error) {
	if len(seed) != mldsa87.SeedSize {
		return nil, qerrors.ErrInvalidKeySize
	}

	var seedArr [mldsa87.SeedSize]byte
	copy(seedArr[:], seed)
	pub, priv := mldsa87.NewKeyFromSeed(&seedArr)

	return &MLDSAKeyPair{PublicKey: pub, PrivateKey: priv}, nil
}

// MLDSASign signs a message digest with the private key. Signing is
// deterministic (hedged variants are unnecessary for envelope transcripts).
func MLDSASign(priv *mldsa87.PrivateKey, digest []byte) ([]byte, error) {
	if priv == nil {
		return nil, qerrors.ErrInvalidPrivateKey
	}

	sig := make([]byte, mldsa87.SignatureSize)
	if err := mldsa87.SignTo(priv, digest, nil, false, sig); err != nil {
		return nil, qerrors.NewCryptoError("MLDSASign", err)
	}
	return sig, nil
}

// MLDSAVerify reports whether sig is a valid signature over digest.
// Malformed inputs verify as false, never panic.
func MLDSAVerify(pub *mldsa87.PublicKey, digest, sig []byte) bool {
	if pub == nil || len(sig) != constants.MLDSASignatureSize {
		return false
	}
	return mldsa87.Verify(pub, digest, nil, sig)
}

// MLDSAPublicKeyBytes returns the encoded bytes of the public key.
func MLDSAPublicKeyBytes(pub *mldsa87.PublicKey) []byte {
	if pub == nil {
		return nil
	}
	b, _ := pub.MarshalBinary() // never fails for a valid key
	return b
}

// ParseMLDSAPublicKey parses an ML-DSA-87 public key from its encoded form.
func ParseMLDSAPublicKey(data []byte) (*mldsa87.PublicKey, error) {
	if len(data) != constants.MLDSAPublicKeySize {
		return nil, qerrors.ErrInvalidPublicKey
	}

	pub := new(mldsa87.PublicKey)
	if err := pub.UnmarshalBinary(data); err != nil {
		return nil, qerrors.NewCryptoError("ParseMLDSAPublicKey", err)
	}
	return pub, nil
}

// Zeroize drops the key references. CIRCL does not expose direct
// zeroization of the signing key.
func (kp *MLDSAKeyPair) Zeroize() {
	kp.PrivateKey = nil
	kp.PublicKey = nil
}
