// mlkem.go wraps the ML-KEM-1024 key encapsulation mechanism (NIST FIPS 203).
//
// ML-KEM security rests on the Module Learning With Errors problem;
// ML-KEM-1024 targets NIST Category 5. Decapsulation uses implicit
// rejection, so a tampered ciphertext yields a random-looking secret rather
// than an error, and tampering surfaces later as an AEAD failure.
package crypto

import (
	"github.com/cloudflare/circl/kem/mlkem/mlkem1024"

	"github.com/pqmsg/pqmsg-go/internal/constants"
	qerrors "github.com/pqmsg/pqmsg-go/internal/errors"
)

// MLKEMPublicKey wraps an ML-KEM-1024 encapsulation key.
type MLKEMPublicKey struct {
	key *mlkem1024.PublicKey
}

// MLKEMPrivateKey wraps an ML-KEM-1024 decapsulation key.
type MLKEMPrivateKey struct {
	key *mlkem1024.PrivateKey
}

// MLKEMKeyPair represents an ML-KEM-1024 key pair.
type MLKEMKeyPair struct {
	// EncapsulationKey is the public key used by peers to encapsulate secrets.
	EncapsulationKey *MLKEMPublicKey

	// DecapsulationKey is the private key used to recover secrets.
	DecapsulationKey *MLKEMPrivateKey
}

// GenerateMLKEMKeyPair generates a new ML-KEM-1024 key pair from the CSPRNG.
func GenerateMLKEMKeyPair() (*MLKEMKeyPair, error) {
	pk, sk, err := mlkem1024.GenerateKeyPair(Reader)
	if err != nil {
		return nil, qerrors.NewCryptoError("MLKEMKeyPair.Generate", err)
	}

	return &MLKEMKeyPair{
		EncapsulationKey: &MLKEMPublicKey{key: pk},
		DecapsulationKey: &MLKEMPrivateKey{key: sk},
	}, nil
}

// NewMLKEMKeyPairFromSeed derives a key pair from a 64-byte seed.
// Deterministic: the same seed always produces the same key pair.
func NewMLKEMKeyPairFromSeed(seed []byte) (*MLKEMKeyPair, error) {
	if len(seed) != constants.MLKEMSeedSize {
		return nil, qerrors.ErrInvalidKeySize
	}

	pk, sk, err := mlkem1024.GenerateKeyPair(&seedReader{data: seed})
	if err != nil {
		return nil, qerrors.NewCryptoError("MLKEMKeyPair.FromSeed", err)
	}

	return &MLKEMKeyPair{
		EncapsulationKey: &MLKEMPublicKey{key: pk},
		DecapsulationKey: &MLKEMPrivateKey{key: sk},
	}, nil
}

// seedReader feeds a fixed seed as the randomness source for deterministic
// key generation.
type seedReader struct {
	data   []byte
	offset int
}

func (r *seedReader) Read(p []byte) (n int, err error) {
	n = copy(p, r.data[r.offset:])
	r.offset += n
	return n, nil
}

// MLKEMEncapsulate encapsulates a fresh shared secret to the recipient's
// public key. Returns the KEM ciphertext for transport and the secret
// wrapped in a consume-once container.
func MLKEMEncapsulate(ek *MLKEMPublicKey) (ciphertext []byte, secret *SharedSecret, err error) {
	if ek == nil || ek.key == nil {
		return nil, nil, qerrors.ErrInvalidPublicKey
	}

	ct := make([]byte, mlkem1024.CiphertextSize)
	ss := make([]byte, mlkem1024.SharedKeySize)

	seed := make([]byte, mlkem1024.EncapsulationSeedSize)
	if err := SecureRandom(seed); err != nil {
		return nil, nil, qerrors.NewCryptoError("MLKEMEncapsulate", err)
	}

	ek.key.EncapsulateTo(ct, ss, seed)

	return ct, NewSharedSecret(ss), nil
}

// MLKEMDecapsulate recovers the shared secret from a KEM ciphertext.
func MLKEMDecapsulate(dk *MLKEMPrivateKey, ciphertext []byte) (*SharedSecret, error) {
	if dk == nil || dk.key == nil {
		return nil, qerrors.ErrInvalidPrivateKey
	}
	if len(ciphertext) != constants.MLKEMCiphertextSize {
		return nil, qerrors.ErrInvalidCiphertext
	}

	ss := make([]byte, mlkem1024.SharedKeySize)
	dk.key.DecapsulateTo(ss, ciphertext)

	return NewSharedSecret(ss), nil
}

// Bytes returns the encoded bytes of the public key.
func (pk *MLKEMPublicKey) Bytes() []byte {
	if pk == nil || pk.key == nil {
		return nil
	}
	buf := make([]byte, mlkem1024.PublicKeySize)
	pk.key.Pack(buf)
	return buf
}

// ParseMLKEMPublicKey parses an ML-KEM-1024 public key from its encoded form.
func ParseMLKEMPublicKey(data []byte) (*MLKEMPublicKey, error) {
	if len(data) != constants.MLKEMPublicKeySize {
		return nil, qerrors.ErrInvalidPublicKey
	}

	pk := new(mlkem1024.PublicKey)
	if err := pk.Unpack(data); err != nil {
		return nil, qerrors.NewCryptoError("ParseMLKEMPublicKey", err)
	}

	return &MLKEMPublicKey{key: pk}, nil
}

// Zeroize drops the key references. CIRCL does not expose direct
// zeroization of the decapsulation key.
func (kp *MLKEMKeyPair) Zeroize() {
	kp.DecapsulationKey = nil
	kp.EncapsulationKey = nil
}
