// sign.go implements hybrid digital signatures with AND verification.
//
// A hybrid signature is a structured pair, never an opaque blob: each
// component is independently decodable and independently checked. In
// Hybrid and Quantum modes the signature is valid iff BOTH components
// verify; a single broken component is a verification failure. OR
// semantics would let an attacker forge with one broken algorithm and must
// never be implemented.
package hybrid

import (
	"encoding/binary"

	"github.com/pqmsg/pqmsg-go/internal/constants"
	qerrors "github.com/pqmsg/pqmsg-go/internal/errors"
	"github.com/pqmsg/pqmsg-go/pkg/crypto"
	"github.com/pqmsg/pqmsg-go/pkg/mode"
)

// Signature is a structured hybrid signature. PostQuantum is nil for
// Classical-mode signatures.
type Signature struct {
	Classical   []byte
	PostQuantum []byte
}

// Sign produces a signature over digest for the given mode: an Ed25519
// signature always, plus an ML-DSA-87 signature when the mode carries
// post-quantum components. Both components sign the same digest.
func Sign(m mode.Mode, keys *KeyPair, digest []byte) (*Signature, error) {
	if !m.IsValid() {
		return nil, qerrors.ErrInvalidMode
	}
	if keys == nil || keys.Classical == nil || keys.Classical.Signing == nil {
		return nil, qerrors.ErrInvalidPrivateKey
	}

	classicalSig, err := crypto.Ed25519Sign(keys.Classical.Signing.PrivateKey, digest)
	if err != nil {
		return nil, qerrors.NewCryptoError("hybrid.Sign", err)
	}

	sig := &Signature{Classical: classicalSig}

	if m.RequiresPostQuantum() {
		if keys.PostQuantum == nil || keys.PostQuantum.Signing == nil {
			return nil, qerrors.ErrInvalidPrivateKey
		}
		pqSig, err := crypto.MLDSASign(keys.PostQuantum.Signing.PrivateKey, digest)
		if err != nil {
			return nil, qerrors.NewCryptoError("hybrid.Sign", err)
		}
		sig.PostQuantum = pqSig
	}

	return sig, nil
}

// Verify checks a hybrid signature over digest against the signer's public
// bundle under the given mode.
//
// Classical mode: only the classical component exists and is checked.
// Hybrid/Quantum mode: both components must be present and both must
// verify. A missing post-quantum component fails with
// ErrMissingRequiredComponent, never verifies as valid.
func Verify(m mode.Mode, signer *PublicBundle, digest []byte, sig *Signature) error {
	if !m.IsValid() {
		return qerrors.ErrInvalidMode
	}
	if signer == nil || signer.VerifyKey == nil {
		return qerrors.ErrInvalidPublicKey
	}
	if sig == nil || len(sig.Classical) == 0 {
		return qerrors.NewCryptoError("hybrid.Verify", qerrors.ErrMissingRequiredComponent)
	}

	if m.RequiresPostQuantum() {
		if len(sig.PostQuantum) == 0 {
			return qerrors.NewCryptoError("hybrid.Verify", qerrors.ErrMissingRequiredComponent)
		}
		if signer.PQVerifyKey == nil {
			return qerrors.ErrInvalidPublicKey
		}
	}

	// Check both components unconditionally before judging, so a broken
	// classical half cannot short-circuit away the PQ work and leak which
	// half failed through timing.
	classicalOK := crypto.Ed25519Verify(signer.VerifyKey, digest, sig.Classical)
	pqOK := true
	if m.RequiresPostQuantum() {
		pqOK = crypto.MLDSAVerify(signer.PQVerifyKey, digest, sig.PostQuantum)
	}

	if !classicalOK || !pqOK {
		return qerrors.ErrSignatureInvalid
	}
	return nil
}

// Encode serializes the signature as a length-prefixed pair.
//
// Format: len_c (4B BE) || classical || len_pq (4B BE) || pq
// len_pq is zero for Classical-mode signatures.
func (s *Signature) Encode() []byte {
	out := make([]byte, 0, 8+len(s.Classical)+len(s.PostQuantum))
	lenBuf := make([]byte, 4)

	binary.BigEndian.PutUint32(lenBuf, uint32(len(s.Classical)))
	out = append(out, lenBuf...)
	out = append(out, s.Classical...)

	binary.BigEndian.PutUint32(lenBuf, uint32(len(s.PostQuantum)))
	out = append(out, lenBuf...)
	out = append(out, s.PostQuantum...)

	return out
}

// DecodeSignature parses a serialized hybrid signature. Component lengths
// are validated against the primitive constants so a truncated or padded
// encoding is rejected before any verification work.
func DecodeSignature(data []byte) (*Signature, error) {
	if len(data) < 8 {
		return nil, qerrors.ErrInvalidEnvelope
	}

	classicalLen := binary.BigEndian.Uint32(data[:4])
	if classicalLen != constants.Ed25519SignatureSize {
		return nil, qerrors.ErrInvalidEnvelope
	}
	if uint32(len(data)) < 4+classicalLen+4 {
		return nil, qerrors.ErrInvalidEnvelope
	}

	offset := 4 + int(classicalLen)
	classical := make([]byte, classicalLen)
	copy(classical, data[4:offset])

	pqLen := binary.BigEndian.Uint32(data[offset : offset+4])
	offset += 4
	if pqLen == 0 {
		if offset != len(data) {
			return nil, qerrors.ErrInvalidEnvelope
		}
		return &Signature{Classical: classical}, nil
	}

	if pqLen != constants.MLDSASignatureSize || offset+int(pqLen) != len(data) {
		return nil, qerrors.ErrInvalidEnvelope
	}
	pq := make([]byte, pqLen)
	copy(pq, data[offset:])

	return &Signature{Classical: classical, PostQuantum: pq}, nil
}
