// kdf.go implements key derivation using SHAKE-256 (FIPS 202).
//
// All derivations use length-prefixed inputs under a domain separator, so
// no two distinct input sequences can collide and no two protocol contexts
// can produce the same key. The session-key derivation additionally binds
// the negotiated crypto mode and both parties' bundle fingerprints into the
// context; relabeling a hybrid handshake as classical therefore changes the
// derived key and the replayed ciphertext fails to decrypt.
package crypto

import (
	"encoding/binary"

	"golang.org/x/crypto/sha3"

	"github.com/pqmsg/pqmsg-go/internal/constants"
	qerrors "github.com/pqmsg/pqmsg-go/internal/errors"
)

// DeriveKey derives output from a single input under a domain separator.
// Length prefixes are 4-byte big-endian to keep parsing unambiguous.
func DeriveKey(domain string, input []byte, outputLen int) ([]byte, error) {
	if outputLen <= 0 || outputLen > 1<<20 {
		return nil, qerrors.NewCryptoError("DeriveKey", qerrors.ErrInvalidKeySize)
	}

	h := sha3.NewShake256()
	lenBuf := make([]byte, 4)

	domainBytes := []byte(domain)
	binary.BigEndian.PutUint32(lenBuf, uint32(len(domainBytes)))
	h.Write(lenBuf)
	h.Write(domainBytes)

	binary.BigEndian.PutUint32(lenBuf, uint32(len(input)))
	h.Write(lenBuf)
	h.Write(input)

	output := make([]byte, outputLen)
	_, _ = h.Read(output) // SHAKE256.Read never fails

	return output, nil
}

// DeriveKeyMultiple derives output from several inputs under a domain
// separator. The input count and each input length are absorbed before the
// data so the encoding is injective.
func DeriveKeyMultiple(domain string, inputs [][]byte, outputLen int) ([]byte, error) {
	if outputLen <= 0 || outputLen > 1<<20 {
		return nil, qerrors.NewCryptoError("DeriveKeyMultiple", qerrors.ErrInvalidKeySize)
	}

	h := sha3.NewShake256()
	lenBuf := make([]byte, 4)

	domainBytes := []byte(domain)
	binary.BigEndian.PutUint32(lenBuf, uint32(len(domainBytes)))
	h.Write(lenBuf)
	h.Write(domainBytes)

	binary.BigEndian.PutUint32(lenBuf, uint32(len(inputs)))
	h.Write(lenBuf)

	for _, input := range inputs {
		binary.BigEndian.PutUint32(lenBuf, uint32(len(input)))
		h.Write(lenBuf)
		h.Write(input)
	}

	output := make([]byte, outputLen)
	_, _ = h.Read(output)

	return output, nil
}

// TranscriptHash computes a SHA3-256 hash over an ordered list of
// components with length prefixes. Used for envelope signing transcripts.
func TranscriptHash(components ...[]byte) []byte {
	h := sha3.New256()
	lenBuf := make([]byte, 4)

	binary.BigEndian.PutUint32(lenBuf, uint32(len(components)))
	h.Write(lenBuf)

	for _, component := range components {
		binary.BigEndian.PutUint32(lenBuf, uint32(len(component)))
		h.Write(lenBuf)
		h.Write(component)
	}

	return h.Sum(nil)
}

// Fingerprint computes the SHA3-256 fingerprint of serialized public key
// material under the fingerprint domain separator.
func Fingerprint(material ...[]byte) []byte {
	h := sha3.New256()
	h.Write([]byte(constants.DomainSeparatorFingerprint))
	lenBuf := make([]byte, 4)
	for _, m := range material {
		binary.BigEndian.PutUint32(lenBuf, uint32(len(m)))
		h.Write(lenBuf)
		h.Write(m)
	}
	return h.Sum(nil)
}

// DeriveSessionKey consumes the key-agreement secrets and derives the
// message session key. Every secret is consumed exactly once and zeroized;
// a previously consumed secret fails the whole derivation with
// ErrSecretConsumed and nothing is derived.
//
// The context components (mode string, fingerprints) are bound into the
// derivation after the secrets. In classical mode callers pass a single
// secret; the mode tag is still bound.
func DeriveSessionKey(secrets []*SharedSecret, context [][]byte) ([]byte, error) {
	if len(secrets) == 0 {
		return nil, qerrors.NewCryptoError("DeriveSessionKey", qerrors.ErrInvalidKeySize)
	}

	inputs := make([][]byte, 0, len(secrets)+len(context))
	taken := make([][]byte, 0, len(secrets))
	defer func() {
		for _, b := range taken {
			Zeroize(b)
		}
	}()

	for _, s := range secrets {
		b, err := s.take()
		if err != nil {
			return nil, qerrors.NewCryptoError("DeriveSessionKey", err)
		}
		taken = append(taken, b)
		inputs = append(inputs, b)
	}
	inputs = append(inputs, context...)

	return DeriveKeyMultiple(constants.DomainSeparatorSessionKey, inputs, constants.SessionKeySize)
}
