// agree.go implements hybrid key agreement.
//
// Sender side (Establish):
//
//	S_c ← X25519(eph_sk, recipient_enc_pk)
//	(ct, S_q) ← ML-KEM.Encaps(recipient_kem_pk)        (mode != Classical)
//	K ← SHAKE-256(S_c [|| S_q] || mode || fp_s || fp_r)
//
// Receiver side (Receive) mirrors it with the recipient's private halves.
//
// The mode tag and both bundle fingerprints are bound into the derivation
// even in classical mode, so a hybrid handshake replayed under a relabeled
// classical context derives a different key. If either agreement step
// fails, the whole operation fails with a tagged error; there is no
// fallback to the surviving primitive alone.
package hybrid

import (
	"fmt"

	qerrors "github.com/pqmsg/pqmsg-go/internal/errors"
	"github.com/pqmsg/pqmsg-go/pkg/crypto"
	"github.com/pqmsg/pqmsg-go/pkg/mode"
)

// Agreement is the sender-side result of a hybrid key agreement.
type Agreement struct {
	// SessionKey is the derived symmetric key for this message.
	SessionKey []byte

	// EphemeralPublic is the sender's ephemeral X25519 public key,
	// transported to the recipient.
	EphemeralPublic []byte

	// PQCiphertext is the ML-KEM ciphertext; nil in Classical mode.
	PQCiphertext []byte
}

// Zeroize erases the derived session key.
func (a *Agreement) Zeroize() {
	crypto.Zeroize(a.SessionKey)
	a.SessionKey = nil
}

// Establish performs the sender side of hybrid key agreement with the
// recipient's public bundle.
func Establish(m mode.Mode, senderFingerprint []byte, remote *PublicBundle) (*Agreement, error) {
	if !m.IsValid() {
		return nil, qerrors.ErrInvalidMode
	}
	if remote == nil || remote.EncryptionKey == nil {
		return nil, qerrors.ErrInvalidPublicKey
	}
	if m.RequiresPostQuantum() && remote.KEMKey == nil {
		return nil, qerrors.NewCryptoError("hybrid.Establish", qerrors.ErrMissingRequiredComponent)
	}

	eph, err := crypto.GenerateX25519KeyPair()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", qerrors.ErrClassicalAgreementFailed, err)
	}

	classicalSecret, err := crypto.X25519Agree(eph.PrivateKey, remote.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", qerrors.ErrClassicalAgreementFailed, err)
	}

	secrets := []*crypto.SharedSecret{classicalSecret}
	var pqCiphertext []byte

	if m.RequiresPostQuantum() {
		ct, pqSecret, err := crypto.MLKEMEncapsulate(remote.KEMKey)
		if err != nil {
			classicalSecret.Destroy()
			return nil, fmt.Errorf("%w: %v", qerrors.ErrPqEncapsulationFailed, err)
		}
		secrets = append(secrets, pqSecret)
		pqCiphertext = ct
	}

	sessionKey, err := deriveAgreementKey(m, secrets, senderFingerprint, remote.Fingerprint())
	if err != nil {
		return nil, err
	}

	return &Agreement{
		SessionKey:      sessionKey,
		EphemeralPublic: eph.PublicKeyBytes(),
		PQCiphertext:    pqCiphertext,
	}, nil
}

// Receive performs the recipient side of hybrid key agreement against the
// transported ephemeral public key and KEM ciphertext.
func Receive(m mode.Mode, local *KeyPair, senderBundle *PublicBundle, ephemeralPublic, pqCiphertext []byte) ([]byte, error) {
	if !m.IsValid() {
		return nil, qerrors.ErrInvalidMode
	}
	if local == nil || local.Classical == nil || local.Classical.Encryption == nil {
		return nil, qerrors.ErrInvalidPrivateKey
	}
	if senderBundle == nil {
		return nil, qerrors.ErrInvalidPublicKey
	}

	ephPub, err := crypto.ParseX25519PublicKey(ephemeralPublic)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", qerrors.ErrClassicalAgreementFailed, err)
	}

	classicalSecret, err := crypto.X25519Agree(local.Classical.Encryption.PrivateKey, ephPub)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", qerrors.ErrClassicalAgreementFailed, err)
	}

	secrets := []*crypto.SharedSecret{classicalSecret}

	if m.RequiresPostQuantum() {
		if len(pqCiphertext) == 0 {
			classicalSecret.Destroy()
			return nil, qerrors.NewCryptoError("hybrid.Receive", qerrors.ErrMissingRequiredComponent)
		}
		if local.PostQuantum == nil || local.PostQuantum.KEM == nil {
			classicalSecret.Destroy()
			return nil, qerrors.ErrInvalidPrivateKey
		}

		pqSecret, err := crypto.MLKEMDecapsulate(local.PostQuantum.KEM.DecapsulationKey, pqCiphertext)
		if err != nil {
			classicalSecret.Destroy()
			return nil, fmt.Errorf("%w: %v", qerrors.ErrPqEncapsulationFailed, err)
		}
		secrets = append(secrets, pqSecret)
	}

	return deriveAgreementKey(m, secrets, senderBundle.Fingerprint(), local.Bundle().Fingerprint())
}

// deriveAgreementKey binds the mode and both fingerprints into the session
// key. In Classical mode the PQ secret is simply absent from the inputs;
// the mode tag is bound regardless.
func deriveAgreementKey(m mode.Mode, secrets []*crypto.SharedSecret, senderFP, recipientFP []byte) ([]byte, error) {
	context := [][]byte{
		[]byte(m.String()),
		senderFP,
		recipientFP,
	}
	return crypto.DeriveSessionKey(secrets, context)
}
