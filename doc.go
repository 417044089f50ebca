// Package pqmsg provides the cryptographic core of a quantum-safe
// messaging protocol: hybrid post-quantum key agreement and signatures,
// a versioned message envelope, and policy-driven crypto mode selection.
//
// PQMsg combines ML-KEM-1024 (NIST FIPS 203) and ML-DSA-87 (NIST FIPS
// 204) post-quantum cryptography with X25519 and Ed25519 classical
// cryptography. Messages sealed in hybrid mode stay confidential and
// authentic if EITHER family of primitives remains secure.
//
// # Quick Start
//
// Seal and open a message envelope:
//
//	import (
//		"github.com/pqmsg/pqmsg-go/pkg/envelope"
//		"github.com/pqmsg/pqmsg-go/pkg/hybrid"
//		"github.com/pqmsg/pqmsg-go/pkg/mode"
//		"github.com/pqmsg/pqmsg-go/pkg/policy"
//	)
//
//	alice, _ := hybrid.GenerateKeyPair()
//	bob, _ := hybrid.GenerateKeyPair()
//
//	sender, _ := envelope.NewHandler(alice, policy.Default(), envelope.HandlerConfig{})
//	env, _ := sender.Create(mode.Hybrid, "bob-inbox", []byte("hello"), bob.Bundle())
//
//	receiver, _ := envelope.NewHandler(bob, policy.Default(), envelope.HandlerConfig{})
//	plaintext, _ := receiver.DecryptAndVerify(env, alice.Bundle())
//
// For low-level hybrid key agreement:
//
//	import "github.com/pqmsg/pqmsg-go/pkg/hybrid"
//
//	agreement, _ := hybrid.Establish(mode.Hybrid, alice.Bundle().Fingerprint(), bob.Bundle())
//	key, _ := hybrid.Receive(mode.Hybrid, bob, alice.Bundle(),
//		agreement.EphemeralPublic, agreement.PQCiphertext)
//
// # Package Structure
//
// The library is organized into several packages:
//
//   - pkg/mode: Crypto mode type with its upgrade-only ordering
//   - pkg/crypto: Low-level primitives (ML-KEM, ML-DSA, X25519, Ed25519, KDF, AEAD)
//   - pkg/hybrid: Hybrid key agreement, signatures, and identity key bundles
//   - pkg/envelope: Versioned message envelope with legacy bridge and replay guard
//   - pkg/policy: Crypto policy configuration and send mode negotiation
//   - pkg/adaptive: Measurement-driven mode recommendation with a cost model
//   - pkg/directory: Recipient key bundle lookup
//   - pkg/keygen: Background key pair pre-generation pool
//   - pkg/metrics: Structured logging, Prometheus metrics, tracing, health checks
//   - internal/constants: Security parameters and wire constants
//   - internal/errors: Sentinel errors and typed error wrappers
//
// # Security Properties
//
// The hybrid construction provides:
//
//   - Post-quantum security: ML-KEM-1024 and ML-DSA-87 (NIST Category 5)
//   - Classical security: X25519 ECDH and Ed25519 (128-bit security)
//   - Hybrid guarantee: Secure if EITHER family is secure
//   - Forward secrecy: Ephemeral keys and KEM ciphertexts per message
//   - Authenticated encryption: AES-256-GCM or ChaCha20-Poly1305
//   - Mode binding: Crypto mode is bound into the session key, the AEAD
//     associated data, and the signed transcript
//   - Replay protection: Per-inbox nonce windows with bounded retention
//   - Downgrade resistance: Policy floors, upgrade-only transitions
//
// # Testing
//
// The library includes comprehensive tests:
//
//	go test ./...                                  # All tests
//	go test -fuzz=FuzzUnmarshal ./test/fuzz        # Fuzz tests
//	go test -run TestSelfTest ./pkg/crypto         # Self-tests
//	go test -bench=. ./test/benchmark              # Benchmarks
//
// # Performance
//
// Typical performance on modern hardware (AMD64):
//
//   - Hybrid key pair generation: ~1.2 ms
//   - Hybrid agreement (send side): ~900 µs
//   - Hybrid seal including ML-DSA-87 signature: ~2.5 ms
//   - Classical-only seal: ~80 µs
//
// # References
//
//   - NIST FIPS 203: Module-Lattice-Based Key-Encapsulation Mechanism Standard
//   - NIST FIPS 204: Module-Lattice-Based Digital Signature Standard
//   - RFC 7748: Elliptic Curves for Security
//   - RFC 8032: Edwards-Curve Digital Signature Algorithm (EdDSA)
//   - NIST FIPS 202: SHA-3 Standard (SHAKE-256)
package pqmsg
