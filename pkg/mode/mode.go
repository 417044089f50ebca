// Package mode defines the closed set of crypto modes and their
// upgrade-only transition rule.
//
// Modes are totally ordered: Classical < Hybrid < Quantum. A message, once
// tagged with a mode, keeps it for its lifetime; negotiation may only move
// upward. Downgrades are rejected unconditionally because accepting a lower
// mode after a higher one has been observed is the classic protocol-rollback
// attack surface.
package mode

import (
	"fmt"
	"strings"

	qerrors "github.com/pqmsg/pqmsg-go/internal/errors"
)

// Mode is a crypto security level. The zero value is Classical.
type Mode uint8

const (
	// Classical uses X25519 and Ed25519 only.
	Classical Mode = iota

	// Hybrid combines the classical primitives with ML-KEM and ML-DSA so an
	// attacker must break both families to compromise a message.
	Hybrid

	// Quantum runs the same combined primitives as Hybrid but makes the
	// post-quantum components mandatory for acceptance. The historical
	// "quantum-safe" spelling parses to this variant.
	Quantum
)

// Mode strings as they appear in configuration files and CLI flags.
const (
	classicalName = "classical"
	hybridName    = "hybrid"
	quantumName   = "quantum"

	// quantumSafeAlias is accepted on parse for backward compatibility with
	// configs written against older releases.
	quantumSafeAlias = "quantum-safe"
)

// String returns the canonical lowercase name of the mode.
func (m Mode) String() string {
	switch m {
	case Classical:
		return classicalName
	case Hybrid:
		return hybridName
	case Quantum:
		return quantumName
	default:
		return fmt.Sprintf("mode(%d)", uint8(m))
	}
}

// IsValid returns true if m is one of the defined modes.
func (m Mode) IsValid() bool {
	return m <= Quantum
}

// CanTransitionTo reports whether a transition from m to target is allowed.
// Transitions are monotonic: only equal or higher modes are permitted.
func (m Mode) CanTransitionTo(target Mode) bool {
	if !m.IsValid() || !target.IsValid() {
		return false
	}
	return target >= m
}

// RequiresPostQuantum returns true if the mode carries post-quantum
// components (KEM ciphertext and ML-DSA signature half).
func (m Mode) RequiresPostQuantum() bool {
	return m != Classical
}

// Max returns the higher of two modes.
func Max(a, b Mode) Mode {
	if a > b {
		return a
	}
	return b
}

// Parse converts a mode string to a Mode. Matching is case-insensitive and
// tolerates surrounding whitespace. Unrecognized strings fail with
// ErrInvalidMode; Parse never panics.
func Parse(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case classicalName:
		return Classical, nil
	case hybridName:
		return Hybrid, nil
	case quantumName, quantumSafeAlias:
		return Quantum, nil
	default:
		return Classical, fmt.Errorf("%w: %q", qerrors.ErrInvalidMode, s)
	}
}

// MarshalText implements encoding.TextMarshaler so modes serialize as their
// canonical names in JSON envelopes and config files.
func (m Mode) MarshalText() ([]byte, error) {
	if !m.IsValid() {
		return nil, fmt.Errorf("%w: %d", qerrors.ErrInvalidMode, uint8(m))
	}
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// All returns the defined modes in ascending order. Useful for exhaustive
// table-driven tests and CLI help output.
func All() []Mode {
	return []Mode{Classical, Hybrid, Quantum}
}
