// Package policy holds the validated crypto-mode configuration and the
// acceptance rules a participant or relay applies to outgoing and
// incoming messages. A Config is an immutable value threaded through
// calls; it is validated once at construction and never mutates.
package policy

import (
	"encoding/json"
	"os"
	"strconv"

	qerrors "github.com/pqmsg/pqmsg-go/internal/errors"
	"github.com/pqmsg/pqmsg-go/pkg/mode"
)

// Environment variable names recognized by FromEnv.
const (
	EnvMode               = "PQMSG_MODE"
	EnvMinimumMode        = "PQMSG_MINIMUM_MODE"
	EnvAllowAutoUpgrade   = "PQMSG_ALLOW_AUTO_UPGRADE"
	EnvAdaptiveMode       = "PQMSG_ADAPTIVE_MODE"
	EnvRequirePostQuantum = "PQMSG_REQUIRE_POST_QUANTUM"
)

// Config describes which crypto modes a participant uses and accepts.
//
// Mode is the target mode for outgoing messages. MinimumMode is the
// floor: no message, sent or received, may use a mode below it. The
// invariant Mode >= MinimumMode is checked by Validate and never
// silently clamped.
type Config struct {
	// Mode is the configured target mode for outgoing messages.
	Mode mode.Mode `json:"mode"`

	// MinimumMode is the lowest mode this participant accepts.
	MinimumMode mode.Mode `json:"minimum_mode"`

	// AllowAutoUpgrade permits upgrading above Mode when the peer
	// advertises a higher capability. Downgrades are never permitted.
	AllowAutoUpgrade bool `json:"allow_auto_upgrade"`

	// AdaptiveMode enables the adaptive selector for outgoing sends.
	AdaptiveMode bool `json:"adaptive_mode"`

	// RequirePostQuantum is a relay-side flag rejecting any Classical
	// message regardless of MinimumMode.
	RequirePostQuantum bool `json:"require_post_quantum,omitempty"`
}

// Default returns the standard migration-window configuration: hybrid
// sends, classical still accepted, upgrades allowed.
func Default() Config {
	return Config{
		Mode:             mode.Hybrid,
		MinimumMode:      mode.Classical,
		AllowAutoUpgrade: true,
	}
}

// HighSecurity returns a configuration that refuses classical crypto
// entirely. The floor is fixed at Hybrid.
func HighSecurity() Config {
	return Config{
		Mode:             mode.Quantum,
		MinimumMode:      mode.Hybrid,
		AllowAutoUpgrade: true,
	}
}

// Validate checks the configuration invariants.
//
// An invalid mode value fails with ConfigInvalid. A target mode below
// the floor fails with ModeBelowMinimum; the config is rejected, never
// clamped.
func (c Config) Validate() error {
	if !c.Mode.IsValid() {
		return qerrors.NewPolicyError("mode", qerrors.ErrConfigInvalid)
	}
	if !c.MinimumMode.IsValid() {
		return qerrors.NewPolicyError("minimum_mode", qerrors.ErrConfigInvalid)
	}
	if c.Mode < c.MinimumMode {
		return qerrors.NewPolicyError("minimum_mode", qerrors.ErrModeBelowMinimum)
	}
	if c.RequirePostQuantum && !c.MinimumMode.RequiresPostQuantum() {
		// A post-quantum floor expressed two ways must agree.
		return qerrors.NewPolicyError("require_post_quantum", qerrors.ErrConfigInvalid)
	}
	return nil
}

// AcceptsMode reports whether a message in the candidate mode passes
// this policy. Used by relays and receivers before any decryption work.
func (c Config) AcceptsMode(candidate mode.Mode) bool {
	if !candidate.IsValid() {
		return false
	}
	if c.RequirePostQuantum && !candidate.RequiresPostQuantum() {
		return false
	}
	return candidate >= c.MinimumMode
}

// ParseJSON decodes a configuration section and validates it.
func ParseJSON(data []byte) (Config, error) {
	var c Config
	if err := json.Unmarshal(data, &c); err != nil {
		return Config{}, qerrors.NewPolicyError("json", qerrors.ErrConfigInvalid)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// LoadFile reads a JSON configuration file and validates it.
func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	return ParseJSON(data)
}

// FromEnv builds a configuration from environment variables, starting
// from Default for any variable left unset. Call godotenv.Load (or
// equivalent) before this if a .env file should be honored.
func FromEnv() (Config, error) {
	c := Default()

	if v := os.Getenv(EnvMode); v != "" {
		m, err := mode.Parse(v)
		if err != nil {
			return Config{}, qerrors.NewPolicyError("mode", qerrors.ErrConfigInvalid)
		}
		c.Mode = m
	}
	if v := os.Getenv(EnvMinimumMode); v != "" {
		m, err := mode.Parse(v)
		if err != nil {
			return Config{}, qerrors.NewPolicyError("minimum_mode", qerrors.ErrConfigInvalid)
		}
		c.MinimumMode = m
	}

	var err error
	if c.AllowAutoUpgrade, err = envBool(EnvAllowAutoUpgrade, c.AllowAutoUpgrade); err != nil {
		return Config{}, err
	}
	if c.AdaptiveMode, err = envBool(EnvAdaptiveMode, c.AdaptiveMode); err != nil {
		return Config{}, err
	}
	if c.RequirePostQuantum, err = envBool(EnvRequirePostQuantum, c.RequirePostQuantum); err != nil {
		return Config{}, err
	}

	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func envBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, qerrors.NewPolicyError(key, qerrors.ErrConfigInvalid)
	}
	return b, nil
}
