// Package adaptive recommends a crypto mode from live network and
// device measurements, without ever selecting below the policy floor.
//
// Selection is a stateless function of its inputs. Recommendations are
// recomputed per send; callers must not cache one across sends with
// stale measurements.
package adaptive

import (
	"github.com/pqmsg/pqmsg-go/pkg/mode"
	"github.com/pqmsg/pqmsg-go/pkg/policy"
)

// Rationale strings recorded on a Recommendation.
const (
	RationaleGoodConditions  = "network and device conditions support full post-quantum crypto"
	RationaleModerateLoad    = "constrained conditions, hybrid retains post-quantum protection at lower cost"
	RationaleConstrained     = "severely constrained network or device, classical preferred for cost"
	RationalePolicyForced    = "measurements preferred a lower mode, raised to the policy minimum"
	RationaleAdaptiveOff     = "adaptive selection disabled, using configured mode"
	RationaleUpgradeDisabled = "measurements preferred a higher mode, auto-upgrade disabled"
)

// NetworkMeasurement is a snapshot of link conditions at send time.
type NetworkMeasurement struct {
	BandwidthKbps  float64
	LatencyMs      float64
	PacketLossPct  float64
	StabilityScore float64 // 0.0 (flapping) to 1.0 (stable)
	Metered        bool
}

// DeviceMeasurement is a snapshot of local device conditions.
type DeviceMeasurement struct {
	BatteryPct      float64
	OnBattery       bool
	ThermalPressure bool
	CPULoadPct      float64
}

// Recommendation is the selector output for one send.
type Recommendation struct {
	Mode mode.Mode

	// Rationale records why this mode was chosen, including whether
	// the policy floor overrode the measurement-driven preference.
	Rationale string

	// CostMultiplier estimates the relative time and bandwidth
	// overhead of the recommended mode versus classical crypto.
	CostMultiplier float64
}

// CostMultiplier returns the relative overhead of a mode versus
// classical. Hybrid pays for an ML-KEM ciphertext and an ML-DSA
// signature on top of the classical exchange; quantum adds stricter
// validation on the same primitives.
func CostMultiplier(m mode.Mode) float64 {
	switch m {
	case mode.Hybrid:
		return 2.5
	case mode.Quantum:
		return 3.2
	default:
		return 1.0
	}
}

// Select recommends a mode for one send.
//
// A raw preference is computed from the measurements, then clamped to
// the policy floor: the selector chooses among permitted modes only,
// and a clamp is recorded in the rationale so operators can tell a
// policy-forced choice from a measurement-driven one. When the config
// has adaptive selection disabled, the configured mode is returned
// unchanged.
func Select(net NetworkMeasurement, dev DeviceMeasurement, cfg policy.Config) Recommendation {
	if !cfg.AdaptiveMode {
		return Recommendation{
			Mode:           cfg.Mode,
			Rationale:      RationaleAdaptiveOff,
			CostMultiplier: CostMultiplier(cfg.Mode),
		}
	}

	preferred, rationale := rawPreference(net, dev)

	// Clamp to the floor. The floor wins over any measurement.
	if preferred < cfg.MinimumMode {
		return Recommendation{
			Mode:           cfg.MinimumMode,
			Rationale:      RationalePolicyForced,
			CostMultiplier: CostMultiplier(cfg.MinimumMode),
		}
	}

	// A preference above the configured mode is an upgrade and needs
	// the same permission as any other upgrade.
	if preferred > cfg.Mode && !cfg.AllowAutoUpgrade {
		return Recommendation{
			Mode:           cfg.Mode,
			Rationale:      RationaleUpgradeDisabled,
			CostMultiplier: CostMultiplier(cfg.Mode),
		}
	}

	return Recommendation{
		Mode:           preferred,
		Rationale:      rationale,
		CostMultiplier: CostMultiplier(preferred),
	}
}

// rawPreference scores the measurements into an unclamped mode choice.
func rawPreference(net NetworkMeasurement, dev DeviceMeasurement) (mode.Mode, string) {
	score := 0

	if net.BandwidthKbps >= 1000 {
		score += 2
	} else if net.BandwidthKbps >= 256 {
		score++
	}
	if net.LatencyMs > 0 && net.LatencyMs <= 150 {
		score++
	}
	if net.PacketLossPct <= 1.0 {
		score++
	}
	if net.StabilityScore >= 0.8 {
		score++
	}
	if net.Metered {
		score -= 2
	}

	if dev.OnBattery && dev.BatteryPct < 20 {
		score -= 2
	}
	if dev.ThermalPressure {
		score -= 2
	}
	if dev.CPULoadPct >= 90 {
		score--
	}

	switch {
	case score >= 5:
		return mode.Quantum, RationaleGoodConditions
	case score >= 2:
		return mode.Hybrid, RationaleModerateLoad
	default:
		return mode.Classical, RationaleConstrained
	}
}
