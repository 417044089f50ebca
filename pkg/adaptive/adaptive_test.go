package adaptive_test

import (
	"testing"

	"github.com/pqmsg/pqmsg-go/pkg/adaptive"
	"github.com/pqmsg/pqmsg-go/pkg/mode"
	"github.com/pqmsg/pqmsg-go/pkg/policy"
)

func goodNetwork() adaptive.NetworkMeasurement {
	return adaptive.NetworkMeasurement{
		BandwidthKbps:  10000,
		LatencyMs:      20,
		PacketLossPct:  0,
		StabilityScore: 0.95,
	}
}

func goodDevice() adaptive.DeviceMeasurement {
	return adaptive.DeviceMeasurement{BatteryPct: 100}
}

func worstNetwork() adaptive.NetworkMeasurement {
	return adaptive.NetworkMeasurement{
		BandwidthKbps:  0,
		LatencyMs:      5000,
		PacketLossPct:  50,
		StabilityScore: 0,
		Metered:        true,
	}
}

func worstDevice() adaptive.DeviceMeasurement {
	return adaptive.DeviceMeasurement{
		BatteryPct:      0,
		OnBattery:       true,
		ThermalPressure: true,
		CPULoadPct:      100,
	}
}

func adaptiveConfig(floor mode.Mode) policy.Config {
	return policy.Config{
		Mode:             mode.Quantum,
		MinimumMode:      floor,
		AllowAutoUpgrade: true,
		AdaptiveMode:     true,
	}
}

func TestSelectGoodConditions(t *testing.T) {
	rec := adaptive.Select(goodNetwork(), goodDevice(), adaptiveConfig(mode.Classical))
	if rec.Mode != mode.Quantum {
		t.Errorf("Mode = %v, want Quantum under ideal conditions", rec.Mode)
	}
	if rec.Rationale != adaptive.RationaleGoodConditions {
		t.Errorf("Rationale = %q", rec.Rationale)
	}
}

func TestSelectConstrainedConditions(t *testing.T) {
	rec := adaptive.Select(worstNetwork(), worstDevice(), adaptiveConfig(mode.Classical))
	if rec.Mode != mode.Classical {
		t.Errorf("Mode = %v, want Classical under worst-case conditions", rec.Mode)
	}
	if rec.CostMultiplier != 1.0 {
		t.Errorf("CostMultiplier = %v, want 1.0", rec.CostMultiplier)
	}
}

func TestSelectNeverBelowFloor(t *testing.T) {
	// The floor must hold for every input, including worst case.
	networks := []adaptive.NetworkMeasurement{goodNetwork(), worstNetwork(), {}}
	devices := []adaptive.DeviceMeasurement{goodDevice(), worstDevice(), {}}

	for _, floor := range mode.All() {
		for _, net := range networks {
			for _, dev := range devices {
				rec := adaptive.Select(net, dev, adaptiveConfig(floor))
				if rec.Mode < floor {
					t.Errorf("Select with floor %v returned %v for net=%+v dev=%+v",
						floor, rec.Mode, net, dev)
				}
			}
		}
	}
}

func TestSelectPolicyForcedRationale(t *testing.T) {
	rec := adaptive.Select(worstNetwork(), worstDevice(), adaptiveConfig(mode.Hybrid))
	if rec.Mode != mode.Hybrid {
		t.Fatalf("Mode = %v, want Hybrid (clamped)", rec.Mode)
	}
	if rec.Rationale != adaptive.RationalePolicyForced {
		t.Errorf("clamped choice must record the policy override, got %q", rec.Rationale)
	}
}

func TestSelectAdaptiveDisabled(t *testing.T) {
	cfg := policy.Config{Mode: mode.Hybrid, MinimumMode: mode.Classical}
	rec := adaptive.Select(worstNetwork(), worstDevice(), cfg)
	if rec.Mode != mode.Hybrid {
		t.Errorf("Mode = %v, want configured Hybrid when adaptive is off", rec.Mode)
	}
	if rec.Rationale != adaptive.RationaleAdaptiveOff {
		t.Errorf("Rationale = %q", rec.Rationale)
	}
}

func TestSelectRespectsUpgradePermission(t *testing.T) {
	cfg := policy.Config{
		Mode:         mode.Hybrid,
		MinimumMode:  mode.Classical,
		AdaptiveMode: true,
	}
	rec := adaptive.Select(goodNetwork(), goodDevice(), cfg)
	if rec.Mode != mode.Hybrid {
		t.Errorf("Mode = %v, want Hybrid when auto-upgrade is off", rec.Mode)
	}
	if rec.Rationale != adaptive.RationaleUpgradeDisabled {
		t.Errorf("Rationale = %q", rec.Rationale)
	}
}

func TestCostMultiplierOrdering(t *testing.T) {
	classical := adaptive.CostMultiplier(mode.Classical)
	hybrid := adaptive.CostMultiplier(mode.Hybrid)
	quantum := adaptive.CostMultiplier(mode.Quantum)

	if classical != 1.0 {
		t.Errorf("classical multiplier = %v, want 1.0", classical)
	}
	if !(classical < hybrid && hybrid < quantum) {
		t.Errorf("multipliers not monotonic: %v %v %v", classical, hybrid, quantum)
	}
}
