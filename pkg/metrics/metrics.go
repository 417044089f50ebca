// Package metrics provides observability primitives for the messaging
// crypto core.
//
// The package includes:
//   - Counter and Histogram metric types with per-mode breakdowns
//   - Prometheus-compatible metrics export
//   - OpenTelemetry tracing support
//   - Structured logging with levels
//   - Health check functionality
package metrics

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/pqmsg/pqmsg-go/pkg/mode"
)

// modeCount is the number of crypto modes tracked per metric.
const modeCount = 3

// Collector aggregates metrics from the envelope send/receive path.
type Collector struct {
	// Envelope metrics, indexed by crypto mode
	envelopesCreated [modeCount]atomic.Uint64
	envelopesOpened  [modeCount]atomic.Uint64

	// Rejection metrics
	rejectedPolicy    atomic.Uint64
	rejectedExpired   atomic.Uint64
	rejectedReplay    atomic.Uint64
	rejectedSignature atomic.Uint64
	rejectedDecrypt   atomic.Uint64

	// Legacy conversion metrics
	legacyUpgrades    atomic.Uint64
	downgrades        atomic.Uint64
	downgradesRefused atomic.Uint64

	// Adaptive selector metrics
	adaptiveSelections atomic.Uint64
	adaptiveClamped    atomic.Uint64

	// Key generation metrics
	keyPairsGenerated atomic.Uint64

	// Performance histograms
	agreementLatency *Histogram
	sealLatency      *Histogram
	openLatency      *Histogram

	createdAt time.Time
	labels    Labels
}

// Labels represents key-value pairs for metric labeling.
type Labels map[string]string

// Default bucket configurations for histograms.
var (
	// AgreementLatencyBuckets for hybrid key agreement (microseconds).
	AgreementLatencyBuckets = []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000}

	// LatencyBuckets for seal/open operations (microseconds).
	LatencyBuckets = []float64{10, 25, 50, 100, 250, 500, 1000, 2500}
)

// NewCollector creates a new metrics collector.
func NewCollector(labels Labels) *Collector {
	if labels == nil {
		labels = make(Labels)
	}
	return &Collector{
		agreementLatency: NewHistogram(AgreementLatencyBuckets),
		sealLatency:      NewHistogram(LatencyBuckets),
		openLatency:      NewHistogram(LatencyBuckets),
		createdAt:        time.Now(),
		labels:           labels,
	}
}

func modeIndex(m mode.Mode) int {
	if int(m) < modeCount {
		return int(m)
	}
	return 0
}

// --- Envelope Metrics ---

// EnvelopeCreated records a successfully created envelope.
func (c *Collector) EnvelopeCreated(m mode.Mode) {
	c.envelopesCreated[modeIndex(m)].Add(1)
}

// EnvelopeOpened records a successfully decrypted and verified envelope.
func (c *Collector) EnvelopeOpened(m mode.Mode) {
	c.envelopesOpened[modeIndex(m)].Add(1)
}

// --- Rejection Metrics ---

// RejectedByPolicy records an envelope below the policy floor.
func (c *Collector) RejectedByPolicy() { c.rejectedPolicy.Add(1) }

// RejectedExpired records an envelope past its expiry.
func (c *Collector) RejectedExpired() { c.rejectedExpired.Add(1) }

// RejectedReplay records a nonce seen twice for one inbox.
func (c *Collector) RejectedReplay() { c.rejectedReplay.Add(1) }

// RejectedSignature records a hybrid signature failure.
func (c *Collector) RejectedSignature() { c.rejectedSignature.Add(1) }

// RejectedDecrypt records an AEAD or key-agreement failure.
func (c *Collector) RejectedDecrypt() { c.rejectedDecrypt.Add(1) }

// --- Legacy Conversion Metrics ---

// LegacyUpgraded records a legacy envelope lifted to the current format.
func (c *Collector) LegacyUpgraded() { c.legacyUpgrades.Add(1) }

// Downgraded records a successful downgrade to the legacy format.
func (c *Collector) Downgraded() { c.downgrades.Add(1) }

// DowngradeRefused records a refused downgrade of a post-quantum
// envelope.
func (c *Collector) DowngradeRefused() { c.downgradesRefused.Add(1) }

// --- Adaptive Selector Metrics ---

// AdaptiveSelected records one selector invocation; clamped reports
// whether the policy floor overrode the measurement preference.
func (c *Collector) AdaptiveSelected(clamped bool) {
	c.adaptiveSelections.Add(1)
	if clamped {
		c.adaptiveClamped.Add(1)
	}
}

// --- Key Generation Metrics ---

// KeyPairGenerated records one hybrid key pair produced.
func (c *Collector) KeyPairGenerated() { c.keyPairsGenerated.Add(1) }

// --- Performance Metrics ---

// RecordAgreementLatency records a hybrid key agreement duration.
func (c *Collector) RecordAgreementLatency(d time.Duration) {
	c.agreementLatency.Observe(float64(d.Microseconds()))
}

// RecordSealLatency records an envelope creation duration.
func (c *Collector) RecordSealLatency(d time.Duration) {
	c.sealLatency.Observe(float64(d.Microseconds()))
}

// RecordOpenLatency records an envelope open duration.
func (c *Collector) RecordOpenLatency(d time.Duration) {
	c.openLatency.Observe(float64(d.Microseconds()))
}

// --- Snapshot ---

// Snapshot is a point-in-time copy of all metrics.
type Snapshot struct {
	Timestamp time.Time
	Uptime    time.Duration

	// Per-mode envelope counts, keyed by mode name
	EnvelopesCreated map[string]uint64
	EnvelopesOpened  map[string]uint64

	RejectedPolicy    uint64
	RejectedExpired   uint64
	RejectedReplay    uint64
	RejectedSignature uint64
	RejectedDecrypt   uint64

	LegacyUpgrades    uint64
	Downgrades        uint64
	DowngradesRefused uint64

	AdaptiveSelections uint64
	AdaptiveClamped    uint64

	KeyPairsGenerated uint64

	AgreementLatency HistogramSummary
	SealLatency      HistogramSummary
	OpenLatency      HistogramSummary

	Labels Labels
}

// Snapshot returns a point-in-time snapshot of all metrics.
func (c *Collector) Snapshot() Snapshot {
	created := make(map[string]uint64, modeCount)
	opened := make(map[string]uint64, modeCount)
	for _, m := range mode.All() {
		created[m.String()] = c.envelopesCreated[modeIndex(m)].Load()
		opened[m.String()] = c.envelopesOpened[modeIndex(m)].Load()
	}

	return Snapshot{
		Timestamp:          time.Now(),
		Uptime:             time.Since(c.createdAt),
		EnvelopesCreated:   created,
		EnvelopesOpened:    opened,
		RejectedPolicy:     c.rejectedPolicy.Load(),
		RejectedExpired:    c.rejectedExpired.Load(),
		RejectedReplay:     c.rejectedReplay.Load(),
		RejectedSignature:  c.rejectedSignature.Load(),
		RejectedDecrypt:    c.rejectedDecrypt.Load(),
		LegacyUpgrades:     c.legacyUpgrades.Load(),
		Downgrades:         c.downgrades.Load(),
		DowngradesRefused:  c.downgradesRefused.Load(),
		AdaptiveSelections: c.adaptiveSelections.Load(),
		AdaptiveClamped:    c.adaptiveClamped.Load(),
		KeyPairsGenerated:  c.keyPairsGenerated.Load(),
		AgreementLatency:   c.agreementLatency.Summary(),
		SealLatency:        c.sealLatency.Summary(),
		OpenLatency:        c.openLatency.Summary(),
		Labels:             c.labels,
	}
}

// Reset clears all metrics (useful for testing).
func (c *Collector) Reset() {
	for i := 0; i < modeCount; i++ {
		c.envelopesCreated[i].Store(0)
		c.envelopesOpened[i].Store(0)
	}
	c.rejectedPolicy.Store(0)
	c.rejectedExpired.Store(0)
	c.rejectedReplay.Store(0)
	c.rejectedSignature.Store(0)
	c.rejectedDecrypt.Store(0)
	c.legacyUpgrades.Store(0)
	c.downgrades.Store(0)
	c.downgradesRefused.Store(0)
	c.adaptiveSelections.Store(0)
	c.adaptiveClamped.Store(0)
	c.keyPairsGenerated.Store(0)
	c.agreementLatency.Reset()
	c.sealLatency.Reset()
	c.openLatency.Reset()
	c.createdAt = time.Now()
}

// --- Global Collector ---

var (
	globalCollector     *Collector
	globalCollectorOnce sync.Once
)

// Global returns the global metrics collector, creating a default one
// on first use.
func Global() *Collector {
	globalCollectorOnce.Do(func() {
		globalCollector = NewCollector(Labels{"instance": "default"})
	})
	return globalCollector
}

// SetGlobal sets the global metrics collector. Call during
// initialization, before any metrics are recorded.
func SetGlobal(c *Collector) {
	globalCollector = c
}
