package main

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/pqmsg/pqmsg-go/internal/constants"
	"github.com/pqmsg/pqmsg-go/pkg/adaptive"
	"github.com/pqmsg/pqmsg-go/pkg/directory"
	"github.com/pqmsg/pqmsg-go/pkg/envelope"
	"github.com/pqmsg/pqmsg-go/pkg/hybrid"
	"github.com/pqmsg/pqmsg-go/pkg/keygen"
	"github.com/pqmsg/pqmsg-go/pkg/metrics"
	"github.com/pqmsg/pqmsg-go/pkg/mode"
	"github.com/pqmsg/pqmsg-go/pkg/policy"
)

type demoOptions struct {
	mode      string
	minMode   string
	message   string
	cipher    string
	adaptive  bool
	logLevel  string
	logFormat string
	obsAddr   string
	tracing   string
}

func runDemo(opts demoOptions) {
	collector, logger, err := setupObservability(opts.logLevel, opts.logFormat, opts.tracing)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("╔═══════════════════════════════════════════════════════════╗")
	fmt.Println("║      PQMsg Quantum-Safe Messaging Demo                   ║")
	fmt.Println("║      Agreement: ML-KEM-1024 + X25519                     ║")
	fmt.Println("║      Signatures: ML-DSA-87 + Ed25519                     ║")
	fmt.Println("╚═══════════════════════════════════════════════════════════╝")
	fmt.Println()

	suite, err := parseCipherSuite(opts.cipher)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	cfg, err := demoPolicy(opts.mode, opts.minMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Policy: mode=%s minimum=%s auto-upgrade=%v adaptive=%v\n",
		cfg.Mode, cfg.MinimumMode, cfg.AllowAutoUpgrade, opts.adaptive)
	fmt.Printf("Cipher suite: %s\n", suite)
	fmt.Println()

	if opts.obsAddr != "" {
		server := metrics.NewServer(metrics.ServerConfig{
			Collector:        collector,
			Version:          getVersion(),
			Namespace:        "pqmsg",
			EnablePrometheus: true,
			EnableHealth:     true,
		})
		go func() {
			if err := server.ListenAndServe(opts.obsAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("observability server error", metrics.Fields{"error": err.Error()})
			}
		}()
		fmt.Printf("✓ Observability server on %s (metrics: /metrics, health: /health)\n\n", opts.obsAddr)
	}

	// Pre-generate identity keys through the pool, the way a message
	// service would to keep sends off the keygen critical path.
	pool := keygen.NewPool(keygen.PoolConfig{Workers: 2, Buffer: 2})
	if err := pool.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: keygen pool: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	fmt.Println("Generating hybrid identities for alice and bob...")
	start := time.Now()
	aliceKeys, err := pool.Get(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	bobKeys, err := pool.Get(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer aliceKeys.Zeroize()
	defer bobKeys.Zeroize()
	collector.KeyPairGenerated()
	collector.KeyPairGenerated()
	fmt.Printf("✓ Identities ready in %v\n", time.Since(start).Round(time.Millisecond))
	fmt.Printf("  alice fingerprint: %s...\n", hex.EncodeToString(aliceKeys.Bundle().Fingerprint()[:8]))
	fmt.Printf("  bob fingerprint:   %s...\n", hex.EncodeToString(bobKeys.Bundle().Fingerprint()[:8]))
	fmt.Println()

	// Publish both parties in a directory and resolve bob before
	// sending, as a real client would.
	dir := directory.NewStaticResolver()
	mustRegister(dir, "alice-inbox", aliceKeys, cfg.Mode)
	mustRegister(dir, "bob-inbox", bobKeys, cfg.Mode)

	entry, err := dir.Resolve(ctx, "bob-inbox")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: directory lookup: %v\n", err)
		os.Exit(1)
	}

	sendMode, err := policy.ResolveSendMode(cfg, entry.MaxMode)
	if err != nil {
		collector.RejectedByPolicy()
		fmt.Fprintf(os.Stderr, "Error: mode negotiation: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Negotiated send mode: %s (peer supports up to %s)\n", sendMode, entry.MaxMode)

	if opts.adaptive {
		rec := adaptive.Select(demoNetwork(), demoDevice(), cfg)
		collector.AdaptiveSelected(rec.Rationale == adaptive.RationalePolicyForced)
		fmt.Printf("Adaptive recommendation: %s (%s, cost x%.1f)\n", rec.Mode, rec.Rationale, rec.CostMultiplier)
		// Adopt the recommendation only if the peer still supports it.
		if rec.Mode.CanTransitionTo(sendMode) {
			sendMode = rec.Mode
		}
	}
	fmt.Println()

	handlerCfg := envelope.HandlerConfig{Suite: suite, TTL: 10 * time.Minute}

	aliceHandler, err := envelope.NewHandler(aliceKeys, cfg, handlerCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	bobHandler, err := envelope.NewHandler(bobKeys, cfg, handlerCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	go bobHandler.Guard().Run(ctx)

	// Seal on alice's side.
	fmt.Printf("Sealing %d-byte message for bob-inbox...\n", len(opts.message))
	start = time.Now()
	env, err := aliceHandler.Create(sendMode, "bob-inbox", []byte(opts.message), entry.Bundle)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: seal: %v\n", err)
		os.Exit(1)
	}
	sealDur := time.Since(start)
	collector.EnvelopeCreated(sendMode)
	collector.RecordSealLatency(sealDur)

	wire, err := env.Marshal()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: marshal: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("✓ Sealed in %v (%d bytes on the wire)\n", sealDur.Round(time.Microsecond), len(wire))
	fmt.Printf("  version=%s mode=%s nonce=%s\n", env.Version, env.CryptoMode, env.Nonce)
	if len(env.PQCiphertext) > 0 {
		fmt.Printf("  pq_ciphertext=%d bytes  pq_signature=%d bytes\n", len(env.PQCiphertext), len(env.PQSignature))
	} else {
		fmt.Println("  classical envelope, no post-quantum components")
	}
	fmt.Println()

	// Cross the wire and open on bob's side.
	received, err := envelope.Unmarshal(wire)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: unmarshal: %v\n", err)
		os.Exit(1)
	}

	start = time.Now()
	plaintext, err := bobHandler.DecryptAndVerify(received, aliceKeys.Bundle())
	if err != nil {
		collector.RejectedDecrypt()
		fmt.Fprintf(os.Stderr, "Error: open: %v\n", err)
		os.Exit(1)
	}
	openDur := time.Since(start)
	collector.EnvelopeOpened(received.CryptoMode)
	collector.RecordOpenLatency(openDur)
	fmt.Printf("✓ Opened in %v\n", openDur.Round(time.Microsecond))
	fmt.Printf("  bob read: %q\n", string(plaintext))
	fmt.Println()

	// A second delivery of the same wire bytes must be rejected.
	replayed, _ := envelope.Unmarshal(wire)
	if _, err := bobHandler.DecryptAndVerify(replayed, aliceKeys.Bundle()); err != nil {
		collector.RejectedReplay()
		fmt.Printf("✓ Replay correctly rejected: %v\n", err)
	} else {
		fmt.Println("✗ Replay was NOT rejected")
		os.Exit(1)
	}
	fmt.Println()

	demoLegacyBridge(collector)

	snap := collector.Snapshot()
	logger.Info("demo complete", metrics.Fields{
		"mode":              sendMode.String(),
		"envelopes_created": snap.EnvelopesCreated[sendMode.String()],
		"replays_blocked":   snap.RejectedReplay,
	})
	fmt.Println("Demo complete.")
}

// demoLegacyBridge shows the version bridge: an old-format envelope is
// upgraded for the new pipeline, and a classical envelope can be
// downgraded for an old peer.
func demoLegacyBridge(collector *metrics.Collector) {
	fmt.Println("Legacy bridge:")
	legacy := &envelope.LegacyEnvelope{
		Version: constants.LegacyEnvelopeVersion,
		InboxID: "bob-inbox",
		Payload: []byte("pre-upgrade payload"),
		Nonce:   "AAAAAAAAAAAAAAAA",
		Expiry:  time.Now().Add(time.Hour).Unix(),
	}

	upgraded, err := envelope.UpgradeLegacy(legacy)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: upgrade: %v\n", err)
		os.Exit(1)
	}
	collector.LegacyUpgraded()
	fmt.Printf("  %s envelope upgraded to %s (mode=%s, legacy_compat=%v)\n",
		constants.LegacyEnvelopeVersion, upgraded.Version, upgraded.CryptoMode, *upgraded.LegacyCompat)

	downgraded, err := envelope.DowngradeToLegacy(upgraded)
	if err != nil {
		collector.DowngradeRefused()
		fmt.Fprintf(os.Stderr, "Error: downgrade: %v\n", err)
		os.Exit(1)
	}
	collector.Downgraded()
	fmt.Printf("  round-tripped back to %s for an old peer (payload intact: %v)\n",
		downgraded.Version, string(downgraded.Payload) == "pre-upgrade payload")
	fmt.Println()
}

func demoPolicy(modeStr, minStr string) (policy.Config, error) {
	// Environment (and .env) settings are the baseline; flags override.
	cfg, err := policy.FromEnv()
	if err != nil {
		return policy.Config{}, err
	}

	m, err := mode.Parse(modeStr)
	if err != nil {
		return policy.Config{}, fmt.Errorf("invalid --mode: %w", err)
	}
	cfg.Mode = m

	floor, err := mode.Parse(minStr)
	if err != nil {
		return policy.Config{}, fmt.Errorf("invalid --minimum-mode: %w", err)
	}
	cfg.MinimumMode = floor

	if err := cfg.Validate(); err != nil {
		return policy.Config{}, err
	}
	return cfg, nil
}

func mustRegister(dir *directory.StaticResolver, inboxID string, keys *hybrid.KeyPair, maxMode mode.Mode) {
	err := dir.Register(&directory.Entry{
		InboxID: inboxID,
		Bundle:  keys.Bundle(),
		MaxMode: maxMode,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: register %s: %v\n", inboxID, err)
		os.Exit(1)
	}
}

func parseCipherSuite(s string) (constants.CipherSuite, error) {
	switch strings.ToLower(s) {
	case "aes-gcm", "aes", "aes256gcm":
		return constants.CipherSuiteAES256GCM, nil
	case "chacha20", "chacha20-poly1305":
		return constants.CipherSuiteChaCha20Poly1305, nil
	default:
		return 0, fmt.Errorf("unknown cipher suite: %s (use aes-gcm or chacha20)", s)
	}
}

// demoNetwork simulates a healthy unmetered link for the adaptive
// selector.
func demoNetwork() adaptive.NetworkMeasurement {
	return adaptive.NetworkMeasurement{
		BandwidthKbps:  50000,
		LatencyMs:      20,
		PacketLossPct:  0,
		StabilityScore: 0.95,
		Metered:        false,
	}
}

func demoDevice() adaptive.DeviceMeasurement {
	return adaptive.DeviceMeasurement{
		BatteryPct:      90,
		OnBattery:       false,
		ThermalPressure: false,
		CPULoadPct:      25,
	}
}

func setupObservability(logLevel, logFormat, tracing string) (*metrics.Collector, *metrics.Logger, error) {
	level := metrics.ParseLevel(logLevel)

	var format metrics.Format
	switch strings.ToLower(logFormat) {
	case "text":
		format = metrics.FormatText
	case "json":
		format = metrics.FormatJSON
	default:
		return nil, nil, fmt.Errorf("invalid log format: %s (use text or json)", logFormat)
	}

	logger := metrics.NewLogger(
		metrics.WithOutput(os.Stderr),
		metrics.WithLevel(level),
		metrics.WithFormat(format),
		metrics.WithFields(metrics.Fields{"app": "pqmsg"}),
	)
	metrics.SetLogger(logger)

	switch strings.ToLower(tracing) {
	case "none":
		metrics.SetTracer(metrics.NoOpTracer{})
	case "recording":
		metrics.SetTracer(metrics.NewRecordingTracer())
	case "otel":
		if !metrics.OTelEnabled() {
			return nil, nil, fmt.Errorf("otel tracing not enabled (build with -tags otel)")
		}
		metrics.SetTracer(metrics.NewOTelTracer("pqmsg"))
	default:
		return nil, nil, fmt.Errorf("invalid tracing mode: %s (use none, recording, or otel)", tracing)
	}

	collector := metrics.NewCollector(metrics.Labels{"service": "pqmsg"})
	metrics.SetGlobal(collector)

	return collector, logger, nil
}
