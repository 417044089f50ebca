package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/pqmsg/pqmsg-go/pkg/crypto"
	pkgversion "github.com/pqmsg/pqmsg-go/pkg/version"
)

// Build-time variables (set via -ldflags)
var (
	version   = ""        // Set via -ldflags "-X main.version=x.y.z"
	buildTime = "unknown" // Set via -ldflags "-X main.buildTime=..."
	gitCommit = "unknown" // Set via -ldflags "-X main.gitCommit=..."
)

func getVersion() string {
	if version != "" {
		return version
	}
	return pkgversion.String()
}

func main() {
	// Pick up PQMSG_* settings from a .env file if one exists.
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch command := os.Args[1]; command {
	case "demo":
		demoCommand()
	case "bench":
		benchCommand()
	case "selftest":
		selftestCommand()
	case "version":
		fmt.Printf("pqmsg version %s\n", getVersion())
		if buildTime != "unknown" {
			fmt.Printf("Built: %s\n", buildTime)
		}
		if gitCommit != "unknown" {
			fmt.Printf("Commit: %s\n", gitCommit)
		}
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`pqmsg - Quantum-Safe Messaging Crypto Demo & Benchmark Tool

USAGE:
    pqmsg <command> [options]

COMMANDS:
    demo      Run an end-to-end seal/open demonstration
    bench     Run performance benchmarks per crypto mode
    selftest  Run the cryptographic self-test suite
    version   Print version information
    help      Show this help message

Run 'pqmsg <command> --help' for more information on a command.

EXAMPLES:
    # Hybrid-mode round trip between two local identities
    pqmsg demo --mode hybrid

    # Quantum mode with the ChaCha20-Poly1305 suite
    pqmsg demo --mode quantum --cipher chacha20

    # Compare agreement and envelope cost across modes
    pqmsg bench --iterations 50

CONFIGURATION:
    PQMSG_MODE, PQMSG_MINIMUM_MODE, PQMSG_ALLOW_AUTO_UPGRADE,
    PQMSG_ADAPTIVE_MODE (also read from a .env file in the working
    directory).

PROJECT:
    PQMsg - Hybrid Post-Quantum Messaging Crypto Core
    Security: ML-KEM-1024 + X25519 agreement, ML-DSA-87 + Ed25519
    signatures. Secure if EITHER family of primitives holds.`)
}

func demoCommand() {
	fs := flag.NewFlagSet("demo", flag.ExitOnError)
	modeStr := fs.String("mode", "hybrid", "Crypto mode: classical, hybrid, or quantum")
	minStr := fs.String("minimum-mode", "classical", "Policy floor for both parties")
	message := fs.String("message", "Hello from pqmsg!", "Message payload")
	cipher := fs.String("cipher", "aes-gcm", "Cipher suite: aes-gcm or chacha20")
	adaptive := fs.Bool("adaptive", false, "Let the adaptive selector pick the mode")
	logLevel := fs.String("log-level", "info", "Log level: debug, info, warn, error, silent")
	logFormat := fs.String("log-format", "text", "Log format: text or json")
	obsAddr := fs.String("obs-addr", "", "Observability server address (e.g. :9090), empty to disable")
	tracing := fs.String("tracing", "none", "Tracing mode: none, recording, or otel")

	fs.Usage = func() {
		fmt.Println(`USAGE: pqmsg demo [options]

Run an end-to-end demonstration: generate two identities, publish them
in a directory, resolve the send mode against policy, seal an envelope,
and open it on the receiving side.

OPTIONS:`)
		fs.PrintDefaults()
		fmt.Println(`
EXAMPLES:
    # Classical-only round trip
    pqmsg demo --mode classical

    # Hybrid with adaptive selection under simulated constrained network
    pqmsg demo --adaptive --minimum-mode hybrid`)
	}

	_ = fs.Parse(os.Args[2:])

	runDemo(demoOptions{
		mode:      *modeStr,
		minMode:   *minStr,
		message:   *message,
		cipher:    *cipher,
		adaptive:  *adaptive,
		logLevel:  *logLevel,
		logFormat: *logFormat,
		obsAddr:   *obsAddr,
		tracing:   *tracing,
	})
}

func selftestCommand() {
	fmt.Println("Running cryptographic self-tests...")
	result := crypto.RunSelfTest()

	report := func(name string, ok bool) {
		status := "ok"
		if !ok {
			status = "FAILED"
		}
		fmt.Printf("  %-12s %s\n", name, status)
	}
	report("kdf", result.KDFPassed)
	report("aead", result.AEADPassed)
	report("ml-kem", result.KEMPassed)
	report("signatures", result.SignPassed)
	report("x25519", result.AgreePassed)

	if !result.Passed {
		for _, e := range result.Errors {
			fmt.Fprintf(os.Stderr, "error: %s\n", e)
		}
		os.Exit(1)
	}
	fmt.Println("All self-tests passed.")
}

func benchCommand() {
	fs := flag.NewFlagSet("bench", flag.ExitOnError)
	iterations := fs.Int("iterations", 20, "Iterations per benchmark")
	cipher := fs.String("cipher", "aes-gcm", "Cipher suite: aes-gcm or chacha20")
	payloadSize := fs.Int("payload", 1024, "Payload size in bytes")

	fs.Usage = func() {
		fmt.Println(`USAGE: pqmsg bench [options]

Benchmark key generation, hybrid key agreement, and envelope seal/open
for each crypto mode, and report measured cost multipliers relative to
classical.

OPTIONS:`)
		fs.PrintDefaults()
	}

	_ = fs.Parse(os.Args[2:])

	runBench(*iterations, *cipher, *payloadSize)
}
