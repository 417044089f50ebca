package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pqmsg/pqmsg-go/internal/constants"
	"github.com/pqmsg/pqmsg-go/pkg/adaptive"
	"github.com/pqmsg/pqmsg-go/pkg/envelope"
	"github.com/pqmsg/pqmsg-go/pkg/hybrid"
	"github.com/pqmsg/pqmsg-go/pkg/mode"
	"github.com/pqmsg/pqmsg-go/pkg/policy"
)

func runBench(iterations int, cipher string, payloadSize int) {
	fmt.Println("╔═══════════════════════════════════════════════════════════╗")
	fmt.Println("║      PQMsg Crypto Benchmark                              ║")
	fmt.Println("║      Agreement: ML-KEM-1024 + X25519                     ║")
	fmt.Println("║      Signatures: ML-DSA-87 + Ed25519                     ║")
	fmt.Println("╚═══════════════════════════════════════════════════════════╝")
	fmt.Println()

	if iterations <= 0 {
		fmt.Println("No iterations specified. Use --iterations N")
		fmt.Println("Run 'pqmsg bench --help' for usage")
		os.Exit(1)
	}

	suite, err := parseCipherSuite(cipher)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Iterations: %d, payload: %d bytes, cipher: %s\n\n", iterations, payloadSize, suite)

	benchKeygen(iterations)
	fmt.Println()

	classicalAvg := time.Duration(0)
	for _, m := range []mode.Mode{mode.Classical, mode.Hybrid, mode.Quantum} {
		avg := benchRoundTrip(m, iterations, payloadSize, suite)
		if m == mode.Classical {
			classicalAvg = avg
		} else if classicalAvg > 0 {
			fmt.Printf("  measured cost vs classical: x%.2f (model: x%.1f)\n",
				float64(avg)/float64(classicalAvg), adaptive.CostMultiplier(m))
		}
		fmt.Println()
	}
}

func benchKeygen(count int) {
	fmt.Printf("Benchmarking hybrid key generation (%d iterations)\n", count)
	fmt.Println(strings.Repeat("─", 60))

	durations := make([]time.Duration, 0, count)
	for i := 0; i < count; i++ {
		start := time.Now()
		kp, err := hybrid.GenerateKeyPair()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: keygen: %v\n", err)
			os.Exit(1)
		}
		durations = append(durations, time.Since(start))
		kp.Zeroize()

		printProgress(i, count)
	}
	fmt.Println()

	printStats("keygen", durations)
}

// benchRoundTrip times a full seal and open for one crypto mode and
// returns the average seal duration for cost comparison.
func benchRoundTrip(m mode.Mode, count, payloadSize int, suite constants.CipherSuite) time.Duration {
	fmt.Printf("Benchmarking %s seal/open (%d iterations)\n", m, count)
	fmt.Println(strings.Repeat("─", 60))

	sender, err := hybrid.GenerateKeyPair()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: keygen: %v\n", err)
		os.Exit(1)
	}
	defer sender.Zeroize()

	recipient, err := hybrid.GenerateKeyPair()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: keygen: %v\n", err)
		os.Exit(1)
	}
	defer recipient.Zeroize()

	cfg := policy.Config{Mode: m, MinimumMode: mode.Classical, AllowAutoUpgrade: true}
	handlerCfg := envelope.HandlerConfig{Suite: suite, TTL: time.Hour}

	sendHandler, err := envelope.NewHandler(sender, cfg, handlerCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	recvHandler, err := envelope.NewHandler(recipient, cfg, handlerCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	payload := make([]byte, payloadSize)
	for i := range payload {
		payload[i] = byte(i)
	}

	sealDurations := make([]time.Duration, 0, count)
	openDurations := make([]time.Duration, 0, count)

	for i := 0; i < count; i++ {
		start := time.Now()
		env, err := sendHandler.Create(m, "bench-inbox", payload, recipient.Bundle())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: seal: %v\n", err)
			os.Exit(1)
		}
		sealDurations = append(sealDurations, time.Since(start))

		start = time.Now()
		if _, err := recvHandler.DecryptAndVerify(env, sender.Bundle()); err != nil {
			fmt.Fprintf(os.Stderr, "Error: open: %v\n", err)
			os.Exit(1)
		}
		openDurations = append(openDurations, time.Since(start))

		printProgress(i, count)
	}
	fmt.Println()

	printStats("seal", sealDurations)
	printStats("open", openDurations)

	return avgDuration(sealDurations)
}

func printProgress(i, count int) {
	// Progress indicator every 10% (or every iteration if count < 10)
	step := count / 10
	if step == 0 {
		step = 1
	}
	if (i+1)%step == 0 || i == count-1 {
		fmt.Printf("Progress: %d/%d (%.0f%%)\r", i+1, count, float64(i+1)/float64(count)*100)
	}
}

func printStats(name string, durations []time.Duration) {
	if len(durations) == 0 {
		return
	}

	var sum time.Duration
	min, max := durations[0], durations[0]
	for _, d := range durations {
		sum += d
		if d < min {
			min = d
		}
		if d > max {
			max = d
		}
	}
	avg := sum / time.Duration(len(durations))

	fmt.Printf("  %-8s min=%-12v avg=%-12v max=%-12v rate=%.1f/s\n",
		name,
		min.Round(time.Microsecond),
		avg.Round(time.Microsecond),
		max.Round(time.Microsecond),
		float64(time.Second)/float64(avg))
}

func avgDuration(durations []time.Duration) time.Duration {
	if len(durations) == 0 {
		return 0
	}
	var sum time.Duration
	for _, d := range durations {
		sum += d
	}
	return sum / time.Duration(len(durations))
}
