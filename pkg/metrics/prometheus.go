package metrics

import (
	"fmt"
	"io"
	"math"
	"net/http"
	"sort"
	"strings"
)

// PrometheusExporter exports collector metrics in Prometheus text
// format.
type PrometheusExporter struct {
	collector *Collector
	namespace string
}

// NewPrometheusExporter creates an exporter for the given collector.
// The namespace is prepended to all metric names (e.g., "pqmsg").
func NewPrometheusExporter(c *Collector, namespace string) *PrometheusExporter {
	return &PrometheusExporter{
		collector: c,
		namespace: namespace,
	}
}

// Handler returns an http.Handler serving the metrics endpoint.
func (e *PrometheusExporter) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		e.WriteMetrics(w)
	})
}

// WriteMetrics writes all metrics in Prometheus text format.
func (e *PrometheusExporter) WriteMetrics(w io.Writer) {
	snap := e.collector.Snapshot()
	labels := e.formatLabels(snap.Labels)

	// Per-mode envelope counters carry a crypto_mode label.
	e.writeHelp(w, "envelopes_created_total", "Total envelopes created, by crypto mode")
	e.writeType(w, "envelopes_created_total", "counter")
	e.writePerMode(w, "envelopes_created_total", labels, snap.EnvelopesCreated)

	e.writeHelp(w, "envelopes_opened_total", "Total envelopes decrypted and verified, by crypto mode")
	e.writeType(w, "envelopes_opened_total", "counter")
	e.writePerMode(w, "envelopes_opened_total", labels, snap.EnvelopesOpened)

	e.writeHelp(w, "rejected_policy_total", "Total envelopes rejected below the policy floor")
	e.writeType(w, "rejected_policy_total", "counter")
	e.writeMetric(w, "rejected_policy_total", labels, float64(snap.RejectedPolicy))

	e.writeHelp(w, "rejected_expired_total", "Total envelopes rejected past expiry")
	e.writeType(w, "rejected_expired_total", "counter")
	e.writeMetric(w, "rejected_expired_total", labels, float64(snap.RejectedExpired))

	e.writeHelp(w, "rejected_replay_total", "Total envelopes rejected as replays")
	e.writeType(w, "rejected_replay_total", "counter")
	e.writeMetric(w, "rejected_replay_total", labels, float64(snap.RejectedReplay))

	e.writeHelp(w, "rejected_signature_total", "Total envelopes with invalid hybrid signatures")
	e.writeType(w, "rejected_signature_total", "counter")
	e.writeMetric(w, "rejected_signature_total", labels, float64(snap.RejectedSignature))

	e.writeHelp(w, "rejected_decrypt_total", "Total envelopes that failed key agreement or decryption")
	e.writeType(w, "rejected_decrypt_total", "counter")
	e.writeMetric(w, "rejected_decrypt_total", labels, float64(snap.RejectedDecrypt))

	e.writeHelp(w, "legacy_upgrades_total", "Total legacy envelopes upgraded")
	e.writeType(w, "legacy_upgrades_total", "counter")
	e.writeMetric(w, "legacy_upgrades_total", labels, float64(snap.LegacyUpgrades))

	e.writeHelp(w, "downgrades_total", "Total envelopes downgraded to the legacy format")
	e.writeType(w, "downgrades_total", "counter")
	e.writeMetric(w, "downgrades_total", labels, float64(snap.Downgrades))

	e.writeHelp(w, "downgrades_refused_total", "Total refused downgrades of post-quantum envelopes")
	e.writeType(w, "downgrades_refused_total", "counter")
	e.writeMetric(w, "downgrades_refused_total", labels, float64(snap.DowngradesRefused))

	e.writeHelp(w, "adaptive_selections_total", "Total adaptive mode selections")
	e.writeType(w, "adaptive_selections_total", "counter")
	e.writeMetric(w, "adaptive_selections_total", labels, float64(snap.AdaptiveSelections))

	e.writeHelp(w, "adaptive_clamped_total", "Total selections raised to the policy floor")
	e.writeType(w, "adaptive_clamped_total", "counter")
	e.writeMetric(w, "adaptive_clamped_total", labels, float64(snap.AdaptiveClamped))

	e.writeHelp(w, "keypairs_generated_total", "Total hybrid key pairs generated")
	e.writeType(w, "keypairs_generated_total", "counter")
	e.writeMetric(w, "keypairs_generated_total", labels, float64(snap.KeyPairsGenerated))

	e.writeHelp(w, "uptime_seconds", "Time since the collector was created")
	e.writeType(w, "uptime_seconds", "gauge")
	e.writeMetric(w, "uptime_seconds", labels, snap.Uptime.Seconds())

	e.writeHistogram(w, "agreement_duration_microseconds", "Hybrid key agreement duration in microseconds", labels, snap.AgreementLatency)
	e.writeHistogram(w, "seal_duration_microseconds", "Envelope creation duration in microseconds", labels, snap.SealLatency)
	e.writeHistogram(w, "open_duration_microseconds", "Envelope open duration in microseconds", labels, snap.OpenLatency)
}

func (e *PrometheusExporter) writeHelp(w io.Writer, name, help string) {
	fmt.Fprintf(w, "# HELP %s_%s %s\n", e.namespace, name, help)
}

func (e *PrometheusExporter) writeType(w io.Writer, name, typ string) {
	fmt.Fprintf(w, "# TYPE %s_%s %s\n", e.namespace, name, typ)
}

func (e *PrometheusExporter) writeMetric(w io.Writer, name, labels string, value float64) {
	if labels != "" {
		fmt.Fprintf(w, "%s_%s{%s} %g\n", e.namespace, name, labels, value)
	} else {
		fmt.Fprintf(w, "%s_%s %g\n", e.namespace, name, value)
	}
}

// writePerMode writes one line per crypto mode with a crypto_mode label.
func (e *PrometheusExporter) writePerMode(w io.Writer, name, labels string, perMode map[string]uint64) {
	modes := make([]string, 0, len(perMode))
	for m := range perMode {
		modes = append(modes, m)
	}
	sort.Strings(modes)

	for _, m := range modes {
		modeLabel := fmt.Sprintf("crypto_mode=%q", m)
		if labels != "" {
			modeLabel = labels + "," + modeLabel
		}
		fmt.Fprintf(w, "%s_%s{%s} %d\n", e.namespace, name, modeLabel, perMode[m])
	}
}

func (e *PrometheusExporter) writeHistogram(w io.Writer, name, help, labels string, h HistogramSummary) {
	e.writeHelp(w, name, help)
	e.writeType(w, name, "histogram")

	fullName := e.namespace + "_" + name

	for _, b := range h.Buckets {
		le := fmt.Sprintf("%g", b.UpperBound)
		if math.IsInf(b.UpperBound, 1) {
			le = "+Inf"
		}
		if labels != "" {
			fmt.Fprintf(w, "%s_bucket{%s,le=\"%s\"} %d\n", fullName, labels, le, b.Count)
		} else {
			fmt.Fprintf(w, "%s_bucket{le=\"%s\"} %d\n", fullName, le, b.Count)
		}
	}

	if labels != "" {
		fmt.Fprintf(w, "%s_sum{%s} %g\n", fullName, labels, h.Sum)
		fmt.Fprintf(w, "%s_count{%s} %d\n", fullName, labels, h.Count)
	} else {
		fmt.Fprintf(w, "%s_sum %g\n", fullName, h.Sum)
		fmt.Fprintf(w, "%s_count %d\n", fullName, h.Count)
	}
}

// formatLabels converts Labels to Prometheus label syntax, keys sorted.
func (e *PrometheusExporter) formatLabels(labels Labels) string {
	if len(labels) == 0 {
		return ""
	}

	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=\"%s\"", k, escapePromValue(labels[k])))
	}
	return strings.Join(parts, ",")
}

func escapePromValue(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "\"", "\\\"")
	s = strings.ReplaceAll(s, "\n", "\\n")
	return s
}

// ServePrometheus starts an HTTP server exposing the metrics endpoint.
func ServePrometheus(addr string, c *Collector, namespace string) error {
	exp := NewPrometheusExporter(c, namespace)
	http.Handle("/metrics", exp.Handler())
	return http.ListenAndServe(addr, nil)
}
