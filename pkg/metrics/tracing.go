package metrics

import (
	"context"
	"sync"
	"time"
)

// Tracer provides distributed tracing for the send/receive path. The
// interface allows plugging in different backends; the OpenTelemetry
// adapter is built with the otel build tag.
type Tracer interface {
	// StartSpan starts a new span with the given name. Returns a
	// context carrying the span and a function to end it.
	StartSpan(ctx context.Context, name string, opts ...SpanOption) (context.Context, SpanEnder)
}

// SpanEnder ends a span. Call with nil for success, or an error to mark
// the span failed.
type SpanEnder func(err error)

// SpanOption configures span behavior.
type SpanOption func(*spanConfig)

type spanConfig struct {
	kind       SpanKind
	attributes map[string]interface{}
}

// SpanKind identifies the type of span.
type SpanKind int

// SpanKindInternal is the default; other values mark server or client
// spans.
const (
	SpanKindInternal SpanKind = iota
	SpanKindServer
	SpanKindClient
)

// WithSpanKind sets the span kind.
func WithSpanKind(kind SpanKind) SpanOption {
	return func(c *spanConfig) {
		c.kind = kind
	}
}

// WithAttributes sets span attributes.
func WithAttributes(attrs map[string]interface{}) SpanOption {
	return func(c *spanConfig) {
		c.attributes = attrs
	}
}

// --- NoOp Tracer ---

// NoOpTracer is a tracer that does nothing. The default when tracing is
// not configured.
type NoOpTracer struct{}

// StartSpan returns the context unchanged and a no-op end function.
func (NoOpTracer) StartSpan(ctx context.Context, name string, opts ...SpanOption) (context.Context, SpanEnder) {
	return ctx, func(err error) {}
}

// --- Recording Tracer ---

// RecordingTracer keeps completed spans in memory, for tests and
// debugging.
type RecordingTracer struct {
	mu    sync.Mutex
	spans []RecordedSpan
}

// RecordedSpan is a completed span.
type RecordedSpan struct {
	Name       string
	StartTime  time.Time
	EndTime    time.Time
	Duration   time.Duration
	Kind       SpanKind
	Attributes map[string]interface{}
	Error      error
	TraceID    string
	SpanID     string
	ParentID   string
}

// NewRecordingTracer creates an empty recording tracer.
func NewRecordingTracer() *RecordingTracer {
	return &RecordingTracer{spans: make([]RecordedSpan, 0)}
}

// StartSpan starts a new span.
func (t *RecordingTracer) StartSpan(ctx context.Context, name string, opts ...SpanOption) (context.Context, SpanEnder) {
	cfg := &spanConfig{
		kind:       SpanKindInternal,
		attributes: make(map[string]interface{}),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	span := &RecordedSpan{
		Name:       name,
		StartTime:  time.Now(),
		Kind:       cfg.kind,
		Attributes: cfg.attributes,
		TraceID:    generateID(),
		SpanID:     generateID(),
	}

	if parent := spanFromContext(ctx); parent != nil {
		span.ParentID = parent.SpanID
		span.TraceID = parent.TraceID
	}

	ctx = contextWithSpan(ctx, span)

	return ctx, func(err error) {
		span.EndTime = time.Now()
		span.Duration = span.EndTime.Sub(span.StartTime)
		span.Error = err

		t.mu.Lock()
		t.spans = append(t.spans, *span)
		t.mu.Unlock()
	}
}

// Spans returns a copy of all recorded spans.
func (t *RecordingTracer) Spans() []RecordedSpan {
	t.mu.Lock()
	defer t.mu.Unlock()
	result := make([]RecordedSpan, len(t.spans))
	copy(result, t.spans)
	return result
}

// Reset clears all recorded spans.
func (t *RecordingTracer) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.spans = t.spans[:0]
}

// --- Context helpers ---

type spanContextKey struct{}

func contextWithSpan(ctx context.Context, span *RecordedSpan) context.Context {
	return context.WithValue(ctx, spanContextKey{}, span)
}

func spanFromContext(ctx context.Context) *RecordedSpan {
	if span, ok := ctx.Value(spanContextKey{}).(*RecordedSpan); ok {
		return span
	}
	return nil
}

// generateID produces a time-based ID for the recording tracer. Real
// trace IDs come from the OpenTelemetry adapter.
func generateID() string {
	return time.Now().Format("20060102150405.000000000")
}

// --- Global Tracer ---

var (
	globalTracer   Tracer = NoOpTracer{}
	globalTracerMu sync.RWMutex
)

// SetTracer sets the global tracer.
func SetTracer(t Tracer) {
	globalTracerMu.Lock()
	defer globalTracerMu.Unlock()
	globalTracer = t
}

// GetTracer returns the global tracer.
func GetTracer() Tracer {
	globalTracerMu.RLock()
	defer globalTracerMu.RUnlock()
	return globalTracer
}

// StartSpan starts a span using the global tracer.
func StartSpan(ctx context.Context, name string, opts ...SpanOption) (context.Context, SpanEnder) {
	return GetTracer().StartSpan(ctx, name, opts...)
}

// Standard span names for messaging crypto operations.
const (
	SpanEnvelopeCreate  = "pqmsg.envelope.create"
	SpanEnvelopeOpen    = "pqmsg.envelope.open"
	SpanAgreement       = "pqmsg.hybrid.agreement"
	SpanSignature       = "pqmsg.hybrid.sign"
	SpanVerify          = "pqmsg.hybrid.verify"
	SpanKeygen          = "pqmsg.keygen"
	SpanDirectoryLookup = "pqmsg.directory.lookup"
)

// SpanAttributes for common messaging operations.
type SpanAttributes struct {
	InboxID     string
	CryptoMode  string
	CipherSuite string
	PayloadSize int64
	Error       string
}

// ToMap converts SpanAttributes to a generic map for use with tracers.
func (a SpanAttributes) ToMap() map[string]interface{} {
	m := make(map[string]interface{})
	if a.InboxID != "" {
		m["envelope.inbox_id"] = a.InboxID
	}
	if a.CryptoMode != "" {
		m["crypto.mode"] = a.CryptoMode
	}
	if a.CipherSuite != "" {
		m["crypto.cipher_suite"] = a.CipherSuite
	}
	if a.PayloadSize > 0 {
		m["envelope.payload_size"] = a.PayloadSize
	}
	if a.Error != "" {
		m["error.message"] = a.Error
	}
	return m
}
