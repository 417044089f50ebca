package metrics

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pqmsg/pqmsg-go/pkg/mode"
)

func TestHealthCheckAllPassing(t *testing.T) {
	h := NewHealthCheck(NewCollector(nil), "1.0.0")
	h.AddCheck("always_ok", func() error { return nil })

	resp := h.Check()
	if resp.Status != HealthStatusHealthy {
		t.Errorf("status = %v, want healthy", resp.Status)
	}
	if resp.Checks["always_ok"].Status != HealthStatusHealthy {
		t.Error("check result should be healthy")
	}
	if resp.Version != "1.0.0" {
		t.Errorf("version = %q", resp.Version)
	}
}

func TestHealthCheckFailure(t *testing.T) {
	h := NewHealthCheck(nil, "")
	h.AddCheck("broken", func() error { return errors.New("no entropy") })

	resp := h.Check()
	if resp.Status != HealthStatusUnhealthy {
		t.Errorf("status = %v, want unhealthy", resp.Status)
	}
	if resp.Checks["broken"].Message != "no entropy" {
		t.Errorf("message = %q", resp.Checks["broken"].Message)
	}
}

func TestHealthDegradedOnRejectionRate(t *testing.T) {
	c := NewCollector(nil)
	// 1 success, 3 rejections: 75% rejection rate.
	c.EnvelopeOpened(mode.Hybrid)
	c.RejectedSignature()
	c.RejectedDecrypt()
	c.RejectedByPolicy()

	h := NewHealthCheck(c, "")
	resp := h.Check()
	if resp.Status != HealthStatusDegraded {
		t.Errorf("status = %v, want degraded", resp.Status)
	}
	if resp.Metrics == nil || resp.Metrics.RejectionRate != 0.75 {
		t.Errorf("metrics = %+v", resp.Metrics)
	}
}

func TestHealthHandlerStatusCodes(t *testing.T) {
	h := NewHealthCheck(nil, "")

	rec := httptest.NewRecorder()
	h.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))
	if rec.Code != 200 {
		t.Errorf("healthy status code = %d", rec.Code)
	}

	h.AddCheck("down", func() error { return errors.New("down") })
	rec = httptest.NewRecorder()
	h.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))
	if rec.Code != 503 {
		t.Errorf("unhealthy status code = %d", rec.Code)
	}
}

func TestSelfTestCheck(t *testing.T) {
	if err := SelfTestCheck()(); err != nil {
		t.Errorf("self-test check failed: %v", err)
	}
}

func TestServerEndpoints(t *testing.T) {
	s := NewServer(ServerConfig{
		Collector:        NewCollector(nil),
		Version:          "test",
		EnablePrometheus: true,
		EnableHealth:     true,
	})

	for _, path := range []string{"/metrics", "/health", "/healthz", "/readyz"} {
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, httptest.NewRequest("GET", path, nil))
		if rec.Code != 200 {
			t.Errorf("%s status = %d", path, rec.Code)
		}
	}

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if !strings.Contains(rec.Body.String(), "pqmsg_") {
		t.Error("metrics endpoint missing namespaced metrics")
	}
}
