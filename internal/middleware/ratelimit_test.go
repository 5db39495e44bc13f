package middleware

import (
	"net/http/httptest"
	"testing"
)

func TestClientAddressPrefersForwardedHeaders(t *testing.T) {
	req := httptest.NewRequest("POST", "/api/v1/ingest/metadata", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	req.Header.Set("X-Real-IP", "198.51.100.4")
	req.RemoteAddr = "127.0.0.1:1234"

	if got := clientAddress(req); got != "203.0.113.9" {
		t.Fatalf("expected forwarded IP, got %q", got)
	}
}

func TestClientAddressFallsBackToRemoteAddr(t *testing.T) {
	req := httptest.NewRequest("POST", "/api/v1/ingest/metadata", nil)
	req.RemoteAddr = "192.0.2.44:5678"

	if got := clientAddress(req); got != "192.0.2.44" {
		t.Fatalf("expected remote host, got %q", got)
	}
}

func TestRateLimiterBlocksExcessBurst(t *testing.T) {
	limiter := NewRateLimiter(1, 1)
	if limiter == nil {
		t.Fatal("expected limiter to be created")
	}

	if !limiter.allow("192.0.2.10") {
		t.Fatal("first request should be allowed")
	}
	if limiter.allow("192.0.2.10") {
		t.Fatal("second immediate request should be rate limited")
	}
}

func TestRateLimiterTracksClientsIndependently(t *testing.T) {
	limiter := NewRateLimiter(1, 1)

	if !limiter.allow("192.0.2.10") {
		t.Fatal("first client should be allowed")
	}
	if !limiter.allow("192.0.2.11") {
		t.Fatal("second client has its own bucket and should be allowed")
	}
}

func TestRateLimiterRejectsInvalidConfig(t *testing.T) {
	if NewRateLimiter(0, 1) != nil {
		t.Fatal("zero rps should disable the limiter")
	}
	if NewRateLimiter(1, 0) != nil {
		t.Fatal("zero burst should disable the limiter")
	}
}
