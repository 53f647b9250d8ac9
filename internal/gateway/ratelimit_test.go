package gateway

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRateLimiter_Middleware(t *testing.T) {
	rl := NewRateLimiter(1, 2, slog.New(slog.NewTextHandler(io.Discard, nil)))
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	handler := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func(remoteAddr string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/checkout", nil)
		req.RemoteAddr = remoteAddr
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	for i := 0; i < 2; i++ {
		if code := send("203.0.113.7:4242"); code != http.StatusOK {
			t.Fatalf("request %d: expected status 200, got %d", i, code)
		}
	}

	if code := send("203.0.113.7:4243"); code != http.StatusTooManyRequests {
		t.Errorf("expected status 429 after burst, got %d", code)
	}

	if code := send("198.51.100.1:1000"); code != http.StatusOK {
		t.Errorf("expected other client to be unaffected, got %d", code)
	}

	now = now.Add(time.Second)
	if code := send("203.0.113.7:4242"); code != http.StatusOK {
		t.Errorf("expected token refill after one second, got %d", code)
	}
}

func TestRateLimiter_EvictIdle(t *testing.T) {
	rl := NewRateLimiter(1, 1, slog.New(slog.NewTextHandler(io.Discard, nil)))
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	rl.allow("203.0.113.7")
	now = now.Add(visitorIdleTimeout + time.Second)
	rl.allow("198.51.100.1")
	rl.evictIdle()

	if _, ok := rl.visitors["203.0.113.7"]; ok {
		t.Error("expected idle visitor to be evicted")
	}
	if _, ok := rl.visitors["198.51.100.1"]; !ok {
		t.Error("expected active visitor to be kept")
	}
}

func TestClientIP(t *testing.T) {
	tests := map[string]string{
		"203.0.113.7:4242": "203.0.113.7",
		"[2001:db8::1]:80": "2001:db8::1",
		"[2001:db8::1]":    "2001:db8::1",
		"203.0.113.7":      "203.0.113.7",
	}
	for remote, want := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = remote
		if got := clientIP(req); got != want {
			t.Errorf("clientIP(%q): expected %q, got %q", remote, want, got)
		}
	}
}
