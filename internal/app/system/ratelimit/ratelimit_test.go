package ratelimit_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dalemusser/cohorthub/internal/app/system/ratelimit"
)

func TestLimiter_Allow(t *testing.T) {
	l := ratelimit.New(3, time.Minute)

	for i := 0; i < 3; i++ {
		if !l.Allow("10.0.0.1") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if l.Allow("10.0.0.1") {
		t.Error("fourth request should be refused")
	}
	// Other keys have their own windows.
	if !l.Allow("10.0.0.2") {
		t.Error("distinct key should be allowed")
	}
	if l.Remaining("10.0.0.1") != 0 {
		t.Errorf("Remaining: got %d, want 0", l.Remaining("10.0.0.1"))
	}
}

func TestLimiter_WindowExpiry(t *testing.T) {
	l := ratelimit.New(1, 30*time.Millisecond)

	if !l.Allow("k") {
		t.Fatal("first request should be allowed")
	}
	if l.Allow("k") {
		t.Fatal("second request should be refused")
	}
	time.Sleep(50 * time.Millisecond)
	if !l.Allow("k") {
		t.Error("request after window expiry should be allowed")
	}
}

func TestMiddleware(t *testing.T) {
	l := ratelimit.New(1, time.Minute)
	handler := l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/groups/abc", nil)
	req.RemoteAddr = "10.0.0.9:12345"

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("first request: got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("second request: got %d, want 429", rec.Code)
	}
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.7:9999"
	if got := ratelimit.ClientIP(req); got != "192.0.2.7" {
		t.Errorf("RemoteAddr: got %q", got)
	}

	req.Header.Set("X-Real-IP", "198.51.100.4")
	if got := ratelimit.ClientIP(req); got != "198.51.100.4" {
		t.Errorf("X-Real-IP: got %q", got)
	}

	req.Header.Set("X-Forwarded-For", "203.0.113.10, 198.51.100.4")
	if got := ratelimit.ClientIP(req); got != "203.0.113.10" {
		t.Errorf("X-Forwarded-For: got %q", got)
	}
}
