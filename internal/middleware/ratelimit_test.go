package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func hit(t *testing.T, h http.Handler, addr string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
	req.RemoteAddr = addr
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimiterAllowsBurst(t *testing.T) {
	rl := NewRateLimiter(10, 10)
	h := rl.Handler(okHandler())

	for i := range 10 {
		if rec := hit(t, h, "192.168.1.1:1234"); rec.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i+1, rec.Code)
		}
	}
}

func TestRateLimiterRejectsWhenExhausted(t *testing.T) {
	rl := NewRateLimiter(10, 5)
	h := rl.Handler(okHandler())

	for range 5 {
		hit(t, h, "192.168.1.1:1234")
	}

	rec := hit(t, h, "192.168.1.1:1234")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header")
	}
	if rec.Header().Get("X-RateLimit-Remaining") != "0" {
		t.Errorf("expected 0 remaining, got %q", rec.Header().Get("X-RateLimit-Remaining"))
	}
}

func TestRateLimiterRefillsOverTime(t *testing.T) {
	now := time.Now()
	rl := NewRateLimiter(1, 2)
	rl.clock = func() time.Time { return now }
	h := rl.Handler(okHandler())

	hit(t, h, "10.0.0.9:1")
	hit(t, h, "10.0.0.9:1")
	if rec := hit(t, h, "10.0.0.9:1"); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 with empty bucket, got %d", rec.Code)
	}

	now = now.Add(time.Second)
	if rec := hit(t, h, "10.0.0.9:1"); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 after refill, got %d", rec.Code)
	}
}

func TestRateLimiterIsolatesClients(t *testing.T) {
	rl := NewRateLimiter(10, 2)
	h := rl.Handler(okHandler())

	hit(t, h, "10.0.0.1:1")
	hit(t, h, "10.0.0.1:1")

	if rec := hit(t, h, "10.0.0.1:1"); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("first client: expected 429, got %d", rec.Code)
	}
	if rec := hit(t, h, "10.0.0.2:1"); rec.Code != http.StatusOK {
		t.Fatalf("second client: expected 200, got %d", rec.Code)
	}
}

func TestRateLimiterSweepEvictsIdleClients(t *testing.T) {
	now := time.Now()
	rl := NewRateLimiter(10, 10)
	rl.clock = func() time.Time { return now }
	h := rl.Handler(okHandler())

	hit(t, h, "10.0.0.1:1")
	hit(t, h, "10.0.0.2:1")
	if got := rl.Len(); got != 2 {
		t.Fatalf("expected 2 tracked clients, got %d", got)
	}

	now = now.Add(time.Hour)
	hit(t, h, "10.0.0.3:1")
	rl.sweep(10 * time.Minute)

	if got := rl.Len(); got != 1 {
		t.Fatalf("expected 1 tracked client after sweep, got %d", got)
	}
}
