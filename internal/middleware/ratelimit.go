package middleware

import (
	"context"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// maxClients caps the number of tracked addresses so an address-rotating
// client cannot grow the map without bound.
const maxClients = 100000

// RateLimiter enforces a per-client token bucket over the chat API.
// Streaming requests are expensive upstream, so the bucket is charged
// when the request is admitted, not per byte streamed.
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*tokenBucket
	rate    float64 // refill rate, tokens per second
	burst   int
	clock   func() time.Time // for testing
}

type tokenBucket struct {
	tokens   float64
	refilled time.Time
	lastSeen time.Time
}

// NewRateLimiter creates a limiter allowing the given sustained request
// rate per client with the given burst size.
func NewRateLimiter(rate float64, burst int) *RateLimiter {
	return &RateLimiter{
		clients: make(map[string]*tokenBucket),
		rate:    rate,
		burst:   burst,
		clock:   time.Now,
	}
}

// Handler rejects over-limit requests with 429 and standard rate-limit
// headers.
func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		remaining, retryAfter, ok := rl.take(clientAddr(r))

		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(rl.clock().Add(time.Second).Unix(), 10))

		if !ok {
			w.Header().Set("Retry-After", strconv.FormatFloat(math.Ceil(retryAfter), 'f', 0, 64))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":"rate limit exceeded"}`))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// take attempts to spend one token for addr. It reports the remaining
// tokens and, when denied, how many seconds until the next token.
func (rl *RateLimiter) take(addr string) (remaining int, retryAfter float64, ok bool) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.clock()
	b := rl.clients[addr]
	if b == nil {
		if len(rl.clients) >= maxClients {
			return 0, 1.0 / rl.rate, false
		}
		b = &tokenBucket{
			tokens:   float64(rl.burst) - 1,
			refilled: now,
			lastSeen: now,
		}
		rl.clients[addr] = b
		return int(b.tokens), 0, true
	}

	b.tokens = math.Min(float64(rl.burst), b.tokens+now.Sub(b.refilled).Seconds()*rl.rate)
	b.refilled = now
	b.lastSeen = now

	if b.tokens < 1 {
		return 0, (1 - b.tokens) / rl.rate, false
	}

	b.tokens--
	return int(b.tokens), 0, true
}

// StartCleanup evicts buckets idle longer than maxIdle, checking every
// interval. The returned function stops the sweeper.
func (rl *RateLimiter) StartCleanup(interval, maxIdle time.Duration) func() {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				rl.sweep(maxIdle)
			}
		}
	}()
	return cancel
}

func (rl *RateLimiter) sweep(maxIdle time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	cutoff := rl.clock().Add(-maxIdle)
	for addr, b := range rl.clients {
		if b.lastSeen.Before(cutoff) {
			delete(rl.clients, addr)
		}
	}
}

// Len reports the number of tracked clients.
func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.clients)
}

// clientAddr keys buckets by the connection's remote address. Forwarding
// headers are deliberately ignored: they are client-controlled and would
// let a caller pick its own bucket.
func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
