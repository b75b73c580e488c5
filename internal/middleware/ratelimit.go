package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// bucket is a token bucket for a single client IP.
type bucket struct {
	tokens     float64
	lastRefill time.Time
	mu         sync.Mutex
}

// limiterState holds the shared state of one rate limiter instance.
type limiterState struct {
	buckets sync.Map // map[string]*bucket keyed by IP
	rate    float64  // tokens added per second
	burst   int      // bucket capacity
	done    chan struct{}
}

// exemptPaths are endpoints that are never rate limited.
var exemptPaths = map[string]bool{
	"/health": true,
	"/ping":   true,
}

// allow refills the caller's bucket for elapsed time and tries to take one
// token. Returns (allowed, remaining, limit).
func (s *limiterState) allow(ip string) (bool, int, int) {
	val, _ := s.buckets.LoadOrStore(ip, &bucket{
		tokens:     float64(s.burst),
		lastRefill: time.Now(),
	})
	b := val.(*bucket)

	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	b.tokens += now.Sub(b.lastRefill).Seconds() * s.rate
	if b.tokens > float64(s.burst) {
		b.tokens = float64(s.burst)
	}
	b.lastRefill = now

	if b.tokens >= 1.0 {
		b.tokens--
		return true, int(math.Floor(b.tokens)), s.burst
	}
	return false, 0, s.burst
}

// retryAfter estimates seconds until the IP's bucket holds one token.
func (s *limiterState) retryAfter(ip string) int {
	val, ok := s.buckets.Load(ip)
	if !ok {
		return 1
	}
	b := val.(*bucket)

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.tokens >= 1.0 {
		return 0
	}
	return int(math.Ceil((1.0 - b.tokens) / s.rate))
}

// startCleanup removes buckets that have been idle long enough to refill
// completely, so the map does not grow without bound.
func (s *limiterState) startCleanup() {
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				stale := time.Now().Add(-10 * time.Minute)
				s.buckets.Range(func(key, value any) bool {
					b := value.(*bucket)
					b.mu.Lock()
					idle := b.lastRefill.Before(stale)
					b.mu.Unlock()
					if idle {
						s.buckets.Delete(key)
					}
					return true
				})
			case <-s.done:
				return
			}
		}
	}()
}

// RateLimiter limits requests per client IP with a token bucket. rate is
// tokens added per second; burst is the bucket capacity.
func RateLimiter(rate float64, burst int) func(http.Handler) http.Handler {
	state := &limiterState{
		rate:  rate,
		burst: burst,
		done:  make(chan struct{}),
	}
	state.startCleanup()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if exemptPaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			ip := extractIP(r)
			allowed, remaining, limit := state.allow(ip)

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))

			if !allowed {
				w.Header().Set("Retry-After", strconv.Itoa(state.retryAfter(ip)))
				writeError(w, http.StatusTooManyRequests, "Too many requests, please try again later")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// LoginRateLimiter is a stricter limiter for credential endpoints:
// 5 attempts per minute per IP.
func LoginRateLimiter() func(http.Handler) http.Handler {
	return RateLimiter(5.0/60.0, 5)
}

// extractIP resolves the client IP, preferring proxy headers and falling
// back to RemoteAddr with the port stripped.
func extractIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.SplitN(xff, ",", 2)
		if ip := strings.TrimSpace(parts[0]); ip != "" {
			return ip
		}
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
