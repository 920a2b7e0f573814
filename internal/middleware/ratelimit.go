package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"
)

// callerWindow tracks one caller's request count inside the current window.
type callerWindow struct {
	windowStart time.Time
	count       int
}

type rateLimiter struct {
	mu      sync.Mutex
	callers map[string]*callerWindow
	limit   int
	window  time.Duration
}

func newRateLimiter(requestsPerMinute int) *rateLimiter {
	rl := &rateLimiter{
		callers: make(map[string]*callerWindow),
		limit:   requestsPerMinute,
		window:  time.Minute,
	}

	go rl.evictStale()

	return rl
}

// evictStale drops callers whose window has long passed so the map does not
// grow with every IP the service ever saw.
func (rl *rateLimiter) evictStale() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		rl.mu.Lock()
		for ip, c := range rl.callers {
			if time.Since(c.windowStart) > 2*rl.window {
				delete(rl.callers, ip)
			}
		}
		rl.mu.Unlock()
	}
}

// take consumes one request slot for the caller. When the limit is hit it
// returns false along with the seconds left until the window resets.
func (rl *rateLimiter) take(ip string) (bool, int) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	c, ok := rl.callers[ip]
	if !ok || now.Sub(c.windowStart) > rl.window {
		rl.callers[ip] = &callerWindow{windowStart: now, count: 1}
		return true, 0
	}

	if c.count >= rl.limit {
		retryAfter := int(rl.window.Seconds() - now.Sub(c.windowStart).Seconds())
		if retryAfter < 1 {
			retryAfter = 1
		}
		return false, retryAfter
	}

	c.count++
	return true, 0
}

// RateLimit caps each caller at requestsPerMinute, answering 429 with a
// Retry-After hint once the budget is spent.
func RateLimit(requestsPerMinute int) func(http.Handler) http.Handler {
	rl := newRateLimiter(requestsPerMinute)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := r.RemoteAddr
			if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
				ip = forwarded
			}

			allowed, retryAfter := rl.take(ip)
			if !allowed {
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				w.WriteHeader(http.StatusTooManyRequests)
				w.Write([]byte(`{"error": "Rate limit exceeded"}`))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
