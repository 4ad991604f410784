package web

import (
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// rateLimiter is a fixed-window limiter keyed by client IP.
type rateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	rate     int           // requests per window
	window   time.Duration // time window
	now      func() time.Time
	done     chan struct{}
	stopOnce sync.Once
}

type visitor struct {
	tokens    int
	lastReset time.Time
}

// newRateLimiter creates a limiter owned by the server, which stops its
// cleanup goroutine on Shutdown.
func (s *Server) newRateLimiter(rate int, window time.Duration) *rateLimiter {
	rl := &rateLimiter{
		visitors: make(map[string]*visitor),
		rate:     rate,
		window:   window,
		now:      time.Now,
		done:     make(chan struct{}),
	}
	s.limiters = append(s.limiters, rl)
	go rl.cleanup()
	return rl
}

// cleanup removes stale visitor entries every window until stopped.
func (rl *rateLimiter) cleanup() {
	ticker := time.NewTicker(rl.window)
	defer ticker.Stop()

	for {
		select {
		case <-rl.done:
			return
		case <-ticker.C:
		}
		rl.mu.Lock()
		for ip, v := range rl.visitors {
			if rl.now().Sub(v.lastReset) > rl.window*2 {
				delete(rl.visitors, ip)
			}
		}
		rl.mu.Unlock()
	}
}

func (rl *rateLimiter) stop() {
	rl.stopOnce.Do(func() { close(rl.done) })
}

// allow checks if the request should be allowed and consumes a token if so.
func (rl *rateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	v, exists := rl.visitors[ip]
	if !exists || now.Sub(v.lastReset) > rl.window {
		rl.visitors[ip] = &visitor{tokens: rl.rate - 1, lastReset: now}
		return true
	}

	if v.tokens <= 0 {
		return false
	}
	v.tokens--
	return true
}

// middleware returns an HTTP middleware that rate limits by IP.
// RemoteAddr has already been resolved by TrustedRealIP.
func (rl *rateLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.allow(clientIP(r)) {
			w.Header().Set("Retry-After", strconv.Itoa(int(rl.window.Seconds())))
			respondError(w, r, fmt.Errorf("rate limit exceeded: %d requests per %s", rl.rate, rl.window), http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}
