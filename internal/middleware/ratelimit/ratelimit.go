// Package ratelimit throttles clients with a fixed one-minute window.
package ratelimit

import (
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

const window = time.Minute

// Limiter counts requests per client key.
type Limiter struct {
	mu      sync.Mutex
	clients map[string]*clientInfo
	limit   int
	now     func() time.Time

	hits atomic.Int64

	stop     chan struct{}
	stopOnce sync.Once
}

type clientInfo struct {
	windowStart time.Time
	requests    int
}

type Config struct {
	RequestsPerMinute int
	// CleanupInterval of zero disables the background sweep.
	CleanupInterval time.Duration
	Clock           func() time.Time
}

func DefaultConfig() Config {
	return Config{RequestsPerMinute: 60, CleanupInterval: 5 * time.Minute}
}

func NewLimiter(config Config) *Limiter {
	if config.RequestsPerMinute <= 0 {
		config.RequestsPerMinute = DefaultConfig().RequestsPerMinute
	}
	if config.Clock == nil {
		config.Clock = time.Now
	}
	rl := &Limiter{
		clients: make(map[string]*clientInfo),
		limit:   config.RequestsPerMinute,
		now:     config.Clock,
		stop:    make(chan struct{}),
	}
	if config.CleanupInterval > 0 {
		go rl.sweepEvery(config.CleanupInterval)
	}
	return rl
}

// Allow records a request from key and reports whether it is within the
// limit for the current window.
func (rl *Limiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	c, ok := rl.clients[key]
	if !ok || now.Sub(c.windowStart) >= window {
		rl.clients[key] = &clientInfo{windowStart: now, requests: 1}
		return true
	}

	c.requests++
	if c.requests > rl.limit {
		rl.hits.Add(1)
		return false
	}
	return true
}

func (rl *Limiter) sweepEvery(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			rl.Sweep()
		case <-rl.stop:
			return
		}
	}
}

// Sweep forgets clients idle for more than two windows.
func (rl *Limiter) Sweep() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-2 * window)
	removed := 0
	for key, c := range rl.clients {
		if c.windowStart.Before(cutoff) {
			delete(rl.clients, key)
			removed++
		}
	}
	return removed
}

func (rl *Limiter) ActiveClients() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.clients)
}

// Hits is the number of rejected requests so far.
func (rl *Limiter) Hits() int64 { return rl.hits.Load() }

func (rl *Limiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

// Middleware limits requests whose method is in methods, or all requests
// when methods is empty. onLimit may be nil.
func (rl *Limiter) Middleware(extractIP func(*http.Request) string, onLimit http.HandlerFunc, methods ...string) func(http.Handler) http.Handler {
	limited := func(r *http.Request) bool {
		if len(methods) == 0 {
			return true
		}
		for _, m := range methods {
			if r.Method == m {
				return true
			}
		}
		return false
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limited(r) && !rl.Allow(extractIP(r)) {
				if onLimit != nil {
					onLimit(w, r)
					return
				}
				w.Header().Set("Retry-After", "60")
				http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
