package http

import (
	"sync"
	"sync/atomic"
	"time"
)

// Mutating requests are capped per client IP: maxMutations within
// mutationWindow. Idle clients are swept after staleAfter.
const (
	maxMutations   = 60
	mutationWindow = time.Minute
	staleAfter     = 10 * time.Minute
	sweepInterval  = 5 * time.Minute
)

// rateLimiter caps form submissions per client IP, in memory.
type rateLimiter struct {
	mu           sync.Mutex
	visitors     map[string]*visitor
	stopSweep    chan struct{}
	shutdownOnce sync.Once
}

type visitor struct {
	windowStart time.Time
	count       int
}

func newRateLimiter() *rateLimiter {
	rl := &rateLimiter{
		visitors:  make(map[string]*visitor),
		stopSweep: make(chan struct{}),
	}
	go rl.sweepLoop()
	return rl
}

func (rl *rateLimiter) sweepLoop() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.sweepStale()
		case <-rl.stopSweep:
			return
		}
	}
}

// sweepStale drops visitors that have been quiet longer than staleAfter.
func (rl *rateLimiter) sweepStale() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-staleAfter)
	for ip, v := range rl.visitors {
		if v.windowStart.Before(cutoff) {
			delete(rl.visitors, ip)
		}
	}
}

// stop ends the sweep goroutine.
func (rl *rateLimiter) stop() {
	rl.shutdownOnce.Do(func() {
		if rl.stopSweep != nil {
			close(rl.stopSweep)
		}
	})
}

// allow records one request from clientIP and reports whether it fits the
// current window.
func (rl *rateLimiter) allow(clientIP string, metrics *securityMetrics) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	v, ok := rl.visitors[clientIP]
	if !ok || now.Sub(v.windowStart) > mutationWindow {
		rl.visitors[clientIP] = &visitor{windowStart: now, count: 1}
		return true
	}

	v.count++
	if v.count > maxMutations {
		if metrics != nil {
			atomic.AddInt64(&metrics.rateLimitHits, 1)
		}
		return false
	}
	return true
}
