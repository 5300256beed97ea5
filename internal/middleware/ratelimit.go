package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/stemsi/exstem-progress/internal/response"
)

// RateLimiter is a per-IP token bucket refilled to rate every interval.
type RateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	rate     int
	interval time.Duration
	now      func() time.Time
	stop     chan struct{}
}

type visitor struct {
	tokens     int
	lastRefill time.Time
	lastSeen   time.Time
}

// NewRateLimiter creates a RateLimiter, e.g. 10 requests per minute. Call
// Stop to end the background cleanup.
func NewRateLimiter(rate int, interval time.Duration) *RateLimiter {
	rl := &RateLimiter{
		visitors: make(map[string]*visitor),
		rate:     rate,
		interval: interval,
		now:      time.Now,
		stop:     make(chan struct{}),
	}

	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				rl.cleanup()
			case <-rl.stop:
				return
			}
		}
	}()

	return rl
}

// Stop ends the cleanup goroutine.
func (rl *RateLimiter) Stop() {
	close(rl.stop)
}

// Allow takes a token for key, reporting whether one was available.
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	v, exists := rl.visitors[key]
	if !exists {
		v = &visitor{tokens: rl.rate, lastRefill: now}
		rl.visitors[key] = v
	}
	v.lastSeen = now

	if periods := int(now.Sub(v.lastRefill) / rl.interval); periods > 0 {
		v.tokens = min(rl.rate, v.tokens+periods*rl.rate)
		v.lastRefill = v.lastRefill.Add(time.Duration(periods) * rl.interval)
	}

	if v.tokens <= 0 {
		return false
	}
	v.tokens--
	return true
}

// Middleware returns a Gin middleware that rate-limits requests by IP.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.Allow(c.ClientIP()) {
			response.AbortFail(c, http.StatusTooManyRequests, response.ErrRateLimitExceeded)
			return
		}
		c.Next()
	}
}

func (rl *RateLimiter) cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	cutoff := rl.now().Add(-3 * rl.interval)
	for ip, v := range rl.visitors {
		if v.lastSeen.Before(cutoff) {
			delete(rl.visitors, ip)
		}
	}
}
