package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/callsight/backend/internal/config"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// clientBucket is one caller's token bucket plus the activity timestamp the
// sweeper evicts on.
type clientBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter throttles API callers per client IP. Every report request can
// fan out into a long chain of upstream fetches, so the gate sits in front of
// the /api group rather than letting the upstream 429s do the pushback.
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*clientBucket

	rps       rate.Limit
	burst     int
	idleEvict time.Duration
}

// NewRateLimiter builds a limiter from config and starts its background sweep
// of idle client entries.
func NewRateLimiter(cfg *config.RateLimitConfig) *RateLimiter {
	rl := &RateLimiter{
		clients:   make(map[string]*clientBucket),
		rps:       rate.Limit(cfg.RPS),
		burst:     cfg.Burst,
		idleEvict: time.Duration(cfg.IdleEvictMinutes) * time.Minute,
	}
	go rl.sweepLoop(time.Duration(cfg.SweepMinutes) * time.Minute)
	return rl
}

func (rl *RateLimiter) bucketFor(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, ok := rl.clients[ip]
	if !ok {
		b = &clientBucket{limiter: rate.NewLimiter(rl.rps, rl.burst)}
		rl.clients[ip] = b
	}
	b.lastSeen = time.Now()
	return b.limiter
}

func (rl *RateLimiter) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for range ticker.C {
		rl.sweepIdle(time.Now())
	}
}

// sweepIdle drops client entries with no requests inside the idle window.
func (rl *RateLimiter) sweepIdle(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for ip, b := range rl.clients {
		if now.Sub(b.lastSeen) > rl.idleEvict {
			delete(rl.clients, ip)
		}
	}
}

// Middleware rejects callers that have drained their bucket with 429.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.bucketFor(c.ClientIP()).Allow() {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"code":    429,
				"message": "report API rate limit exceeded, retry shortly",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}
