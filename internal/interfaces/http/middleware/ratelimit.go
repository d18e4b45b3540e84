package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/erp/stockengine/internal/infrastructure/logger"
	"github.com/erp/stockengine/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const defaultVisitorIdle = 10 * time.Minute

// RateLimiter keeps one token bucket per client key. Buckets idle for longer
// than the idle window are dropped by a background sweep.
type RateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    rate.Limit
	burst    int
	idle     time.Duration
	now      func() time.Time

	stop      chan struct{}
	closeOnce sync.Once
}

type visitor struct {
	bucket   *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter allows rps requests per second per key with bursts of burst
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	rl := newRateLimiter(rps, burst, time.Now)
	go rl.sweepLoop()
	return rl
}

func newRateLimiter(rps float64, burst int, now func() time.Time) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		visitors: make(map[string]*visitor),
		limit:    rate.Limit(rps),
		burst:    burst,
		idle:     defaultVisitorIdle,
		now:      now,
		stop:     make(chan struct{}),
	}
}

// Allow consumes one token for key
func (rl *RateLimiter) Allow(key string) bool {
	return rl.reserve(key).OK()
}

// Close stops the sweep goroutine
func (rl *RateLimiter) Close() {
	rl.closeOnce.Do(func() { close(rl.stop) })
}

// Limit returns the configured burst, reported as X-RateLimit-Limit
func (rl *RateLimiter) Limit() int {
	return rl.burst
}

// Remaining returns the whole tokens left for key
func (rl *RateLimiter) Remaining(key string) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, ok := rl.visitors[key]
	if !ok {
		return rl.burst
	}
	return int(math.Max(0, math.Floor(v.bucket.TokensAt(rl.now()))))
}

type decision struct {
	allowed    bool
	retryAfter time.Duration
}

func (d decision) OK() bool { return d.allowed }

func (rl *RateLimiter) reserve(key string) decision {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	v, ok := rl.visitors[key]
	if !ok {
		v = &visitor{bucket: rate.NewLimiter(rl.limit, rl.burst)}
		rl.visitors[key] = v
	}
	v.lastSeen = now

	if v.bucket.AllowN(now, 1) {
		return decision{allowed: true}
	}
	if rl.limit == 0 {
		return decision{}
	}
	r := v.bucket.ReserveN(now, 1)
	delay := r.DelayFrom(now)
	r.CancelAt(now)
	return decision{retryAfter: delay}
}

func (rl *RateLimiter) sweepLoop() {
	ticker := time.NewTicker(rl.idle)
	defer ticker.Stop()
	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
			rl.sweep()
		}
	}
}

func (rl *RateLimiter) sweep() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	now := rl.now()
	for key, v := range rl.visitors {
		if now.Sub(v.lastSeen) > rl.idle {
			delete(rl.visitors, key)
		}
	}
}

// RateLimit limits each actor, or the client IP for anonymous calls.
// Run it after Actor so the actor id is known.
func RateLimit(limiter *RateLimiter) gin.HandlerFunc {
	return RateLimitByKey(limiter, func(c *gin.Context) string {
		if actorID := c.GetString(logger.GinKeyActorID); actorID != "" {
			return "actor:" + actorID
		}
		return "ip:" + c.ClientIP()
	})
}

// RateLimitByKey limits requests grouped by keyFunc
func RateLimitByKey(limiter *RateLimiter, keyFunc func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := keyFunc(c)

		d := limiter.reserve(key)
		c.Header("X-RateLimit-Limit", strconv.Itoa(limiter.Limit()))
		if !d.allowed {
			c.Header("X-RateLimit-Remaining", "0")
			if d.retryAfter > 0 {
				c.Header("Retry-After", strconv.Itoa(int(math.Ceil(d.retryAfter.Seconds()))))
			}
			abortWithError(c, http.StatusTooManyRequests, dto.ErrorInfo{
				Code:      dto.ErrCodeRateLimited,
				Message:   "Too many requests. Please try again later.",
				Retryable: true,
			})
			return
		}
		c.Header("X-RateLimit-Remaining", strconv.Itoa(limiter.Remaining(key)))
		c.Next()
	}
}
