// ratelimit.go provides Gin middleware that enforces per-client rate limits, returning
// 429 responses when a client exceeds its allowance. Two backends implement Limiter:
// an in-process token bucket and a Redis-backed GCRA limiter shared across replicas.
package middleware

import (
	"context"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// RateLimitConfig holds configuration for rate limiting
type RateLimitConfig struct {
	// RequestsPerMinute is the sustained request rate per client
	RequestsPerMinute int
	// BurstSize is the maximum burst of requests allowed
	BurstSize int
	// CleanupInterval is how often idle in-memory buckets are evicted
	CleanupInterval time.Duration
}

// AuthRateLimitConfig returns stricter limits for sign-in endpoints
func AuthRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerMinute: 10,
		BurstSize:         5,
		CleanupInterval:   5 * time.Minute,
	}
}

// Decision is the outcome of a rate limit check
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

// Limiter decides whether the client identified by key may proceed
type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

// bucket tracks the tokens of a single client
type bucket struct {
	tokens     float64
	lastUpdate time.Time
}

// RateLimiter is an in-process token bucket limiter
type RateLimiter struct {
	config  RateLimitConfig
	buckets map[string]*bucket
	mu      sync.Mutex
	now     func() time.Time
	stopCh  chan struct{}
	stop    sync.Once
}

// NewRateLimiter creates a limiter and starts its cleanup goroutine. Call Stop on shutdown.
func NewRateLimiter(config RateLimitConfig) *RateLimiter {
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = 5 * time.Minute
	}
	rl := &RateLimiter{
		config:  config,
		buckets: make(map[string]*bucket),
		now:     time.Now,
		stopCh:  make(chan struct{}),
	}
	go rl.cleanup()
	return rl
}

func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(rl.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.evictIdle(10 * time.Minute)
		case <-rl.stopCh:
			return
		}
	}
}

func (rl *RateLimiter) evictIdle(idle time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	now := rl.now()
	for key, b := range rl.buckets {
		if now.Sub(b.lastUpdate) > idle {
			delete(rl.buckets, key)
		}
	}
}

// Stop stops the cleanup goroutine. It is safe to call more than once.
func (rl *RateLimiter) Stop() {
	rl.stop.Do(func() { close(rl.stopCh) })
}

// Allow consumes one token for key
func (rl *RateLimiter) Allow(_ context.Context, key string) (Decision, error) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	burst := float64(rl.config.BurstSize)
	perSecond := float64(rl.config.RequestsPerMinute) / 60.0

	b, ok := rl.buckets[key]
	if !ok {
		b = &bucket{tokens: burst, lastUpdate: now}
		rl.buckets[key] = b
	} else {
		b.tokens = math.Min(burst, b.tokens+now.Sub(b.lastUpdate).Seconds()*perSecond)
		b.lastUpdate = now
	}

	d := Decision{Limit: rl.config.RequestsPerMinute}
	if b.tokens >= 1 {
		b.tokens--
		d.Allowed = true
	} else if perSecond > 0 {
		d.RetryAfter = time.Duration((1 - b.tokens) / perSecond * float64(time.Second))
	}
	d.Remaining = int(b.tokens)
	return d, nil
}

// RateLimitMiddleware rejects requests the limiter denies with 429 and a Retry-After
// header. Limiter errors are logged and the request is let through.
func RateLimitMiddleware(limiter Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := rateLimitKey(c)

		d, err := limiter.Allow(c.Request.Context(), key)
		if err != nil {
			slog.Warn("rate limiter unavailable, allowing request", "key", key, "error", err)
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(d.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))

		if !d.Allowed {
			retryAfter := int(math.Ceil(d.RetryAfter.Seconds()))
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "Rate limit exceeded",
				"retry_after": retryAfter,
			})
			return
		}

		c.Next()
	}
}

// rateLimitKey prefers the authenticated user and falls back to the client IP
func rateLimitKey(c *gin.Context) string {
	if id := CurrentUserID(c); id != "" {
		return "user:" + id
	}
	ip := c.ClientIP()
	if ip == "" {
		ip = c.Request.RemoteAddr
	}
	return "ip:" + ip
}
