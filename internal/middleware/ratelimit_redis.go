package middleware

import (
	"context"
	"time"

	"github.com/go-redis/redis_rate/v10"
	"github.com/redis/go-redis/v9"
)

// RedisRateLimiter enforces a shared per-minute limit across replicas using GCRA in Redis
type RedisRateLimiter struct {
	limiter *redis_rate.Limiter
	limit   redis_rate.Limit
	prefix  string
}

// NewRedisRateLimiter creates a Redis-backed limiter. prefix namespaces the keys so
// several limiters can share one Redis database.
func NewRedisRateLimiter(client redis.UniversalClient, prefix string, config RateLimitConfig) *RedisRateLimiter {
	limit := redis_rate.PerMinute(config.RequestsPerMinute)
	if config.BurstSize > 0 {
		limit.Burst = config.BurstSize
	}
	return &RedisRateLimiter{
		limiter: redis_rate.NewLimiter(client),
		limit:   limit,
		prefix:  prefix,
	}
}

// Allow consumes one request from key's allowance
func (l *RedisRateLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	res, err := l.limiter.Allow(ctx, l.prefix+key, l.limit)
	if err != nil {
		return Decision{}, err
	}
	d := Decision{
		Allowed:   res.Allowed > 0,
		Limit:     l.limit.Rate,
		Remaining: res.Remaining,
	}
	if !d.Allowed {
		d.RetryAfter = res.RetryAfter
		if d.RetryAfter < 0 {
			d.RetryAfter = time.Second
		}
	}
	return d, nil
}
