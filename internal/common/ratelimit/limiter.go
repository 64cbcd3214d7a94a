// Package ratelimit is a fixed-window request limiter backed by Redis.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type Limiter struct {
	redis  redis.Cmdable
	limit  int
	window time.Duration
	prefix string
}

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed   bool
	Count     int64
	Remaining int64
	Limit     int
}

func New(rdb redis.Cmdable, limit int, window time.Duration, prefix string) *Limiter {
	return &Limiter{
		redis:  rdb,
		limit:  limit,
		window: window,
		prefix: prefix,
	}
}

// Allow counts a request for key. The window starts at the first request and the counter
// expires with it.
func (l *Limiter) Allow(ctx context.Context, key string) (bool, error) {
	d, err := l.Check(ctx, key)
	return d.Allowed, err
}

// Check is Allow with the counter details. On Redis errors the request is allowed and the
// error returned for logging.
//
// INCR and EXPIRE NX go out in one MULTI so a counter never outlives a failed expiry: a key
// left without a TTL gets one on its next hit. EXPIRE NX needs Redis 7.
func (l *Limiter) Check(ctx context.Context, key string) (Decision, error) {
	d := Decision{Allowed: true, Limit: l.limit, Remaining: int64(l.limit)}
	if l.limit <= 0 {
		return d, nil
	}

	redisKey := l.key(key)
	pipe := l.redis.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.ExpireNX(ctx, redisKey, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return d, fmt.Errorf("rate limit: %w", err)
	}
	count := incr.Val()

	d.Count = count
	d.Remaining = int64(l.limit) - count
	if d.Remaining < 0 {
		d.Remaining = 0
	}
	d.Allowed = count <= int64(l.limit)
	return d, nil
}

// Window returns the configured window length.
func (l *Limiter) Window() time.Duration {
	return l.window
}

func (l *Limiter) key(key string) string {
	if l.prefix == "" {
		return key
	}
	return l.prefix + ":" + key
}
