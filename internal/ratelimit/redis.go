package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "ratelimit:"

// Redis is a fixed-window limiter whose counters live in Redis, so every API
// instance shares the same budget per key.
type Redis struct {
	client *redis.Client
	max    int
	window time.Duration
	now    func() time.Time
}

// NewRedis creates a Redis limiter allowing limit requests per window.
func NewRedis(client *redis.Client, limit int, window time.Duration) *Redis {
	return &Redis{
		client: client,
		max:    limit,
		window: window,
		now:    time.Now,
	}
}

// Allow increments the counter of key's current window.
func (l *Redis) Allow(ctx context.Context, key string) (Decision, error) {
	now := l.now()
	windowMs := l.window.Milliseconds()
	start := now.UnixMilli() / windowMs * windowMs
	redisKey := keyPrefix + key + ":" + strconv.FormatInt(start, 10)

	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.PExpire(ctx, redisKey, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return Decision{}, fmt.Errorf("incrementing rate counter: %w", err)
	}

	count := int(incr.Val())
	d := Decision{
		Allowed:   count <= l.max,
		Limit:     l.max,
		Remaining: max(l.max-count, 0),
	}
	if !d.Allowed {
		d.RetryAfter = time.Duration(start+windowMs-now.UnixMilli()) * time.Millisecond
	}
	return d, nil
}
