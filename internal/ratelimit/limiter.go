// Package ratelimit decides whether a client may make another request.
package ratelimit

import (
	"context"
	"time"
)

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	// RetryAfter is how long a rejected client should wait. Zero when allowed.
	RetryAfter time.Duration
}

// Limiter admits or rejects requests per key, typically a client IP.
type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}
