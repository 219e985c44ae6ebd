package security

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// PurchaseLimiter throttles buy attempts per caller with a Redis counter.
// Scalper bots hammer the purchase path the moment a listing appears; the
// window keeps one identity from monopolizing settlements.
type PurchaseLimiter struct {
	redis  *redis.Client
	limit  int64
	window time.Duration
}

func NewPurchaseLimiter(redisClient *redis.Client, limit int, window time.Duration) *PurchaseLimiter {
	return &PurchaseLimiter{
		redis:  redisClient,
		limit:  int64(limit),
		window: window,
	}
}

// Allow counts one attempt for the caller and reports whether it is within
// the window's limit. Redis failures fail open: throttling is protection,
// not a correctness gate.
func (l *PurchaseLimiter) Allow(ctx context.Context, callerID string) bool {
	key := fmt.Sprintf("ratelimit:buy:%s", callerID)

	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return true
	}
	if count == 1 {
		l.redis.Expire(ctx, key, l.window)
	}
	return count <= l.limit
}
