package redis

import (
	"context"
	"fmt"
	"time"
)

// RateLimiter is a fixed-window counter keyed per caller. Keys carry the
// window index, so an expiry re-armed on every hit never outlives its window.
type RateLimiter struct {
	client RedisClient
}

func NewRateLimiter(client RedisClient) *RateLimiter {
	return &RateLimiter{client: client}
}

func (r *RateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	count, err := r.client.IncrWindow(ctx, key, window)
	if err != nil {
		return false, err
	}
	return count <= int64(limit), nil
}

// ClaimKey scopes the claim limit to a client address and the current window.
func ClaimKey(clientIP string, window time.Duration, now time.Time) string {
	return fmt.Sprintf("rate_limit:claim:%s:%d", clientIP, now.Unix()/int64(window.Seconds()))
}
