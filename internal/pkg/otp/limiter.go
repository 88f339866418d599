package otp

import (
	"context"
	"time"

	"github.com/drishiq/drishiq/internal/pkg/cache"
)

// redisLimiter implements a fixed window counter on Redis. The first bump in
// a window sets the expiry; the TTL of the key is the retry-after hint.
type redisLimiter struct{}

func NewRedisLimiter() Limiter {
	return redisLimiter{}
}

func (redisLimiter) Bump(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	client := cache.GetClient()
	count, err := client.Incr(ctx, key).Result()
	if err != nil {
		return 0, 0, err
	}
	if count == 1 {
		if err := client.Expire(ctx, key, window).Err(); err != nil {
			return count, window, err
		}
		return count, window, nil
	}
	ttl, err := client.TTL(ctx, key).Result()
	if err != nil || ttl < 0 {
		return count, window, err
	}
	return count, ttl, nil
}
