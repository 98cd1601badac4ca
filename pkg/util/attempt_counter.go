package util

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// AttemptCounter counts events per key inside a sliding TTL window in Redis.
type AttemptCounter struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewAttemptCounter(rdb *redis.Client, ttl time.Duration) *AttemptCounter {
	return &AttemptCounter{rdb: rdb, ttl: ttl}
}

// IncrementAndGet increments the count for key and returns the new value.
// The window starts on the first increment.
func (r *AttemptCounter) IncrementAndGet(ctx context.Context, key string) (int64, error) {
	count, err := r.rdb.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}

	if count == 1 {
		if err := r.rdb.Expire(ctx, key, r.ttl).Err(); err != nil {
			return count, err
		}
	}

	return count, nil
}

// Get returns the current count, 0 when the key is absent.
func (r *AttemptCounter) Get(ctx context.Context, key string) (int64, error) {
	count, err := r.rdb.Get(ctx, key).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return count, err
}

// Reset clears the count for key.
func (r *AttemptCounter) Reset(ctx context.Context, key string) error {
	return r.rdb.Del(ctx, key).Err()
}

// FormatAttemptKey formats a counter key for a scope and subject, e.g. ("login", ip).
func FormatAttemptKey(scope, subject string) string {
	return fmt.Sprintf("attempts:%s:%s", scope, subject)
}
