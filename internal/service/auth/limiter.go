package auth

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"taskvault/pkg/util"
)

// Limiter tracks failed logins per client.
type Limiter interface {
	Allowed(ctx context.Context, client string) (bool, error)
	Fail(ctx context.Context, client string) error
	Reset(ctx context.Context, client string) error
}

// RedisLimiter blocks a client after max failures inside window.
type RedisLimiter struct {
	counter *util.AttemptCounter
	max     int64
}

func NewRedisLimiter(rdb *redis.Client, max int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{counter: util.NewAttemptCounter(rdb, window), max: int64(max)}
}

func (l *RedisLimiter) Allowed(ctx context.Context, client string) (bool, error) {
	n, err := l.counter.Get(ctx, util.FormatAttemptKey("login", client))
	if err != nil {
		return true, err
	}
	return n < l.max, nil
}

func (l *RedisLimiter) Fail(ctx context.Context, client string) error {
	_, err := l.counter.IncrementAndGet(ctx, util.FormatAttemptKey("login", client))
	return err
}

func (l *RedisLimiter) Reset(ctx context.Context, client string) error {
	return l.counter.Reset(ctx, util.FormatAttemptKey("login", client))
}
