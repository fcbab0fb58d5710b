// ratelimit — фиксированное окно поверх Redis для auth-эндпоинтов.
// Ядро сессий про лимитер не знает: он навешивается HTTP-слоем.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter — минимальный контракт лимитера запросов.
type Limiter interface {
	// Allow сообщает, укладывается ли ключ в лимит окна.
	Allow(ctx context.Context, key string) (bool, error)
	// Close закрывает клиент Redis.
	Close() error
}

type redisLimiter struct {
	rdb    *redis.Client
	prefix string
	limit  int64
	window time.Duration
}

// NewRedisLimiter создаёт лимитер из URL (например, redis://:pass@host:6379/0).
// Если prefix пустой — используется "auth:rl:".
func NewRedisLimiter(redisURL, prefix string, limit int, window time.Duration) (Limiter, error) {
	const op = "ratelimit.NewRedisLimiter"

	if prefix == "" {
		prefix = "auth:rl:"
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rdb := redis.NewClient(opt)

	// Fail-fast на старте.
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &redisLimiter{
		rdb:    rdb,
		prefix: prefix,
		limit:  int64(limit),
		window: window,
	}, nil
}

// Allow инкрементирует счётчик окна; первый инкремент заводит TTL.
func (l *redisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	const op = "ratelimit.Allow"

	k := l.prefix + key

	count, err := l.rdb.Incr(ctx, k).Result()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	if count == 1 {
		if err := l.rdb.Expire(ctx, k, l.window).Err(); err != nil {
			return false, fmt.Errorf("%s: %w", op, err)
		}
	}

	return count <= l.limit, nil
}

func (l *redisLimiter) Close() error { return l.rdb.Close() }
