package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
)

func newLimiter(t *testing.T, limit int, window time.Duration) (Limiter, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	l, err := NewRedisLimiter("redis://"+mr.Addr(), "", limit, window)
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })
	return l, mr
}

func TestNewRedisLimiter_BadURL(t *testing.T) {
	t.Parallel()

	_, err := NewRedisLimiter("not-a-url", "", 10, time.Minute)
	require.Error(t, err)
}

func TestNewRedisLimiter_Unreachable(t *testing.T) {
	t.Parallel()

	// Порт заведомо закрыт: конструктор обязан упасть на Ping.
	_, err := NewRedisLimiter("redis://127.0.0.1:1", "", 10, time.Minute)
	require.Error(t, err)
}

func TestAllow_WithinLimit(t *testing.T) {
	t.Parallel()

	l, _ := newLimiter(t, 3, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, err := l.Allow(ctx, "1.2.3.4")
		require.NoError(t, err)
		require.True(t, ok, "request %d", i+1)
	}

	ok, err := l.Allow(ctx, "1.2.3.4")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestAllow_KeysAreIndependent(t *testing.T) {
	t.Parallel()

	l, _ := newLimiter(t, 1, time.Minute)
	ctx := context.Background()

	ok, err := l.Allow(ctx, "1.2.3.4")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = l.Allow(ctx, "1.2.3.4")
	require.NoError(t, err)
	require.False(t, ok)

	// Другой ключ считается отдельно.
	ok, err = l.Allow(ctx, "5.6.7.8")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestAllow_WindowResets(t *testing.T) {
	t.Parallel()

	l, mr := newLimiter(t, 1, time.Minute)
	ctx := context.Background()

	ok, err := l.Allow(ctx, "1.2.3.4")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = l.Allow(ctx, "1.2.3.4")
	require.NoError(t, err)
	require.False(t, ok)

	// Окно истекло: счётчик должен исчезнуть вместе с TTL.
	mr.FastForward(time.Minute + time.Second)

	ok, err = l.Allow(ctx, "1.2.3.4")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestAllow_FirstIncrSetsTTL(t *testing.T) {
	t.Parallel()

	l, mr := newLimiter(t, 10, time.Minute)

	_, err := l.Allow(context.Background(), "1.2.3.4")
	require.NoError(t, err)

	require.Positive(t, mr.TTL("auth:rl:1.2.3.4"))
}
