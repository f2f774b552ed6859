package session

import (
	"context"
	"fmt"
	"testing"
	"time"

	"hospital-assistant/internal/common/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T, opts Options) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client, opts, logger.NewTestLogger(t)), mr
}

func TestRedisStore_AppendAndSnapshot(t *testing.T) {
	s, _ := newRedisStore(t, Options{})
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, "user-a", makeTurn("hello")))
	require.NoError(t, s.Append(ctx, "user-a", makeTurn("how are you")))

	turns, err := s.Snapshot(ctx, "user-a")
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, "hello", turns[0].UserText)
	assert.Equal(t, "how are you", turns[1].UserText)
}

func TestRedisStore_TurnBoundDropsOldest(t *testing.T) {
	s, _ := newRedisStore(t, Options{MaxTurns: 10})
	ctx := context.Background()

	for i := 1; i <= 11; i++ {
		require.NoError(t, s.Append(ctx, "user-a", makeTurn(fmt.Sprintf("turn %d", i))))
	}

	turns, err := s.Snapshot(ctx, "user-a")
	require.NoError(t, err)
	require.Len(t, turns, 10)
	assert.Equal(t, "turn 2", turns[0].UserText)
}

func TestRedisStore_IdleExpiry(t *testing.T) {
	s, mr := newRedisStore(t, Options{IdleTimeout: 30 * time.Minute})
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, "user-a", makeTurn("hello")))

	mr.FastForward(31 * time.Minute)

	turns, err := s.Snapshot(ctx, "user-a")
	require.NoError(t, err)
	assert.Empty(t, turns)
}

func TestRedisStore_ClearAndSize(t *testing.T) {
	s, _ := newRedisStore(t, Options{})
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, "user-a", makeTurn("a")))
	require.NoError(t, s.Append(ctx, "user-b", makeTurn("b")))

	size, err := s.Size(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, size)

	require.NoError(t, s.Clear(ctx, "user-a"))

	size, err = s.Size(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, size)

	turns, err := s.Snapshot(ctx, "user-a")
	require.NoError(t, err)
	assert.Empty(t, turns)
}

func TestRedisStore_BackendFailure(t *testing.T) {
	client, mock := redismock.NewClientMock()
	s := NewRedisStore(client, Options{}, logger.NewTestLogger(t))
	ctx := context.Background()

	mock.ExpectLRange("session:user-a", 0, -1).SetErr(fmt.Errorf("connection refused"))
	_, err := s.Snapshot(ctx, "user-a")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SESSION_BACKEND_FAILED")

	mock.ExpectDel("session:user-a").SetErr(fmt.Errorf("connection refused"))
	err = s.Clear(ctx, "user-a")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SESSION_BACKEND_FAILED")

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStore_UserIsolation(t *testing.T) {
	s, _ := newRedisStore(t, Options{})
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, "user-a", makeTurn("hello from a")))

	turns, err := s.Snapshot(ctx, "user-b")
	require.NoError(t, err)
	assert.Empty(t, turns)
}
