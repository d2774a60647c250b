package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client), mr
}

func TestRedisStoreSetGetDelete(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestRedisStore(t)

	require.NoError(t, store.Set(ctx, testSession("s1", time.Hour)))

	got, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)
	assert.Equal(t, RoleUser, got.Role)

	require.NoError(t, store.Delete(ctx, "s1"))
	_, err = store.Get(ctx, "s1")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestRedisStoreExpiry(t *testing.T) {
	ctx := context.Background()
	store, mr := newTestRedisStore(t)

	require.NoError(t, store.Set(ctx, testSession("s1", time.Hour)))

	mr.FastForward(2 * time.Hour)

	_, err := store.Get(ctx, "s1")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestRedisStoreSweepIsNoop(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestRedisStore(t)

	removed, err := store.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, removed)
}
