package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*FollowerCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	c := NewFollowerCache(rdb, time.Minute)
	require.NotNil(t, c)
	return c, mr
}

func TestGetMissesUncachedBoard(t *testing.T) {
	c, _ := newTestCache(t)
	ids, ok := c.Get(context.Background(), "b1")
	assert.False(t, ok)
	assert.Nil(t, ids)
}

func TestSetThenGet(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	c.Set(ctx, "b1", []string{"u1", "u2"})
	ids, ok := c.Get(ctx, "b1")
	assert.True(t, ok)
	assert.Equal(t, []string{"u1", "u2"}, ids)
}

func TestEmptyFollowerSetIsCached(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	c.Set(ctx, "b1", nil)
	ids, ok := c.Get(ctx, "b1")
	assert.True(t, ok, "cached empty set must not read as a miss")
	assert.Empty(t, ids)
}

func TestInvalidateEvictsBoard(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	c.Set(ctx, "b1", []string{"u1"})
	c.Invalidate(ctx, "b1")
	_, ok := c.Get(ctx, "b1")
	assert.False(t, ok)
}

func TestEntriesExpire(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	c.Set(ctx, "b1", []string{"u1"})
	mr.FastForward(2 * time.Minute)
	_, ok := c.Get(ctx, "b1")
	assert.False(t, ok)
}

func TestNilCacheIsNoOp(t *testing.T) {
	var c *FollowerCache
	ctx := context.Background()

	c.Set(ctx, "b1", []string{"u1"})
	c.Invalidate(ctx, "b1")
	ids, ok := c.Get(ctx, "b1")
	assert.False(t, ok)
	assert.Nil(t, ids)
}
