package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// FollowerCache keeps per-board follower id lists in Redis so the
// dispatcher does not hit the follow store for every event on a hot
// board. Entries are invalidated on any follow mutation for the board
// and expire on TTL as a backstop. A nil *FollowerCache is a valid
// no-op cache.
type FollowerCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewFollowerCache(rdb *redis.Client, ttl time.Duration) *FollowerCache {
	if rdb == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &FollowerCache{rdb: rdb, ttl: ttl}
}

func key(boardID string) string { return fmt.Sprintf("board:followers:%s", boardID) }

// Get returns the cached follower ids and whether the board was cached
// at all. An empty follower set is cached as a sentinel element so it
// is distinguishable from a miss.
func (c *FollowerCache) Get(ctx context.Context, boardID string) ([]string, bool) {
	if c == nil {
		return nil, false
	}
	ids, err := c.rdb.LRange(ctx, key(boardID), 0, -1).Result()
	if err != nil || len(ids) == 0 {
		return nil, false
	}
	if len(ids) == 1 && ids[0] == emptyMarker {
		return []string{}, true
	}
	return ids, true
}

const emptyMarker = "__none__"

func (c *FollowerCache) Set(ctx context.Context, boardID string, ids []string) {
	if c == nil {
		return
	}
	vals := make([]interface{}, 0, len(ids)+1)
	for _, id := range ids {
		vals = append(vals, id)
	}
	if len(vals) == 0 {
		vals = append(vals, emptyMarker)
	}
	pipe := c.rdb.Pipeline()
	pipe.Del(ctx, key(boardID))
	pipe.RPush(ctx, key(boardID), vals...)
	pipe.Expire(ctx, key(boardID), c.ttl)
	_, _ = pipe.Exec(ctx)
}

func (c *FollowerCache) Invalidate(ctx context.Context, boardID string) {
	if c == nil {
		return
	}
	_ = c.rdb.Del(ctx, key(boardID)).Err()
}
