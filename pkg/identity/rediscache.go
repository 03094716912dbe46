package identity

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
)

const redisKeyPrefix = "commander:edges:"

// RedisEdgeCache is an EdgeCache backed by Redis, for multi-replica
// deployments where every API instance should observe the same cached edge
// sets and invalidations.
type RedisEdgeCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisEdgeCache creates a cache on the given client with per-entry ttl.
func NewRedisEdgeCache(client *redis.Client, ttl time.Duration) *RedisEdgeCache {
	return &RedisEdgeCache{client: client, ttl: ttl}
}

func (c *RedisEdgeCache) Get(ctx context.Context, key string) (IDSet, bool) {
	raw, err := c.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if err != nil {
		// Treat any Redis failure as a miss; the database remains the
		// source of truth.
		return nil, false
	}
	var ids []int64
	if err := json.Unmarshal(raw, &ids); err != nil {
		return nil, false
	}
	return NewIDSet(ids...), true
}

func (c *RedisEdgeCache) Set(ctx context.Context, key string, ids IDSet) {
	raw, err := json.Marshal(ids.Sorted())
	if err != nil {
		return
	}
	c.client.Set(ctx, redisKeyPrefix+key, raw, c.ttl)
}

func (c *RedisEdgeCache) Invalidate(ctx context.Context, prefix string) {
	keys, err := c.client.Keys(ctx, redisKeyPrefix+prefix+"*").Result()
	if err != nil || len(keys) == 0 {
		return
	}
	c.client.Del(ctx, keys...)
}
