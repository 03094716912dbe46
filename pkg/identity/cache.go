package identity

import (
	"context"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// LRUEdgeCache is an in-process EdgeCache backed by an expirable LRU.
// Suitable for single-replica deployments; entries expire after the
// configured TTL so revoked memberships converge without explicit
// invalidation.
type LRUEdgeCache struct {
	lru *expirable.LRU[string, IDSet]
}

// NewLRUEdgeCache creates a cache holding at most size entries, each living
// at most ttl.
func NewLRUEdgeCache(size int, ttl time.Duration) *LRUEdgeCache {
	return &LRUEdgeCache{lru: expirable.NewLRU[string, IDSet](size, nil, ttl)}
}

func (c *LRUEdgeCache) Get(_ context.Context, key string) (IDSet, bool) {
	ids, ok := c.lru.Get(key)
	if !ok {
		return nil, false
	}
	// Hand out a copy so callers cannot mutate the cached set.
	return ids.Union(), true
}

func (c *LRUEdgeCache) Set(_ context.Context, key string, ids IDSet) {
	c.lru.Add(key, ids.Union())
}

func (c *LRUEdgeCache) Invalidate(_ context.Context, prefix string) {
	if prefix == "" {
		c.lru.Purge()
		return
	}
	for _, key := range c.lru.Keys() {
		if strings.HasPrefix(key, prefix) {
			c.lru.Remove(key)
		}
	}
}
