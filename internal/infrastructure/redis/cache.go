package redis

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

const DefaultTTL = 300 * time.Second

// Cache is the cache-aside layer in front of the payment ledger. When
// the backend is unreachable every operation degrades to a no-op and
// reads always miss; the ledger stays the source of truth. This is the
// one place where errors are swallowed on purpose.
type Cache struct {
	client    *redis.Client
	ttl       time.Duration
	available atomic.Bool
}

func NewCache(addr, password string, db int, ttl time.Duration) *Cache {
	if ttl == 0 {
		ttl = DefaultTTL
	}
	c := &Cache{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
		ttl: ttl,
	}
	c.probe()
	go c.probeLoop()
	return c
}

func (c *Cache) probe() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	err := c.client.Ping(ctx).Err()
	if err != nil && c.available.Load() {
		slog.Warn("cache backend unreachable, degrading to no-op", "error", err.Error())
	}
	c.available.Store(err == nil)
}

func (c *Cache) probeLoop() {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	for range ticker.C {
		c.probe()
	}
}

func (c *Cache) Available() bool {
	return c.available.Load()
}

func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool) {
	if !c.Available() {
		return nil, false
	}
	value, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.available.Store(false)
		}
		return nil, false
	}
	return value, true
}

func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if !c.Available() {
		return
	}
	if ttl == 0 {
		ttl = c.ttl
	}
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		c.available.Store(false)
	}
}

func (c *Cache) Delete(ctx context.Context, key string) {
	if !c.Available() {
		return
	}
	if err := c.client.Del(ctx, key).Err(); err != nil {
		c.available.Store(false)
	}
}
