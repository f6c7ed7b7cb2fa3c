package storage

import (
	"context"
	"time"

	"vesta/internal/cache"
)

// Cached is a read-through decorator keeping recently read or written blobs
// in an LRU cache. Writes go to the underlying port first; the cache only
// ever holds bytes the port accepted.
type Cached struct {
	next  Port
	cache *cache.LRUCache[[]byte]
}

func NewCached(next Port, size int, ttl time.Duration) *Cached {
	return &Cached{next: next, cache: cache.NewLRUCache[[]byte](size, ttl)}
}

// Cache exposes the underlying cache so a cache.Manager can sweep it.
func (c *Cached) Cache() *cache.LRUCache[[]byte] { return c.cache }

func (c *Cached) Read(ctx context.Context, key string) ([]byte, error) {
	if data, ok := c.cache.Get(key); ok {
		return clone(data), nil
	}
	data, err := c.next.Read(ctx, key)
	if err != nil {
		return nil, err
	}
	c.cache.Set(key, clone(data))
	return data, nil
}

func (c *Cached) Write(ctx context.Context, key string, data []byte) error {
	if err := c.next.Write(ctx, key, data); err != nil {
		c.cache.Delete(key)
		return err
	}
	c.cache.Set(key, clone(data))
	return nil
}

func (c *Cached) Remove(ctx context.Context, key string) error {
	c.cache.Delete(key)
	return c.next.Remove(ctx, key)
}

func (c *Cached) Close() error {
	c.cache.Purge()
	return Close(c.next)
}

func clone(b []byte) []byte {
	return append([]byte(nil), b...)
}
