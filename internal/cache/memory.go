package cache

import (
	"context"
	"sync/atomic"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// memoryClient implementa Client sobre go-cache.
// Útil para desarrollo y testing: mismo contrato de TTL que Redis.
type memoryClient struct {
	prefix string
	c      *gocache.Cache
	hits   atomic.Int64
	misses atomic.Int64
}

// NewMemory crea un cliente en memoria.
func NewMemory(prefix string) *memoryClient {
	// Sin TTL por defecto; cada Set decide. Limpieza de expirados cada minuto.
	return &memoryClient{
		prefix: prefix,
		c:      gocache.New(gocache.NoExpiration, time.Minute),
	}
}

func (c *memoryClient) key(k string) string {
	if c.prefix == "" {
		return k
	}
	return c.prefix + ":" + k
}

func (c *memoryClient) Get(ctx context.Context, key string) (string, error) {
	v, ok := c.c.Get(c.key(key))
	if !ok {
		c.misses.Add(1)
		return "", ErrNotFound
	}
	s, ok := v.(string)
	if !ok {
		c.misses.Add(1)
		return "", ErrNotFound
	}
	c.hits.Add(1)
	return s, nil
}

func (c *memoryClient) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = gocache.NoExpiration
	}
	c.c.Set(c.key(key), value, ttl)
	return nil
}

func (c *memoryClient) Delete(ctx context.Context, key string) error {
	c.c.Delete(c.key(key))
	return nil
}

func (c *memoryClient) Ping(ctx context.Context) error {
	return nil
}

func (c *memoryClient) Close() error {
	c.c.Flush()
	return nil
}

func (c *memoryClient) Stats(ctx context.Context) (Stats, error) {
	return Stats{
		Driver: "memory",
		Keys:   int64(c.c.ItemCount()),
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
	}, nil
}
