package locate

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
)

// PositionCache keeps recent positions per requester.
type PositionCache interface {
	Get(ctx context.Context, key string) (Position, bool, error)
	Set(ctx context.Context, key string, p Position, ttl time.Duration) error
}

type memoryEntry struct {
	pos       Position
	expiresAt time.Time
}

// MemoryCache is an in-process PositionCache.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryCache creates an empty MemoryCache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]memoryEntry), now: time.Now}
}

// Get implements PositionCache.
func (c *MemoryCache) Get(_ context.Context, key string) (Position, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return Position{}, false, nil
	}
	if !c.now().Before(e.expiresAt) {
		delete(c.entries, key)
		return Position{}, false, nil
	}
	return e.pos, true, nil
}

// Set implements PositionCache.
func (c *MemoryCache) Set(_ context.Context, key string, p Position, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = memoryEntry{pos: p, expiresAt: c.now().Add(ttl)}
	return nil
}

// RedisCache stores positions as JSON with a TTL.
type RedisCache struct {
	rdb    redis.Cmdable
	prefix string
}

// NewRedisCache wraps a redis client.
func NewRedisCache(rdb redis.Cmdable) *RedisCache {
	return &RedisCache{rdb: rdb, prefix: "locate:pos:"}
}

// Get implements PositionCache.
func (c *RedisCache) Get(ctx context.Context, key string) (Position, bool, error) {
	raw, err := c.rdb.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return Position{}, false, nil
	}
	if err != nil {
		return Position{}, false, eris.Wrap(err, "position cache: get")
	}
	var p Position
	if err := json.Unmarshal(raw, &p); err != nil {
		return Position{}, false, eris.Wrap(err, "position cache: decode")
	}
	return p, true, nil
}

// Set implements PositionCache.
func (c *RedisCache) Set(ctx context.Context, key string, p Position, ttl time.Duration) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return eris.Wrap(err, "position cache: encode")
	}
	if err := c.rdb.Set(ctx, c.prefix+key, raw, ttl).Err(); err != nil {
		return eris.Wrap(err, "position cache: set")
	}
	return nil
}
