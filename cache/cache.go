// Package cache is a read-through Redis cache for listings that change
// rarely (menu, tables). A Cache without a client is a no-op.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/brewcraft/restaurant-backend/utils"
	"github.com/redis/go-redis/v9"
)

const (
	KeyMenu   = "menu:categories"
	KeyTables = "tables:"
)

type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

func New(client *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Cache{client: client, ttl: ttl}
}

// NewFromURL connects using a redis:// URL. An empty URL disables caching.
func NewFromURL(ctx context.Context, url string, ttl time.Duration) (*Cache, error) {
	if url == "" {
		return New(nil, ttl), nil
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return New(client, ttl), nil
}

func (c *Cache) Enabled() bool {
	return c != nil && c.client != nil
}

func (c *Cache) Close() error {
	if !c.Enabled() {
		return nil
	}
	return c.client.Close()
}

// Remember returns the cached value for key, or calls fetch and caches its
// result. Redis failures degrade to calling fetch.
func Remember[T any](ctx context.Context, c *Cache, key string, fetch func(context.Context) (T, error)) (T, error) {
	if !c.Enabled() {
		return fetch(ctx)
	}

	raw, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		var v T
		if err := json.Unmarshal(raw, &v); err == nil {
			return v, nil
		}
		utils.ErrorLogger.Printf("cache: corrupt entry %s, refetching", key)
	} else if !errors.Is(err, redis.Nil) {
		utils.ErrorLogger.Printf("cache: get %s: %v", key, err)
	}

	v, err := fetch(ctx)
	if err != nil {
		return v, err
	}

	if data, err := json.Marshal(v); err == nil {
		if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
			utils.ErrorLogger.Printf("cache: set %s: %v", key, err)
		}
	}
	return v, nil
}

// Invalidate deletes every key matching the glob pattern.
func (c *Cache) Invalidate(ctx context.Context, pattern string) error {
	if !c.Enabled() {
		return nil
	}

	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

// InvalidateQuietly logs instead of returning the error; callers have
// already committed their write.
func (c *Cache) InvalidateQuietly(ctx context.Context, pattern string) {
	if err := c.Invalidate(ctx, pattern); err != nil {
		utils.ErrorLogger.Printf("cache: invalidate %s: %v", pattern, err)
	}
}
