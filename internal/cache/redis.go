package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iconidentify/newsreel/internal/domain"
)

// RedisClient is the subset of *redis.Client the cache uses.
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Ping(ctx context.Context) *redis.StatusCmd
}

// RedisCache shares feed pages between instances through Redis.
type RedisCache struct {
	client RedisClient
	ttl    time.Duration
	prefix string
}

// NewRedisCache creates a Redis-backed cache. Entries expire after ttl.
func NewRedisCache(client RedisClient, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl, prefix: "newsreel:"}
}

// Get implements FeedCache.
func (c *RedisCache) Get(ctx context.Context, key string) (*domain.FeedPage, bool, error) {
	data, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		cacheMissesTotal.WithLabelValues("redis").Inc()
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("redis get: %w", err)
	}

	var page domain.FeedPage
	if err := json.Unmarshal(data, &page); err != nil {
		cacheMissesTotal.WithLabelValues("redis").Inc()
		return nil, false, fmt.Errorf("decode cached page: %w", err)
	}
	cacheHitsTotal.WithLabelValues("redis").Inc()
	return &page, true, nil
}

// Set implements FeedCache.
func (c *RedisCache) Set(ctx context.Context, key string, page *domain.FeedPage) error {
	data, err := json.Marshal(page)
	if err != nil {
		return fmt.Errorf("encode page: %w", err)
	}
	if err := c.client.Set(ctx, c.prefix+key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Ping checks the Redis connection.
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
