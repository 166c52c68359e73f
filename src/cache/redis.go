package cache

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "wpmarket:"

// RedisCache stores entries in Redis with the class TTL pushed down to the
// server, so expiry needs no sweep on our side. Used when several API
// instances should share one quote cache.
type RedisCache struct {
	client *redis.Client
	ttls   TTLs
}

// -----------------------------------------------------------------------------

func NewRedisCache(addr string, ttls TTLs) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisCache{client: client, ttls: ttls}, nil
}

// -----------------------------------------------------------------------------

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool) {
	data, err := c.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if err != nil {
		return nil, false
	}
	return data, true
}

// -----------------------------------------------------------------------------

func (c *RedisCache) Put(ctx context.Context, key string, payload []byte, class string) error {
	if err := c.client.Set(ctx, redisKeyPrefix+key, payload, c.ttls.ForClass(class)).Err(); err != nil {
		return fmt.Errorf("failed to set cache entry: %w", err)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (c *RedisCache) Clear(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, redisKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

// -----------------------------------------------------------------------------

func (c *RedisCache) Close() error {
	return c.client.Close()
}
