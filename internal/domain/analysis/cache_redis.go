package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const cacheKeyPrefix = "medassist:resolution:"

type redisResolutionCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisResolutionCache returns a redis-backed resolution cache. Each
// resolved identity expires after ttl; misses and expirations both read
// as (nil, nil).
func NewRedisResolutionCache(redisURL string, ttl time.Duration) (ResolutionCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return &redisResolutionCache{client: redis.NewClient(opts), ttl: ttl}, nil
}

func (c *redisResolutionCache) Get(ctx context.Context, name string) (*ResolvedIdentity, error) {
	raw, err := c.client.Get(ctx, cacheKeyPrefix+name).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var identity ResolvedIdentity
	if err := json.Unmarshal(raw, &identity); err != nil {
		return nil, err
	}
	return &identity, nil
}

func (c *redisResolutionCache) Put(ctx context.Context, name string, identity ResolvedIdentity) error {
	raw, err := json.Marshal(identity)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, cacheKeyPrefix+name, raw, c.ttl).Err()
}
