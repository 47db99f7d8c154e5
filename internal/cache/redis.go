package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/oggyb/muzz-swipe/internal/config"
)

type RedisCache struct {
	Client *redis.Client
}

// Receipt is the cached answer to an applied decision write.
type Receipt struct {
	Accepted bool `json:"accepted"`
	Matched  bool `json:"matched"`
}

// NewRedisCache initializes Redis client from config.
// Only Addr is mandatory, Password/DB are optional.
func NewRedisCache(cfg *config.Config) *RedisCache {
	opts := &redis.Options{
		Addr: cfg.Redis.Addr,
	}
	if cfg.Redis.Password != "" {
		opts.Password = cfg.Redis.Password
	}
	if cfg.Redis.DB != 0 {
		opts.DB = cfg.Redis.DB
	}
	return &RedisCache{Client: redis.NewClient(opts)}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.Client.Ping(ctx).Err()
}

func (c *RedisCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return c.Client.Set(ctx, key, value, ttl).Err()
}

func (c *RedisCache) Get(ctx context.Context, key string) (string, error) {
	return c.Client.Get(ctx, key).Result()
}

func (c *RedisCache) Del(ctx context.Context, key string) error {
	return c.Client.Del(ctx, key).Err()
}

// KeyForReceipt generates the Redis key of an idempotent decision receipt
func (c *RedisCache) KeyForReceipt(actorID uint64, idempotencyKey string) string {
	return fmt.Sprintf("swipe:receipt:%d:%s", actorID, idempotencyKey)
}

// PutReceipt stores a receipt unless one is already recorded for the key.
// It reports whether this call stored it.
func (c *RedisCache) PutReceipt(ctx context.Context, actorID uint64, idempotencyKey string, r Receipt, ttl time.Duration) (bool, error) {
	raw, err := json.Marshal(r)
	if err != nil {
		return false, err
	}
	return c.Client.SetNX(ctx, c.KeyForReceipt(actorID, idempotencyKey), raw, ttl).Result()
}

// GetReceipt returns the cached receipt, or ok=false on a miss.
func (c *RedisCache) GetReceipt(ctx context.Context, actorID uint64, idempotencyKey string) (r Receipt, ok bool, err error) {
	raw, err := c.Client.Get(ctx, c.KeyForReceipt(actorID, idempotencyKey)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Receipt{}, false, nil // cache miss
	} else if err != nil {
		return Receipt{}, false, err
	}
	if err := json.Unmarshal(raw, &r); err != nil {
		return Receipt{}, false, fmt.Errorf("decode receipt: %w", err)
	}
	return r, true, nil
}
