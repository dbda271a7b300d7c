package price

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

// Cache stores recent quotes shared between processes
type Cache interface {
	Get(ctx context.Context, symbol string) (decimal.Decimal, bool, error)
	Set(ctx context.Context, symbol string, price decimal.Decimal, ttl time.Duration) error
}

// RedisCache keeps quotes in redis hashes under price:USD:<SYMBOL>
type RedisCache struct {
	rdb redis.Cmdable
}

// NewRedisCache creates a RedisCache
func NewRedisCache(rdb redis.Cmdable) *RedisCache {
	return &RedisCache{rdb: rdb}
}

func cacheKey(symbol string) string {
	return fmt.Sprintf("price:USD:%s", symbol)
}

// Get returns the cached price of symbol, if present
func (c *RedisCache) Get(ctx context.Context, symbol string) (decimal.Decimal, bool, error) {
	raw, err := c.rdb.HGet(ctx, cacheKey(symbol), "price").Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return decimal.Zero, false, nil
		}
		return decimal.Zero, false, err
	}
	p, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("bad cached price for %s: %w", symbol, err)
	}
	return p, true, nil
}

// Set stores the price of symbol for ttl
func (c *RedisCache) Set(ctx context.Context, symbol string, price decimal.Decimal, ttl time.Duration) error {
	key := cacheKey(symbol)
	pipe := c.rdb.TxPipeline()
	pipe.HSet(ctx, key, map[string]interface{}{
		"price":     price.String(),
		"timestamp": time.Now().UnixMilli(),
	})
	pipe.Expire(ctx, key, ttl)
	_, err := pipe.Exec(ctx)
	return err
}
