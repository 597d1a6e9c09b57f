package rates

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/lmoraes-dev/exportdesk-backend/pkg/redis"
)

// RedisCache keeps the last successfully fetched rate per pair in Redis so a
// provider outage degrades to the most recent market value, not straight to
// the hard-coded fallback.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache builds the cache. A zero TTL keeps entries until overwritten.
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

// GetLast returns the cached rate for the pair, or an error when absent.
func (c *RedisCache) GetLast(ctx context.Context, pair string) (decimal.Decimal, error) {
	raw, err := c.client.Get(ctx, c.client.RateKey(pair))
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return decimal.Zero, errors.New("no cached rate for pair " + pair)
		}
		return decimal.Zero, err
	}
	return decimal.NewFromString(raw)
}

// SetLast stores the rate for the pair.
func (c *RedisCache) SetLast(ctx context.Context, pair string, rate decimal.Decimal) error {
	return c.client.Set(ctx, c.client.RateKey(pair), rate.String(), c.ttl)
}
