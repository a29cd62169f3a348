// Package cache is a Redis-backed hot tier for fetched candle series,
// so repeated validation runs over the same window skip the exchange.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"

	"github.com/sawpanic/cryptovet/internal/domain"
)

// Cache stores JSON-marshaled series under TTL'd keys. It is optional
// plumbing: callers treat a miss and an absent cache the same way.
type Cache struct {
	rdb *redis.Client
	ttl time.Duration
}

// New connects to the given Redis address. The TTL applies to every
// stored series.
func New(addr string, ttl time.Duration) *Cache {
	return NewWithClient(redis.NewClient(&redis.Options{Addr: addr}), ttl)
}

// NewWithClient wraps an existing client, which tests swap for a mock.
func NewWithClient(rdb *redis.Client, ttl time.Duration) *Cache {
	return &Cache{rdb: rdb, ttl: ttl}
}

// Key derives the cache key for a fetch window. Identical windows hit
// the same entry regardless of who fetched first.
func Key(symbol string, interval time.Duration, start, end time.Time) string {
	return fmt.Sprintf("candles:%s:%dm:%d:%d",
		symbol, int(interval.Minutes()), start.Unix(), end.Unix())
}

// Get returns the cached series for key, reporting a miss (not an
// error) when the key is absent.
func (c *Cache) Get(ctx context.Context, key string) (domain.Series, bool, error) {
	payload, err := c.rdb.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache get %s: %w", key, err)
	}

	var series domain.Series
	if err := json.Unmarshal(payload, &series); err != nil {
		return nil, false, fmt.Errorf("cache decode %s: %w", key, err)
	}

	log.Debug().Str("key", key).Int("candles", len(series)).Msg("Cache hit")
	return series, true, nil
}

// Put stores the series under key with the cache's TTL.
func (c *Cache) Put(ctx context.Context, key string, series domain.Series) error {
	payload, err := json.Marshal(series)
	if err != nil {
		return fmt.Errorf("cache encode %s: %w", key, err)
	}

	if err := c.rdb.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache put %s: %w", key, err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (c *Cache) Close() error {
	return c.rdb.Close()
}
