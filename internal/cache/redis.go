package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"

	"example.com/backstage/services/orders/config"
)

// markerTTL bounds how long an ingested transaction id stays in the
// fast duplicate pre-check. The database keys remain the authority.
const markerTTL = 24 * time.Hour

// RedisCache keeps an advisory record of recently ingested transaction
// ids so obvious duplicates can be rejected without a database round trip.
type RedisCache struct {
	client  *redis.Client
	enabled bool
}

// NewRedisCache creates a new Redis cache
func NewRedisCache(cfg config.RedisConfig) (*RedisCache, error) {
	if !cfg.Enabled {
		return &RedisCache{enabled: false}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Test the connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, errors.Wrap(err, "failed to connect to Redis")
	}

	return &RedisCache{
		client:  client,
		enabled: true,
	}, nil
}

// TransactionKey generates the cache key for an ingested transaction id
func TransactionKey(transactionID string) string {
	return fmt.Sprintf("order:ingested:%s", transactionID)
}

// WasIngested reports whether a transaction id was recently recorded as
// ingested. A disabled cache always answers false.
func (c *RedisCache) WasIngested(ctx context.Context, transactionID string) (bool, error) {
	if c == nil || !c.enabled {
		return false, nil
	}

	n, err := c.client.Exists(ctx, TransactionKey(transactionID)).Result()
	if err != nil {
		return false, errors.Wrap(err, "failed to check ingested marker")
	}

	return n > 0, nil
}

// MarkIngested records a transaction id as ingested. Called only after
// the database write committed (or reported the id as a duplicate), so
// a failed ingest never blocks a later retry.
func (c *RedisCache) MarkIngested(ctx context.Context, transactionID string) error {
	if c == nil || !c.enabled {
		return nil
	}

	err := c.client.SetNX(ctx, TransactionKey(transactionID), 1, markerTTL).Err()
	if err != nil {
		return errors.Wrap(err, "failed to set ingested marker")
	}

	return nil
}

// Enabled reports whether the cache is backed by a live connection
func (c *RedisCache) Enabled() bool {
	return c != nil && c.enabled
}

// Ping checks the Redis connection
func (c *RedisCache) Ping(ctx context.Context) error {
	if c == nil || !c.enabled {
		return errors.New("cache is disabled")
	}
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (c *RedisCache) Close() error {
	if c == nil || !c.enabled || c.client == nil {
		return nil
	}

	return c.client.Close()
}
