package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// SyncStatus records the outcome of the most recent external sync cycle.
// Sync failures are surfaced here, never to scan-path callers.
type SyncStatus struct {
	LastRun        time.Time `json:"last_run"`
	Success        bool      `json:"success"`
	Error          string    `json:"error,omitempty"`
	JobsReconciled int       `json:"jobs_reconciled"`
	ItemsAdjusted  int       `json:"items_adjusted"`
}

// Cache is the caching interface. All cache operations go through here.
// Implementations must be safe for concurrent use.
type Cache interface {
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
	IncrWithExpiry(ctx context.Context, key string, expiry time.Duration) (int64, error)
	SetSyncStatus(ctx context.Context, status SyncStatus) error
	GetSyncStatus(ctx context.Context) (SyncStatus, bool, error)
	SetSyncCursor(ctx context.Context, cursor time.Time) error
	GetSyncCursor(ctx context.Context) (time.Time, bool, error)
}

// RedisCache implements the Cache interface using go-redis/v9.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache creates a new RedisCache from a Redis URL.
func NewRedisCache(redisURL string) (*RedisCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	return &RedisCache{client: redis.NewClient(opts)}, nil
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.client.Set(ctx, key, value, ttl).Err()
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

func (c *RedisCache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, key).Err()
}

func (c *RedisCache) IncrWithExpiry(ctx context.Context, key string, expiry time.Duration) (int64, error) {
	pipe := c.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, expiry)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

func (c *RedisCache) SetSyncStatus(ctx context.Context, status SyncStatus) error {
	b, err := json.Marshal(status)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, SyncStatusKey(), b, 0).Err()
}

func (c *RedisCache) GetSyncStatus(ctx context.Context) (SyncStatus, bool, error) {
	val, err := c.client.Get(ctx, SyncStatusKey()).Bytes()
	if err == redis.Nil {
		return SyncStatus{}, false, nil
	}
	if err != nil {
		return SyncStatus{}, false, err
	}
	var status SyncStatus
	if err := json.Unmarshal(val, &status); err != nil {
		return SyncStatus{}, false, err
	}
	return status, true, nil
}

func (c *RedisCache) SetSyncCursor(ctx context.Context, cursor time.Time) error {
	return c.client.Set(ctx, SyncCursorKey(), cursor.UTC().Format(time.RFC3339), 0).Err()
}

func (c *RedisCache) GetSyncCursor(ctx context.Context) (time.Time, bool, error) {
	val, err := c.client.Get(ctx, SyncCursorKey()).Result()
	if err == redis.Nil {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	cursor, err := time.Parse(time.RFC3339, val)
	if err != nil {
		return time.Time{}, false, err
	}
	return cursor, true, nil
}

// Compile-time check that RedisCache implements Cache.
var _ Cache = (*RedisCache)(nil)
