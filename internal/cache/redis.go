package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/stemsi/exstem-progress/internal/model"
)

// RedisCache is a ReportCache that stores reports as JSON in Redis, shared
// by every server process.
type RedisCache struct {
	rdb *redis.Client
}

func NewRedisCache(rdb *redis.Client) *RedisCache {
	return &RedisCache{rdb: rdb}
}

func (c *RedisCache) Get(ctx context.Context, key string) (*model.Report, bool, error) {
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("get %s: %w", key, err)
	}

	var report model.Report
	if err := json.Unmarshal(raw, &report); err != nil {
		return nil, false, fmt.Errorf("decode %s: %w", key, err)
	}
	return &report, true, nil
}

// Set stores report. A zero ttl keeps the key without expiry.
func (c *RedisCache) Set(ctx context.Context, key string, report *model.Report, ttl time.Duration) error {
	raw, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return c.rdb.Set(ctx, key, raw, ttl).Err()
}

func (c *RedisCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return c.rdb.Del(ctx, keys...).Err()
}
