package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"

	"github.com/stemsi/exstem-progress/internal/model"
)

const (
	DefaultExpiration      = 10 * time.Minute
	DefaultCleanupInterval = 30 * time.Minute
)

// MemoryCache is a process-local ReportCache backed by go-cache.
type MemoryCache struct {
	cache *gocache.Cache
	log   zerolog.Logger
}

// NewMemoryCache creates an in-memory cache. A zero defaultExpiration keeps
// entries until they are deleted.
func NewMemoryCache(defaultExpiration, cleanupInterval time.Duration, log zerolog.Logger) *MemoryCache {
	if defaultExpiration == 0 {
		defaultExpiration = gocache.NoExpiration
	}
	return &MemoryCache{
		cache: gocache.New(defaultExpiration, cleanupInterval),
		log:   log.With().Str("component", "memory_cache").Logger(),
	}
}

func (c *MemoryCache) Get(_ context.Context, key string) (*model.Report, bool, error) {
	value, found := c.cache.Get(key)
	if !found {
		return nil, false, nil
	}

	report, ok := value.(*model.Report)
	if !ok {
		c.log.Error().Str("key", key).Msg("wrong type assertion when getting value")
		return nil, false, nil
	}

	c.log.Debug().Str("key", key).Msg("cache hit")
	return report, true, nil
}

// Set stores report. A zero ttl uses the cache's default expiration.
func (c *MemoryCache) Set(_ context.Context, key string, report *model.Report, ttl time.Duration) error {
	if ttl == 0 {
		ttl = gocache.DefaultExpiration
	}
	c.cache.Set(key, report, ttl)
	return nil
}

func (c *MemoryCache) Delete(_ context.Context, keys ...string) error {
	for _, key := range keys {
		c.cache.Delete(key)
	}
	return nil
}

// Flush removes every entry.
func (c *MemoryCache) Flush() {
	c.cache.Flush()
}
