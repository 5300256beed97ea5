package cache

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/stemsi/exstem-progress/internal/model"
)

// DefaultVolatileTTL bounds how long a process serves its local copy of a key
// that other processes rewrite, such as the latest report.
const DefaultVolatileTTL = 5 * time.Second

// Layered reads through a fast local cache to a shared one, filling the
// local layer on a shared hit. Writes go to both.
type Layered struct {
	local    ReportCache
	shared   ReportCache
	localTTL time.Duration
	volatile map[string]time.Duration
	log      zerolog.Logger
}

func NewLayered(local, shared ReportCache, localTTL time.Duration, log zerolog.Logger) *Layered {
	return &Layered{
		local:    local,
		shared:   shared,
		localTTL: localTTL,
		volatile: make(map[string]time.Duration),
		log:      log.With().Str("component", "layered_cache").Logger(),
	}
}

// Volatile caps the local lifetime of key at ttl. Call it before the cache is
// shared between goroutines.
func (c *Layered) Volatile(key string, ttl time.Duration) *Layered {
	c.volatile[key] = ttl
	return c
}

// ttlFor is the local TTL for key given the caller's ttl (zero means none).
func (c *Layered) ttlFor(key string, ttl time.Duration) time.Duration {
	local := c.localTTL
	if ttl > 0 && (local == 0 || ttl < local) {
		local = ttl
	}
	if limit, ok := c.volatile[key]; ok && (local == 0 || limit < local) {
		local = limit
	}
	return local
}

func (c *Layered) Get(ctx context.Context, key string) (*model.Report, bool, error) {
	if report, ok, _ := c.local.Get(ctx, key); ok {
		return report, true, nil
	}

	report, ok, err := c.shared.Get(ctx, key)
	if err != nil || !ok {
		return nil, false, err
	}

	if err := c.local.Set(ctx, key, report, c.ttlFor(key, 0)); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("Failed to fill local cache")
	}
	return report, true, nil
}

func (c *Layered) Set(ctx context.Context, key string, report *model.Report, ttl time.Duration) error {
	if err := c.local.Set(ctx, key, report, c.ttlFor(key, ttl)); err != nil {
		return err
	}
	return c.shared.Set(ctx, key, report, ttl)
}

func (c *Layered) Delete(ctx context.Context, keys ...string) error {
	if err := c.local.Delete(ctx, keys...); err != nil {
		return err
	}
	return c.shared.Delete(ctx, keys...)
}
