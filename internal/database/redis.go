package database

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/stemsi/exstem-progress/internal/config"
)

// NewRedisClient connects the client shared by the report cache and the
// persist queue.
func NewRedisClient(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*redis.Client, error) {
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	opt.ClientName = "exstem-progress"

	rdb := redis.NewClient(opt)
	err = ping(ctx, log, "redis", func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	})
	if err != nil {
		rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	log.Info().Str("addr", opt.Addr).Int("db", opt.DB).Msg("Redis connected")
	return rdb, nil
}
