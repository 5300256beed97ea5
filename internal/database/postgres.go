package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/stemsi/exstem-progress/internal/config"
)

// NewPostgresPool opens the report store pool and waits for the database to
// answer.
func NewPostgresPool(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*pgxpool.Pool, error) {
	pcfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}
	pcfg.MaxConns = cfg.MaxDBConns
	pcfg.MaxConnIdleTime = 5 * time.Minute
	pcfg.HealthCheckPeriod = time.Minute
	pcfg.ConnConfig.RuntimeParams["application_name"] = "exstem-progress"

	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := ping(ctx, log, "postgres", pool.Ping); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	log.Info().
		Str("host", pcfg.ConnConfig.Host).
		Str("database", pcfg.ConnConfig.Database).
		Int32("max_conns", pcfg.MaxConns).
		Msg("PostgreSQL connected")
	return pool, nil
}
