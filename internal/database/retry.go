package database

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

const (
	connectAttempts = 5
	connectBackoff  = 500 * time.Millisecond
)

// ping retries check with doubling backoff so the server can start alongside
// its backing services.
func ping(ctx context.Context, log zerolog.Logger, name string, check func(context.Context) error) error {
	wait := connectBackoff
	var err error
	for attempt := 1; attempt <= connectAttempts; attempt++ {
		if err = check(ctx); err == nil {
			return nil
		}
		if attempt == connectAttempts {
			break
		}
		log.Warn().Err(err).Str("backend", name).Int("attempt", attempt).Dur("retry_in", wait).Msg("Backend not ready")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
		wait *= 2
	}
	return err
}
