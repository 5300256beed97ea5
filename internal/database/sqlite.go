package database

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
	"github.com/rs/zerolog"
)

// NewSQLite opens (creating if needed) a SQLite database file for the local
// report store.
func NewSQLite(ctx context.Context, path string, log zerolog.Logger) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", "file:"+path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	log.Debug().Str("path", path).Msg("SQLite opened")

	return db, nil
}
