// Package postgres implements the APIKeyStore port on PostgreSQL.
package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// DB wraps a sqlx connection pool opened with the lib/pq driver.
type DB struct {
	*sqlx.DB
}

// NewDB opens and pings a connection pool for databaseURL.
func NewDB(ctx context.Context, databaseURL string) (*DB, error) {
	db, err := sqlx.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &DB{DB: db}, nil
}
