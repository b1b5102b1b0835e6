// Package sqlite implements the APIKeyStore port on SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// uriPath escapes the characters that would end the path part of a file: URI.
var uriPath = strings.NewReplacer("%", "%25", "?", "%3f", "#", "%23")

const (
	defaultMaxReaders  = 4
	defaultBusyTimeout = 5 * time.Second
)

// Options selects the database file and pool sizing for Open.
type Options struct {
	// Path is a filesystem path, or a database name when Memory is set.
	Path string
	// Memory opens a named shared-cache in-memory database. WAL is skipped
	// because it does not apply to memory databases.
	Memory      bool
	MaxReaders  int
	BusyTimeout time.Duration
}

func (o Options) dsn() string {
	q := url.Values{}
	if o.Memory {
		q.Set("mode", "memory")
		q.Set("cache", "shared")
	} else {
		q.Add("_pragma", "journal_mode(WAL)")
	}
	busy := o.BusyTimeout
	if busy <= 0 {
		busy = defaultBusyTimeout
	}
	q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", busy.Milliseconds()))
	q.Add("_pragma", "synchronous(NORMAL)")
	q.Add("_pragma", "foreign_keys(ON)")
	return "file:" + uriPath.Replace(o.Path) + "?" + q.Encode()
}

// DB holds a single-connection writer pool and a small reader pool over the
// same database. SQLite allows one writer at a time, so funnelling writes
// through one connection avoids "database is locked" errors.
type DB struct {
	Writer *sql.DB
	Reader *sql.DB
}

// NewDB opens the SQLite file at dbPath in WAL mode with default pool sizes.
func NewDB(ctx context.Context, dbPath string) (*DB, error) {
	return Open(ctx, Options{Path: dbPath})
}

// Open opens and pings the writer and reader pools described by opts.
func Open(ctx context.Context, opts Options) (*DB, error) {
	if opts.Path == "" {
		return nil, errors.New("sqlite: empty database path")
	}
	readers := opts.MaxReaders
	if readers <= 0 {
		readers = defaultMaxReaders
	}
	dsn := opts.dsn()

	writer, err := openPool(ctx, "writer", dsn, 1)
	if err != nil {
		return nil, err
	}
	reader, err := openPool(ctx, "reader", dsn, readers)
	if err != nil {
		_ = writer.Close()
		return nil, err
	}
	return &DB{Writer: writer, Reader: reader}, nil
}

func openPool(ctx context.Context, role, dsn string, maxConns int) (*sql.DB, error) {
	pool, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", role, err)
	}
	pool.SetMaxOpenConns(maxConns)

	if err := pool.PingContext(ctx); err != nil {
		_ = pool.Close()
		return nil, fmt.Errorf("ping %s: %w", role, err)
	}
	return pool, nil
}

// Close closes both pools and reports every failure.
func (db *DB) Close() error {
	var errs []error
	if err := db.Reader.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close reader: %w", err))
	}
	if err := db.Writer.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close writer: %w", err))
	}
	return errors.Join(errs...)
}
