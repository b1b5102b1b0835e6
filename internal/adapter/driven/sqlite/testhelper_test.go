package sqlite

import (
	"context"
	"log/slog"
	"testing"
)

// openTestDB opens a named shared in-memory database without migrations.
// The name comes from t.Name() so parallel tests stay isolated while the
// writer and reader pools still see the same data.
func openTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := Open(context.Background(), Options{Path: t.Name(), Memory: true})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	return db
}

// setupTestDB returns a fully migrated in-memory database.
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	db := openTestDB(t)
	if err := RunMigrations(db.Writer, slog.New(slog.DiscardHandler)); err != nil {
		t.Fatalf("run migrations: %v", err)
	}

	return db
}
