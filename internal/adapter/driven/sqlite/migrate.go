package sqlite

import (
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/golang-migrate/migrate/v4/database"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"

	"github.com/ericfisherdev/graphdesk/internal/adapter/driven/migration"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrations returns the embedded schema migrations in the order they apply.
func Migrations() ([]migration.Migration, error) {
	return migration.Load(migrationsFS, "migrations")
}

// RunMigrations applies all pending database migrations embedded in the binary.
// It is safe to call on every startup; already-applied migrations are skipped.
func RunMigrations(db *sql.DB, logger *slog.Logger) error {
	dbDriver, err := migratesqlite.WithInstance(db, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("create migration db driver: %w", err)
	}

	return runMigrations(migrationsFS, "migrations", dbDriver, logger)
}

// runMigrations validates and applies the migrations in dir of fsys. A set
// that fails validation is not applied.
func runMigrations(fsys fs.FS, dir string, dbDriver database.Driver, logger *slog.Logger) error {
	return migration.LoadAndRun(fsys, dir, "sqlite", dbDriver, logger)
}
