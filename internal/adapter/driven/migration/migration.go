// Package migration loads forward-only SQL migrations from an embedded
// filesystem and applies them with golang-migrate.
package migration

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"sort"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/source"
)

// Migration is one named schema change. SQL may hold several statements.
type Migration struct {
	Version uint
	Name    string
	SQL     string
}

// Load reads every "NNNNNN_name.up.sql" file in dir and returns them ordered
// by version. Down migrations are not supported.
func Load(fsys fs.FS, dir string) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("read migrations dir: %w", err)
	}

	var migrations []Migration
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		m, err := source.DefaultParse(entry.Name())
		if err != nil {
			return nil, fmt.Errorf("parse migration filename %q: %w", entry.Name(), err)
		}
		if m.Direction != source.Up {
			return nil, fmt.Errorf("migration %q: only up migrations are supported", entry.Name())
		}

		body, err := fs.ReadFile(fsys, path.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("read migration %q: %w", entry.Name(), err)
		}

		migrations = append(migrations, Migration{
			Version: m.Version,
			Name:    m.Identifier,
			SQL:     string(body),
		})
	}

	sort.Slice(migrations, func(i, j int) bool { return migrations[i].Version < migrations[j].Version })

	for i := 1; i < len(migrations); i++ {
		if migrations[i].Version == migrations[i-1].Version {
			return nil, fmt.Errorf("duplicate migration version %d", migrations[i].Version)
		}
	}

	return migrations, nil
}

// Run applies every migration in migrations that the database has not seen
// yet, in version order. Already-applied versions are skipped via
// golang-migrate's schema_migrations ledger. Any failure is returned as-is and
// leaves the ledger dirty.
func Run(migrations []Migration, databaseName string, dbDriver database.Driver, logger *slog.Logger) error {
	src, err := newRecordSource(migrations)
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	m, err := migrate.NewWithInstance("records", src, databaseName, dbDriver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("read migration version: %w", err)
	}
	logger.Info("schema at version", "database", databaseName, "version", version, "dirty", dirty)

	return nil
}

// LoadAndRun loads the migrations in dir and applies them. A migration set
// that Load rejects is never applied.
func LoadAndRun(fsys fs.FS, dir, databaseName string, dbDriver database.Driver, logger *slog.Logger) error {
	migrations, err := Load(fsys, dir)
	if err != nil {
		return err
	}
	return Run(migrations, databaseName, dbDriver, logger)
}
