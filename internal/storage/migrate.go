package storage

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SchemaVersion is the migration level after RunMigrations.
type SchemaVersion struct {
	Version uint
	Dirty   bool
}

// RunMigrations applies pending migrations to the database at dbPath and
// reports the resulting version. The migrator owns a separate handle since
// closing it closes the underlying database.
func RunMigrations(dbPath string) (SchemaVersion, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return SchemaVersion{}, fmt.Errorf("open migration database: %w", err)
	}
	defer db.Close()

	m, err := newMigrator(db)
	if err != nil {
		return SchemaVersion{}, err
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return SchemaVersion{}, fmt.Errorf("migrate up: %w", err)
	}

	v, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return SchemaVersion{}, fmt.Errorf("read schema version: %w", err)
	}
	return SchemaVersion{Version: v, Dirty: dirty}, nil
}

func newMigrator(db *sql.DB) (*migrate.Migrate, error) {
	driver, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		return nil, fmt.Errorf("sqlite migration driver: %w", err)
	}
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("embedded migrations: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return nil, fmt.Errorf("create migrator: %w", err)
	}
	return m, nil
}
