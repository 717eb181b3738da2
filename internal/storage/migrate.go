package storage

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// MigrationManager handles database schema migrations.
type MigrationManager struct {
	migrate *migrate.Migrate

	// ownsDB is false when the manager runs on a caller's connection;
	// closing the migrate instance would close that connection too.
	ownsDB bool
}

// newSource creates a source driver over the embedded migration files.
func newSource() (source.Driver, error) {
	migrationsDir, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to access migrations directory: %w", err)
	}
	src, err := iofs.New(migrationsDir, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to create source driver: %w", err)
	}
	return src, nil
}

// NewMigrationManager creates a migration manager for the database file at dbPath.
func NewMigrationManager(dbPath string) (*MigrationManager, error) {
	src, err := newSource()
	if err != nil {
		return nil, err
	}

	// Convert Windows backslashes to forward slashes and ensure absolute paths have leading slash
	normalizedPath := filepath.ToSlash(dbPath)
	if filepath.IsAbs(dbPath) && normalizedPath[0] != '/' {
		normalizedPath = "/" + normalizedPath
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, fmt.Sprintf("sqlite://%s", normalizedPath))
	if err != nil {
		return nil, fmt.Errorf("failed to create migration instance: %w", err)
	}

	return &MigrationManager{migrate: m, ownsDB: true}, nil
}

// NewMigrationManagerForDB creates a migration manager on an open connection.
// Required for in-memory databases, which only exist on their own connection.
func NewMigrationManagerForDB(conn *sql.DB) (*MigrationManager, error) {
	src, err := newSource()
	if err != nil {
		return nil, err
	}

	driver, err := sqlite.WithInstance(conn, &sqlite.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to create database driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migration instance: %w", err)
	}

	return &MigrationManager{migrate: m}, nil
}

// Up applies all pending migrations.
func (mm *MigrationManager) Up() error {
	err := mm.migrate.Up()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

// Down rolls back all migrations.
func (mm *MigrationManager) Down() error {
	err := mm.migrate.Down()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to rollback migrations: %w", err)
	}
	return nil
}

// Version returns the current migration version and dirty state.
func (mm *MigrationManager) Version() (version uint, dirty bool, err error) {
	version, dirty, err = mm.migrate.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, fmt.Errorf("failed to get migration version: %w", err)
	}
	return version, dirty, nil
}

// Close releases the migration manager. Connections passed to
// NewMigrationManagerForDB stay open.
func (mm *MigrationManager) Close() error {
	if !mm.ownsDB {
		return nil
	}
	srcErr, dbErr := mm.migrate.Close()
	if srcErr != nil {
		return fmt.Errorf("failed to close source: %w", srcErr)
	}
	if dbErr != nil {
		return fmt.Errorf("failed to close database: %w", dbErr)
	}
	return nil
}
