// Package storage persists binder state in SQLite.
package storage

import (
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// DB wraps the database connection.
type DB struct {
	conn *sql.DB
}

// Config holds database configuration settings.
type Config struct {
	// Path is the file path to the SQLite database.
	// Use ":memory:" for an in-memory database (useful for testing).
	Path string

	// MaxOpenConns sets the maximum number of open connections to the database.
	// Forced to 1 for in-memory databases, which are private to a connection.
	// Default: 4
	MaxOpenConns int

	// MaxIdleConns sets the maximum number of idle connections in the pool.
	// Default: 2
	MaxIdleConns int

	// ConnMaxLifetime sets the maximum amount of time a connection may be reused.
	// Default: 5 minutes
	ConnMaxLifetime time.Duration

	// BusyTimeout sets how long SQLite waits when the database is locked.
	// Default: 5 seconds
	BusyTimeout time.Duration

	// JournalMode sets the SQLite journal mode.
	// Options: DELETE, TRUNCATE, PERSIST, MEMORY, WAL, OFF
	// Default: WAL
	JournalMode string

	// Synchronous sets the SQLite synchronous mode.
	// Options: OFF, NORMAL, FULL, EXTRA
	// Default: NORMAL
	Synchronous string

	// AutoMigrate runs pending migrations on Open.
	AutoMigrate bool
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig(path string) *Config {
	return &Config{
		Path:            path,
		MaxOpenConns:    4,
		MaxIdleConns:    2,
		ConnMaxLifetime: 5 * time.Minute,
		BusyTimeout:     5 * time.Second,
		JournalMode:     "WAL",
		Synchronous:     "NORMAL",
	}
}

func (c *Config) inMemory() bool {
	return c.Path == ":memory:"
}

// dsn builds a modernc.org/sqlite DSN. Pragmas are applied on every new connection.
func (c *Config) dsn() string {
	pragmas := []string{
		fmt.Sprintf("busy_timeout(%d)", c.BusyTimeout.Milliseconds()),
		"foreign_keys(1)",
	}
	if !c.inMemory() {
		pragmas = append(pragmas,
			fmt.Sprintf("journal_mode(%s)", strings.ToUpper(c.JournalMode)),
			fmt.Sprintf("synchronous(%s)", strings.ToUpper(c.Synchronous)),
		)
	}

	q := url.Values{}
	for _, p := range pragmas {
		q.Add("_pragma", p)
	}
	return "file:" + c.Path + "?" + q.Encode()
}

// Open creates a new database connection with the given configuration.
func Open(config *Config) (*DB, error) {
	if config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	if !config.inMemory() {
		dir := filepath.Dir(config.Path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	conn, err := sql.Open("sqlite", config.dsn())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	maxOpen := config.MaxOpenConns
	if config.inMemory() {
		maxOpen = 1
	}
	conn.SetMaxOpenConns(maxOpen)
	conn.SetMaxIdleConns(min(config.MaxIdleConns, maxOpen))
	if !config.inMemory() {
		conn.SetConnMaxLifetime(config.ConnMaxLifetime)
	}

	if err := conn.Ping(); err != nil {
		if closeErr := conn.Close(); closeErr != nil {
			return nil, fmt.Errorf("failed to close database after ping error: %w (original error: %v)", closeErr, err)
		}
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db := &DB{conn: conn}

	if config.AutoMigrate {
		mgr, err := NewMigrationManagerForDB(conn)
		if err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("failed to create migration manager: %w", err)
		}
		if err := mgr.Up(); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	if db.conn == nil {
		return nil
	}
	return db.conn.Close()
}

// Conn returns the underlying sql.DB connection.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Ping verifies the database connection is alive.
func (db *DB) Ping() error {
	return db.conn.Ping()
}
