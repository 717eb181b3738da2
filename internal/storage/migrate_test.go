package storage

import (
	"path/filepath"
	"testing"
)

func TestMigrationManager_UpDown(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "migration-test.db")

	mgr, err := NewMigrationManager(dbPath)
	if err != nil {
		t.Fatalf("Failed to create migration manager: %v", err)
	}
	if err := mgr.Up(); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	// Running again is a no-op.
	if err := mgr.Up(); err != nil {
		t.Fatalf("Second Up failed: %v", err)
	}

	version, dirty, err := mgr.Version()
	if err != nil {
		t.Fatalf("Failed to get migration version: %v", err)
	}
	if dirty {
		t.Error("Database is in dirty state after migrations")
	}
	if version != 1 {
		t.Errorf("Expected migration version 1, got %d", version)
	}

	if err := mgr.Down(); err != nil {
		t.Fatalf("Failed to roll back: %v", err)
	}
	if err := mgr.Close(); err != nil {
		t.Fatalf("Failed to close migration manager: %v", err)
	}

	db, err := Open(DefaultConfig(dbPath))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	var count int
	if err := db.Conn().QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'decks'`).Scan(&count); err != nil {
		t.Fatalf("Failed to query schema: %v", err)
	}
	if count != 0 {
		t.Error("Expected decks table to be dropped")
	}
}
