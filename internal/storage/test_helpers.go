package storage

import (
	"path/filepath"
	"testing"
)

// setupTestService creates a test service with a migrated temporary database file.
func setupTestService(t *testing.T) *Service {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")

	migrationMgr, err := NewMigrationManager(dbPath)
	if err != nil {
		t.Fatalf("Failed to create migration manager: %v", err)
	}
	if err := migrationMgr.Up(); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}
	_ = migrationMgr.Close()

	db, err := Open(DefaultConfig(dbPath))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	service := NewService(db)
	t.Cleanup(func() {
		_ = db.Close()
	})

	return service
}

// setupMemoryService opens a migrated in-memory database.
func setupMemoryService(t *testing.T) *Service {
	t.Helper()

	config := DefaultConfig(":memory:")
	config.AutoMigrate = true
	db, err := Open(config)
	if err != nil {
		t.Fatalf("Failed to open in-memory database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	return NewService(db)
}
