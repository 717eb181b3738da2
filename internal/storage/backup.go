package storage

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const (
	backupPrefix = "binder_"
	backupExt    = ".db"
)

// BackupManager writes point-in-time copies of the binder database.
type BackupManager struct {
	db   *DB
	dir  string
	keep int
	now  func() time.Time
}

// BackupInfo describes one backup file.
type BackupInfo struct {
	Path     string    `json:"path"`
	Name     string    `json:"name"`
	Size     int64     `json:"size"`
	ModTime  time.Time `json:"modTime"`
	Checksum string    `json:"checksum"`
}

// NewBackupManager creates a manager that stores backups of db in dir and keeps
// the newest keep of them. keep <= 0 keeps everything.
func NewBackupManager(db *DB, dir string, keep int) *BackupManager {
	return &BackupManager{db: db, dir: dir, keep: keep, now: time.Now}
}

// Dir returns the backup directory.
func (bm *BackupManager) Dir() string {
	return bm.dir
}

// Backup copies the live database with VACUUM INTO, verifies the copy and
// prunes old backups. VACUUM INTO reads a consistent snapshot without blocking
// writers for longer than a normal read.
func (bm *BackupManager) Backup(ctx context.Context) (*BackupInfo, error) {
	if err := os.MkdirAll(bm.dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create backup directory: %w", err)
	}

	name := backupPrefix + bm.now().UTC().Format("20060102_150405.000") + backupExt
	path := filepath.Join(bm.dir, name)

	if _, err := bm.db.Conn().ExecContext(ctx, "VACUUM INTO ?", path); err != nil {
		return nil, fmt.Errorf("failed to write backup: %w", err)
	}

	if err := VerifyBackup(ctx, path); err != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("backup verification failed: %w", err)
	}

	info, err := describeBackup(path)
	if err != nil {
		return nil, err
	}

	if _, err := bm.Prune(); err != nil {
		log.Printf("[Backup] Failed to prune old backups: %v", err)
	}
	return info, nil
}

// VerifyBackup opens a backup file read-only and checks its integrity and that it
// carries the binder schema.
func VerifyBackup(ctx context.Context, path string) error {
	conn, err := sql.Open("sqlite", "file:"+path+"?mode=ro")
	if err != nil {
		return fmt.Errorf("failed to open backup: %w", err)
	}
	defer func() { _ = conn.Close() }()

	var result string
	if err := conn.QueryRowContext(ctx, "PRAGMA integrity_check").Scan(&result); err != nil {
		return fmt.Errorf("failed to check integrity: %w", err)
	}
	if result != "ok" {
		return fmt.Errorf("integrity check: %s", result)
	}

	var tables int
	err = conn.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM sqlite_master
		WHERE type = 'table' AND name IN ('collection', 'wishlist', 'decks', 'deck_slots', 'session_state')
	`).Scan(&tables)
	if err != nil {
		return fmt.Errorf("failed to read schema: %w", err)
	}
	if tables != 5 {
		return fmt.Errorf("backup is missing binder tables (found %d of 5)", tables)
	}
	return nil
}

// List returns the backups in the directory, newest first.
func (bm *BackupManager) List() ([]BackupInfo, error) {
	entries, err := os.ReadDir(bm.dir)
	if os.IsNotExist(err) {
		return []BackupInfo{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	backups := []BackupInfo{}
	for _, entry := range entries {
		if entry.IsDir() || !isBackupName(entry.Name()) {
			continue
		}
		info, err := describeBackup(filepath.Join(bm.dir, entry.Name()))
		if err != nil {
			continue
		}
		backups = append(backups, *info)
	}

	// Names embed a sortable UTC timestamp.
	sort.Slice(backups, func(i, j int) bool { return backups[i].Name > backups[j].Name })
	return backups, nil
}

// Prune deletes all but the newest keep backups and returns how many were removed.
func (bm *BackupManager) Prune() (int, error) {
	if bm.keep <= 0 {
		return 0, nil
	}
	backups, err := bm.List()
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, b := range backups[min(bm.keep, len(backups)):] {
		if err := os.Remove(b.Path); err != nil {
			return removed, fmt.Errorf("failed to remove backup %s: %w", b.Name, err)
		}
		removed++
	}
	return removed, nil
}

func isBackupName(name string) bool {
	return strings.HasPrefix(name, backupPrefix) && strings.HasSuffix(name, backupExt)
}

func describeBackup(path string) (*BackupInfo, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat backup: %w", err)
	}
	checksum, err := calculateChecksum(path)
	if err != nil {
		return nil, fmt.Errorf("failed to checksum backup: %w", err)
	}
	return &BackupInfo{
		Path:     path,
		Name:     stat.Name(),
		Size:     stat.Size(),
		ModTime:  stat.ModTime(),
		Checksum: checksum,
	}, nil
}

// calculateChecksum calculates the SHA-256 checksum of a file.
func calculateChecksum(filePath string) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", err
	}
	defer func() { _ = file.Close() }()

	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", err
	}
	return hex.EncodeToString(hash.Sum(nil)), nil
}
