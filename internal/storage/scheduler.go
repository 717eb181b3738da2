package storage

import (
	"context"
	"log"
	"sync"
	"time"
)

// BackupScheduler runs backups on a fixed interval.
type BackupScheduler struct {
	manager  *BackupManager
	interval time.Duration

	mu           sync.RWMutex
	lastBackup   time.Time
	lastError    error
	backupCount  int
	failureCount int
}

// SchedulerStatus is a snapshot of scheduler statistics.
type SchedulerStatus struct {
	LastBackup   time.Time `json:"lastBackup"`
	LastError    string    `json:"lastError,omitempty"`
	BackupCount  int       `json:"backupCount"`
	FailureCount int       `json:"failureCount"`
}

// NewBackupScheduler creates a scheduler that calls manager every interval.
func NewBackupScheduler(manager *BackupManager, interval time.Duration) *BackupScheduler {
	return &BackupScheduler{manager: manager, interval: interval}
}

// Run backs up every interval until ctx is cancelled. Backup failures are
// recorded and logged; they never stop the loop.
func (s *BackupScheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	log.Printf("[Backup] Scheduler started, every %v into %s", s.interval, s.manager.Dir())
	for {
		select {
		case <-ctx.Done():
			log.Println("[Backup] Scheduler stopped")
			return nil
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce performs one backup and updates the statistics.
func (s *BackupScheduler) RunOnce(ctx context.Context) {
	info, err := s.manager.Backup(ctx)

	s.mu.Lock()
	s.lastBackup = time.Now()
	s.lastError = err
	if err != nil {
		s.failureCount++
	} else {
		s.backupCount++
	}
	s.mu.Unlock()

	if err != nil {
		log.Printf("[Backup] Backup failed: %v", err)
		return
	}
	log.Printf("[Backup] Wrote %s (%d bytes)", info.Name, info.Size)
}

// Status returns the scheduler statistics.
func (s *BackupScheduler) Status() SchedulerStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	status := SchedulerStatus{
		LastBackup:   s.lastBackup,
		BackupCount:  s.backupCount,
		FailureCount: s.failureCount,
	}
	if s.lastError != nil {
		status.LastError = s.lastError.Error()
	}
	return status
}
