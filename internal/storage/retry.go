package storage

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// RetryConfig controls RetryOnBusy.
type RetryConfig struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
}

// DefaultRetryConfig is used by RetryOnBusy.
var DefaultRetryConfig = RetryConfig{
	MaxAttempts:  5,
	InitialDelay: 50 * time.Millisecond,
	MaxDelay:     time.Second,
}

// IsBusy reports whether err is SQLITE_BUSY or SQLITE_LOCKED.
func IsBusy(err error) bool {
	if err == nil {
		return false
	}
	var se *sqlite.Error
	if errors.As(err, &se) {
		code := se.Code() & 0xff
		return code == sqlite3.SQLITE_BUSY || code == sqlite3.SQLITE_LOCKED
	}
	return strings.Contains(err.Error(), "database is locked")
}

// RetryOnBusy runs fn, retrying with exponential backoff while it fails because
// the database is locked. Other errors are returned immediately.
func RetryOnBusy(ctx context.Context, fn func() error) error {
	return retryOnBusy(ctx, DefaultRetryConfig, fn)
}

func retryOnBusy(ctx context.Context, cfg RetryConfig, fn func() error) error {
	delay := cfg.InitialDelay
	var err error

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		err = fn()
		if !IsBusy(err) {
			return err
		}
		if attempt == cfg.MaxAttempts {
			break
		}

		log.Printf("[Storage] Database busy, retrying in %v (attempt %d/%d)", delay, attempt, cfg.MaxAttempts)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay = min(delay*2, cfg.MaxDelay)
	}

	return err
}
