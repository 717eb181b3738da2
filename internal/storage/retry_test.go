package storage

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fastRetry() RetryConfig {
	return RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond}
}

func TestRetryOnBusy_RetriesLocked(t *testing.T) {
	calls := 0
	err := retryOnBusy(context.Background(), fastRetry(), func() error {
		calls++
		if calls < 3 {
			return errors.New("database is locked (5) (SQLITE_BUSY)")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestRetryOnBusy_GivesUp(t *testing.T) {
	calls := 0
	err := retryOnBusy(context.Background(), fastRetry(), func() error {
		calls++
		return errors.New("database is locked")
	})
	if !IsBusy(err) {
		t.Errorf("expected busy error, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestRetryOnBusy_OtherErrorsNotRetried(t *testing.T) {
	boom := errors.New("constraint failed")
	calls := 0
	err := retryOnBusy(context.Background(), fastRetry(), func() error {
		calls++
		return boom
	})
	if !errors.Is(err, boom) {
		t.Errorf("expected boom, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}
