package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ramonehamilton/deck-binder/internal/storage/models"
)

// StateRepository stores the version of the last persisted commit.
type StateRepository interface {
	// Get returns the stored state, or nil if nothing was persisted yet.
	Get(ctx context.Context) (*models.SessionState, error)

	// SetVersion records version as the last persisted commit.
	SetVersion(ctx context.Context, version uint64, at time.Time) error
}

type stateRepository struct {
	db DBTX
}

// NewStateRepository creates a new state repository.
func NewStateRepository(db DBTX) StateRepository {
	return &stateRepository{db: db}
}

func (r *stateRepository) Get(ctx context.Context) (*models.SessionState, error) {
	state := &models.SessionState{}
	err := r.db.QueryRowContext(ctx, `SELECT version, updated_at FROM session_state WHERE id = 1`).
		Scan(&state.Version, &state.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session state: %w", err)
	}
	return state, nil
}

func (r *stateRepository) SetVersion(ctx context.Context, version uint64, at time.Time) error {
	query := `
		INSERT INTO session_state (id, version, updated_at)
		VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			version = excluded.version,
			updated_at = excluded.updated_at
	`
	if _, err := r.db.ExecContext(ctx, query, version, at); err != nil {
		return fmt.Errorf("failed to set session version: %w", err)
	}
	return nil
}
