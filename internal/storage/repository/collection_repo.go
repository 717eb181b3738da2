package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ramonehamilton/deck-binder/internal/storage/models"
)

// CollectionRepository handles database operations for the card collection.
type CollectionRepository interface {
	// UpsertCard inserts or updates a card in the collection.
	UpsertCard(ctx context.Context, cardID string, quantity int, at time.Time) error

	// DeleteCard removes a card from the collection.
	DeleteCard(ctx context.Context, cardID string) error

	// GetCard retrieves the quantity of a specific card. Returns 0 when not owned.
	GetCard(ctx context.Context, cardID string) (int, error)

	// GetAll retrieves the entire collection as a map of cardID -> quantity.
	GetAll(ctx context.Context) (map[string]int, error)

	// RecordChange inserts a collection history row.
	RecordChange(ctx context.Context, change *models.CollectionHistory) error

	// GetHistory retrieves the most recent history rows for a card, newest first.
	GetHistory(ctx context.Context, cardID string, limit int) ([]*models.CollectionHistory, error)

	// GetRecentChanges retrieves the most recent history rows, newest first.
	GetRecentChanges(ctx context.Context, limit int) ([]*models.CollectionHistory, error)
}

type collectionRepository struct {
	db DBTX
}

// NewCollectionRepository creates a new collection repository.
func NewCollectionRepository(db DBTX) CollectionRepository {
	return &collectionRepository{db: db}
}

func (r *collectionRepository) UpsertCard(ctx context.Context, cardID string, quantity int, at time.Time) error {
	query := `
		INSERT INTO collection (card_id, quantity, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(card_id) DO UPDATE SET
			quantity = excluded.quantity,
			updated_at = excluded.updated_at
	`

	if _, err := r.db.ExecContext(ctx, query, cardID, quantity, at); err != nil {
		return fmt.Errorf("failed to upsert card: %w", err)
	}
	return nil
}

func (r *collectionRepository) DeleteCard(ctx context.Context, cardID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM collection WHERE card_id = ?`, cardID); err != nil {
		return fmt.Errorf("failed to delete card: %w", err)
	}
	return nil
}

func (r *collectionRepository) GetCard(ctx context.Context, cardID string) (int, error) {
	var quantity int
	err := r.db.QueryRowContext(ctx, `SELECT quantity FROM collection WHERE card_id = ?`, cardID).Scan(&quantity)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get card quantity: %w", err)
	}
	return quantity, nil
}

func (r *collectionRepository) GetAll(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT card_id, quantity FROM collection`)
	if err != nil {
		return nil, fmt.Errorf("failed to get all cards: %w", err)
	}
	defer func() { _ = rows.Close() }()

	collection := make(map[string]int)
	for rows.Next() {
		var cardID string
		var quantity int
		if err := rows.Scan(&cardID, &quantity); err != nil {
			return nil, fmt.Errorf("failed to scan card: %w", err)
		}
		collection[cardID] = quantity
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating collection: %w", err)
	}

	return collection, nil
}

func (r *collectionRepository) RecordChange(ctx context.Context, change *models.CollectionHistory) error {
	query := `
		INSERT INTO collection_history (
			card_id, quantity_delta, quantity_after, version, timestamp, source, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		change.CardID,
		change.QuantityDelta,
		change.QuantityAfter,
		change.Version,
		change.Timestamp,
		change.Source,
		time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to record collection change: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get history id: %w", err)
	}
	change.ID = id
	return nil
}

const historyColumns = `id, card_id, quantity_delta, quantity_after, version, timestamp, source, created_at`

func (r *collectionRepository) GetHistory(ctx context.Context, cardID string, limit int) ([]*models.CollectionHistory, error) {
	query := `SELECT ` + historyColumns + `
		FROM collection_history
		WHERE card_id = ?
		ORDER BY id DESC
		LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, cardID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get collection history: %w", err)
	}
	return scanHistory(rows)
}

func (r *collectionRepository) GetRecentChanges(ctx context.Context, limit int) ([]*models.CollectionHistory, error) {
	query := `SELECT ` + historyColumns + `
		FROM collection_history
		ORDER BY id DESC
		LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent changes: %w", err)
	}
	return scanHistory(rows)
}

func scanHistory(rows *sql.Rows) ([]*models.CollectionHistory, error) {
	defer func() { _ = rows.Close() }()

	var history []*models.CollectionHistory
	for rows.Next() {
		h := &models.CollectionHistory{}
		if err := rows.Scan(
			&h.ID,
			&h.CardID,
			&h.QuantityDelta,
			&h.QuantityAfter,
			&h.Version,
			&h.Timestamp,
			&h.Source,
			&h.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan history: %w", err)
		}
		history = append(history, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating history: %w", err)
	}

	return history, nil
}
