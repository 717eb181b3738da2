package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ramonehamilton/deck-binder/internal/storage/models"
)

// WishlistRepository handles database operations for the wishlist.
type WishlistRepository interface {
	// Add puts a card on the wishlist. Adding a present card keeps its original date.
	Add(ctx context.Context, cardID string, at time.Time) error

	// Remove takes a card off the wishlist.
	Remove(ctx context.Context, cardID string) error

	// Contains reports whether a card is on the wishlist.
	Contains(ctx context.Context, cardID string) (bool, error)

	// List returns all entries ordered by card id.
	List(ctx context.Context) ([]*models.WishlistEntry, error)
}

type wishlistRepository struct {
	db DBTX
}

// NewWishlistRepository creates a new wishlist repository.
func NewWishlistRepository(db DBTX) WishlistRepository {
	return &wishlistRepository{db: db}
}

func (r *wishlistRepository) Add(ctx context.Context, cardID string, at time.Time) error {
	query := `INSERT INTO wishlist (card_id, added_at) VALUES (?, ?) ON CONFLICT(card_id) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, cardID, at); err != nil {
		return fmt.Errorf("failed to add wishlist entry: %w", err)
	}
	return nil
}

func (r *wishlistRepository) Remove(ctx context.Context, cardID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM wishlist WHERE card_id = ?`, cardID); err != nil {
		return fmt.Errorf("failed to remove wishlist entry: %w", err)
	}
	return nil
}

func (r *wishlistRepository) Contains(ctx context.Context, cardID string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM wishlist WHERE card_id = ?`, cardID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check wishlist: %w", err)
	}
	return true, nil
}

func (r *wishlistRepository) List(ctx context.Context) ([]*models.WishlistEntry, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT card_id, added_at FROM wishlist ORDER BY card_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list wishlist: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []*models.WishlistEntry
	for rows.Next() {
		e := &models.WishlistEntry{}
		if err := rows.Scan(&e.CardID, &e.AddedAt); err != nil {
			return nil, fmt.Errorf("failed to scan wishlist entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating wishlist: %w", err)
	}

	return entries, nil
}
