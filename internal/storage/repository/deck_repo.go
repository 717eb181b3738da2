package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ramonehamilton/deck-binder/internal/storage/models"
)

// DeckRepository handles database operations for decks and their slots.
type DeckRepository interface {
	// Create inserts a new deck after all existing ones.
	Create(ctx context.Context, deck *models.Deck) error

	// Update updates name, cover and timestamps of an existing deck.
	Update(ctx context.Context, deck *models.Deck) error

	// GetByID retrieves a deck by its ID. Returns nil if not found.
	GetByID(ctx context.Context, id string) (*models.Deck, error)

	// List retrieves all decks in creation order.
	List(ctx context.Context) ([]*models.Deck, error)

	// Delete deletes a deck and its slots.
	Delete(ctx context.Context, id string) error

	// SetSlots replaces the filled slots of a deck. Empty strings are skipped.
	SetSlots(ctx context.Context, deckID string, slots []string) error

	// GetAllSlots retrieves the filled slots of every deck.
	GetAllSlots(ctx context.Context) ([]*models.DeckSlot, error)
}

type deckRepository struct {
	db DBTX
}

// NewDeckRepository creates a new deck repository.
func NewDeckRepository(db DBTX) DeckRepository {
	return &deckRepository{db: db}
}

func (r *deckRepository) Create(ctx context.Context, deck *models.Deck) error {
	query := `
		INSERT INTO decks (
			id, name, slot_count, cover_card_id, position, created_at, updated_at
		) VALUES (?, ?, ?, ?, (SELECT COALESCE(MAX(position), 0) + 1 FROM decks), ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		deck.ID,
		deck.Name,
		deck.SlotCount,
		deck.CoverCardID,
		deck.CreatedAt,
		deck.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create deck: %w", err)
	}

	return nil
}

func (r *deckRepository) Update(ctx context.Context, deck *models.Deck) error {
	query := `
		UPDATE decks
		SET name = ?, cover_card_id = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query, deck.Name, deck.CoverCardID, deck.UpdatedAt, deck.ID)
	if err != nil {
		return fmt.Errorf("failed to update deck: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("deck not found: %s", deck.ID)
	}

	return nil
}

const deckColumns = `id, name, slot_count, cover_card_id, position, created_at, updated_at`

func scanDeck(row interface{ Scan(...any) error }) (*models.Deck, error) {
	deck := &models.Deck{}
	err := row.Scan(
		&deck.ID,
		&deck.Name,
		&deck.SlotCount,
		&deck.CoverCardID,
		&deck.Position,
		&deck.CreatedAt,
		&deck.UpdatedAt,
	)
	return deck, err
}

func (r *deckRepository) GetByID(ctx context.Context, id string) (*models.Deck, error) {
	deck, err := scanDeck(r.db.QueryRowContext(ctx, `SELECT `+deckColumns+` FROM decks WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get deck by id: %w", err)
	}
	return deck, nil
}

func (r *deckRepository) List(ctx context.Context) ([]*models.Deck, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+deckColumns+` FROM decks ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("failed to list decks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var decks []*models.Deck
	for rows.Next() {
		deck, err := scanDeck(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan deck: %w", err)
		}
		decks = append(decks, deck)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating decks: %w", err)
	}

	return decks, nil
}

func (r *deckRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM deck_slots WHERE deck_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete deck slots: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, `DELETE FROM decks WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete deck: %w", err)
	}
	return nil
}

func (r *deckRepository) SetSlots(ctx context.Context, deckID string, slots []string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM deck_slots WHERE deck_id = ?`, deckID); err != nil {
		return fmt.Errorf("failed to clear deck slots: %w", err)
	}

	for i, cardID := range slots {
		if cardID == "" {
			continue
		}
		_, err := r.db.ExecContext(ctx,
			`INSERT INTO deck_slots (deck_id, slot_index, card_id) VALUES (?, ?, ?)`,
			deckID, i, cardID)
		if err != nil {
			return fmt.Errorf("failed to insert deck slot %d: %w", i, err)
		}
	}

	return nil
}

func (r *deckRepository) GetAllSlots(ctx context.Context) ([]*models.DeckSlot, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT deck_id, slot_index, card_id FROM deck_slots ORDER BY deck_id, slot_index`)
	if err != nil {
		return nil, fmt.Errorf("failed to get deck slots: %w", err)
	}
	return scanSlots(rows)
}

func scanSlots(rows *sql.Rows) ([]*models.DeckSlot, error) {
	defer func() { _ = rows.Close() }()

	var slots []*models.DeckSlot
	for rows.Next() {
		s := &models.DeckSlot{}
		if err := rows.Scan(&s.DeckID, &s.SlotIndex, &s.CardID); err != nil {
			return nil, fmt.Errorf("failed to scan deck slot: %w", err)
		}
		slots = append(slots, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating deck slots: %w", err)
	}

	return slots, nil
}
