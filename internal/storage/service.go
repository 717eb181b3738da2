package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"github.com/ramonehamilton/deck-binder/internal/binder"
	"github.com/ramonehamilton/deck-binder/internal/storage/models"
	"github.com/ramonehamilton/deck-binder/internal/storage/repository"
)

// Service loads and stores binder state.
type Service struct {
	db         *DB
	collection repository.CollectionRepository
	wishlist   repository.WishlistRepository
	decks      repository.DeckRepository
	state      repository.StateRepository
}

// NewService creates a new storage service.
func NewService(db *DB) *Service {
	return &Service{
		db:         db,
		collection: repository.NewCollectionRepository(db.Conn()),
		wishlist:   repository.NewWishlistRepository(db.Conn()),
		decks:      repository.NewDeckRepository(db.Conn()),
		state:      repository.NewStateRepository(db.Conn()),
	}
}

// DB returns the underlying database.
func (s *Service) DB() *DB {
	return s.db
}

// Close closes the database.
func (s *Service) Close() error {
	return s.db.Close()
}

// LoadState reads the persisted session state.
func (s *Service) LoadState(ctx context.Context) (*binder.Snapshot, error) {
	snap := &binder.Snapshot{Collection: map[string]int{}}

	state, err := s.state.Get(ctx)
	if err != nil {
		return nil, err
	}
	if state != nil {
		snap.Version = state.Version
	}

	if snap.Collection, err = s.collection.GetAll(ctx); err != nil {
		return nil, err
	}

	wishes, err := s.wishlist.List(ctx)
	if err != nil {
		return nil, err
	}
	snap.Wishlist = make([]string, 0, len(wishes))
	for _, w := range wishes {
		snap.Wishlist = append(snap.Wishlist, w.CardID)
	}

	decks, err := s.decks.List(ctx)
	if err != nil {
		return nil, err
	}
	slots, err := s.decks.GetAllSlots(ctx)
	if err != nil {
		return nil, err
	}
	byDeck := make(map[string][]*models.DeckSlot)
	for _, slot := range slots {
		byDeck[slot.DeckID] = append(byDeck[slot.DeckID], slot)
	}

	snap.Decks = make([]binder.Deck, 0, len(decks))
	for _, row := range decks {
		deck := binder.Deck{
			ID:        row.ID,
			Name:      row.Name,
			Slots:     make([]string, row.SlotCount),
			CreatedAt: row.CreatedAt,
			UpdatedAt: row.UpdatedAt,
		}
		if row.CoverCardID != nil {
			deck.CoverCardID = *row.CoverCardID
		}
		for _, slot := range byDeck[row.ID] {
			if slot.SlotIndex < len(deck.Slots) {
				deck.Slots[slot.SlotIndex] = slot.CardID
			}
		}
		snap.Decks = append(snap.Decks, deck)
	}

	log.Printf("[Storage] Loaded state v%d: %d cards, %d wishes, %d decks",
		snap.Version, len(snap.Collection), len(snap.Wishlist), len(snap.Decks))
	return snap, nil
}

// ApplyCommit writes one committed change set in a single transaction.
// Commits at or below the stored version are skipped, so replaying is safe.
func (s *Service) ApplyCommit(ctx context.Context, commit binder.Commit) error {
	return s.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		collection := repository.NewCollectionRepository(tx)
		wishlist := repository.NewWishlistRepository(tx)
		decks := repository.NewDeckRepository(tx)
		state := repository.NewStateRepository(tx)

		current, err := state.Get(ctx)
		if err != nil {
			return err
		}
		if current != nil && current.Version >= commit.Version {
			log.Printf("[Storage] Skipping commit v%d (stored v%d)", commit.Version, current.Version)
			return nil
		}

		var source *string
		if commit.Source != "" {
			source = &commit.Source
		}

		for _, change := range commit.Changes {
			switch change.Kind {
			case binder.ChangeQuantity:
				if change.Quantity > 0 {
					err = collection.UpsertCard(ctx, change.CardID, change.Quantity, commit.At)
				} else {
					err = collection.DeleteCard(ctx, change.CardID)
				}
				if err == nil {
					err = collection.RecordChange(ctx, &models.CollectionHistory{
						CardID:        change.CardID,
						QuantityDelta: change.Delta,
						QuantityAfter: change.Quantity,
						Version:       commit.Version,
						Timestamp:     commit.At,
						Source:        source,
					})
				}

			case binder.ChangeWishAdded:
				err = wishlist.Add(ctx, change.CardID, commit.At)

			case binder.ChangeWishRemoved:
				err = wishlist.Remove(ctx, change.CardID)

			case binder.ChangeDeckCreated:
				row := deckRow(change.Deck)
				if err = decks.Create(ctx, row); err == nil {
					err = decks.SetSlots(ctx, row.ID, change.Deck.Slots)
				}

			case binder.ChangeDeckUpdated:
				row := deckRow(change.Deck)
				if err = decks.Update(ctx, row); err == nil {
					err = decks.SetSlots(ctx, row.ID, change.Deck.Slots)
				}

			case binder.ChangeDeckDeleted:
				err = decks.Delete(ctx, change.DeckID)

			default:
				err = fmt.Errorf("unknown change kind %q", change.Kind)
			}
			if err != nil {
				return fmt.Errorf("failed to apply %s change: %w", change.Kind, err)
			}
		}

		return state.SetVersion(ctx, commit.Version, commit.At)
	})
}

func deckRow(deck *binder.Deck) *models.Deck {
	row := &models.Deck{
		ID:        deck.ID,
		Name:      deck.Name,
		SlotCount: len(deck.Slots),
		CreatedAt: deck.CreatedAt,
		UpdatedAt: deck.UpdatedAt,
	}
	if deck.CoverCardID != "" {
		cover := deck.CoverCardID
		row.CoverCardID = &cover
	}
	return row
}

// History returns the most recent quantity changes of a card, newest first.
func (s *Service) History(ctx context.Context, cardID string, limit int) ([]*models.CollectionHistory, error) {
	return s.collection.GetHistory(ctx, cardID, limit)
}

// RecentChanges returns the most recent quantity changes, newest first.
func (s *Service) RecentChanges(ctx context.Context, limit int) ([]*models.CollectionHistory, error) {
	return s.collection.GetRecentChanges(ctx, limit)
}
