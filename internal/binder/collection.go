package binder

import (
	"context"
	"fmt"
	"math"
)

// Acquire adds count copies of cardID to the collection and runs the acquire hooks.
func (tx *Tx) Acquire(cardID string, count int) error {
	if count < 1 {
		return fmt.Errorf("acquire %s: %w", cardID, ErrInvalidCount)
	}
	if tx.session.cards != nil && !tx.session.cards.Contains(cardID) {
		return fmt.Errorf("acquire %s: %w", cardID, ErrUnknownCard)
	}

	owned := tx.st.collection[cardID]
	if count > math.MaxInt-owned {
		return fmt.Errorf("acquire %d of %s (own %d): %w", count, cardID, owned, ErrQuantityOverflow)
	}
	tx.st.collection[cardID] = owned + count

	for _, hook := range tx.session.acquireHooks {
		if err := hook(tx, cardID); err != nil {
			return fmt.Errorf("acquire hook for %s: %w", cardID, err)
		}
	}
	return nil
}

// Release removes count copies of cardID. When none are left the entry is deleted
// and every deck slot holding the card is emptied in the same transaction.
func (tx *Tx) Release(cardID string, count int) error {
	if count < 1 {
		return fmt.Errorf("release %s: %w", cardID, ErrInvalidCount)
	}

	owned := tx.st.collection[cardID]
	if count > owned {
		return fmt.Errorf("release %d of %s (own %d): %w", count, cardID, owned, ErrInsufficientQuantity)
	}

	remaining := owned - count
	if remaining > 0 {
		tx.st.collection[cardID] = remaining
		return nil
	}

	delete(tx.st.collection, cardID)
	tx.cascade(cardID)
	return nil
}

// cascade empties every slot referencing cardID.
func (tx *Tx) cascade(cardID string) {
	for _, id := range tx.st.order {
		deck := tx.st.decks[id]
		changed := false
		for slot, held := range deck.Slots {
			if held == cardID {
				deck.Slots[slot] = ""
				changed = true
			}
		}
		if changed {
			deck.reconcileCover()
			tx.touch(deck)
		}
	}
}

// QuantityOf returns the owned quantity of cardID as seen inside the transaction.
func (tx *Tx) QuantityOf(cardID string) int {
	return tx.st.collection[cardID]
}

// Acquire adds count copies of cardID in its own update.
func (s *Session) Acquire(ctx context.Context, cardID string, count int) error {
	_, err := s.Update(ctx, func(tx *Tx) error {
		return tx.Acquire(cardID, count)
	})
	return err
}

// Release removes count copies of cardID in its own update.
func (s *Session) Release(ctx context.Context, cardID string, count int) error {
	_, err := s.Update(ctx, func(tx *Tx) error {
		return tx.Release(cardID, count)
	})
	return err
}
