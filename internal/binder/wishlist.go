package binder

import (
	"context"
	"fmt"
	"sort"
)

// AddWish puts cardID on the wishlist. Adding a present id is a no-op.
func (tx *Tx) AddWish(cardID string) error {
	if tx.session.cards != nil && !tx.session.cards.Contains(cardID) {
		return fmt.Errorf("wish %s: %w", cardID, ErrUnknownCard)
	}
	tx.st.wishlist[cardID] = struct{}{}
	return nil
}

// RemoveWish takes cardID off the wishlist. Removing an absent id is a no-op.
func (tx *Tx) RemoveWish(cardID string) {
	delete(tx.st.wishlist, cardID)
}

// Wished reports whether cardID is on the wishlist inside the transaction.
func (tx *Tx) Wished(cardID string) bool {
	_, ok := tx.st.wishlist[cardID]
	return ok
}

// AddWish puts cardID on the wishlist in its own update.
func (s *Session) AddWish(ctx context.Context, cardID string) error {
	_, err := s.Update(ctx, func(tx *Tx) error {
		return tx.AddWish(cardID)
	})
	return err
}

// RemoveWish takes cardID off the wishlist in its own update.
func (s *Session) RemoveWish(ctx context.Context, cardID string) error {
	_, err := s.Update(ctx, func(tx *Tx) error {
		tx.RemoveWish(cardID)
		return nil
	})
	return err
}

// Wishlist returns the wished card ids in sorted order.
func (s *Session) Wishlist() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(s.st.wishlist))
	for id := range s.st.wishlist {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
