package binder

import (
	"context"
	"fmt"
	"strings"
)

// CreateDeck adds a deck named name with slotCount empty slots.
func (tx *Tx) CreateDeck(name string, slotCount int) (Deck, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Deck{}, fmt.Errorf("create deck: name is required: %w", ErrInvalidDeck)
	}
	if slotCount < 1 || slotCount > MaxSlots {
		return Deck{}, fmt.Errorf("create deck: slot count %d (max %d): %w", slotCount, MaxSlots, ErrInvalidDeck)
	}

	deck := &Deck{
		ID:        tx.session.newID(),
		Name:      name,
		Slots:     make([]string, slotCount),
		CreatedAt: tx.now,
	}
	if _, exists := tx.st.decks[deck.ID]; exists {
		return Deck{}, fmt.Errorf("create deck: duplicate id %s: %w", deck.ID, ErrInvalidDeck)
	}

	tx.st.decks[deck.ID] = deck
	tx.st.order = append(tx.st.order, deck.ID)
	tx.touch(deck)
	return *deck.clone(), nil
}

func (tx *Tx) checkSlot(deck *Deck, slot int) error {
	if slot < 0 || slot >= len(deck.Slots) {
		return fmt.Errorf("deck %s slot %d (capacity %d): %w", deck.ID, slot, len(deck.Slots), ErrSlotOutOfRange)
	}
	return nil
}

// PlaceCard puts cardID into slot. A card already in the slot is evicted and
// returned; the caller decides where, if anywhere, it goes next.
func (tx *Tx) PlaceCard(deckID string, slot int, cardID string) (string, error) {
	deck, err := tx.deck(deckID)
	if err != nil {
		return "", err
	}
	if err := tx.checkSlot(deck, slot); err != nil {
		return "", err
	}
	if tx.st.collection[cardID] < 1 {
		return "", fmt.Errorf("place %s in deck %s: %w", cardID, deckID, ErrNotOwned)
	}

	evicted := deck.Slots[slot]
	if evicted == cardID {
		return "", nil
	}

	deck.Slots[slot] = cardID
	deck.reconcileCover()
	tx.touch(deck)
	return evicted, nil
}

// MoveCard relocates the card in from to to within one deck.
// If to is occupied the two cards swap places.
func (tx *Tx) MoveCard(deckID string, from, to int) error {
	deck, err := tx.deck(deckID)
	if err != nil {
		return err
	}
	if err := tx.checkSlot(deck, from); err != nil {
		return err
	}
	if err := tx.checkSlot(deck, to); err != nil {
		return err
	}
	if deck.Slots[from] == "" {
		return fmt.Errorf("move from deck %s slot %d: %w", deckID, from, ErrEmptySlot)
	}
	if from == to {
		return nil
	}

	deck.Slots[from], deck.Slots[to] = deck.Slots[to], deck.Slots[from]
	tx.touch(deck)
	return nil
}

// TransferCard moves the card in fromDeck/fromSlot to toDeck/toSlot.
// Across decks the source is emptied and the destination filled in the same step;
// a card already in the destination is evicted and returned. Within one deck it
// behaves like MoveCard.
func (tx *Tx) TransferCard(fromDeck string, fromSlot int, toDeck string, toSlot int) (string, error) {
	if fromDeck == toDeck {
		return "", tx.MoveCard(fromDeck, fromSlot, toSlot)
	}

	src, err := tx.deck(fromDeck)
	if err != nil {
		return "", err
	}
	if err := tx.checkSlot(src, fromSlot); err != nil {
		return "", err
	}
	cardID := src.Slots[fromSlot]
	if cardID == "" {
		return "", fmt.Errorf("transfer from deck %s slot %d: %w", fromDeck, fromSlot, ErrEmptySlot)
	}

	evicted, err := tx.PlaceCard(toDeck, toSlot, cardID)
	if err != nil {
		return "", err
	}

	src.Slots[fromSlot] = ""
	src.reconcileCover()
	tx.touch(src)
	return evicted, nil
}

// RemoveCard empties slot. Collection quantities are not affected.
func (tx *Tx) RemoveCard(deckID string, slot int) (string, error) {
	deck, err := tx.deck(deckID)
	if err != nil {
		return "", err
	}
	if err := tx.checkSlot(deck, slot); err != nil {
		return "", err
	}

	removed := deck.Slots[slot]
	if removed == "" {
		return "", nil
	}

	deck.Slots[slot] = ""
	deck.reconcileCover()
	tx.touch(deck)
	return removed, nil
}

// RenameDeck changes the deck name.
func (tx *Tx) RenameDeck(deckID, name string) error {
	deck, err := tx.deck(deckID)
	if err != nil {
		return err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("rename deck %s: name is required: %w", deckID, ErrInvalidDeck)
	}
	if deck.Name == name {
		return nil
	}

	deck.Name = name
	tx.touch(deck)
	return nil
}

// SetCover sets the cover card. The card must be in one of the deck's slots;
// an empty cardID clears the cover.
func (tx *Tx) SetCover(deckID, cardID string) error {
	deck, err := tx.deck(deckID)
	if err != nil {
		return err
	}
	if cardID != "" && !deck.Holds(cardID) {
		return fmt.Errorf("cover %s for deck %s: %w", cardID, deckID, ErrInvalidCover)
	}
	if deck.CoverCardID == cardID {
		return nil
	}

	deck.CoverCardID = cardID
	tx.touch(deck)
	return nil
}

// DeleteDeck removes the deck and its slot references.
func (tx *Tx) DeleteDeck(deckID string) error {
	if _, err := tx.deck(deckID); err != nil {
		return err
	}

	delete(tx.st.decks, deckID)
	delete(tx.touched, deckID)
	for i, id := range tx.st.order {
		if id == deckID {
			tx.st.order = append(tx.st.order[:i:i], tx.st.order[i+1:]...)
			break
		}
	}
	return nil
}

// Deck returns a copy of the deck as seen inside the transaction.
func (tx *Tx) Deck(deckID string) (Deck, error) {
	deck, err := tx.deck(deckID)
	if err != nil {
		return Deck{}, err
	}
	return *deck.clone(), nil
}

// CreateDeck creates a deck in its own update.
func (s *Session) CreateDeck(ctx context.Context, name string, slotCount int) (Deck, error) {
	var deck Deck
	_, err := s.Update(ctx, func(tx *Tx) error {
		var err error
		deck, err = tx.CreateDeck(name, slotCount)
		return err
	})
	return deck, err
}

// PlaceCard places cardID in its own update and returns the evicted card, if any.
func (s *Session) PlaceCard(ctx context.Context, deckID string, slot int, cardID string) (string, error) {
	var evicted string
	_, err := s.Update(ctx, func(tx *Tx) error {
		var err error
		evicted, err = tx.PlaceCard(deckID, slot, cardID)
		return err
	})
	return evicted, err
}

// MoveCard moves a card within a deck in its own update.
func (s *Session) MoveCard(ctx context.Context, deckID string, from, to int) error {
	_, err := s.Update(ctx, func(tx *Tx) error {
		return tx.MoveCard(deckID, from, to)
	})
	return err
}

// TransferCard moves a card between decks in its own update.
func (s *Session) TransferCard(ctx context.Context, fromDeck string, fromSlot int, toDeck string, toSlot int) (string, error) {
	var evicted string
	_, err := s.Update(ctx, func(tx *Tx) error {
		var err error
		evicted, err = tx.TransferCard(fromDeck, fromSlot, toDeck, toSlot)
		return err
	})
	return evicted, err
}

// RemoveCard empties a slot in its own update.
func (s *Session) RemoveCard(ctx context.Context, deckID string, slot int) error {
	_, err := s.Update(ctx, func(tx *Tx) error {
		_, err := tx.RemoveCard(deckID, slot)
		return err
	})
	return err
}

// RenameDeck renames a deck in its own update.
func (s *Session) RenameDeck(ctx context.Context, deckID, name string) error {
	_, err := s.Update(ctx, func(tx *Tx) error {
		return tx.RenameDeck(deckID, name)
	})
	return err
}

// SetCover sets a deck cover in its own update.
func (s *Session) SetCover(ctx context.Context, deckID, cardID string) error {
	_, err := s.Update(ctx, func(tx *Tx) error {
		return tx.SetCover(deckID, cardID)
	})
	return err
}

// DeleteDeck deletes a deck in its own update.
func (s *Session) DeleteDeck(ctx context.Context, deckID string) error {
	_, err := s.Update(ctx, func(tx *Tx) error {
		return tx.DeleteDeck(deckID)
	})
	return err
}
