// Package models contains the database row types for binder persistence.
package models

import "time"

// CollectionCard is one owned card.
type CollectionCard struct {
	CardID    string
	Quantity  int
	UpdatedAt time.Time
}

// CollectionHistory tracks changes to the collection over time.
type CollectionHistory struct {
	ID            int64
	CardID        string
	QuantityDelta int // Positive or negative change
	QuantityAfter int // Quantity after this change
	Version       uint64
	Timestamp     time.Time
	Source        *string // Nullable: "api", "drag", ...
	CreatedAt     time.Time
}

// WishlistEntry is one wanted card.
type WishlistEntry struct {
	CardID  string
	AddedAt time.Time
}

// Deck is a deck row. Slots are stored separately in deck_slots.
type Deck struct {
	ID          string
	Name        string
	SlotCount   int
	CoverCardID *string // Nullable
	Position    int     // Creation order
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// DeckSlot is one filled slot. Empty slots have no row.
type DeckSlot struct {
	DeckID    string
	SlotIndex int
	CardID    string
}

// SessionState is the single row recording the last persisted commit.
type SessionState struct {
	Version   uint64
	UpdatedAt time.Time
}
