// Package catalog holds the immutable card catalog loaded at startup.
package catalog

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrNotFound is returned when a card id is not present in the catalog.
var ErrNotFound = errors.New("card not found in catalog")

// CardDetails describes a single catalog card.
// Values are immutable once the index is built; everything else refers to cards by ID.
type CardDetails struct {
	ID       string `json:"id"`
	FullID   string `json:"fullId"`
	Name     string `json:"name"`
	ImageURL string `json:"imageUrl"`

	// Placeholder marks a stand-in for an id the catalog could not resolve.
	Placeholder bool `json:"placeholder,omitempty"`
}

// Index is a read-only lookup of card id to CardDetails.
type Index struct {
	cards  map[string]CardDetails
	sorted []CardDetails
}

// NewIndex builds an index from the given cards.
// Empty and duplicate ids are rejected.
func NewIndex(cards []CardDetails) (*Index, error) {
	idx := &Index{
		cards:  make(map[string]CardDetails, len(cards)),
		sorted: make([]CardDetails, 0, len(cards)),
	}

	for i, card := range cards {
		if strings.TrimSpace(card.ID) == "" {
			return nil, fmt.Errorf("card at position %d has an empty id", i)
		}
		if _, exists := idx.cards[card.ID]; exists {
			return nil, fmt.Errorf("duplicate card id %q", card.ID)
		}
		card.Placeholder = false
		idx.cards[card.ID] = card
		idx.sorted = append(idx.sorted, card)
	}

	sort.Slice(idx.sorted, func(i, j int) bool {
		if idx.sorted[i].FullID != idx.sorted[j].FullID {
			return idx.sorted[i].FullID < idx.sorted[j].FullID
		}
		return idx.sorted[i].ID < idx.sorted[j].ID
	})

	return idx, nil
}

// Resolve returns the details for cardID, or ErrNotFound.
func (idx *Index) Resolve(cardID string) (CardDetails, error) {
	card, ok := idx.cards[cardID]
	if !ok {
		return CardDetails{}, fmt.Errorf("resolve %q: %w", cardID, ErrNotFound)
	}
	return card, nil
}

// ResolveOrPlaceholder never fails. Unknown ids come back as a placeholder
// carrying the requested id so the renderer can still draw a slot.
func (idx *Index) ResolveOrPlaceholder(cardID string) CardDetails {
	if card, ok := idx.cards[cardID]; ok {
		return card
	}
	return Placeholder(cardID)
}

// Placeholder returns the stand-in rendered for an unresolvable card id.
func Placeholder(cardID string) CardDetails {
	return CardDetails{
		ID:          cardID,
		FullID:      cardID,
		Name:        "Unknown card",
		Placeholder: true,
	}
}

// Contains reports whether cardID is in the catalog.
func (idx *Index) Contains(cardID string) bool {
	_, ok := idx.cards[cardID]
	return ok
}

// Len returns the number of cards.
func (idx *Index) Len() int {
	return len(idx.cards)
}

// All returns every card ordered by FullID, then ID.
func (idx *Index) All() []CardDetails {
	out := make([]CardDetails, len(idx.sorted))
	copy(out, idx.sorted)
	return out
}

// Search returns cards whose name contains query, case-insensitively.
// Name-prefix matches are listed before other matches.
func (idx *Index) Search(query string) []CardDetails {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return idx.All()
	}

	var prefix, contains []CardDetails
	for _, card := range idx.sorted {
		name := strings.ToLower(card.Name)
		switch {
		case strings.HasPrefix(name, q):
			prefix = append(prefix, card)
		case strings.Contains(name, q):
			contains = append(contains, card)
		}
	}

	return append(prefix, contains...)
}
