package binder

import (
	"context"
	"time"
)

// ChangeKind identifies a committed mutation.
type ChangeKind string

const (
	ChangeQuantity    ChangeKind = "collection.quantity"
	ChangeWishAdded   ChangeKind = "wishlist.add"
	ChangeWishRemoved ChangeKind = "wishlist.remove"
	ChangeDeckCreated ChangeKind = "deck.created"
	ChangeDeckUpdated ChangeKind = "deck.updated"
	ChangeDeckDeleted ChangeKind = "deck.deleted"
)

// Change is one committed mutation with the post-state persistence needs.
type Change struct {
	Kind ChangeKind `json:"kind"`

	// Collection and wishlist changes.
	CardID   string `json:"cardId,omitempty"`
	Quantity int    `json:"quantity"`
	Delta    int    `json:"delta,omitempty"`

	// Deck changes. Deck is nil for deletions.
	DeckID string `json:"deckId,omitempty"`
	Deck   *Deck  `json:"deck,omitempty"`
}

// Commit is the outcome of one successful Session.Update.
type Commit struct {
	Version uint64    `json:"version"`
	At      time.Time `json:"at"`
	Source  string    `json:"source,omitempty"`
	Changes []Change  `json:"changes"`
}

type sourceKey struct{}

// WithSource tags updates made with ctx, e.g. "api" or "drag".
// The tag ends up in the collection history.
func WithSource(ctx context.Context, source string) context.Context {
	return context.WithValue(ctx, sourceKey{}, source)
}

// SourceFrom returns the tag set by WithSource, or "".
func SourceFrom(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	source, _ := ctx.Value(sourceKey{}).(string)
	return source
}
