package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ramonehamilton/deck-binder/internal/api/response"
	"github.com/ramonehamilton/deck-binder/internal/binder"
	"github.com/ramonehamilton/deck-binder/internal/catalog"
)

// WishlistHandler handles wishlist requests.
type WishlistHandler struct {
	session *binder.Session
	catalog *catalog.Index
}

// NewWishlistHandler creates a new WishlistHandler.
func NewWishlistHandler(session *binder.Session, idx *catalog.Index) *WishlistHandler {
	return &WishlistHandler{session: session, catalog: idx}
}

// WishlistItem is one wished card with how many copies are already owned.
type WishlistItem struct {
	CardID string              `json:"cardId"`
	Owned  int                 `json:"owned"`
	Card   catalog.CardDetails `json:"card"`
}

// WishResult is returned when the wishlist changes.
type WishResult struct {
	CardID  string `json:"cardId"`
	Wished  bool   `json:"wished"`
	Version uint64 `json:"version"`
}

// GetWishlist returns the wishlist ordered by card id.
func (h *WishlistHandler) GetWishlist(w http.ResponseWriter, r *http.Request) {
	snap := h.session.Snapshot()

	items := make([]WishlistItem, 0, len(snap.Wishlist))
	for _, id := range snap.Wishlist {
		items = append(items, WishlistItem{
			CardID: id,
			Owned:  snap.QuantityOf(id),
			Card:   h.catalog.ResolveOrPlaceholder(id),
		})
	}

	response.Success(w, items)
}

// AddWish puts a card on the wishlist. Adding a wished card is a no-op.
func (h *WishlistHandler) AddWish(w http.ResponseWriter, r *http.Request) {
	cardID := chi.URLParam(r, "cardID")

	commit, err := h.session.Update(binder.WithSource(r.Context(), SourceAPI), func(tx *binder.Tx) error {
		return tx.AddWish(cardID)
	})
	if err != nil {
		writeError(w, err)
		return
	}

	response.Success(w, WishResult{CardID: cardID, Wished: true, Version: commit.Version})
}

// RemoveWish takes a card off the wishlist. Removing an absent card is a no-op.
func (h *WishlistHandler) RemoveWish(w http.ResponseWriter, r *http.Request) {
	cardID := chi.URLParam(r, "cardID")

	commit, err := h.session.Update(binder.WithSource(r.Context(), SourceAPI), func(tx *binder.Tx) error {
		tx.RemoveWish(cardID)
		return nil
	})
	if err != nil {
		writeError(w, err)
		return
	}

	response.Success(w, WishResult{CardID: cardID, Wished: false, Version: commit.Version})
}
