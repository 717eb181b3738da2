package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ramonehamilton/deck-binder/internal/api/response"
	"github.com/ramonehamilton/deck-binder/internal/binder"
	"github.com/ramonehamilton/deck-binder/internal/catalog"
	"github.com/ramonehamilton/deck-binder/internal/grid"
	"github.com/ramonehamilton/deck-binder/internal/storage/models"
)

const defaultHistoryLimit = 100

// HistoryReader reads the persisted collection change log.
type HistoryReader interface {
	History(ctx context.Context, cardID string, limit int) ([]*models.CollectionHistory, error)
	RecentChanges(ctx context.Context, limit int) ([]*models.CollectionHistory, error)
}

// CollectionHandler handles collection requests.
type CollectionHandler struct {
	session *binder.Session
	catalog *catalog.Index
	history HistoryReader
	grid    GridDefaults
}

// NewCollectionHandler creates a new CollectionHandler. history may be nil, in
// which case the history endpoints answer 503.
func NewCollectionHandler(session *binder.Session, idx *catalog.Index, history HistoryReader, defaults GridDefaults) *CollectionHandler {
	return &CollectionHandler{session: session, catalog: idx, history: history, grid: defaults}
}

// CollectionItem is one owned card.
type CollectionItem struct {
	CardID   string              `json:"cardId"`
	Quantity int                 `json:"quantity"`
	Wished   bool                `json:"wished"`
	Card     catalog.CardDetails `json:"card"`
}

// QuantityChange is returned by acquire and release.
type QuantityChange struct {
	CardID   string `json:"cardId"`
	Quantity int    `json:"quantity"`
	Version  uint64 `json:"version"`
}

// CountRequest is the body of acquire and release. Count defaults to 1.
type CountRequest struct {
	Count *int `json:"count"`
}

// GetCollection returns every owned card ordered by id.
func (h *CollectionHandler) GetCollection(w http.ResponseWriter, r *http.Request) {
	snap := h.session.Snapshot()

	entries := snap.Entries()
	items := make([]CollectionItem, 0, len(entries))
	for _, e := range entries {
		items = append(items, CollectionItem{
			CardID:   e.CardID,
			Quantity: e.Quantity,
			Wished:   snap.Wished(e.CardID),
			Card:     h.catalog.ResolveOrPlaceholder(e.CardID),
		})
	}

	response.Success(w, items)
}

// GetCollectionGrid renders the collection as a grid.
func (h *CollectionHandler) GetCollectionGrid(w http.ResponseWriter, r *http.Request) {
	columns, size := h.grid.fromRequest(r)
	snap := h.session.Snapshot()

	response.Success(w, gridResponse{
		Size:       size,
		Dimensions: size.Dimensions(),
		Matrix:     grid.CollectionMatrix(snap.Entries(), columns, h.catalog, snap.Wished),
	})
}

// Acquire adds copies of a card.
func (h *CollectionHandler) Acquire(w http.ResponseWriter, r *http.Request) {
	h.changeQuantity(w, r, func(tx *binder.Tx, cardID string, count int) error {
		return tx.Acquire(cardID, count)
	})
}

// Release removes copies of a card. Deck slots that can no longer be backed by
// owned copies are emptied in the same change.
func (h *CollectionHandler) Release(w http.ResponseWriter, r *http.Request) {
	h.changeQuantity(w, r, func(tx *binder.Tx, cardID string, count int) error {
		return tx.Release(cardID, count)
	})
}

func (h *CollectionHandler) changeQuantity(w http.ResponseWriter, r *http.Request, apply func(*binder.Tx, string, int) error) {
	cardID := chi.URLParam(r, "cardID")

	var req CountRequest
	if err := decodeBody(r, &req); err != nil {
		response.BadRequest(w, err)
		return
	}
	count := 1
	if req.Count != nil {
		count = *req.Count
	}

	var quantity int
	commit, err := h.session.Update(binder.WithSource(r.Context(), SourceAPI), func(tx *binder.Tx) error {
		if err := apply(tx, cardID, count); err != nil {
			return err
		}
		quantity = tx.QuantityOf(cardID)
		return nil
	})
	if err != nil {
		writeError(w, err)
		return
	}

	response.Success(w, QuantityChange{CardID: cardID, Quantity: quantity, Version: commit.Version})
}

// GetCardHistory returns the persisted quantity changes for one card, newest first.
func (h *CollectionHandler) GetCardHistory(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		writeError(w, errNoHistory)
		return
	}

	history, err := h.history.History(r.Context(), chi.URLParam(r, "cardID"), queryInt(r, "limit", defaultHistoryLimit))
	if err != nil {
		writeError(w, err)
		return
	}

	response.Success(w, history)
}

// GetRecentChanges returns the latest persisted quantity changes across all cards.
func (h *CollectionHandler) GetRecentChanges(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		writeError(w, errNoHistory)
		return
	}

	history, err := h.history.RecentChanges(r.Context(), queryInt(r, "limit", defaultHistoryLimit))
	if err != nil {
		writeError(w, err)
		return
	}

	response.Success(w, history)
}
