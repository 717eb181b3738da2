package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ramonehamilton/deck-binder/internal/api/response"
	"github.com/ramonehamilton/deck-binder/internal/catalog"
)

const (
	defaultPageSize = 50
	maxPageSize     = 500
)

// CardHandler serves the read-only card catalog.
type CardHandler struct {
	catalog *catalog.Index
}

// NewCardHandler creates a new CardHandler.
func NewCardHandler(idx *catalog.Index) *CardHandler {
	return &CardHandler{catalog: idx}
}

// SearchCards returns one page of catalog cards matching q.
func (h *CardHandler) SearchCards(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1)
	if page < 1 {
		page = 1
	}
	pageSize := queryInt(r, "page_size", defaultPageSize)
	if pageSize < 1 || pageSize > maxPageSize {
		pageSize = defaultPageSize
	}

	results := h.catalog.Search(r.URL.Query().Get("q"))
	response.Paginate(w, results, page, pageSize)
}

// GetCard returns a card by id.
func (h *CardHandler) GetCard(w http.ResponseWriter, r *http.Request) {
	cardID := chi.URLParam(r, "cardID")
	if cardID == "" {
		response.BadRequest(w, errors.New("card ID is required"))
		return
	}

	card, err := h.catalog.Resolve(cardID)
	if err != nil {
		writeError(w, err)
		return
	}

	response.Success(w, card)
}
