package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ramonehamilton/deck-binder/internal/api/response"
	"github.com/ramonehamilton/deck-binder/internal/binder"
	"github.com/ramonehamilton/deck-binder/internal/catalog"
	"github.com/ramonehamilton/deck-binder/internal/drag"
	"github.com/ramonehamilton/deck-binder/internal/grid"
)

// DeckHandler handles deck requests.
type DeckHandler struct {
	session *binder.Session
	catalog *catalog.Index
	drag    *drag.Controller
	grid    GridDefaults
}

// NewDeckHandler creates a new DeckHandler. controller may be nil, in which case
// grids carry no drag feedback.
func NewDeckHandler(session *binder.Session, idx *catalog.Index, controller *drag.Controller, defaults GridDefaults) *DeckHandler {
	return &DeckHandler{session: session, catalog: idx, drag: controller, grid: defaults}
}

// DeckView is a deck with derived counts and its resolved cover.
type DeckView struct {
	binder.Deck
	Capacity int                  `json:"capacity"`
	Filled   int                  `json:"filled"`
	Cover    *catalog.CardDetails `json:"cover,omitempty"`
}

func (h *DeckHandler) view(deck binder.Deck) DeckView {
	v := DeckView{Deck: deck, Capacity: deck.Capacity(), Filled: deck.Filled()}
	if deck.CoverCardID != "" {
		cover := h.catalog.ResolveOrPlaceholder(deck.CoverCardID)
		v.Cover = &cover
	}
	return v
}

// CreateDeckRequest is the body of POST /decks.
type CreateDeckRequest struct {
	Name      string `json:"name"`
	SlotCount int    `json:"slotCount"`
}

// UpdateDeckRequest is the body of PATCH /decks/{deckID}. Omitted fields are kept;
// an empty coverCardId clears the cover.
type UpdateDeckRequest struct {
	Name        *string `json:"name"`
	CoverCardID *string `json:"coverCardId"`
}

// PlaceCardRequest is the body of PUT /decks/{deckID}/slots/{slot}.
type PlaceCardRequest struct {
	CardID string `json:"cardId"`
}

// MoveCardRequest is the body of POST /decks/{deckID}/move.
type MoveCardRequest struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// TransferCardRequest is the body of POST /decks/{deckID}/transfer.
type TransferCardRequest struct {
	FromSlot int    `json:"fromSlot"`
	ToDeckID string `json:"toDeckId"`
	ToSlot   int    `json:"toSlot"`
}

// SlotResult is returned by slot mutations.
type SlotResult struct {
	Deck    DeckView `json:"deck"`
	Evicted string   `json:"evicted,omitempty"`
	Removed string   `json:"removed,omitempty"`
	Version uint64   `json:"version"`
}

// GetDecks returns all decks in creation order.
func (h *DeckHandler) GetDecks(w http.ResponseWriter, r *http.Request) {
	decks := h.session.Decks()
	views := make([]DeckView, 0, len(decks))
	for _, d := range decks {
		views = append(views, h.view(d))
	}
	response.Success(w, views)
}

// GetDeck returns one deck.
func (h *DeckHandler) GetDeck(w http.ResponseWriter, r *http.Request) {
	deck, err := h.session.Deck(chi.URLParam(r, "deckID"))
	if err != nil {
		writeError(w, err)
		return
	}
	response.Success(w, h.view(deck))
}

// CreateDeck creates an empty deck.
func (h *DeckHandler) CreateDeck(w http.ResponseWriter, r *http.Request) {
	var req CreateDeckRequest
	if err := decodeBody(r, &req); err != nil {
		response.BadRequest(w, err)
		return
	}

	deck, err := h.session.CreateDeck(binder.WithSource(r.Context(), SourceAPI), req.Name, req.SlotCount)
	if err != nil {
		writeError(w, err)
		return
	}

	response.Created(w, h.view(deck))
}

// UpdateDeck renames a deck and/or sets its cover in one change.
func (h *DeckHandler) UpdateDeck(w http.ResponseWriter, r *http.Request) {
	deckID := chi.URLParam(r, "deckID")

	var req UpdateDeckRequest
	if err := decodeBody(r, &req); err != nil {
		response.BadRequest(w, err)
		return
	}
	if req.Name == nil && req.CoverCardID == nil {
		response.BadRequest(w, errors.New("name or coverCardId is required"))
		return
	}

	var deck binder.Deck
	_, err := h.session.Update(binder.WithSource(r.Context(), SourceAPI), func(tx *binder.Tx) error {
		if req.Name != nil {
			if err := tx.RenameDeck(deckID, *req.Name); err != nil {
				return err
			}
		}
		if req.CoverCardID != nil {
			if err := tx.SetCover(deckID, *req.CoverCardID); err != nil {
				return err
			}
		}
		var err error
		deck, err = tx.Deck(deckID)
		return err
	})
	if err != nil {
		writeError(w, err)
		return
	}

	response.Success(w, h.view(deck))
}

// DeleteDeck deletes a deck. Collection quantities are not affected.
func (h *DeckHandler) DeleteDeck(w http.ResponseWriter, r *http.Request) {
	if err := h.session.DeleteDeck(binder.WithSource(r.Context(), SourceAPI), chi.URLParam(r, "deckID")); err != nil {
		writeError(w, err)
		return
	}
	response.NoContent(w)
}

// PlaceCard puts an owned card into a slot, evicting any card already there.
func (h *DeckHandler) PlaceCard(w http.ResponseWriter, r *http.Request) {
	slot, err := intParam(r, "slot")
	if err != nil {
		response.BadRequest(w, err)
		return
	}
	var req PlaceCardRequest
	if err := decodeBody(r, &req); err != nil {
		response.BadRequest(w, err)
		return
	}
	if req.CardID == "" {
		response.BadRequest(w, errors.New("cardId is required"))
		return
	}

	h.slotUpdate(w, r, func(tx *binder.Tx, deckID string, res *SlotResult) error {
		var err error
		res.Evicted, err = tx.PlaceCard(deckID, slot, req.CardID)
		return err
	})
}

// RemoveCard empties a slot.
func (h *DeckHandler) RemoveCard(w http.ResponseWriter, r *http.Request) {
	slot, err := intParam(r, "slot")
	if err != nil {
		response.BadRequest(w, err)
		return
	}

	h.slotUpdate(w, r, func(tx *binder.Tx, deckID string, res *SlotResult) error {
		var err error
		res.Removed, err = tx.RemoveCard(deckID, slot)
		return err
	})
}

// MoveCard moves a card within the deck, swapping with an occupied destination.
func (h *DeckHandler) MoveCard(w http.ResponseWriter, r *http.Request) {
	var req MoveCardRequest
	if err := decodeBody(r, &req); err != nil {
		response.BadRequest(w, err)
		return
	}

	h.slotUpdate(w, r, func(tx *binder.Tx, deckID string, _ *SlotResult) error {
		return tx.MoveCard(deckID, req.From, req.To)
	})
}

// TransferCard moves a card from this deck into another deck.
func (h *DeckHandler) TransferCard(w http.ResponseWriter, r *http.Request) {
	var req TransferCardRequest
	if err := decodeBody(r, &req); err != nil {
		response.BadRequest(w, err)
		return
	}
	if req.ToDeckID == "" {
		response.BadRequest(w, errors.New("toDeckId is required"))
		return
	}

	h.slotUpdate(w, r, func(tx *binder.Tx, deckID string, res *SlotResult) error {
		var err error
		res.Evicted, err = tx.TransferCard(deckID, req.FromSlot, req.ToDeckID, req.ToSlot)
		return err
	})
}

// slotUpdate runs fn in one session update and answers with the resulting deck.
func (h *DeckHandler) slotUpdate(w http.ResponseWriter, r *http.Request, fn func(*binder.Tx, string, *SlotResult) error) {
	deckID := chi.URLParam(r, "deckID")

	var res SlotResult
	var deck binder.Deck
	commit, err := h.session.Update(binder.WithSource(r.Context(), SourceAPI), func(tx *binder.Tx) error {
		if err := fn(tx, deckID, &res); err != nil {
			return err
		}
		var err error
		deck, err = tx.Deck(deckID)
		return err
	})
	if err != nil {
		writeError(w, err)
		return
	}

	res.Deck = h.view(deck)
	res.Version = commit.Version
	response.Success(w, res)
}

// DeckGridResponse is a rendered deck with the drop regions for its slots.
type DeckGridResponse struct {
	gridResponse
	Regions []drag.Region `json:"regions"`
}

// GetDeckGrid renders a deck. The x and y query parameters place the grid's top
// left corner for the returned drop regions.
func (h *DeckHandler) GetDeckGrid(w http.ResponseWriter, r *http.Request) {
	deck, err := h.session.Deck(chi.URLParam(r, "deckID"))
	if err != nil {
		writeError(w, err)
		return
	}

	columns, size := h.grid.fromRequest(r)
	var gesture *drag.Gesture
	if h.drag != nil {
		g := h.drag.State()
		gesture = &g
	}
	origin := drag.Point{X: queryFloat(r, "x", 0), Y: queryFloat(r, "y", 0)}

	response.Success(w, DeckGridResponse{
		gridResponse: gridResponse{
			Size:       size,
			Dimensions: size.Dimensions(),
			Matrix:     grid.DeckMatrix(deck, columns, h.catalog, gesture),
		},
		Regions: grid.DeckRegions(deck, columns, origin, size),
	})
}
