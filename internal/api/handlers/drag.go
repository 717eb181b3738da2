package handlers

import (
	"net/http"

	"github.com/ramonehamilton/deck-binder/internal/api/response"
	"github.com/ramonehamilton/deck-binder/internal/binder"
	"github.com/ramonehamilton/deck-binder/internal/drag"
	"github.com/ramonehamilton/deck-binder/internal/grid"
)

// DragHandler relays pointer input to the drag controller and manages the drop
// region layout it hit-tests against.
type DragHandler struct {
	controller *drag.Controller
	layout     *drag.RectLayout
	session    *binder.Session
	grid       GridDefaults
}

// NewDragHandler creates a new DragHandler.
func NewDragHandler(controller *drag.Controller, layout *drag.RectLayout, session *binder.Session, defaults GridDefaults) *DragHandler {
	return &DragHandler{controller: controller, layout: layout, session: session, grid: defaults}
}

// PointerDownRequest is the body of POST /drag/down.
type PointerDownRequest struct {
	Source  drag.Location `json:"source"`
	Pointer drag.Point    `json:"pointer"`
}

// PointerRequest is the body of POST /drag/move and /drag/up.
type PointerRequest struct {
	Pointer drag.Point `json:"pointer"`
}

// DeckPlacement positions one rendered deck grid on screen.
type DeckPlacement struct {
	DeckID  string     `json:"deckId"`
	Origin  drag.Point `json:"origin"`
	Columns int        `json:"columns,omitempty"`
}

// LayoutRequest is the body of PUT /drag/layout. Deck placements are expanded into
// one region per slot; explicit regions and the trash zone are added after them,
// so they win where they overlap.
type LayoutRequest struct {
	Size    string          `json:"size,omitempty"`
	Decks   []DeckPlacement `json:"decks,omitempty"`
	Regions []drag.Region   `json:"regions,omitempty"`
	Trash   *drag.Rect      `json:"trash,omitempty"`
}

// GetState returns the current gesture.
func (h *DragHandler) GetState(w http.ResponseWriter, r *http.Request) {
	response.Success(w, h.controller.State())
}

// PointerDown picks up the card at the source location.
func (h *DragHandler) PointerDown(w http.ResponseWriter, r *http.Request) {
	var req PointerDownRequest
	if err := decodeBody(r, &req); err != nil {
		response.BadRequest(w, err)
		return
	}

	gesture, err := h.controller.PointerDown(r.Context(), req.Source, req.Pointer)
	if err != nil {
		writeError(w, err)
		return
	}
	response.Success(w, gesture)
}

// PointerMove updates the hovered target.
func (h *DragHandler) PointerMove(w http.ResponseWriter, r *http.Request) {
	var req PointerRequest
	if err := decodeBody(r, &req); err != nil {
		response.BadRequest(w, err)
		return
	}
	response.Success(w, h.controller.PointerMove(r.Context(), req.Pointer))
}

// PointerUp drops the card. Rolled back drops are not errors; the result carries
// the reason and any user-facing notice.
func (h *DragHandler) PointerUp(w http.ResponseWriter, r *http.Request) {
	var req PointerRequest
	if err := decodeBody(r, &req); err != nil {
		response.BadRequest(w, err)
		return
	}

	result, err := h.controller.PointerUp(r.Context(), req.Pointer)
	if err != nil {
		writeError(w, err)
		return
	}
	response.Success(w, result)
}

// Cancel aborts the active drag.
func (h *DragHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	response.Success(w, h.controller.Cancel(r.Context()))
}

// GetLayout returns the drop regions in hit-test order.
func (h *DragHandler) GetLayout(w http.ResponseWriter, r *http.Request) {
	response.Success(w, h.layout.Regions())
}

// SetLayout replaces the drop regions.
func (h *DragHandler) SetLayout(w http.ResponseWriter, r *http.Request) {
	var req LayoutRequest
	if err := decodeBody(r, &req); err != nil {
		response.BadRequest(w, err)
		return
	}

	size := h.grid.Size
	if req.Size != "" {
		size = grid.ParseSize(req.Size)
	}

	var regions []drag.Region
	for _, placement := range req.Decks {
		deck, err := h.session.Deck(placement.DeckID)
		if err != nil {
			writeError(w, err)
			return
		}
		columns := placement.Columns
		if columns < 1 {
			columns = h.grid.Columns
		}
		columns = grid.ClampColumns(columns)
		regions = append(regions, grid.DeckRegions(deck, columns, placement.Origin, size)...)
	}
	regions = append(regions, req.Regions...)
	if req.Trash != nil {
		regions = append(regions, grid.TrashRegion(*req.Trash))
	}

	h.layout.Set(regions)
	response.Success(w, h.layout.Regions())
}
