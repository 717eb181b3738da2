// Package grid turns deck and collection state into renderable cell matrices and
// the hit-test regions the drag controller uses. It holds no state of its own.
package grid

import (
	"github.com/ramonehamilton/deck-binder/internal/binder"
	"github.com/ramonehamilton/deck-binder/internal/catalog"
	"github.com/ramonehamilton/deck-binder/internal/drag"
)

// SizeToken is the layout hint supplied by the renderer.
type SizeToken string

const (
	SizeSmall  SizeToken = "sm"
	SizeMedium SizeToken = "md"
	SizeLarge  SizeToken = "lg"
)

// MaxColumns is the widest grid rendered. Wider requests are clamped.
const MaxColumns = 64

// ClampColumns limits columns to [1, MaxColumns].
func ClampColumns(columns int) int {
	switch {
	case columns < 1:
		return 1
	case columns > MaxColumns:
		return MaxColumns
	}
	return columns
}

// Dimensions are the cell size and spacing for a SizeToken.
type Dimensions struct {
	CellWidth  float64 `json:"cellWidth"`
	CellHeight float64 `json:"cellHeight"`
	Gap        float64 `json:"gap"`
}

var dimensions = map[SizeToken]Dimensions{
	SizeSmall:  {CellWidth: 96, CellHeight: 134, Gap: 4},
	SizeMedium: {CellWidth: 146, CellHeight: 204, Gap: 8},
	SizeLarge:  {CellWidth: 223, CellHeight: 310, Gap: 12},
}

// ParseSize returns the token for s, falling back to SizeMedium.
func ParseSize(s string) SizeToken {
	if _, ok := dimensions[SizeToken(s)]; ok {
		return SizeToken(s)
	}
	return SizeMedium
}

// Dimensions returns the cell dimensions for the token. Unknown tokens use md.
func (t SizeToken) Dimensions() Dimensions {
	if d, ok := dimensions[t]; ok {
		return d
	}
	return dimensions[SizeMedium]
}

// Resolver resolves card ids for display.
type Resolver interface {
	ResolveOrPlaceholder(cardID string) catalog.CardDetails
}

// Cell is one rendered grid position.
type Cell struct {
	Index       int                  `json:"index"`
	Row         int                  `json:"row"`
	Column      int                  `json:"column"`
	CardID      string               `json:"cardId,omitempty"`
	Card        *catalog.CardDetails `json:"card,omitempty"`
	Empty       bool                 `json:"empty"`
	Placeholder bool                 `json:"placeholder,omitempty"`
	Cover       bool                 `json:"cover,omitempty"`
	Quantity    int                  `json:"quantity,omitempty"`
	Wished      bool                 `json:"wished,omitempty"`
	Hovered     bool                 `json:"hovered,omitempty"`
	Dragging    bool                 `json:"dragging,omitempty"`
}

// Matrix is a grid of cells in row-major order.
type Matrix struct {
	Columns int      `json:"columns"`
	Rows    [][]Cell `json:"rows"`
}

func layout(cells []Cell, columns int) Matrix {
	columns = ClampColumns(columns)
	m := Matrix{Columns: columns, Rows: [][]Cell{}}
	for i := range cells {
		row, col := i/columns, i%columns
		cells[i].Row, cells[i].Column = row, col
		if col == 0 {
			m.Rows = append(m.Rows, make([]Cell, 0, min(columns, len(cells)-i)))
		}
		m.Rows[row] = append(m.Rows[row], cells[i])
	}
	return m
}

func resolved(r Resolver, cardID string) (*catalog.CardDetails, bool) {
	card := r.ResolveOrPlaceholder(cardID)
	return &card, card.Placeholder
}

// DeckMatrix renders deck slots. gesture may be nil; when set, the hovered slot
// and the slot being dragged are flagged.
func DeckMatrix(deck binder.Deck, columns int, r Resolver, gesture *drag.Gesture) Matrix {
	cells := make([]Cell, len(deck.Slots))
	for i, cardID := range deck.Slots {
		cell := Cell{Index: i, CardID: cardID, Empty: cardID == ""}
		if cardID != "" {
			cell.Card, cell.Placeholder = resolved(r, cardID)
			cell.Cover = cardID == deck.CoverCardID
		}
		if gesture != nil && gesture.Status == drag.StatusActive {
			if t := gesture.Target; t != nil && t.Kind == drag.TargetDeckSlot && t.DeckID == deck.ID && t.Slot == i {
				cell.Hovered = true
			}
			if s := gesture.Source; s != nil && s.Kind == drag.LocationDeckSlot && s.DeckID == deck.ID && s.Slot == i {
				cell.Dragging = true
			}
		}
		cells[i] = cell
	}
	return layout(cells, columns)
}

// CollectionMatrix renders owned cards in entry order. wished may be nil.
func CollectionMatrix(entries []binder.CollectionEntry, columns int, r Resolver, wished func(string) bool) Matrix {
	cells := make([]Cell, len(entries))
	for i, entry := range entries {
		cell := Cell{Index: i, CardID: entry.CardID, Quantity: entry.Quantity}
		cell.Card, cell.Placeholder = resolved(r, entry.CardID)
		if wished != nil {
			cell.Wished = wished(entry.CardID)
		}
		cells[i] = cell
	}
	return layout(cells, columns)
}

// DeckRegions returns one drop region per slot for a deck laid out with its top
// left corner at origin.
func DeckRegions(deck binder.Deck, columns int, origin drag.Point, size SizeToken) []drag.Region {
	columns = ClampColumns(columns)
	d := size.Dimensions()
	regions := make([]drag.Region, len(deck.Slots))
	for i := range deck.Slots {
		row, col := i/columns, i%columns
		regions[i] = drag.Region{
			Rect: drag.Rect{
				X: origin.X + float64(col)*(d.CellWidth+d.Gap),
				Y: origin.Y + float64(row)*(d.CellHeight+d.Gap),
				W: d.CellWidth,
				H: d.CellHeight,
			},
			Target: drag.DeckSlot(deck.ID, i),
		}
	}
	return regions
}

// TrashRegion returns the drop region for the trash zone.
func TrashRegion(rect drag.Rect) drag.Region {
	return drag.Region{Rect: rect, Target: drag.Trash()}
}
