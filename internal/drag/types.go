// Package drag implements the pick-up/drop gesture that moves cards between the
// collection, deck slots and the trash.
//
// The gesture itself is a finite-state machine with a pure transition function
// (see Transition). Controller feeds it abstract pointer events, hit-tests
// coordinates against a HitTester and applies the resulting Plan to a
// binder.Session in a single update.
package drag

import "errors"

// Status is the state of a gesture.
type Status string

const (
	StatusIdle       Status = "idle"
	StatusActive     Status = "active"
	StatusCommitting Status = "committing"
	StatusRolledBack Status = "rolled_back"
)

// LocationKind is the surface a card is picked up from.
type LocationKind string

const (
	LocationCollection LocationKind = "collection"
	LocationDeckSlot   LocationKind = "deck-slot"
)

// Location identifies where a dragged card came from.
type Location struct {
	Kind   LocationKind `json:"kind"`
	DeckID string       `json:"deckId,omitempty"`
	Slot   int          `json:"slot"`
	CardID string       `json:"cardId,omitempty"`
}

// FromCollection is a collection-grid location holding cardID.
func FromCollection(cardID string) Location {
	return Location{Kind: LocationCollection, CardID: cardID}
}

// FromDeckSlot is a deck slot location. CardID is filled in by the controller.
func FromDeckSlot(deckID string, slot int) Location {
	return Location{Kind: LocationDeckSlot, DeckID: deckID, Slot: slot}
}

// TargetKind is the kind of drop target.
type TargetKind string

const (
	TargetDeckSlot TargetKind = "deck-slot"
	TargetTrash    TargetKind = "trash"
)

// Target is a drop target.
type Target struct {
	Kind   TargetKind `json:"kind"`
	DeckID string     `json:"deckId,omitempty"`
	Slot   int        `json:"slot"`
}

// DeckSlot returns a deck slot target.
func DeckSlot(deckID string, slot int) Target {
	return Target{Kind: TargetDeckSlot, DeckID: deckID, Slot: slot}
}

// Trash returns the trash target.
func Trash() Target {
	return Target{Kind: TargetTrash}
}

// Point is a pointer position in layout coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Reason explains why a gesture was rejected or rolled back.
type Reason string

const (
	ReasonNone              Reason = ""
	ReasonEmptySource       Reason = "empty-source"
	ReasonDragInProgress    Reason = "drag-in-progress"
	ReasonNotDragging       Reason = "not-dragging"
	ReasonInvalidDropTarget Reason = "invalid-drop-target"
	ReasonCollectionToTrash Reason = "collection-to-trash"
	ReasonCancelled         Reason = "cancelled"
	ReasonStoreError        Reason = "store-error"
)

// Gesture is the ephemeral state of one drag. It is never persisted.
type Gesture struct {
	Status  Status    `json:"status"`
	Source  *Location `json:"source,omitempty"`
	Target  *Target   `json:"target,omitempty"`
	Pointer Point     `json:"pointer"`
	Reason  Reason    `json:"reason,omitempty"`

	// BaseVersion is the session version when the gesture started.
	BaseVersion uint64 `json:"baseVersion"`
}

// Idle is the zero gesture.
func Idle() Gesture {
	return Gesture{Status: StatusIdle}
}

func (g Gesture) clone() Gesture {
	if g.Source != nil {
		src := *g.Source
		g.Source = &src
	}
	if g.Target != nil {
		tgt := *g.Target
		g.Target = &tgt
	}
	return g
}

// Controller errors.
var (
	ErrDragInProgress = errors.New("a drag is already in progress")
	ErrNothingToDrag  = errors.New("nothing to drag at location")
	ErrNotDragging    = errors.New("no drag in progress")
	ErrSourceChanged  = errors.New("drag source no longer holds the card")
)
