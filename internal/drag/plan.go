package drag

import (
	"fmt"

	"github.com/ramonehamilton/deck-binder/internal/binder"
)

// PlanKind is the store operation a drop resolves to.
type PlanKind string

const (
	PlanPlace    PlanKind = "place"
	PlanMove     PlanKind = "move"
	PlanTransfer PlanKind = "transfer"
	PlanRemove   PlanKind = "remove"
	PlanNoop     PlanKind = "noop"
)

// Plan is the mutation a committed drop applies.
type Plan struct {
	Kind     PlanKind `json:"kind"`
	CardID   string   `json:"cardId"`
	FromDeck string   `json:"fromDeck,omitempty"`
	FromSlot int      `json:"fromSlot"`
	ToDeck   string   `json:"toDeck,omitempty"`
	ToSlot   int      `json:"toSlot"`
}

// PlanFor maps a source and drop target to a plan. A non-empty Reason means the
// drop is not allowed and must be rolled back.
//
// Deck-to-deck drops move the card: the source slot is emptied in the same
// update that fills the destination. A card is never copied.
func PlanFor(src Location, tgt Target) (Plan, Reason) {
	switch tgt.Kind {
	case TargetTrash:
		if src.Kind != LocationDeckSlot {
			return Plan{}, ReasonCollectionToTrash
		}
		return Plan{Kind: PlanRemove, CardID: src.CardID, FromDeck: src.DeckID, FromSlot: src.Slot}, ReasonNone

	case TargetDeckSlot:
		switch src.Kind {
		case LocationCollection:
			return Plan{Kind: PlanPlace, CardID: src.CardID, ToDeck: tgt.DeckID, ToSlot: tgt.Slot}, ReasonNone
		case LocationDeckSlot:
			p := Plan{
				CardID:   src.CardID,
				FromDeck: src.DeckID,
				FromSlot: src.Slot,
				ToDeck:   tgt.DeckID,
				ToSlot:   tgt.Slot,
			}
			switch {
			case src.DeckID == tgt.DeckID && src.Slot == tgt.Slot:
				p.Kind = PlanNoop
			case src.DeckID == tgt.DeckID:
				p.Kind = PlanMove
			default:
				p.Kind = PlanTransfer
			}
			return p, ReasonNone
		}
	}

	return Plan{}, ReasonInvalidDropTarget
}

// Apply executes the plan inside tx and returns the card evicted from the
// destination slot, if any. A deck-slot source must still hold the card.
func (p Plan) Apply(tx *binder.Tx) (string, error) {
	if p.FromDeck != "" {
		deck, err := tx.Deck(p.FromDeck)
		if err != nil {
			return "", err
		}
		if held, _ := deck.CardAt(p.FromSlot); held != p.CardID {
			return "", fmt.Errorf("deck %s slot %d: %w", p.FromDeck, p.FromSlot, ErrSourceChanged)
		}
	}

	switch p.Kind {
	case PlanPlace:
		return tx.PlaceCard(p.ToDeck, p.ToSlot, p.CardID)
	case PlanMove:
		if err := tx.MoveCard(p.FromDeck, p.FromSlot, p.ToSlot); err != nil {
			return "", err
		}
		return "", nil
	case PlanTransfer:
		return tx.TransferCard(p.FromDeck, p.FromSlot, p.ToDeck, p.ToSlot)
	case PlanRemove:
		if _, err := tx.RemoveCard(p.FromDeck, p.FromSlot); err != nil {
			return "", err
		}
		return "", nil
	case PlanNoop:
		return "", nil
	}
	return "", fmt.Errorf("unknown plan kind %q", p.Kind)
}
