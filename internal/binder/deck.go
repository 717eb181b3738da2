package binder

import "time"

// MaxSlots is the largest deck CreateDeck accepts.
const MaxSlots = 1024

// Deck is a named, fixed-capacity sequence of card slots.
// An empty slot holds "".
type Deck struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Slots       []string  `json:"slots"`
	CoverCardID string    `json:"coverCardId,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Capacity returns the fixed slot count.
func (d *Deck) Capacity() int {
	return len(d.Slots)
}

// CardAt returns the card in slot, or false if the slot is empty or out of range.
func (d *Deck) CardAt(slot int) (string, bool) {
	if slot < 0 || slot >= len(d.Slots) || d.Slots[slot] == "" {
		return "", false
	}
	return d.Slots[slot], true
}

// Holds reports whether any slot references cardID.
func (d *Deck) Holds(cardID string) bool {
	for _, id := range d.Slots {
		if id == cardID {
			return true
		}
	}
	return false
}

// Filled returns the number of non-empty slots.
func (d *Deck) Filled() int {
	n := 0
	for _, id := range d.Slots {
		if id != "" {
			n++
		}
	}
	return n
}

func (d *Deck) clone() *Deck {
	c := *d
	c.Slots = make([]string, len(d.Slots))
	copy(c.Slots, d.Slots)
	return &c
}

// reconcileCover clears the cover when no slot holds the cover card any more.
func (d *Deck) reconcileCover() {
	if d.CoverCardID != "" && !d.Holds(d.CoverCardID) {
		d.CoverCardID = ""
	}
}
