package binder

import "sort"

// Snapshot is a deep, read-only copy of session state.
type Snapshot struct {
	Version    uint64         `json:"version"`
	Collection map[string]int `json:"collection"`
	Wishlist   []string       `json:"wishlist"`
	Decks      []Deck         `json:"decks"`
}

// CollectionEntry is one owned card.
type CollectionEntry struct {
	CardID   string `json:"cardId"`
	Quantity int    `json:"quantity"`
}

func snapshotOf(st *state) Snapshot {
	snap := Snapshot{
		Version:    st.version,
		Collection: make(map[string]int, len(st.collection)),
		Wishlist:   make([]string, 0, len(st.wishlist)),
		Decks:      make([]Deck, 0, len(st.order)),
	}
	for id, qty := range st.collection {
		snap.Collection[id] = qty
	}
	for id := range st.wishlist {
		snap.Wishlist = append(snap.Wishlist, id)
	}
	sort.Strings(snap.Wishlist)
	for _, id := range st.order {
		snap.Decks = append(snap.Decks, *st.decks[id].clone())
	}
	return snap
}

// QuantityOf returns the owned quantity of cardID.
func (s Snapshot) QuantityOf(cardID string) int {
	return s.Collection[cardID]
}

// Wished reports whether cardID is on the wishlist.
func (s Snapshot) Wished(cardID string) bool {
	i := sort.SearchStrings(s.Wishlist, cardID)
	return i < len(s.Wishlist) && s.Wishlist[i] == cardID
}

// Deck returns the deck with id.
func (s Snapshot) Deck(id string) (Deck, bool) {
	for _, deck := range s.Decks {
		if deck.ID == id {
			return deck, true
		}
	}
	return Deck{}, false
}

// Entries returns the collection ordered by card id.
func (s Snapshot) Entries() []CollectionEntry {
	entries := make([]CollectionEntry, 0, len(s.Collection))
	for id, qty := range s.Collection {
		entries = append(entries, CollectionEntry{CardID: id, Quantity: qty})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].CardID < entries[j].CardID })
	return entries
}
