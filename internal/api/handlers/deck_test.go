package handlers

import (
	"net/http"
	"testing"
)

func TestDeckHandler_CreateDeck(t *testing.T) {
	tests := []struct {
		name           string
		requestBody    string
		expectedStatus int
	}{
		{"valid deck", `{"name":"Aggro","slotCount":6}`, http.StatusCreated},
		{"blank name", `{"name":"  ","slotCount":6}`, http.StatusUnprocessableEntity},
		{"no slots", `{"name":"Aggro","slotCount":0}`, http.StatusUnprocessableEntity},
		{"too many slots", `{"name":"Aggro","slotCount":1099511627776}`, http.StatusUnprocessableEntity},
		{"malformed body", `{"name":`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, false)
			rec := env.do(t, http.MethodPost, "/decks", tt.requestBody)
			expectStatus(t, rec, tt.expectedStatus)

			if tt.expectedStatus == http.StatusCreated {
				deck := decodeData[DeckView](t, rec)
				if deck.ID != "deck-1" || deck.Capacity != 6 || deck.Filled != 0 {
					t.Errorf("unexpected deck: %+v", deck)
				}
			}
		})
	}
}

func TestDeckHandler_GetDecks(t *testing.T) {
	env := newTestEnv(t, false)
	env.own(t, "a", "b")
	env.deck(t, "First", 3, "a")
	env.deck(t, "Second", 2, "b", "a")

	rec := env.do(t, http.MethodGet, "/decks", "")
	expectStatus(t, rec, http.StatusOK)
	decks := decodeData[[]DeckView](t, rec)

	if len(decks) != 2 {
		t.Fatalf("expected 2 decks, got %d", len(decks))
	}
	if decks[0].Name != "First" || decks[1].Name != "Second" {
		t.Errorf("expected creation order, got %s, %s", decks[0].Name, decks[1].Name)
	}
	if decks[1].Filled != 2 || decks[1].Capacity != 2 {
		t.Errorf("unexpected counts: %+v", decks[1])
	}
}

func TestDeckHandler_GetDeck(t *testing.T) {
	env := newTestEnv(t, false)
	env.deck(t, "First", 3)

	expectStatus(t, env.do(t, http.MethodGet, "/decks/deck-1", ""), http.StatusOK)
	expectStatus(t, env.do(t, http.MethodGet, "/decks/nope", ""), http.StatusNotFound)
}

func TestDeckHandler_PlaceCard(t *testing.T) {
	env := newTestEnv(t, false)
	env.own(t, "a", "b")
	env.deck(t, "First", 3, "a")

	tests := []struct {
		name        string
		path        string
		body        string
		status      int
		wantEvicted string
	}{
		{"into empty slot", "/decks/deck-1/slots/1", `{"cardId":"b"}`, http.StatusOK, ""},
		{"evicts occupant", "/decks/deck-1/slots/0", `{"cardId":"b"}`, http.StatusOK, "a"},
		{"unowned card", "/decks/deck-1/slots/2", `{"cardId":"c"}`, http.StatusConflict, ""},
		{"slot out of range", "/decks/deck-1/slots/3", `{"cardId":"a"}`, http.StatusUnprocessableEntity, ""},
		{"negative slot", "/decks/deck-1/slots/-1", `{"cardId":"a"}`, http.StatusUnprocessableEntity, ""},
		{"non numeric slot", "/decks/deck-1/slots/x", `{"cardId":"a"}`, http.StatusBadRequest, ""},
		{"missing card", "/decks/deck-1/slots/2", `{}`, http.StatusBadRequest, ""},
		{"unknown deck", "/decks/nope/slots/0", `{"cardId":"a"}`, http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPut, tt.path, tt.body)
			expectStatus(t, rec, tt.status)
			if tt.status == http.StatusOK {
				if got := decodeData[SlotResult](t, rec); got.Evicted != tt.wantEvicted {
					t.Errorf("expected evicted %q, got %q", tt.wantEvicted, got.Evicted)
				}
			}
		})
	}

	deck, _ := env.session.Deck("deck-1")
	if deck.Slots[0] != "b" || deck.Slots[1] != "b" || deck.Slots[2] != "" {
		t.Errorf("unexpected slots: %v", deck.Slots)
	}
}

func TestDeckHandler_RemoveCard(t *testing.T) {
	env := newTestEnv(t, false)
	env.own(t, "a")
	env.deck(t, "First", 2, "a")

	rec := env.do(t, http.MethodDelete, "/decks/deck-1/slots/0", "")
	expectStatus(t, rec, http.StatusOK)
	got := decodeData[SlotResult](t, rec)
	if got.Removed != "a" || got.Deck.Filled != 0 {
		t.Errorf("unexpected result: %+v", got)
	}
	if env.session.QuantityOf("a") != 1 {
		t.Error("removing from a deck must not change the collection")
	}
}

func TestDeckHandler_MoveCard(t *testing.T) {
	env := newTestEnv(t, false)
	env.own(t, "a", "b")
	env.deck(t, "First", 3, "a", "", "b")

	rec := env.do(t, http.MethodPost, "/decks/deck-1/move", `{"from":0,"to":2}`)
	expectStatus(t, rec, http.StatusOK)
	got := decodeData[SlotResult](t, rec)
	if got.Deck.Slots[0] != "b" || got.Deck.Slots[2] != "a" {
		t.Errorf("expected swap, got %v", got.Deck.Slots)
	}

	expectStatus(t, env.do(t, http.MethodPost, "/decks/deck-1/move", `{"from":1,"to":0}`), http.StatusUnprocessableEntity)
}

func TestDeckHandler_TransferCard(t *testing.T) {
	env := newTestEnv(t, false)
	env.own(t, "a", "b")
	env.deck(t, "First", 2, "a")
	env.deck(t, "Second", 2, "", "b")

	rec := env.do(t, http.MethodPost, "/decks/deck-1/transfer", `{"fromSlot":0,"toDeckId":"deck-2","toSlot":1}`)
	expectStatus(t, rec, http.StatusOK)
	got := decodeData[SlotResult](t, rec)
	if got.Evicted != "b" {
		t.Errorf("expected b evicted, got %q", got.Evicted)
	}
	if got.Deck.ID != "deck-1" || got.Deck.Slots[0] != "" {
		t.Errorf("expected source slot emptied, got %+v", got.Deck)
	}

	second, _ := env.session.Deck("deck-2")
	if second.Slots[1] != "a" {
		t.Errorf("expected a in deck-2, got %v", second.Slots)
	}

	expectStatus(t, env.do(t, http.MethodPost, "/decks/deck-1/transfer", `{"fromSlot":0,"toSlot":1}`), http.StatusBadRequest)
	expectStatus(t, env.do(t, http.MethodPost, "/decks/deck-1/transfer", `{"fromSlot":0,"toDeckId":"deck-2","toSlot":0}`), http.StatusUnprocessableEntity)
}

func TestDeckHandler_UpdateDeck(t *testing.T) {
	env := newTestEnv(t, false)
	env.own(t, "a", "b")
	env.deck(t, "First", 2, "a")

	rec := env.do(t, http.MethodPatch, "/decks/deck-1", `{"name":"Renamed","coverCardId":"a"}`)
	expectStatus(t, rec, http.StatusOK)
	got := decodeData[DeckView](t, rec)
	if got.Name != "Renamed" || got.CoverCardID != "a" || got.Cover == nil || got.Cover.Name != "Archer" {
		t.Errorf("unexpected deck: %+v", got)
	}

	// An invalid cover rejects the whole request, including the rename.
	rec = env.do(t, http.MethodPatch, "/decks/deck-1", `{"name":"Other","coverCardId":"b"}`)
	expectStatus(t, rec, http.StatusUnprocessableEntity)
	deck, _ := env.session.Deck("deck-1")
	if deck.Name != "Renamed" {
		t.Errorf("expected name to stay Renamed, got %q", deck.Name)
	}

	expectStatus(t, env.do(t, http.MethodPatch, "/decks/deck-1", `{}`), http.StatusBadRequest)
	expectStatus(t, env.do(t, http.MethodPatch, "/decks/nope", `{"name":"x"}`), http.StatusNotFound)
}

func TestDeckHandler_DeleteDeck(t *testing.T) {
	env := newTestEnv(t, false)
	env.own(t, "a")
	env.deck(t, "First", 2, "a")

	expectStatus(t, env.do(t, http.MethodDelete, "/decks/deck-1", ""), http.StatusNoContent)
	expectStatus(t, env.do(t, http.MethodDelete, "/decks/deck-1", ""), http.StatusNotFound)
	if env.session.QuantityOf("a") != 1 {
		t.Error("deleting a deck must not change the collection")
	}
}

func TestDeckHandler_GetDeckGrid(t *testing.T) {
	env := newTestEnv(t, false)
	env.own(t, "a", "b")
	env.deck(t, "First", 6, "a", "", "b")

	rec := env.do(t, http.MethodGet, "/decks/deck-1/grid?columns=3&size=sm&x=100&y=50", "")
	expectStatus(t, rec, http.StatusOK)
	got := decodeData[DeckGridResponse](t, rec)

	if len(got.Matrix.Rows) != 2 || len(got.Matrix.Rows[0]) != 3 {
		t.Fatalf("expected 2x3 grid, got %d rows", len(got.Matrix.Rows))
	}
	if !got.Matrix.Rows[0][1].Empty || got.Matrix.Rows[0][2].CardID != "b" {
		t.Errorf("unexpected first row: %+v", got.Matrix.Rows[0])
	}
	if len(got.Regions) != 6 {
		t.Fatalf("expected 6 regions, got %d", len(got.Regions))
	}
	// sm cells are 96 wide with a 4 gap.
	if r := got.Regions[4].Rect; r.X != 200 || r.Y != 50+134+4 {
		t.Errorf("unexpected region for slot 4: %+v", r)
	}

	expectStatus(t, env.do(t, http.MethodGet, "/decks/nope/grid", ""), http.StatusNotFound)

	rec = env.do(t, http.MethodGet, "/decks/deck-1/grid?columns=1099511627776", "")
	expectStatus(t, rec, http.StatusOK)
	got = decodeData[DeckGridResponse](t, rec)
	if len(got.Matrix.Rows) != 1 || len(got.Regions) != 6 {
		t.Errorf("expected one clamped row and 6 regions, got %d rows %d regions", len(got.Matrix.Rows), len(got.Regions))
	}
}
