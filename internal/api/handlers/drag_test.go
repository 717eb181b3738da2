package handlers

import (
	"net/http"
	"testing"

	"github.com/ramonehamilton/deck-binder/internal/drag"
	"github.com/ramonehamilton/deck-binder/internal/grid"
)

const testLayout = `{
	"decks": [
		{"deckId": "deck-1", "origin": {"x": 0, "y": 0}},
		{"deckId": "deck-2", "origin": {"x": 0, "y": 300}}
	],
	"trash": {"x": 0, "y": 600, "w": 100, "h": 100}
}`

// newDragEnv owns a and b, puts a in deck-1 slot 0 and lays out both decks.
func newDragEnv(t *testing.T) *testEnv {
	t.Helper()
	env := newTestEnv(t, false)
	env.own(t, "a", "b")
	env.deck(t, "First", 4, "a")
	env.deck(t, "Second", 4)
	expectStatus(t, env.do(t, http.MethodPut, "/drag/layout", testLayout), http.StatusOK)
	return env
}

func TestDragHandler_SetLayout(t *testing.T) {
	env := newDragEnv(t)

	rec := env.do(t, http.MethodGet, "/drag/layout", "")
	expectStatus(t, rec, http.StatusOK)
	regions := decodeData[[]drag.Region](t, rec)

	if len(regions) != 9 {
		t.Fatalf("expected 8 slot regions and trash, got %d", len(regions))
	}
	if regions[8].Target.Kind != drag.TargetTrash {
		t.Errorf("expected trash last, got %+v", regions[8])
	}
	if got := env.layout.HitTest(drag.Point{X: 160, Y: 310}); got == nil || *got != drag.DeckSlot("deck-2", 1) {
		t.Errorf("expected deck-2 slot 1, got %+v", got)
	}

	expectStatus(t, env.do(t, http.MethodPut, "/drag/layout", `{"decks":[{"deckId":"nope"}]}`), http.StatusNotFound)
}

func TestDragHandler_SetLayout_ClampsColumns(t *testing.T) {
	env := newTestEnv(t, false)
	env.deck(t, "Wide", grid.MaxColumns+1)

	rec := env.do(t, http.MethodPut, "/drag/layout", `{"decks":[{"deckId":"deck-1","columns":1099511627776}]}`)
	expectStatus(t, rec, http.StatusOK)
	regions := decodeData[[]drag.Region](t, env.do(t, http.MethodGet, "/drag/layout", ""))

	if len(regions) != grid.MaxColumns+1 {
		t.Fatalf("expected %d regions, got %d", grid.MaxColumns+1, len(regions))
	}
	// md cells are 204 high with an 8 gap; the last slot wraps to the second row.
	if r := regions[grid.MaxColumns].Rect; r.X != 0 || r.Y != 212 {
		t.Errorf("expected last slot at (0, 212), got %+v", r)
	}
}

func TestDragHandler_DragAcrossDecks(t *testing.T) {
	env := newDragEnv(t)
	before := env.session.Version()

	rec := env.do(t, http.MethodPost, "/drag/down", `{"source":{"kind":"deck-slot","deckId":"deck-1","slot":0},"pointer":{"x":10,"y":10}}`)
	expectStatus(t, rec, http.StatusOK)
	gesture := decodeData[drag.Gesture](t, rec)
	if gesture.Status != drag.StatusActive || gesture.Source == nil || gesture.Source.CardID != "a" {
		t.Fatalf("unexpected gesture: %+v", gesture)
	}

	rec = env.do(t, http.MethodPost, "/drag/move", `{"pointer":{"x":320,"y":320}}`)
	expectStatus(t, rec, http.StatusOK)
	gesture = decodeData[drag.Gesture](t, rec)
	if gesture.Target == nil || *gesture.Target != drag.DeckSlot("deck-2", 2) {
		t.Errorf("expected hover on deck-2 slot 2, got %+v", gesture.Target)
	}

	rec = env.do(t, http.MethodPost, "/drag/up", `{"pointer":{"x":320,"y":320}}`)
	expectStatus(t, rec, http.StatusOK)
	result := decodeData[drag.Result](t, rec)
	if !result.Committed || result.Version != before+1 {
		t.Errorf("expected commit at version %d, got %+v", before+1, result)
	}

	first, _ := env.session.Deck("deck-1")
	second, _ := env.session.Deck("deck-2")
	if first.Slots[0] != "" || second.Slots[2] != "a" {
		t.Errorf("expected a moved to deck-2 slot 2, got %v and %v", first.Slots, second.Slots)
	}
	if env.controller.State().Status != drag.StatusIdle {
		t.Error("expected controller to settle to idle")
	}
}

func TestDragHandler_CollectionToTrash(t *testing.T) {
	env := newDragEnv(t)
	before := env.session.Version()

	expectStatus(t, env.do(t, http.MethodPost, "/drag/down", `{"source":{"kind":"collection","cardId":"b"}}`), http.StatusOK)

	rec := env.do(t, http.MethodPost, "/drag/up", `{"pointer":{"x":50,"y":650}}`)
	expectStatus(t, rec, http.StatusOK)
	result := decodeData[drag.Result](t, rec)

	if result.Committed || result.Reason != drag.ReasonCollectionToTrash || result.Notice == nil {
		t.Errorf("expected rollback with notice, got %+v", result)
	}
	if env.session.Version() != before || env.session.QuantityOf("b") != 1 {
		t.Error("rolled back drop must not change the session")
	}
}

func TestDragHandler_Errors(t *testing.T) {
	env := newDragEnv(t)

	expectStatus(t, env.do(t, http.MethodPost, "/drag/up", `{"pointer":{"x":0,"y":0}}`), http.StatusConflict)
	expectStatus(t, env.do(t, http.MethodPost, "/drag/down", `{"source":{"kind":"deck-slot","deckId":"deck-1","slot":1}}`), http.StatusUnprocessableEntity)
	expectStatus(t, env.do(t, http.MethodPost, "/drag/down", `{"source":`), http.StatusBadRequest)

	expectStatus(t, env.do(t, http.MethodPost, "/drag/down", `{"source":{"kind":"collection","cardId":"a"}}`), http.StatusOK)
	expectStatus(t, env.do(t, http.MethodPost, "/drag/down", `{"source":{"kind":"collection","cardId":"b"}}`), http.StatusConflict)
}

func TestDragHandler_Cancel(t *testing.T) {
	env := newDragEnv(t)

	expectStatus(t, env.do(t, http.MethodPost, "/drag/down", `{"source":{"kind":"deck-slot","deckId":"deck-1","slot":0}}`), http.StatusOK)

	rec := env.do(t, http.MethodPost, "/drag/cancel", "")
	expectStatus(t, rec, http.StatusOK)
	if got := decodeData[drag.Gesture](t, rec); got.Status != drag.StatusIdle {
		t.Errorf("expected idle, got %s", got.Status)
	}

	rec = env.do(t, http.MethodGet, "/drag", "")
	expectStatus(t, rec, http.StatusOK)
	if got := decodeData[drag.Gesture](t, rec); got.Status != drag.StatusIdle {
		t.Errorf("expected idle, got %s", got.Status)
	}

	deck, _ := env.session.Deck("deck-1")
	if deck.Slots[0] != "a" {
		t.Error("cancel must leave the deck unchanged")
	}
}
