package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ramonehamilton/deck-binder/internal/binder"
	"github.com/ramonehamilton/deck-binder/internal/catalog"
	"github.com/ramonehamilton/deck-binder/internal/drag"
	"github.com/ramonehamilton/deck-binder/internal/grid"
	"github.com/ramonehamilton/deck-binder/internal/storage/models"
)

type fakeHistory struct {
	rows []*models.CollectionHistory
	err  error

	lastCardID string
	lastLimit  int
}

func (f *fakeHistory) History(_ context.Context, cardID string, limit int) ([]*models.CollectionHistory, error) {
	f.lastCardID, f.lastLimit = cardID, limit
	return f.rows, f.err
}

func (f *fakeHistory) RecentChanges(_ context.Context, limit int) ([]*models.CollectionHistory, error) {
	f.lastLimit = limit
	return f.rows, f.err
}

type testEnv struct {
	session    *binder.Session
	catalog    *catalog.Index
	layout     *drag.RectLayout
	controller *drag.Controller
	history    *fakeHistory
	router     chi.Router
}

var testDefaults = GridDefaults{Columns: 4, Size: grid.SizeMedium}

func newTestEnv(t *testing.T, withHistory bool) *testEnv {
	t.Helper()

	idx, err := catalog.NewIndex([]catalog.CardDetails{
		{ID: "a", FullID: "SET-001", Name: "Archer"},
		{ID: "b", FullID: "SET-002", Name: "Bolt"},
		{ID: "c", FullID: "SET-003", Name: "Cleric"},
		{ID: "d", FullID: "SET-004", Name: "Dragon"},
	})
	if err != nil {
		t.Fatalf("NewIndex: %v", err)
	}

	n := 0
	session := binder.NewSession(idx, nil,
		binder.WithClock(func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }),
		binder.WithIDGenerator(func() string { n++; return fmt.Sprintf("deck-%d", n) }),
	)
	layout := drag.NewRectLayout()

	env := &testEnv{
		session:    session,
		catalog:    idx,
		layout:     layout,
		controller: drag.NewController(session, layout, nil),
	}
	var history HistoryReader
	if withHistory {
		env.history = &fakeHistory{}
		history = env.history
	}

	cards := NewCardHandler(idx)
	collection := NewCollectionHandler(session, idx, history, testDefaults)
	wishlist := NewWishlistHandler(session, idx)
	decks := NewDeckHandler(session, idx, env.controller, testDefaults)
	dragging := NewDragHandler(env.controller, layout, session, testDefaults)

	r := chi.NewRouter()
	r.Get("/cards", cards.SearchCards)
	r.Get("/cards/{cardID}", cards.GetCard)
	r.Get("/collection", collection.GetCollection)
	r.Get("/collection/grid", collection.GetCollectionGrid)
	r.Get("/collection/history", collection.GetRecentChanges)
	r.Post("/collection/{cardID}/acquire", collection.Acquire)
	r.Post("/collection/{cardID}/release", collection.Release)
	r.Get("/collection/{cardID}/history", collection.GetCardHistory)
	r.Get("/wishlist", wishlist.GetWishlist)
	r.Put("/wishlist/{cardID}", wishlist.AddWish)
	r.Delete("/wishlist/{cardID}", wishlist.RemoveWish)
	r.Get("/decks", decks.GetDecks)
	r.Post("/decks", decks.CreateDeck)
	r.Get("/decks/{deckID}", decks.GetDeck)
	r.Patch("/decks/{deckID}", decks.UpdateDeck)
	r.Delete("/decks/{deckID}", decks.DeleteDeck)
	r.Get("/decks/{deckID}/grid", decks.GetDeckGrid)
	r.Post("/decks/{deckID}/move", decks.MoveCard)
	r.Post("/decks/{deckID}/transfer", decks.TransferCard)
	r.Put("/decks/{deckID}/slots/{slot}", decks.PlaceCard)
	r.Delete("/decks/{deckID}/slots/{slot}", decks.RemoveCard)
	r.Get("/drag", dragging.GetState)
	r.Post("/drag/down", dragging.PointerDown)
	r.Post("/drag/move", dragging.PointerMove)
	r.Post("/drag/up", dragging.PointerUp)
	r.Post("/drag/cancel", dragging.Cancel)
	r.Get("/drag/layout", dragging.GetLayout)
	r.Put("/drag/layout", dragging.SetLayout)
	env.router = r

	return env
}

func (e *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

// own acquires each card once and creates decks with the given slot counts.
func (e *testEnv) own(t *testing.T, cardIDs ...string) {
	t.Helper()
	for _, id := range cardIDs {
		if err := e.session.Acquire(context.Background(), id, 1); err != nil {
			t.Fatalf("Acquire %s: %v", id, err)
		}
	}
}

func (e *testEnv) deck(t *testing.T, name string, slots int, cards ...string) binder.Deck {
	t.Helper()
	deck, err := e.session.CreateDeck(context.Background(), name, slots)
	if err != nil {
		t.Fatalf("CreateDeck: %v", err)
	}
	for i, id := range cards {
		if id == "" {
			continue
		}
		if _, err := e.session.PlaceCard(context.Background(), deck.ID, i, id); err != nil {
			t.Fatalf("PlaceCard %s: %v", id, err)
		}
	}
	deck, _ = e.session.Deck(deck.ID)
	return deck
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("expected status %d, got %d: %s", want, rec.Code, rec.Body.String())
	}
}

func decodeData[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var envelope struct {
		Data T `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return envelope.Data
}
