// Package binder holds a user's collection, wishlist and decks and keeps the
// invariants between them.
//
// A Session is the only owner of that state. Reads return deep-copied snapshots;
// writes go through Update, which runs against a working copy and swaps it in only
// when the whole function succeeds, so observers see either the state before or
// after a change and never a partial one.
package binder

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ramonehamilton/deck-binder/internal/events"
)

// CardSet reports whether a card id is known to the catalog.
type CardSet interface {
	Contains(cardID string) bool
}

// Dispatcher receives committed change sets.
type Dispatcher interface {
	Dispatch(event events.Event)
}

// AcquireHook runs inside the acquiring transaction after the quantity changed.
// Returning an error aborts the whole update.
type AcquireHook func(tx *Tx, cardID string) error

// RemoveFromWishlist is an AcquireHook that drops acquired cards from the wishlist.
func RemoveFromWishlist(tx *Tx, cardID string) error {
	tx.RemoveWish(cardID)
	return nil
}

// state is the mutable data behind a Session. Never shared outside the lock.
type state struct {
	version    uint64
	collection map[string]int
	wishlist   map[string]struct{}
	decks      map[string]*Deck
	order      []string
}

func newState() *state {
	return &state{
		collection: make(map[string]int),
		wishlist:   make(map[string]struct{}),
		decks:      make(map[string]*Deck),
	}
}

func (s *state) clone() *state {
	c := &state{
		version:    s.version,
		collection: make(map[string]int, len(s.collection)),
		wishlist:   make(map[string]struct{}, len(s.wishlist)),
		decks:      make(map[string]*Deck, len(s.decks)),
		order:      make([]string, len(s.order)),
	}
	for id, qty := range s.collection {
		c.collection[id] = qty
	}
	for id := range s.wishlist {
		c.wishlist[id] = struct{}{}
	}
	for id, deck := range s.decks {
		c.decks[id] = deck.clone()
	}
	copy(c.order, s.order)
	return c
}

// Option configures a Session.
type Option func(*Session)

// WithClock overrides time.Now.
func WithClock(clock func() time.Time) Option {
	return func(s *Session) { s.clock = clock }
}

// WithIDGenerator overrides the deck id generator.
func WithIDGenerator(newID func() string) Option {
	return func(s *Session) { s.newID = newID }
}

// WithAcquireHook adds a post-acquire hook.
func WithAcquireHook(hook AcquireHook) Option {
	return func(s *Session) { s.acquireHooks = append(s.acquireHooks, hook) }
}

// WithDispatcher publishes every commit as a binder:committed event.
func WithDispatcher(d Dispatcher) Option {
	return func(s *Session) { s.dispatcher = d }
}

// Session is the explicitly constructed state container for one user session.
type Session struct {
	mu     sync.Mutex
	st     *state
	closed bool

	cards        CardSet
	clock        func() time.Time
	newID        func() string
	acquireHooks []AcquireHook
	dispatcher   Dispatcher
}

// NewSession creates a session from initial state, typically loaded from storage.
// initial may be nil for an empty session. Entries that would break invariants
// (non-positive quantities, slots referencing unowned cards, dangling covers) are
// repaired and logged.
func NewSession(cards CardSet, initial *Snapshot, opts ...Option) *Session {
	s := &Session{
		st:    newState(),
		cards: cards,
		clock: time.Now,
		newID: func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(s)
	}

	if initial != nil {
		s.st = stateFromSnapshot(initial)
	}
	return s
}

func stateFromSnapshot(snap *Snapshot) *state {
	st := newState()
	st.version = snap.Version

	for id, qty := range snap.Collection {
		if qty > 0 {
			st.collection[id] = qty
		}
	}
	for _, id := range snap.Wishlist {
		st.wishlist[id] = struct{}{}
	}

	repaired := 0
	for i := range snap.Decks {
		deck := snap.Decks[i].clone()
		if _, dup := st.decks[deck.ID]; dup {
			continue
		}
		for slot, cardID := range deck.Slots {
			if cardID != "" && st.collection[cardID] < 1 {
				deck.Slots[slot] = ""
				repaired++
			}
		}
		deck.reconcileCover()
		st.decks[deck.ID] = deck
		st.order = append(st.order, deck.ID)
	}

	if repaired > 0 {
		log.Printf("[Binder] Emptied %d deck slots referencing unowned cards", repaired)
	}
	return st
}

// Update runs fn against a working copy of the session state.
// If fn returns an error nothing is applied. Otherwise the working copy replaces
// the current state, the version increments (when anything changed) and the
// commit is published.
func (s *Session) Update(ctx context.Context, fn func(tx *Tx) error) (*Commit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrSessionClosed
	}

	tx := &Tx{
		session: s,
		base:    s.st,
		st:      s.st.clone(),
		now:     s.clock(),
		source:  SourceFrom(ctx),
		touched: make(map[string]bool),
	}

	if err := fn(tx); err != nil {
		return nil, err
	}

	commit := tx.commit()
	if len(commit.Changes) == 0 {
		commit.Version = s.st.version
		return commit, nil
	}

	tx.st.version++
	commit.Version = tx.st.version
	s.st = tx.st

	if s.dispatcher != nil {
		s.dispatcher.Dispatch(events.NewTypedEvent(ctx, events.TypeBinderCommitted, *commit))
	}
	return commit, nil
}

// Snapshot returns a deep copy of the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return snapshotOf(s.st)
}

// Version returns the current commit version.
func (s *Session) Version() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.version
}

// QuantityOf returns how many copies of cardID are owned.
func (s *Session) QuantityOf(cardID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.collection[cardID]
}

// Wished reports whether cardID is on the wishlist.
func (s *Session) Wished(cardID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.st.wishlist[cardID]
	return ok
}

// Deck returns a copy of the deck with id.
func (s *Session) Deck(id string) (Deck, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	deck, ok := s.st.decks[id]
	if !ok {
		return Deck{}, fmt.Errorf("deck %s: %w", id, ErrDeckNotFound)
	}
	return *deck.clone(), nil
}

// Decks returns copies of all decks in creation order.
func (s *Session) Decks() []Deck {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Deck, 0, len(s.st.order))
	for _, id := range s.st.order {
		out = append(out, *s.st.decks[id].clone())
	}
	return out
}

// Close ends the session. Later updates fail with ErrSessionClosed; reads keep
// returning the final state.
func (s *Session) Close(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true

	if s.dispatcher != nil {
		s.dispatcher.Dispatch(events.NewTypedEvent(ctx, events.TypeSessionClosed, events.SessionClosedEvent{
			Version: s.st.version,
		}))
	}
}

// Closed reports whether Close was called.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Tx is the handle passed to Update. It is only valid inside the update function.
type Tx struct {
	session *Session
	base    *state
	st      *state
	now     time.Time
	source  string
	touched map[string]bool
}

// touch marks a deck as modified and stamps UpdatedAt.
func (tx *Tx) touch(deck *Deck) {
	deck.UpdatedAt = tx.now
	tx.touched[deck.ID] = true
}

func (tx *Tx) deck(id string) (*Deck, error) {
	deck, ok := tx.st.decks[id]
	if !ok {
		return nil, fmt.Errorf("deck %s: %w", id, ErrDeckNotFound)
	}
	return deck, nil
}

// commit diffs the working copy against the base state.
func (tx *Tx) commit() *Commit {
	c := &Commit{At: tx.now, Source: tx.source}

	cardIDs := make(map[string]struct{})
	for id := range tx.base.collection {
		cardIDs[id] = struct{}{}
	}
	for id := range tx.st.collection {
		cardIDs[id] = struct{}{}
	}
	for _, id := range sortedKeys(cardIDs) {
		before, after := tx.base.collection[id], tx.st.collection[id]
		if before != after {
			c.Changes = append(c.Changes, Change{
				Kind:     ChangeQuantity,
				CardID:   id,
				Quantity: after,
				Delta:    after - before,
			})
		}
	}

	wishIDs := make(map[string]struct{})
	for id := range tx.base.wishlist {
		wishIDs[id] = struct{}{}
	}
	for id := range tx.st.wishlist {
		wishIDs[id] = struct{}{}
	}
	for _, id := range sortedKeys(wishIDs) {
		_, before := tx.base.wishlist[id]
		_, after := tx.st.wishlist[id]
		switch {
		case after && !before:
			c.Changes = append(c.Changes, Change{Kind: ChangeWishAdded, CardID: id})
		case before && !after:
			c.Changes = append(c.Changes, Change{Kind: ChangeWishRemoved, CardID: id})
		}
	}

	// Deletions first, then creations and updates in deck order.
	for _, id := range tx.base.order {
		if _, ok := tx.st.decks[id]; !ok {
			c.Changes = append(c.Changes, Change{Kind: ChangeDeckDeleted, DeckID: id})
		}
	}
	for _, id := range tx.st.order {
		if !tx.touched[id] {
			continue
		}
		deck := tx.st.decks[id].clone()
		kind := ChangeDeckUpdated
		if _, existed := tx.base.decks[id]; !existed {
			kind = ChangeDeckCreated
		}
		c.Changes = append(c.Changes, Change{Kind: kind, DeckID: id, Deck: deck})
	}

	return c
}

func sortedKeys(m map[string]struct{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
