package binder

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/ramonehamilton/deck-binder/internal/events"
)

type cardSet map[string]bool

func (c cardSet) Contains(cardID string) bool { return c[cardID] }

type recordingDispatcher struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recordingDispatcher) Dispatch(event events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recordingDispatcher) commits() []Commit {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Commit
	for _, e := range r.events {
		if c, ok := events.GetTypedData[Commit](e); ok {
			out = append(out, c)
		}
	}
	return out
}

var testNow = time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)

func newTestSession(t *testing.T, opts ...Option) (*Session, *recordingDispatcher) {
	t.Helper()

	rec := &recordingDispatcher{}
	n := 0
	base := []Option{
		WithClock(func() time.Time { return testNow }),
		WithIDGenerator(func() string {
			n++
			return fmt.Sprintf("deck-%d", n)
		}),
		WithDispatcher(rec),
	}
	cards := cardSet{"A": true, "B": true, "C": true, "D": true}
	return NewSession(cards, nil, append(base, opts...)...), rec
}

var ctx = context.Background()
