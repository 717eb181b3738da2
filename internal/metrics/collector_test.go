package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramonehamilton/deck-binder/internal/binder"
	"github.com/ramonehamilton/deck-binder/internal/drag"
	"github.com/ramonehamilton/deck-binder/internal/events"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func TestCollector_CountsCommits(t *testing.T) {
	c := NewCollector()
	ctx := context.Background()

	require.NoError(t, c.OnEvent(events.NewTypedEvent(ctx, events.TypeBinderCommitted, binder.Commit{
		Version: 1,
		Source:  "api",
		Changes: []binder.Change{{Kind: binder.ChangeQuantity, CardID: "a"}, {Kind: binder.ChangeWishRemoved, CardID: "a"}},
	})))
	require.NoError(t, c.OnEvent(events.NewTypedEvent(ctx, events.TypeBinderCommitted, binder.Commit{
		Version: 2,
		Changes: []binder.Change{{Kind: binder.ChangeQuantity, CardID: "b"}},
	})))
	require.NoError(t, c.OnEvent(events.NewTypedEvent(ctx, events.TypePersistError, events.PersistErrorEvent{Version: 2})))

	s := c.Stats()
	assert.Equal(t, uint64(1), s.Commits["api"])
	assert.Equal(t, uint64(1), s.Commits["unknown"])
	assert.Equal(t, uint64(2), s.Changes[binder.ChangeQuantity])
	assert.Equal(t, uint64(1), s.Changes[binder.ChangeWishRemoved])
	assert.Equal(t, uint64(1), s.PersistErrors)
}

func TestCollector_TimesGestures(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	c := newCollector(clock.now)
	ctx := context.Background()
	dispatch := func(g drag.Gesture) {
		require.NoError(t, c.OnEvent(events.NewTypedEvent(ctx, events.TypeDragUpdated, g)))
	}

	dispatch(drag.Gesture{Status: drag.StatusActive})
	clock.t = clock.t.Add(40 * time.Millisecond)
	dispatch(drag.Gesture{Status: drag.StatusActive}) // pointer move
	clock.t = clock.t.Add(60 * time.Millisecond)
	dispatch(drag.Gesture{Status: drag.StatusRolledBack, Reason: drag.ReasonInvalidDropTarget})
	dispatch(drag.Idle())
	require.NoError(t, c.OnEvent(events.NewTypedEvent(ctx, events.TypeDragNotice, drag.Notice{Reason: drag.ReasonInvalidDropTarget})))

	s := c.Stats()
	assert.Equal(t, uint64(1), s.Gestures)
	assert.Equal(t, uint64(1), s.RolledBack)
	assert.Equal(t, uint64(1), s.Notices[drag.ReasonInvalidDropTarget])
	assert.Equal(t, uint64(1), s.GestureDuration.Count)
	assert.InDelta(t, 100.0, s.GestureDuration.Max, 0.001)
}

func TestCollector_IdleWithoutGestureIgnored(t *testing.T) {
	c := NewCollector()
	require.NoError(t, c.OnEvent(events.NewTypedEvent(context.Background(), events.TypeDragUpdated, drag.Idle())))
	assert.Equal(t, uint64(0), c.Stats().GestureDuration.Count)
}

func TestCollector_ShouldHandle(t *testing.T) {
	c := NewCollector()
	assert.True(t, c.ShouldHandle(events.TypeBinderCommitted))
	assert.True(t, c.ShouldHandle(events.TypeDragNotice))
	assert.False(t, c.ShouldHandle(events.TypeSessionClosed))
}

func TestCollector_Middleware(t *testing.T) {
	c := NewCollector()
	handler := c.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/boom" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))

	for _, path := range []string{"/ok", "/boom", "/ok"} {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	s := c.Stats()
	assert.Equal(t, uint64(3), s.Requests)
	assert.Equal(t, uint64(1), s.ServerErrors)
	assert.Equal(t, uint64(3), s.RequestLatency.Count)
}
