package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/ramonehamilton/deck-binder/internal/binder"
	"github.com/ramonehamilton/deck-binder/internal/drag"
	"github.com/ramonehamilton/deck-binder/internal/events"
)

// Collector counts binder commits, drag gestures and API requests.
// It is an events.Observer and must stay cheap: it runs under the session and
// drag controller locks.
type Collector struct {
	GestureDuration *Histogram
	RequestLatency  *Histogram

	mu            sync.Mutex
	commits       map[string]uint64
	changes       map[binder.ChangeKind]uint64
	notices       map[drag.Reason]uint64
	gestures      uint64
	rolledBack    uint64
	persistErrors uint64
	requests      uint64
	serverErrors  uint64
	gestureStart  time.Time

	now       func() time.Time
	startTime time.Time
}

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	return newCollector(time.Now)
}

func newCollector(now func() time.Time) *Collector {
	return &Collector{
		GestureDuration: NewHistogram(defaultWindow),
		RequestLatency:  NewHistogram(defaultWindow),
		commits:         make(map[string]uint64),
		changes:         make(map[binder.ChangeKind]uint64),
		notices:         make(map[drag.Reason]uint64),
		now:             now,
		startTime:       now(),
	}
}

// Name implements events.Observer.
func (c *Collector) Name() string {
	return "MetricsCollector"
}

// ShouldHandle implements events.Observer.
func (c *Collector) ShouldHandle(eventType string) bool {
	switch eventType {
	case events.TypeBinderCommitted, events.TypeDragUpdated, events.TypeDragNotice, events.TypePersistError:
		return true
	default:
		return false
	}
}

// OnEvent implements events.Observer.
func (c *Collector) OnEvent(event events.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch event.Type {
	case events.TypeBinderCommitted:
		if commit, ok := events.GetTypedData[binder.Commit](event); ok {
			source := commit.Source
			if source == "" {
				source = "unknown"
			}
			c.commits[source]++
			for _, change := range commit.Changes {
				c.changes[change.Kind]++
			}
		}

	case events.TypeDragUpdated:
		if g, ok := events.GetTypedData[drag.Gesture](event); ok {
			c.observeGesture(g)
		}

	case events.TypeDragNotice:
		if n, ok := events.GetTypedData[drag.Notice](event); ok {
			c.notices[n.Reason]++
		}

	case events.TypePersistError:
		c.persistErrors++
	}
	return nil
}

// observeGesture times a gesture from pick-up until it settles back to idle.
func (c *Collector) observeGesture(g drag.Gesture) {
	switch g.Status {
	case drag.StatusActive:
		if c.gestureStart.IsZero() {
			c.gestureStart = c.now()
			c.gestures++
		}
	case drag.StatusRolledBack:
		c.rolledBack++
	case drag.StatusIdle:
		if !c.gestureStart.IsZero() {
			c.GestureDuration.Record(c.now().Sub(c.gestureStart))
			c.gestureStart = time.Time{}
		}
	}
}

// Middleware records request latency and counts 5xx responses.
func (c *Collector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := c.now()
		next.ServeHTTP(ww, r)
		c.RequestLatency.Record(c.now().Sub(start))

		c.mu.Lock()
		c.requests++
		if ww.Status() >= http.StatusInternalServerError {
			c.serverErrors++
		}
		c.mu.Unlock()
	})
}

// Stats is a point-in-time copy of the collector.
type Stats struct {
	Commits         map[string]uint64            `json:"commits"` // by source tag
	Changes         map[binder.ChangeKind]uint64 `json:"changes"`
	Gestures        uint64                       `json:"gestures"`
	RolledBack      uint64                       `json:"rolledBack"`
	Notices         map[drag.Reason]uint64       `json:"notices"`
	PersistErrors   uint64                       `json:"persistErrors"`
	Requests        uint64                       `json:"requests"`
	ServerErrors    uint64                       `json:"serverErrors"`
	GestureDuration LatencyStats                 `json:"gestureDuration"`
	RequestLatency  LatencyStats                 `json:"requestLatency"`
	Uptime          string                       `json:"uptime"`
}

// Stats returns a snapshot of all counters.
func (c *Collector) Stats() Stats {
	c.mu.Lock()
	s := Stats{
		Commits:       make(map[string]uint64, len(c.commits)),
		Changes:       make(map[binder.ChangeKind]uint64, len(c.changes)),
		Notices:       make(map[drag.Reason]uint64, len(c.notices)),
		Gestures:      c.gestures,
		RolledBack:    c.rolledBack,
		PersistErrors: c.persistErrors,
		Requests:      c.requests,
		ServerErrors:  c.serverErrors,
		Uptime:        c.now().Sub(c.startTime).Round(time.Second).String(),
	}
	for k, v := range c.commits {
		s.Commits[k] = v
	}
	for k, v := range c.changes {
		s.Changes[k] = v
	}
	for k, v := range c.notices {
		s.Notices[k] = v
	}
	c.mu.Unlock()

	s.GestureDuration = c.GestureDuration.Stats()
	s.RequestLatency = c.RequestLatency.Stats()
	return s
}
