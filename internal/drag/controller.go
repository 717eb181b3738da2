package drag

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/ramonehamilton/deck-binder/internal/binder"
	"github.com/ramonehamilton/deck-binder/internal/events"
)

// SourceTag marks session commits made by drops.
const SourceTag = "drag"

// Dispatcher receives drag:updated and drag:notice events.
type Dispatcher interface {
	Dispatch(event events.Event)
}

// Notice is a non-blocking user-facing message about a rejected gesture.
type Notice struct {
	Reason  Reason `json:"reason"`
	Message string `json:"message"`
}

// Result describes how a drop ended.
type Result struct {
	Committed bool    `json:"committed"`
	Reason    Reason  `json:"reason,omitempty"`
	Plan      *Plan   `json:"plan,omitempty"`
	Evicted   string  `json:"evicted,omitempty"`
	Version   uint64  `json:"version"`
	Notice    *Notice `json:"notice,omitempty"`
}

// Controller runs gestures against a binder session. It holds at most one
// gesture at a time. Safe for concurrent use.
type Controller struct {
	mu         sync.Mutex
	session    *binder.Session
	hits       HitTester
	dispatcher Dispatcher
	gesture    Gesture
}

// NewController creates a controller. dispatcher may be nil.
func NewController(session *binder.Session, hits HitTester, dispatcher Dispatcher) *Controller {
	return &Controller{
		session:    session,
		hits:       hits,
		dispatcher: dispatcher,
		gesture:    Idle(),
	}
}

// State returns a copy of the current gesture.
func (c *Controller) State() Gesture {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gesture.clone()
}

// PointerDown starts a drag at loc. The card is read from the current session
// state, so a deck-slot location only needs DeckID and Slot. Picking up an empty
// slot fails with ErrNothingToDrag and leaves the controller idle.
func (c *Controller) PointerDown(ctx context.Context, loc Location, at Point) (Gesture, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.gesture.Status != StatusIdle {
		return c.gesture.clone(), ErrDragInProgress
	}

	snap := c.session.Snapshot()
	loc.CardID = cardAt(snap, loc)

	next, out := Transition(c.gesture, Event{Kind: EventStart, Source: loc, Pointer: at, Version: snap.Version})
	if out.Kind == OutcomeRejected {
		return c.gesture.clone(), fmt.Errorf("%s at %s: %w", loc.Kind, describe(loc), ErrNothingToDrag)
	}
	c.set(ctx, next)
	return next.clone(), nil
}

// PointerMove updates hover feedback. Moves without an active drag are ignored.
func (c *Controller) PointerMove(ctx context.Context, at Point) Gesture {
	c.mu.Lock()
	defer c.mu.Unlock()

	next, out := Transition(c.gesture, Event{Kind: EventHover, Target: c.hits.HitTest(at), Pointer: at})
	if out.Kind == OutcomeUpdated && !sameFeedback(c.gesture, next) {
		c.set(ctx, next)
	} else {
		c.gesture = next
	}
	return next.clone()
}

// PointerUp drops the card at the target under at. The plan is applied in one
// session update; if there is no valid target or the store refuses the change,
// the session is left exactly as it was before the drag.
func (c *Controller) PointerUp(ctx context.Context, at Point) (Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	next, out := Transition(c.gesture, Event{Kind: EventDrop, Target: c.hits.HitTest(at), Pointer: at})
	if out.Kind == OutcomeRejected {
		return Result{Reason: out.Reason, Version: c.session.Version()}, ErrNotDragging
	}
	c.set(ctx, next)

	result := Result{Reason: out.Reason}

	switch out.Kind {
	case OutcomeCommit:
		result.Plan = out.Plan
		var evicted string
		commit, err := c.session.Update(binder.WithSource(ctx, SourceTag), func(tx *binder.Tx) error {
			var err error
			evicted, err = out.Plan.Apply(tx)
			return err
		})
		if err != nil {
			failed, failOut := Transition(c.gesture, Event{Kind: EventFail})
			c.set(ctx, failed)
			result.Reason = failOut.Reason
			result.Notice = c.notice(ctx, ReasonStoreError, err)
			log.Printf("[Drag] Drop rolled back: %v", err)
		} else {
			result.Committed = true
			result.Evicted = evicted
			result.Version = commit.Version
		}

	case OutcomeRollback:
		if out.Reason == ReasonCollectionToTrash {
			result.Notice = c.notice(ctx, out.Reason, nil)
		}
	}

	settled, _ := Transition(c.gesture, Event{Kind: EventSettle})
	c.set(ctx, settled)

	if !result.Committed {
		result.Version = c.session.Version()
	}
	return result, nil
}

// Cancel aborts the active drag. It always succeeds and is a no-op when idle.
func (c *Controller) Cancel(ctx context.Context) Gesture {
	c.mu.Lock()
	defer c.mu.Unlock()

	next, out := Transition(c.gesture, Event{Kind: EventCancel})
	if out.Kind != OutcomeRollback {
		return c.gesture.clone()
	}
	c.set(ctx, next)

	settled, _ := Transition(c.gesture, Event{Kind: EventSettle})
	c.set(ctx, settled)
	return settled.clone()
}

// set stores g and publishes it. Caller holds c.mu.
func (c *Controller) set(ctx context.Context, g Gesture) {
	c.gesture = g
	if c.dispatcher != nil {
		c.dispatcher.Dispatch(events.NewTypedEvent(ctx, events.TypeDragUpdated, g.clone()))
	}
}

func (c *Controller) notice(ctx context.Context, reason Reason, err error) *Notice {
	n := &Notice{Reason: reason, Message: noticeMessage(reason, err)}
	if c.dispatcher != nil {
		c.dispatcher.Dispatch(events.NewTypedEvent(ctx, events.TypeDragNotice, *n))
	}
	return n
}

func noticeMessage(reason Reason, err error) string {
	switch reason {
	case ReasonCollectionToTrash:
		return "Cards can only be trashed from a deck. Release copies from the collection instead."
	case ReasonStoreError:
		switch {
		case errors.Is(err, binder.ErrNotOwned):
			return "You no longer own that card."
		case errors.Is(err, binder.ErrSlotOutOfRange):
			return "That slot does not exist."
		case errors.Is(err, binder.ErrDeckNotFound):
			return "That deck no longer exists."
		case errors.Is(err, ErrSourceChanged):
			return "The card moved before it was dropped."
		}
		return "The card could not be moved."
	}
	return string(reason)
}

func cardAt(snap binder.Snapshot, loc Location) string {
	switch loc.Kind {
	case LocationCollection:
		if snap.QuantityOf(loc.CardID) > 0 {
			return loc.CardID
		}
	case LocationDeckSlot:
		if deck, ok := snap.Deck(loc.DeckID); ok {
			card, _ := deck.CardAt(loc.Slot)
			return card
		}
	}
	return ""
}

func describe(loc Location) string {
	if loc.Kind == LocationDeckSlot {
		return fmt.Sprintf("%s[%d]", loc.DeckID, loc.Slot)
	}
	return loc.CardID
}

func sameFeedback(a, b Gesture) bool {
	if (a.Target == nil) != (b.Target == nil) {
		return false
	}
	return a.Target == nil || *a.Target == *b.Target
}
