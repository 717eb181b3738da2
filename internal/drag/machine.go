package drag

// EventKind is an input to the gesture state machine.
type EventKind string

const (
	EventStart  EventKind = "start"
	EventHover  EventKind = "hover"
	EventDrop   EventKind = "drop"
	EventCancel EventKind = "cancel"
	EventFail   EventKind = "fail"
	EventSettle EventKind = "settle"
)

// Event drives Transition. Only the fields relevant to Kind are read.
type Event struct {
	Kind EventKind

	// Start
	Source  Location
	Version uint64

	// Hover, Drop. A nil Target means the pointer is over nothing droppable.
	Target  *Target
	Pointer Point
}

// OutcomeKind tells the caller what to do after a transition.
type OutcomeKind string

const (
	// OutcomeNone: state unchanged, nothing to do.
	OutcomeNone OutcomeKind = "none"
	// OutcomeUpdated: feedback state changed.
	OutcomeUpdated OutcomeKind = "updated"
	// OutcomeRejected: the event was refused; state unchanged.
	OutcomeRejected OutcomeKind = "rejected"
	// OutcomeCommit: apply Plan, then send Settle (or Fail on error).
	OutcomeCommit OutcomeKind = "commit"
	// OutcomeRollback: no store call; send Settle.
	OutcomeRollback OutcomeKind = "rollback"
)

// Outcome is the result of a transition.
type Outcome struct {
	Kind   OutcomeKind
	Reason Reason
	Plan   *Plan
}

// Transition is the gesture state machine. It is pure: it never touches a store
// and returns a new Gesture rather than modifying g.
//
//	Idle --Start--> Active --Drop--> Committing --Settle--> Idle
//	                  |                  |
//	                  |                 Fail
//	                  |                  v
//	                  +--Drop/Cancel--> RolledBack --Settle--> Idle
func Transition(g Gesture, e Event) (Gesture, Outcome) {
	g = g.clone()

	switch e.Kind {
	case EventStart:
		if g.Status != StatusIdle {
			return g, Outcome{Kind: OutcomeRejected, Reason: ReasonDragInProgress}
		}
		if e.Source.CardID == "" {
			return g, Outcome{Kind: OutcomeRejected, Reason: ReasonEmptySource}
		}
		src := e.Source
		return Gesture{
			Status:      StatusActive,
			Source:      &src,
			Pointer:     e.Pointer,
			BaseVersion: e.Version,
		}, Outcome{Kind: OutcomeUpdated}

	case EventHover:
		if g.Status != StatusActive {
			return g, Outcome{Kind: OutcomeNone}
		}
		g.Pointer = e.Pointer
		g.Target = copyTarget(e.Target)
		return g, Outcome{Kind: OutcomeUpdated}

	case EventDrop:
		if g.Status != StatusActive {
			return g, Outcome{Kind: OutcomeRejected, Reason: ReasonNotDragging}
		}
		g.Pointer = e.Pointer
		g.Target = copyTarget(e.Target)
		if g.Target == nil {
			return rollBack(g, ReasonInvalidDropTarget)
		}
		plan, reason := PlanFor(*g.Source, *g.Target)
		if reason != ReasonNone {
			return rollBack(g, reason)
		}
		g.Status = StatusCommitting
		return g, Outcome{Kind: OutcomeCommit, Plan: &plan}

	case EventCancel:
		if g.Status != StatusActive {
			return g, Outcome{Kind: OutcomeNone}
		}
		return rollBack(g, ReasonCancelled)

	case EventFail:
		if g.Status != StatusCommitting {
			return g, Outcome{Kind: OutcomeNone}
		}
		return rollBack(g, ReasonStoreError)

	case EventSettle:
		if g.Status != StatusCommitting && g.Status != StatusRolledBack {
			return g, Outcome{Kind: OutcomeNone}
		}
		return Idle(), Outcome{Kind: OutcomeUpdated}
	}

	return g, Outcome{Kind: OutcomeNone}
}

func rollBack(g Gesture, reason Reason) (Gesture, Outcome) {
	g.Status = StatusRolledBack
	g.Reason = reason
	return g, Outcome{Kind: OutcomeRollback, Reason: reason}
}

func copyTarget(t *Target) *Target {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
