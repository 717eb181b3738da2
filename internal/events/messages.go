package events

// Event types.
const (
	// TypeBinderCommitted carries a binder.Commit after a successful session update.
	TypeBinderCommitted = "binder:committed"

	// TypeDragUpdated carries the drag.Gesture after every drag transition.
	TypeDragUpdated = "drag:updated"

	// TypeDragNotice carries a drag.Notice when a gesture is rejected or rolled back.
	TypeDragNotice = "drag:notice"

	// TypePersistError carries a PersistErrorEvent.
	TypePersistError = "persist:error"

	// TypeSessionClosed carries a SessionClosedEvent.
	TypeSessionClosed = "session:closed"
)

// PersistErrorEvent is the payload for persist:error events.
// Sent when a committed change set could not be written to storage.
type PersistErrorEvent struct {
	Version uint64 `json:"version"` // Session version that failed to persist
	Error   string `json:"error"`
}

// SessionClosedEvent is the payload for session:closed events.
type SessionClosedEvent struct {
	Version uint64 `json:"version"` // Last committed version
}
