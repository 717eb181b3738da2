package websocket

import (
	"log"
	"strings"

	"github.com/ramonehamilton/deck-binder/internal/events"
)

// forwardedPrefixes are the event families clients care about.
var forwardedPrefixes = []string{"binder:", "drag:", "persist:", "session:"}

// WebSocketObserver forwards dispatched events to WebSocket clients.
// OnEvent runs under the session lock, so it only queues and never blocks.
type WebSocketObserver struct {
	name string
	hub  *Hub
}

// NewWebSocketObserver creates an observer that broadcasts through hub.
func NewWebSocketObserver(hub *Hub) *WebSocketObserver {
	return &WebSocketObserver{
		name: "WebSocketObserver",
		hub:  hub,
	}
}

// OnEvent queues the event for every connected client.
func (o *WebSocketObserver) OnEvent(event events.Event) error {
	if o.hub == nil {
		log.Printf("[%s] Cannot emit event %s: hub is nil", o.name, event.Type)
		return nil
	}

	o.hub.BroadcastEvent(Event{
		Type: event.Type,
		Data: event.Data,
	})
	return nil
}

// Name returns the observer's name.
func (o *WebSocketObserver) Name() string {
	return o.name
}

// ShouldHandle accepts binder, drag, persistence and session events.
func (o *WebSocketObserver) ShouldHandle(eventType string) bool {
	for _, prefix := range forwardedPrefixes {
		if strings.HasPrefix(eventType, prefix) {
			return true
		}
	}
	return false
}

var _ events.Observer = (*WebSocketObserver)(nil)
