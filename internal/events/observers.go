package events

import (
	"log"
	"strings"
)

// ObserverFunc adapts a function to the Observer interface.
// Prefixes restricts delivery to event types starting with one of them; empty means all.
type ObserverFunc struct {
	name     string
	prefixes []string
	fn       func(Event) error
}

// NewObserverFunc creates an observer named name calling fn.
func NewObserverFunc(name string, fn func(Event) error, prefixes ...string) *ObserverFunc {
	return &ObserverFunc{name: name, fn: fn, prefixes: prefixes}
}

// OnEvent implements Observer.
func (o *ObserverFunc) OnEvent(event Event) error {
	return o.fn(event)
}

// Name implements Observer.
func (o *ObserverFunc) Name() string {
	return o.name
}

// ShouldHandle implements Observer.
func (o *ObserverFunc) ShouldHandle(eventType string) bool {
	if len(o.prefixes) == 0 {
		return true
	}
	for _, prefix := range o.prefixes {
		if strings.HasPrefix(eventType, prefix) {
			return true
		}
	}
	return false
}

// LogObserver writes notices and errors to the standard logger.
type LogObserver struct{}

// OnEvent implements Observer.
func (LogObserver) OnEvent(event Event) error {
	switch event.Type {
	case TypePersistError:
		if data, ok := GetTypedData[PersistErrorEvent](event); ok {
			log.Printf("[Persist] Failed to persist version %d: %s", data.Version, data.Error)
			return nil
		}
	case TypeSessionClosed:
		if data, ok := GetTypedData[SessionClosedEvent](event); ok {
			log.Printf("[Session] Closed at version %d", data.Version)
			return nil
		}
	}
	log.Printf("[Events] %s: %+v", event.Type, event.Data)
	return nil
}

// Name implements Observer.
func (LogObserver) Name() string {
	return "LogObserver"
}

// ShouldHandle implements Observer.
func (LogObserver) ShouldHandle(eventType string) bool {
	switch eventType {
	case TypeDragNotice, TypePersistError, TypeSessionClosed:
		return true
	default:
		return false
	}
}

var (
	_ Observer = (*ObserverFunc)(nil)
	_ Observer = LogObserver{}
)
