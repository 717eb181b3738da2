// Package events distributes domain events to registered observers.
package events

import (
	"context"
	"log"
	"sync"
)

// Event is a domain event dispatched to observers.
type Event struct {
	// Type is the event type, e.g. "binder:committed" or "drag:updated".
	Type string

	// Data is the typed payload. Observers read it with GetTypedData.
	Data any

	// Context of the operation that produced the event.
	Context context.Context
}

// NewTypedEvent creates an Event carrying data.
func NewTypedEvent[T any](ctx context.Context, eventType string, data T) Event {
	if ctx == nil {
		ctx = context.Background()
	}
	return Event{
		Type:    eventType,
		Data:    data,
		Context: ctx,
	}
}

// GetTypedData extracts the payload of event as T.
// Returns the zero value and false if the payload has another type.
func GetTypedData[T any](event Event) (T, bool) {
	var zero T
	if event.Data == nil {
		return zero, false
	}
	typed, ok := event.Data.(T)
	return typed, ok
}

// Observer is notified of dispatched events.
type Observer interface {
	// OnEvent handles an event. Errors are logged by the dispatcher.
	OnEvent(event Event) error

	// Name identifies the observer in logs.
	Name() string

	// ShouldHandle filters the event types this observer receives.
	ShouldHandle(eventType string) bool
}

// Dispatcher fans events out to observers.
// Observers are called synchronously, in registration order. Safe for concurrent use.
type Dispatcher struct {
	mu        sync.RWMutex
	observers []Observer
}

// NewDispatcher creates an empty Dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{}
}

// Register adds an observer.
func (d *Dispatcher) Register(observer Observer) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.observers = append(d.observers, observer)
	log.Printf("[Dispatcher] Registered observer: %s", observer.Name())
}

// Unregister removes an observer. Unknown observers are ignored.
func (d *Dispatcher) Unregister(observer Observer) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for i, obs := range d.observers {
		if obs == observer {
			d.observers = append(d.observers[:i:i], d.observers[i+1:]...)
			log.Printf("[Dispatcher] Unregistered observer: %s", observer.Name())
			return
		}
	}
}

// Dispatch delivers event to every interested observer.
// A failing observer does not stop delivery to the others.
func (d *Dispatcher) Dispatch(event Event) {
	d.mu.RLock()
	observers := make([]Observer, len(d.observers))
	copy(observers, d.observers)
	d.mu.RUnlock()

	for _, observer := range observers {
		if !observer.ShouldHandle(event.Type) {
			continue
		}
		if err := observer.OnEvent(event); err != nil {
			log.Printf("[Dispatcher] Observer %s failed to handle %s: %v", observer.Name(), event.Type, err)
		}
	}
}

