// Package events provides the synchronous publish/subscribe primitive the coordinators build on.
//
// Handlers for one event name fire in registration order. A panicking handler is recovered and logged,
// and the remaining handlers still run. Dispatch works on a snapshot of the registrations taken when
// [Bus.Emit] is called, with no lock held, so handlers may register, unregister or emit re-entrantly.
package events

import (
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
)

// Handler receives the payload passed to [Bus.Emit].
type Handler func(payload any)

// ListenerID identifies one registration made by [Bus.On].
type ListenerID uint64

type listener struct {
	id ListenerID
	fn Handler
}

// Bus is a named-event dispatcher. The zero value is not usable; call [New].
type Bus struct {
	mu        sync.Mutex
	listeners map[string][]listener
	nextID    ListenerID
	logger    *log.Logger
}

// New creates a [Bus]. A nil logger discards handler failures.
func New(logger *log.Logger) *Bus {
	if logger == nil {
		logger = log.New(discard{})
	}
	return &Bus{
		listeners: make(map[string][]listener),
		logger:    logger,
	}
}

// On registers fn for event. Registering the same function twice makes it fire twice.
func (b *Bus) On(event string, fn Handler) ListenerID {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	b.listeners[event] = append(b.listeners[event], listener{id: b.nextID, fn: fn})
	return b.nextID
}

// Once registers fn to run for the next emission of event only.
func (b *Bus) Once(event string, fn Handler) ListenerID {
	var id ListenerID
	id = b.On(event, func(payload any) {
		b.Off(event, id)
		fn(payload)
	})
	return id
}

// Off removes the registration with the given id. Unknown ids are ignored.
func (b *Bus) Off(event string, id ListenerID) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ls := b.listeners[event]
	for i, l := range ls {
		if l.id == id {
			b.listeners[event] = append(ls[:i:i], ls[i+1:]...)
			break
		}
	}
	if len(b.listeners[event]) == 0 {
		delete(b.listeners, event)
	}
}

// Emit invokes every handler currently registered for event, in registration order.
func (b *Bus) Emit(event string, payload any) {
	b.mu.Lock()
	snapshot := append([]listener(nil), b.listeners[event]...)
	b.mu.Unlock()

	for _, l := range snapshot {
		b.dispatch(event, l, payload)
	}
}

func (b *Bus) dispatch(event string, l listener, payload any) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event handler failed", "event", event, "listener", l.id, "panic", fmt.Sprint(r))
		}
	}()
	l.fn(payload)
}

// RemoveAllListeners clears the handlers of the named events, or of every event when none is given.
func (b *Bus) RemoveAllListeners(events ...string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(events) == 0 {
		b.listeners = make(map[string][]listener)
		return
	}
	for _, e := range events {
		delete(b.listeners, e)
	}
}

// ListenerCount reports how many handlers are registered for event.
func (b *Bus) ListenerCount(event string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.listeners[event])
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }
