// Package events provides the publish/subscribe bus every stateful engine
// component owns. Dispatch is synchronous and in registration order, so
// subscribers can rely on the view-lifecycle ordering guarantees; they must
// not rely on ordering relative to other subscribers of the same event.
package events

import (
	"sync"

	"slippymap/internal/ident"
)

// Event carries one fired notification. Data is event-specific;
// PropagatedFrom is set when the event was re-fired by an event parent.
type Event struct {
	Type           string
	Target         interface{}
	Data           interface{}
	PropagatedFrom interface{}
}

// Handler consumes one event
type Handler func(Event)

type listener struct {
	id   uint64
	fn   Handler
	once bool
}

// Emitter is an event bus owned by a single engine object. The zero value
// is ready to use.
type Emitter struct {
	mu        sync.Mutex
	target    interface{}
	listeners map[string][]listener
	parents   []*Emitter
}

// SetTarget sets the object reported as Event.Target on fired events
func (e *Emitter) SetTarget(target interface{}) {
	e.mu.Lock()
	e.target = target
	e.mu.Unlock()
}

// On registers a handler for the given event type and returns a
// subscription id usable with Off
func (e *Emitter) On(eventType string, fn Handler) uint64 {
	return e.register(eventType, fn, false)
}

// Once registers a handler that is removed after its first invocation
func (e *Emitter) Once(eventType string, fn Handler) uint64 {
	return e.register(eventType, fn, true)
}

func (e *Emitter) register(eventType string, fn Handler, once bool) uint64 {
	id := ident.Next()

	e.mu.Lock()
	if e.listeners == nil {
		e.listeners = make(map[string][]listener)
	}
	e.listeners[eventType] = append(e.listeners[eventType], listener{id: id, fn: fn, once: once})
	e.mu.Unlock()

	return id
}

// Off removes the subscription with the given id; removing an unknown or
// already-removed id is a no-op
func (e *Emitter) Off(eventType string, id uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ls := e.listeners[eventType]
	for i, l := range ls {
		if l.id == id {
			e.listeners[eventType] = append(ls[:i:i], ls[i+1:]...)
			return
		}
	}
}

// Fire synchronously invokes every handler registered for the event type,
// in registration order, then propagates to event parents when requested
func (e *Emitter) Fire(eventType string, data interface{}) {
	e.fire(Event{Type: eventType, Data: data}, true)
}

// FireLocal invokes handlers without propagating to event parents
func (e *Emitter) FireLocal(eventType string, data interface{}) {
	e.fire(Event{Type: eventType, Data: data}, false)
}

func (e *Emitter) fire(ev Event, propagate bool) {
	e.mu.Lock()
	if ev.Target == nil {
		ev.Target = e.target
	}
	ls := e.listeners[ev.Type]
	// snapshot so handlers may subscribe/unsubscribe during dispatch
	snapshot := make([]listener, len(ls))
	copy(snapshot, ls)
	var parents []*Emitter
	if propagate {
		parents = append(parents, e.parents...)
	}
	e.mu.Unlock()

	for _, l := range snapshot {
		if !e.stillRegistered(ev.Type, l.id) {
			continue
		}
		if l.once {
			e.Off(ev.Type, l.id)
		}
		l.fn(ev)
	}

	for _, p := range parents {
		child := ev
		if child.PropagatedFrom == nil {
			child.PropagatedFrom = ev.Target
		}
		p.fire(child, true)
	}
}

// stillRegistered guards against handlers removed by an earlier handler of
// the same dispatch
func (e *Emitter) stillRegistered(eventType string, id uint64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, l := range e.listeners[eventType] {
		if l.id == id {
			return true
		}
	}
	return false
}

// Listens reports whether any handler is registered for the event type
func (e *Emitter) Listens(eventType string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.listeners[eventType]) > 0
}

// AddEventParent registers another emitter to receive propagated copies of
// every event fired here
func (e *Emitter) AddEventParent(parent *Emitter) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, p := range e.parents {
		if p == parent {
			return
		}
	}
	e.parents = append(e.parents, parent)
}

// RemoveEventParent unregisters a propagation parent
func (e *Emitter) RemoveEventParent(parent *Emitter) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i, p := range e.parents {
		if p == parent {
			e.parents = append(e.parents[:i:i], e.parents[i+1:]...)
			return
		}
	}
}
