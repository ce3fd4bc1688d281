// Package eventbus provides an in-process publish/subscribe dispatcher
// mapping named events to ordered listener lists.
package eventbus

import (
	"reflect"
	"sync"
)

// EventType identifies the kind of event being triggered. The set of names
// is open; producers and consumers agree on them out of band.
type EventType string

// Listener is a callback invoked with the details value of a triggered event.
type Listener func(details any)

// PanicHandler is called when a listener panics during Trigger.
type PanicHandler func(event EventType, details any, panicValue any)

// entry pairs a listener with its identity key so Off can remove a specific
// registration. Function values are not comparable in Go; the code pointer
// serves as the identity.
type entry struct {
	fn  Listener
	key uintptr
}

// Dispatcher is a concurrent-safe publish/subscribe dispatcher. Listeners for
// an event are invoked in registration order; the same listener may be
// registered more than once and is then invoked once per registration.
type Dispatcher struct {
	mu        sync.Mutex
	listeners map[EventType][]entry
	onPanic   PanicHandler
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithPanicHandler sets a hook invoked when a listener panics. Without it,
// panics are recovered silently.
func WithPanicHandler(h PanicHandler) Option {
	return func(d *Dispatcher) {
		d.onPanic = h
	}
}

// New creates a ready-to-use Dispatcher.
func New(opts ...Option) *Dispatcher {
	d := &Dispatcher{
		listeners: make(map[EventType][]entry),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// On registers fn for event, appending it after any existing listeners.
// No duplicate detection is performed.
func (d *Dispatcher) On(event EventType, fn Listener) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listeners[event] = append(d.listeners[event], entry{
		fn:  fn,
		key: listenerKey(fn),
	})
}

// Off removes the first registration of fn for event, scanning in
// registration order. It reports whether a listener was removed. When the
// last listener for an event is removed, the event's entry is deleted
// entirely.
func (d *Dispatcher) Off(event EventType, fn Listener) bool {
	key := listenerKey(fn)

	d.mu.Lock()
	defer d.mu.Unlock()

	entries, ok := d.listeners[event]
	if !ok {
		return false
	}
	for i, e := range entries {
		if e.key != key {
			continue
		}
		entries = append(entries[:i], entries[i+1:]...)
		if len(entries) == 0 {
			delete(d.listeners, event)
		} else {
			d.listeners[event] = entries
		}
		return true
	}
	return false
}

// Trigger invokes every listener registered for event, in order, passing
// details to each. It reports whether anything was notified; triggering an
// event with no listeners is a no-op returning false. A panicking listener is
// recovered so the remaining listeners still run.
func (d *Dispatcher) Trigger(event EventType, details any) bool {
	d.mu.Lock()
	entries := d.listeners[event]
	snapshot := make([]entry, len(entries))
	copy(snapshot, entries)
	d.mu.Unlock()

	if len(snapshot) == 0 {
		return false
	}
	for _, e := range snapshot {
		d.invoke(event, details, e.fn)
	}
	return true
}

func (d *Dispatcher) invoke(event EventType, details any, fn Listener) {
	defer func() {
		if v := recover(); v != nil && d.onPanic != nil {
			d.onPanic(event, details, v)
		}
	}()
	fn(details)
}

// ListenerCount returns the number of listeners registered for event.
func (d *Dispatcher) ListenerCount(event EventType) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.listeners[event])
}

// HasListeners reports whether any listener is registered for event.
func (d *Dispatcher) HasListeners(event EventType) bool {
	return d.ListenerCount(event) > 0
}

func listenerKey(fn Listener) uintptr {
	return reflect.ValueOf(fn).Pointer()
}
