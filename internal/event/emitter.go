// Package event provides generic change notification utilities.
package event

import "sync"

// Emitter delivers events to registered handlers.
// Handlers are called synchronously on the emitting goroutine, outside the lock,
// so a handler may subscribe, unsubscribe, or emit again.
type Emitter[E any] struct {
	mu sync.RWMutex
	// +checklocks:mu
	handlers map[uint64]func(E)
	// +checklocks:mu
	order []uint64
	// +checklocks:mu
	next uint64
}

// Subscribe registers a handler and returns a function that removes it.
// The returned function is safe to call more than once.
func (e *Emitter[E]) Subscribe(handler func(E)) (unsubscribe func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.handlers == nil {
		e.handlers = make(map[uint64]func(E))
	}
	e.next++
	token := e.next
	e.handlers[token] = handler
	e.order = append(e.order, token)

	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if _, ok := e.handlers[token]; !ok {
			return
		}
		delete(e.handlers, token)
		for i, t := range e.order {
			if t == token {
				e.order = append(e.order[:i], e.order[i+1:]...)
				break
			}
		}
	}
}

// Emit sends an event to all registered handlers in subscription order.
// Must not be called with lock held.
func (e *Emitter[E]) Emit(event E) {
	e.mu.RLock()
	handlers := make([]func(E), 0, len(e.order))
	for _, t := range e.order {
		handlers = append(handlers, e.handlers[t])
	}
	e.mu.RUnlock()

	for _, h := range handlers {
		h(event)
	}
}

// Len returns the number of registered handlers.
func (e *Emitter[E]) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.order)
}
