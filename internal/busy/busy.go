// Package busy provides the single-flight lock that serializes mutating
// boundary calls. A second attempt while the lock is held is rejected, not queued.
package busy

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/tessro/ocd/internal/event"
)

// ErrBusy is returned by Run when another operation holds the lock.
var ErrBusy = errors.New("busy: another operation is in progress")

// State is a snapshot of the lock.
type State struct {
	Held   bool
	Reason string
}

// Lock is the process-wide busy slot. The zero value is free and ready to use.
// It is injected into every component that issues mutating calls.
type Lock struct {
	mu sync.Mutex
	// +checklocks:mu
	held bool
	// +checklocks:mu
	reason string

	changes event.Emitter[State]
}

// New returns a free lock.
func New() *Lock {
	return &Lock{}
}

// TryBegin acquires the lock with a human-readable reason.
// It returns false without blocking if the lock is already held.
func (l *Lock) TryBegin(reason string) bool {
	l.mu.Lock()
	if l.held {
		l.mu.Unlock()
		return false
	}
	l.held = true
	l.reason = reason
	l.mu.Unlock()

	slog.Debug("busy: begin", "reason", reason)
	l.changes.Emit(State{Held: true, Reason: reason})
	return true
}

// End releases the lock. Calling End on a free lock is a no-op.
func (l *Lock) End() {
	l.mu.Lock()
	if !l.held {
		l.mu.Unlock()
		return
	}
	reason := l.reason
	l.held = false
	l.reason = ""
	l.mu.Unlock()

	slog.Debug("busy: end", "reason", reason)
	l.changes.Emit(State{})
}

// Run executes fn while holding the lock and releases it on every exit path,
// including panics. Returns ErrBusy without calling fn if the lock is held.
func (l *Lock) Run(reason string, fn func() error) error {
	if !l.TryBegin(reason) {
		return ErrBusy
	}
	defer l.End()
	return fn()
}

// State returns the current lock state.
func (l *Lock) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return State{Held: l.held, Reason: l.reason}
}

// Held reports whether the lock is held. Interactive controls are disabled while it is.
func (l *Lock) Held() bool {
	return l.State().Held
}

// Reason returns the reason of the current holder, or "" when free.
func (l *Lock) Reason() string {
	return l.State().Reason
}

// Subscribe registers fn for lock transitions. fn runs on the transitioning goroutine.
func (l *Lock) Subscribe(fn func(State)) (unsubscribe func()) {
	return l.changes.Subscribe(fn)
}
