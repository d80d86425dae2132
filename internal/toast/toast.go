// Package toast implements a bounded, self-expiring notification queue.
package toast

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tessro/ocd/internal/event"
)

// Kind classifies a notification.
type Kind string

// Notification kinds.
const (
	KindInfo    Kind = "info"
	KindSuccess Kind = "success"
	KindError   Kind = "error"
)

// MaxToasts is the number of notifications retained.
const MaxToasts = 5

// Toast is one notification. Message is optional.
type Toast struct {
	ID        string        `json:"id" yaml:"id"`
	Kind      Kind          `json:"kind" yaml:"kind"`
	Title     string        `json:"title" yaml:"title"`
	Message   string        `json:"message,omitempty" yaml:"message,omitempty"`
	CreatedAt time.Time     `json:"created_at" yaml:"created_at"`
	Timeout   time.Duration `json:"timeout" yaml:"timeout"`
}

// Timer is a cancellable scheduled callback.
type Timer interface {
	Stop() bool
}

// Clock abstracts time so expiry is testable.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// Timeouts are the default auto-dismiss delays per kind.
type Timeouts struct {
	Info    time.Duration
	Success time.Duration
	Error   time.Duration
}

// DefaultTimeouts keeps errors visible longer than successes.
var DefaultTimeouts = Timeouts{
	Info:    4 * time.Second,
	Success: 2500 * time.Millisecond,
	Error:   8 * time.Second,
}

func (t Timeouts) forKind(k Kind) time.Duration {
	switch k {
	case KindSuccess:
		return t.Success
	case KindError:
		return t.Error
	default:
		return t.Info
	}
}

// pending is a scheduled expiry. gen distinguishes timers for a reused id.
type pending struct {
	timer Timer
	gen   uint64
}

// Option configures a Queue.
type Option func(*Queue)

// WithClock replaces the wall clock.
func WithClock(c Clock) Option {
	return func(q *Queue) { q.clock = c }
}

// WithTimeouts replaces the per-kind default timeouts.
func WithTimeouts(t Timeouts) Option {
	return func(q *Queue) { q.timeouts = t }
}

// Queue holds at most MaxToasts notifications, newest first. Each toast owns
// an independent expiry timer keyed by its id.
type Queue struct {
	clock    Clock
	timeouts Timeouts

	mu sync.Mutex
	// +checklocks:mu
	toasts []Toast
	// +checklocks:mu
	timers map[string]pending
	// +checklocks:mu
	gen uint64

	changes event.Emitter[[]Toast]
}

// NewQueue returns an empty queue.
func NewQueue(opts ...Option) *Queue {
	q := &Queue{
		clock:    realClock{},
		timeouts: DefaultTimeouts,
		timers:   make(map[string]pending),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Push prepends t and evicts the oldest entries beyond MaxToasts.
// Missing ID, CreatedAt and Timeout are filled in. Returns the toast id.
func (q *Queue) Push(t Toast) string {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Kind == "" {
		t.Kind = KindInfo
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = q.clock.Now()
	}
	if t.Timeout <= 0 {
		t.Timeout = q.timeouts.forKind(t.Kind)
	}

	q.mu.Lock()
	// A reused id replaces the earlier toast and its timer.
	q.removeLocked(t.ID)
	q.stopTimerLocked(t.ID)
	q.toasts = append([]Toast{t}, q.toasts...)
	for len(q.toasts) > MaxToasts {
		evicted := q.toasts[len(q.toasts)-1]
		q.toasts = q.toasts[:len(q.toasts)-1]
		q.stopTimerLocked(evicted.ID)
	}

	q.gen++
	gen := q.gen
	q.timers[t.ID] = pending{
		timer: q.clock.AfterFunc(t.Timeout, func() { q.expire(t.ID, gen) }),
		gen:   gen,
	}
	snapshot := q.snapshotLocked()
	q.mu.Unlock()

	slog.Debug("toast pushed", "kind", t.Kind, "title", t.Title)
	q.changes.Emit(snapshot)
	return t.ID
}

// Info pushes an info notification.
func (q *Queue) Info(title, message string) string {
	return q.Push(Toast{Kind: KindInfo, Title: title, Message: message})
}

// Success pushes a success notification.
func (q *Queue) Success(title, message string) string {
	return q.Push(Toast{Kind: KindSuccess, Title: title, Message: message})
}

// Error pushes an error notification.
func (q *Queue) Error(title, message string) string {
	return q.Push(Toast{Kind: KindError, Title: title, Message: message})
}

// expire removes id if gen is still the expiry scheduled for it.
func (q *Queue) expire(id string, gen uint64) {
	q.mu.Lock()
	if p, ok := q.timers[id]; !ok || p.gen != gen {
		q.mu.Unlock()
		return
	}
	delete(q.timers, id)
	q.removeLocked(id)
	snapshot := q.snapshotLocked()
	q.mu.Unlock()

	q.changes.Emit(snapshot)
}

// Dismiss removes a toast early and cancels its timer.
// Returns false if the toast is not present.
func (q *Queue) Dismiss(id string) bool {
	q.mu.Lock()
	removed := q.removeLocked(id)
	q.stopTimerLocked(id)
	snapshot := q.snapshotLocked()
	q.mu.Unlock()

	if removed {
		q.changes.Emit(snapshot)
	}
	return removed
}

// Clear removes every toast and cancels every timer.
func (q *Queue) Clear() {
	q.mu.Lock()
	for id := range q.timers {
		q.stopTimerLocked(id)
	}
	had := len(q.toasts) > 0
	q.toasts = nil
	q.mu.Unlock()

	if had {
		q.changes.Emit(nil)
	}
}

// List returns the toasts, newest first.
func (q *Queue) List() []Toast {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.snapshotLocked()
}

// Len returns the number of toasts.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.toasts)
}

// Subscribe registers fn for every change of the list, including expiry.
func (q *Queue) Subscribe(fn func([]Toast)) (unsubscribe func()) {
	return q.changes.Subscribe(fn)
}

// +checklocks:q.mu
func (q *Queue) removeLocked(id string) bool {
	for i, t := range q.toasts {
		if t.ID == id {
			q.toasts = append(q.toasts[:i], q.toasts[i+1:]...)
			return true
		}
	}
	return false
}

// +checklocks:q.mu
func (q *Queue) stopTimerLocked(id string) {
	if p, ok := q.timers[id]; ok {
		p.timer.Stop()
		delete(q.timers, id)
	}
}

// +checklocks:q.mu
func (q *Queue) snapshotLocked() []Toast {
	return append([]Toast(nil), q.toasts...)
}
