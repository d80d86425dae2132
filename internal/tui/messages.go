package tui

import (
	"github.com/tessro/ocd/internal/daemon"
)

// stateChangedMsg is sent when the orchestrator reports a state change.
type stateChangedMsg struct{}

// intentDoneMsg is sent when an intent returns. Intents report their own
// failures through toasts, so there is nothing to carry.
type intentDoneMsg struct {
	Name string
}

// streamEventMsg wraps a daemon push event for Bubble Tea.
type streamEventMsg struct {
	Event *daemon.StreamEvent
	Err   error
}

// streamStartMsg is sent when the push stream is started successfully.
type streamStartMsg struct {
	EventChan <-chan daemon.EventResult
}

// reconnectMsg signals the result of a reconnection attempt.
type reconnectMsg struct {
	Success   bool
	Err       error
	EventChan <-chan daemon.EventResult
}
