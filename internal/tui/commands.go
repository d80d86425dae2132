package tui

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tessro/ocd/internal/daemon"
	"github.com/tessro/ocd/internal/logging"
)

// intent runs fn off the update loop. Intents report their own failures
// through toasts, so the result message only triggers a re-render.
func (m Model) intent(name string, fn func(ctx context.Context)) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		defer logging.LogPanic("tui-intent-"+name, nil)
		slog.Debug("tui intent", "name", name)
		fn(ctx)
		return intentDoneMsg{Name: name}
	}
}

// waitForChange blocks until the orchestrator reports a change.
func (m Model) waitForChange() tea.Cmd {
	changes := m.changes
	if changes == nil {
		return nil
	}
	return func() tea.Msg {
		<-changes
		return stateChangedMsg{}
	}
}

// attachToStreamCmd connects to the daemon push stream.
func attachToStreamCmd(streamer daemon.EventStreamer) tea.Cmd {
	return func() tea.Msg {
		if streamer == nil {
			return nil
		}
		eventChan, err := streamer.StreamEvents()
		if err != nil {
			return streamEventMsg{Err: err}
		}
		return streamStartMsg{EventChan: eventChan}
	}
}

// waitForEventCmd waits for the next push event from a channel.
func waitForEventCmd(eventChan <-chan daemon.EventResult) tea.Cmd {
	if eventChan == nil {
		return nil
	}
	return func() tea.Msg {
		result, ok := <-eventChan
		if !ok {
			return streamEventMsg{Err: fmt.Errorf("event stream closed")}
		}
		return streamEventMsg{Event: result.Event, Err: result.Err}
	}
}

// waitForEvent waits for the next push event.
func (m Model) waitForEvent() tea.Cmd {
	return waitForEventCmd(m.eventChan)
}

// attemptReconnect tries to reopen the daemon connections after a delay.
func (m Model) attemptReconnect() tea.Cmd {
	delay := m.reconnectDelay
	streamer, reconnect := m.streamer, m.reconnect
	return func() tea.Msg {
		time.Sleep(delay)

		if reconnect != nil {
			if err := reconnect(); err != nil {
				return reconnectMsg{Success: false, Err: err}
			}
		}
		eventChan, err := streamer.StreamEvents()
		if err != nil {
			return reconnectMsg{Success: false, Err: err}
		}
		return reconnectMsg{Success: true, EventChan: eventChan}
	}
}
