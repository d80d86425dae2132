// Package gateway mirrors the gateway process status and log tail.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/tessro/ocd/internal/daemon"
	"github.com/tessro/ocd/internal/event"
)

// ErrLogsUnavailable wraps a failed log refresh that followed a successful
// lifecycle call.
var ErrLogsUnavailable = errors.New("gateway logs unavailable")

// Action is a gateway lifecycle call.
type Action string

// Lifecycle actions.
const (
	ActionStatus  Action = "status"
	ActionStart   Action = "start"
	ActionStop    Action = "stop"
	ActionRestart Action = "restart"
)

// View is a snapshot of the mirror. Nil fields have never loaded.
type View struct {
	Status *daemon.GatewayStatus
	Logs   *daemon.GatewayLogs
}

// Running reports whether the last status call exited cleanly.
func (v View) Running() bool {
	return v.Status != nil && v.Status.ExitCode == 0
}

// Controller issues lifecycle calls and keeps the last status and logs.
// Status calls are profile-scoped; the log tail is global.
type Controller struct {
	svc   daemon.GatewayService
	lines int

	mu sync.RWMutex
	// +checklocks:mu
	profileID string
	// +checklocks:mu
	status *daemon.GatewayStatus
	// +checklocks:mu
	logs *daemon.GatewayLogs

	changes event.Emitter[View]
}

// NewController returns a controller tailing lines log lines.
// lines <= 0 uses daemon.DefaultGatewayLogLines.
func NewController(svc daemon.GatewayService, lines int) *Controller {
	if lines <= 0 {
		lines = daemon.DefaultGatewayLogLines
	}
	return &Controller{svc: svc, lines: lines}
}

// Status queries the gateway.
func (c *Controller) Status(ctx context.Context, profileID string) (daemon.GatewayStatus, error) {
	return c.run(ctx, ActionStatus, profileID)
}

// Start launches the gateway.
func (c *Controller) Start(ctx context.Context, profileID string) (daemon.GatewayStatus, error) {
	return c.run(ctx, ActionStart, profileID)
}

// Stop stops the gateway.
func (c *Controller) Stop(ctx context.Context, profileID string) (daemon.GatewayStatus, error) {
	return c.run(ctx, ActionStop, profileID)
}

// Restart restarts the gateway.
func (c *Controller) Restart(ctx context.Context, profileID string) (daemon.GatewayStatus, error) {
	return c.run(ctx, ActionRestart, profileID)
}

// Do runs action by name.
func (c *Controller) Do(ctx context.Context, action Action, profileID string) (daemon.GatewayStatus, error) {
	return c.run(ctx, action, profileID)
}

func (c *Controller) call(ctx context.Context, action Action, profileID string) (*daemon.GatewayStatus, error) {
	switch action {
	case ActionStatus:
		return c.svc.GatewayStatus(ctx, profileID)
	case ActionStart:
		return c.svc.GatewayStart(ctx, profileID)
	case ActionStop:
		return c.svc.GatewayStop(ctx, profileID)
	case ActionRestart:
		return c.svc.GatewayRestart(ctx, profileID)
	default:
		return nil, fmt.Errorf("unknown gateway action %q", action)
	}
}

// SetProfile scopes the status mirror to profileID. Switching profiles drops
// the previous profile's status; the log tail is global and stays.
func (c *Controller) SetProfile(profileID string) {
	c.mu.Lock()
	changed := c.profileID != profileID
	if changed {
		c.profileID = profileID
		c.status = nil
	}
	c.mu.Unlock()
	if changed {
		c.changes.Emit(c.View())
	}
}

// run performs action and then always refreshes the log tail. A failed
// call leaves the previous status and logs in place when the profile is
// unchanged.
func (c *Controller) run(ctx context.Context, action Action, profileID string) (daemon.GatewayStatus, error) {
	c.SetProfile(profileID)
	slog.Debug("gateway call", "op", action, "profile", profileID)
	st, err := c.call(ctx, action, profileID)
	if err != nil {
		slog.Warn("gateway call failed", "op", action, "error", err)
	} else {
		c.mu.Lock()
		c.status = st
		c.mu.Unlock()
	}

	logsErr := c.RefreshLogs(ctx)

	if err != nil {
		return c.lastStatus(), err
	}
	if logsErr != nil {
		return *st, fmt.Errorf("%w: %w", ErrLogsUnavailable, logsErr)
	}
	return *st, nil
}

// RefreshLogs re-reads the log tail.
func (c *Controller) RefreshLogs(ctx context.Context) error {
	logs, err := c.svc.GatewayLogs(ctx, c.lines)
	if err != nil {
		slog.Warn("gateway call failed", "op", "logs", "error", err)
		c.changes.Emit(c.View())
		return err
	}
	c.mu.Lock()
	c.logs = logs
	c.mu.Unlock()
	c.changes.Emit(c.View())
	return nil
}

func (c *Controller) lastStatus() daemon.GatewayStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.status == nil {
		return daemon.GatewayStatus{}
	}
	return *c.status
}

// View returns a snapshot.
func (c *Controller) View() View {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var v View
	if c.status != nil {
		st := *c.status
		v.Status = &st
	}
	if c.logs != nil {
		l := *c.logs
		v.Logs = &l
	}
	return v
}

// Subscribe registers fn for every refresh.
func (c *Controller) Subscribe(fn func(View)) (unsubscribe func()) {
	return c.changes.Subscribe(fn)
}
