// Package settings mirrors per-profile settings, the autostart flag and the
// agent's model status.
package settings

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/tessro/ocd/internal/daemon"
	"github.com/tessro/ocd/internal/event"
)

// View is a snapshot of the panel.
type View struct {
	ProfileID string
	Settings  *daemon.ProfileSettings
	Autostart bool
	Models    *daemon.ModelsStatus
}

// Service is the slice of the boundary the panel uses.
type Service interface {
	daemon.SettingsService
	daemon.AutostartService
	daemon.ModelsService
}

// Panel holds the settings mirror.
type Panel struct {
	svc Service

	mu sync.RWMutex
	// +checklocks:mu
	profileID string
	// +checklocks:mu
	settings *daemon.ProfileSettings
	// +checklocks:mu
	autostart bool
	// +checklocks:mu
	models *daemon.ModelsStatus

	changes event.Emitter[View]
}

// NewPanel returns an empty panel.
func NewPanel(svc Service) *Panel {
	return &Panel{svc: svc}
}

// View returns a snapshot.
func (p *Panel) View() View {
	p.mu.RLock()
	defer p.mu.RUnlock()
	v := View{ProfileID: p.profileID, Autostart: p.autostart}
	if p.settings != nil {
		s := *p.settings
		v.Settings = &s
	}
	if p.models != nil {
		m := *p.models
		v.Models = &m
	}
	return v
}

// Subscribe registers fn for every change.
func (p *Panel) Subscribe(fn func(View)) (unsubscribe func()) {
	return p.changes.Subscribe(fn)
}

// Load switches to profileID and fetches its settings.
func (p *Panel) Load(ctx context.Context, profileID string) error {
	p.mu.Lock()
	if p.profileID != profileID {
		p.profileID = profileID
		p.settings = nil
		p.models = nil
	}
	p.mu.Unlock()

	if profileID == "" {
		p.changes.Emit(p.View())
		return nil
	}
	slog.Debug("settings call", "op", "get", "profile", profileID)
	s, err := p.svc.GetSettings(ctx, profileID)
	if err != nil {
		slog.Warn("settings call failed", "op", "get", "error", err)
		return err
	}
	p.apply(profileID, s)
	return nil
}

// SetOpenclawPath stores the gateway binary override. Blank clears it.
func (p *Panel) SetOpenclawPath(ctx context.Context, path string) error {
	pid, err := p.requireProfile()
	if err != nil {
		return err
	}
	s, err := p.svc.SetOpenclawPath(ctx, pid, optional(path))
	if err != nil {
		slog.Warn("settings call failed", "op", "set_openclaw_path", "error", err)
		return err
	}
	p.apply(pid, s)
	return nil
}

// SaveOllama stores the base URL and then the model. The second call is
// skipped if the first fails; the mirror keeps whatever was applied.
func (p *Panel) SaveOllama(ctx context.Context, baseURL, model string) error {
	pid, err := p.requireProfile()
	if err != nil {
		return err
	}
	s, err := p.svc.SetOllamaBaseURL(ctx, pid, optional(baseURL))
	if err != nil {
		slog.Warn("settings call failed", "op", "set_ollama_base_url", "error", err)
		return err
	}
	p.apply(pid, s)

	s, err = p.svc.SetOllamaModel(ctx, pid, optional(model))
	if err != nil {
		slog.Warn("settings call failed", "op", "set_ollama_model", "error", err)
		return err
	}
	p.apply(pid, s)
	return nil
}

// SetDevFullExecAuto toggles developer full-exec auto mode.
func (p *Panel) SetDevFullExecAuto(ctx context.Context, enabled bool) error {
	pid, err := p.requireProfile()
	if err != nil {
		return err
	}
	s, err := p.svc.SetDevFullExecAuto(ctx, pid, enabled)
	if err != nil {
		slog.Warn("settings call failed", "op", "set_dev_full_exec_auto", "error", err)
		return err
	}
	p.apply(pid, s)
	return nil
}

// SetAutoDoMode toggles steering action requests to tool calls.
func (p *Panel) SetAutoDoMode(ctx context.Context, enabled bool) error {
	pid, err := p.requireProfile()
	if err != nil {
		return err
	}
	s, err := p.svc.SetAutoDoMode(ctx, pid, enabled)
	if err != nil {
		slog.Warn("settings call failed", "op", "set_auto_do_mode", "error", err)
		return err
	}
	p.apply(pid, s)
	return nil
}

// LoadAutostart reads the launch-at-login flag.
func (p *Panel) LoadAutostart(ctx context.Context) error {
	on, err := p.svc.GetAutostart(ctx)
	if err != nil {
		slog.Warn("autostart call failed", "op", "get", "error", err)
		return err
	}
	p.setAutostart(on)
	return nil
}

// SetAutostart writes the launch-at-login flag.
func (p *Panel) SetAutostart(ctx context.Context, enabled bool) error {
	if err := p.svc.SetAutostart(ctx, enabled); err != nil {
		slog.Warn("autostart call failed", "op", "set", "error", err)
		return err
	}
	p.setAutostart(enabled)
	return nil
}

// RefreshModels reads the agent's model status for the active profile.
func (p *Panel) RefreshModels(ctx context.Context) error {
	pid, err := p.requireProfile()
	if err != nil {
		return err
	}
	st, err := p.svc.ModelsStatus(ctx, pid)
	if err != nil {
		slog.Warn("models call failed", "op", "status", "error", err)
		return err
	}
	p.setModels(pid, st)
	return nil
}

// SetDefaultModel selects the agent's default model.
func (p *Panel) SetDefaultModel(ctx context.Context, model string) error {
	model = strings.TrimSpace(model)
	if model == "" {
		return fmt.Errorf("model is empty")
	}
	pid, err := p.requireProfile()
	if err != nil {
		return err
	}
	st, err := p.svc.SetDefaultModel(ctx, pid, model)
	if err != nil {
		slog.Warn("models call failed", "op", "set", "error", err)
		return err
	}
	p.setModels(pid, st)
	return nil
}

func (p *Panel) requireProfile() (string, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.profileID == "" {
		return "", fmt.Errorf("no active profile")
	}
	return p.profileID, nil
}

func (p *Panel) apply(profileID string, s *daemon.ProfileSettings) {
	p.mu.Lock()
	if p.profileID != profileID {
		p.mu.Unlock()
		return
	}
	p.settings = s
	p.mu.Unlock()
	p.changes.Emit(p.View())
}

func (p *Panel) setAutostart(on bool) {
	p.mu.Lock()
	p.autostart = on
	p.mu.Unlock()
	p.changes.Emit(p.View())
}

func (p *Panel) setModels(profileID string, st *daemon.ModelsStatus) {
	p.mu.Lock()
	if p.profileID != profileID {
		p.mu.Unlock()
		return
	}
	p.models = st
	p.mu.Unlock()
	p.changes.Emit(p.View())
}

// optional maps a blank field to nil so the daemon stores null.
func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// Value dereferences an optional setting for display.
func Value(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
