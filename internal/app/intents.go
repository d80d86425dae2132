package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tessro/ocd/internal/chat"
	"github.com/tessro/ocd/internal/daemon"
	"github.com/tessro/ocd/internal/gateway"
	"github.com/tessro/ocd/internal/modal"
)

var errNoProfile = errors.New("no active profile")

// Init loads the profile collection and everything scoped to the active
// profile. A failed profile load also sets the persistent banner, since
// nothing else is usable without profiles.
func (o *Orchestrator) Init(ctx context.Context) {
	o.action("Loading profiles", "Failed to load profiles", func() error {
		ps, err := o.profiles.List(ctx)
		if err != nil {
			o.setBanner("Could not load profiles: " + daemon.Message(err))
			return err
		}
		o.setBanner("")
		if ps.ActiveProfileID == "" && len(ps.Profiles) > 0 {
			if _, err := o.profiles.SetActive(ctx, ps.Profiles[0].ID); err != nil {
				return err
			}
		}
		o.loadProfileScope(ctx)
		if err := o.settings.LoadAutostart(ctx); err != nil {
			o.toasts.Error("Failed to read autostart", daemon.Message(err))
		}
		return nil
	})
}

// loadProfileScope refreshes chats, settings and gateway status for the
// active profile. Each failure is reported on its own; the rest still load.
// Callers hold the busy lock.
func (o *Orchestrator) loadProfileScope(ctx context.Context) {
	pid := o.profiles.ActiveID()
	o.report("Failed to load chats", o.chats.SetProfile(ctx, pid))
	o.report("Failed to load settings", o.settings.Load(ctx, pid))
	o.gateway.SetProfile(pid)
	if pid == "" {
		return
	}
	if _, err := o.gateway.Status(ctx, pid); err != nil {
		o.report("Failed to read gateway status", err)
	}
}

func (o *Orchestrator) activeProfile() (string, error) {
	pid := o.profiles.ActiveID()
	if pid == "" {
		return "", errNoProfile
	}
	return pid, nil
}

// CreateProfile creates a profile, which becomes active.
func (o *Orchestrator) CreateProfile(ctx context.Context, name string) {
	if strings.TrimSpace(name) == "" {
		return
	}
	if o.action("Creating profile", "Failed to create profile", func() error {
		before := o.profiles.ActiveID()
		if _, err := o.profiles.Create(ctx, name); err != nil {
			return err
		}
		if o.profiles.ActiveID() != before {
			o.loadProfileScope(ctx)
		}
		return nil
	}) {
		o.toasts.Success("Profile created", strings.TrimSpace(name))
	}
}

// SelectProfile makes id the active profile.
func (o *Orchestrator) SelectProfile(ctx context.Context, id string) {
	if id == o.profiles.ActiveID() {
		return
	}
	o.action("Switching profile", "Failed to switch profile", func() error {
		if _, err := o.profiles.SetActive(ctx, id); err != nil {
			return err
		}
		o.loadProfileScope(ctx)
		return nil
	})
}

// OpenRenameProfile opens the rename dialog pre-filled with the current name.
func (o *Orchestrator) OpenRenameProfile(id string) {
	p, err := o.profiles.Get(id)
	if err != nil {
		return
	}
	o.modal.Open(modal.RenameProfile{ProfileID: id, Value: p.Name})
}

// OpenDeleteProfile opens the delete confirmation. The affordance is
// disabled while only one profile remains.
func (o *Orchestrator) OpenDeleteProfile(id string) {
	if !o.profiles.CanDelete() {
		return
	}
	if _, err := o.profiles.Get(id); err != nil {
		return
	}
	o.modal.Open(modal.DeleteProfile{ProfileID: id})
}

// OpenRenameChat opens the rename dialog pre-filled with the chat title.
func (o *Orchestrator) OpenRenameChat(chatID string) {
	for _, c := range o.chats.View().Chats {
		if c.ID == chatID {
			o.modal.Open(modal.RenameChat{ChatID: chatID, Value: c.Title})
			return
		}
	}
}

// OpenDeleteChat opens the delete confirmation for a chat.
func (o *Orchestrator) OpenDeleteChat(chatID string) {
	for _, c := range o.chats.View().Chats {
		if c.ID == chatID {
			o.modal.Open(modal.DeleteChat{ChatID: chatID})
			return
		}
	}
}

// OpenSecretSet opens the secret editor.
func (o *Orchestrator) OpenSecretSet() {
	if _, err := o.activeProfile(); err != nil {
		return
	}
	o.modal.Open(modal.SecretSet{})
}

// OpenSecretShow reads the secret and shows it.
func (o *Orchestrator) OpenSecretShow(ctx context.Context) {
	pid, err := o.activeProfile()
	if err != nil {
		return
	}
	o.action("Reading secret", "Failed to read secret", func() error {
		v, err := o.boundary.GetSecret(ctx, pid, o.config.SecretKey)
		if err != nil {
			return err
		}
		o.modal.Open(modal.SecretShow{Value: v})
		return nil
	})
}

// OpenSecretDelete opens the delete confirmation for the secret.
func (o *Orchestrator) OpenSecretDelete() {
	if _, err := o.activeProfile(); err != nil {
		return
	}
	o.modal.Open(modal.SecretDelete{})
}

// UpdateModalField edits the open dialog's text field.
func (o *Orchestrator) UpdateModalField(v string) {
	o.modal.UpdateField(v)
}

// CancelModal closes the dialog. An in-flight confirm still completes.
func (o *Orchestrator) CancelModal() {
	o.modal.Cancel()
}

// ConfirmModal performs the open dialog's operation. The dialog stays open
// if it fails.
func (o *Orchestrator) ConfirmModal(ctx context.Context) {
	d := o.modal.Current()
	if d == nil {
		return
	}
	reason, failTitle := confirmText(d)
	o.action(reason, failTitle, func() error {
		return o.modal.Confirm(ctx, confirmer{o})
	})
}

func confirmText(d modal.Modal) (reason, failTitle string) {
	switch d.(type) {
	case modal.RenameProfile:
		return "Renaming profile", "Failed to rename profile"
	case modal.DeleteProfile:
		return "Deleting profile", "Failed to delete profile"
	case modal.RenameChat:
		return "Renaming chat", "Failed to rename chat"
	case modal.DeleteChat:
		return "Deleting chat", "Failed to delete chat"
	case modal.SecretSet:
		return "Saving secret", "Failed to save secret"
	case modal.SecretDelete:
		return "Deleting secret", "Failed to delete secret"
	default:
		return "Closing dialog", "Dialog failed"
	}
}

// confirmer runs dialog operations. It is only used inside the busy lock.
type confirmer struct {
	o *Orchestrator
}

func (c confirmer) ConfirmModal(ctx context.Context, d modal.Modal) (modal.Modal, error) {
	o := c.o
	switch d := d.(type) {
	case modal.RenameProfile:
		if _, err := o.profiles.Rename(ctx, d.ProfileID, d.Value); err != nil {
			return nil, err
		}
		o.toasts.Success("Profile renamed", strings.TrimSpace(d.Value))
		return nil, nil

	case modal.DeleteProfile:
		before := o.profiles.ActiveID()
		if _, err := o.profiles.Delete(ctx, d.ProfileID); err != nil {
			return nil, err
		}
		if o.profiles.ActiveID() != before {
			o.loadProfileScope(ctx)
		}
		o.toasts.Success("Profile deleted", "")
		return nil, nil

	case modal.RenameChat:
		if err := o.chats.RenameChat(ctx, d.ChatID, d.Value); err != nil {
			return nil, err
		}
		o.toasts.Success("Chat renamed", "")
		return nil, nil

	case modal.DeleteChat:
		if err := o.chats.DeleteChat(ctx, d.ChatID); err != nil {
			return nil, err
		}
		o.toasts.Success("Chat deleted", "")
		return nil, nil

	case modal.SecretSet:
		pid, err := o.activeProfile()
		if err != nil {
			return nil, err
		}
		if err := o.boundary.SetSecret(ctx, pid, o.config.SecretKey, d.Value); err != nil {
			return nil, err
		}
		o.toasts.Success("Secret saved", o.config.SecretKey)
		v := d.Value
		return modal.SecretShow{Value: &v}, nil

	case modal.SecretShow:
		return nil, nil

	case modal.SecretDelete:
		pid, err := o.activeProfile()
		if err != nil {
			return nil, err
		}
		if err := o.boundary.DeleteSecret(ctx, pid, o.config.SecretKey); err != nil {
			return nil, err
		}
		o.toasts.Success("Secret deleted", o.config.SecretKey)
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown dialog %q", d.Kind())
	}
}

// NewChat creates a chat in the active profile and selects it.
func (o *Orchestrator) NewChat(ctx context.Context) {
	o.action("Creating chat", "Failed to create chat", func() error {
		_, err := o.chats.CreateChat(ctx, nil)
		return err
	})
}

// SelectChat shows chatID. It does not take the busy lock; a slower earlier
// selection is discarded when it settles.
func (o *Orchestrator) SelectChat(ctx context.Context, chatID string) {
	o.report("Failed to load chat", o.chats.Select(ctx, chatID))
}

// RefreshThread re-reads the active thread without taking the busy lock.
func (o *Orchestrator) RefreshThread(ctx context.Context) {
	o.report("Failed to load chat", o.chats.FetchThread(ctx))
}

// ResetThread clears the active chat's messages.
func (o *Orchestrator) ResetThread(ctx context.Context) {
	if o.action("Resetting chat", "Failed to reset chat", func() error {
		return o.chats.Reset(ctx)
	}) {
		o.toasts.Info("Chat reset", "")
	}
}

// UpdateChatSettings applies a partial settings update to a chat.
func (o *Orchestrator) UpdateChatSettings(ctx context.Context, chatID string, update daemon.ChatSettingsUpdate) {
	o.action("Updating chat", "Failed to update chat", func() error {
		return o.chats.UpdateChatSettings(ctx, chatID, update)
	})
}

// SetDraft replaces the composer text.
func (o *Orchestrator) SetDraft(text string) {
	o.chats.SetDraft(text)
}

// Send posts the draft to the active chat. An assistant reply carrying the
// error marker stays in the thread and also raises an error toast.
func (o *Orchestrator) Send(ctx context.Context) {
	text := o.chats.Draft()
	if strings.TrimSpace(text) == "" {
		return
	}
	err := o.busy.Run("Sending", func() error {
		return o.chats.Send(ctx, text)
	})
	var aerr *chat.AssistantError
	if errors.As(err, &aerr) {
		o.toasts.Error("Send failed", aerr.Error())
		return
	}
	o.report("Send failed", err)
}

var actionReasons = map[gateway.Action][2]string{
	gateway.ActionStatus:  {"Checking gateway", "Gateway status"},
	gateway.ActionStart:   {"Starting gateway", "Gateway started"},
	gateway.ActionStop:    {"Stopping gateway", "Gateway stopped"},
	gateway.ActionRestart: {"Restarting gateway", "Gateway restarted"},
}

// Gateway runs a lifecycle action for the active profile.
func (o *Orchestrator) Gateway(ctx context.Context, action gateway.Action) {
	pid, err := o.activeProfile()
	if err != nil {
		return
	}
	text, ok := actionReasons[action]
	if !ok {
		slog.Warn("unknown gateway action", "action", action)
		return
	}

	var st daemon.GatewayStatus
	var logsErr error
	ok = o.action(text[0], "Gateway "+string(action)+" failed", func() error {
		var err error
		st, err = o.gateway.Do(ctx, action, pid)
		if errors.Is(err, gateway.ErrLogsUnavailable) {
			logsErr = err
			return nil
		}
		return err
	})
	if !ok {
		return
	}

	switch {
	case st.ExitCode != 0:
		o.toasts.Error(fmt.Sprintf("Gateway %s exited with code %d", action, st.ExitCode), firstLine(st.Stderr, st.Stdout))
	case action != gateway.ActionStatus:
		o.toasts.Success(text[1], "")
	}
	if logsErr != nil {
		o.toasts.Error("Failed to read gateway logs", daemon.Message(logsErr))
	}
}

// RefreshGatewayLogs re-reads the log tail without taking the busy lock.
func (o *Orchestrator) RefreshGatewayLogs(ctx context.Context) {
	o.report("Failed to read gateway logs", o.gateway.RefreshLogs(ctx))
}

// SaveOpenclawPath stores the gateway binary override for the active profile.
func (o *Orchestrator) SaveOpenclawPath(ctx context.Context, path string) {
	if o.action("Saving settings", "Failed to save settings", func() error {
		return o.settings.SetOpenclawPath(ctx, path)
	}) {
		o.toasts.Success("OpenClaw path saved", "")
	}
}

// SaveOllama stores the Ollama base URL and model in one busy section.
func (o *Orchestrator) SaveOllama(ctx context.Context, baseURL, model string) {
	if o.action("Saving settings", "Failed to save settings", func() error {
		return o.settings.SaveOllama(ctx, baseURL, model)
	}) {
		o.toasts.Success("Ollama settings saved", "")
	}
}

// SetDevFullExecAuto toggles developer full-exec auto mode.
func (o *Orchestrator) SetDevFullExecAuto(ctx context.Context, enabled bool) {
	if o.action("Saving settings", "Failed to save settings", func() error {
		return o.settings.SetDevFullExecAuto(ctx, enabled)
	}) {
		o.toasts.Success(onOff("Full exec auto", enabled), "")
	}
}

// SetAutoDoMode toggles steering action requests to tool calls.
func (o *Orchestrator) SetAutoDoMode(ctx context.Context, enabled bool) {
	if o.action("Saving settings", "Failed to save settings", func() error {
		return o.settings.SetAutoDoMode(ctx, enabled)
	}) {
		o.toasts.Success(onOff("Auto-do mode", enabled), "")
	}
}

// SetAutostart toggles launch at login.
func (o *Orchestrator) SetAutostart(ctx context.Context, enabled bool) {
	if o.action("Updating autostart", "Failed to update autostart", func() error {
		return o.settings.SetAutostart(ctx, enabled)
	}) {
		o.toasts.Success(onOff("Autostart", enabled), "")
	}
}

// RefreshModels reads the agent's model status.
func (o *Orchestrator) RefreshModels(ctx context.Context) {
	o.action("Reading models", "Failed to read models", func() error {
		return o.settings.RefreshModels(ctx)
	})
}

// SetDefaultModel selects the agent's default model.
func (o *Orchestrator) SetDefaultModel(ctx context.Context, model string) {
	if strings.TrimSpace(model) == "" {
		return
	}
	if o.action("Setting model", "Failed to set model", func() error {
		return o.settings.SetDefaultModel(ctx, model)
	}) {
		o.toasts.Success("Default model set", strings.TrimSpace(model))
	}
}

// HandlePush reacts to a tray notification through the same path as the
// matching user action.
func (o *Orchestrator) HandlePush(ctx context.Context, kind daemon.PushKind) {
	slog.Info("push received", "kind", kind)
	switch kind {
	case daemon.PushNewChat:
		o.NewChat(ctx)
	case daemon.PushRestartGateway:
		o.Gateway(ctx, gateway.ActionRestart)
	default:
		slog.Warn("unknown push kind", "kind", kind)
	}
}

func onOff(what string, on bool) string {
	if on {
		return what + " enabled"
	}
	return what + " disabled"
}

func firstLine(candidates ...string) string {
	for _, s := range candidates {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if i := strings.IndexByte(s, '\n'); i >= 0 {
			return s[:i]
		}
		return s
	}
	return ""
}
