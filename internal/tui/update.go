package tui

import (
	"context"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tessro/ocd/internal/daemon"
	"github.com/tessro/ocd/internal/gateway"
	"github.com/tessro/ocd/internal/modal"
	"github.com/tessro/ocd/internal/settings"
)

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.updateLayout()

	case stateChangedMsg:
		m.sync()
		cmds = append(cmds, m.waitForChange())

	case intentDoneMsg:
		m.sync()
		if msg.Name == "send" {
			m.restoreUnsentDraft()
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		m.syncBusy()
		cmds = append(cmds, cmd)

	case streamStartMsg:
		m.eventChan = msg.EventChan
		m.connState = connectionConnected
		m.header.SetConnectionState(m.connState)
		cmds = append(cmds, m.waitForEvent())

	case streamEventMsg:
		if msg.Err != nil {
			slog.Warn("push stream error", "error", msg.Err)
			return m.beginReconnect()
		}
		if msg.Event != nil {
			kind := msg.Event.Kind
			cmds = append(cmds, m.intent("push-"+string(kind), func(ctx context.Context) {
				m.app.HandlePush(ctx, kind)
			}))
		}
		cmds = append(cmds, m.waitForEvent())

	case reconnectMsg:
		if !msg.Success {
			slog.Debug("reconnect failed", "attempt", m.reconnectCount, "error", msg.Err)
			if m.reconnectCount >= m.maxReconnects {
				m.connState = connectionDisconnected
				m.header.SetConnectionState(m.connState)
				return m, nil
			}
			m.reconnectCount++
			return m, m.attemptReconnect()
		}
		m.eventChan = msg.EventChan
		m.reconnectCount = 0
		m.connState = connectionConnected
		m.header.SetConnectionState(m.connState)
		cmds = append(cmds, m.waitForEvent(), m.intent("init", m.app.Init))

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, tea.Batch(cmds...)
}

// beginReconnect marks the push stream as down and schedules a retry.
func (m Model) beginReconnect() (tea.Model, tea.Cmd) {
	m.eventChan = nil
	if m.streamer == nil {
		return m, nil
	}
	m.connState = connectionReconnecting
	m.header.SetConnectionState(m.connState)
	m.reconnectCount = 1
	return m, m.attemptReconnect()
}

// sync copies the orchestrator snapshot into every component.
func (m *Model) sync() {
	v := m.app.View()
	m.view = v

	m.header.Sync(v)
	m.chatList.SetChats(v.Chat.Chats, v.Chat.ActiveChatID)
	if c, ok := v.Chat.ActiveChat(); ok {
		m.chatView.SetThread(&c, v.Chat.Thread)
	} else {
		m.chatView.SetThread(nil, nil)
	}
	m.infoPane.Sync(v)
	m.dialog.Sync(v)
	m.toasts.SetToasts(v.Toasts)

	wasModal := m.modeState.IsModal()
	m.modeState.SyncModal(v.Modal != nil)
	if wasModal != m.modeState.IsModal() {
		m.applyFocus()
	}

	m.syncBusy()
	m.updateLayout()
}

// restoreUnsentDraft puts a draft the orchestrator did not send back into an
// empty composer. A send can lose the busy lock race after Enter cleared it.
func (m *Model) restoreUnsentDraft() {
	draft := m.view.Chat.Draft
	if draft == "" || m.inputLine.Value() != "" {
		return
	}
	m.inputLine.SetValue(draft)
	m.updateLayout()
}

// syncBusy shows the spinner in the header and under the thread while sending.
func (m *Model) syncBusy() {
	frame := m.spinner.View()
	m.header.SetSpinner(frame)
	if m.view.Busy.Held && m.view.Busy.Reason == "Sending" {
		m.chatView.SetSending(frame)
	} else {
		m.chatView.SetSending("")
	}
}

// applyFocus pushes the mode state's focus onto the components.
func (m *Model) applyFocus() {
	m.chatList.SetFocused(m.modeState.Focus == FocusChatList)
	m.chatView.SetFocused(m.modeState.Focus == FocusChatView)
	m.infoPane.SetFocused(m.modeState.Focus == FocusChatView)
	m.inputLine.SetFocused(m.modeState.Focus == FocusInputLine && !m.modeState.IsModal())
	if m.modeState.Pane != PaneThread {
		m.infoPane.SetPane(m.modeState.Pane)
	}
	m.dockInput()
}

// dockInput attaches the rendered composer to whichever pane shows it.
func (m *Model) dockInput() {
	view := m.inputLine.View()
	height := m.inputLine.ContentHeight()
	m.chatView.SetInputView(view, height, true)
	m.infoPane.SetInputView(view, height, m.modeState.IsPrompting())
}

// updateLayout recalculates component sizes.
func (m *Model) updateLayout() {
	if !m.ready {
		return
	}
	m.header.SetWidth(m.width)
	m.helpBar.SetWidth(m.width)
	m.toasts.SetWidth(m.width)
	m.dialog.SetWidth(m.width)

	listWidth := m.width * 30 / 100
	rightWidth := m.width - listWidth
	height := m.contentHeight()

	m.chatList.SetSize(listWidth, height)
	m.inputLine.SetSize(rightWidth-2, 1)
	m.dockInput()
	m.chatView.SetSize(rightWidth, height)
	m.infoPane.SetSize(rightWidth, height)
}

// contentHeight is what remains for the panes after the fixed rows.
func (m Model) contentHeight() int {
	h := m.height - lipgloss.Height(m.header.View()) - 1 // help bar
	if m.view.Banner != "" {
		h -= lipgloss.Height(bannerStyle.Width(m.width).Render(m.view.Banner))
	}
	h -= m.toasts.Height()
	return max(h, 3)
}

// handleKey routes a key press by mode.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}
	switch m.modeState.Mode {
	case ModeModal:
		return m.handleModalKey(msg)
	case ModeInput:
		return m.handleInputKey(msg)
	case ModePrompt:
		return m.handlePromptKey(msg)
	default:
		return m.handleNormalKey(msg)
	}
}

func (m Model) handleModalKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if _, ok := m.view.Modal.(modal.SecretShow); ok {
		switch msg.Type {
		case tea.KeyEnter, tea.KeyEsc:
			m.app.CancelModal()
		}
		return m, nil
	}

	if m.dialog.Editable() {
		switch msg.Type {
		case tea.KeyEnter:
			return m, m.intent("confirm-modal", m.app.ConfirmModal)
		case tea.KeyEsc:
			m.app.CancelModal()
			return m, nil
		}
		value, cmd := m.dialog.Update(msg)
		m.app.UpdateModalField(value)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Confirm):
		return m, m.intent("confirm-modal", m.app.ConfirmModal)
	case key.Matches(msg, m.keys.Deny):
		m.app.CancelModal()
	}
	return m, nil
}

func (m Model) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		if err := m.modeState.ExitInputMode(); err != nil {
			slog.Debug("exit input mode", "error", err)
		}
		m.applyFocus()
		return m, nil

	case tea.KeyEnter:
		if msg.Alt {
			m.inputLine.InsertNewline()
			m.app.SetDraft(m.inputLine.Value())
			m.updateLayout()
			return m, nil
		}
		text := m.inputLine.Value()
		if strings.TrimSpace(text) == "" {
			return m, nil
		}
		if m.app.Busy() {
			// Keep the draft; the busy lock would drop the send.
			return m, nil
		}
		m.inputLine.AddToHistory(text)
		m.inputLine.Clear()
		m.updateLayout()
		return m, m.intent("send", func(ctx context.Context) {
			m.app.SetDraft(text)
			m.app.Send(ctx)
		})

	case tea.KeyUp:
		if m.inputLine.HistoryUp() {
			m.app.SetDraft(m.inputLine.Value())
			m.updateLayout()
			return m, nil
		}
	case tea.KeyDown:
		if m.inputLine.HistoryDown() {
			m.app.SetDraft(m.inputLine.Value())
			m.updateLayout()
			return m, nil
		}
	}

	m.inputLine.ResetHistoryNavigation()
	cmd := m.inputLine.Update(msg)
	m.app.SetDraft(m.inputLine.Value())
	m.dockInput()
	return m, cmd
}

func (m Model) handlePromptKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.endPrompt()
		return m, nil
	case tea.KeyEnter:
		value := m.inputLine.Value()
		prompt := m.endPrompt()
		return m, m.promptAction(prompt, value)
	}
	cmd := m.inputLine.Update(msg)
	m.dockInput()
	return m, cmd
}

// startPrompt borrows the composer to collect a value.
func (m *Model) startPrompt(p Prompt, initial string) {
	if err := m.modeState.EnterPrompt(p); err != nil {
		slog.Debug("enter prompt", "error", err)
		return
	}
	m.savedDraft = m.inputLine.Value()
	m.inputLine.SetPlaceholder(p.Label())
	m.inputLine.SetValue(initial)
	m.applyFocus()
	m.updateLayout()
}

// endPrompt returns the composer and reports which prompt was active.
func (m *Model) endPrompt() Prompt {
	p, err := m.modeState.ExitPrompt()
	if err != nil {
		slog.Debug("exit prompt", "error", err)
	}
	m.inputLine.SetValue(m.savedDraft)
	m.inputLine.ResetPlaceholder()
	m.savedDraft = ""
	m.applyFocus()
	m.updateLayout()
	return p
}

// promptAction runs the intent a submitted prompt stands for.
func (m Model) promptAction(p Prompt, value string) tea.Cmd {
	s := m.view.Settings.Settings
	var baseURL, model string
	if s != nil {
		baseURL, model = settings.Value(s.OllamaBaseURL), settings.Value(s.OllamaModel)
	}

	switch p {
	case PromptNewProfile:
		return m.intent("create-profile", func(ctx context.Context) { m.app.CreateProfile(ctx, value) })
	case PromptOpenclawPath:
		return m.intent("save-openclaw-path", func(ctx context.Context) { m.app.SaveOpenclawPath(ctx, value) })
	case PromptOllamaBaseURL:
		return m.intent("save-ollama", func(ctx context.Context) { m.app.SaveOllama(ctx, value, model) })
	case PromptOllamaModel:
		return m.intent("save-ollama", func(ctx context.Context) { m.app.SaveOllama(ctx, baseURL, value) })
	case PromptDefaultModel:
		return m.intent("set-default-model", func(ctx context.Context) { m.app.SetDefaultModel(ctx, value) })
	}
	return nil
}

func (m Model) handleNormalKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	v := m.view

	// Global keys
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Tab):
		if _, err := m.modeState.CycleFocus(); err == nil {
			m.applyFocus()
		}
		return m, nil
	case key.Matches(msg, m.keys.Gateway):
		return m.showPane(PaneGateway)
	case key.Matches(msg, m.keys.Settings):
		return m.showPane(PaneSettings)
	case key.Matches(msg, m.keys.DismissToast):
		if id, ok := m.toasts.Newest(); ok {
			m.app.DismissToast(id)
		}
		return m, nil
	case key.Matches(msg, m.keys.NextProfile):
		if next, ok := nextProfile(v.Profiles); ok {
			return m, m.intent("select-profile", func(ctx context.Context) { m.app.SelectProfile(ctx, next) })
		}
		return m, nil
	case key.Matches(msg, m.keys.NewProfile):
		m.startPrompt(PromptNewProfile, "")
		return m, nil
	case key.Matches(msg, m.keys.RenameProfile):
		if id := v.Profiles.ActiveProfileID; id != "" {
			m.app.OpenRenameProfile(id)
		}
		return m, nil
	case key.Matches(msg, m.keys.DeleteProfile):
		if id := v.Profiles.ActiveProfileID; id != "" && v.CanDeleteProfile {
			m.app.OpenDeleteProfile(id)
		}
		return m, nil
	case key.Matches(msg, m.keys.SecretSet):
		m.app.OpenSecretSet()
		return m, nil
	case key.Matches(msg, m.keys.SecretShow):
		return m, m.intent("secret-show", m.app.OpenSecretShow)
	case key.Matches(msg, m.keys.SecretDelete):
		m.app.OpenSecretDelete()
		return m, nil
	}

	switch m.modeState.Pane {
	case PaneGateway:
		if cmd, ok := m.gatewayKey(msg); ok {
			return m, cmd
		}
	case PaneSettings:
		if cmd, ok := m.settingsKey(msg); ok {
			return m, cmd
		}
	}

	if m.modeState.Focus == FocusChatList {
		return m.chatListKey(msg)
	}
	return m.contentKey(msg)
}

// showPane toggles an info pane and loads what it needs.
func (m Model) showPane(p Pane) (tea.Model, tea.Cmd) {
	if err := m.modeState.ShowPane(p); err != nil {
		return m, nil
	}
	m.applyFocus()
	m.updateLayout()
	switch m.modeState.Pane {
	case PaneGateway:
		if m.view.Gateway.Status == nil {
			return m, m.intent("gateway-status", func(ctx context.Context) { m.app.Gateway(ctx, gateway.ActionStatus) })
		}
		return m, m.intent("gateway-logs", m.app.RefreshGatewayLogs)
	case PaneSettings:
		if m.view.Settings.Models == nil {
			return m, m.intent("refresh-models", m.app.RefreshModels)
		}
	}
	return m, nil
}

func (m Model) gatewayKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	action := func(a gateway.Action) tea.Cmd {
		return m.intent("gateway-"+string(a), func(ctx context.Context) { m.app.Gateway(ctx, a) })
	}
	switch {
	case key.Matches(msg, m.keys.GatewayStatus):
		return action(gateway.ActionStatus), true
	case key.Matches(msg, m.keys.GatewayStart):
		return action(gateway.ActionStart), true
	case key.Matches(msg, m.keys.GatewayStop):
		return action(gateway.ActionStop), true
	case key.Matches(msg, m.keys.GatewayRestart):
		return action(gateway.ActionRestart), true
	case key.Matches(msg, m.keys.RefreshLogs):
		return m.intent("gateway-logs", m.app.RefreshGatewayLogs), true
	}
	return nil, false
}

func (m *Model) settingsKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	sv := m.view.Settings
	var s daemon.ProfileSettings
	if sv.Settings != nil {
		s = *sv.Settings
	}
	switch {
	case key.Matches(msg, m.keys.EditOpenclawPath):
		m.startPrompt(PromptOpenclawPath, settings.Value(s.OpenclawPath))
		return nil, true
	case key.Matches(msg, m.keys.EditBaseURL):
		m.startPrompt(PromptOllamaBaseURL, settings.Value(s.OllamaBaseURL))
		return nil, true
	case key.Matches(msg, m.keys.EditModel):
		m.startPrompt(PromptOllamaModel, settings.Value(s.OllamaModel))
		return nil, true
	case key.Matches(msg, m.keys.SetDefaultModel):
		m.startPrompt(PromptDefaultModel, "")
		return nil, true
	case key.Matches(msg, m.keys.ToggleDevExec):
		enabled := s.DevFullExecAuto == nil || !*s.DevFullExecAuto
		return m.intent("dev-exec", func(ctx context.Context) { m.app.SetDevFullExecAuto(ctx, enabled) }), true
	case key.Matches(msg, m.keys.ToggleAutoDo):
		enabled := s.AutoDoMode == nil || !*s.AutoDoMode
		return m.intent("auto-do", func(ctx context.Context) { m.app.SetAutoDoMode(ctx, enabled) }), true
	case key.Matches(msg, m.keys.ToggleAutostart):
		enabled := !sv.Autostart
		return m.intent("autostart", func(ctx context.Context) { m.app.SetAutostart(ctx, enabled) }), true
	case key.Matches(msg, m.keys.RefreshModels):
		return m.intent("refresh-models", m.app.RefreshModels), true
	}
	return nil, false
}

// chatListKey handles keys while the chat list has focus. Moving the cursor
// selects the chat under it.
func (m Model) chatListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	moved := false
	switch {
	case key.Matches(msg, m.keys.Up):
		moved = m.chatList.MoveUp()
	case key.Matches(msg, m.keys.Down):
		moved = m.chatList.MoveDown()
	case key.Matches(msg, m.keys.Top):
		moved = m.chatList.MoveToTop()
	case key.Matches(msg, m.keys.Bottom):
		moved = m.chatList.MoveToBottom()
	default:
		return m.chatKey(msg)
	}
	if moved {
		if c := m.chatList.Selected(); c != nil {
			id := c.ID
			return m, m.intent("select-chat", func(ctx context.Context) { m.app.SelectChat(ctx, id) })
		}
	}
	return m, nil
}

// contentKey handles keys while the right-hand pane has focus.
func (m Model) contentKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	thread := m.modeState.Pane == PaneThread
	switch {
	case key.Matches(msg, m.keys.Up):
		if thread {
			m.chatView.ScrollUp(1)
		} else {
			m.infoPane.ScrollUp(1)
		}
	case key.Matches(msg, m.keys.Down):
		if thread {
			m.chatView.ScrollDown(1)
		} else {
			m.infoPane.ScrollDown(1)
		}
	case key.Matches(msg, m.keys.PageUp):
		if thread {
			m.chatView.PageUp()
		} else {
			m.infoPane.PageUp()
		}
	case key.Matches(msg, m.keys.PageDown):
		if thread {
			m.chatView.PageDown()
		} else {
			m.infoPane.PageDown()
		}
	case key.Matches(msg, m.keys.Top):
		if thread {
			m.chatView.ScrollToTop()
		}
	case key.Matches(msg, m.keys.Bottom):
		if thread {
			m.chatView.ScrollToBottom()
		} else {
			m.infoPane.ScrollToBottom()
		}
	default:
		return m.chatKey(msg)
	}
	return m, nil
}

// chatKey handles chat actions shared by the list and the thread.
func (m Model) chatKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	active, hasActive := m.view.Chat.ActiveChat()

	switch {
	case key.Matches(msg, m.keys.Compose):
		if !hasActive {
			return m, nil
		}
		if err := m.modeState.EnterInputMode(); err != nil {
			return m, nil
		}
		m.applyFocus()
		m.updateLayout()
		return m, nil
	case key.Matches(msg, m.keys.NewChat):
		return m, m.intent("new-chat", m.app.NewChat)
	case key.Matches(msg, m.keys.RefreshThread):
		return m, m.intent("refresh-thread", m.app.RefreshThread)
	}

	if !hasActive {
		return m, nil
	}
	switch {
	case key.Matches(msg, m.keys.RenameChat):
		m.app.OpenRenameChat(active.ID)
	case key.Matches(msg, m.keys.DeleteChat):
		m.app.OpenDeleteChat(active.ID)
	case key.Matches(msg, m.keys.ResetThread):
		return m, m.intent("reset-thread", m.app.ResetThread)
	case key.Matches(msg, m.keys.CycleThinking):
		next := nextThinking(active.Thinking)
		id := active.ID
		return m, m.intent("thinking", func(ctx context.Context) {
			m.app.UpdateChatSettings(ctx, id, daemon.ChatSettingsUpdate{Thinking: &next})
		})
	}
	return m, nil
}

// nextProfile returns the profile after the active one, wrapping around.
func nextProfile(s daemon.ProfilesStore) (string, bool) {
	if len(s.Profiles) < 2 {
		return "", false
	}
	for i, p := range s.Profiles {
		if p.ID == s.ActiveProfileID {
			return s.Profiles[(i+1)%len(s.Profiles)].ID, true
		}
	}
	return s.Profiles[0].ID, true
}

// nextThinking cycles through the thinking levels. Unset counts as off.
func nextThinking(t daemon.ThinkingLevel) daemon.ThinkingLevel {
	levels := daemon.ThinkingLevels
	for i, l := range levels {
		if l == t {
			return levels[(i+1)%len(levels)]
		}
	}
	return levels[1]
}
