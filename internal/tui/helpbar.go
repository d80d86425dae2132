package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
)

// HelpBar displays context-sensitive keyboard shortcuts at the bottom of the TUI.
type HelpBar struct {
	width int
	keys  KeyBindings
	state ModeState

	// editable is true when the open dialog has a text field.
	editable bool
}

// NewHelpBar creates a new help bar component.
func NewHelpBar() HelpBar {
	return HelpBar{
		keys: DefaultKeyBindings(),
	}
}

// SetWidth updates the help bar width.
func (h *HelpBar) SetWidth(width int) {
	h.width = width
}

// SetModeState updates the context used to pick shortcuts.
func (h *HelpBar) SetModeState(state ModeState, editableDialog bool) {
	h.state = state
	h.editable = editableDialog
}

// View renders the help bar with context-sensitive keyboard shortcuts.
func (h HelpBar) View() string {
	var bindings []key.Binding
	prefix := ""

	switch h.state.Mode {
	case ModeModal:
		if h.editable {
			bindings = []key.Binding{h.keys.Submit, h.keys.Cancel}
		} else {
			bindings = []key.Binding{h.keys.Confirm, h.keys.Deny}
		}
	case ModePrompt:
		prefix = h.state.Prompt.Label() + " "
		bindings = []key.Binding{h.keys.Submit, h.keys.Cancel}
	case ModeInput:
		bindings = []key.Binding{h.keys.Submit, h.keys.Cancel}
	default:
		switch {
		case h.state.Pane == PaneGateway:
			bindings = []key.Binding{h.keys.GatewayStatus, h.keys.GatewayStart, h.keys.GatewayStop,
				h.keys.GatewayRestart, h.keys.RefreshLogs, h.keys.Gateway, h.keys.Quit}
		case h.state.Pane == PaneSettings:
			bindings = []key.Binding{h.keys.EditOpenclawPath, h.keys.EditModel, h.keys.ToggleDevExec, h.keys.ToggleAutoDo,
				h.keys.ToggleAutostart, h.keys.SecretSet, h.keys.Settings, h.keys.Quit}
		case h.state.Focus == FocusChatList:
			bindings = []key.Binding{h.keys.Down, h.keys.NewChat, h.keys.RenameChat, h.keys.DeleteChat,
				h.keys.NextProfile, h.keys.Gateway, h.keys.Settings, h.keys.Quit}
		default:
			bindings = []key.Binding{h.keys.Compose, h.keys.Down, h.keys.PageUp, h.keys.ResetThread,
				h.keys.CycleThinking, h.keys.Tab, h.keys.Quit}
		}
	}

	return statusStyle.Width(h.width).Render(prefix + formatHelp(bindings))
}

// formatHelp formats a list of key bindings as help text.
func formatHelp(bindings []key.Binding) string {
	var parts []string
	for _, b := range bindings {
		help := b.Help()
		parts = append(parts, help.Key+": "+help.Desc)
	}
	return strings.Join(parts, "  ")
}
