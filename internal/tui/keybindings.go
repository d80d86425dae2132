package tui

import "github.com/charmbracelet/bubbles/key"

// KeyBindings defines all keyboard shortcuts for the TUI.
type KeyBindings struct {
	// Global keys
	Quit         key.Binding
	Tab          key.Binding
	Compose      key.Binding
	Gateway      key.Binding
	Settings     key.Binding
	DismissToast key.Binding

	// Navigation keys
	Up       key.Binding
	Down     key.Binding
	Top      key.Binding
	Bottom   key.Binding
	PageUp   key.Binding
	PageDown key.Binding

	// Profile keys
	NextProfile   key.Binding
	NewProfile    key.Binding
	RenameProfile key.Binding
	DeleteProfile key.Binding

	// Chat keys
	NewChat       key.Binding
	RenameChat    key.Binding
	DeleteChat    key.Binding
	ResetThread   key.Binding
	RefreshThread key.Binding
	CycleThinking key.Binding

	// Gateway pane keys
	GatewayStatus  key.Binding
	GatewayStart   key.Binding
	GatewayStop    key.Binding
	GatewayRestart key.Binding
	RefreshLogs    key.Binding

	// Settings pane keys
	EditOpenclawPath key.Binding
	EditBaseURL      key.Binding
	EditModel        key.Binding
	ToggleDevExec    key.Binding
	ToggleAutoDo     key.Binding
	ToggleAutostart  key.Binding
	RefreshModels    key.Binding
	SetDefaultModel  key.Binding
	SecretSet        key.Binding
	SecretShow       key.Binding
	SecretDelete     key.Binding

	// Dialog and input keys
	Confirm key.Binding
	Deny    key.Binding
	Submit  key.Binding
	Cancel  key.Binding
}

// DefaultKeyBindings returns the default key bindings.
func DefaultKeyBindings() KeyBindings {
	return KeyBindings{
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Tab: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "switch pane"),
		),
		Compose: key.NewBinding(
			key.WithKeys("i", "enter"),
			key.WithHelp("i", "compose"),
		),
		Gateway: key.NewBinding(
			key.WithKeys("g"),
			key.WithHelp("g", "gateway"),
		),
		Settings: key.NewBinding(
			key.WithKeys(","),
			key.WithHelp(",", "settings"),
		),
		DismissToast: key.NewBinding(
			key.WithKeys("z"),
			key.WithHelp("z", "dismiss"),
		),

		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j", "down"),
		),
		Top: key.NewBinding(
			key.WithKeys("home"),
			key.WithHelp("home", "top"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "bottom"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("ctrl+u", "pgup"),
			key.WithHelp("pgup", "page up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("ctrl+d", "pgdown"),
			key.WithHelp("pgdn", "page down"),
		),

		NextProfile: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "next profile"),
		),
		NewProfile: key.NewBinding(
			key.WithKeys("P"),
			key.WithHelp("P", "new profile"),
		),
		RenameProfile: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "rename profile"),
		),
		DeleteProfile: key.NewBinding(
			key.WithKeys("D"),
			key.WithHelp("D", "delete profile"),
		),

		NewChat: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "new chat"),
		),
		RenameChat: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "rename"),
		),
		DeleteChat: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete"),
		),
		ResetThread: key.NewBinding(
			key.WithKeys("X"),
			key.WithHelp("X", "reset"),
		),
		RefreshThread: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("^r", "refresh"),
		),
		CycleThinking: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "thinking"),
		),

		GatewayStatus: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "status"),
		),
		GatewayStart: key.NewBinding(
			key.WithKeys("u"),
			key.WithHelp("u", "start"),
		),
		GatewayStop: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "stop"),
		),
		GatewayRestart: key.NewBinding(
			key.WithKeys("R"),
			key.WithHelp("R", "restart"),
		),
		RefreshLogs: key.NewBinding(
			key.WithKeys("l"),
			key.WithHelp("l", "logs"),
		),

		EditOpenclawPath: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "openclaw path"),
		),
		EditBaseURL: key.NewBinding(
			key.WithKeys("b"),
			key.WithHelp("b", "ollama url"),
		),
		EditModel: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "ollama model"),
		),
		ToggleDevExec: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "full exec"),
		),
		ToggleAutoDo: key.NewBinding(
			key.WithKeys("A"),
			key.WithHelp("A", "auto-do"),
		),
		ToggleAutostart: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "autostart"),
		),
		RefreshModels: key.NewBinding(
			key.WithKeys("M"),
			key.WithHelp("M", "models"),
		),
		SetDefaultModel: key.NewBinding(
			key.WithKeys("S"),
			key.WithHelp("S", "default model"),
		),
		SecretSet: key.NewBinding(
			key.WithKeys("K"),
			key.WithHelp("K", "set secret"),
		),
		SecretShow: key.NewBinding(
			key.WithKeys("v"),
			key.WithHelp("v", "show secret"),
		),
		SecretDelete: key.NewBinding(
			key.WithKeys("ctrl+k"),
			key.WithHelp("^k", "delete secret"),
		),

		Confirm: key.NewBinding(
			key.WithKeys("y", "enter"),
			key.WithHelp("y", "confirm"),
		),
		Deny: key.NewBinding(
			key.WithKeys("n", "esc"),
			key.WithHelp("n", "cancel"),
		),
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "send"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel"),
		),
	}
}
