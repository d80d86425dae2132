package tui

import "errors"

// Mode represents the current interaction mode of the TUI.
// Only one mode can be active at a time.
type Mode int

const (
	// ModeNormal is the default mode for navigating the TUI.
	ModeNormal Mode = iota
	// ModeInput means the user is typing in the composer.
	ModeInput
	// ModePrompt means the composer is collecting a one-off value such as a
	// new profile name.
	ModePrompt
	// ModeModal means a dialog is open. The orchestrator owns the dialog;
	// this mode only mirrors it.
	ModeModal
)

// String returns the string representation of a Mode.
func (m Mode) String() string {
	switch m {
	case ModeNormal:
		return "normal"
	case ModeInput:
		return "input"
	case ModePrompt:
		return "prompt"
	case ModeModal:
		return "modal"
	default:
		return "unknown"
	}
}

// Prompt identifies what a ModePrompt value is for.
type Prompt int

const (
	PromptNone Prompt = iota
	PromptNewProfile
	PromptOpenclawPath
	PromptOllamaBaseURL
	PromptOllamaModel
	PromptDefaultModel
)

// Label is the prompt text shown in the composer.
func (p Prompt) Label() string {
	switch p {
	case PromptNewProfile:
		return "New profile name"
	case PromptOpenclawPath:
		return "OpenClaw binary path (blank for default)"
	case PromptOllamaBaseURL:
		return "Ollama base URL (blank for default)"
	case PromptOllamaModel:
		return "Ollama model (blank for default)"
	case PromptDefaultModel:
		return "Default agent model"
	default:
		return ""
	}
}

// ModeState centralizes mode and focus state for the TUI.
type ModeState struct {
	// Mode is the current interaction mode.
	Mode Mode

	// Focus indicates which panel is focused in normal mode.
	Focus Focus

	// Pane is what the right-hand pane shows.
	Pane Pane

	// Prompt is the value being collected (only valid when Mode == ModePrompt).
	Prompt Prompt
}

// NewModeState creates a new ModeState with default values.
func NewModeState() ModeState {
	return ModeState{
		Mode:  ModeNormal,
		Focus: FocusChatList,
		Pane:  PaneThread,
	}
}

// Validation errors for mode state transitions.
var (
	ErrInvalidModeTransition = errors.New("invalid mode transition")
	ErrMissingPrompt         = errors.New("prompt mode requires a prompt")
	ErrAlreadyInMode         = errors.New("already in this mode")
)

// SetFocus changes the focus panel. Only valid in normal mode.
func (s *ModeState) SetFocus(focus Focus) error {
	if s.Mode != ModeNormal {
		return ErrInvalidModeTransition
	}
	s.Focus = focus
	return nil
}

// CycleFocus advances focus to the next panel.
// ChatList -> ChatView -> InputLine -> ChatList. The composer is skipped
// when another pane is shown.
func (s *ModeState) CycleFocus() (Focus, error) {
	if s.Mode != ModeNormal {
		return s.Focus, ErrInvalidModeTransition
	}

	switch s.Focus {
	case FocusChatList:
		s.Focus = FocusChatView
	case FocusChatView:
		if s.Pane == PaneThread {
			s.Focus = FocusInputLine
		} else {
			s.Focus = FocusChatList
		}
	case FocusInputLine:
		s.Focus = FocusChatList
	}
	return s.Focus, nil
}

// ShowPane switches the right-hand pane. Showing the current pane again
// returns to the thread.
func (s *ModeState) ShowPane(p Pane) error {
	if s.Mode != ModeNormal {
		return ErrInvalidModeTransition
	}
	if s.Pane == p {
		p = PaneThread
	}
	s.Pane = p
	if p != PaneThread && s.Focus == FocusInputLine {
		s.Focus = FocusChatView
	}
	return nil
}

// EnterInputMode transitions to input mode.
func (s *ModeState) EnterInputMode() error {
	if s.Mode == ModeInput {
		return ErrAlreadyInMode
	}
	if s.Mode != ModeNormal {
		return ErrInvalidModeTransition
	}
	s.Mode = ModeInput
	s.Pane = PaneThread
	s.Focus = FocusInputLine
	return nil
}

// ExitInputMode returns from input mode to normal mode.
func (s *ModeState) ExitInputMode() error {
	if s.Mode != ModeInput {
		return ErrInvalidModeTransition
	}
	s.Mode = ModeNormal
	s.Focus = FocusChatView
	return nil
}

// EnterPrompt starts collecting a value in the composer.
func (s *ModeState) EnterPrompt(p Prompt) error {
	if p == PromptNone {
		return ErrMissingPrompt
	}
	if s.Mode == ModePrompt {
		return ErrAlreadyInMode
	}
	if s.Mode != ModeNormal {
		return ErrInvalidModeTransition
	}
	s.Mode = ModePrompt
	s.Prompt = p
	s.Focus = FocusInputLine
	return nil
}

// ExitPrompt ends the prompt and returns which one was active.
func (s *ModeState) ExitPrompt() (Prompt, error) {
	if s.Mode != ModePrompt {
		return PromptNone, ErrInvalidModeTransition
	}
	p := s.Prompt
	s.Mode = ModeNormal
	s.Prompt = PromptNone
	s.Focus = FocusChatView
	return p, nil
}

// SyncModal follows the orchestrator's dialog. An opening dialog takes over
// from any other mode; a closing one returns to normal mode.
func (s *ModeState) SyncModal(open bool) {
	switch {
	case open && s.Mode != ModeModal:
		s.Mode = ModeModal
		s.Prompt = PromptNone
		if s.Focus == FocusInputLine {
			s.Focus = FocusChatView
		}
	case !open && s.Mode == ModeModal:
		s.Mode = ModeNormal
	}
}

// IsNormal returns true if in normal mode.
func (s *ModeState) IsNormal() bool {
	return s.Mode == ModeNormal
}

// IsInputting returns true if in input mode.
func (s *ModeState) IsInputting() bool {
	return s.Mode == ModeInput
}

// IsPrompting returns true if in prompt mode.
func (s *ModeState) IsPrompting() bool {
	return s.Mode == ModePrompt
}

// IsModal returns true if a dialog is open.
func (s *ModeState) IsModal() bool {
	return s.Mode == ModeModal
}

// Validate checks that the mode state is internally consistent.
func (s *ModeState) Validate() error {
	switch s.Mode {
	case ModePrompt:
		if s.Prompt == PromptNone {
			return ErrMissingPrompt
		}
	default:
		if s.Prompt != PromptNone {
			return errors.New("prompt should be empty outside prompt mode")
		}
	}
	if s.Focus == FocusInputLine && s.Pane != PaneThread && s.Mode != ModePrompt {
		return errors.New("composer focused while hidden")
	}
	return nil
}
