// Package tui provides the Bubbletea-based terminal front end for ocd.
//
// The model owns no application state. It renders app.Orchestrator
// snapshots and turns keys into orchestrator intents, which run as
// tea.Cmds so boundary calls never block rendering.
package tui

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tessro/ocd/internal/app"
	"github.com/tessro/ocd/internal/daemon"
)

// Focus indicates which panel is currently focused.
type Focus int

const (
	FocusChatList Focus = iota
	FocusChatView
	FocusInputLine
)

// Options configures the TUI.
type Options struct {
	// Streamer delivers tray push events. Nil disables them.
	Streamer daemon.EventStreamer

	// Reconnect re-establishes the request connection before the push
	// stream is reopened. Nil skips it.
	Reconnect func() error
}

// Model is the main Bubbletea model for the ocd TUI.
type Model struct {
	// Window dimensions
	width  int
	height int

	ready bool

	ctx  context.Context
	app  *app.Orchestrator
	view app.View

	// changes is signalled by the orchestrator on any state change.
	changes     <-chan struct{}
	unsubscribe func()

	// Push stream
	streamer       daemon.EventStreamer
	reconnect      func() error
	eventChan      <-chan daemon.EventResult
	connState      connectionState
	reconnectDelay time.Duration
	reconnectCount int
	maxReconnects  int

	modeState ModeState

	// savedDraft holds the composer text while a prompt borrows it.
	savedDraft string

	// Components
	header    Header
	chatList  ChatList
	chatView  ChatView
	infoPane  InfoPane
	inputLine InputLine
	dialog    Dialog
	toasts    ToastStack
	helpBar   HelpBar
	spinner   spinner.Model

	keys KeyBindings
}

// New creates a TUI model over o. Call Close when the program exits.
func New(ctx context.Context, o *app.Orchestrator, opts Options) Model {
	changes := make(chan struct{}, 1)
	unsubscribe := o.Subscribe(func() {
		select {
		case changes <- struct{}{}:
		default:
		}
	})

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	chatList := NewChatList()
	chatList.SetFocused(true)

	return Model{
		ctx:            ctx,
		app:            o,
		changes:        changes,
		unsubscribe:    unsubscribe,
		streamer:       opts.Streamer,
		reconnect:      opts.Reconnect,
		connState:      connectionConnected,
		reconnectDelay: 500 * time.Millisecond,
		maxReconnects:  10,
		modeState:      NewModeState(),
		header:         NewHeader(),
		chatList:       chatList,
		chatView:       NewChatView(),
		infoPane:       NewInfoPane(),
		inputLine:      NewInputLine(),
		dialog:         NewDialog(),
		helpBar:        NewHelpBar(),
		spinner:        sp,
		keys:           DefaultKeyBindings(),
	}
}

// Close detaches the model from the orchestrator.
func (m Model) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
	if m.streamer != nil {
		m.streamer.StopEventStream()
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	slog.Debug("tui.Init: starting", "push", m.streamer != nil)
	cmds := []tea.Cmd{
		m.inputLine.input.Cursor.BlinkCmd(),
		m.spinner.Tick,
		m.waitForChange(),
		m.intent("init", m.app.Init),
	}
	if m.streamer != nil {
		cmds = append(cmds, attachToStreamCmd(m.streamer))
	}
	return tea.Batch(cmds...)
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	sections := []string{m.header.View()}
	if m.view.Banner != "" {
		sections = append(sections, bannerStyle.Width(m.width).Render(m.view.Banner))
	}

	var body string
	if m.dialog.Open() {
		body = overlay(m.dialog.View(), m.width, m.contentHeight())
	} else {
		body = lipgloss.JoinHorizontal(lipgloss.Top, m.chatList.View(), m.rightPane())
	}
	sections = append(sections, body)

	if toasts := m.toasts.View(); toasts != "" {
		sections = append(sections, toasts)
	}

	m.helpBar.SetModeState(m.modeState, m.dialog.Editable())
	sections = append(sections, m.helpBar.View())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// rightPane renders the thread or an info pane. The composer is docked
// into both by dockInput.
func (m Model) rightPane() string {
	if m.modeState.Pane == PaneThread {
		return m.chatView.View()
	}
	return m.infoPane.View()
}

// Run starts the TUI and blocks until it exits.
func Run(ctx context.Context, o *app.Orchestrator, opts Options) error {
	m := New(ctx, o, opts)
	defer m.Close()

	slog.Debug("tui.Run: running program")
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	slog.Debug("tui.Run: program exited", "error", err)
	if err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}
