package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"

	"github.com/tessro/ocd/internal/daemon"
)

// ChatView displays the active chat's thread with the composer docked below.
type ChatView struct {
	width    int
	height   int
	focused  bool
	chat     *daemon.Chat
	messages []daemon.ChatMessage
	loaded   bool
	sending  string
	viewport viewport.Model
	ready    bool

	inputView   string
	inputHeight int
	showInput   bool
}

// NewChatView creates a new chat view component.
func NewChatView() ChatView {
	return ChatView{}
}

// SetSize updates the component dimensions.
func (v *ChatView) SetSize(width, height int) {
	v.width = width
	v.height = height
	v.resizeViewport()
	v.updateContent()
}

// contentSize is the viewport area inside the border, header and composer.
func (v *ChatView) contentSize() (int, int) {
	w := v.width - 2
	h := v.height - 3 // border + header
	if v.showInput {
		h -= v.inputHeight
	}
	return max(w, 1), max(h, 1)
}

func (v *ChatView) resizeViewport() {
	w, h := v.contentSize()
	if !v.ready {
		v.viewport = viewport.New(w, h)
		v.ready = true
		return
	}
	v.viewport.Width = w
	v.viewport.Height = h
}

// SetFocused sets the focus state.
func (v *ChatView) SetFocused(focused bool) {
	v.focused = focused
}

// IsFocused returns whether the view is focused.
func (v *ChatView) IsFocused() bool {
	return v.focused
}

// SetInputView docks the rendered composer at the bottom of the pane.
func (v *ChatView) SetInputView(view string, height int, show bool) {
	changed := v.showInput != show || v.inputHeight != height
	v.inputView = view
	v.inputHeight = height
	v.showInput = show
	if changed {
		v.resizeViewport()
	}
}

// SetThread replaces the shown chat and messages. A nil thread means the
// thread has not loaded yet. The view stays pinned to the bottom when it
// was already there or the chat changed.
func (v *ChatView) SetThread(c *daemon.Chat, thread *daemon.ChatThread) {
	switched := chatID(v.chat) != chatID(c)
	before := len(v.messages)

	v.chat = c
	v.loaded = thread != nil
	v.messages = nil
	if thread != nil {
		v.messages = thread.Messages
	}

	atBottom := v.viewport.AtBottom()
	v.updateContent()
	if switched || atBottom || len(v.messages) != before {
		v.viewport.GotoBottom()
	}
}

// SetSending shows a pending indicator below the thread. An empty frame hides it.
func (v *ChatView) SetSending(frame string) {
	if v.sending == frame {
		return
	}
	v.sending = frame
	v.updateContent()
	if frame != "" {
		v.viewport.GotoBottom()
	}
}

// ChatID returns the shown chat's id.
func (v *ChatView) ChatID() string {
	return chatID(v.chat)
}

func chatID(c *daemon.Chat) string {
	if c == nil {
		return ""
	}
	return c.ID
}

// ScrollUp scrolls the viewport up.
func (v *ChatView) ScrollUp(n int) {
	v.viewport.LineUp(n)
}

// ScrollDown scrolls the viewport down.
func (v *ChatView) ScrollDown(n int) {
	v.viewport.LineDown(n)
}

// ScrollToTop scrolls to the top.
func (v *ChatView) ScrollToTop() {
	v.viewport.GotoTop()
}

// ScrollToBottom scrolls to the bottom.
func (v *ChatView) ScrollToBottom() {
	v.viewport.GotoBottom()
}

// PageUp scrolls up by one page.
func (v *ChatView) PageUp() {
	v.viewport.ViewUp()
}

// PageDown scrolls down by one page.
func (v *ChatView) PageDown() {
	v.viewport.ViewDown()
}

// updateContent refreshes the viewport content from messages.
func (v *ChatView) updateContent() {
	if !v.ready {
		return
	}
	var blocks []string
	for _, m := range v.messages {
		blocks = append(blocks, v.renderMessage(m))
	}
	if v.sending != "" {
		blocks = append(blocks, chatPendingStyle.Render(v.sending+" waiting for reply..."))
	}
	v.viewport.SetContent(strings.Join(blocks, "\n\n"))
}

// renderMessage renders one message, wrapping the body under its label.
func (v *ChatView) renderMessage(m daemon.ChatMessage) string {
	var label string
	style := chatAssistantStyle
	switch {
	case m.IsError():
		label, style = "Error", chatErrorStyle
	case m.Role == daemon.RoleUser:
		label, style = "You", chatUserStyle
	case m.Role == daemon.RoleTool:
		label, style = "Tool", chatToolStyle
	default:
		label = "Agent"
	}

	text := strings.TrimSpace(m.Text)
	if m.IsError() {
		text = strings.TrimSpace(strings.TrimPrefix(text, daemon.ErrorMarker))
	}

	width := v.viewport.Width - 2
	if width < 10 {
		width = 10
	}
	body := indent.String(wordwrap.String(text, width), 2)
	if m.IsError() {
		body = chatErrorStyle.Render(body)
	}

	stamp := chatAgeStyle.Render(m.CreatedAt.Local().Format("15:04"))
	return style.Bold(true).Render(label) + " " + stamp + "\n" + body
}

// View renders the chat view.
func (v ChatView) View() string {
	borderStyle := paneBorderStyle
	headerStyle := paneHeaderStyle
	if v.focused {
		borderStyle = paneFocusedBorderStyle
		headerStyle = paneHeaderFocusedStyle
	}

	if v.chat == nil {
		empty := paneEmptyStyle.Width(v.width - 2).Height(v.height - 2).Render("Select or create a chat")
		return borderStyle.Width(v.width - 2).Height(v.height - 2).Render(empty)
	}

	detail := fmt.Sprintf("thinking %s", orDash(string(v.chat.Thinking)))
	if v.chat.Worker != "" {
		detail += " • " + v.chat.Worker
	}
	headerText := lipgloss.JoinHorizontal(lipgloss.Center,
		paneHeaderTitleStyle.Render(v.chat.Title),
		"  ",
		paneHeaderDetailStyle.Render(detail),
	)
	header := headerStyle.Width(v.width - 2).Render(headerText)

	_, contentHeight := v.contentSize()
	var content string
	switch {
	case !v.loaded:
		content = paneEmptyStyle.Width(v.width - 2).Height(contentHeight).Render("Loading thread...")
	case len(v.messages) == 0 && v.sending == "":
		content = paneEmptyStyle.Width(v.width - 2).Height(contentHeight).Render("No messages yet")
	default:
		content = v.viewport.View()
	}

	parts := []string{header, content}
	if v.showInput {
		parts = append(parts, v.inputView)
	}
	inner := lipgloss.JoinVertical(lipgloss.Left, parts...)
	return borderStyle.Width(v.width - 2).Height(v.height - 2).Render(inner)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
