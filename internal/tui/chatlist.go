package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/tessro/ocd/internal/daemon"
)

// ChatList displays a navigable list of the active profile's chats.
type ChatList struct {
	width    int
	height   int
	chats    []daemon.Chat
	selected int
	activeID string
	focused  bool
	now      func() time.Time
}

// NewChatList creates a new chat list component.
func NewChatList() ChatList {
	return ChatList{now: time.Now}
}

// SetSize updates the component dimensions.
func (l *ChatList) SetSize(width, height int) {
	l.width = width
	l.height = height
}

// SetFocused sets the focus state.
func (l *ChatList) SetFocused(focused bool) {
	l.focused = focused
}

// SetChats updates the list and moves the cursor onto the active chat.
func (l *ChatList) SetChats(chats []daemon.Chat, activeID string) {
	l.chats = chats
	l.activeID = activeID
	for i, c := range chats {
		if c.ID == activeID {
			l.selected = i
			return
		}
	}
	if l.selected >= len(chats) && len(chats) > 0 {
		l.selected = len(chats) - 1
	}
	if len(chats) == 0 {
		l.selected = 0
	}
}

// Chats returns the current chat list.
func (l *ChatList) Chats() []daemon.Chat {
	return l.chats
}

// Selected returns the chat under the cursor, or nil if none.
func (l *ChatList) Selected() *daemon.Chat {
	if len(l.chats) == 0 || l.selected < 0 || l.selected >= len(l.chats) {
		return nil
	}
	return &l.chats[l.selected]
}

// MoveUp moves selection up one item. It reports whether the cursor moved.
func (l *ChatList) MoveUp() bool {
	if l.selected > 0 {
		l.selected--
		return true
	}
	return false
}

// MoveDown moves selection down one item. It reports whether the cursor moved.
func (l *ChatList) MoveDown() bool {
	if l.selected < len(l.chats)-1 {
		l.selected++
		return true
	}
	return false
}

// MoveToTop moves selection to the first item.
func (l *ChatList) MoveToTop() bool {
	moved := l.selected != 0
	l.selected = 0
	return moved && len(l.chats) > 0
}

// MoveToBottom moves selection to the last item.
func (l *ChatList) MoveToBottom() bool {
	if len(l.chats) == 0 {
		return false
	}
	moved := l.selected != len(l.chats)-1
	l.selected = len(l.chats) - 1
	return moved
}

// View renders the chat list.
func (l ChatList) View() string {
	if len(l.chats) == 0 {
		return chatListEmptyStyle.Width(l.width).Height(l.height).Render("No chats yet\nPress n to start one")
	}

	// Keep the cursor visible when the list is taller than the pane.
	start := 0
	if l.height > 0 && l.selected >= l.height {
		start = l.selected - l.height + 1
	}
	end := len(l.chats)
	if l.height > 0 && end-start > l.height {
		end = start + l.height
	}

	var rows []string
	for i := start; i < end; i++ {
		rows = append(rows, l.renderChat(i, l.chats[i]))
	}
	return chatListContainerStyle.Width(l.width).Height(l.height).Render(strings.Join(rows, "\n"))
}

func (l ChatList) renderChat(index int, c daemon.Chat) string {
	marker := " "
	if c.ID == l.activeID {
		marker = chatRowActiveMarkerStyle.Render("▍")
	}

	age := chatAgeStyle.Render(formatAge(l.now().Sub(c.UpdatedAt)))

	titleWidth := l.width - lipgloss.Width(age) - 6
	if titleWidth < 4 {
		titleWidth = 4
	}
	title := chatTitleStyle.Render(truncate(c.Title, titleWidth))

	left := marker + " " + title
	spacerWidth := l.width - lipgloss.Width(left) - lipgloss.Width(age) - 2
	if spacerWidth < 1 {
		spacerWidth = 1
	}
	row := left + strings.Repeat(" ", spacerWidth) + age

	if index == l.selected && l.focused {
		return chatRowSelectedStyle.Width(l.width).Render(row)
	}
	return chatRowStyle.Width(l.width).Render(row)
}

// truncate shortens s to at most n runes.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}

// formatAge formats a duration in a human-friendly way.
func formatAge(d time.Duration) string {
	switch {
	case d < time.Minute:
		return "now"
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	}
}
