package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/tessro/ocd/internal/toast"
)

// maxShownToasts caps how many notifications take up screen rows.
const maxShownToasts = 3

// ToastStack renders the newest notifications above the help bar.
type ToastStack struct {
	width  int
	toasts []toast.Toast
}

// SetWidth updates the stack width.
func (s *ToastStack) SetWidth(width int) {
	s.width = width
}

// SetToasts replaces the shown notifications. The queue lists newest first.
func (s *ToastStack) SetToasts(ts []toast.Toast) {
	s.toasts = ts
}

// Newest returns the id of the most recent toast.
func (s *ToastStack) Newest() (string, bool) {
	if len(s.toasts) == 0 {
		return "", false
	}
	return s.toasts[0].ID, true
}

// Height is the number of rows the stack occupies.
func (s ToastStack) Height() int {
	return min(len(s.toasts), maxShownToasts)
}

// View renders the stack, newest at the bottom.
func (s ToastStack) View() string {
	n := s.Height()
	if n == 0 {
		return ""
	}
	rows := make([]string, 0, n)
	for i := n - 1; i >= 0; i-- {
		rows = append(rows, s.renderToast(s.toasts[i]))
	}
	return strings.Join(rows, "\n")
}

func (s ToastStack) renderToast(t toast.Toast) string {
	style := toastInfoStyle
	icon := "ℹ"
	switch t.Kind {
	case toast.KindSuccess:
		style, icon = toastSuccessStyle, "✓"
	case toast.KindError:
		style, icon = toastErrorStyle, "✗"
	}
	text := icon + " " + t.Title
	if t.Message != "" {
		text += ": " + strings.ReplaceAll(t.Message, "\n", " ")
	}
	text = truncate(text, max(s.width-2, 8))
	line := style.Render(text)
	return lipgloss.PlaceHorizontal(s.width, lipgloss.Right, line)
}
