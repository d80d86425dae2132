package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tessro/ocd/internal/app"
	"github.com/tessro/ocd/internal/modal"
)

// Dialog renders the orchestrator's open modal. Editable variants get a
// text field whose edits are pushed back with UpdateModalField.
type Dialog struct {
	width   int
	current modal.Modal
	input   textinput.Model

	// names resolve ids in dialog text.
	profileName func(id string) string
	chatTitle   func(id string) string
	secretKey   string
}

// NewDialog creates a dialog component.
func NewDialog() Dialog {
	ti := textinput.New()
	ti.CharLimit = 256
	ti.Prompt = "› "
	return Dialog{
		input:       ti,
		profileName: func(id string) string { return id },
		chatTitle:   func(id string) string { return id },
	}
}

// SetWidth updates the available width.
func (d *Dialog) SetWidth(width int) {
	d.width = width
	d.input.Width = max(min(width-16, 60), 10)
}

// Sync follows the open modal. The text field is re-seeded only when a
// different dialog opens, so typing is never overwritten by an echo.
func (d *Dialog) Sync(v app.View) {
	d.secretKey = v.SecretKey
	d.profileName = func(id string) string {
		if p, ok := v.Profiles.Find(id); ok {
			return p.Name
		}
		return id
	}
	d.chatTitle = func(id string) string {
		for _, c := range v.Chat.Chats {
			if c.ID == id {
				return c.Title
			}
		}
		return id
	}

	next := v.Modal
	if sameDialog(d.current, next) {
		d.current = next
		return
	}
	d.current = next
	if e, ok := next.(modal.Editable); ok {
		d.input.SetValue(e.FieldValue())
		d.input.CursorEnd()
		d.input.EchoMode = textinput.EchoNormal
		if _, secret := next.(modal.SecretSet); secret {
			d.input.EchoMode = textinput.EchoPassword
		}
		d.input.Focus()
	} else {
		d.input.Blur()
	}
}

// sameDialog reports whether a and b are the same open dialog, ignoring
// the text field.
func sameDialog(a, b modal.Modal) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Kind() != b.Kind() {
		return false
	}
	switch a := a.(type) {
	case modal.RenameProfile:
		return a.ProfileID == b.(modal.RenameProfile).ProfileID
	case modal.RenameChat:
		return a.ChatID == b.(modal.RenameChat).ChatID
	case modal.DeleteProfile:
		return a.ProfileID == b.(modal.DeleteProfile).ProfileID
	case modal.DeleteChat:
		return a.ChatID == b.(modal.DeleteChat).ChatID
	}
	return true
}

// Editable reports whether the open dialog has a text field.
func (d *Dialog) Editable() bool {
	_, ok := d.current.(modal.Editable)
	return ok
}

// Open reports whether a dialog is shown.
func (d *Dialog) Open() bool {
	return d.current != nil
}

// Update forwards a key to the text field and returns the new value.
func (d *Dialog) Update(msg tea.Msg) (string, tea.Cmd) {
	var cmd tea.Cmd
	d.input, cmd = d.input.Update(msg)
	return d.input.Value(), cmd
}

// Value returns the text field's content.
func (d *Dialog) Value() string {
	return d.input.Value()
}

// View renders the dialog box.
func (d Dialog) View() string {
	if d.current == nil {
		return ""
	}
	var title, body, hint string
	confirmHint := modalHintStyle.Render("enter save • esc cancel")
	dangerHint := modalHintStyle.Render("y delete • n cancel")

	switch m := d.current.(type) {
	case modal.RenameProfile:
		title, body, hint = "Rename profile", d.input.View(), confirmHint
	case modal.RenameChat:
		title, body, hint = "Rename chat", d.input.View(), confirmHint
	case modal.SecretSet:
		title = "Set secret"
		body = labelStyle.Render(d.secretKey) + "\n" + d.input.View()
		hint = confirmHint
	case modal.SecretShow:
		title = "Secret " + d.secretKey
		if m.Value == nil {
			body = labelStyle.Render("(not set)")
		} else {
			body = valueStyle.Render(*m.Value)
		}
		hint = modalHintStyle.Render("esc close")
	case modal.DeleteProfile:
		title = "Delete profile"
		body = "Delete " + modalDangerStyle.Render(d.profileName(m.ProfileID)) + " and all of its chats?"
		hint = dangerHint
	case modal.DeleteChat:
		title = "Delete chat"
		body = "Delete " + modalDangerStyle.Render(d.chatTitle(m.ChatID)) + "?"
		hint = dangerHint
	case modal.SecretDelete:
		title = "Delete secret"
		body = "Delete " + modalDangerStyle.Render(d.secretKey) + " for this profile?"
		hint = dangerHint
	}

	content := strings.Join([]string{modalTitleStyle.Render(title), "", body, "", hint}, "\n")
	return modalStyle.Width(max(min(d.width-8, 72), 20)).Render(content)
}

// overlay centers box over a background of the given size.
func overlay(box string, width, height int) string {
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box,
		lipgloss.WithWhitespaceChars(" "))
}
