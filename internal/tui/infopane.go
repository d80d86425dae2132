package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/tessro/ocd/internal/app"
	"github.com/tessro/ocd/internal/gateway"
	"github.com/tessro/ocd/internal/settings"
)

// Pane selects what the right-hand side of the screen shows.
type Pane int

const (
	PaneThread Pane = iota
	PaneGateway
	PaneSettings
)

// InfoPane renders the gateway and settings panels in a scrollable viewport.
type InfoPane struct {
	width    int
	height   int
	focused  bool
	pane     Pane
	viewport viewport.Model
	ready    bool

	inputView   string
	inputHeight int
	showInput   bool

	gateway   gateway.View
	settings  settings.View
	secretKey string
}

// NewInfoPane creates a new info pane.
func NewInfoPane() InfoPane {
	return InfoPane{pane: PaneGateway}
}

// SetSize updates the component dimensions.
func (p *InfoPane) SetSize(width, height int) {
	p.width = width
	p.height = height
	p.resize()
	p.updateContent()
}

func (p *InfoPane) resize() {
	w := max(p.width-2, 1)
	h := p.height - 3
	if p.showInput {
		h -= p.inputHeight
	}
	h = max(h, 1)
	if !p.ready {
		p.viewport = viewport.New(w, h)
		p.ready = true
		return
	}
	p.viewport.Width = w
	p.viewport.Height = h
}

// SetFocused sets the focus state.
func (p *InfoPane) SetFocused(focused bool) {
	p.focused = focused
}

// SetPane selects the gateway or settings panel.
func (p *InfoPane) SetPane(pane Pane) {
	if p.pane != pane {
		p.pane = pane
		p.updateContent()
		p.viewport.GotoTop()
	}
}

// SetInputView docks the prompt composer at the bottom of the pane.
func (p *InfoPane) SetInputView(view string, height int, show bool) {
	changed := p.showInput != show || p.inputHeight != height
	p.inputView = view
	p.inputHeight = height
	p.showInput = show
	if changed {
		p.resize()
	}
}

// Sync copies the panel state from a snapshot.
func (p *InfoPane) Sync(v app.View) {
	p.gateway = v.Gateway
	p.settings = v.Settings
	p.secretKey = v.SecretKey
	p.updateContent()
}

// ScrollUp scrolls the viewport up.
func (p *InfoPane) ScrollUp(n int) { p.viewport.LineUp(n) }

// ScrollDown scrolls the viewport down.
func (p *InfoPane) ScrollDown(n int) { p.viewport.LineDown(n) }

// PageUp scrolls up by one page.
func (p *InfoPane) PageUp() { p.viewport.ViewUp() }

// PageDown scrolls down by one page.
func (p *InfoPane) PageDown() { p.viewport.ViewDown() }

// ScrollToBottom scrolls to the bottom.
func (p *InfoPane) ScrollToBottom() { p.viewport.GotoBottom() }

func (p *InfoPane) updateContent() {
	if !p.ready {
		return
	}
	switch p.pane {
	case PaneSettings:
		p.viewport.SetContent(p.renderSettings())
	default:
		p.viewport.SetContent(p.renderGateway())
	}
}

func (p *InfoPane) wrap(s string) string {
	return wordwrap.String(s, max(p.viewport.Width-2, 10))
}

func field(label, value string) string {
	return labelStyle.Render(fmt.Sprintf("%-16s", label)) + valueStyle.Render(value)
}

func (p *InfoPane) renderGateway() string {
	var b strings.Builder
	b.WriteString(sectionTitleStyle.Render("Status") + "\n")
	st := p.gateway.Status
	switch {
	case st == nil:
		b.WriteString(labelStyle.Render("not checked yet (s to check)") + "\n")
	default:
		state := stoppedStyle.Render(fmt.Sprintf("exit %d", st.ExitCode))
		if p.gateway.Running() {
			state = runningStyle.Render("ok")
		}
		b.WriteString(labelStyle.Render(fmt.Sprintf("%-16s", "last call")) + state + "\n")
		if out := strings.TrimSpace(st.Stdout); out != "" {
			b.WriteString(p.wrap(out) + "\n")
		}
		if errOut := strings.TrimSpace(st.Stderr); errOut != "" {
			b.WriteString(stoppedStyle.Render(p.wrap(errOut)) + "\n")
		}
	}

	logs := p.gateway.Logs
	b.WriteString("\n" + sectionTitleStyle.Render("gateway.log") + "\n")
	if logs == nil {
		b.WriteString(labelStyle.Render("not loaded (l to refresh)") + "\n")
		return b.String()
	}
	b.WriteString(orNone(logs.Out) + "\n")
	b.WriteString("\n" + sectionTitleStyle.Render("gateway.err.log") + "\n")
	b.WriteString(orNone(logs.Err) + "\n")
	return b.String()
}

func (p *InfoPane) renderSettings() string {
	var b strings.Builder
	b.WriteString(sectionTitleStyle.Render("Profile settings") + "\n")
	if s := p.settings.Settings; s == nil {
		b.WriteString(labelStyle.Render("not loaded") + "\n")
	} else {
		b.WriteString(field("openclaw path", orText(settings.Value(s.OpenclawPath), "(from config or $PATH)")) + "\n")
		b.WriteString(field("ollama url", settings.Value(s.OllamaBaseURL)) + "\n")
		b.WriteString(field("ollama model", settings.Value(s.OllamaModel)) + "\n")
		b.WriteString(field("full exec auto", onOffText(s.DevFullExecAuto != nil && *s.DevFullExecAuto)) + "\n")
		b.WriteString(field("auto-do mode", onOffText(s.AutoDoMode != nil && *s.AutoDoMode)) + "\n")
	}

	b.WriteString("\n" + sectionTitleStyle.Render("App") + "\n")
	b.WriteString(field("autostart", onOffText(p.settings.Autostart)) + "\n")
	b.WriteString(field("secret key", p.secretKey) + "\n")

	b.WriteString("\n" + sectionTitleStyle.Render("Agent models") + "\n")
	if m := p.settings.Models; m == nil {
		b.WriteString(labelStyle.Render("not loaded (M to refresh)") + "\n")
	} else {
		if m.ExitCode != 0 {
			b.WriteString(stoppedStyle.Render(fmt.Sprintf("exit %d", m.ExitCode)) + "\n")
		}
		b.WriteString(p.wrap(orNone(strings.TrimSpace(m.Stdout+"\n"+m.Stderr))) + "\n")
	}
	return b.String()
}

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return labelStyle.Render("(empty)")
	}
	return s
}

func orText(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func onOffText(on bool) string {
	if on {
		return "on"
	}
	return "off"
}

// View renders the pane.
func (p InfoPane) View() string {
	borderStyle := paneBorderStyle
	headerStyle := paneHeaderStyle
	if p.focused {
		borderStyle = paneFocusedBorderStyle
		headerStyle = paneHeaderFocusedStyle
	}

	title, detail := "Gateway", "s status • u start • o stop • R restart • l logs"
	if p.pane == PaneSettings {
		title, detail = "Settings", "c b m x a M S • K v ^k secret"
	}
	header := headerStyle.Width(p.width - 2).Render(lipgloss.JoinHorizontal(lipgloss.Center,
		paneHeaderTitleStyle.Render(title), "  ", paneHeaderDetailStyle.Render(detail)))

	parts := []string{header, p.viewport.View()}
	if p.showInput {
		parts = append(parts, p.inputView)
	}
	inner := lipgloss.JoinVertical(lipgloss.Left, parts...)
	return borderStyle.Width(p.width - 2).Height(p.height - 2).Render(inner)
}
