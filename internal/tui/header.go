package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/tessro/ocd/internal/app"
)

// connectionState represents the push stream status.
type connectionState int

const (
	connectionConnected connectionState = iota
	connectionDisconnected
	connectionReconnecting
)

// Header displays branding, the active profile, the busy reason and the
// gateway state.
type Header struct {
	width int

	profile      string
	profileIndex int
	profileCount int

	busy    string
	spinner string

	gateway string

	connState connectionState
}

// NewHeader creates a new header component.
func NewHeader() Header {
	return Header{connState: connectionConnected}
}

// SetWidth updates the header width.
func (h *Header) SetWidth(width int) {
	h.width = width
}

// SetConnectionState updates the connection state display.
func (h *Header) SetConnectionState(state connectionState) {
	h.connState = state
}

// SetSpinner sets the current spinner frame shown next to the busy reason.
func (h *Header) SetSpinner(frame string) {
	h.spinner = frame
}

// Sync copies what the header shows from a state snapshot.
func (h *Header) Sync(v app.View) {
	h.profile, h.profileIndex = "", 0
	h.profileCount = len(v.Profiles.Profiles)
	for i, p := range v.Profiles.Profiles {
		if p.ID == v.Profiles.ActiveProfileID {
			h.profile = p.Name
			h.profileIndex = i + 1
		}
	}

	h.busy = ""
	if v.Busy.Held {
		h.busy = v.Busy.Reason
		if h.busy == "" {
			h.busy = "Working"
		}
	}

	switch {
	case v.Gateway.Status == nil:
		h.gateway = ""
	case v.Gateway.Running():
		h.gateway = "gateway ●"
	default:
		h.gateway = "gateway ○"
	}
}

// View renders the header.
func (h Header) View() string {
	brand := headerBrandStyle.Render("🦞 ocd")

	var connStatus string
	switch h.connState {
	case connectionDisconnected:
		connStatus = headerConnDisconnectedStyle.Render(" ● disconnected")
	case connectionReconnecting:
		connStatus = headerConnReconnectingStyle.Render(" ◌ reconnecting...")
	}

	var parts []string
	if h.busy != "" {
		parts = append(parts, strings.TrimSpace(h.spinner+" "+h.busy+"..."))
	}
	if h.gateway != "" {
		parts = append(parts, h.gateway)
	}
	if h.profile != "" {
		parts = append(parts, fmt.Sprintf("%s (%d/%d)", h.profile, h.profileIndex, h.profileCount))
	}

	var stats string
	if len(parts) > 0 {
		stats = headerStatsStyle.Render(strings.Join(parts, "  •  "))
	}

	spacerWidth := h.width - lipgloss.Width(brand) - lipgloss.Width(connStatus) - lipgloss.Width(stats)
	if spacerWidth < 0 {
		spacerWidth = 0
	}
	spacer := lipgloss.NewStyle().Width(spacerWidth).Render("")

	content := lipgloss.JoinHorizontal(lipgloss.Top, brand, connStatus, spacer, stats)
	return headerContainerStyle.Width(h.width).Render(content)
}
