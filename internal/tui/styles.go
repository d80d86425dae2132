package tui

import "github.com/charmbracelet/lipgloss"

var (
	// Colors
	primaryColor   = lipgloss.Color("#E4572E") // Claw orange
	secondaryColor = lipgloss.Color("#10B981") // Green
	mutedColor     = lipgloss.Color("#6B7280") // Gray
	errorColor     = lipgloss.Color("#EF4444") // Red
	warningColor   = lipgloss.Color("#F59E0B") // Amber
	infoColor      = lipgloss.Color("#3B82F6") // Blue

	// Header styles
	headerContainerStyle = lipgloss.NewStyle().
				Background(primaryColor)

	headerBrandStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("#FFFFFF")).
				Background(primaryColor).
				Padding(0, 1)

	headerStatsStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#FFF3E8")).
				Background(primaryColor).
				Padding(0, 1)

	headerConnDisconnectedStyle = lipgloss.NewStyle().
					Foreground(lipgloss.Color("#FFFFFF")).
					Background(primaryColor).
					Bold(true)

	headerConnReconnectingStyle = lipgloss.NewStyle().
					Foreground(warningColor).
					Background(primaryColor)

	// Banner shown when profiles could not be loaded
	bannerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(errorColor).
			Padding(0, 1)

	// Status bar style
	statusStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Padding(0, 1)

	// Chat list styles
	chatListContainerStyle = lipgloss.NewStyle()

	chatListEmptyStyle = lipgloss.NewStyle().
				Foreground(mutedColor).
				Padding(1, 2)

	chatRowStyle = lipgloss.NewStyle().
			Padding(0, 1)

	chatRowSelectedStyle = lipgloss.NewStyle().
				Background(lipgloss.Color("#3B3B3B")).
				Padding(0, 1)

	chatRowActiveMarkerStyle = lipgloss.NewStyle().
					Foreground(primaryColor).
					Bold(true)

	chatTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Bold(true)

	chatAgeStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	// Pane header styles
	paneHeaderStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#2D2D2D")).
			Padding(0, 1)

	paneHeaderFocusedStyle = lipgloss.NewStyle().
				Background(primaryColor).
				Padding(0, 1)

	paneHeaderTitleStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#FFFFFF")).
				Bold(true)

	paneHeaderDetailStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#A0A0A0"))

	paneEmptyStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Padding(1, 2)

	paneBorderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(mutedColor)

	paneFocusedBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(primaryColor)

	// Input line styles (inline, docked in the chat pane)
	inputLineStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#2D2D2D")).
			Padding(0, 1)

	inputLineFocusedStyle = lipgloss.NewStyle().
				Background(lipgloss.Color("#3B3B3B")).
				Padding(0, 1)

	// Thread styles
	chatAssistantStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12")) // blue
	chatUserStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("10")) // green
	chatToolStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))  // gray
	chatErrorStyle     = lipgloss.NewStyle().Foreground(errorColor)
	chatPendingStyle   = lipgloss.NewStyle().Foreground(mutedColor).Italic(true)

	// Gateway and settings panes
	sectionTitleStyle = lipgloss.NewStyle().
				Foreground(primaryColor).
				Bold(true)

	labelStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF"))

	runningStyle = lipgloss.NewStyle().Foreground(secondaryColor)
	stoppedStyle = lipgloss.NewStyle().Foreground(errorColor)

	// Modal dialog styles
	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(primaryColor).
			Padding(1, 2)

	modalTitleStyle = lipgloss.NewStyle().
			Foreground(primaryColor).
			Bold(true)

	modalHintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A0A0A0"))

	modalDangerStyle = lipgloss.NewStyle().
				Foreground(errorColor).
				Bold(true)

	// Toast styles
	toastInfoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(infoColor).
			Padding(0, 1)

	toastSuccessStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#FFFFFF")).
				Background(secondaryColor).
				Padding(0, 1)

	toastErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(errorColor).
			Padding(0, 1)
)
