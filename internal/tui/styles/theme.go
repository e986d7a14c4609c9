package styles

import (
	"github.com/allbin/vcpmon/lifecycle"
	"github.com/charmbracelet/lipgloss"
)

// Catppuccin Mocha colors used by the renderers
var (
	Base     = lipgloss.Color("#1e1e2e")
	Surface0 = lipgloss.Color("#313244")
	Surface1 = lipgloss.Color("#45475a")
	Surface2 = lipgloss.Color("#585b70")
	Subtext0 = lipgloss.Color("#a6adc8")
	Subtext1 = lipgloss.Color("#bac2de")
	Text     = lipgloss.Color("#cdd6f4")

	Blue   = lipgloss.Color("#89b4fa")
	Sky    = lipgloss.Color("#89dceb")
	Green  = lipgloss.Color("#a6e3a1")
	Yellow = lipgloss.Color("#f9e2af")
	Peach  = lipgloss.Color("#fab387")
	Red    = lipgloss.Color("#f38ba8")
	Mauve  = lipgloss.Color("#cba6f7")
)

var (
	// Content area styles
	ContentBorderStyle = lipgloss.NewStyle().
				BorderTop(true).
				BorderStyle(lipgloss.NormalBorder()).
				BorderForeground(Surface1)

	TimestampStyle = lipgloss.NewStyle().
			Foreground(Subtext0)

	HexStyle = lipgloss.NewStyle().
			Foreground(Sky)

	// Table styles
	TableHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(Mauve)

	DriverStyle = lipgloss.NewStyle().
			Foreground(Green)

	// Status bar styles
	StatusBarStyle = lipgloss.NewStyle().
			Foreground(Text).
			Background(Surface0)

	PortStyle = lipgloss.NewStyle().
			Foreground(Mauve).
			Bold(true).
			Padding(0, 1)

	DetailStyle = lipgloss.NewStyle().
			Foreground(Subtext0).
			Padding(0, 1)

	ClockStyle = lipgloss.NewStyle().
			Foreground(Subtext1).
			Padding(0, 1)

	DividerStyle = lipgloss.NewStyle().
			Foreground(Surface2).
			Padding(0, 1)

	DropsStyle = lipgloss.NewStyle().
			Foreground(Peach).
			Bold(true).
			Padding(0, 1)

	HelpStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Surface2).
			Padding(1, 2).
			Margin(1, 0)
)

var stateBadge = lipgloss.NewStyle().
	Foreground(Base).
	Bold(true).
	Padding(0, 1)

// StateStyle returns the status bar badge for a lifecycle state
func StateStyle(s lifecycle.State) lipgloss.Style {
	switch s {
	case lifecycle.StateActive:
		return stateBadge.Background(Green)
	case lifecycle.StateOpening, lifecycle.StateConfiguring:
		return stateBadge.Background(Yellow)
	case lifecycle.StateDisconnecting:
		return stateBadge.Background(Red)
	default:
		return stateBadge.Background(Blue)
	}
}
