package components

import (
	"fmt"
	"strings"

	"github.com/allbin/vcpmon/internal/tui/styles"
	"github.com/allbin/vcpmon/lifecycle"
	"github.com/charmbracelet/lipgloss"
)

// StatusInfo is what the status bar shows about the core
type StatusInfo struct {
	State      lifecycle.State
	Port       string // empty while no device is open
	Driver     string
	LineCoding string
	Received   uint64
	Dropped    uint64
}

type StatusBar struct {
	info  StatusInfo
	width int
}

func NewStatusBar() *StatusBar {
	return &StatusBar{}
}

func (sb *StatusBar) SetWidth(width int) {
	sb.width = width
}

func (sb *StatusBar) SetInfo(info StatusInfo) {
	sb.info = info
}

func (sb *StatusBar) SetState(state lifecycle.State) {
	sb.info.State = state
	if state == lifecycle.StateIdle {
		sb.info.Port = ""
		sb.info.Driver = ""
	}
}

func (sb *StatusBar) Info() StatusInfo {
	return sb.info
}

// View renders the single line status bar: state badge, port and driver on
// the left, line coding, counters and clock on the right
func (sb *StatusBar) View(timestamp string) string {
	width := sb.width
	if width <= 0 {
		width = 80
	}

	badge := styles.StateStyle(sb.info.State).Render(strings.ToUpper(sb.info.State.String()))

	port := sb.info.Port
	if port == "" {
		port = "waiting for adapter"
	}
	portView := styles.PortStyle.Render(port)

	divider := styles.DividerStyle.Render("│")

	var left string
	if sb.info.Driver != "" {
		left = lipgloss.JoinHorizontal(lipgloss.Left, badge, portView, styles.DetailStyle.Render(sb.info.Driver), divider)
	} else {
		left = lipgloss.JoinHorizontal(lipgloss.Left, badge, portView, divider)
	}

	details := styles.DetailStyle.Render(fmt.Sprintf("%s  rx %d", sb.info.LineCoding, sb.info.Received))
	right := lipgloss.JoinHorizontal(lipgloss.Left, details, divider, styles.ClockStyle.Render(timestamp))
	if sb.info.Dropped > 0 {
		drops := styles.DropsStyle.Render(fmt.Sprintf("dropped %d", sb.info.Dropped))
		right = lipgloss.JoinHorizontal(lipgloss.Left, drops, right)
	}

	spacerWidth := width - lipgloss.Width(left) - lipgloss.Width(right)
	if spacerWidth < 1 {
		spacerWidth = 1
	}
	spacer := lipgloss.NewStyle().Width(spacerWidth).Render("")

	content := lipgloss.JoinHorizontal(lipgloss.Left, left, spacer, right)
	return styles.StatusBarStyle.Width(width).Render(content)
}
