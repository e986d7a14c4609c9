package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

// DefaultRetention is how many lines the log view keeps
const DefaultRetention = 50

// LogView is a scrolling view of the most recent received lines. Older lines
// are discarded once the retention limit is reached.
type LogView struct {
	viewport  viewport.Model
	formatter *LineFormatter
	retention int
	lines     []Line
}

func NewLogView(width, height, retention int, formatter *LineFormatter) *LogView {
	if retention < 1 {
		retention = DefaultRetention
	}
	return &LogView{
		viewport:  viewport.New(width, height),
		formatter: formatter,
		retention: retention,
		lines:     make([]Line, 0, retention),
	}
}

func (v *LogView) SetSize(width, height int) {
	v.viewport.Width = width
	v.viewport.Height = height
}

func (v *LogView) AddLine(line Line) {
	if len(v.lines) == v.retention {
		copy(v.lines, v.lines[1:])
		v.lines = v.lines[:len(v.lines)-1]
	}
	v.lines = append(v.lines, line)
	v.refresh()
}

// Lines returns the retained lines, oldest first
func (v *LogView) Lines() []Line {
	out := make([]Line, len(v.lines))
	copy(out, v.lines)
	return out
}

func (v *LogView) Clear() {
	v.lines = v.lines[:0]
	v.viewport.SetContent("")
}

func (v *LogView) ToggleHex() {
	v.formatter.ToggleHex()
	v.refresh()
}

func (v *LogView) ToggleTimestamps() {
	v.formatter.ToggleTimestamps()
	v.refresh()
}

// refresh re-renders every retained line and follows the newest one
func (v *LogView) refresh() {
	v.viewport.SetContent(strings.Join(v.formatter.FormatAll(v.lines), "\n"))
	v.viewport.GotoBottom()
}

func (v *LogView) Update(msg tea.Msg) (viewport.Model, tea.Cmd) {
	// Key messages stay with the app's own bindings
	switch msg.(type) {
	case tea.WindowSizeMsg, tea.MouseMsg:
		var cmd tea.Cmd
		v.viewport, cmd = v.viewport.Update(msg)
		return v.viewport, cmd
	default:
		return v.viewport, nil
	}
}

func (v *LogView) View() string {
	return v.viewport.View()
}
