package models

import (
	"sync"
	"time"

	"github.com/allbin/vcpmon"
	"github.com/allbin/vcpmon/internal/tui/components"
	"github.com/allbin/vcpmon/lifecycle"
	tea "github.com/charmbracelet/bubbletea"
)

// StatusRefresh is how often the status bar re-reads the core counters
const StatusRefresh = 500 * time.Millisecond

// Source is the part of a running core the TUI observes
type Source interface {
	State() lifecycle.State
	Session() (lifecycle.Session, bool)
	Stats() vcpmon.Stats
}

// StateChangedMsg reports a lifecycle transition
type StateChangedMsg struct {
	From lifecycle.State
	To   lifecycle.State
}

// CoreStoppedMsg reports that the core has shut down
type CoreStoppedMsg struct{}

// TickMsg drives the periodic status refresh
type TickMsg time.Time

// Tick schedules the next status refresh
func Tick() tea.Cmd {
	return tea.Tick(StatusRefresh, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// CoreModel holds the TUI's view of a running core
type CoreModel struct {
	src        Source
	lineCoding string // configured line coding, shown while no session is live

	ready bool
	mu    sync.RWMutex
}

func NewCoreModel(src Source, lineCoding string) *CoreModel {
	return &CoreModel{src: src, lineCoding: lineCoding}
}

// Status snapshots the core for the status bar
func (m *CoreModel) Status() components.StatusInfo {
	info := components.StatusInfo{
		State:      m.src.State(),
		LineCoding: m.lineCoding,
	}
	if s, ok := m.src.Session(); ok {
		info.Port = s.Port.Path
		info.Driver = s.Driver
		info.LineCoding = s.LineCoding.String()
	}

	stats := m.src.Stats()
	info.Received = stats.Queue.Sent
	info.Dropped = stats.Queue.Dropped
	return info
}

func (m *CoreModel) IsReady() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ready
}

func (m *CoreModel) SetReady(ready bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ready = ready
}
