/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"context"
	"errors"
	"time"

	"github.com/allbin/vcpmon"
	"github.com/allbin/vcpmon/internal/tui/components"
	"github.com/allbin/vcpmon/internal/tui/keys"
	"github.com/allbin/vcpmon/internal/tui/models"
	"github.com/allbin/vcpmon/internal/tui/styles"
	"github.com/allbin/vcpmon/lifecycle"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/viper"
	"golang.org/x/text/encoding/charmap"
)

// runModel represents the Bubble Tea model for run --tui
type runModel struct {
	*models.CoreModel
	log       *components.LogView
	statusBar *components.StatusBar
	help      help.Model
	keys      keys.LogKeys
}

func newRunModel(src models.Source, lineCoding string, charset *charmap.Charmap) *runModel {
	m := &runModel{
		CoreModel: models.NewCoreModel(src, lineCoding),
		log:       components.NewLogView(80, 20, components.DefaultRetention, components.NewLineFormatter(true, charset)),
		statusBar: components.NewStatusBar(),
		help:      help.New(),
		keys:      keys.NewLogKeys(),
	}
	m.statusBar.SetInfo(m.Status())
	return m
}

func runTUI(ctx context.Context, charset *charmap.Charmap, opts []vcpmon.Option) error {
	// The lifecycle must never wait on the renderer, so transitions are
	// buffered and dropped when the TUI falls behind; the periodic status
	// refresh catches up.
	transitions := make(chan models.StateChangedMsg, 16)
	opts = append(opts, vcpmon.WithStateHook(func(from, to lifecycle.State) {
		select {
		case transitions <- models.StateChangedMsg{From: from, To: to}:
		default:
		}
	}))

	core, err := vcpmon.Start(ctx, opts...)
	if err != nil {
		return err
	}

	m := newRunModel(core, viper.GetString("run.baud")+" "+viper.GetString("run.framing"), charset)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))

	go func() {
		for {
			select {
			case <-core.Done():
				return
			case msg := <-transitions:
				p.Send(msg)
			}
		}
	}()

	go func() {
		for {
			msg, err := core.ReceiveContext(ctx)
			if err != nil {
				<-core.Done()
				p.Send(models.CoreStoppedMsg{})
				return
			}
			p.Send(components.LineReceivedMsg{Timestamp: time.Now(), Data: msg.Bytes()})
		}
	}()

	_, runErr := p.Run()

	if err := core.Stop(); err != nil {
		return err
	}
	if errors.Is(runErr, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return runErr
}

func (m *runModel) Init() tea.Cmd {
	return models.Tick()
}

func (m *runModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		// Single line status bar plus the log's top border
		m.log.SetSize(msg.Width, msg.Height-2)
		m.statusBar.SetWidth(msg.Width)
		m.SetReady(true)

	case components.LineReceivedMsg:
		m.log.AddLine(components.Line(msg))

	case models.StateChangedMsg:
		m.statusBar.SetState(msg.To)
		if msg.To == lifecycle.StateActive {
			m.statusBar.SetInfo(m.Status())
		}

	case models.TickMsg:
		m.statusBar.SetInfo(m.Status())
		cmds = append(cmds, models.Tick())

	case models.CoreStoppedMsg:
		return m, tea.Quit

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit

		case key.Matches(msg, m.keys.Clear):
			m.log.Clear()

		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll

		case key.Matches(msg, m.keys.ToggleHex):
			m.log.ToggleHex()

		case key.Matches(msg, m.keys.ToggleTimestamps):
			m.log.ToggleTimestamps()
		}
	}

	switch msg.(type) {
	case tea.WindowSizeMsg, tea.MouseMsg:
		_, cmd := m.log.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m *runModel) View() string {
	content := "Waiting for terminal size..."
	if m.IsReady() {
		content = m.log.View()
	}

	parts := []string{styles.ContentBorderStyle.Render(content)}
	if m.help.ShowAll {
		parts = append(parts, styles.HelpStyle.Render(m.help.View(m.keys)))
	}
	parts = append(parts, m.statusBar.View(time.Now().Format("15:04:05")))

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}
