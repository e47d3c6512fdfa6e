// ABOUTME: TUI status view for the submission queue
// ABOUTME: Live connectivity, queue depth, dead letters, and manual sync trigger
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/purpledash/fieldsync/engine"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			MarginBottom(1)

	labelStyle = lipgloss.NewStyle().
			Bold(true).
			Width(14)

	onlineStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10"))

	offlineStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9"))

	syncingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("11")).
			Bold(true)

	messageStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))
)

type tickMsg time.Time

type drainDoneMsg struct {
	result engine.DrainResult
}

// Model is the status screen state.
type Model struct {
	syncer  *engine.Syncer
	spinner spinner.Model

	queued   int
	dead     int
	online   bool
	syncing  bool
	draining bool
	lastMsg  string
}

func NewModel(syncer *engine.Syncer) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = syncingStyle
	m := Model{syncer: syncer, spinner: sp}
	m.refresh()
	return m
}

func (m *Model) refresh() {
	m.queued, m.dead, m.online, m.syncing = m.syncer.Status()
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tick())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "s":
			if m.draining {
				return m, nil
			}
			m.draining = true
			m.lastMsg = ""
			syncer := m.syncer
			return m, func() tea.Msg {
				return drainDoneMsg{result: syncer.Drain(context.Background())}
			}
		}

	case drainDoneMsg:
		m.draining = false
		m.refresh()
		r := msg.result
		switch {
		case r.Skipped && !m.online:
			m.lastMsg = "Offline; nothing synced"
		case r.Skipped:
			m.lastMsg = "Sync already in progress"
		case r.Stopped:
			m.lastMsg = fmt.Sprintf("Applied %d, buried %d, stopped on a failure", r.Applied, r.Buried)
		default:
			m.lastMsg = fmt.Sprintf("Applied %d, buried %d", r.Applied, r.Buried)
		}
		return m, nil

	case tickMsg:
		m.refresh()
		return m, tick()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m Model) View() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("Field Sync Status"))
	s.WriteString("\n\n")

	s.WriteString(labelStyle.Render("Connection"))
	if m.online {
		s.WriteString(onlineStyle.Render("● online"))
	} else {
		s.WriteString(offlineStyle.Render("● offline"))
	}
	s.WriteString("\n")

	s.WriteString(labelStyle.Render("Queued"))
	s.WriteString(fmt.Sprintf("%d", m.queued))
	s.WriteString("\n")

	s.WriteString(labelStyle.Render("Dead letters"))
	s.WriteString(fmt.Sprintf("%d", m.dead))
	s.WriteString("\n")

	s.WriteString(labelStyle.Render("Sync"))
	if m.draining || m.syncing {
		s.WriteString(m.spinner.View())
		s.WriteString(syncingStyle.Render(" syncing..."))
	} else {
		s.WriteString("idle")
	}
	s.WriteString("\n")

	if m.lastMsg != "" {
		s.WriteString("\n")
		s.WriteString(messageStyle.Render(m.lastMsg))
		s.WriteString("\n")
	}

	s.WriteString("\n")
	s.WriteString(helpStyle.Render("s: sync now • q: quit"))
	s.WriteString("\n")

	return s.String()
}

// Run starts the status TUI and blocks until the user quits.
func Run(syncer *engine.Syncer) error {
	_, err := tea.NewProgram(NewModel(syncer)).Run()
	return err
}
