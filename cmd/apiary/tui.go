package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/apiarylabs/apiary/pkg/models"
)

// swarmStatusMsg carries one progress update from the orchestrator.
type swarmStatusMsg struct {
	Status models.SwarmStatus
	Detail string
}

// swarmDoneMsg signals that the run has finished.
type swarmDoneMsg struct {
	Err error
}

// maxEventLines bounds the scrollback shown in the progress view.
const maxEventLines = 12

// runModel is the bubbletea model for the live run view.
type runModel struct {
	goal    string
	spin    spinner.Model
	phase   models.SwarmStatus
	detail  string
	events  []string
	done    bool
	failed  bool
	doneMsg string

	titleStyle  lipgloss.Style
	phaseStyle  lipgloss.Style
	eventStyle  lipgloss.Style
	okStyle     lipgloss.Style
	failStyle   lipgloss.Style
	footerStyle lipgloss.Style
}

func newRunModel(goal string) runModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return runModel{
		goal:  goal,
		spin:  s,
		phase: models.SwarmStatusPlanning,

		titleStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")),

		phaseStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")),

		eventStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("244")),

		okStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("34")),

		failStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")),

		footerStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")),
	}
}

func (m runModel) Init() tea.Cmd {
	return m.spin.Tick
}

func (m runModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
		return m, nil

	case swarmStatusMsg:
		m.phase = msg.Status
		m.detail = msg.Detail
		m.events = append(m.events, fmt.Sprintf("[%s] %s", msg.Status, msg.Detail))
		if len(m.events) > maxEventLines {
			m.events = m.events[len(m.events)-maxEventLines:]
		}
		return m, nil

	case swarmDoneMsg:
		m.done = true
		if msg.Err != nil {
			m.failed = true
			m.doneMsg = msg.Err.Error()
		} else {
			m.doneMsg = "Run finished"
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m runModel) View() string {
	var b strings.Builder

	b.WriteString(m.titleStyle.Render("apiary run"))
	b.WriteString("  ")
	b.WriteString(m.eventStyle.Render(truncateLine(m.goal, 70)))
	b.WriteString("\n\n")

	if m.done {
		if m.failed {
			b.WriteString(m.failStyle.Render("✗ " + m.doneMsg))
		} else {
			b.WriteString(m.okStyle.Render("✓ " + m.doneMsg))
		}
	} else {
		b.WriteString(m.spin.View())
		b.WriteString(m.phaseStyle.Render(fmt.Sprintf(" %s", m.phase)))
		if m.detail != "" {
			b.WriteString(m.eventStyle.Render("  " + truncateLine(m.detail, 60)))
		}
	}
	b.WriteString("\n\n")

	for _, line := range m.events {
		b.WriteString(m.eventStyle.Render(truncateLine(line, 78)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.done {
		b.WriteString(m.footerStyle.Render("press q to quit"))
	} else {
		b.WriteString(m.footerStyle.Render("press q to abort"))
	}
	b.WriteString("\n")

	return b.String()
}

// truncateLine shortens a display line, adding an ellipsis if needed.
func truncateLine(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}
