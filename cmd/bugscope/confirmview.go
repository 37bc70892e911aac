package main

import (
	"fmt"

	"bugscope/models"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

type confirmDecisionMsg struct {
	proceed bool
}

type cancelAnalysisMsg struct{}

// ConfirmModel shows a read-only recap of the pending analysis request and
// asks for final confirmation before anything is sent.
type ConfirmModel struct {
	form       *huh.Form
	bug        models.Bug
	selected   []models.CodeFile
	eventCount int
	submitted  bool
	requesting bool
	spinner    spinner.Model
	err        error
}

func NewConfirmModel(bug models.Bug, selected []models.CodeFile, eventCount int) ConfirmModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	m := ConfirmModel{bug: bug, selected: selected, eventCount: eventCount, spinner: s}
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Key("proceed").
				Title("Send for Analysis").
				Description("Send the bug description, selected files, and captured events?").
				Affirmative("Send").
				Negative("Back"),
		),
	).WithWidth(60).WithShowHelp(true)
	return m
}

func (m ConfirmModel) Init() tea.Cmd {
	return m.form.Init()
}

func (m ConfirmModel) Update(msg tea.Msg) (ConfirmModel, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case analysisDoneMsg:
		m.requesting = false
		if msg.err != nil {
			m.err = msg.err
		}
		return m, nil
	case tea.KeyMsg:
		if msg.String() == "esc" && !m.requesting {
			return m, func() tea.Msg {
				return confirmDecisionMsg{proceed: false}
			}
		}
	}

	if m.requesting {
		return m, nil
	}

	var cmds []tea.Cmd
	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
		cmds = append(cmds, cmd)
	}

	if m.form.State == huh.StateCompleted && !m.submitted {
		m.submitted = true
		if m.form.GetBool("proceed") {
			m.requesting = true
			cmds = append(cmds, m.spinner.Tick, func() tea.Msg {
				return confirmDecisionMsg{proceed: true}
			})
		} else {
			cmds = append(cmds, func() tea.Msg {
				return confirmDecisionMsg{proceed: false}
			})
		}
	}

	return m, tea.Batch(cmds...)
}

func (m ConfirmModel) View() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000"))

	s := "\n" + titleStyle.Render("Analysis Request") + "\n\n"

	desc := m.bug.Description
	if len(desc) > 120 {
		desc = desc[:120] + "..."
	}
	s += fmt.Sprintf("Bug: %s\n", desc)
	s += fmt.Sprintf("Files: %d selected\n", len(m.selected))
	for _, f := range m.selected {
		s += dimStyle.Render("  - "+f.Path) + "\n"
	}
	s += fmt.Sprintf("Events: %d captured\n\n", m.eventCount)

	if m.err != nil {
		s += errorStyle.Render(fmt.Sprintf("✗ Analysis failed: %v", m.err)) + "\n"
		s += dimStyle.Render("Press esc to go back to file selection and retry") + "\n"
		return s
	}
	if m.requesting {
		s += fmt.Sprintf("%s Requesting analysis...\n", m.spinner.View())
		return s
	}
	return s + m.form.View()
}
