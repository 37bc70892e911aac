package main

import (
	"context"
	"fmt"
	"strings"

	bugscope "bugscope"
	"bugscope/models"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

type bugResolvedMsg struct {
	bug models.Bug
	err error
}

// BugEntryModel collects the bug under analysis: either an ID fetched from
// the external store, or a description typed in for a local draft.
type BugEntryModel struct {
	client  *bugscope.Client
	form    *huh.Form
	loading bool
	err     error
}

func NewBugEntryModel(client *bugscope.Client) BugEntryModel {
	m := BugEntryModel{client: client}
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("bug_id").
				Title("Bug ID").
				Description("ID of an existing bug record (leave blank for a local draft)"),
			huh.NewText().
				Key("description").
				Title("Bug Description").
				Description("Used when no bug ID is given"),
		),
	).WithWidth(60).WithShowHelp(true).WithShowErrors(true)
	return m
}

func resolveBug(client *bugscope.Client, bugID, description string) tea.Cmd {
	return func() tea.Msg {
		if bugID == "" {
			if strings.TrimSpace(description) == "" {
				return bugResolvedMsg{err: fmt.Errorf("either a bug ID or a description is required")}
			}
			return bugResolvedMsg{bug: models.Bug{ID: "local", Description: description, Status: "open"}}
		}
		bug, err := client.Bugs.Get(context.Background(), bugID)
		if err != nil {
			return bugResolvedMsg{err: fmt.Errorf("failed to fetch bug %s: %w", bugID, err)}
		}
		return bugResolvedMsg{bug: *bug}
	}
}

func (m BugEntryModel) Init() tea.Cmd {
	return m.form.Init()
}

func (m BugEntryModel) Update(msg tea.Msg) (BugEntryModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "esc" {
		return m, func() tea.Msg {
			return NavigateMsg{view: ViewMainMenu}
		}
	}

	if resolved, ok := msg.(bugResolvedMsg); ok && resolved.err != nil {
		m.loading = false
		m.err = resolved.err
		return m, nil
	}

	var cmds []tea.Cmd
	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
		cmds = append(cmds, cmd)
	}

	if m.form.State == huh.StateCompleted && !m.loading {
		m.loading = true
		cmds = append(cmds, resolveBug(m.client, m.form.GetString("bug_id"), m.form.GetString("description")))
	}

	return m, tea.Batch(cmds...)
}

func (m BugEntryModel) View() string {
	errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000"))

	s := "\nAnalyze Bug\n\n"
	if m.err != nil {
		s += errorStyle.Render(fmt.Sprintf("✗ %v", m.err)) + "\n\n"
		s += "Press esc to go back\n"
		return s
	}
	if m.loading {
		return s + "Resolving bug...\n"
	}
	return s + m.form.View()
}
