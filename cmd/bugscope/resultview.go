// Package main provides the analysis result view for the Bugscope CLI.
//
// This file implements the ResultModel which renders the parsed analysis
// sections (diagram, root-cause narrative, proposed description) and lets the
// user accept or reject the proposed description update.
package main

import (
	"fmt"

	"bugscope/analysis"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type acceptResultMsg struct{}

type rejectResultMsg struct{}

type acceptDoneMsg struct {
	err error
}

type ResultModel struct {
	result    analysis.Result
	accepting bool
	err       error
}

func NewResultModel(result analysis.Result) ResultModel {
	return ResultModel{result: result}
}

func (m ResultModel) Init() tea.Cmd {
	return nil
}

func (m ResultModel) Update(msg tea.Msg) (ResultModel, tea.Cmd) {
	switch msg := msg.(type) {
	case acceptDoneMsg:
		m.accepting = false
		if msg.err != nil {
			m.err = msg.err
		}
		return m, nil
	case tea.KeyMsg:
		if m.accepting {
			return m, nil
		}
		switch msg.String() {
		case "a":
			if m.result.UpdatedDescription != nil {
				m.accepting = true
				return m, func() tea.Msg {
					return acceptResultMsg{}
				}
			}
			// Nothing to apply; treat like a reject.
			return m, func() tea.Msg {
				return rejectResultMsg{}
			}
		case "r", "q", "esc":
			return m, func() tea.Msg {
				return rejectResultMsg{}
			}
		}
	}
	return m, nil
}

func (m ResultModel) View() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))
	sectionStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#04B575"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000"))
	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#444444")).
		Padding(0, 1)

	s := "\n" + titleStyle.Render("Analysis Result") + "\n\n"

	if m.result.Diagram != nil {
		s += sectionStyle.Render("Flow Diagram") + "\n"
		s += boxStyle.Render(*m.result.Diagram) + "\n\n"
	}
	if m.result.Narrative != nil {
		s += sectionStyle.Render("Root Cause") + "\n"
		s += *m.result.Narrative + "\n\n"
	}
	if m.result.UpdatedDescription != nil {
		s += sectionStyle.Render("Proposed Description") + "\n"
		s += boxStyle.Render(*m.result.UpdatedDescription) + "\n\n"
	}
	if m.result.Diagram == nil && m.result.Narrative == nil && m.result.UpdatedDescription == nil {
		s += dimStyle.Render("The response contained no recognizable sections.") + "\n\n"
	}

	if m.err != nil {
		s += errorStyle.Render(fmt.Sprintf("✗ Failed to apply: %v", m.err)) + "\n"
	}
	if m.accepting {
		s += "Applying description update...\n"
		return s
	}

	if m.result.UpdatedDescription != nil {
		s += dimStyle.Render("Press a to accept the description update, r to reject") + "\n"
	} else {
		s += dimStyle.Render("Press r or q to return to the main menu") + "\n"
	}
	return s
}
