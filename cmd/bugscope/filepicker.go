package main

import (
	"fmt"

	"bugscope/models"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

type filesSelectedMsg struct {
	paths []string
}

// FilePickerModel lets the user choose the subset of code files to include
// in the analysis context.
type FilePickerModel struct {
	form      *huh.Form
	submitted bool
}

func NewFilePickerModel(available []models.CodeFile) FilePickerModel {
	options := make([]huh.Option[string], 0, len(available))
	for _, f := range available {
		options = append(options, huh.NewOption(f.Path, f.Path))
	}

	m := FilePickerModel{}
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewMultiSelect[string]().
				Key("files").
				Title("Select Files").
				Description("Files to include in the analysis context").
				Options(options...).
				Validate(func(selected []string) error {
					if len(selected) == 0 {
						return fmt.Errorf("select at least one file")
					}
					return nil
				}),
		),
	).WithWidth(70).WithShowHelp(true).WithShowErrors(true)
	return m
}

func (m FilePickerModel) Init() tea.Cmd {
	return m.form.Init()
}

func (m FilePickerModel) Update(msg tea.Msg) (FilePickerModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "esc" {
		return m, func() tea.Msg {
			return cancelAnalysisMsg{}
		}
	}

	var cmds []tea.Cmd
	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
		cmds = append(cmds, cmd)
	}

	if m.form.State == huh.StateCompleted && !m.submitted {
		m.submitted = true
		paths := m.form.Get("files").([]string)
		cmds = append(cmds, func() tea.Msg {
			return filesSelectedMsg{paths: paths}
		})
	}

	return m, tea.Batch(cmds...)
}

func (m FilePickerModel) View() string {
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	return "\n" + m.form.View() + "\n" + dimStyle.Render("Press esc to cancel") + "\n"
}
