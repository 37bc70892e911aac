package main

import (
	"fmt"
	"os"
	"strings"

	"bugscope/archive"
	"bugscope/models"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

type archiveLoadedMsg struct {
	files   []models.CodeFile
	skipped []string
	err     error
}

// ArchiveEntryModel prompts for a zip path and loads it into the shared
// code-file set.
type ArchiveEntryModel struct {
	form    *huh.Form
	path    string
	loading bool
	err     error
}

func NewArchiveEntryModel() ArchiveEntryModel {
	m := ArchiveEntryModel{}
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("path").
				Title("Archive Path").
				Description("Path to a zip archive of the project").
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("path is required")
					}
					return nil
				}),
		),
	).WithWidth(60).WithShowHelp(true).WithShowErrors(true)
	return m
}

func loadArchive(path string) tea.Cmd {
	return func() tea.Msg {
		data, err := os.ReadFile(path)
		if err != nil {
			return archiveLoadedMsg{err: fmt.Errorf("failed to read archive: %w", err)}
		}
		result, err := archive.Load(data)
		if err != nil {
			return archiveLoadedMsg{err: err}
		}
		logDebug("Loaded archive %s: %d files, %d skipped", path, len(result.Files), len(result.Skipped))
		return archiveLoadedMsg{files: result.Files, skipped: result.Skipped}
	}
}

func (m ArchiveEntryModel) Init() tea.Cmd {
	return m.form.Init()
}

func (m ArchiveEntryModel) Update(msg tea.Msg) (ArchiveEntryModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "esc" {
		return m, func() tea.Msg {
			return NavigateMsg{view: ViewMainMenu}
		}
	}

	if loadedMsg, ok := msg.(archiveLoadedMsg); ok && loadedMsg.err != nil {
		m.loading = false
		m.err = loadedMsg.err
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
		m.path = m.form.GetString("path")
		cmds = append(cmds, loadArchive(m.path))
	}

	return m, tea.Batch(cmds...)
}

func (m ArchiveEntryModel) View() string {
	errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000"))

	s := "\nLoad Project Archive\n\n"
	if m.err != nil {
		s += errorStyle.Render(fmt.Sprintf("✗ %v", m.err)) + "\n\n"
		s += "Press esc to go back\n"
		return s
	}
	if m.loading {
		return s + fmt.Sprintf("Loading %s...\n", m.path)
	}
	return s + m.form.View()
}
