// Package main provides the Bugscope CLI application.
//
// This is the main entry point for the Bugscope CLI tool, which provides an
// interactive terminal UI for reproducing and analyzing bugs. The CLI uses
// the Bubble Tea framework to provide a view-based navigation system with
// screens for the main menu, configuration, archive loading, the live
// sandbox session, file selection, request confirmation, and the analysis
// result.
package main

import (
	"context"
	"fmt"
	"os"

	"bugscope/analysis"
	"bugscope/bridge"
	"bugscope/models"
	"bugscope/sandbox"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const version = "0.3.1"

type ViewState int

const (
	ViewMainMenu ViewState = iota
	ViewConfig
	ViewArchiveEntry
	ViewSession
	ViewBugEntry
	ViewFilePicker
	ViewConfirm
	ViewResult
)

type NavigateMsg struct {
	view ViewState
}

type startSessionMsg struct{}

type beginAnalysisMsg struct{}

type analysisDoneMsg struct {
	err error
}

type Model struct {
	currentView ViewState
	mainMenu    MainMenuModel
	config      ConfigModel
	archive     ArchiveEntryModel
	session     SessionModel
	bugEntry    BugEntryModel
	filePicker  FilePickerModel
	confirm     ConfirmModel
	result      ResultModel

	files        []models.CodeFile
	eventBridge  *bridge.Bridge
	controller   *sandbox.Controller
	orchestrator *analysis.Orchestrator

	notice   string
	quitting bool
}

func newModel() Model {
	config := NewConfigModel()
	return Model{
		currentView: ViewMainMenu,
		mainMenu:    NewMainMenuModel(),
		config:      config,
		archive:     NewArchiveEntryModel(),
		eventBridge: bridge.New(),
	}
}

func (m Model) Init() tea.Cmd {
	return m.mainMenu.Init()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// Handle a loaded archive: adopt the file set and go back to the menu.
	if loadedMsg, ok := msg.(archiveLoadedMsg); ok && loadedMsg.err == nil {
		m.files = loadedMsg.files
		m.currentView = ViewMainMenu
		m.notice = fmt.Sprintf("Loaded %d files", len(loadedMsg.files))
		if len(loadedMsg.skipped) > 0 {
			m.notice += fmt.Sprintf(" (%d binary entries skipped)", len(loadedMsg.skipped))
		}
		return m, nil
	}

	// Handle session start from the main menu.
	if _, ok := msg.(startSessionMsg); ok {
		config, err := LoadProjectConfig()
		if err != nil {
			m.notice = fmt.Sprintf("Cannot start session: %s not found", projectConfigFilename)
			return m, nil
		}
		if len(m.files) == 0 {
			m.notice = "Load a project archive before starting a session"
			return m, nil
		}

		engine := sandbox.NewLocalEngine()
		if config.ReadyPattern != "" {
			patterned, err := sandbox.NewLocalEngineWithPattern(config.ReadyPattern)
			if err != nil {
				m.notice = fmt.Sprintf("Invalid ready pattern: %v", err)
				return m, nil
			}
			engine = patterned
		}

		// A new sandbox session starts with a fresh event set.
		m.eventBridge.Reset()

		m.controller = sandbox.NewController(engine)
		m.session = NewSessionModel(m.controller, m.eventBridge, config, models.BuildFileTree(m.files))
		m.currentView = ViewSession
		m.notice = ""
		return m, m.session.Init()
	}

	// Handle analysis start from the main menu.
	if _, ok := msg.(beginAnalysisMsg); ok {
		if m.config.client == nil {
			m.notice = "BUGSCOPE_API_KEY must be set to run an analysis"
			return m, nil
		}
		if len(m.files) == 0 {
			m.notice = "Load a project archive or run a session before analyzing"
			return m, nil
		}
		m.bugEntry = NewBugEntryModel(m.config.client)
		m.currentView = ViewBugEntry
		m.notice = ""
		return m, m.bugEntry.Init()
	}

	// Handle a resolved bug: create the orchestrator and move to selection.
	if resolved, ok := msg.(bugResolvedMsg); ok && resolved.err == nil {
		// Self-hosted deployments write accepted descriptions straight to
		// the database instead of through the API.
		var bugStore analysis.BugStore = m.config.client.Bugs
		if m.config.store != nil {
			bugStore = m.config.store
		}
		m.orchestrator = analysis.NewOrchestrator(m.config.client.LLM, bugStore, resolved.bug)
		if err := m.orchestrator.Begin(m.files, m.eventBridge.Events()); err != nil {
			m.currentView = ViewMainMenu
			m.notice = fmt.Sprintf("Cannot start analysis: %v", err)
			return m, nil
		}
		m.filePicker = NewFilePickerModel(m.orchestrator.Available())
		m.currentView = ViewFilePicker
		return m, m.filePicker.Init()
	}

	// Handle the file selection.
	if selMsg, ok := msg.(filesSelectedMsg); ok {
		if err := m.orchestrator.Select(selMsg.paths); err != nil {
			logDebug("Select failed: %v", err)
			return m, nil
		}
		if err := m.orchestrator.Confirm(); err != nil {
			logDebug("Confirm failed: %v", err)
			return m, nil
		}
		m.confirm = NewConfirmModel(m.orchestrator.Bug(), m.orchestrator.Selected(), m.eventBridge.Len())
		m.currentView = ViewConfirm
		return m, m.confirm.Init()
	}

	// Handle cancel from the file picker.
	if _, ok := msg.(cancelAnalysisMsg); ok {
		if m.orchestrator != nil {
			m.orchestrator.Cancel()
		}
		m.currentView = ViewMainMenu
		return m, nil
	}

	// Handle the confirmation decision.
	if decision, ok := msg.(confirmDecisionMsg); ok {
		if !decision.proceed {
			m.orchestrator.Back()
			m.filePicker = NewFilePickerModel(m.orchestrator.Available())
			m.currentView = ViewFilePicker
			return m, m.filePicker.Init()
		}
		orch := m.orchestrator
		return m, func() tea.Msg {
			err := orch.ConfirmAndAnalyze(context.Background())
			return analysisDoneMsg{err: err}
		}
	}

	// Handle the analysis response.
	if doneMsg, ok := msg.(analysisDoneMsg); ok {
		if doneMsg.err != nil {
			logDebug("Analysis request failed: %v", doneMsg.err)
			// Let the confirm view render the error; the orchestrator has
			// already fallen back to selection with the draft preserved.
			var cmd tea.Cmd
			m.confirm, cmd = m.confirm.Update(doneMsg)
			return m, cmd
		}
		if pending := m.orchestrator.Pending(); pending != nil {
			m.result = NewResultModel(*pending)
			m.currentView = ViewResult
			return m, m.result.Init()
		}
		return m, nil
	}

	// Handle accept/reject of the analysis result.
	if _, ok := msg.(acceptResultMsg); ok {
		orch := m.orchestrator
		return m, func() tea.Msg {
			return acceptDoneMsg{err: orch.Accept(context.Background())}
		}
	}
	if _, ok := msg.(rejectResultMsg); ok {
		if err := m.orchestrator.Reject(); err != nil {
			logDebug("Reject failed: %v", err)
		}
		m.currentView = ViewMainMenu
		m.notice = "Analysis discarded"
		return m, nil
	}
	if doneMsg, ok := msg.(acceptDoneMsg); ok {
		if doneMsg.err != nil {
			var cmd tea.Cmd
			m.result, cmd = m.result.Update(doneMsg)
			return m, cmd
		}
		m.currentView = ViewMainMenu
		m.notice = "Bug description updated"
		return m, nil
	}

	// Handle navigation messages.
	if navMsg, ok := msg.(NavigateMsg); ok {
		m.currentView = navMsg.view
		switch navMsg.view {
		case ViewArchiveEntry:
			m.archive = NewArchiveEntryModel()
			return m, m.archive.Init()
		case ViewConfig:
			return m, m.config.Init()
		}
		return m, nil
	}

	// Handle global key commands.
	if msg, ok := msg.(tea.KeyMsg); ok {
		k := msg.String()

		if m.currentView == ViewConfig && (k == "q" || k == "esc") {
			m.currentView = ViewMainMenu
			return m, nil
		}
		if m.currentView == ViewMainMenu && k == "ctrl+c" {
			m.quitting = true
			return m, tea.Quit
		}
	}

	// Route updates to current view.
	var cmd tea.Cmd
	switch m.currentView {
	case ViewMainMenu:
		m.mainMenu, cmd = m.mainMenu.Update(msg)
	case ViewConfig:
		m.config, cmd = m.config.Update(msg)
	case ViewArchiveEntry:
		m.archive, cmd = m.archive.Update(msg)
	case ViewSession:
		m.session.SetEventCount(m.eventBridge.Len())
		m.session, cmd = m.session.Update(msg)
	case ViewBugEntry:
		m.bugEntry, cmd = m.bugEntry.Update(msg)
	case ViewFilePicker:
		m.filePicker, cmd = m.filePicker.Update(msg)
	case ViewConfirm:
		m.confirm, cmd = m.confirm.Update(msg)
	case ViewResult:
		m.result, cmd = m.result.Update(msg)
	}

	return m, cmd
}

func (m Model) View() string {
	if m.quitting {
		return "bye!\n"
	}

	switch m.currentView {
	case ViewMainMenu:
		s := m.mainMenu.View()
		if m.notice != "" {
			noticeStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575")).MarginLeft(2)
			s += "\n" + noticeStyle.Render(m.notice) + "\n"
		}
		return s
	case ViewConfig:
		return m.config.View()
	case ViewArchiveEntry:
		return m.archive.View()
	case ViewSession:
		return m.session.View()
	case ViewBugEntry:
		return m.bugEntry.View()
	case ViewFilePicker:
		return m.filePicker.View()
	case ViewConfirm:
		return m.confirm.View()
	case ViewResult:
		return m.result.View()
	default:
		return "Unknown view\n"
	}
}

func main() {
	// Handle help flag
	if len(os.Args) > 1 && (os.Args[1] == "--help" || os.Args[1] == "-h" || os.Args[1] == "help") {
		fmt.Printf("Bugscope CLI - Reproduce and analyze bugs\n\n")
		fmt.Printf("Usage:\n")
		fmt.Printf("  bugscope [options]\n\n")
		fmt.Printf("Options:\n")
		fmt.Printf("  --version, -v      Show version information\n")
		fmt.Printf("  --help, -h         Show this help message\n\n")
		fmt.Printf("Interactive Mode:\n")
		fmt.Printf("  Run 'bugscope' without arguments to start the interactive TUI\n\n")
		fmt.Printf("Environment:\n")
		fmt.Printf("  BUGSCOPE_API_KEY   API key (required)\n")
		fmt.Printf("  BUGSCOPE_BASE_URL  Override the API base URL\n")
		fmt.Printf("  BUGSCOPE_SIMULATED Set to 1 to use canned analysis responses\n")
		fmt.Printf("  BUGSCOPE_DB_TYPE   Write accepted results straight to a database\n")
		fmt.Printf("                     (postgresql or mysql); connection details come from\n")
		fmt.Printf("                     BUGSCOPE_DB_HOST, BUGSCOPE_DB_PORT, BUGSCOPE_DB_USER,\n")
		fmt.Printf("                     BUGSCOPE_DB_PASSWORD and BUGSCOPE_DB_NAME\n")
		os.Exit(0)
	}

	// Handle version flag
	if len(os.Args) > 1 && (os.Args[1] == "--version" || os.Args[1] == "-v") {
		fmt.Printf("Bugscope CLI version %s\n", version)
		os.Exit(0)
	}

	// Initialize debug logger
	if err := initLogger(); err != nil {
		fmt.Printf("Warning: failed to initialize logger: %v\n", err)
	}

	initialModel := newModel()
	p := tea.NewProgram(initialModel)

	if _, err := p.Run(); err != nil {
		fmt.Println("could not run program:", err)
	}
}
