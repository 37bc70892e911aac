// Package main provides the session view for the Bugscope CLI.
//
// This file implements the SessionModel which drives the sandbox lifecycle
// (boot, mount, start) and renders the live terminal transcript, the preview
// URL once the dev server reports ready, the captured event count, and a
// session timer.
package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"bugscope/bridge"
	"bugscope/models"
	"bugscope/sandbox"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const maxTranscriptLines = 200

// defaultEventStreamPath is where the preview surface serves its SSE event
// stream unless bugscope-config.yml overrides it.
const defaultEventStreamPath = "/__bugscope/events"

type sandboxEventMsg struct {
	event sandbox.Event
}

type sandboxChannelClosedMsg struct{}

type sessionBootedMsg struct {
	err error
}

type eventStreamOpenedMsg struct {
	stream io.ReadCloser
	err    error
}

type SessionModel struct {
	controller *sandbox.Controller
	bridge     *bridge.Bridge
	listener   *bridge.Listener
	config     *models.ProjectConfig
	tree       models.FileTree

	timer      SessionTimer
	spinner    spinner.Model
	transcript []models.TerminalLine
	status     sandbox.Status
	stream     io.ReadCloser
	eventCount int
	bootErr    error
	width      int
}

func NewSessionModel(controller *sandbox.Controller, eventBridge *bridge.Bridge, config *models.ProjectConfig, tree models.FileTree) SessionModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return SessionModel{
		controller: controller,
		bridge:     eventBridge,
		listener:   bridge.NewListener(eventBridge, nil),
		config:     config,
		tree:       tree,
		timer:      NewSessionTimer(),
		spinner:    s,
		width:      80,
	}
}

// bootSession runs the full boot/mount/start sequence in the background.
// Status and output land on the controller's event channel.
func bootSession(controller *sandbox.Controller, config *models.ProjectConfig, tree models.FileTree) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()

		if err := controller.Initialize(ctx); err != nil {
			return sessionBootedMsg{err: err}
		}
		if err := controller.Mount(ctx, tree, config.EnvBlob()); err != nil {
			return sessionBootedMsg{err: err}
		}

		command := config.StartCommand
		if config.InstallCommand != "" {
			command = config.InstallCommand + " && " + config.StartCommand
		}
		if err := controller.Start(ctx, command); err != nil {
			return sessionBootedMsg{err: err}
		}
		return sessionBootedMsg{err: nil}
	}
}

// waitForSandboxEvent blocks on the controller's event channel and forwards
// one event into the Bubble Tea loop.
func waitForSandboxEvent(events <-chan sandbox.Event) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-events
		if !ok {
			return sandboxChannelClosedMsg{}
		}
		return sandboxEventMsg{event: event}
	}
}

// eventStreamURL joins the dev server's ready URL with the preview's SSE
// event endpoint path.
func eventStreamURL(readyURL, path string) string {
	if path == "" {
		path = defaultEventStreamPath
	}
	return strings.TrimRight(readyURL, "/") + path
}

// openEventStream connects to the preview's event stream once the dev server
// reports ready. The response body is handed back to the model, which
// attaches the bridge listener to it.
func openEventStream(url string) tea.Cmd {
	return func() tea.Msg {
		resp, err := http.Get(url)
		if err != nil {
			return eventStreamOpenedMsg{err: err}
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return eventStreamOpenedMsg{err: fmt.Errorf("event stream returned status %d", resp.StatusCode)}
		}
		return eventStreamOpenedMsg{stream: resp.Body}
	}
}

func (m SessionModel) Init() tea.Cmd {
	return tea.Batch(
		m.timer.Init(),
		m.spinner.Tick,
		bootSession(m.controller, m.config, m.tree),
		waitForSandboxEvent(m.controller.Events()),
	)
}

func (m SessionModel) Update(msg tea.Msg) (SessionModel, tea.Cmd) {
	switch msg := msg.(type) {
	case sessionBootedMsg:
		if msg.err != nil {
			m.bootErr = msg.err
			logDebug("Session boot failed: %v", msg.err)
			return m, nil
		}
		// Record the session on disk so a crashed CLI can report what ran.
		if err := WriteSessionFile(SessionFileData{
			ProjectName:  m.config.Name,
			StartCommand: m.config.StartCommand,
			StartedAt:    time.Now().UTC().Format(time.RFC3339),
		}); err != nil {
			logDebug("Failed to write session file: %v", err)
		}
		return m, nil

	case sandboxEventMsg:
		switch event := msg.event.(type) {
		case sandbox.StatusEvent:
			m.status = event.Status
			if event.Status.State == sandbox.StateReady {
				if err := WriteSessionFile(SessionFileData{
					ProjectName:  m.config.Name,
					URL:          event.Status.URL,
					StartCommand: m.config.StartCommand,
					StartedAt:    time.Now().UTC().Format(time.RFC3339),
				}); err != nil {
					logDebug("Failed to update session file: %v", err)
				}
				// The preview is reachable now; start capturing its events.
				return m, tea.Batch(
					waitForSandboxEvent(m.controller.Events()),
					openEventStream(eventStreamURL(event.Status.URL, m.config.EventStreamPath)),
				)
			}
		case sandbox.OutputEvent:
			m.transcript = append(m.transcript, event.Line)
			if len(m.transcript) > maxTranscriptLines {
				m.transcript = m.transcript[len(m.transcript)-maxTranscriptLines:]
			}
		}
		return m, waitForSandboxEvent(m.controller.Events())

	case eventStreamOpenedMsg:
		if msg.err != nil {
			logDebug("Failed to open event stream: %v", msg.err)
			return m, nil
		}
		m.stream = msg.stream
		m.listener.Attach(context.Background(), msg.stream)
		return m, nil

	case sandboxChannelClosedMsg:
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc":
			m.listener.Detach()
			if m.stream != nil {
				// Closing the body unblocks the listener's scanner.
				m.stream.Close()
				m.stream = nil
			}
			if err := m.controller.Stop(); err != nil {
				logDebug("Failed to stop sandbox: %v", err)
			}
			if err := RemoveSessionFile(); err != nil {
				logDebug("Failed to remove session file: %v", err)
			}
			return m, tea.Batch(m.timer.Stop(), func() tea.Msg {
				return NavigateMsg{view: ViewMainMenu}
			})
		}
	}

	var cmd tea.Cmd
	m.timer, cmd = m.timer.Update(msg)
	return m, cmd
}

func (m SessionModel) View() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))
	urlStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575")).Bold(true)
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	commandStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD700"))
	errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000")).Bold(true)

	s := titleStyle.Render(fmt.Sprintf("Session: %s", m.config.Name)) + "\n\n"

	if m.bootErr != nil {
		s += errorStyle.Render(fmt.Sprintf("✗ %v", m.bootErr)) + "\n\n"
		s += dimStyle.Render("Press q to go back") + "\n"
		return s
	}

	switch m.status.State {
	case sandbox.StateReady:
		s += fmt.Sprintf("Status: ready  %s\n", urlStyle.Render(m.status.URL))
	case sandbox.StateFailed:
		s += errorStyle.Render(fmt.Sprintf("Status: failed (%s)", m.status.Reason)) + "\n"
	default:
		s += fmt.Sprintf("%s Status: %s\n", m.spinner.View(), m.status.State)
	}
	s += dimStyle.Render(fmt.Sprintf("Elapsed: %s   Events captured: %d", m.timer.View(), m.eventCount)) + "\n\n"

	s += titleStyle.Render("Terminal") + "\n"
	for _, line := range m.transcript {
		if line.Kind == models.TerminalCommand {
			s += commandStyle.Render("$ "+line.Text) + "\n"
		} else {
			s += line.Text + "\n"
		}
	}

	s += "\n" + dimStyle.Render("Press q or esc to stop the session") + "\n"
	return s
}

// SetEventCount refreshes the captured-event counter rendered in the header.
func (m *SessionModel) SetEventCount(n int) {
	m.eventCount = n
}
