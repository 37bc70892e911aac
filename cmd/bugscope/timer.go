package main

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/stopwatch"
	tea "github.com/charmbracelet/bubbletea"
)

// SessionTimer tracks how long the current reproduction session has been
// running. Thin wrapper over the bubbles stopwatch with a compact rendering.
type SessionTimer struct {
	sw stopwatch.Model
}

func NewSessionTimer() SessionTimer {
	return SessionTimer{sw: stopwatch.NewWithInterval(100 * time.Millisecond)}
}

func (t SessionTimer) Init() tea.Cmd {
	return t.sw.Init()
}

func (t SessionTimer) Stop() tea.Cmd {
	return t.sw.Stop()
}

func (t SessionTimer) Update(msg tea.Msg) (SessionTimer, tea.Cmd) {
	var cmd tea.Cmd
	t.sw, cmd = t.sw.Update(msg)
	return t, cmd
}

func (t SessionTimer) View() string {
	seconds := t.sw.Elapsed().Seconds()
	if seconds < 60 {
		return fmt.Sprintf("%.1fs", seconds)
	}
	minutes := int(seconds / 60)
	return fmt.Sprintf("%dm %.1fs", minutes, seconds-float64(minutes*60))
}
