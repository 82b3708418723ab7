// ABOUTME: TUI initialization
// ABOUTME: Wraps the bubbletea program for the soundboard UI
package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// NewProgram creates the soundboard TUI program
func NewProgram(ctrl Controller, refresh time.Duration) *tea.Program {
	return tea.NewProgram(NewModel(ctrl, refresh), tea.WithAltScreen())
}

// Run shows the TUI until the user quits
func Run(ctrl Controller, refresh time.Duration) error {
	_, err := NewProgram(ctrl, refresh).Run()
	return err
}
