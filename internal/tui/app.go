// Package tui is the interactive chat client: transcript on the left, the
// collapsible live-calendar panel on the right.
package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/BouchraBenGhazala/PlanIQ/internal/config"
)

// Run starts the chat TUI and blocks until the user quits.
func Run(cfg *config.Config) error {
	applyColorProfilePreference()

	p := tea.NewProgram(newAppModel(cfg), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
