// ABOUTME: TUI initialization and control
// ABOUTME: Wraps the bubbletea program for the deck UI
package ui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// Run starts the TUI program for a deck. Callers push StatusMsg,
// LoadedMsg, SpectrumMsg, and MonitorMsg through the returned program
// and drain controls.Actions for transport requests.
func Run(deckName string, controls *Controls) *tea.Program {
	return tea.NewProgram(NewModel(deckName, controls), tea.WithAltScreen())
}
