package tui

import (
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/stevemurr/simple-contacts/store"
)

// Run starts the menu on the given terminal streams and blocks until the
// user exits.
func Run(s store.Store, in io.Reader, out io.Writer) error {
	p := tea.NewProgram(New(s), tea.WithInput(in), tea.WithOutput(out))
	_, err := p.Run()
	return err
}
