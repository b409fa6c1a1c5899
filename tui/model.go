// Package tui implements the interactive contacts menu as a Bubble Tea program.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/stevemurr/simple-contacts/console"
	"github.com/stevemurr/simple-contacts/store"
)

type screen int

const (
	screenMenu screen = iota
	screenForm
	screenResult
)

type menuItem struct {
	label  string
	action console.Action
}

var menuItems = []menuItem{
	{"Add contact", console.ActionAdd},
	{"View contacts", console.ActionList},
	{"Delete contact", console.ActionDelete},
	{"Search contacts", console.ActionSearch},
	{"Exit", console.ActionExit},
}

// Model is the Bubble Tea model for the contacts menu.
type Model struct {
	store    store.Store
	screen   screen
	cursor   int
	action   console.Action // action of the open form
	inputs   []textinput.Model
	focus    int
	title    string
	lines    []string
	err      error
	status   string // feedback for invalid menu keys
	quitting bool
}

// resultMsg carries the outcome of a store operation.
type resultMsg struct {
	title string
	lines []string
	err   error
}

// New creates a Model operating on s.
func New(s store.Store) Model {
	return Model{store: s}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles incoming messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case resultMsg:
		m.screen = screenResult
		m.title = msg.title
		m.lines = msg.lines
		m.err = msg.err
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.quitting = true
			return m, tea.Quit
		}
		switch m.screen {
		case screenMenu:
			return m.updateMenu(msg)
		case screenForm:
			return m.updateForm(msg)
		case screenResult:
			m.screen = screenMenu
			m.lines = nil
			m.err = nil
			return m, nil
		}
	}
	return m, nil
}

func (m Model) updateMenu(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.status = ""
	switch key := msg.String(); key {
	case "up", "k":
		m.cursor = (m.cursor + len(menuItems) - 1) % len(menuItems)
	case "down", "j":
		m.cursor = (m.cursor + 1) % len(menuItems)
	case "enter":
		return m.choose(menuItems[m.cursor].action)
	case "q", "esc":
		return m.choose(console.ActionExit)
	default:
		if msg.Type != tea.KeyRunes {
			return m, nil
		}
		action := console.ParseAction(key)
		if action == console.ActionInvalid {
			m.status = fmt.Sprintf("Enter a valid choice, got %q", key)
			return m, nil
		}
		return m.choose(action)
	}
	return m, nil
}

func (m Model) choose(action console.Action) (tea.Model, tea.Cmd) {
	for i, item := range menuItems {
		if item.action == action {
			m.cursor = i
		}
	}
	switch action {
	case console.ActionList:
		return m, listCmd(m.store)
	case console.ActionAdd:
		return m.openForm(action, "Name", "Phone", "Email")
	case console.ActionDelete:
		return m.openForm(action, "Name to delete")
	case console.ActionSearch:
		return m.openForm(action, "Name to search for")
	case console.ActionExit:
		m.quitting = true
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) openForm(action console.Action, labels ...string) (tea.Model, tea.Cmd) {
	m.screen = screenForm
	m.action = action
	m.focus = 0
	m.inputs = make([]textinput.Model, len(labels))
	for i, label := range labels {
		ti := textinput.New()
		ti.Prompt = fmt.Sprintf("%-20s", label+":")
		m.inputs[i] = ti
	}
	return m, m.inputs[0].Focus()
}

func (m Model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.screen = screenMenu
		m.inputs = nil
		return m, nil
	case "tab", "down":
		return m.setFocus(m.focus + 1)
	case "shift+tab", "up":
		return m.setFocus(m.focus - 1)
	case "enter":
		if m.focus < len(m.inputs)-1 {
			return m.setFocus(m.focus + 1)
		}
		return m, m.submit()
	}
	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m Model) setFocus(i int) (tea.Model, tea.Cmd) {
	n := len(m.inputs)
	m.inputs[m.focus].Blur()
	m.focus = (i + n) % n
	return m, m.inputs[m.focus].Focus()
}

// submit builds the store command for the open form.
func (m Model) submit() tea.Cmd {
	vals := make([]string, len(m.inputs))
	for i, in := range m.inputs {
		vals[i] = in.Value()
	}
	switch m.action {
	case console.ActionAdd:
		return addCmd(m.store, vals[0], vals[1], vals[2])
	case console.ActionDelete:
		return deleteCmd(m.store, vals[0])
	case console.ActionSearch:
		return searchCmd(m.store, vals[0])
	}
	return nil
}

func listCmd(s store.Store) tea.Cmd {
	return func() tea.Msg {
		const title = "Contacts"
		recs, err := s.List()
		if err != nil {
			return resultMsg{title: title, err: err}
		}
		if len(recs) == 0 {
			return resultMsg{title: title, lines: []string{"No contacts available"}}
		}
		return resultMsg{title: title, lines: formatRecords(recs)}
	}
}

func addCmd(s store.Store, name, phone, email string) tea.Cmd {
	return func() tea.Msg {
		const title = "Add contact"
		rec, err := s.Add(name, phone, email)
		if err != nil {
			return resultMsg{title: title, err: err}
		}
		return resultMsg{title: title, lines: []string{fmt.Sprintf("Added %s to contacts", rec.Name)}}
	}
}

func deleteCmd(s store.Store, name string) tea.Cmd {
	return func() tea.Msg {
		const title = "Delete contact"
		n, err := s.Delete(name)
		if err != nil {
			return resultMsg{title: title, err: err}
		}
		var b strings.Builder
		console.PrintDeleted(&b, name, n)
		return resultMsg{title: title, lines: []string{strings.TrimSuffix(b.String(), "\n")}}
	}
}

func searchCmd(s store.Store, name string) tea.Cmd {
	return func() tea.Msg {
		title := fmt.Sprintf("Search %q", name)
		found, err := s.Search(name)
		if err != nil {
			return resultMsg{title: title, err: err}
		}
		if len(found) == 0 {
			return resultMsg{title: title, lines: []string{fmt.Sprintf("No contacts found matching %q", name)}}
		}
		return resultMsg{title: title, lines: formatRecords(found)}
	}
}

func formatRecords(recs []store.Record) []string {
	lines := make([]string, len(recs))
	for i, r := range recs {
		lines[i] = console.FormatRecord(r)
	}
	return lines
}

// View renders the current screen.
func (m Model) View() string {
	if m.quitting {
		return "Exiting...\n"
	}
	var b strings.Builder
	switch m.screen {
	case screenMenu:
		b.WriteString(titleStyle.Render("Contacts Manager") + "\n")
		for i, item := range menuItems {
			line := fmt.Sprintf("%d. %s", i+1, item.label)
			if i == m.cursor {
				b.WriteString(selectedStyle.Render("> "+line) + "\n")
			} else {
				b.WriteString("  " + line + "\n")
			}
		}
		if m.status != "" {
			b.WriteString("\n" + statusStyle.Render(m.status) + "\n")
		}
		b.WriteString("\n" + dimStyle.Render("↑/↓ move • enter select • 1-5 choose • q quit") + "\n")

	case screenForm:
		b.WriteString(titleStyle.Render(menuItems[m.cursor].label) + "\n")
		for _, in := range m.inputs {
			b.WriteString(in.View() + "\n")
		}
		b.WriteString("\n" + dimStyle.Render("tab next field • enter submit • esc back") + "\n")

	case screenResult:
		b.WriteString(titleStyle.Render(m.title) + "\n")
		if m.err != nil {
			b.WriteString(errorStyle.Render("Error: "+m.err.Error()) + "\n")
		}
		for _, line := range m.lines {
			b.WriteString(line + "\n")
		}
		b.WriteString("\n" + dimStyle.Render("press any key to return") + "\n")
	}
	return b.String()
}
