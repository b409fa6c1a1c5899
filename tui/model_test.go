package tui

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/exp/teatest"

	"github.com/stevemurr/simple-contacts/console"
	"github.com/stevemurr/simple-contacts/store"
)

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

var (
	keyEnter = tea.KeyMsg{Type: tea.KeyEnter}
	keyEsc   = tea.KeyMsg{Type: tea.KeyEsc}
	keyDown  = tea.KeyMsg{Type: tea.KeyDown}
	keyUp    = tea.KeyMsg{Type: tea.KeyUp}
)

// press feeds msg to m and applies the result of any store command it
// starts. Cursor blink commands take far longer than the timeout and are
// dropped.
func press(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, cmd := m.Update(msg)
	m = next.(Model)
	if cmd == nil {
		return m
	}
	done := make(chan tea.Msg, 1)
	go func() { done <- cmd() }()
	select {
	case out := <-done:
		if res, ok := out.(resultMsg); ok {
			next, _ = m.Update(res)
			m = next.(Model)
		}
	case <-time.After(50 * time.Millisecond):
	}
	return m
}

func typeText(t *testing.T, m Model, s string) Model {
	t.Helper()
	for _, r := range s {
		m = press(t, m, keyRunes(string(r)))
	}
	return m
}

func TestNewModel_StartsOnMenu(t *testing.T) {
	m := New(store.NewMemoryStore())
	if m.screen != screenMenu {
		t.Fatalf("screen = %v, want menu", m.screen)
	}
	if m.cursor != 0 {
		t.Errorf("cursor = %d, want 0", m.cursor)
	}
	if !strings.Contains(m.View(), "Contacts Manager") {
		t.Errorf("menu view missing title:\n%s", m.View())
	}
}

func TestModel_CursorWraps(t *testing.T) {
	m := New(store.NewMemoryStore())
	m = press(t, m, keyUp)
	if m.cursor != len(menuItems)-1 {
		t.Fatalf("cursor = %d, want %d", m.cursor, len(menuItems)-1)
	}
	m = press(t, m, keyDown)
	if m.cursor != 0 {
		t.Fatalf("cursor = %d, want 0", m.cursor)
	}
}

func TestModel_InvalidChoiceShowsStatus(t *testing.T) {
	m := New(store.NewMemoryStore())
	m = press(t, m, keyRunes("9"))
	if m.screen != screenMenu {
		t.Fatalf("screen = %v, want menu", m.screen)
	}
	if !strings.Contains(m.View(), "Enter a valid choice") {
		t.Errorf("expected invalid choice notice:\n%s", m.View())
	}
	// the next valid key clears it
	m = press(t, m, keyDown)
	if m.status != "" {
		t.Errorf("status = %q, want empty", m.status)
	}
}

func TestModel_AddContact(t *testing.T) {
	s := store.NewMemoryStore()
	m := New(s)

	m = press(t, m, keyRunes("1"))
	if m.screen != screenForm || len(m.inputs) != 3 {
		t.Fatalf("expected 3-field form, got screen %v with %d inputs", m.screen, len(m.inputs))
	}
	m = typeText(t, m, "Alice")
	m = press(t, m, keyEnter)
	m = typeText(t, m, "555-1234")
	m = press(t, m, keyEnter)
	m = typeText(t, m, "alice@example.com")
	m = press(t, m, keyEnter)

	if m.screen != screenResult {
		t.Fatalf("screen = %v, want result", m.screen)
	}
	if !strings.Contains(m.View(), "Added Alice to contacts") {
		t.Errorf("expected confirmation:\n%s", m.View())
	}
	recs, _ := s.List()
	want := store.Record{Name: "Alice", Phone: "555-1234", Email: "alice@example.com"}
	if len(recs) != 1 || recs[0] != want {
		t.Fatalf("records = %+v, want [%+v]", recs, want)
	}

	// any key returns to the menu
	m = press(t, m, keyEnter)
	if m.screen != screenMenu {
		t.Fatalf("screen = %v, want menu", m.screen)
	}
}

func TestModel_ListEmptyAndFilled(t *testing.T) {
	s := store.NewMemoryStore()
	m := press(t, New(s), keyRunes("2"))
	if !strings.Contains(m.View(), "No contacts available") {
		t.Errorf("expected empty notice:\n%s", m.View())
	}

	s.Add("Bob", "1", "bob@x.com")
	m = press(t, m, keyEsc)
	m = press(t, m, keyRunes("2"))
	if !strings.Contains(m.View(), "Name: Bob, Phone: 1, Email: bob@x.com") {
		t.Errorf("expected Bob listed:\n%s", m.View())
	}
}

func TestModel_SearchAndDelete(t *testing.T) {
	s := store.NewMemoryStore(store.Record{Name: "Alice", Phone: "1", Email: "a@x.com"})
	m := New(s)

	m = press(t, m, keyRunes("4"))
	m = typeText(t, m, "ALICE")
	m = press(t, m, keyEnter)
	if !strings.Contains(m.View(), "Name: Alice") {
		t.Errorf("expected Alice found:\n%s", m.View())
	}

	m = press(t, m, keyEnter)
	m = press(t, m, keyRunes("3"))
	m = typeText(t, m, "alice")
	m = press(t, m, keyEnter)
	if !strings.Contains(m.View(), `No contact named "alice"`) {
		t.Errorf("expected case-sensitive miss:\n%s", m.View())
	}

	m = press(t, m, keyEnter)
	m = press(t, m, keyRunes("3"))
	m = typeText(t, m, "Alice")
	m = press(t, m, keyEnter)
	if !strings.Contains(m.View(), "Deleted contact: Alice") {
		t.Errorf("expected deletion:\n%s", m.View())
	}
	if recs, _ := s.List(); len(recs) != 0 {
		t.Fatalf("records = %+v, want none", recs)
	}
}

func TestModel_EscLeavesFormWithoutChanges(t *testing.T) {
	s := store.NewMemoryStore()
	m := New(s)
	m = press(t, m, keyRunes("1"))
	m = typeText(t, m, "Half")
	m = press(t, m, keyEsc)
	if m.screen != screenMenu {
		t.Fatalf("screen = %v, want menu", m.screen)
	}
	if recs, _ := s.List(); len(recs) != 0 {
		t.Fatalf("records = %+v, want none", recs)
	}
}

func TestModel_FormFocusCycles(t *testing.T) {
	m := press(t, New(store.NewMemoryStore()), keyRunes("1"))
	m = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	if m.focus != 1 {
		t.Fatalf("focus = %d, want 1", m.focus)
	}
	m = press(t, m, tea.KeyMsg{Type: tea.KeyShiftTab})
	m = press(t, m, tea.KeyMsg{Type: tea.KeyShiftTab})
	if m.focus != 2 {
		t.Fatalf("focus = %d, want 2", m.focus)
	}
}

type failingStore struct {
	store.MemoryStore
}

func (f *failingStore) Add(name, phone, email string) (store.Record, error) {
	return store.Record{}, errors.New("store: persistence failure: writing contacts.json: read-only file system")
}

func TestModel_StoreErrorShown(t *testing.T) {
	m := New(&failingStore{})
	m = press(t, m, keyRunes("1"))
	m = typeText(t, m, "Alice")
	m = press(t, m, keyEnter)
	m = press(t, m, keyEnter)
	m = press(t, m, keyEnter)
	if m.err == nil {
		t.Fatal("expected error on model")
	}
	if !strings.Contains(m.View(), "Error: store: persistence failure") {
		t.Errorf("expected error in view:\n%s", m.View())
	}
}

func TestModel_ExitKeys(t *testing.T) {
	for _, msg := range []tea.KeyMsg{keyRunes("5"), keyRunes("q"), keyEsc, {Type: tea.KeyCtrlC}} {
		next, cmd := New(store.NewMemoryStore()).Update(msg)
		m := next.(Model)
		if !m.quitting {
			t.Errorf("%q: expected quitting", msg.String())
		}
		if cmd == nil {
			t.Fatalf("%q: expected quit command", msg.String())
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Errorf("%q: expected tea.QuitMsg", msg.String())
		}
	}
}

func TestModel_ChooseMatchesConsoleActions(t *testing.T) {
	// menu numbers line up with the plain shell
	for i, item := range menuItems {
		if got := console.ParseAction(string(rune('1' + i))); got != item.action {
			t.Errorf("item %d (%s): console action %v, want %v", i+1, item.label, got, item.action)
		}
	}
}

// TestModel_Teatest_AddThenExit drives the full program through teatest.
func TestModel_Teatest_AddThenExit(t *testing.T) {
	s := store.NewMemoryStore()
	tm := teatest.NewTestModel(t, New(s), teatest.WithInitialTermSize(80, 24))

	tm.Type("1")
	tm.Type("Alice")
	tm.Send(keyEnter)
	tm.Type("555-1234")
	tm.Send(keyEnter)
	tm.Type("alice@example.com")
	tm.Send(keyEnter)

	teatest.WaitFor(t, tm.Output(), func(bts []byte) bool {
		return bytes.Contains(bts, []byte("Added Alice to contacts"))
	}, teatest.WithDuration(3*time.Second))

	tm.Send(keyEnter)
	tm.Type("5")
	tm.WaitFinished(t, teatest.WithFinalTimeout(3*time.Second))

	final := tm.FinalModel(t).(Model)
	if !final.quitting {
		t.Error("final model should be quitting")
	}
	recs, _ := s.List()
	if len(recs) != 1 || recs[0].Name != "Alice" {
		t.Fatalf("records = %+v, want Alice", recs)
	}
}
