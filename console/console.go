// Package console implements the line-oriented contacts shell used when
// stdin/stdout are not a terminal, and the record printers shared with the
// one-shot commands.
package console

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/stevemurr/simple-contacts/store"
)

// Action is a menu selection.
type Action int

const (
	ActionInvalid Action = iota
	ActionAdd
	ActionList
	ActionDelete
	ActionSearch
	ActionExit
)

const menu = `Contacts Manager:
  1. Add contact
  2. View contacts
  3. Delete contact
  4. Search contacts
  5. Exit
`

// ParseAction maps a menu number or command word to an Action.
func ParseAction(s string) Action {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "add":
		return ActionAdd
	case "2", "list", "view":
		return ActionList
	case "3", "delete", "del", "rm":
		return ActionDelete
	case "4", "search", "find":
		return ActionSearch
	case "5", "exit", "quit", "q":
		return ActionExit
	}
	return ActionInvalid
}

// Shell runs the interactive menu loop against a store.
type Shell struct {
	store store.Store
	in    *bufio.Reader
	out   io.Writer
	err   error // first read error other than io.EOF
}

// New creates a Shell reading commands from r and writing to w.
func New(s store.Store, r io.Reader, w io.Writer) *Shell {
	return &Shell{store: s, in: bufio.NewReader(r), out: w}
}

// Run loops until the user exits or input ends. Store errors are reported
// and the loop continues; only a read error on the input is returned.
func (sh *Shell) Run() error {
	for {
		fmt.Fprint(sh.out, "\n"+menu)
		choice, ok := sh.prompt("Choose an option (1/2/3/4/5): ")
		if !ok {
			fmt.Fprintln(sh.out)
			return sh.err
		}

		var err error
		switch ParseAction(choice) {
		case ActionAdd:
			err = sh.add()
		case ActionList:
			err = sh.list()
		case ActionDelete:
			err = sh.delete()
		case ActionSearch:
			err = sh.search()
		case ActionExit:
			fmt.Fprintln(sh.out, "Exiting...")
			return nil
		default:
			fmt.Fprintf(sh.out, "Enter a valid choice, got %q\n", choice)
			continue
		}

		if errors.Is(err, io.EOF) {
			fmt.Fprintln(sh.out)
			return sh.err
		}
		if err != nil {
			fmt.Fprintf(sh.out, "error: %v\n", err)
		}
	}
}

// prompt writes label and reads one line. ok is false at end of input.
// Field values are kept as typed apart from the line ending, and lines have
// no length limit. A final line without a newline still counts.
func (sh *Shell) prompt(label string) (string, bool) {
	fmt.Fprint(sh.out, label)
	line, err := sh.in.ReadString('\n')
	if err != nil {
		if !errors.Is(err, io.EOF) && sh.err == nil {
			sh.err = err
		}
		if line == "" {
			return "", false
		}
	}
	line = strings.TrimSuffix(line, "\n")
	return strings.TrimSuffix(line, "\r"), true
}

// ask reads a field, turning end of input into io.EOF.
func (sh *Shell) ask(label string) (string, error) {
	v, ok := sh.prompt(label)
	if !ok {
		return "", io.EOF
	}
	return v, nil
}

func (sh *Shell) add() error {
	name, err := sh.ask("Enter name: ")
	if err != nil {
		return err
	}
	phone, err := sh.ask("Enter phone: ")
	if err != nil {
		return err
	}
	email, err := sh.ask("Enter email: ")
	if err != nil {
		return err
	}
	rec, err := sh.store.Add(name, phone, email)
	if err != nil {
		return err
	}
	fmt.Fprintf(sh.out, "Added %s to contacts\n", rec.Name)
	return nil
}

func (sh *Shell) list() error {
	recs, err := sh.store.List()
	if err != nil {
		return err
	}
	PrintRecords(sh.out, recs)
	return nil
}

func (sh *Shell) delete() error {
	name, err := sh.ask("Enter contact name to delete: ")
	if err != nil {
		return err
	}
	n, err := sh.store.Delete(name)
	if err != nil {
		return err
	}
	PrintDeleted(sh.out, name, n)
	return nil
}

func (sh *Shell) search() error {
	name, err := sh.ask("Enter the name to search for: ")
	if err != nil {
		return err
	}
	found, err := sh.store.Search(name)
	if err != nil {
		return err
	}
	PrintFound(sh.out, name, found)
	return nil
}

// FormatRecord renders one record on a single line.
func FormatRecord(r store.Record) string {
	return fmt.Sprintf("Name: %s, Phone: %s, Email: %s", r.Name, r.Phone, r.Email)
}

// PrintRecords prints every record, or a notice when there are none.
func PrintRecords(w io.Writer, recs []store.Record) {
	if len(recs) == 0 {
		fmt.Fprintln(w, "No contacts available")
		return
	}
	for _, r := range recs {
		fmt.Fprintln(w, FormatRecord(r))
	}
}

// PrintFound prints search results for name.
func PrintFound(w io.Writer, name string, found []store.Record) {
	if len(found) == 0 {
		fmt.Fprintf(w, "No contacts found matching %q\n", name)
		return
	}
	for _, r := range found {
		fmt.Fprintf(w, "Found %s\n", FormatRecord(r))
	}
}

// PrintDeleted reports the outcome of deleting name.
func PrintDeleted(w io.Writer, name string, n int) {
	switch n {
	case 0:
		fmt.Fprintf(w, "No contact named %q\n", name)
	case 1:
		fmt.Fprintf(w, "Deleted contact: %s\n", name)
	default:
		fmt.Fprintf(w, "Deleted %d contacts named %s\n", n, name)
	}
}
