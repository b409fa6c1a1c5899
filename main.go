package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kong"
	"github.com/mattn/go-isatty"
	"github.com/tidwall/pretty"

	"github.com/stevemurr/simple-contacts/config"
	"github.com/stevemurr/simple-contacts/console"
	"github.com/stevemurr/simple-contacts/store"
	"github.com/stevemurr/simple-contacts/tui"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Globals are flags shared by every command. They override config files
// and environment variables.
type Globals struct {
	Config  string `help:"Project config file." default:"contacts.yaml" type:"path"`
	Backend string `help:"Store backend: json, sqlite or memory."`
	File    string `short:"f" help:"Contacts file (or database for the sqlite backend)."`
}

// CLI is the top-level command structure for contacts.
type CLI struct {
	Globals

	Version kong.VersionFlag `help:"Show version." short:"V"`
	Shell   ShellCmd         `cmd:"" default:"1" help:"Open the interactive contacts menu."`
	List    ListCmd          `cmd:"" help:"List all contacts."`
	Add     AddCmd           `cmd:"" help:"Add a contact."`
	Delete  DeleteCmd        `cmd:"" help:"Delete every contact with exactly this name."`
	Search  SearchCmd        `cmd:"" help:"Find contacts by name, ignoring case."`
	Init    InitCmd          `cmd:"" help:"Create an empty contacts file if none exists."`
	Serve   ServeCmd         `cmd:"" help:"Serve contacts over HTTP."`
}

// loadConfig loads layered config from user and project paths with env
// overrides, then applies global flags.
func loadConfig(g *Globals) (*config.Config, error) {
	cfg, err := config.LoadLayered(
		os.ExpandEnv("$HOME/.config/contacts/config.yaml"),
		g.Config,
	)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if g.Backend != "" {
		cfg.Store.Backend = g.Backend
	}
	if g.File != "" {
		cfg.Store.Path = g.File
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openStore loads config and opens the configured store. The caller must
// release it with store.Close.
func openStore(g *Globals) (store.Store, error) {
	cfg, err := loadConfig(g)
	if err != nil {
		return nil, err
	}
	return store.New(cfg.Store.Backend, cfg.Store.Path)
}

// withStore opens the store, runs fn and closes the store.
func withStore(g *Globals, fn func(s store.Store) error) error {
	s, err := openStore(g)
	if err != nil {
		return err
	}
	defer store.Close(s)
	return fn(s)
}

// isTerminal reports whether f is connected to a terminal.
func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// ShellCmd runs the interactive menu.
type ShellCmd struct {
	Plain bool `help:"Use the line-based menu even on a terminal."`
}

// Run executes the shell command.
func (c *ShellCmd) Run(g *Globals) error {
	return withStore(g, func(s store.Store) error {
		useTUI := !c.Plain && isTerminal(os.Stdin) && isTerminal(os.Stdout)
		return c.run(os.Stdin, os.Stdout, s, useTUI)
	})
}

// run picks the TUI or the plain shell, enabling testable wiring.
func (c *ShellCmd) run(in io.Reader, out io.Writer, s store.Store, useTUI bool) error {
	if useTUI {
		return tui.Run(s, in, out)
	}
	return console.New(s, in, out).Run()
}

// ListCmd prints every contact.
type ListCmd struct {
	JSON bool `help:"Print contacts as JSON."`
}

// Run executes the list command.
func (c *ListCmd) Run(g *Globals) error {
	return withStore(g, func(s store.Store) error {
		return c.run(os.Stdout, s)
	})
}

func (c *ListCmd) run(w io.Writer, s store.Store) error {
	recs, err := s.List()
	if err != nil {
		return fmt.Errorf("list: %w", err)
	}
	if c.JSON {
		return printJSON(w, recs)
	}
	console.PrintRecords(w, recs)
	return nil
}

// AddCmd appends a contact.
type AddCmd struct {
	Name  string `arg:"" help:"Contact name."`
	Phone string `arg:"" optional:"" help:"Phone number."`
	Email string `arg:"" optional:"" help:"Email address."`
}

// Run executes the add command.
func (c *AddCmd) Run(g *Globals) error {
	return withStore(g, func(s store.Store) error {
		return c.run(os.Stdout, s)
	})
}

func (c *AddCmd) run(w io.Writer, s store.Store) error {
	rec, err := s.Add(c.Name, c.Phone, c.Email)
	if err != nil {
		return fmt.Errorf("add: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Added %s to contacts\n", rec.Name)
	return nil
}

// DeleteCmd removes every contact with an exactly matching name.
type DeleteCmd struct {
	Name string `arg:"" help:"Exact contact name (case-sensitive)."`
}

// Run executes the delete command.
func (c *DeleteCmd) Run(g *Globals) error {
	return withStore(g, func(s store.Store) error {
		return c.run(os.Stdout, s)
	})
}

func (c *DeleteCmd) run(w io.Writer, s store.Store) error {
	n, err := s.Delete(c.Name)
	if err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	console.PrintDeleted(w, c.Name, n)
	return nil
}

// SearchCmd finds contacts by name, ignoring case.
type SearchCmd struct {
	Name string `arg:"" help:"Name to search for (case-insensitive)."`
	JSON bool   `help:"Print matches as JSON."`
}

// Run executes the search command.
func (c *SearchCmd) Run(g *Globals) error {
	return withStore(g, func(s store.Store) error {
		return c.run(os.Stdout, s)
	})
}

func (c *SearchCmd) run(w io.Writer, s store.Store) error {
	found, err := s.Search(c.Name)
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}
	if c.JSON {
		return printJSON(w, found)
	}
	console.PrintFound(w, c.Name, found)
	return nil
}

// InitCmd creates an empty contacts file.
type InitCmd struct{}

// Run executes the init command.
func (c *InitCmd) Run(g *Globals) error {
	cfg, err := loadConfig(g)
	if err != nil {
		return fmt.Errorf("init: %w", err)
	}
	return c.run(os.Stdout, cfg)
}

func (c *InitCmd) run(w io.Writer, cfg *config.Config) error {
	if cfg.Store.Backend != "json" {
		return fmt.Errorf("init: only the json backend uses a contacts file, got %q", cfg.Store.Backend)
	}
	created, err := store.InitJsonFile(cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("init: %w", err)
	}
	if created {
		_, _ = fmt.Fprintf(w, "Created %s\n", cfg.Store.Path)
	} else {
		_, _ = fmt.Fprintf(w, "%s already exists\n", cfg.Store.Path)
	}
	return nil
}

// printJSON writes v as indented JSON, colored when w is a terminal.
func printJSON(w io.Writer, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	b = pretty.Pretty(b)
	if f, ok := w.(*os.File); ok && isTerminal(f) {
		b = pretty.Color(b, nil)
	}
	_, err = w.Write(b)
	return err
}

// exitCode maps errors to process exit codes.
func exitCode(err error) int {
	switch {
	case errors.Is(err, store.ErrStorageUnavailable):
		return 2
	case errors.Is(err, store.ErrPersistenceFailure):
		return 3
	default:
		return 1
	}
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("contacts"),
		kong.Description("Manage contacts kept in a JSON file."),
		kong.UsageOnError(),
		kong.Vars{"version": version + " " + commit + " " + date},
	)
	err := ctx.Run(&cli.Globals)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(exitCode(err))
	}
}
