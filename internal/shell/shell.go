// Package shell implements the interactive contact book menu.
//
// The loop reads one line at a time, dispatches the chosen operation to a
// [store.Store] and prints the outcome. Every error is reported to the user
// and the loop continues; only the exit choice or the end of input stops it.
package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/jpalmerr/contactbook/internal/store"
)

// Menu choices.
const (
	choiceAdd    = "1"
	choiceView   = "2"
	choiceSearch = "3"
	choiceDelete = "4"
	choiceExit   = "5"
)

const menu = `
--- Contact Book Menu ---
1. Add new contact
2. View all contacts
3. Search for a contact by name
4. Delete a contact
5. Exit
`

// Shell runs the menu loop over a reader and a writer.
type Shell struct {
	store  store.Store
	in     *bufio.Reader
	out    io.Writer
	err    error // first read error other than io.EOF
	logger *slog.Logger
}

// New returns a Shell reading commands from in and writing to out.
func New(st store.Store, in io.Reader, out io.Writer, logger *slog.Logger) *Shell {
	if logger == nil {
		logger = slog.Default()
	}
	return &Shell{
		store:  st,
		in:     bufio.NewReader(in),
		out:    out,
		logger: logger.With("session", uuid.NewString()),
	}
}

// Run shows the menu until the user exits, input ends, or ctx is cancelled.
//
// Exiting never writes persisted state; every mutation has already been
// saved by the store.
func (s *Shell) Run(ctx context.Context) error {
	s.logger.Debug("shell started", "contacts", s.store.Len())

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		fmt.Fprint(s.out, menu)
		choice, ok := s.prompt("Choose an option (1-5): ")
		if !ok {
			// end of input behaves like choosing exit
			fmt.Fprintln(s.out)
			s.logger.Debug("shell input closed")
			return s.err
		}

		switch choice {
		case choiceAdd:
			s.add(ctx)
		case choiceView:
			s.view()
		case choiceSearch:
			s.search()
		case choiceDelete:
			s.delete(ctx)
		case choiceExit:
			fmt.Fprintln(s.out, "Goodbye!")
			s.logger.Debug("shell exited")
			return nil
		default:
			fmt.Fprintln(s.out, "Invalid option. Please enter 1, 2, 3, 4, or 5.")
		}
	}
}

// prompt prints label and returns the next trimmed input line. Lines have no
// length limit; a final line without a newline still counts.
func (s *Shell) prompt(label string) (string, bool) {
	fmt.Fprint(s.out, label)
	line, err := s.in.ReadString('\n')
	if err != nil {
		if !errors.Is(err, io.EOF) {
			s.err = err
			return "", false
		}
		if line == "" {
			return "", false
		}
	}
	return strings.TrimSpace(line), true
}

func (s *Shell) add(ctx context.Context) {
	name, ok := s.prompt("Enter name: ")
	if !ok {
		return
	}
	if name == "" {
		fmt.Fprintln(s.out, "Name cannot be empty.")
		return
	}
	// checked before asking for the remaining fields
	if _, exists := s.store.Get(name); exists {
		fmt.Fprintln(s.out, "A contact with that name already exists.")
		return
	}
	phone, ok := s.prompt("Enter phone: ")
	if !ok {
		return
	}
	email, ok := s.prompt("Enter email: ")
	if !ok {
		return
	}

	err := s.store.Add(ctx, store.Record{Name: name, Phone: phone, Email: email})
	switch {
	case err == nil:
		fmt.Fprintln(s.out, "Contact added successfully.")
		s.logger.Info("contact added", "name", name)
	case errors.Is(err, store.ErrNameConflict):
		fmt.Fprintln(s.out, "A contact with that name already exists.")
	default:
		fmt.Fprintf(s.out, "Error adding contact: %v\n", err)
		s.logger.Warn("add failed", "name", name, "error", err)
	}
}

func (s *Shell) view() {
	records := s.store.List()
	if len(records) == 0 {
		fmt.Fprintln(s.out, "No contacts yet.")
		return
	}
	fmt.Fprintln(s.out, "\n--- All contacts ---")
	for _, r := range records {
		fmt.Fprintf(s.out, "  %s: phone=%s, email=%s\n", r.Name, r.Phone, r.Email)
	}
	fmt.Fprintln(s.out)
}

func (s *Shell) search() {
	name, ok := s.prompt("Enter name to search: ")
	if !ok {
		return
	}
	if name == "" {
		fmt.Fprintln(s.out, "Please enter a name.")
		return
	}
	r, found := s.store.Search(name)
	if !found {
		fmt.Fprintln(s.out, "No contact found with that name.")
		return
	}
	fmt.Fprintf(s.out, "Found: %s - phone=%s, email=%s\n", r.Name, r.Phone, r.Email)
}

func (s *Shell) delete(ctx context.Context) {
	name, ok := s.prompt("Enter name to delete: ")
	if !ok {
		return
	}
	if name == "" {
		fmt.Fprintln(s.out, "Please enter a name.")
		return
	}

	err := s.store.Delete(ctx, name)
	switch {
	case err == nil:
		fmt.Fprintln(s.out, "Contact deleted.")
		s.logger.Info("contact deleted", "name", name)
	case errors.Is(err, store.ErrNotFound):
		fmt.Fprintln(s.out, "No contact found with that name.")
	default:
		fmt.Fprintf(s.out, "Error deleting contact: %v\n", err)
		s.logger.Warn("delete failed", "name", name, "error", err)
	}
}
