package contactbook

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/jpalmerr/contactbook/dashboard"
	"github.com/jpalmerr/contactbook/internal/server"
	"github.com/jpalmerr/contactbook/internal/shell"
	"github.com/jpalmerr/contactbook/internal/store"
	"github.com/jpalmerr/contactbook/internal/watch"
)

const defaultPort = 8080

// Book is a persisted contact book.
//
// A Book loads its records once in [Open], keeps them in memory, and rewrites
// persisted storage in full after every successful Add or Delete. It can be
// driven programmatically, through the interactive menu ([Book.RunShell]),
// or over HTTP ([Book.Serve]). All methods are safe for concurrent use.
//
// The typical lifecycle is:
//
//	book, err := contactbook.Open(ctx, contactbook.WithFile("contacts.txt"))
//	if err != nil {
//	    slog.Error("failed to open contact book", "error", err)
//	    os.Exit(1)
//	}
//	defer book.Close()
//
//	book.RunShell(ctx, os.Stdin, os.Stdout)
type Book struct {
	contacts *store.Contacts
	file     string
	title    string
	port     int
	watch    bool
	logger   *slog.Logger
}

// Open creates a [Book] with the given options and loads its records.
//
// Storage defaults to a JSON file named "contacts.txt" in the working
// directory. A missing, unreadable or malformed JSON file yields an empty
// book (the problem is logged, not returned). Errors are returned for
// invalid options and for database backends that cannot be reached.
//
// Example:
//
//	book, err := contactbook.Open(ctx,
//	    contactbook.WithFile("/var/lib/contacts.json"),
//	    contactbook.WithPort(9090),
//	)
func Open(ctx context.Context, opts ...Option) (*Book, error) {
	cfg := &bookConfig{
		driver: DriverJSON,
		port:   defaultPort,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	backend, file, err := openBackend(ctx, cfg)
	if err != nil {
		return nil, err
	}

	contacts := store.Open(ctx, backend, logger)
	if len(cfg.callbacks) > 0 {
		callbacks := cfg.callbacks
		contacts.OnChange(func(ev store.Event) {
			pub := fromStoreEvent(ev)
			for _, cb := range callbacks {
				invokeCallbackSafe(cb, pub, logger)
			}
		})
	}

	return &Book{
		contacts: contacts,
		file:     file,
		title:    cfg.title,
		port:     cfg.port,
		watch:    cfg.watch,
		logger:   logger,
	}, nil
}

// openBackend returns the configured backend and, for the JSON driver, the
// file it uses.
func openBackend(ctx context.Context, cfg *bookConfig) (store.Backend, string, error) {
	switch cfg.driver {
	case DriverJSON:
		f := store.NewJSONFile(cfg.path)
		return f, f.Path(), nil
	case DriverSQLite:
		db, err := store.OpenSQLite(ctx, cfg.path)
		if err != nil {
			return nil, "", err
		}
		return db, "", nil
	case DriverMongo:
		m, err := store.OpenMongo(ctx, cfg.mongoURI, cfg.mongoDB, cfg.mongoColl)
		if err != nil {
			return nil, "", err
		}
		return m, "", nil
	case "":
		return backendAdapter{b: cfg.backend}, "", nil
	default:
		return nil, "", fmt.Errorf("unknown storage driver %q", cfg.driver)
	}
}

// Add inserts a record and rewrites persisted storage.
//
// Returns [ErrEmptyName] for a blank name and [ErrNameConflict] when a
// record with exactly the same name exists; neither changes anything. A
// [*SaveError] means the record was added in memory but not persisted.
func (b *Book) Add(ctx context.Context, r Record) error {
	return b.contacts.Add(ctx, toStoreRecord(r))
}

// Get returns the record whose name matches exactly.
func (b *Book) Get(name string) (Record, bool) {
	r, ok := b.contacts.Get(name)
	return fromStoreRecord(r), ok
}

// Search returns the first record, in insertion order, whose name matches
// ignoring case.
func (b *Book) Search(name string) (Record, bool) {
	r, ok := b.contacts.Search(name)
	return fromStoreRecord(r), ok
}

// Delete removes the record whose name matches exactly and rewrites
// persisted storage. Returns [ErrNotFound] when nothing matches.
func (b *Book) Delete(ctx context.Context, name string) error {
	return b.contacts.Delete(ctx, name)
}

// List returns all records in insertion order.
//
// The returned slice is a copy; modifying it does not affect the Book.
func (b *Book) List() []Record {
	return fromStoreRecords(b.contacts.List())
}

// Len returns the number of records.
func (b *Book) Len() int {
	return b.contacts.Len()
}

// Save rewrites persisted storage with the current records.
func (b *Book) Save(ctx context.Context) error {
	return b.contacts.Save(ctx)
}

// Reload replaces the records with what persisted storage currently holds.
// On failure the current records are kept and the error is returned.
func (b *Book) Reload(ctx context.Context) error {
	return b.contacts.Reload(ctx)
}

// Port returns the configured HTTP port for [Book.Serve].
func (b *Book) Port() int {
	return b.port
}

// Title returns the dashboard title, or "" when the default is used.
func (b *Book) Title() string {
	return b.title
}

// File returns the JSON file backing the Book, or "" for other storage.
func (b *Book) File() string {
	return b.file
}

// RunShell runs the interactive menu, reading choices from in and writing
// prompts and results to out.
//
// RunShell blocks until the user chooses exit, in reaches end of input, or
// ctx is cancelled. Menu errors are printed and never end the loop.
func (b *Book) RunShell(ctx context.Context, in io.Reader, out io.Writer) error {
	return shell.New(b.contacts, in, out, b.logger).Run(ctx)
}

// Serve runs the HTTP API and dashboard until ctx is cancelled.
//
// When watching is enabled and the Book uses a JSON file, edits made to the
// file by other programs are loaded while serving.
//
// Returns nil on graceful shutdown. Returns an error if the HTTP server or
// the file watcher fails to start.
func (b *Book) Serve(ctx context.Context) error {
	if ctx.Err() != nil {
		return nil
	}

	// cancel runs before wg.Wait so the watcher stops on every return path
	var wg sync.WaitGroup
	defer wg.Wait()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if b.watch && b.file != "" {
		w, err := watch.New(b.file, b.contacts, b.logger)
		if err != nil {
			return fmt.Errorf("failed to watch contacts file: %w", err)
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.Run(ctx)
		}()
	}

	srv := server.NewServer(b.contacts, b.port, dashboard.Assets, b.title, b.logger)
	done, err := srv.Start(ctx)
	if err != nil {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	b.logger.Info("dashboard available", "url", fmt.Sprintf("http://localhost:%d", b.port), "contacts", b.Len())

	<-done
	b.logger.Info("contactbook stopped")
	return nil
}

// Close releases the storage backend.
func (b *Book) Close() error {
	return b.contacts.Close()
}

// invokeCallbackSafe calls a change callback with panic recovery.
// Panics are logged but do not propagate.
func invokeCallbackSafe(cb func(Event), ev Event, logger *slog.Logger) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("change callback panicked",
				"panic", r,
				"op", ev.Op,
				"name", ev.Record.Name,
			)
		}
	}()
	cb(ev)
}
