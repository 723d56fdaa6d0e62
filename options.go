package contactbook

import (
	"errors"
	"log/slog"

	"github.com/jpalmerr/contactbook/internal/store"
)

// Storage drivers accepted by [Open].
const (
	DriverJSON   = "json"
	DriverSQLite = "sqlite"
	DriverMongo  = "mongo"
)

// bookConfig holds mutable state during Book construction.
type bookConfig struct {
	driver    string
	path      string
	mongoURI  string
	mongoDB   string
	mongoColl string
	backend   Backend
	title     string
	port      int
	watch     bool
	logger    *slog.Logger
	callbacks []func(Event)
}

// Option is a function that configures a [Book] during [Open].
//
// Options return an error if validation fails.
//
// Built-in options: [WithFile], [WithSQLite], [WithMongo], [WithBackend],
// [WithLogger], [WithChangeCallback], [WithPort], [WithTitle], [WithWatch].
type Option func(*bookConfig) error

// WithFile stores contacts as a JSON document at path.
//
// This is the default storage, using "contacts.txt" in the working directory
// when no storage option is given. An empty path keeps that default.
func WithFile(path string) Option {
	return func(cfg *bookConfig) error {
		if path == "" {
			path = store.DefaultFile
		}
		cfg.driver = DriverJSON
		cfg.path = path
		return nil
	}
}

// WithSQLite stores contacts in a SQLite database at path.
//
// Returns an error if path is empty.
func WithSQLite(path string) Option {
	return func(cfg *bookConfig) error {
		if path == "" {
			return errors.New("sqlite path cannot be empty")
		}
		cfg.driver = DriverSQLite
		cfg.path = path
		return nil
	}
}

// WithMongo stores contacts in a MongoDB collection.
//
// Example:
//
//	book, err := contactbook.Open(ctx,
//	    contactbook.WithMongo("mongodb://localhost:27017", "contactbook", "contacts"),
//	)
//
// Returns an error if any argument is empty.
func WithMongo(uri, database, collection string) Option {
	return func(cfg *bookConfig) error {
		if uri == "" || database == "" || collection == "" {
			return errors.New("mongo uri, database and collection are required")
		}
		cfg.driver = DriverMongo
		cfg.path = ""
		cfg.mongoURI = uri
		cfg.mongoDB = database
		cfg.mongoColl = collection
		return nil
	}
}

// WithBackend stores contacts in a custom [Backend].
//
// The Book takes ownership of b and closes it in [Book.Close].
// Returns an error if b is nil.
func WithBackend(b Backend) Option {
	return func(cfg *bookConfig) error {
		if b == nil {
			return errors.New("backend cannot be nil")
		}
		cfg.driver = ""
		cfg.path = ""
		cfg.backend = b
		return nil
	}
}

// WithLogger sets a custom [slog.Logger] for the Book.
//
// If not specified, [slog.Default] is used.
// Returns an error if the logger is nil.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *bookConfig) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		cfg.logger = logger
		return nil
	}
}

// WithChangeCallback registers a function called after every change.
//
// Callbacks run synchronously on the goroutine that made the change, after
// the change has been applied in memory and a save attempted. They execute
// in registration order. Panics within callbacks are recovered and logged.
//
// Example:
//
//	book, err := contactbook.Open(ctx,
//	    contactbook.WithChangeCallback(func(ev contactbook.Event) {
//	        log.Printf("%s %s", ev.Op, ev.Record.Name)
//	    }),
//	)
//
// Nil callbacks are silently ignored.
func WithChangeCallback(cb func(Event)) Option {
	return func(cfg *bookConfig) error {
		if cb == nil {
			return nil
		}
		cfg.callbacks = append(cfg.callbacks, cb)
		return nil
	}
}

// WithPort sets the HTTP port used by [Book.Serve]. Defaults to 8080.
//
// Returns an error if the port is outside the valid range (1-65535).
func WithPort(port int) Option {
	return func(cfg *bookConfig) error {
		if port < 1 || port > 65535 {
			return errors.New("port must be between 1 and 65535")
		}
		cfg.port = port
		return nil
	}
}

// WithTitle sets the dashboard and API title. Defaults to "Contacts".
func WithTitle(title string) Option {
	return func(cfg *bookConfig) error {
		cfg.title = title
		return nil
	}
}

// WithWatch controls whether [Book.Serve] reloads the contacts when the JSON
// file is changed by another program. It has no effect on other storage.
// Defaults to false.
func WithWatch(enabled bool) Option {
	return func(cfg *bookConfig) error {
		cfg.watch = enabled
		return nil
	}
}
