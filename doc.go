// Package contactbook provides a small persistent contact book: named
// records with a phone number and an email address, saved after every change.
//
// Contactbook is designed as an SDK-first library. The same [Book] can be
// driven from Go code, through the numbered interactive menu, or over a REST
// API with a live dashboard. Configuration follows the functional options
// pattern.
//
// # Quick Start
//
// Open a book backed by a JSON file and run the menu on the terminal:
//
//	book, err := contactbook.Open(ctx, contactbook.WithFile("contacts.txt"))
//	if err != nil {
//	    return err
//	}
//	defer book.Close()
//
//	book.RunShell(ctx, os.Stdin, os.Stdout) // blocks until the user exits
//
// # Records
//
// Names are unique and compared exactly when adding or deleting, so "alice"
// and "Alice" can coexist. [Book.Search] ignores case and returns the first
// match in insertion order. Phone and email are free text.
//
// Add and Delete report problems through sentinel errors:
//
//   - [ErrEmptyName]: the name is blank
//   - [ErrNameConflict]: a record with exactly that name exists
//   - [ErrNotFound]: no record has exactly that name
//
// A [*SaveError] means the change was applied in memory but storage could not
// be rewritten; [Book.Save] retries.
//
// # Storage
//
// The default storage is a JSON object in "contacts.txt", keyed by name in
// insertion order and indented with two spaces:
//
//	{
//	  "Alice": {
//	    "phone": "555-0100",
//	    "email": "alice@example.com"
//	  }
//	}
//
// A missing or malformed file yields an empty book. Other storage is selected
// with [WithSQLite], [WithMongo] or a custom [Backend] via [WithBackend].
//
// # Serving
//
// [Book.Serve] exposes the records over HTTP until its context is cancelled:
//
//	book, _ := contactbook.Open(ctx,
//	    contactbook.WithPort(9090),
//	    contactbook.WithWatch(true),
//	)
//	book.Serve(ctx)
//
// The API lives under /api (list, search, add and delete contacts, plus a
// Server-Sent Events stream of changes), the dashboard at /, Prometheus
// metrics at /metrics and an OpenAPI document at /openapi.json. With
// [WithWatch], edits made to the JSON file by other programs are loaded live.
//
// # Architecture
//
// Contactbook consists of several internal packages (under internal/):
//
//   - internal/store: In-memory records with pub/sub over pluggable backends
//   - internal/shell: The numbered interactive menu
//   - internal/server: REST API, Server-Sent Events and metrics
//   - internal/watch: Reloads the JSON file when it changes on disk
//   - internal/logging: Logger construction for the binary
//   - dashboard: Embedded web UI assets
//
// The internal packages are not part of the public API and may change
// without notice.
package contactbook
