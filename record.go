package contactbook

import (
	"context"
	"time"

	"github.com/jpalmerr/contactbook/internal/store"
)

// Record is a single named contact.
//
// Name is the unique key and keeps the casing used when the record was
// added. Phone and Email are free text and may be empty.
type Record struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
}

// Op identifies the kind of change carried by an [Event].
type Op string

const (
	// OpAdd reports a record that was added.
	OpAdd Op = "add"

	// OpDelete reports a record that was removed.
	OpDelete Op = "delete"

	// OpReload reports that all records were replaced from persisted storage,
	// for example after the contacts file was edited by hand. Record is empty.
	OpReload Op = "reload"
)

// Event describes a change to the contact book, delivered to callbacks
// registered with [WithChangeCallback].
type Event struct {
	Op     Op
	Record Record
	At     time.Time
}

// Errors returned by [Book] operations. Use [errors.Is] to test for them.
var (
	// ErrEmptyName is returned by Add when the name is blank.
	ErrEmptyName = store.ErrEmptyName

	// ErrNameConflict is returned by Add when the exact name already exists.
	ErrNameConflict = store.ErrNameConflict

	// ErrNotFound is returned by Delete when no name matches exactly.
	ErrNotFound = store.ErrNotFound

	// ErrMalformed is wrapped by Reload when persisted state cannot be decoded.
	ErrMalformed = store.ErrMalformed
)

// SaveError reports that persisted storage could not be rewritten. The
// in-memory contact book still reflects the change; call [Book.Save] to retry.
type SaveError = store.SaveError

// IsValidation reports whether err rejects the input itself rather than
// reflecting a lookup miss or an I/O failure.
func IsValidation(err error) bool {
	return store.IsValidation(err)
}

// Backend is persisted storage for the full set of records, for use with
// [WithBackend].
//
// Load returns records in their persisted order; a store that does not exist
// yet yields no records and no error. Save replaces everything previously
// persisted.
type Backend interface {
	Load(ctx context.Context) ([]Record, error)
	Save(ctx context.Context, records []Record) error
	Close() error
}

// backendAdapter exposes a public [Backend] as a store.Backend.
type backendAdapter struct {
	b Backend
}

func (a backendAdapter) Load(ctx context.Context) ([]store.Record, error) {
	records, err := a.b.Load(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]store.Record, len(records))
	for i, r := range records {
		out[i] = toStoreRecord(r)
	}
	return out, nil
}

func (a backendAdapter) Save(ctx context.Context, records []store.Record) error {
	return a.b.Save(ctx, fromStoreRecords(records))
}

func (a backendAdapter) Close() error {
	return a.b.Close()
}

func toStoreRecord(r Record) store.Record {
	return store.Record{Name: r.Name, Phone: r.Phone, Email: r.Email}
}

func fromStoreRecord(r store.Record) Record {
	return Record{Name: r.Name, Phone: r.Phone, Email: r.Email}
}

func fromStoreRecords(records []store.Record) []Record {
	out := make([]Record, len(records))
	for i, r := range records {
		out[i] = fromStoreRecord(r)
	}
	return out
}

func fromStoreEvent(ev store.Event) Event {
	return Event{Op: Op(ev.Op), Record: fromStoreRecord(ev.Record), At: ev.At}
}
