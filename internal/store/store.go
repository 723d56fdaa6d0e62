package store

import (
	"context"
	"errors"
	"time"
)

// Record is a single named contact.
type Record struct {
	// Name is the unique key, stored with the casing used at creation.
	Name string `json:"name"`

	// Phone is the contact phone number, free text.
	Phone string `json:"phone"`

	// Email is the contact email address, free text.
	Email string `json:"email"`
}

// Op identifies the kind of change carried by an [Event].
type Op string

const (
	// OpAdd reports a record that was added.
	OpAdd Op = "add"

	// OpDelete reports a record that was removed.
	OpDelete Op = "delete"

	// OpReload reports that the records were replaced from persisted storage.
	OpReload Op = "reload"

	// OpSnapshot is used by consumers to replay existing records to a new
	// subscriber. The store itself never emits it.
	OpSnapshot Op = "snapshot"
)

// Event describes a change to the store.
type Event struct {
	Op     Op        `json:"op"`
	Record Record    `json:"record"`
	At     time.Time `json:"at"`
}

var (
	// ErrEmptyName is returned when a record has a blank name.
	ErrEmptyName = errors.New("name cannot be empty")

	// ErrNameConflict is returned when a record with the exact same name exists.
	ErrNameConflict = errors.New("a contact with that name already exists")

	// ErrNotFound is returned when no record matches the given name.
	ErrNotFound = errors.New("no contact found with that name")

	// ErrMalformed is wrapped by backends when persisted state cannot be decoded.
	ErrMalformed = errors.New("persisted contacts are malformed")
)

// SaveError reports that persisted storage could not be rewritten.
//
// The in-memory state still reflects the mutation that triggered the save.
type SaveError struct {
	Err error
}

func (e *SaveError) Error() string {
	return "failed to save contacts: " + e.Err.Error()
}

func (e *SaveError) Unwrap() error {
	return e.Err
}

// IsValidation reports whether err rejects the input itself rather than
// reflecting a lookup miss or an I/O failure.
func IsValidation(err error) bool {
	return errors.Is(err, ErrEmptyName) || errors.Is(err, ErrNameConflict)
}

// Store defines the record operations shared by the menu loop, the HTTP
// server and the library facade.
//
// Implementations must be safe for concurrent access.
type Store interface {
	// Add inserts a record and rewrites persisted storage.
	Add(ctx context.Context, r Record) error

	// Get returns the record whose name matches exactly.
	Get(name string) (Record, bool)

	// Search returns the first record whose name matches case-insensitively.
	Search(name string) (Record, bool)

	// Delete removes the record whose name matches exactly and rewrites
	// persisted storage.
	Delete(ctx context.Context, name string) error

	// List returns all records in insertion order.
	List() []Record

	// Len returns the number of records.
	Len() int

	// Subscribe returns a channel that receives change events.
	// Caller must call Unsubscribe when done to prevent resource leaks.
	Subscribe() <-chan Event

	// Unsubscribe removes a subscription and closes the channel.
	Unsubscribe(ch <-chan Event)
}

// Backend is persisted storage for the full set of records.
//
// Load returns records in their persisted order; a missing store yields no
// records and no error. Save replaces everything previously persisted.
type Backend interface {
	Load(ctx context.Context) ([]Record, error)
	Save(ctx context.Context, records []Record) error
	Close() error
}
