package store

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// subscriberBuffer is the channel buffer given to each subscriber.
const subscriberBuffer = 100

// Contacts is the ordered in-memory implementation of [Store].
//
// Contacts is the authoritative copy of the records. Each successful Add or
// Delete rewrites the backend in full while holding the write lock, so the
// persisted copy never trails a later mutation.
//
// Subscribers receive events via buffered channels (buffer size 100). Sends
// are non-blocking; a subscriber whose buffer is full misses the event.
// Observers registered with [Contacts.OnChange] are called synchronously
// after every change, outside the lock.
type Contacts struct {
	mu      sync.RWMutex
	records *orderedmap.OrderedMap[string, Record]
	backend Backend
	logger  *slog.Logger

	subscribers map[chan Event]struct{}
	observers   []func(Event)
	subMu       sync.RWMutex
}

var _ Store = (*Contacts)(nil)

// Open loads the records held by backend and returns a ready [Contacts].
//
// Open never fails: if the backend cannot be read or its content is
// malformed, the problem is logged and the store starts empty. The next
// successful mutation overwrites whatever was persisted.
func Open(ctx context.Context, backend Backend, logger *slog.Logger) *Contacts {
	if logger == nil {
		logger = slog.Default()
	}

	c := &Contacts{
		records:     orderedmap.New[string, Record](),
		backend:     backend,
		logger:      logger,
		subscribers: make(map[chan Event]struct{}),
	}

	records, err := backend.Load(ctx)
	if err != nil {
		logger.Warn("could not load contacts, starting empty", "error", err)
		return c
	}
	for _, r := range records {
		c.records.Set(r.Name, r)
	}
	logger.Debug("contacts loaded", "count", c.records.Len())
	return c
}

// Add inserts r and rewrites the backend.
//
// The name must not be blank and must not match an existing name exactly;
// otherwise [ErrEmptyName] or [ErrNameConflict] is returned and nothing
// changes. If the backend cannot be written the record is kept in memory
// and a [*SaveError] is returned.
func (c *Contacts) Add(ctx context.Context, r Record) error {
	if strings.TrimSpace(r.Name) == "" {
		return ErrEmptyName
	}

	c.mu.Lock()
	if _, exists := c.records.Get(r.Name); exists {
		c.mu.Unlock()
		return ErrNameConflict
	}
	c.records.Set(r.Name, r)
	err := c.saveLocked(ctx)
	c.mu.Unlock()

	c.notify(Event{Op: OpAdd, Record: r, At: time.Now()})
	return err
}

// Get returns the record whose name equals name exactly.
func (c *Contacts) Get(name string) (Record, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.records.Get(name)
}

// Search returns the first record, in insertion order, whose name equals
// name ignoring case.
func (c *Contacts) Search(name string) (Record, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for pair := c.records.Oldest(); pair != nil; pair = pair.Next() {
		if strings.EqualFold(pair.Key, name) {
			return pair.Value, true
		}
	}
	return Record{}, false
}

// Delete removes the record whose name equals name exactly and rewrites the
// backend.
//
// Returns [ErrNotFound] when there is no exact match. As with Add, a failed
// write leaves the deletion in memory and returns a [*SaveError].
func (c *Contacts) Delete(ctx context.Context, name string) error {
	c.mu.Lock()
	r, ok := c.records.Delete(name)
	if !ok {
		c.mu.Unlock()
		return ErrNotFound
	}
	err := c.saveLocked(ctx)
	c.mu.Unlock()

	c.notify(Event{Op: OpDelete, Record: r, At: time.Now()})
	return err
}

// List returns a snapshot of all records in insertion order.
//
// The returned slice is a copy; modifications do not affect the store.
// An empty store yields an empty, non-nil slice.
func (c *Contacts) List() []Record {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.listLocked()
}

// Len returns the number of records.
func (c *Contacts) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.records.Len()
}

// Save rewrites the backend with the current records.
//
// Use it to retry after a [*SaveError] once the underlying problem is fixed.
func (c *Contacts) Save(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.saveLocked(ctx)
}

// Reload replaces the records with what the backend currently holds.
//
// Unlike [Open], a load failure keeps the current records and is returned.
// When the persisted records equal the in-memory ones nothing happens and
// no event is emitted; this is the common case after our own saves.
//
// The write lock is held across the load so a concurrent Add or Delete
// either lands before the read or waits for the reload to finish.
func (c *Contacts) Reload(ctx context.Context) error {
	c.mu.Lock()
	records, err := c.backend.Load(ctx)
	if err != nil {
		c.mu.Unlock()
		return err
	}

	if slices.Equal(records, c.listLocked()) {
		c.mu.Unlock()
		return nil
	}
	fresh := orderedmap.New[string, Record]()
	for _, r := range records {
		fresh.Set(r.Name, r)
	}
	c.records = fresh
	count := fresh.Len()
	c.mu.Unlock()

	c.logger.Info("contacts reloaded", "count", count)
	c.notify(Event{Op: OpReload, At: time.Now()})
	return nil
}

// Close releases the backend.
func (c *Contacts) Close() error {
	return c.backend.Close()
}

// OnChange registers fn to be called synchronously after every change.
//
// fn runs on the goroutine that made the change, after the store lock has
// been released.
func (c *Contacts) OnChange(fn func(Event)) {
	if fn == nil {
		return
	}
	c.subMu.Lock()
	c.observers = append(c.observers, fn)
	c.subMu.Unlock()
}

// Subscribe creates a new subscription and returns a channel for receiving events.
//
// Caller must call [Contacts.Unsubscribe] when done to prevent resource leaks.
func (c *Contacts) Subscribe() <-chan Event {
	ch := make(chan Event, subscriberBuffer)

	c.subMu.Lock()
	c.subscribers[ch] = struct{}{}
	c.subMu.Unlock()

	return ch
}

// Unsubscribe removes a subscription and closes its channel.
//
// Safe to call multiple times or with an unknown channel.
func (c *Contacts) Unsubscribe(ch <-chan Event) {
	c.subMu.Lock()
	defer c.subMu.Unlock()

	for subCh := range c.subscribers {
		if subCh == ch {
			delete(c.subscribers, subCh)
			close(subCh)
			break
		}
	}
}

func (c *Contacts) saveLocked(ctx context.Context) error {
	if err := c.backend.Save(ctx, c.listLocked()); err != nil {
		c.logger.Error("failed to save contacts", "error", err)
		return &SaveError{Err: err}
	}
	return nil
}

func (c *Contacts) listLocked() []Record {
	records := make([]Record, 0, c.records.Len())
	for pair := c.records.Oldest(); pair != nil; pair = pair.Next() {
		records = append(records, pair.Value)
	}
	return records
}

// notify delivers ev to observers, then to subscribers without blocking.
func (c *Contacts) notify(ev Event) {
	c.subMu.RLock()
	observers := c.observers
	c.subMu.RUnlock()

	for _, fn := range observers {
		fn(ev)
	}

	c.subMu.RLock()
	defer c.subMu.RUnlock()
	for ch := range c.subscribers {
		select {
		case ch <- ev:
		default:
			// subscriber is slow, drop the event
		}
	}
}
