package contactbook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o644)
}

// openTestBook opens a Book over a JSON file in a fresh temp dir.
func openTestBook(t *testing.T, opts ...Option) *Book {
	t.Helper()
	opts = append([]Option{
		WithFile(filepath.Join(t.TempDir(), "contacts.txt")),
		WithLogger(discardLogger()),
	}, opts...)

	book, err := Open(context.Background(), opts...)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { _ = book.Close() })
	return book
}

func TestBook_AddGetSearchDelete(t *testing.T) {
	ctx := context.Background()
	book := openTestBook(t)

	alice := Record{Name: "Alice", Phone: "111", Email: "a@x"}
	if err := book.Add(ctx, alice); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	if got, ok := book.Get("Alice"); !ok || got != alice {
		t.Errorf("Get(Alice) = %+v, %v", got, ok)
	}
	if _, ok := book.Get("alice"); ok {
		t.Error("Get should match exactly")
	}
	if got, ok := book.Search("ALICE"); !ok || got != alice {
		t.Errorf("Search(ALICE) = %+v, %v", got, ok)
	}

	if err := book.Delete(ctx, "alice"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete(alice) error = %v, want ErrNotFound", err)
	}
	if err := book.Delete(ctx, "Alice"); err != nil {
		t.Fatalf("Delete(Alice) error = %v", err)
	}
	if book.Len() != 0 {
		t.Errorf("Len() = %d, want 0", book.Len())
	}
}

func TestBook_AddValidation(t *testing.T) {
	book := openTestBook(t)
	ctx := context.Background()
	_ = book.Add(ctx, Record{Name: "Alice"})

	tests := []struct {
		name           string
		record         Record
		wantErr        error
		wantValidation bool
	}{
		{"empty", Record{Name: ""}, ErrEmptyName, true},
		{"blank", Record{Name: " \t"}, ErrEmptyName, true},
		{"duplicate", Record{Name: "Alice", Phone: "999"}, ErrNameConflict, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := book.Add(ctx, tt.record)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Add() error = %v, want %v", err, tt.wantErr)
			}
			if IsValidation(err) != tt.wantValidation {
				t.Errorf("IsValidation(%v) = %v, want %v", err, IsValidation(err), tt.wantValidation)
			}
		})
	}

	if r, _ := book.Get("Alice"); r.Phone != "" {
		t.Errorf("rejected duplicate changed the record: %+v", r)
	}
}

func TestBook_ListKeepsInsertionOrder(t *testing.T) {
	ctx := context.Background()
	book := openTestBook(t)

	want := []Record{
		{Name: "Zed", Phone: "3"},
		{Name: "Amy", Phone: "1"},
		{Name: "Mia", Phone: "2"},
	}
	for _, r := range want {
		if err := book.Add(ctx, r); err != nil {
			t.Fatalf("Add(%s) error = %v", r.Name, err)
		}
	}

	got := book.List()
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("List() mismatch (-want +got):\n%s", diff)
	}

	// the returned slice is a copy
	got[0].Name = "changed"
	if book.List()[0].Name != "Zed" {
		t.Error("modifying List() result changed the book")
	}
}

func TestBook_PersistsAcrossOpens(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "contacts.txt")

	book, err := Open(ctx, WithFile(path), WithLogger(discardLogger()))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	_ = book.Add(ctx, Record{Name: "Alice", Phone: "111", Email: "a@x"})
	_ = book.Add(ctx, Record{Name: "Bob", Phone: "222"})
	_ = book.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	wantFile := `{
  "Alice": {
    "phone": "111",
    "email": "a@x"
  },
  "Bob": {
    "phone": "222",
    "email": ""
  }
}`
	if diff := cmp.Diff(wantFile, string(data)); diff != "" {
		t.Errorf("file mismatch (-want +got):\n%s", diff)
	}

	reopened, err := Open(ctx, WithFile(path), WithLogger(discardLogger()))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer reopened.Close()

	want := []Record{
		{Name: "Alice", Phone: "111", Email: "a@x"},
		{Name: "Bob", Phone: "222"},
	}
	if diff := cmp.Diff(want, reopened.List()); diff != "" {
		t.Errorf("List() after reopen mismatch (-want +got):\n%s", diff)
	}
}

func TestBook_MalformedFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "contacts.txt")
	if err := writeFile(path, "[1, 2"); err != nil {
		t.Fatal(err)
	}

	book := openTestBook(t, WithFile(path))

	if book.Len() != 0 {
		t.Errorf("Len() = %d, want 0", book.Len())
	}

	// the next successful change overwrites the bad file
	if err := book.Add(context.Background(), Record{Name: "Alice"}); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), `"Alice"`) {
		t.Errorf("file = %s, want Alice written", data)
	}
}

func TestBook_ReloadKeepsStateOnError(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "contacts.txt")
	book := openTestBook(t, WithFile(path))
	_ = book.Add(ctx, Record{Name: "Alice"})

	if err := writeFile(path, "{oops"); err != nil {
		t.Fatal(err)
	}

	err := book.Reload(ctx)
	if !errors.Is(err, ErrMalformed) {
		t.Fatalf("Reload() error = %v, want ErrMalformed", err)
	}
	if _, ok := book.Get("Alice"); !ok {
		t.Error("Reload failure dropped current records")
	}
}

func TestBook_SaveRetriesAfterFailure(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	sub := filepath.Join(dir, "sub")
	if err := writeFile(sub, ""); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(sub, "contacts.txt")
	book := openTestBook(t, WithFile(path))

	err := book.Add(ctx, Record{Name: "Alice"})
	var saveErr *SaveError
	if !errors.As(err, &saveErr) {
		t.Fatalf("Add() error = %v, want *SaveError", err)
	}
	if !strings.HasPrefix(err.Error(), "failed to save contacts: ") {
		t.Errorf("Add() error = %q", err.Error())
	}
	if IsValidation(err) {
		t.Error("a save failure is not a validation error")
	}

	// clear the obstruction and retry
	if err := os.Remove(sub); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := book.Save(ctx); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("file not written after retry: %v", err)
	}
}

func TestBook_SQLite(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "contacts.db")

	book, err := Open(ctx, WithSQLite(path), WithLogger(discardLogger()))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	_ = book.Add(ctx, Record{Name: "Zed"})
	_ = book.Add(ctx, Record{Name: "Amy", Email: "amy@x"})
	_ = book.Delete(ctx, "Zed")
	if err := book.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	reopened, err := Open(ctx, WithSQLite(path), WithLogger(discardLogger()))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer reopened.Close()

	want := []Record{{Name: "Amy", Email: "amy@x"}}
	if diff := cmp.Diff(want, reopened.List()); diff != "" {
		t.Errorf("List() mismatch (-want +got):\n%s", diff)
	}
}

// memBackend is a Backend held in memory.
type memBackend struct {
	mu      sync.Mutex
	records []Record
	saves   int
	loadErr error
	closed  bool
}

func (m *memBackend) Load(context.Context) ([]Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return append([]Record(nil), m.records...), nil
}

func (m *memBackend) Save(_ context.Context, records []Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append([]Record(nil), records...)
	m.saves++
	return nil
}

func (m *memBackend) Close() error {
	m.closed = true
	return nil
}

func TestWithBackend(t *testing.T) {
	ctx := context.Background()
	mem := &memBackend{records: []Record{{Name: "Seed", Phone: "0"}}}

	book, err := Open(ctx, WithBackend(mem), WithLogger(discardLogger()))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	if book.File() != "" {
		t.Errorf("File() = %q, want empty for custom backend", book.File())
	}
	if r, ok := book.Get("Seed"); !ok || r.Phone != "0" {
		t.Errorf("Get(Seed) = %+v, %v", r, ok)
	}

	_ = book.Add(ctx, Record{Name: "Alice"})

	want := []Record{{Name: "Seed", Phone: "0"}, {Name: "Alice"}}
	if diff := cmp.Diff(want, mem.records); diff != "" {
		t.Errorf("backend records mismatch (-want +got):\n%s", diff)
	}
	if mem.saves != 1 {
		t.Errorf("saves = %d, want 1", mem.saves)
	}

	if err := book.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if !mem.closed {
		t.Error("Close() should close the backend")
	}
}

func TestWithBackend_LoadErrorStartsEmpty(t *testing.T) {
	mem := &memBackend{loadErr: errors.New("unreachable")}

	var buf bytes.Buffer
	book, err := Open(context.Background(),
		WithBackend(mem),
		WithLogger(slog.New(slog.NewTextHandler(&buf, nil))),
	)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer book.Close()

	if book.Len() != 0 {
		t.Errorf("Len() = %d, want 0", book.Len())
	}
	if !strings.Contains(buf.String(), "unreachable") {
		t.Errorf("load error not logged: %q", buf.String())
	}
}

func TestBook_RunShell(t *testing.T) {
	book := openTestBook(t)

	in := strings.NewReader("1\nAlice\n555\na@x\n2\n5\n")
	var out bytes.Buffer
	if err := book.RunShell(context.Background(), in, &out); err != nil {
		t.Fatalf("RunShell() error = %v", err)
	}

	if !strings.Contains(out.String(), "  Alice: phone=555, email=a@x") {
		t.Errorf("output missing listed contact:\n%s", out.String())
	}
	if !strings.HasSuffix(out.String(), "Goodbye!\n") {
		t.Errorf("output should end with Goodbye!:\n%s", out.String())
	}
	if r, ok := book.Get("Alice"); !ok || r.Phone != "555" {
		t.Errorf("Get(Alice) = %+v, %v", r, ok)
	}
}

// TestServe_BlocksUntilContextCancelled verifies that Serve blocks until the
// provided context is cancelled.
func TestServe_BlocksUntilContextCancelled(t *testing.T) {
	// use a high port to avoid conflicts
	book := openTestBook(t, WithPort(19001))

	ctx, cancel := context.WithCancel(context.Background())

	started := make(chan struct{})
	done := make(chan error, 1)

	go func() {
		close(started)
		done <- book.Serve(ctx)
	}()

	// wait for Serve to begin
	<-started
	time.Sleep(50 * time.Millisecond)

	// verify Serve is still blocking (channel should be empty)
	select {
	case err := <-done:
		t.Fatalf("Serve() returned early with error: %v", err)
	default:
		// expected: still blocking
	}

	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve() returned error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve() did not return after context cancellation")
	}
}

// TestServe_ReturnsImmediatelyIfContextAlreadyCancelled verifies that Serve
// returns at once if the context is already cancelled.
func TestServe_ReturnsImmediatelyIfContextAlreadyCancelled(t *testing.T) {
	book := openTestBook(t, WithPort(19002))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan error, 1)
	go func() {
		done <- book.Serve(ctx)
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve() error = %v, want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve() did not return with already-cancelled context")
	}
}

// TestServe_CleanShutdown verifies no goroutine leaks after shutdown.
func TestServe_CleanShutdown(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	book := openTestBook(t, WithPort(19003))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- book.Serve(ctx)
	}()

	// let it run for a bit
	time.Sleep(200 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve() returned error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve() did not return after cancellation")
	}
}

func TestServe_PortInUse(t *testing.T) {
	first := openTestBook(t, WithPort(19004))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- first.Serve(ctx) }()
	defer func() {
		cancel()
		<-done
	}()
	waitForServer(t, 19004)

	second := openTestBook(t, WithPort(19004))
	err := second.Serve(ctx)
	if err == nil {
		t.Fatal("Serve() expected error for port in use, got nil")
	}
	if !strings.Contains(err.Error(), "failed to start HTTP server") {
		t.Errorf("Serve() error = %v", err)
	}
}

func TestServe_APIAndDashboard(t *testing.T) {
	book := openTestBook(t, WithPort(19005), WithTitle("Team Phonebook"))
	_ = book.Add(context.Background(), Record{Name: "Alice", Phone: "111"})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- book.Serve(ctx) }()
	defer func() {
		cancel()
		<-done
	}()
	waitForServer(t, 19005)

	base := "http://localhost:19005"

	resp, err := http.Get(base + "/api/contacts")
	if err != nil {
		t.Fatalf("GET /api/contacts error = %v", err)
	}
	var listed []Record
	err = json.NewDecoder(resp.Body).Decode(&listed)
	resp.Body.Close()
	if err != nil {
		t.Fatalf("decode error = %v", err)
	}
	if diff := cmp.Diff([]Record{{Name: "Alice", Phone: "111"}}, listed); diff != "" {
		t.Errorf("listed mismatch (-want +got):\n%s", diff)
	}

	resp, err = http.Post(base+"/api/contacts", "application/json",
		strings.NewReader(`{"name": "Bob", "phone": "222", "email": "b@x"}`))
	if err != nil {
		t.Fatalf("POST /api/contacts error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Errorf("POST status = %d, want 201", resp.StatusCode)
	}
	if _, ok := book.Get("Bob"); !ok {
		t.Error("record added over HTTP not visible through the Book")
	}

	resp, err = http.Get(base + "/")
	if err != nil {
		t.Fatalf("GET / error = %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if !strings.Contains(string(body), "Team Phonebook") {
		t.Error("dashboard should render the configured title")
	}
}

func TestServe_WatchReloadsExternalEdits(t *testing.T) {
	path := filepath.Join(t.TempDir(), "contacts.txt")
	book := openTestBook(t, WithFile(path), WithPort(19006), WithWatch(true))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- book.Serve(ctx) }()
	defer func() {
		cancel()
		<-done
	}()
	waitForServer(t, 19006)

	if err := writeFile(path, `{"Edited": {"phone": "9", "email": ""}}`); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if _, ok := book.Get("Edited"); ok {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("external edit was not reloaded")
}

// waitForServer polls the readiness probe until the server on port answers.
func waitForServer(t *testing.T, port int) {
	t.Helper()
	url := fmt.Sprintf("http://localhost:%d/readiness", port)
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := http.Get(url)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("server on port %d did not become ready", port)
}
