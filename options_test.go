package contactbook

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestOpen_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	book, err := Open(context.Background())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer book.Close()

	if book.Port() != 8080 {
		t.Errorf("Port() = %v, want %v", book.Port(), 8080)
	}
	if book.File() != "contacts.txt" {
		t.Errorf("File() = %q, want %q", book.File(), "contacts.txt")
	}
	if book.Title() != "" {
		t.Errorf("Title() = %q, want empty", book.Title())
	}
	if book.Len() != 0 {
		t.Errorf("Len() = %v, want 0", book.Len())
	}
}

func TestWithFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "people.json")

	book, err := Open(context.Background(), WithFile(path))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer book.Close()

	if book.File() != path {
		t.Errorf("File() = %q, want %q", book.File(), path)
	}
}

func TestWithFile_LastStorageOptionWins(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "people.json")

	book, err := Open(context.Background(),
		WithSQLite(filepath.Join(dir, "contacts.db")),
		WithFile(path),
	)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer book.Close()

	if book.File() != path {
		t.Errorf("File() = %q, want %q", book.File(), path)
	}
}

func TestWithFile_EmptyPathAfterSQLite(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	db := filepath.Join(dir, "x.db")
	if err := writeFile(db, "not json"); err != nil {
		t.Fatal(err)
	}

	book, err := Open(context.Background(), WithSQLite(db), WithFile(""))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer book.Close()

	if book.File() != "contacts.txt" {
		t.Errorf("File() = %q, want %q", book.File(), "contacts.txt")
	}
	if err := book.Add(context.Background(), Record{Name: "Alice"}); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	data, err := os.ReadFile(db)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "not json" {
		t.Errorf("sqlite path was rewritten: %q", data)
	}
	if _, err := os.Stat(filepath.Join(dir, "contacts.txt")); err != nil {
		t.Errorf("default file not written: %v", err)
	}
}

func TestWithBackend_ClearsFile(t *testing.T) {
	book, err := Open(context.Background(),
		WithFile(filepath.Join(t.TempDir(), "people.json")),
		WithBackend(&memBackend{}),
	)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer book.Close()

	if book.File() != "" {
		t.Errorf("File() = %q, want empty for a custom backend", book.File())
	}
}

func TestWithSQLite(t *testing.T) {
	book, err := Open(context.Background(), WithSQLite(filepath.Join(t.TempDir(), "contacts.db")))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer book.Close()

	if book.File() != "" {
		t.Errorf("File() = %q, want empty for sqlite", book.File())
	}
}

func TestWithSQLite_Empty(t *testing.T) {
	_, err := Open(context.Background(), WithSQLite(""))
	if err == nil {
		t.Error("Open() expected error for empty sqlite path, got nil")
	}
}

func TestWithMongo_Invalid(t *testing.T) {
	tests := []struct {
		name                 string
		uri, db, collection string
	}{
		{"no uri", "", "contactbook", "contacts"},
		{"no database", "mongodb://localhost", "", "contacts"},
		{"no collection", "mongodb://localhost", "contactbook", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Open(context.Background(), WithMongo(tt.uri, tt.db, tt.collection))
			if err == nil {
				t.Fatal("Open() expected error, got nil")
			}
			if !strings.Contains(err.Error(), "mongo uri, database and collection are required") {
				t.Errorf("Open() error = %v", err)
			}
		})
	}
}

func TestWithBackend_Nil(t *testing.T) {
	_, err := Open(context.Background(), WithBackend(nil))
	if err == nil {
		t.Error("Open() expected error for nil backend, got nil")
	}
}

func TestWithPort(t *testing.T) {
	book, err := Open(context.Background(),
		WithFile(filepath.Join(t.TempDir(), "c.txt")),
		WithPort(9090),
	)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer book.Close()

	if book.Port() != 9090 {
		t.Errorf("Port() = %v, want %v", book.Port(), 9090)
	}
}

func TestWithPort_Invalid(t *testing.T) {
	tests := []struct {
		name string
		port int
	}{
		{"zero", 0},
		{"negative", -1},
		{"too high", 65536},
		{"way too high", 100000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Open(context.Background(), WithPort(tt.port))
			if err == nil {
				t.Errorf("Open() expected error for port %v, got nil", tt.port)
			}
		})
	}
}

func TestWithTitle(t *testing.T) {
	book, err := Open(context.Background(),
		WithFile(filepath.Join(t.TempDir(), "c.txt")),
		WithTitle("Team Phonebook"),
	)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer book.Close()

	if book.Title() != "Team Phonebook" {
		t.Errorf("Title() = %q, want %q", book.Title(), "Team Phonebook")
	}
}

func TestWithLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	path := filepath.Join(t.TempDir(), "c.txt")
	if err := writeFile(path, "not json"); err != nil {
		t.Fatal(err)
	}

	book, err := Open(context.Background(), WithFile(path), WithLogger(logger))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer book.Close()

	// a malformed file is reported through the configured logger
	if buf.Len() == 0 {
		t.Error("expected malformed file warning in custom logger output")
	}
}

func TestWithLogger_Nil(t *testing.T) {
	_, err := Open(context.Background(), WithLogger(nil))
	if err == nil {
		t.Error("Open() expected error for nil logger, got nil")
	}
}

func TestOpen_OptionErrorStopsEarly(t *testing.T) {
	dir := t.TempDir()

	// the invalid port is rejected before any storage is touched
	_, err := Open(context.Background(),
		WithSQLite(filepath.Join(dir, "contacts.db")),
		WithPort(0),
	)
	if err == nil {
		t.Fatal("Open() expected error, got nil")
	}

	matches, _ := filepath.Glob(filepath.Join(dir, "*"))
	if len(matches) != 0 {
		t.Errorf("storage created despite option error: %v", matches)
	}
}
