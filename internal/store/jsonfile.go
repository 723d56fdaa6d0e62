package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// DefaultFile is the file used when no path is configured.
const DefaultFile = "contacts.txt"

// entry is the persisted value for one name.
type entry struct {
	Phone string `json:"phone"`
	Email string `json:"email"`
}

// JSONFile is a [Backend] storing records as a single JSON object.
//
// Top-level keys are record names in insertion order, each mapping to an
// object with "phone" and "email":
//
//	{
//	  "Alice": {
//	    "phone": "111",
//	    "email": "a@b.com"
//	  }
//	}
//
// Saves write a temporary file next to the target and rename it into place,
// so readers never observe a partially written file.
type JSONFile struct {
	path string
}

var _ Backend = (*JSONFile)(nil)

// NewJSONFile returns a JSONFile backend for path.
// An empty path selects [DefaultFile].
func NewJSONFile(path string) *JSONFile {
	if path == "" {
		path = DefaultFile
	}
	return &JSONFile{path: path}
}

// Path returns the file the backend reads and writes.
func (f *JSONFile) Path() string {
	return f.path
}

// Load reads the file. A missing file yields no records.
func (f *JSONFile) Load(_ context.Context) ([]Record, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", f.path, err)
	}

	records, err := DecodeJSON(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", f.path, err)
	}
	return records, nil
}

// Save replaces the file content with records.
func (f *JSONFile) Save(_ context.Context, records []Record) error {
	data, err := EncodeJSON(records)
	if err != nil {
		return err
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", f.path, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(f.path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", f.path, err)
	}
	defer func() {
		// no-op once the rename succeeded
		_ = os.Remove(tmp.Name())
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write %s: %w", f.path, err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to set mode on %s: %w", f.path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file for %s: %w", f.path, err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", f.path, err)
	}
	return nil
}

// Close is a no-op; the file is only open inside Load and Save.
func (f *JSONFile) Close() error {
	return nil
}

// DecodeJSON parses the persisted encoding, keeping key order.
// Any decoding problem is reported wrapping [ErrMalformed].
func DecodeJSON(data []byte) ([]Record, error) {
	m := orderedmap.New[string, entry]()
	if err := json.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	records := make([]Record, 0, m.Len())
	for pair := m.Oldest(); pair != nil; pair = pair.Next() {
		records = append(records, Record{
			Name:  pair.Key,
			Phone: pair.Value.Phone,
			Email: pair.Value.Email,
		})
	}
	return records, nil
}

// EncodeJSON renders records in the persisted encoding with two-space indentation.
func EncodeJSON(records []Record) ([]byte, error) {
	m := orderedmap.New[string, entry]()
	for _, r := range records {
		m.Set(r.Name, entry{Phone: r.Phone, Email: r.Email})
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode contacts: %w", err)
	}
	return data, nil
}
