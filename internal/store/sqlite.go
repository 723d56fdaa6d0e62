package store

import (
	"context"
	"database/sql"
	"fmt"

	// register the pure-Go "sqlite" driver
	_ "modernc.org/sqlite"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS contacts (
	position INTEGER NOT NULL,
	name     TEXT    NOT NULL PRIMARY KEY,
	phone    TEXT    NOT NULL,
	email    TEXT    NOT NULL
)`

// SQLite is a [Backend] keeping records in a single SQLite table.
//
// The position column preserves insertion order. Save rewrites the table
// inside one transaction, so a failed save leaves the previous rows intact.
type SQLite struct {
	db   *sql.DB
	path string
}

var _ Backend = (*SQLite)(nil)

// OpenSQLite opens (creating if needed) the database at path.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database %s: %w", path, err)
	}
	// sqlite serializes writers anyway; one connection avoids SQLITE_BUSY
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create contacts table in %s: %w", path, err)
	}
	return &SQLite{db: db, path: path}, nil
}

// Path returns the database file.
func (s *SQLite) Path() string {
	return s.path
}

// Load returns all rows ordered by position.
func (s *SQLite) Load(ctx context.Context) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, phone, email FROM contacts ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("failed to query contacts: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var records []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.Name, &r.Phone, &r.Email); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read contacts: %w", err)
	}
	return records, nil
}

// Save replaces all rows with records.
func (s *SQLite) Save(ctx context.Context, records []Record) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM contacts`); err != nil {
		return fmt.Errorf("failed to clear contacts: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO contacts (position, name, phone, email) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer func() {
		_ = stmt.Close()
	}()

	for i, r := range records {
		if _, err = stmt.ExecContext(ctx, i, r.Name, r.Phone, r.Email); err != nil {
			return fmt.Errorf("failed to insert %q: %w", r.Name, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit contacts: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *SQLite) Close() error {
	return s.db.Close()
}
