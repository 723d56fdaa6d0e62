// Package store holds the contact records and keeps persisted storage in step
// with them.
//
// The main components are:
//
//   - [Store]: Interface defining record operations and change subscriptions
//   - [Contacts]: The ordered in-memory implementation of Store
//   - [Backend]: Persisted storage that is read once and rewritten in full
//   - [JSONFile], [SQLite], [Mongo]: Backend implementations
//
// Every successful mutation rewrites the whole backend. A failed write is
// reported as a [*SaveError] while the in-memory state keeps the mutation, so
// a later save can still succeed.
//
// Records keep insertion order. Names are unique under exact comparison;
// [Contacts.Search] compares case-insensitively and returns the first match.
package store
