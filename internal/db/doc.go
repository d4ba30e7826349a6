// Package db is the persistence layer for captured connections and
// authentication attempts.
//
// Stores are created with NewStoreFromDSN for "sqlite", "postgres" or
// "mysql". Each backend opens a database/sql pool, applies the embedded
// migrations for its dialect and wraps the pool in a *bun.DB.
//
// Write path
//   - RecordConnection and RecordAttempt are the only writes. Records are
//     append-only: the package exposes no update or delete for them.
//   - The record timestamp is taken from the store's Clock at write time;
//     any value supplied by the caller is ignored.
//   - Driver errors pass through MapDBError so callers can test for
//     ErrDuplicate and ErrInvalidRecord with errors.Is.
//
// Read path
//   - RecentAttempts, StreamAttempts, TopCredentials, TopUsernames,
//     TopSources and Summary back the operator commands (stats, export,
//     watch).
//
// Testing notes
//   - Use NewStoreFromDSN("sqlite", "file:"+t.Name()+"?mode=memory&cache=shared")
//     for tests that need real SQL semantics.
//   - sqlOpenFunc can be swapped for a go-sqlmock connection to inject
//     driver failures.
package db
