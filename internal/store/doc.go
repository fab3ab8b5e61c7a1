// Package store opens databases for the executor and provides the version
// collaborators that read and record the schema version.
//
// # Drivers
//
//   - sqlite3: github.com/mattn/go-sqlite3 (cgo)
//   - sqlite:  modernc.org/sqlite (pure Go)
//   - pgx:     github.com/jackc/pgx/v5/stdlib (PostgreSQL)
//
// SQLite databases are configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode (balance durability/performance)
//   - 5-second busy timeout for lock contention
//   - Foreign key enforcement
//   - A single open connection (one writer at a time)
//
// # Version storage
//
// UserVersion keeps the version in SQLite's PRAGMA user_version. A fresh
// database reports 0 there, so the stored value is version+1 and 0 means
// "no version recorded". VersionTable keeps the version as text in a
// single-row table and works on every driver.
package store
