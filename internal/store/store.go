package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"
)

// Driver names a database/sql driver.
type Driver string

const (
	// DriverSQLite3 is the cgo SQLite driver.
	DriverSQLite3 Driver = "sqlite3"

	// DriverSQLite is the pure Go SQLite driver.
	DriverSQLite Driver = "sqlite"

	// DriverPgx is the PostgreSQL driver.
	DriverPgx Driver = "pgx"
)

// ParseDriver validates a driver name.
func ParseDriver(s string) (Driver, error) {
	switch d := Driver(s); d {
	case DriverSQLite3, DriverSQLite, DriverPgx:
		return d, nil
	default:
		return "", fmt.Errorf("unknown driver %q: must be %s, %s or %s", s, DriverSQLite3, DriverSQLite, DriverPgx)
	}
}

// IsSQLite reports whether the driver talks to SQLite.
func (d Driver) IsSQLite() bool {
	return d == DriverSQLite3 || d == DriverSQLite
}

// Placeholder returns the bind placeholder for the n-th (1-based) argument.
func (d Driver) Placeholder(n int) string {
	if d == DriverPgx {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

// Store is an open database handle.
type Store struct {
	db     *sql.DB
	driver Driver
}

// Open connects to the database identified by driver and dsn.
//
// SQLite databases are created if missing and configured with the pragmas
// described in the package documentation.
func Open(ctx context.Context, driver Driver, dsn string) (*Store, error) {
	if _, err := ParseDriver(string(driver)); err != nil {
		return nil, err
	}

	db, err := sql.Open(string(driver), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Verify connection works
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if driver.IsSQLite() {
		// SQLite only supports one writer at a time, so limit connections
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)

		if err := applyPragmas(ctx, db); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply pragmas: %w", err)
		}
	}

	return &Store{db: db, driver: driver}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB returns the underlying sql.DB.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Driver returns the driver the store was opened with.
func (s *Store) Driver() Driver {
	return s.driver
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
func (s *Store) verifyPragma(name, expected string) error {
	var value string
	query := fmt.Sprintf("PRAGMA %s", name)
	if err := s.db.QueryRow(query).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
