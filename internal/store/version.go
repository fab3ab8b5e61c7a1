package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/roach88/trasco/internal/engine"
	"github.com/roach88/trasco/internal/ir"
)

// Version store kinds accepted by VersionFuncs.
const (
	VersionStoreUserVersion = "user_version"
	VersionStoreTable       = "table"
)

// DefaultVersionTable is the table VersionFuncs uses when none is named.
const DefaultVersionTable = "schema_version"

// ErrVersionOutOfRange is returned when a version cannot be stored in
// PRAGMA user_version.
var ErrVersionOutOfRange = errors.New("version out of range for user_version")

// UserVersion stores the schema version in SQLite's PRAGMA user_version.
//
// The pragma holds version+1, so a fresh database (user_version 0) has no
// version and revision 0 remains representable. Versions from -1 to
// math.MaxInt32-1 can be stored.
type UserVersion struct{}

// Get reads the version. ok is false when none has been recorded.
func (UserVersion) Get(ctx context.Context, q engine.Querier) (ir.Version, bool, error) {
	var stored int64
	if err := q.QueryRowContext(ctx, "PRAGMA user_version").Scan(&stored); err != nil {
		return ir.Version{}, false, fmt.Errorf("get user_version: %w", err)
	}
	if stored == 0 {
		return ir.Version{}, false, nil
	}
	return ir.NewVersion(stored - 1), true, nil
}

// Set records v.
func (UserVersion) Set(ctx context.Context, q engine.Querier, v ir.Version) error {
	n, ok := v.Int64()
	if !ok || n < -1 || n >= math.MaxInt32 {
		return fmt.Errorf("%w: %s", ErrVersionOutOfRange, v)
	}
	// PRAGMA does not accept bind parameters.
	if _, err := q.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", n+1)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return nil
}

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// VersionTable stores the schema version as text in a single-row table.
type VersionTable struct {
	// Name is the table name. It must be a plain SQL identifier.
	Name string

	// Placeholder is the bind placeholder for the driver, "?" or "$1".
	Placeholder string
}

// NewVersionTable validates the table name and picks the placeholder for driver.
func NewVersionTable(name string, driver Driver) (VersionTable, error) {
	if !identifierPattern.MatchString(name) {
		return VersionTable{}, fmt.Errorf("invalid version table name %q", name)
	}
	return VersionTable{Name: name, Placeholder: driver.Placeholder(1)}, nil
}

// Ensure creates the table if it does not exist.
func (t VersionTable) Ensure(ctx context.Context, q engine.Querier) error {
	stmt := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (version TEXT NOT NULL)", t.Name)
	if _, err := q.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("create version table: %w", err)
	}
	return nil
}

// Get reads the version. ok is false when the table is missing or empty.
// Get never creates the table.
func (t VersionTable) Get(ctx context.Context, q engine.Querier) (ir.Version, bool, error) {
	var text string
	err := q.QueryRowContext(ctx, fmt.Sprintf("SELECT version FROM %s", t.Name)).Scan(&text)
	if errors.Is(err, sql.ErrNoRows) || isUndefinedTable(err) {
		return ir.Version{}, false, nil
	}
	if err != nil {
		return ir.Version{}, false, fmt.Errorf("read version table: %w", err)
	}

	v, err := ir.ParseVersion(text)
	if err != nil {
		return ir.Version{}, false, fmt.Errorf("read version table: %w", err)
	}
	return v, true, nil
}

// Set replaces the stored version with v, creating the table if needed.
func (t VersionTable) Set(ctx context.Context, q engine.Querier, v ir.Version) error {
	if err := t.Ensure(ctx, q); err != nil {
		return err
	}
	if _, err := q.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s", t.Name)); err != nil {
		return fmt.Errorf("write version table: %w", err)
	}
	insert := fmt.Sprintf("INSERT INTO %s (version) VALUES (%s)", t.Name, t.Placeholder)
	if _, err := q.ExecContext(ctx, insert, v.String()); err != nil {
		return fmt.Errorf("write version table: %w", err)
	}
	return nil
}

// undefinedTableCode is the PostgreSQL SQLSTATE for a missing relation.
const undefinedTableCode = "42P01"

// isUndefinedTable reports whether err says the queried table does not exist.
func isUndefinedTable(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == undefinedTableCode
	}
	return strings.Contains(err.Error(), "no such table")
}

// VersionFuncs returns the get/set collaborators for the named version
// store kind. table names the version table and defaults to
// DefaultVersionTable.
func (s *Store) VersionFuncs(kind, table string) (engine.VersionGetFunc, engine.VersionSetFunc, error) {
	switch kind {
	case VersionStoreUserVersion, "":
		if !s.driver.IsSQLite() {
			return nil, nil, fmt.Errorf("version store %q requires a SQLite driver, not %s", VersionStoreUserVersion, s.driver)
		}
		var uv UserVersion
		return uv.Get, uv.Set, nil
	case VersionStoreTable:
		if table == "" {
			table = DefaultVersionTable
		}
		vt, err := NewVersionTable(table, s.driver)
		if err != nil {
			return nil, nil, err
		}
		return vt.Get, vt.Set, nil
	default:
		return nil, nil, fmt.Errorf("unknown version store %q: must be %s or %s", kind, VersionStoreUserVersion, VersionStoreTable)
	}
}
