package engine

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/trasco/internal/ir"
)

// fiveKinds declares one parameter per supported argument representation.
func fiveKinds(t *testing.T) (ir.Parameters, ir.Arguments) {
	t.Helper()
	params, err := ir.NewParameters(
		ir.Parameter{Name: "i32", Kind: ir.KindNumeric},
		ir.Parameter{Name: "i64", Kind: ir.KindNumeric},
		ir.Parameter{Name: "str", Kind: ir.KindString},
		ir.Parameter{Name: "dbl", Kind: ir.KindNumeric},
		ir.Parameter{Name: "dec", Kind: ir.KindNumeric},
	)
	require.NoError(t, err)

	dec, err := ir.NewDecimal("23.0")
	require.NoError(t, err)

	args, err := ir.NewArguments(
		ir.NewNumericArgument("i32", ir.Int32(23)),
		ir.NewNumericArgument("i64", ir.Int64(23)),
		ir.NewStringArgument("str", `"23`),
		ir.NewNumericArgument("dbl", ir.Float64(23.0)),
		ir.NewNumericArgument("dec", dec),
	)
	require.NoError(t, err)
	return params, args
}

func fiveRefs() ir.ParameterReferences {
	return ir.MustParameterReferences(
		ir.ParameterReference{Order: 0, Name: "i32"},
		ir.ParameterReference{Order: 1, Name: "i64"},
		ir.ParameterReference{Order: 2, Name: "str"},
		ir.ParameterReference{Order: 3, Name: "dbl"},
		ir.ParameterReference{Order: 4, Name: "dec"},
	)
}

func TestFormatStatementRendersEveryKind(t *testing.T) {
	_, args := fiveKinds(t)
	st := ir.ParameterizedStatement{
		SQL:           "  insert into x values (%s, %s, %s, %s, %s)\n",
		References:    fiveRefs(),
		Interpolation: ir.InterpolationStringFormatting,
	}

	assert.Equal(t, `insert into x values (23, 23, '\"23', 23.0, 23.0)`, FormatStatement(st, args))
}

func TestFormatStatementFollowsReferenceOrder(t *testing.T) {
	args, err := ir.NewArguments(
		ir.NewStringArgument("role", "reader"),
		ir.NewStringArgument("table", "accounts"),
	)
	require.NoError(t, err)

	st := ir.ParameterizedStatement{
		SQL: "grant select on %s to %s",
		References: ir.MustParameterReferences(
			ir.ParameterReference{Order: 1, Name: "role"},
			ir.ParameterReference{Order: 0, Name: "table"},
		),
		Interpolation: ir.InterpolationStringFormatting,
	}

	assert.Equal(t, "grant select on 'accounts' to 'reader'", FormatStatement(st, args))
}

func TestRenderLiteral(t *testing.T) {
	tests := []struct {
		name string
		arg  ir.Argument
		want string
	}{
		{"plain string", ir.NewStringArgument("a", "egg"), "'egg'"},
		{"single quote", ir.NewStringArgument("a", "o'brien"), "'o''brien'"},
		{"backslash", ir.NewStringArgument("a", `c:\tmp`), `'c:\\tmp'`},
		{"empty", ir.NewStringArgument("a", ""), "''"},
		{"negative int", ir.NewNumericArgument("a", ir.Int64(-7)), "-7"},
		{"fraction", ir.NewNumericArgument("a", ir.Float64(0.5)), "0.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RenderLiteral(tt.arg))
		})
	}
}

func TestBindValuesDispatchesOnRepresentation(t *testing.T) {
	_, args := fiveKinds(t)

	values := BindValues(fiveRefs(), args)
	require.Len(t, values, 5)
	assert.Equal(t, int32(23), values[0])
	assert.Equal(t, int64(23), values[1])
	assert.Equal(t, `"23`, values[2])
	assert.Equal(t, float64(23), values[3])
	assert.Equal(t, "23.0", values[4])
}

// foreignNumeric satisfies ir.Numeric without being one of its variants.
type foreignNumeric struct {
	ir.Int32
}

func TestBindValueUnknownNumericPanics(t *testing.T) {
	arg := ir.NewNumericArgument("n", foreignNumeric{ir.Int32(1)})
	assert.Panics(t, func() { bindValue(arg) })
}

func TestBindValuesMissingArgumentPanics(t *testing.T) {
	refs := ir.MustParameterReferences(ir.ParameterReference{Order: 0, Name: "absent"})
	assert.Panics(t, func() { BindValues(refs, ir.EmptyArguments()) })
}

func TestExecutePreparedStatementBindsPositionally(t *testing.T) {
	params, args := fiveKinds(t)
	text := "insert into x values (?, ?, ?, ?, ?)"
	set, err := ir.NewSchemaRevisionSet(params, ir.SchemaRevision{
		Version: ir.NewVersion(0),
		Statements: []ir.Statement{
			ir.ParameterizedStatement{
				SQL:           "\t" + text + "  ",
				References:    fiveRefs(),
				Interpolation: ir.InterpolationPreparedStatement,
			},
		},
	})
	require.NoError(t, err)

	conn, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectPrepare(text).
		ExpectExec().
		WithArgs(int64(23), int64(23), `"23`, float64(23), "23.0").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	versions := &memoryVersions{}
	events := &eventLog{}
	err = newTestExecutor(Configuration{
		VersionGet: versions.get,
		VersionSet: versions.set,
		Events:     events.sink,
		Revisions:  set,
		Upgrade:    PerformUpgrades,
		Arguments:  args,
		Conn:       conn,
	}).Execute(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"upgrading -1 -> 0", "executing: " + text}, events.lines)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExecuteFormattedStatementRunsRenderedText(t *testing.T) {
	params, args := fiveKinds(t)
	set, err := ir.NewSchemaRevisionSet(params, ir.SchemaRevision{
		Version: ir.NewVersion(0),
		Statements: []ir.Statement{
			ir.ParameterizedStatement{
				SQL:           "insert into x values (%s, %s, %s, %s, %s)",
				References:    fiveRefs(),
				Interpolation: ir.InterpolationStringFormatting,
			},
		},
	})
	require.NoError(t, err)

	rendered := `insert into x values (23, 23, '\"23', 23.0, 23.0)`
	conn, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectExec(rendered).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	versions := &memoryVersions{}
	events := &eventLog{}
	err = newTestExecutor(Configuration{
		VersionGet: versions.get,
		VersionSet: versions.set,
		Events:     events.sink,
		Revisions:  set,
		Upgrade:    PerformUpgrades,
		Arguments:  args,
		Conn:       conn,
	}).Execute(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"upgrading -1 -> 0", "executing: " + rendered}, events.lines)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExecutePrepareFailureIsSQLException(t *testing.T) {
	params, args := fiveKinds(t)
	text := "insert into missing values (?, ?, ?, ?, ?)"
	set, err := ir.NewSchemaRevisionSet(params, ir.SchemaRevision{
		Version: ir.NewVersion(0),
		Statements: []ir.Statement{
			ir.ParameterizedStatement{SQL: text, References: fiveRefs()},
		},
	})
	require.NoError(t, err)

	conn, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectPrepare(text).WillReturnError(errors.New("no such table: missing"))
	mock.ExpectRollback()

	versions := &memoryVersions{}
	err = newTestExecutor(Configuration{
		VersionGet: versions.get,
		VersionSet: versions.set,
		Revisions:  set,
		Upgrade:    PerformUpgrades,
		Arguments:  args,
		Conn:       conn,
	}).Execute(context.Background())

	requireCode(t, err, ir.ErrCodeSQLException)
	assert.Empty(t, versions.sets)
	require.NoError(t, mock.ExpectationsWereMet())
}

// sqliteVersions keeps the schema version in a single-row table so the
// version write takes part in the upgrade transaction.
func sqliteVersions(t *testing.T, db *sql.DB) (VersionGetFunc, VersionSetFunc) {
	t.Helper()
	_, err := db.Exec("create table schema_version (version text not null)")
	require.NoError(t, err)

	get := func(ctx context.Context, q Querier) (ir.Version, bool, error) {
		var text string
		err := q.QueryRowContext(ctx, "select version from schema_version").Scan(&text)
		if err == sql.ErrNoRows {
			return ir.Version{}, false, nil
		}
		if err != nil {
			return ir.Version{}, false, err
		}
		v, err := ir.ParseVersion(text)
		return v, err == nil, err
	}
	set := func(ctx context.Context, q Querier, v ir.Version) error {
		if _, err := q.ExecContext(ctx, "delete from schema_version"); err != nil {
			return err
		}
		_, err := q.ExecContext(ctx, "insert into schema_version (version) values (?)", v.String())
		return err
	}
	return get, set
}

func openSQLite(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestExecuteAgainstSQLite(t *testing.T) {
	db := openSQLite(t)
	get, set := sqliteVersions(t, db)
	params, args := fiveKinds(t)

	revisions, err := ir.NewSchemaRevisionSet(params,
		plainRevision(0, "create table x (a integer, b integer, c text, d real, e text)"),
		ir.SchemaRevision{
			Version: ir.NewVersion(1),
			Statements: []ir.Statement{
				ir.ParameterizedStatement{
					SQL:        "insert into x values (?, ?, ?, ?, ?)",
					References: fiveRefs(),
				},
				ir.ParameterizedStatement{
					SQL:           "insert into x values (%s, %s, %s, %s, %s)",
					References:    fiveRefs(),
					Interpolation: ir.InterpolationStringFormatting,
				},
			},
		},
	)
	require.NoError(t, err)

	config := Configuration{
		VersionGet: get,
		VersionSet: set,
		Revisions:  revisions,
		Upgrade:    PerformUpgrades,
		Arguments:  args,
		Conn:       db,
	}
	require.NoError(t, newTestExecutor(config).Execute(context.Background()))

	v, ok, err := get(context.Background(), db)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "1", v.String())

	rows, err := db.Query("select a, b, d, e from x")
	require.NoError(t, err)
	defer rows.Close()

	count := 0
	for rows.Next() {
		var a, b int64
		var d float64
		var e string
		require.NoError(t, rows.Scan(&a, &b, &d, &e))
		assert.Equal(t, int64(23), a)
		assert.Equal(t, int64(23), b)
		assert.Equal(t, 23.0, d)
		count++
	}
	require.NoError(t, rows.Err())
	assert.Equal(t, 2, count)

	// A second run finds nothing to do.
	events := &eventLog{}
	config.Events = events.sink
	require.NoError(t, newTestExecutor(config).Execute(context.Background()))
	assert.Empty(t, events.lines)
}

func TestExecuteAgainstSQLiteRollsBackOnFailure(t *testing.T) {
	db := openSQLite(t)
	get, set := sqliteVersions(t, db)

	revisions, err := ir.NewSchemaRevisionSet(ir.Parameters{},
		plainRevision(0, "create table t (id integer)", "insert into t values (1)"),
		plainRevision(1, "insert into no_such_table values (2)"),
	)
	require.NoError(t, err)

	err = newTestExecutor(Configuration{
		VersionGet: get,
		VersionSet: set,
		Revisions:  revisions,
		Upgrade:    PerformUpgrades,
		Conn:       db,
	}).Execute(context.Background())
	e := requireCode(t, err, ir.ErrCodeSQLException)
	assert.Contains(t, e.Message, "no_such_table")

	_, ok, err := get(context.Background(), db)
	require.NoError(t, err)
	assert.False(t, ok, "version write from revision 0 must be rolled back")

	var name string
	err = db.QueryRow("select name from sqlite_master where type = 'table' and name = 't'").Scan(&name)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}
