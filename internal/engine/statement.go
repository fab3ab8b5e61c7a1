package engine

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/roach88/trasco/internal/ir"
)

// literalEscaper escapes text for embedding inside a single-quoted SQL literal.
var literalEscaper = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	`'`, `''`,
)

func (e *Executor) executeStatement(ctx context.Context, log *slog.Logger, tx *sql.Tx, statement ir.Statement) error {
	switch st := statement.(type) {
	case ir.PlainStatement:
		return e.executePlain(ctx, log, tx, strings.TrimSpace(st.SQL))
	case ir.ParameterizedStatement:
		switch st.Interpolation {
		case ir.InterpolationStringFormatting:
			text := FormatStatement(st, e.config.Arguments)
			return e.executePlain(ctx, log, tx, text)
		default:
			return e.executePrepared(ctx, log, tx, st)
		}
	default:
		panic(fmt.Sprintf("unreachable: unknown statement type %T", statement))
	}
}

func (e *Executor) executePlain(ctx context.Context, log *slog.Logger, tx *sql.Tx, text string) error {
	log.Debug("executing statement", "sql", text)
	e.config.Events(ExecutingSQL{Statement: text})

	if _, err := tx.ExecContext(ctx, text); err != nil {
		return ir.WrapError(ir.ErrCodeSQLException, err)
	}
	return nil
}

func (e *Executor) executePrepared(ctx context.Context, log *slog.Logger, tx *sql.Tx, st ir.ParameterizedStatement) error {
	text := strings.TrimSpace(st.SQL)
	log.Debug("executing prepared statement", "sql", text, "parameters", st.References.Len())
	e.config.Events(ExecutingSQL{Statement: text})

	args := BindValues(st.References, e.config.Arguments)

	prepared, err := tx.PrepareContext(ctx, text)
	if err != nil {
		return ir.WrapError(ir.ErrCodeSQLException, err)
	}
	defer prepared.Close()

	if _, err := prepared.ExecContext(ctx, args...); err != nil {
		return ir.WrapError(ir.ErrCodeSQLException, err)
	}
	return nil
}

// BindValues resolves the arguments for a prepared statement. Element i of
// the result fills placeholder i+1.
//
// Arguments must already satisfy the revision set's parameters; a reference
// without a matching argument panics.
func BindValues(refs ir.ParameterReferences, args ir.Arguments) []any {
	values := make([]any, 0, refs.Len())
	for _, ref := range refs.InOrder() {
		values = append(values, bindValue(mustArgument(args, ref.Name)))
	}
	return values
}

func bindValue(arg ir.Argument) any {
	switch a := arg.(type) {
	case ir.StringArgument:
		return a.Value()
	case ir.NumericArgument:
		switch n := a.Value().(type) {
		case ir.Int32:
			return int32(n)
		case ir.Int64:
			return int64(n)
		case ir.Float64:
			return float64(n)
		case ir.Decimal:
			// database/sql has no decimal type; drivers accept the exact text.
			return n.String()
		default:
			panic(fmt.Sprintf("unreachable: unknown numeric type %T", a.Value()))
		}
	default:
		panic(fmt.Sprintf("unreachable: unknown argument type %T", arg))
	}
}

// FormatStatement renders a parameterized statement as literal SQL by
// substituting each referenced argument, in positional order, into the
// template's %s slots. The template is trimmed first.
//
// The result is not injection-safe. Argument values must be trusted.
func FormatStatement(st ir.ParameterizedStatement, args ir.Arguments) string {
	refs := st.References.InOrder()
	rendered := make([]any, 0, len(refs))
	for _, ref := range refs {
		rendered = append(rendered, RenderLiteral(mustArgument(args, ref.Name)))
	}
	return fmt.Sprintf(strings.TrimSpace(st.SQL), rendered...)
}

// RenderLiteral renders an argument as inline SQL. Strings are single-quoted
// with embedded quotes and backslashes escaped; numerics render as their
// canonical decimal text.
func RenderLiteral(arg ir.Argument) string {
	switch a := arg.(type) {
	case ir.StringArgument:
		return quoteLiteral(a.Value())
	case ir.NumericArgument:
		return a.Value().String()
	default:
		panic(fmt.Sprintf("unreachable: unknown argument type %T", arg))
	}
}

func quoteLiteral(s string) string {
	return "'" + literalEscaper.Replace(s) + "'"
}

func mustArgument(args ir.Arguments, name string) ir.Argument {
	arg, ok := args.Get(name)
	if !ok {
		panic(fmt.Sprintf("unreachable: no argument for parameter %q", name))
	}
	return arg
}
