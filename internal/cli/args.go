package cli

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/roach88/trasco/internal/ir"
)

// parseArgumentFlag parses "name=kind:value".
func parseArgumentFlag(s string) (ir.Argument, error) {
	name, typed, ok := strings.Cut(s, "=")
	if !ok || name == "" {
		return nil, fmt.Errorf("argument %q: expected name=kind:value", s)
	}
	return parseTypedValue(name, typed)
}

// parseTypedValue parses "kind:value" into an argument called name.
//
// Kinds: string, int32, int64, float64, decimal, and numeric (narrowest of
// int32, int64 or decimal).
func parseTypedValue(name, typed string) (ir.Argument, error) {
	kind, value, ok := strings.Cut(typed, ":")
	if !ok {
		return nil, fmt.Errorf("argument %q: expected kind:value, got %q", name, typed)
	}

	var n ir.Numeric
	switch strings.ToLower(kind) {
	case "string":
		return ir.NewStringArgument(name, value), nil
	case "int32":
		i, err := strconv.ParseInt(value, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("argument %q: %w", name, err)
		}
		n = ir.Int32(i)
	case "int64":
		i, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("argument %q: %w", name, err)
		}
		n = ir.Int64(i)
	case "float64":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, fmt.Errorf("argument %q: %w", name, err)
		}
		n = ir.Float64(f)
	case "decimal":
		d, err := ir.NewDecimal(value)
		if err != nil {
			return nil, fmt.Errorf("argument %q: %w", name, err)
		}
		n = d
	case "numeric":
		parsed, err := ir.ParseNumeric(value)
		if err != nil {
			return nil, fmt.Errorf("argument %q: %w", name, err)
		}
		n = parsed
	default:
		return nil, fmt.Errorf("argument %q: unknown kind %q (string, int32, int64, float64, decimal, numeric)", name, kind)
	}
	return ir.NewNumericArgument(name, n), nil
}

// buildArguments merges config arguments with --arg flags. Flags win.
func buildArguments(fromConfig map[string]string, flags []string) (ir.Arguments, error) {
	byName := make(map[string]ir.Argument, len(fromConfig)+len(flags))

	names := make([]string, 0, len(fromConfig))
	for name := range fromConfig {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		arg, err := parseTypedValue(name, fromConfig[name])
		if err != nil {
			return ir.Arguments{}, err
		}
		byName[name] = arg
	}

	for _, flag := range flags {
		arg, err := parseArgumentFlag(flag)
		if err != nil {
			return ir.Arguments{}, err
		}
		byName[arg.Name()] = arg
	}

	args := make([]ir.Argument, 0, len(byName))
	for _, arg := range byName {
		args = append(args, arg)
	}
	return ir.NewArguments(args...)
}
