package ir

import "fmt"

// Interpolation selects how a parameterized statement receives its arguments.
type Interpolation string

const (
	// InterpolationPreparedStatement binds arguments as driver-level
	// positional parameters.
	InterpolationPreparedStatement Interpolation = "PREPARED_STATEMENT"

	// InterpolationStringFormatting substitutes rendered argument text into
	// %s slots before executing the result as plain SQL. Used for statements
	// that cannot be prepared (certain DDL). Argument values must be trusted.
	InterpolationStringFormatting Interpolation = "STRING_FORMATTING"
)

// ParseInterpolation parses the document spelling of an interpolation mode.
// The empty string selects InterpolationPreparedStatement.
func ParseInterpolation(s string) (Interpolation, error) {
	switch Interpolation(s) {
	case "":
		return InterpolationPreparedStatement, nil
	case InterpolationPreparedStatement, InterpolationStringFormatting:
		return Interpolation(s), nil
	default:
		return "", fmt.Errorf("unknown interpolation %q: must be %s or %s",
			s, InterpolationPreparedStatement, InterpolationStringFormatting)
	}
}

// Statement is a sealed interface over the statement variants.
// Only PlainStatement and ParameterizedStatement implement this.
type Statement interface {
	// Text returns the stored SQL text (template text for parameterized statements).
	Text() string
	statement() // Sealed
}

// PlainStatement is raw SQL executed without substitution.
type PlainStatement struct {
	SQL string
}

func (PlainStatement) statement() {}

// Text returns the SQL text.
func (s PlainStatement) Text() string { return s.SQL }

// ParameterizedStatement is SQL containing positional placeholders filled
// from named arguments.
type ParameterizedStatement struct {
	SQL           string
	References    ParameterReferences
	Interpolation Interpolation
}

func (ParameterizedStatement) statement() {}

// Text returns the SQL template text.
func (s ParameterizedStatement) Text() string { return s.SQL }

// FormatSlots counts the %s slots in a STRING_FORMATTING template. %% is a
// literal percent sign. Any other use of % is an error.
func FormatSlots(template string) (int, error) {
	slots := 0
	for i := 0; i < len(template); i++ {
		if template[i] != '%' {
			continue
		}
		if i+1 == len(template) {
			return 0, fmt.Errorf("template ends with a bare %%")
		}
		i++
		switch template[i] {
		case 's':
			slots++
		case '%':
		default:
			return 0, fmt.Errorf("unsupported verb %%%c at offset %d: use %%s or %%%%", template[i], i-1)
		}
	}
	return slots, nil
}
