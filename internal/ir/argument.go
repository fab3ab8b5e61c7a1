package ir

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/cockroachdb/apd/v3"
)

// Argument is a sealed interface representing a named, typed value supplied
// by the caller at execution time.
// Only StringArgument and NumericArgument implement this.
type Argument interface {
	Name() string
	Kind() ParameterKind
	argument() // Sealed
}

// StringArgument is an argument of kind STRING.
type StringArgument struct {
	name  string
	value string
}

// NewStringArgument creates a string argument.
func NewStringArgument(name, value string) StringArgument {
	return StringArgument{name: name, value: value}
}

func (StringArgument) argument() {}

// Name returns the parameter name this argument satisfies.
func (a StringArgument) Name() string { return a.name }

// Kind returns KindString.
func (StringArgument) Kind() ParameterKind { return KindString }

// Value returns the raw string value.
func (a StringArgument) Value() string { return a.value }

// NumericArgument is an argument of kind NUMERIC.
type NumericArgument struct {
	name  string
	value Numeric
}

// NewNumericArgument creates a numeric argument.
func NewNumericArgument(name string, value Numeric) NumericArgument {
	return NumericArgument{name: name, value: value}
}

func (NumericArgument) argument() {}

// Name returns the parameter name this argument satisfies.
func (a NumericArgument) Name() string { return a.name }

// Kind returns KindNumeric.
func (NumericArgument) Kind() ParameterKind { return KindNumeric }

// Value returns the numeric representation.
func (a NumericArgument) Value() Numeric { return a.value }

// Numeric is a sealed interface over the supported numeric representations.
// Only Int32, Int64, Float64 and Decimal implement this.
//
// String returns the canonical decimal text used when a value is rendered
// into SQL.
type Numeric interface {
	String() string
	numeric() // Sealed
}

// Int32 is a 32-bit integer argument value.
type Int32 int32

func (Int32) numeric() {}

func (n Int32) String() string { return strconv.FormatInt(int64(n), 10) }

// Int64 is a 64-bit integer argument value.
type Int64 int64

func (Int64) numeric() {}

func (n Int64) String() string { return strconv.FormatInt(int64(n), 10) }

// Float64 is a double precision argument value.
type Float64 float64

func (Float64) numeric() {}

// String renders the shortest exact decimal form and always keeps a
// fractional part, so 23 renders as "23.0".
func (n Float64) String() string {
	f := float64(n)
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return s
	}
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// Decimal is an arbitrary-precision decimal argument value.
type Decimal struct {
	d *apd.Decimal
}

func (Decimal) numeric() {}

// NewDecimal parses a decimal string such as "23.0" or "-1.5E3".
// The scale of the input is preserved.
func NewDecimal(s string) (Decimal, error) {
	d, _, err := apd.NewFromString(s)
	if err != nil {
		return Decimal{}, fmt.Errorf("invalid decimal %q: %w", s, err)
	}
	return Decimal{d: d}, nil
}

// DecimalFromAPD creates a Decimal from an apd.Decimal. The value is copied.
func DecimalFromAPD(d *apd.Decimal) Decimal {
	return Decimal{d: new(apd.Decimal).Set(d)}
}

// APD returns a copy of the underlying apd.Decimal.
func (n Decimal) APD() *apd.Decimal {
	if n.d == nil {
		return new(apd.Decimal)
	}
	return new(apd.Decimal).Set(n.d)
}

// String renders the value in plain (non-exponent) notation.
func (n Decimal) String() string {
	if n.d == nil {
		return "0"
	}
	return n.d.Text('f')
}

// ParseNumeric parses text into the narrowest matching representation:
// Int32, then Int64, then Decimal. Floats are never inferred; use Float64
// explicitly when double semantics are wanted.
func ParseNumeric(s string) (Numeric, error) {
	if i, err := strconv.ParseInt(s, 10, 32); err == nil {
		return Int32(i), nil
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return Int64(i), nil
	}
	return NewDecimal(s)
}
