package ir

import (
	"errors"
	"fmt"
)

// ParameterKind is the type of value a parameter accepts.
type ParameterKind string

const (
	// KindString accepts StringArgument values.
	KindString ParameterKind = "STRING"

	// KindNumeric accepts NumericArgument values.
	KindNumeric ParameterKind = "NUMERIC"
)

// ParseParameterKind parses the document spelling of a kind.
func ParseParameterKind(s string) (ParameterKind, error) {
	switch ParameterKind(s) {
	case KindString, KindNumeric:
		return ParameterKind(s), nil
	default:
		return "", fmt.Errorf("unknown parameter kind %q: must be %s or %s", s, KindString, KindNumeric)
	}
}

// ErrDuplicateParameter is returned when two parameters share a name.
var ErrDuplicateParameter = errors.New("duplicate parameter")

// Parameter declares a named value that upgrade statements expect to receive.
type Parameter struct {
	Name string
	Kind ParameterKind
}

// Parameters is an ordered set of parameter declarations.
// Declaration order is preserved; names are unique.
type Parameters struct {
	list  []Parameter
	index map[string]int
}

// NewParameters creates a parameter set in the given declaration order.
func NewParameters(params ...Parameter) (Parameters, error) {
	p := Parameters{
		list:  make([]Parameter, 0, len(params)),
		index: make(map[string]int, len(params)),
	}
	for _, param := range params {
		if _, ok := p.index[param.Name]; ok {
			return Parameters{}, fmt.Errorf("%w: %q", ErrDuplicateParameter, param.Name)
		}
		p.index[param.Name] = len(p.list)
		p.list = append(p.list, param)
	}
	return p, nil
}

// All returns the parameters in declaration order.
func (p Parameters) All() []Parameter {
	out := make([]Parameter, len(p.list))
	copy(out, p.list)
	return out
}

// Get returns the parameter with the given name.
func (p Parameters) Get(name string) (Parameter, bool) {
	i, ok := p.index[name]
	if !ok {
		return Parameter{}, false
	}
	return p.list[i], true
}

// Len returns the number of declared parameters.
func (p Parameters) Len() int {
	return len(p.list)
}
