package ir

import (
	"errors"
	"fmt"
	"sort"
)

// ErrInvalidReferences is returned when a set of parameter references
// cannot be bound positionally.
var ErrInvalidReferences = errors.New("invalid parameter references")

// ParameterReference binds the positional slot Order of a parameterized
// statement to the argument called Name. Orders are zero-based.
type ParameterReference struct {
	Order int
	Name  string
}

// ParameterReferences is a set of references viewed two ways: in ascending
// positional order for binding, and by name for lookup.
//
// INVARIANT: both views contain exactly the same references. Construction
// rejects duplicate orders, duplicate names, negative orders and gaps in
// the order sequence (positions must be 0..n-1).
type ParameterReferences struct {
	inOrder []ParameterReference
	byName  map[string]ParameterReference
}

// NewParameterReferences creates a reference set from an unordered list.
func NewParameterReferences(refs ...ParameterReference) (ParameterReferences, error) {
	r := ParameterReferences{
		inOrder: make([]ParameterReference, len(refs)),
		byName:  make(map[string]ParameterReference, len(refs)),
	}
	copy(r.inOrder, refs)
	sort.SliceStable(r.inOrder, func(i, j int) bool {
		return r.inOrder[i].Order < r.inOrder[j].Order
	})

	for i, ref := range r.inOrder {
		if ref.Order < 0 {
			return ParameterReferences{}, fmt.Errorf("%w: negative order %d for %q", ErrInvalidReferences, ref.Order, ref.Name)
		}
		if i > 0 && r.inOrder[i-1].Order == ref.Order {
			return ParameterReferences{}, fmt.Errorf("%w: order %d used by %q and %q",
				ErrInvalidReferences, ref.Order, r.inOrder[i-1].Name, ref.Name)
		}
		if ref.Order != i {
			return ParameterReferences{}, fmt.Errorf("%w: expected order %d, found %d (orders must be contiguous from 0)",
				ErrInvalidReferences, i, ref.Order)
		}
		if _, ok := r.byName[ref.Name]; ok {
			return ParameterReferences{}, fmt.Errorf("%w: parameter %q referenced more than once", ErrInvalidReferences, ref.Name)
		}
		r.byName[ref.Name] = ref
	}

	return r, nil
}

// MustParameterReferences is like NewParameterReferences but panics on error.
// Intended for statically known references in tests and examples.
func MustParameterReferences(refs ...ParameterReference) ParameterReferences {
	r, err := NewParameterReferences(refs...)
	if err != nil {
		panic(err)
	}
	return r
}

// InOrder returns the references in ascending positional order.
func (r ParameterReferences) InOrder() []ParameterReference {
	out := make([]ParameterReference, len(r.inOrder))
	copy(out, r.inOrder)
	return out
}

// ByName returns the reference for the named parameter.
func (r ParameterReferences) ByName(name string) (ParameterReference, bool) {
	ref, ok := r.byName[name]
	return ref, ok
}

// Len returns the number of references.
func (r ParameterReferences) Len() int {
	return len(r.inOrder)
}
