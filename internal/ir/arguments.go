package ir

import (
	"fmt"
	"sort"
)

// Arguments maps parameter names to caller-supplied argument values.
type Arguments struct {
	byName map[string]Argument
}

// EmptyArguments returns an argument set with no values.
func EmptyArguments() Arguments {
	return Arguments{}
}

// NewArguments creates an argument set. Argument names must be unique.
func NewArguments(args ...Argument) (Arguments, error) {
	a := Arguments{byName: make(map[string]Argument, len(args))}
	for _, arg := range args {
		if _, ok := a.byName[arg.Name()]; ok {
			return Arguments{}, fmt.Errorf("duplicate argument %q", arg.Name())
		}
		a.byName[arg.Name()] = arg
	}
	return a, nil
}

// Get returns the argument for the named parameter.
func (a Arguments) Get(name string) (Argument, bool) {
	arg, ok := a.byName[name]
	return arg, ok
}

// Len returns the number of arguments.
func (a Arguments) Len() int {
	return len(a.byName)
}

// Names returns the argument names in sorted order.
func (a Arguments) Names() []string {
	names := make([]string, 0, len(a.byName))
	for name := range a.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CheckSatisfies verifies that every declared parameter has an argument of
// the matching kind.
//
// All problems are collected before failing: the returned *Error has code
// ARGUMENT_ERRORS and one sub-error per offending parameter, in declaration
// order. Arguments that match no parameter are ignored.
func (a Arguments) CheckSatisfies(params Parameters) error {
	var errs []*Error

	for _, param := range params.list {
		arg, ok := a.byName[param.Name]
		if !ok {
			errs = append(errs,
				NewError(ErrCodeArgumentMissing, "No argument provided for parameter.").
					WithAttribute("Parameter Name", param.Name).
					WithAttribute("Parameter Type", string(param.Kind)))
			continue
		}

		if arg.Kind() != param.Kind {
			errs = append(errs,
				NewError(ErrCodeArgumentTypeError, "Incorrect argument type.").
					WithAttribute("Parameter Name", param.Name).
					WithAttribute("Parameter Type", string(param.Kind)).
					WithAttribute("Argument Type", string(arg.Kind())))
		}
	}

	if len(errs) > 0 {
		return &Error{
			Code:    ErrCodeArgumentErrors,
			Message: "One or more parameter/argument errors were found.",
			Errors:  errs,
		}
	}
	return nil
}
