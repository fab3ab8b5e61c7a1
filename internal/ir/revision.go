package ir

import (
	"errors"
	"fmt"
	"sort"
)

// Construction errors for SchemaRevisionSet.
var (
	// ErrVersionGap indicates consecutive revision versions differ by more than 1.
	ErrVersionGap = errors.New("revision versions must always increment by 1")

	// ErrDuplicateVersion indicates two revisions share a version.
	ErrDuplicateVersion = errors.New("duplicate revision version")

	// ErrUndeclaredParameter indicates a statement references a parameter
	// the revision set does not declare.
	ErrUndeclaredParameter = errors.New("undeclared parameter")

	// ErrFormatSlots indicates a STRING_FORMATTING template whose slots do
	// not match its parameter references.
	ErrFormatSlots = errors.New("format slots do not match parameter references")
)

// SchemaRevision is the set of statements that upgrade the schema from the
// previous version to Version.
type SchemaRevision struct {
	Version    Version
	Statements []Statement
}

// Compare orders revisions by version.
func (r SchemaRevision) Compare(o SchemaRevision) int {
	return r.Version.Cmp(o.Version)
}

// SchemaRevisionSet is a validated, gap-free collection of revisions plus
// the parameters their statements may reference.
//
// INVARIANT: revisions are sorted by version and, when two or more exist,
// consecutive versions differ by exactly 1.
// The set is immutable after construction; accessors return copies.
type SchemaRevisionSet struct {
	parameters Parameters
	revisions  []SchemaRevision
}

// NewSchemaRevisionSet validates and creates a revision set.
// Revisions may be given in any order.
func NewSchemaRevisionSet(params Parameters, revisions ...SchemaRevision) (*SchemaRevisionSet, error) {
	sorted := make([]SchemaRevision, len(revisions))
	copy(sorted, revisions)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Compare(sorted[j]) < 0
	})

	for i := 1; i < len(sorted); i++ {
		previous, current := sorted[i-1].Version, sorted[i].Version
		if previous.Equal(current) {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateVersion, current)
		}
		if !previous.Add(1).Equal(current) {
			return nil, fmt.Errorf("%w (received %s followed by %s)", ErrVersionGap, previous, current)
		}
	}

	for _, rev := range sorted {
		for _, st := range rev.Statements {
			ps, ok := st.(ParameterizedStatement)
			if !ok {
				continue
			}
			for _, ref := range ps.References.inOrder {
				if _, declared := params.Get(ref.Name); !declared {
					return nil, fmt.Errorf("%w: revision %s references %q", ErrUndeclaredParameter, rev.Version, ref.Name)
				}
			}
			if ps.Interpolation != InterpolationStringFormatting {
				continue
			}
			slots, err := FormatSlots(ps.SQL)
			if err != nil {
				return nil, fmt.Errorf("%w: revision %s: %v", ErrFormatSlots, rev.Version, err)
			}
			if slots != ps.References.Len() {
				return nil, fmt.Errorf("%w: revision %s has %d slots and %d references",
					ErrFormatSlots, rev.Version, slots, ps.References.Len())
			}
		}
	}

	return &SchemaRevisionSet{parameters: params, revisions: sorted}, nil
}

// Parameters returns the declared parameters.
func (s *SchemaRevisionSet) Parameters() Parameters {
	return s.parameters
}

// Revisions returns all revisions in ascending version order.
func (s *SchemaRevisionSet) Revisions() []SchemaRevision {
	out := make([]SchemaRevision, len(s.revisions))
	copy(out, s.revisions)
	return out
}

// Len returns the number of revisions.
func (s *SchemaRevisionSet) Len() int {
	return len(s.revisions)
}

// Lowest returns the lowest known version. ok is false for an empty set.
func (s *SchemaRevisionSet) Lowest() (v Version, ok bool) {
	if len(s.revisions) == 0 {
		return Version{}, false
	}
	return s.revisions[0].Version, true
}

// Highest returns the highest known version. ok is false for an empty set.
func (s *SchemaRevisionSet) Highest() (v Version, ok bool) {
	if len(s.revisions) == 0 {
		return Version{}, false
	}
	return s.revisions[len(s.revisions)-1].Version, true
}

// After returns the revisions with a version strictly greater than v, in
// ascending order.
func (s *SchemaRevisionSet) After(v Version) []SchemaRevision {
	i := sort.Search(len(s.revisions), func(i int) bool {
		return s.revisions[i].Version.Cmp(v) > 0
	})
	out := make([]SchemaRevision, len(s.revisions)-i)
	copy(out, s.revisions[i:])
	return out
}
