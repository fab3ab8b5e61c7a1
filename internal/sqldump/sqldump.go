package sqldump

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/roach88/trasco/internal/ir"
)

// Exclusion names a category of statements to leave out of a dump.
type Exclusion string

const (
	// ExcludeRoles skips CREATE ROLE and DROP ROLE.
	ExcludeRoles Exclusion = "ROLES"

	// ExcludeGrants skips GRANT.
	ExcludeGrants Exclusion = "GRANTS"

	// ExcludeFunctions skips CREATE FUNCTION and DROP FUNCTION.
	ExcludeFunctions Exclusion = "FUNCTIONS"

	// ExcludeTriggers skips CREATE TRIGGER and DROP TRIGGER.
	ExcludeTriggers Exclusion = "TRIGGERS"
)

// excludedPrefixes lists the leading keywords each category matches.
var excludedPrefixes = map[Exclusion][]string{
	ExcludeRoles:     {"CREATE ROLE", "DROP ROLE"},
	ExcludeGrants:    {"GRANT"},
	ExcludeFunctions: {"CREATE FUNCTION", "DROP FUNCTION"},
	ExcludeTriggers:  {"CREATE TRIGGER", "DROP TRIGGER"},
}

// Exclusions is a set of excluded categories. The zero value excludes nothing.
type Exclusions map[Exclusion]struct{}

// NewExclusions creates a set from the given categories.
func NewExclusions(exclusions ...Exclusion) Exclusions {
	set := make(Exclusions, len(exclusions))
	for _, e := range exclusions {
		set[e] = struct{}{}
	}
	return set
}

// ParseExclusions parses category names case-insensitively, e.g. "roles".
func ParseExclusions(names []string) (Exclusions, error) {
	set := make(Exclusions, len(names))
	upper := cases.Upper(language.Und)
	for _, name := range names {
		e := Exclusion(upper.String(strings.TrimSpace(name)))
		if _, ok := excludedPrefixes[e]; !ok {
			return nil, fmt.Errorf("unknown exclusion %q: must be one of %s", name, strings.Join(knownExclusions(), ", "))
		}
		set[e] = struct{}{}
	}
	return set, nil
}

func knownExclusions() []string {
	names := make([]string, 0, len(excludedPrefixes))
	for e := range excludedPrefixes {
		names = append(names, strings.ToLower(string(e)))
	}
	sort.Strings(names)
	return names
}

// Contains reports whether the category is excluded.
func (x Exclusions) Contains(e Exclusion) bool {
	_, ok := x[e]
	return ok
}

// Excludes reports whether the statement text falls in an excluded category.
// Matching is a case-insensitive prefix match on the trimmed text.
func (x Exclusions) Excludes(text string) bool {
	if len(x) == 0 {
		return false
	}
	normalized := cases.Upper(language.Und).String(strings.TrimSpace(text))
	for e := range x {
		for _, prefix := range excludedPrefixes[e] {
			if strings.HasPrefix(normalized, prefix) {
				return true
			}
		}
	}
	return false
}

// Write writes every non-excluded statement of set to w.
func Write(w io.Writer, set *ir.SchemaRevisionSet, exclusions Exclusions) error {
	bw := bufio.NewWriter(w)
	for _, revision := range set.Revisions() {
		for _, statement := range revision.Statements {
			text := strings.TrimSpace(statement.Text())
			if exclusions.Excludes(text) {
				continue
			}
			if _, err := fmt.Fprintf(bw, "%s;\n", text); err != nil {
				return fmt.Errorf("write statement: %w", err)
			}
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write statement: %w", err)
	}
	return nil
}

// WriteFile writes the dump to path, creating parent directories and
// truncating any existing file.
func WriteFile(path string, set *ir.SchemaRevisionSet, exclusions Exclusions) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("open output: %w", err)
	}
	if err := Write(f, set, exclusions); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close output: %w", err)
	}
	return nil
}
