package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/trasco/internal/compiler"
)

// ValidateResult describes a revision document that loaded cleanly.
type ValidateResult struct {
	Revisions  int              `json:"revisions"`
	Lowest     string           `json:"lowest,omitempty"`
	Highest    string           `json:"highest,omitempty"`
	Parameters []ParameterEntry `json:"parameters"`
	Digest     string           `json:"digest"`
}

// ParameterEntry is one declared parameter.
type ParameterEntry struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <revisions>",
		Short: "Check a revision document without touching a database",
		Long: `Load a revision document and report its version range, parameters and
content digest. The document must have contiguous versions, and every
statement reference must name a declared parameter.

Example:
  trasco validate revisions.cue
  trasco validate revisions.yaml --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	set, err := compiler.LoadFile(path)
	if err != nil {
		formatter.LoadError(err)
		return WrapExitError(ExitFailure, "validation failed", err)
	}

	digest, err := set.Digest()
	if err != nil {
		formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitFailure, "failed to compute digest", err)
	}

	result := ValidateResult{
		Revisions:  set.Len(),
		Parameters: []ParameterEntry{},
		Digest:     digest,
	}
	if lowest, ok := set.Lowest(); ok {
		result.Lowest = lowest.String()
	}
	if highest, ok := set.Highest(); ok {
		result.Highest = highest.String()
	}
	for _, p := range set.Parameters().All() {
		result.Parameters = append(result.Parameters, ParameterEntry{Name: p.Name, Kind: string(p.Kind)})
	}

	if opts.Format == "json" {
		return formatter.Success(result)
	}
	writeValidateText(formatter.Writer, path, result)
	return nil
}

func writeValidateText(w io.Writer, path string, r ValidateResult) {
	fmt.Fprintf(w, "%s: ok\n", path)
	if r.Revisions == 0 {
		fmt.Fprintln(w, "revisions: none")
	} else {
		fmt.Fprintf(w, "revisions: %d (versions %s..%s)\n", r.Revisions, r.Lowest, r.Highest)
	}
	if len(r.Parameters) == 0 {
		fmt.Fprintln(w, "parameters: none")
	} else {
		fmt.Fprintln(w, "parameters:")
		for _, p := range r.Parameters {
			fmt.Fprintf(w, "  %s %s\n", p.Name, p.Kind)
		}
	}
	fmt.Fprintf(w, "digest: %s\n", r.Digest)
}
