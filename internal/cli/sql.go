package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/trasco/internal/compiler"
	"github.com/roach88/trasco/internal/sqldump"
)

// SQLOptions holds flags for the sql command.
type SQLOptions struct {
	*RootOptions
	Output  string
	Exclude []string
}

// NewSQLCommand creates the sql command.
func NewSQLCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SQLOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "sql <revisions>",
		Short: "Write the SQL text of every revision",
		Long: `Write the statements of every revision, lowest version first, as one
SQL script. Each statement is terminated by ";" and a newline.

Statements that start with CREATE ROLE, GRANT, CREATE FUNCTION or
CREATE TRIGGER can be left out with --exclude roles,grants,functions,triggers.

Example:
  trasco sql revisions.cue
  trasco sql revisions.yaml --exclude roles,grants -o schema.sql`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSQL(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().StringSliceVar(&opts.Exclude, "exclude", nil, "statement classes to skip (roles,grants,functions,triggers)")

	return cmd
}

func runSQL(opts *SQLOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	exclusions, err := sqldump.ParseExclusions(opts.Exclude)
	if err != nil {
		formatter.Error(ErrCodeConfig, err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid exclusions", err)
	}

	set, err := compiler.LoadFile(path)
	if err != nil {
		formatter.LoadError(err)
		return WrapExitError(ExitCommandError, "failed to load revisions", err)
	}

	if opts.Output == "" {
		if err := sqldump.Write(cmd.OutOrStdout(), set, exclusions); err != nil {
			formatter.Error(ErrCodeWriteFailed, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to write SQL", err)
		}
		return nil
	}

	if err := sqldump.WriteFile(opts.Output, set, exclusions); err != nil {
		formatter.Error(ErrCodeWriteFailed, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to write SQL", err)
	}
	formatter.VerboseLog("Wrote %d revision(s)", set.Len())

	if opts.Format == "json" {
		return formatter.Success(map[string]any{
			"output":    opts.Output,
			"revisions": set.Len(),
		})
	}
	return formatter.Success(fmt.Sprintf("wrote %s", opts.Output))
}
