package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// VersionOptions holds flags for the version command.
type VersionOptions struct {
	*RootOptions
	DatabaseOptions
}

// VersionResult is the JSON payload of the version command.
type VersionResult struct {
	Known   bool   `json:"known"`
	Version string `json:"version,omitempty"`
}

// NewVersionCommand creates the version command.
func NewVersionCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &VersionOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the schema version recorded in a database",
		Long: `Read the schema version from the configured version store without
changing anything.

Example:
  trasco version --dsn ./app.db
  trasco version --driver pgx --dsn postgres://localhost/app --version-store table`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVersion(opts, cmd)
		},
	}

	opts.DatabaseOptions.addFlags(cmd)
	return cmd
}

func runVersion(opts *VersionOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	opts.DatabaseOptions.applyConfig(cmd, opts.Config)
	db, err := opts.DatabaseOptions.open(ctx, formatter)
	if err != nil {
		return err
	}
	defer db.store.Close()

	version, err := db.currentVersion(ctx)
	if err != nil {
		formatter.Error(ErrCodeDatabase, err.Error(), nil)
		return WrapExitError(ExitFailure, "failed to read schema version", err)
	}

	if opts.Format == "json" {
		return formatter.Success(VersionResult{Known: version != "", Version: version})
	}
	if version == "" {
		return formatter.Success("no version recorded")
	}
	return formatter.Success(fmt.Sprintf("schema version %s", version))
}
