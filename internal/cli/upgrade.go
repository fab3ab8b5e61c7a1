package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/trasco/internal/compiler"
	"github.com/roach88/trasco/internal/engine"
	"github.com/roach88/trasco/internal/ir"
)

// UpgradeOptions holds flags for the upgrade command.
type UpgradeOptions struct {
	*RootOptions
	DatabaseOptions

	Revisions string
	Args      []string
	NoUpgrade bool

	// RunIDs allows overriding the run identifier generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	RunIDs engine.RunIDGenerator
}

// UpgradeResult is the JSON payload of a successful upgrade.
type UpgradeResult struct {
	RunID   string   `json:"run_id"`
	Events  []string `json:"events"`
	Version string   `json:"version,omitempty"`
}

// NewUpgradeCommand creates the upgrade command.
func NewUpgradeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &UpgradeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "upgrade",
		Short: "Bring a database up to the highest known revision",
		Long: `Apply every revision newer than the database's current schema version.

All pending revisions run in one transaction: either the database ends at
the highest known version or nothing changes. With --no-upgrade the command
only checks that the database is already current.

Arguments for parameterized statements are given as name=kind:value, where
kind is string, int32, int64, float64, decimal or numeric.

Example:
  trasco upgrade --dsn ./app.db --revisions revisions.cue --arg owner=string:app
  trasco upgrade --config trasco.yaml --no-upgrade`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpgrade(opts, cmd)
		},
	}

	opts.DatabaseOptions.addFlags(cmd)
	cmd.Flags().StringVarP(&opts.Revisions, "revisions", "r", "", "revision document (.cue, .yaml, .yml)")
	cmd.Flags().StringArrayVarP(&opts.Args, "arg", "a", nil, "statement argument as name=kind:value (repeatable)")
	cmd.Flags().BoolVar(&opts.NoUpgrade, "no-upgrade", false, "fail instead of upgrading an outdated database")

	return cmd
}

func runUpgrade(opts *UpgradeOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg := opts.Config
	opts.DatabaseOptions.applyConfig(cmd, cfg)
	if !cmd.Flags().Changed("revisions") && cfg != nil && cfg.Revisions != "" {
		opts.Revisions = cfg.Revisions
	}

	policy, err := opts.upgradePolicy(cmd)
	if err != nil {
		formatter.Error(ErrCodeConfig, err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid upgrade policy", err)
	}

	if opts.Revisions == "" {
		formatter.Error(ErrCodeConfig, "no revisions given: set --revisions or revisions in the config file", nil)
		return NewExitError(ExitCommandError, "no revisions given")
	}
	revisions, err := compiler.LoadFile(opts.Revisions)
	if err != nil {
		formatter.LoadError(err)
		return WrapExitError(ExitCommandError, "failed to load revisions", err)
	}
	formatter.VerboseLog("Loaded %d revision(s) from %s", revisions.Len(), opts.Revisions)

	var configArgs map[string]string
	if cfg != nil {
		configArgs = cfg.Arguments
	}
	arguments, err := buildArguments(configArgs, opts.Args)
	if err != nil {
		formatter.Error(ErrCodeArguments, err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid arguments", err)
	}

	db, err := opts.DatabaseOptions.open(ctx, formatter)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.store.Close(); closeErr != nil {
			opts.logger.Error("error closing database", "error", closeErr)
		}
	}()

	runIDs := opts.RunIDs
	if runIDs == nil {
		runIDs = engine.UUIDv7Generator{}
	}
	runID := runIDs.Generate()

	result := UpgradeResult{RunID: runID, Events: []string{}}
	sink := func(e engine.Event) {
		result.Events = append(result.Events, e.String())
		if opts.Format != "json" {
			fmt.Fprintln(formatter.Writer, e.String())
		}
	}

	executor := engine.New(engine.Configuration{
		VersionGet: db.versionGet,
		VersionSet: db.versionSet,
		Events:     sink,
		Revisions:  revisions,
		Upgrade:    policy,
		Arguments:  arguments,
		Conn:       db.store.DB(),
	},
		engine.WithLogger(opts.logger.With(slog.String("revisions", opts.Revisions))),
		engine.WithRunIDGenerator(engine.FixedGenerator{ID: runID}),
	)

	if err := executor.Execute(ctx); err != nil {
		var execErr *ir.Error
		if errors.As(err, &execErr) {
			formatter.ExecutionError(execErr)
		} else {
			formatter.Error(ErrCodeGeneric, err.Error(), nil)
		}
		return WrapExitError(ExitFailure, "upgrade failed", err)
	}

	version, err := db.currentVersion(ctx)
	if err != nil {
		formatter.Error(ErrCodeDatabase, err.Error(), nil)
		return WrapExitError(ExitFailure, "failed to read schema version", err)
	}
	result.Version = version

	if opts.Format == "json" {
		return formatter.Success(result)
	}
	if version == "" {
		return formatter.Success("no revisions to apply")
	}
	return formatter.Success(fmt.Sprintf("database schema is at version %s", version))
}

// upgradePolicy resolves --no-upgrade against the config file's upgrade field.
func (o *UpgradeOptions) upgradePolicy(cmd *cobra.Command) (engine.UpgradePolicy, error) {
	if cmd.Flags().Changed("no-upgrade") || o.Config == nil || o.Config.Upgrade == "" {
		if o.NoUpgrade {
			return engine.FailInsteadOfUpgrading, nil
		}
		return engine.PerformUpgrades, nil
	}
	return engine.ParseUpgradePolicy(o.Config.Upgrade)
}
