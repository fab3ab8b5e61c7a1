package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/trasco/internal/ir"
)

// Querier is the subset of database/sql shared by *sql.DB, *sql.Conn and
// *sql.Tx. Version collaborators receive a Querier so the same function
// works before and inside the upgrade transaction.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}

// Conn is a connection the executor can open its transaction on.
// Satisfied by *sql.Conn and *sql.DB.
type Conn interface {
	Querier
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

// VersionGetFunc reads the current schema version. ok is false when the
// database has no recorded version.
type VersionGetFunc func(ctx context.Context, q Querier) (v ir.Version, ok bool, err error)

// VersionSetFunc records v as the current schema version. It is called
// inside the upgrade transaction.
type VersionSetFunc func(ctx context.Context, q Querier, v ir.Version) error

// UpgradePolicy controls whether the executor may change the schema.
type UpgradePolicy string

const (
	// PerformUpgrades applies pending revisions.
	PerformUpgrades UpgradePolicy = "PERFORM_UPGRADES"

	// FailInsteadOfUpgrading fails with UPGRADE_DISALLOWED when the database
	// is not already at the highest known version.
	FailInsteadOfUpgrading UpgradePolicy = "FAIL_INSTEAD_OF_UPGRADING"
)

// ParseUpgradePolicy parses the configuration spelling of a policy.
func ParseUpgradePolicy(s string) (UpgradePolicy, error) {
	switch UpgradePolicy(s) {
	case PerformUpgrades, FailInsteadOfUpgrading:
		return UpgradePolicy(s), nil
	default:
		return "", fmt.Errorf("unknown upgrade policy %q: must be %s or %s", s, PerformUpgrades, FailInsteadOfUpgrading)
	}
}

// Configuration bundles everything a single Execute call needs.
// A Configuration is not reused across calls: the connection's
// transactional state is mutated.
type Configuration struct {
	VersionGet VersionGetFunc
	VersionSet VersionSetFunc
	Events     EventSink
	Revisions  *ir.SchemaRevisionSet
	Upgrade    UpgradePolicy
	Arguments  ir.Arguments
	Conn       Conn
}

// Executor applies a revision set to one database connection.
type Executor struct {
	config Configuration
	logger *slog.Logger
	runIDs RunIDGenerator
}

// Option configures an Executor.
type Option func(*Executor)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Executor) {
		e.logger = logger
	}
}

// WithRunIDGenerator sets the generator for run identifiers.
// Default: UUIDv7Generator.
func WithRunIDGenerator(gen RunIDGenerator) Option {
	return func(e *Executor) {
		e.runIDs = gen
	}
}

// New creates an Executor for the given configuration.
func New(config Configuration, opts ...Option) *Executor {
	if config.Events == nil {
		config.Events = discardEvents
	}

	e := &Executor{
		config: config,
		logger: slog.Default(),
		runIDs: UUIDv7Generator{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (c Configuration) validate() error {
	var missing []string
	if c.VersionGet == nil {
		missing = append(missing, "VersionGet")
	}
	if c.VersionSet == nil {
		missing = append(missing, "VersionSet")
	}
	if c.Revisions == nil {
		missing = append(missing, "Revisions")
	}
	if c.Conn == nil {
		missing = append(missing, "Conn")
	}
	if len(missing) > 0 {
		return fmt.Errorf("engine: configuration is missing %v", missing)
	}
	if _, err := ParseUpgradePolicy(string(c.Upgrade)); err != nil {
		return fmt.Errorf("engine: %w", err)
	}
	return nil
}

// Execute brings the database up to the highest known revision.
//
// Failures are returned as *ir.Error values carrying one of the codes
// ARGUMENT_ERRORS, UPGRADE_DISALLOWED, UNRECOGNIZED_SCHEMA_REVISION or
// SQL_EXCEPTION. There is no partial success: if Execute returns an error
// after the transaction was opened, the transaction has been rolled back.
func (e *Executor) Execute(ctx context.Context) error {
	if err := e.config.validate(); err != nil {
		return err
	}

	log := e.logger.With("run_id", e.runIDs.Generate())

	// Argument problems abort before the connection is touched.
	if err := e.config.Arguments.CheckSatisfies(e.config.Revisions.Parameters()); err != nil {
		log.Error("argument check failed", "error", err)
		return err
	}

	existing, known, err := e.config.VersionGet(ctx, e.config.Conn)
	if err != nil {
		return ir.WrapError(ir.ErrCodeSQLException, err)
	}

	if !known && e.config.Upgrade == FailInsteadOfUpgrading {
		return ir.NewError(ir.ErrCodeUpgradeDisallowed,
			"Incompatible database schema, and upgrades are not permitted by the configuration.").
			WithAttribute("Configuration", string(e.config.Upgrade))
	}

	tx, err := e.config.Conn.BeginTx(ctx, nil)
	if err != nil {
		return ir.WrapError(ir.ErrCodeSQLException, err)
	}

	if err := e.executeUpgrades(ctx, log, tx, existing, known); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			log.Warn("rollback failed", "error", rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return ir.WrapError(ir.ErrCodeSQLException, err)
	}
	return nil
}

func (e *Executor) executeUpgrades(
	ctx context.Context,
	log *slog.Logger,
	tx *sql.Tx,
	existing ir.Version,
	known bool,
) error {
	revisions := e.config.Revisions
	log.Debug("schema revisions available", "count", revisions.Len())

	if revisions.Len() == 0 {
		return nil
	}

	lowest, _ := revisions.Lowest()
	highest, _ := revisions.Highest()

	current := existing
	if !known {
		current = lowest.Add(-1)
	}
	log.Debug("database schema version", "version", current.String(), "known", known)

	if current.Cmp(highest) > 0 {
		return ir.NewError(ir.ErrCodeUnrecognizedSchemaRevision, "Database schema version is too high!").
			WithAttribute("Current Version", current.String()).
			WithAttribute("Highest Known Version", highest.String())
	}

	if !current.Equal(highest) && e.config.Upgrade == FailInsteadOfUpgrading {
		return ir.NewError(ir.ErrCodeUpgradeDisallowed,
			"Incompatible database schema, and upgrades are not permitted by the configuration.").
			WithAttribute("Schema Version", current.String()).
			WithAttribute("Highest Known Version", highest.String()).
			WithAttribute("Configuration", string(e.config.Upgrade))
	}

	for _, revision := range revisions.After(current) {
		log.Debug("upgrading revision", "from", current.String(), "to", revision.Version.String())
		e.config.Events(Upgrading{From: current, To: revision.Version})

		for _, statement := range revision.Statements {
			if err := e.executeStatement(ctx, log, tx, statement); err != nil {
				return err
			}
		}

		if err := e.config.VersionSet(ctx, tx, revision.Version); err != nil {
			return ir.WrapError(ir.ErrCodeSQLException, err)
		}
		current = revision.Version
	}

	log.Info("schema is up to date", "version", current.String())
	return nil
}
