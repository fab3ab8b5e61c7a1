package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/trasco/internal/engine"
	"github.com/roach88/trasco/internal/store"
)

// DatabaseOptions holds the flags that select a database and version store.
type DatabaseOptions struct {
	Driver       string
	DSN          string
	VersionStore string
	VersionTable string
}

func (o *DatabaseOptions) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.Driver, "driver", "sqlite3", "database driver (sqlite3|sqlite|pgx)")
	cmd.Flags().StringVar(&o.DSN, "dsn", "", "data source name, e.g. ./app.db or postgres://user@host/db")
	cmd.Flags().StringVar(&o.VersionStore, "version-store", "", "where the schema version is kept (user_version|table)")
	cmd.Flags().StringVar(&o.VersionTable, "version-table", store.DefaultVersionTable, "table name for --version-store=table")
}

// applyConfig fills options not set on the command line from cfg.
func (o *DatabaseOptions) applyConfig(cmd *cobra.Command, cfg *Config) {
	if cfg == nil {
		return
	}
	if !cmd.Flags().Changed("driver") && cfg.Database.Driver != "" {
		o.Driver = cfg.Database.Driver
	}
	if !cmd.Flags().Changed("dsn") && cfg.Database.DSN != "" {
		o.DSN = cfg.Database.DSN
	}
	if !cmd.Flags().Changed("version-store") && cfg.VersionStore != "" {
		o.VersionStore = cfg.VersionStore
	}
	if !cmd.Flags().Changed("version-table") && cfg.VersionTable != "" {
		o.VersionTable = cfg.VersionTable
	}
}

// versionStoreKind defaults to user_version on SQLite and the version table elsewhere.
func (o *DatabaseOptions) versionStoreKind(driver store.Driver) string {
	if o.VersionStore != "" {
		return o.VersionStore
	}
	if driver.IsSQLite() {
		return store.VersionStoreUserVersion
	}
	return store.VersionStoreTable
}

// openedDatabase is an open store plus its version collaborators.
type openedDatabase struct {
	store      *store.Store
	versionGet engine.VersionGetFunc
	versionSet engine.VersionSetFunc
}

// open connects to the database. Failures are reported through formatter and
// returned as ExitErrors.
func (o *DatabaseOptions) open(ctx context.Context, formatter *OutputFormatter) (*openedDatabase, error) {
	if o.DSN == "" {
		formatter.Error(ErrCodeConfig, "no database given: set --dsn or database.dsn in the config file", nil)
		return nil, NewExitError(ExitCommandError, "no database given")
	}

	driver, err := store.ParseDriver(o.Driver)
	if err != nil {
		formatter.Error(ErrCodeConfig, err.Error(), nil)
		return nil, WrapExitError(ExitCommandError, "invalid driver", err)
	}

	formatter.VerboseLog("Opening %s database %s", driver, o.DSN)
	st, err := store.Open(ctx, driver, o.DSN)
	if err != nil {
		formatter.Error(ErrCodeDatabase, err.Error(), nil)
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}

	get, set, err := st.VersionFuncs(o.versionStoreKind(driver), o.VersionTable)
	if err != nil {
		st.Close()
		formatter.Error(ErrCodeConfig, err.Error(), nil)
		return nil, WrapExitError(ExitCommandError, "invalid version store", err)
	}

	return &openedDatabase{store: st, versionGet: get, versionSet: set}, nil
}

// currentVersion reads the stored version as text, or "" when none is recorded.
func (d *openedDatabase) currentVersion(ctx context.Context) (string, error) {
	v, ok, err := d.versionGet(ctx, d.store.DB())
	if err != nil {
		return "", fmt.Errorf("read schema version: %w", err)
	}
	if !ok {
		return "", nil
	}
	return v.String(), nil
}
