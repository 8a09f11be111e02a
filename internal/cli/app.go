package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/genq/internal/config"
	"github.com/roach88/genq/internal/logging"
	"github.com/roach88/genq/internal/pg"
	"github.com/roach88/genq/internal/schema"
	"github.com/roach88/genq/internal/search"
	"github.com/roach88/genq/internal/store"
)

// app is everything a command needs once configuration is resolved.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	engine store.Engine
	svc    *search.Service
}

func (a *app) Close() error {
	return a.engine.Close()
}

// openApp loads configuration, opens the configured engine and snapshots its
// record types into a search service. Logs go to stderr so command output
// stays clean.
func openApp(ctx context.Context, cmd *cobra.Command, opts *RootOptions) (*app, error) {
	cfg, err := opts.loadConfig(cmd)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	logger := logging.New(cfg.Logging, cmd.ErrOrStderr())

	eng, err := openEngine(ctx, cfg, logger)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}

	reg, err := schema.Load(ctx, eng, schema.WithInternalFields(cfg.Search.InternalFields...))
	if err != nil {
		eng.Close()
		return nil, WrapExitError(ExitCommandError, "failed to load record types", err)
	}
	logger.Debug("registry loaded", "driver", eng.Driver(), "types", len(reg.Types()))

	svc := search.New(eng, reg, search.Options{
		FallbackPrefix: cfg.Search.FallbackPrefix,
		QueryShape:     cfg.Search.QueryShape,
		Hints:          cfg.Search.Hints,
		QueryTimeout:   cfg.Database.QueryTimeout,
		Logger:         logger,
	})
	return &app{cfg: cfg, logger: logger, engine: eng, svc: svc}, nil
}

// openEngine picks the persistence engine for the configured driver.
func openEngine(ctx context.Context, cfg *config.Config, logger *slog.Logger) (store.Engine, error) {
	db := cfg.Database
	switch db.Driver {
	case config.DriverMemory:
		catalog, err := schema.LoadCatalog(db.Definitions)
		if err != nil {
			return nil, err
		}
		return store.NewMemory(catalog, logger), nil
	case config.DriverPostgres:
		return pg.Open(ctx, db.DSN, cfg.SchemaName(), logger)
	case config.DriverSQLite, config.DriverDuckDB:
		return store.Open(ctx, db.Driver, db.DSN, store.Options{Schema: cfg.SchemaName(), Logger: logger})
	default:
		return nil, fmt.Errorf("unsupported driver %q", db.Driver)
	}
}

func newFormatter(cmd *cobra.Command, opts *RootOptions) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}
