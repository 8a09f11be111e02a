package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/marcboeker/go-duckdb"

	"github.com/roach88/genq/internal/queryir"
	"github.com/roach88/genq/internal/querysql"
	"github.com/roach88/genq/internal/schema"
)

// SQLEngine runs queries through database/sql against SQLite or DuckDB.
type SQLEngine struct {
	db       *sql.DB
	dialect  querysql.Dialect
	compiler *querysql.SQLCompiler
	schema   string
	log      *slog.Logger
}

// Options configures Open.
type Options struct {
	// Schema qualifies every table in queries and updates. DuckDB also
	// introspects it and defaults to "main". For SQLite it names an attached
	// database; empty leaves tables unqualified.
	Schema string
	Logger *slog.Logger
}

// Open connects to a SQLite ("sqlite") or DuckDB ("duckdb") database.
//
// SQLite connections are configured with:
//   - 5-second busy timeout for lock contention
//   - Foreign key enforcement
//   - A single open connection
func Open(ctx context.Context, driver, dsn string, opts Options) (*SQLEngine, error) {
	dialect, err := querysql.DialectFor(driver)
	if err != nil {
		return nil, err
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	var driverName string
	switch dialect.Name {
	case querysql.SQLite.Name:
		driverName = sqliteDriverName
	case querysql.DuckDB.Name:
		driverName = "duckdb"
		if opts.Schema == "" {
			opts.Schema = "main"
		}
	default:
		return nil, fmt.Errorf("driver %q is not served by database/sql; use the postgres engine", driver)
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if dialect.Name == querysql.SQLite.Name {
		// SQLite only supports one writer at a time, and ":memory:" databases
		// are private to their connection.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)

		if err := applyPragmas(ctx, db); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply pragmas: %w", err)
		}
	}

	return &SQLEngine{
		db:      db,
		dialect: dialect,
		compiler: querysql.NewSQLCompiler(dialect,
			querysql.WithSchema(opts.Schema),
			querysql.WithLogger(opts.Logger)),
		schema: opts.Schema,
		log:    opts.Logger,
	}, nil
}

// Close closes the database connection.
func (e *SQLEngine) Close() error {
	if e.db == nil {
		return nil
	}
	return e.db.Close()
}

// DB returns the underlying sql.DB for direct queries.
// Use with caution - genq never writes outside RunUpdate.
func (e *SQLEngine) DB() *sql.DB {
	return e.db
}

// Driver implements Engine.
func (e *SQLEngine) Driver() string { return e.dialect.Name }

// Schema implements Engine.
func (e *SQLEngine) Schema() string { return e.schema }

// applyPragmas sets required SQLite configuration.
func applyPragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// RunQuery implements Engine. Scanned values are normalized by the declared
// type of their column.
func (e *SQLEngine) RunQuery(ctx context.Context, rt *schema.RecordType, q queryir.Select) ([]Record, error) {
	text, params, err := e.compiler.Compile(q)
	if err != nil {
		return nil, fmt.Errorf("compile query: %w", err)
	}
	if len(q.Hints) > 0 {
		e.log.Debug("query hints not supported by engine, ignoring", "driver", e.Driver(), "hints", len(q.Hints))
	}

	rows, err := e.db.QueryContext(ctx, text, params...)
	if err != nil {
		return nil, ExecutionError(err, "query "+rt.Name())
	}
	defer rows.Close()

	records, err := ScanRecords(rows, FieldTypes(rt))
	if err != nil {
		return nil, ExecutionError(err, "read "+rt.Name())
	}
	return records, nil
}

// ScanRecords reads every remaining row into Records, normalizing values by
// the declared type of their column. Columns missing from tags are
// normalized generically.
func ScanRecords(rows *sql.Rows, tags map[string]schema.TypeTag) ([]Record, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}

	records := []Record{}
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}

		for i, col := range columns {
			tag, ok := tags[col]
			if !ok {
				tag = schema.TagUnknown
			}
			values[i] = NormalizeValue(tag, values[i])
		}
		records = append(records, Record{Columns: columns, Values: values})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return records, nil
}

// RunUpdate implements Engine. The statement runs in its own transaction;
// any failure rolls it back.
func (e *SQLEngine) RunUpdate(ctx context.Context, statement string, args []sql.NamedArg) (int64, error) {
	text := e.dialect.RewriteNamed(statement)
	e.log.Debug("running update", "driver", e.Driver(), "sql", text, "params", len(args))

	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, ExecutionError(err, "begin transaction")
	}
	defer tx.Rollback()

	params := make([]any, len(args))
	for i, a := range args {
		params[i] = a
	}

	res, err := tx.ExecContext(ctx, text, params...)
	if err != nil {
		return 0, ExecutionError(err, "update")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, ExecutionError(err, "rows affected")
	}

	if err := tx.Commit(); err != nil {
		return 0, ExecutionError(err, "commit")
	}
	return affected, nil
}
