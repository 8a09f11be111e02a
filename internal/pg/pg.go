// Package pg serves record types from a Postgres database over a pgx
// connection pool.
package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	genqerrors "github.com/roach88/genq/internal/errors"
	"github.com/roach88/genq/internal/queryir"
	"github.com/roach88/genq/internal/querysql"
	"github.com/roach88/genq/internal/schema"
	"github.com/roach88/genq/internal/store"
)

// Engine implements store.Engine on a pgx pool. Connection pooling and
// session management are pgxpool's.
type Engine struct {
	pool     *pgxpool.Pool
	schema   string
	compiler *querysql.SQLCompiler
	log      *slog.Logger
}

var _ store.Engine = (*Engine)(nil)

// Open connects to dsn and verifies the connection. schemaName defaults to
// "public".
func Open(ctx context.Context, dsn, schemaName string, logger *slog.Logger) (*Engine, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if schemaName == "" {
		schemaName = "public"
	}

	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	connectCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(connectCtx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}
	if err := pool.Ping(connectCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Engine{
		pool:   pool,
		schema: schemaName,
		compiler: querysql.NewSQLCompiler(querysql.Postgres,
			querysql.WithSchema(schemaName),
			querysql.WithLogger(logger)),
		log: logger,
	}, nil
}

// Pool exposes the pool, for tests and seeding.
func (e *Engine) Pool() *pgxpool.Pool { return e.pool }

// Driver implements store.Engine.
func (e *Engine) Driver() string { return querysql.Postgres.Name }

// Schema implements store.Engine.
func (e *Engine) Schema() string { return e.schema }

// Close implements store.Engine.
func (e *Engine) Close() error {
	e.pool.Close()
	return nil
}

// ListRegisteredTypes implements schema.Source.
func (e *Engine) ListRegisteredTypes(ctx context.Context) ([]schema.Definition, error) {
	rows, err := e.pool.Query(ctx, store.InfoSchemaTablesSQL, e.schema)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}

	defs := make([]schema.Definition, len(names))
	for i, n := range names {
		defs[i] = schema.Definition{Name: n, Handle: e.schema + "." + n}
	}
	return defs, nil
}

// DeclaredFields implements schema.Source.
func (e *Engine) DeclaredFields(ctx context.Context, def schema.Definition) ([]schema.Field, error) {
	rows, err := e.pool.Query(ctx, store.InfoSchemaPrimaryKeySQL, e.schema, def.Name)
	if err != nil {
		return nil, fmt.Errorf("primary key of %s: %w", def.Name, err)
	}
	keys, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("primary key of %s: %w", def.Name, err)
	}
	keyOrder := make(map[string]int, len(keys))
	for i, k := range keys {
		keyOrder[k] = i + 1
	}

	rows, err = e.pool.Query(ctx, store.InfoSchemaColumnsSQL, e.schema, def.Name)
	if err != nil {
		return nil, fmt.Errorf("columns of %s: %w", def.Name, err)
	}
	defer rows.Close()

	fields := []schema.Field{}
	for rows.Next() {
		var name, declared string
		if err := rows.Scan(&name, &declared); err != nil {
			return nil, fmt.Errorf("scan columns of %s: %w", def.Name, err)
		}
		fields = append(fields, schema.Field{
			Name:       name,
			Type:       schema.TagFromSQL(declared),
			PrimaryKey: keyOrder[name] > 0,
			KeyOrder:   keyOrder[name],
		})
	}
	return fields, rows.Err()
}

// RunQuery implements store.Engine.
func (e *Engine) RunQuery(ctx context.Context, rt *schema.RecordType, q queryir.Select) ([]store.Record, error) {
	text, params, err := e.compiler.Compile(q)
	if err != nil {
		return nil, fmt.Errorf("compile query: %w", err)
	}
	if len(q.Hints) > 0 {
		e.log.Debug("query hints not supported by engine, ignoring", "driver", e.Driver(), "hints", len(q.Hints))
	}

	rows, err := e.pool.Query(ctx, text, params...)
	if err != nil {
		return nil, executionError(err, "query "+rt.Name())
	}
	defer rows.Close()

	descs := rows.FieldDescriptions()
	columns := make([]string, len(descs))
	for i, d := range descs {
		columns[i] = d.Name
	}
	tags := store.FieldTypes(rt)

	records := []store.Record{}
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, executionError(err, "read "+rt.Name())
		}
		for i, col := range columns {
			values[i] = store.NormalizeValue(tags[col], pgValue(values[i]))
		}
		records = append(records, store.Record{Columns: columns, Values: values})
	}
	if err := rows.Err(); err != nil {
		return nil, executionError(err, "read "+rt.Name())
	}
	return records, nil
}

// RunUpdate implements store.Engine. Named markers are rewritten to pgx's
// @name form and bound through pgx.NamedArgs.
func (e *Engine) RunUpdate(ctx context.Context, statement string, args []sql.NamedArg) (int64, error) {
	text := querysql.Postgres.RewriteNamed(statement)
	e.log.Debug("running update", "driver", e.Driver(), "sql", text, "params", len(args))

	named := make(pgx.NamedArgs, len(args))
	for _, a := range args {
		named[a.Name] = a.Value
	}

	tx, err := e.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, executionError(err, "begin transaction")
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, text, named)
	if err != nil {
		return 0, executionError(err, "update")
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, executionError(err, "commit")
	}
	return tag.RowsAffected(), nil
}

// pgValue flattens pgtype values that have no natural JSON form.
func pgValue(v any) any {
	switch x := v.(type) {
	case pgtype.Numeric:
		if !x.Valid {
			return nil
		}
		f, err := x.Float64Value()
		if err != nil || !f.Valid {
			return nil
		}
		return f.Float64
	case [16]byte:
		return fmt.Sprintf("%x-%x-%x-%x-%x", x[0:4], x[4:6], x[6:8], x[8:10], x[10:16])
	default:
		return v
	}
}

// executionError classifies SQLSTATE class 42 (syntax error or access rule
// violation, including undefined table/column), 22 (data exception) and 23
// (integrity constraint violation) as caller faults.
func executionError(err error, message string) error {
	e := genqerrors.Wrap(err, genqerrors.ErrTypeExecution, message)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case strings.HasPrefix(pgErr.Code, "42"), strings.HasPrefix(pgErr.Code, "22"), strings.HasPrefix(pgErr.Code, "23"):
			e.AsClient()
		}
	}
	return e
}
