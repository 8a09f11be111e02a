package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/genq/internal/querysql"
	"github.com/roach88/genq/internal/schema"
)

// Catalog queries shared by the information_schema dialects (DuckDB,
// Postgres). Both accept $n placeholders.
const (
	InfoSchemaTablesSQL = `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = $1 AND table_type IN ('BASE TABLE', 'VIEW')
		ORDER BY table_name`

	InfoSchemaColumnsSQL = `
		SELECT column_name, data_type
		FROM information_schema.columns
		WHERE table_schema = $1 AND table_name = $2
		ORDER BY ordinal_position`

	InfoSchemaPrimaryKeySQL = `
		SELECT kcu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
		  ON tc.constraint_name = kcu.constraint_name
		 AND tc.table_schema = kcu.table_schema
		 AND tc.table_name = kcu.table_name
		WHERE tc.constraint_type = 'PRIMARY KEY'
		  AND tc.table_schema = $1 AND tc.table_name = $2
		ORDER BY kcu.ordinal_position`
)

// ListRegisteredTypes implements schema.Source. Every table and view is a
// record type.
func (e *SQLEngine) ListRegisteredTypes(ctx context.Context) ([]schema.Definition, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if e.dialect.Name == querysql.SQLite.Name {
		rows, err = e.db.QueryContext(ctx, `
			SELECT name FROM sqlite_master
			WHERE type IN ('table', 'view') AND name NOT LIKE 'sqlite_%'
			ORDER BY name`)
	} else {
		rows, err = e.db.QueryContext(ctx, InfoSchemaTablesSQL, e.schema)
	}
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()

	var defs []schema.Definition
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan table name: %w", err)
		}
		defs = append(defs, schema.Definition{Name: name, Handle: name})
	}
	return defs, rows.Err()
}

// DeclaredFields implements schema.Source.
func (e *SQLEngine) DeclaredFields(ctx context.Context, def schema.Definition) ([]schema.Field, error) {
	if e.dialect.Name == querysql.SQLite.Name {
		return e.sqliteFields(ctx, def.Name)
	}
	return e.infoSchemaFields(ctx, def.Name)
}

func (e *SQLEngine) sqliteFields(ctx context.Context, table string) ([]schema.Field, error) {
	rows, err := e.db.QueryContext(ctx, "PRAGMA table_info("+querysql.QuoteIdent(table)+")")
	if err != nil {
		return nil, fmt.Errorf("table_info %s: %w", table, err)
	}
	defer rows.Close()

	fields := []schema.Field{}
	for rows.Next() {
		var (
			cid       int
			name      string
			declared  sql.NullString
			notNull   int
			dfltValue sql.NullString
			pk        int
		)
		if err := rows.Scan(&cid, &name, &declared, &notNull, &dfltValue, &pk); err != nil {
			return nil, fmt.Errorf("scan table_info %s: %w", table, err)
		}
		fields = append(fields, schema.Field{
			Name:       name,
			Type:       schema.TagFromSQL(declared.String),
			PrimaryKey: pk > 0,
			KeyOrder:   pk,
		})
	}
	return fields, rows.Err()
}

func (e *SQLEngine) infoSchemaFields(ctx context.Context, table string) ([]schema.Field, error) {
	pk, err := e.primaryKey(ctx, table)
	if err != nil {
		return nil, err
	}

	rows, err := e.db.QueryContext(ctx, InfoSchemaColumnsSQL, e.schema, table)
	if err != nil {
		return nil, fmt.Errorf("columns of %s: %w", table, err)
	}
	defer rows.Close()

	fields := []schema.Field{}
	for rows.Next() {
		var name, declared string
		if err := rows.Scan(&name, &declared); err != nil {
			return nil, fmt.Errorf("scan columns of %s: %w", table, err)
		}
		order := pk[name]
		fields = append(fields, schema.Field{
			Name:       name,
			Type:       schema.TagFromSQL(declared),
			PrimaryKey: order > 0,
			KeyOrder:   order,
		})
	}
	return fields, rows.Err()
}

// primaryKey maps each key column to its 1-based position in the key.
func (e *SQLEngine) primaryKey(ctx context.Context, table string) (map[string]int, error) {
	rows, err := e.db.QueryContext(ctx, InfoSchemaPrimaryKeySQL, e.schema, table)
	if err != nil {
		return nil, fmt.Errorf("primary key of %s: %w", table, err)
	}
	defer rows.Close()

	keys := map[string]int{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan primary key of %s: %w", table, err)
		}
		keys[name] = len(keys) + 1
	}
	return keys, rows.Err()
}
