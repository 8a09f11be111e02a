package store

import (
	"context"
	"database/sql"

	"github.com/roach88/genq/internal/queryir"
	"github.com/roach88/genq/internal/schema"
)

// Engine is the persistence collaborator. It owns its connections, sessions
// and transactions; callers only hand it queries.
type Engine interface {
	schema.Source

	// RunQuery evaluates q against records of rt and returns every match,
	// fully materialized.
	RunQuery(ctx context.Context, rt *schema.RecordType, q queryir.Select) ([]Record, error)

	// RunUpdate executes one statement written with :name markers inside a
	// single transaction and returns the number of affected rows.
	RunUpdate(ctx context.Context, statement string, args []sql.NamedArg) (int64, error)

	// Driver names the engine ("sqlite", "duckdb", "postgres", "memory").
	Driver() string

	// Schema is the schema that qualifies table names in queries and
	// updates. Empty means unqualified.
	Schema() string

	Close() error
}

// Record is one result row with its columns in result order.
type Record struct {
	Columns []string
	Values  []any
}

// Get returns the value of the named column, matching exactly.
func (r Record) Get(name string) (any, bool) {
	for i, c := range r.Columns {
		if c == name {
			return r.Values[i], true
		}
	}
	return nil, false
}

// Len returns the number of columns.
func (r Record) Len() int { return len(r.Columns) }

// FieldTypes maps the user and internal fields of rt by exact name, for
// normalizing scanned values.
func FieldTypes(rt *schema.RecordType) map[string]schema.TypeTag {
	fields := rt.Fields()
	tags := make(map[string]schema.TypeTag, len(fields))
	for _, f := range fields {
		tags[f.Name] = f.Type
	}
	return tags
}
