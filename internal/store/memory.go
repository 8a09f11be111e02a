package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"sync"

	genqerrors "github.com/roach88/genq/internal/errors"
	"github.com/roach88/genq/internal/queryir"
	"github.com/roach88/genq/internal/schema"
)

// Statement is an update statement received by the MemoryEngine.
type Statement struct {
	Text string
	Args []sql.NamedArg
}

// MemoryEngine serves a CUE catalog from memory. It evaluates the query IR
// directly and applies updates written in the form querysql.BuildUpdate
// produces. Every received update statement is recorded, applied or not.
type MemoryEngine struct {
	catalog *schema.Catalog
	log     *slog.Logger

	mu         sync.RWMutex
	tables     map[string][]schema.Row
	statements []Statement
}

// NewMemory creates an engine seeded with the catalog's records.
func NewMemory(catalog *schema.Catalog, logger *slog.Logger) *MemoryEngine {
	if logger == nil {
		logger = slog.Default()
	}
	tables := make(map[string][]schema.Row, len(catalog.Definitions))
	for _, def := range catalog.Definitions {
		rows := catalog.Records[def.Name]
		copied := make([]schema.Row, len(rows))
		for i, r := range rows {
			copied[i] = append(schema.Row(nil), r...)
		}
		tables[def.Name] = copied
	}
	return &MemoryEngine{catalog: catalog, log: logger, tables: tables}
}

// ListRegisteredTypes implements schema.Source.
func (m *MemoryEngine) ListRegisteredTypes(ctx context.Context) ([]schema.Definition, error) {
	return m.catalog.ListRegisteredTypes(ctx)
}

// DeclaredFields implements schema.Source.
func (m *MemoryEngine) DeclaredFields(ctx context.Context, def schema.Definition) ([]schema.Field, error) {
	return m.catalog.DeclaredFields(ctx, def)
}

// Driver implements Engine.
func (m *MemoryEngine) Driver() string { return "memory" }

// Schema implements Engine. Memory tables are never qualified.
func (m *MemoryEngine) Schema() string { return "" }

// Close implements Engine.
func (m *MemoryEngine) Close() error { return nil }

// Statements returns every update statement received so far.
func (m *MemoryEngine) Statements() []Statement {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Statement(nil), m.statements...)
}

// RunQuery implements Engine.
func (m *MemoryEngine) RunQuery(ctx context.Context, rt *schema.RecordType, q queryir.Select) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := queryir.Validate(q).Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	rows, ok := m.tables[q.From]
	if !ok {
		m.mu.RUnlock()
		return nil, genqerrors.Newf(genqerrors.ErrTypeExecution, "no such table: %s", q.From).AsClient()
	}
	matched := make([]schema.Row, 0, len(rows))
	for _, row := range rows {
		if q.Filter == nil || evaluate(q.Filter, row) {
			matched = append(matched, row)
		}
	}
	m.mu.RUnlock()

	if len(q.OrderBy) > 0 {
		sort.SliceStable(matched, func(i, j int) bool {
			return lessRows(matched[i], matched[j], q.OrderBy)
		})
	}

	columns := q.Columns
	if len(columns) == 0 {
		for _, f := range rt.Fields() {
			columns = append(columns, f.Name)
		}
	}
	tags := FieldTypes(rt)

	records := make([]Record, 0, len(matched))
	for _, row := range matched {
		values := make([]any, len(columns))
		for i, col := range columns {
			v, _ := row.Get(col)
			values[i] = NormalizeValue(tags[col], v)
		}
		records = append(records, Record{Columns: columns, Values: values})
	}
	m.log.Debug("memory query", "type", q.From, "where", fmt.Sprint(q.Filter), "matched", len(records))
	return records, nil
}

var (
	updatePattern = regexp.MustCompile(`^UPDATE "((?:[^"]|"")+)" SET (.+) WHERE "((?:[^"]|"")+)" = :([A-Za-z_][A-Za-z0-9_]*)$`)
	setPattern    = regexp.MustCompile(`^"((?:[^"]|"")+)" = :([A-Za-z_][A-Za-z0-9_]*)$`)
)

// RunUpdate implements Engine. The whole statement applies under one write
// lock, so it is atomic with respect to concurrent queries.
func (m *MemoryEngine) RunUpdate(ctx context.Context, statement string, args []sql.NamedArg) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.statements = append(m.statements, Statement{Text: statement, Args: append([]sql.NamedArg(nil), args...)})

	match := updatePattern.FindStringSubmatch(statement)
	if match == nil {
		return 0, genqerrors.Newf(genqerrors.ErrTypeExecution, "unsupported statement: %s", statement).AsClient()
	}
	table, keyCol, keyParam := unquote(match[1]), unquote(match[3]), match[4]

	named := make(map[string]any, len(args))
	for _, a := range args {
		named[a.Name] = a.Value
	}
	keyValue, ok := named[keyParam]
	if !ok {
		return 0, genqerrors.Newf(genqerrors.ErrTypeExecution, "missing argument for :%s", keyParam).AsClient()
	}

	type assignment struct {
		column string
		value  any
	}
	var sets []assignment
	for _, part := range strings.Split(match[2], ", ") {
		sm := setPattern.FindStringSubmatch(part)
		if sm == nil {
			return 0, genqerrors.Newf(genqerrors.ErrTypeExecution, "unsupported assignment: %s", part).AsClient()
		}
		v, ok := named[sm[2]]
		if !ok {
			return 0, genqerrors.Newf(genqerrors.ErrTypeExecution, "missing argument for :%s", sm[2]).AsClient()
		}
		sets = append(sets, assignment{column: unquote(sm[1]), value: v})
	}

	rows, ok := m.tables[table]
	if !ok {
		return 0, genqerrors.Newf(genqerrors.ErrTypeExecution, "no such table: %s", table).AsClient()
	}
	fields, err := m.catalog.DeclaredFields(ctx, schema.Definition{Name: table})
	if err != nil {
		return 0, genqerrors.Wrap(err, genqerrors.ErrTypeExecution, "update").AsClient()
	}
	declared := make(map[string]bool, len(fields))
	for _, f := range fields {
		declared[f.Name] = true
	}
	for _, col := range append([]string{keyCol}, columnsOf(sets, func(a assignment) string { return a.column })...) {
		if !declared[col] {
			return 0, genqerrors.Newf(genqerrors.ErrTypeExecution, "no such column: %s", col).AsClient()
		}
	}

	// Build the new rows first so a failure leaves the table untouched.
	updated := make([]schema.Row, len(rows))
	var affected int64
	for i, row := range rows {
		v, _ := row.Get(keyCol)
		if !valuesEqual(v, keyValue) {
			updated[i] = row
			continue
		}
		next := append(schema.Row(nil), row...)
		for _, s := range sets {
			next = setCell(next, s.column, s.value)
		}
		updated[i] = next
		affected++
	}
	m.tables[table] = updated
	return affected, nil
}

func columnsOf[T any](items []T, name func(T) string) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = name(it)
	}
	return out
}

func setCell(row schema.Row, column string, value any) schema.Row {
	for i := range row {
		if row[i].Name == column {
			row[i].Value = value
			return row
		}
	}
	return append(row, schema.Cell{Name: column, Value: value})
}

func unquote(ident string) string {
	return strings.ReplaceAll(ident, `""`, `"`)
}
