package querysql

import (
	"fmt"
	"log/slog"

	sq "github.com/Masterminds/squirrel"

	"github.com/roach88/genq/internal/queryir"
)

// SQLCompiler compiles QueryIR to parameterized SQL for one dialect.
//
// All values are parameterized, never interpolated. Identifiers are always
// quoted.
type SQLCompiler struct {
	dialect Dialect
	schema  string
	sq      sq.StatementBuilderType
	log     *slog.Logger
}

// Option configures an SQLCompiler.
type Option func(*SQLCompiler)

// WithSchema qualifies every table with schemaName.
func WithSchema(schemaName string) Option {
	return func(c *SQLCompiler) { c.schema = schemaName }
}

// WithLogger sets the logger used for rendered statements.
func WithLogger(logger *slog.Logger) Option {
	return func(c *SQLCompiler) { c.log = logger }
}

// NewSQLCompiler creates a new SQLCompiler.
func NewSQLCompiler(d Dialect, opts ...Option) *SQLCompiler {
	c := &SQLCompiler{
		dialect: d,
		sq:      sq.StatementBuilder.PlaceholderFormat(d.Placeholder),
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Dialect returns the compiler's dialect.
func (c *SQLCompiler) Dialect() Dialect { return c.dialect }

// Compile converts a QueryIR query to parameterized SQL.
// Returns (sql, params, error) tuple.
func (c *SQLCompiler) Compile(q queryir.Query) (string, []any, error) {
	switch query := q.(type) {
	case nil:
		return "", nil, fmt.Errorf("cannot compile nil query")
	case queryir.Select:
		return c.compileSelect(query)
	case *queryir.Select:
		return c.compileSelect(*query)
	default:
		return "", nil, fmt.Errorf("unsupported query type: %T", q)
	}
}

func (c *SQLCompiler) compileSelect(q queryir.Select) (string, []any, error) {
	columns := []string{"*"}
	if len(q.Columns) > 0 {
		columns = make([]string, len(q.Columns))
		for i, col := range q.Columns {
			columns[i] = QuoteIdent(col)
		}
	}

	builder := c.sq.Select(columns...).From(QuoteQualified(c.schema, q.From))

	// An empty conjunction renders no WHERE clause at all.
	if !queryir.IsEmpty(q.Filter) {
		where, err := c.compilePredicate(q.Filter)
		if err != nil {
			return "", nil, fmt.Errorf("compile filter: %w", err)
		}
		builder = builder.Where(where)
	}

	for _, key := range q.OrderBy {
		builder = builder.OrderBy(QuoteIdent(key) + " ASC")
	}

	text, params, err := builder.ToSql()
	if err != nil {
		return "", nil, err
	}
	c.log.Debug("compiled select", "dialect", c.dialect.Name, "sql", text, "params", len(params))
	return text, params, nil
}

// compilePredicate maps one predicate onto a squirrel expression.
func (c *SQLCompiler) compilePredicate(p queryir.Predicate) (sq.Sqlizer, error) {
	switch pred := p.(type) {
	case queryir.Equals:
		return c.compileEquals(pred.Field, pred.Value)
	case *queryir.Equals:
		return c.compileEquals(pred.Field, pred.Value)
	case queryir.NotEquals:
		return c.compileNotEquals(pred.Field, pred.Value)
	case *queryir.NotEquals:
		return c.compileNotEquals(pred.Field, pred.Value)
	case queryir.Like:
		return compileLike(pred), nil
	case *queryir.Like:
		return compileLike(*pred), nil
	case queryir.IsNull:
		return sq.Eq{QuoteIdent(pred.Field): nil}, nil
	case *queryir.IsNull:
		return sq.Eq{QuoteIdent(pred.Field): nil}, nil
	case queryir.IsNotNull:
		return sq.NotEq{QuoteIdent(pred.Field): nil}, nil
	case *queryir.IsNotNull:
		return sq.NotEq{QuoteIdent(pred.Field): nil}, nil
	case queryir.And:
		return c.compileAnd(pred)
	case *queryir.And:
		return c.compileAnd(*pred)
	default:
		return nil, fmt.Errorf("unsupported predicate type: %T", p)
	}
}

func (c *SQLCompiler) compileEquals(field string, v queryir.Value) (sq.Sqlizer, error) {
	if v == nil {
		return nil, fmt.Errorf("field %s: equality against a nil literal", field)
	}
	return sq.Eq{QuoteIdent(field): v.Any()}, nil
}

func (c *SQLCompiler) compileNotEquals(field string, v queryir.Value) (sq.Sqlizer, error) {
	if v == nil {
		return nil, fmt.Errorf("field %s: inequality against a nil literal", field)
	}
	return sq.NotEq{QuoteIdent(field): v.Any()}, nil
}

// compileLike casts to text first so that non-text columns compare by their
// rendered value instead of failing on lower().
func compileLike(like queryir.Like) sq.Sqlizer {
	return sq.Expr(fmt.Sprintf("lower(CAST(%s AS TEXT)) LIKE ?", QuoteIdent(like.Field)), like.Pattern)
}

func (c *SQLCompiler) compileAnd(and queryir.And) (sq.Sqlizer, error) {
	conj := make(sq.And, 0, len(and.Predicates))
	for _, pred := range and.Predicates {
		part, err := c.compilePredicate(pred)
		if err != nil {
			return nil, err
		}
		conj = append(conj, part)
	}
	return conj, nil
}
