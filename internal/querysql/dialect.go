package querysql

import (
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
)

// Dialect captures the differences between the SQL engines genq talks to.
type Dialect struct {
	Name string
	// Placeholder renders positional parameters.
	Placeholder sq.PlaceholderFormat
	// NamedPrefix is the marker the driver expects in front of named
	// parameters.
	NamedPrefix string
}

var (
	// SQLite is mattn/go-sqlite3: ? positional, :name named.
	SQLite = Dialect{Name: "sqlite", Placeholder: sq.Question, NamedPrefix: ":"}
	// DuckDB is marcboeker/go-duckdb: ? positional, $name named.
	DuckDB = Dialect{Name: "duckdb", Placeholder: sq.Question, NamedPrefix: "$"}
	// Postgres is pgx: $n positional, @name named (pgx.NamedArgs).
	Postgres = Dialect{Name: "postgres", Placeholder: sq.Dollar, NamedPrefix: "@"}
)

// DialectFor returns the dialect for a configured driver name.
func DialectFor(driver string) (Dialect, error) {
	switch strings.ToLower(driver) {
	case "sqlite", "sqlite3":
		return SQLite, nil
	case "duckdb":
		return DuckDB, nil
	case "postgres", "postgresql", "pgx":
		return Postgres, nil
	default:
		return Dialect{}, fmt.Errorf("unsupported SQL dialect %q", driver)
	}
}

// QuoteIdent quotes an identifier with double quotes, doubling embedded
// quotes. All three dialects accept this form.
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// QuoteQualified quotes a schema-qualified name. An empty schema yields the
// bare quoted name.
func QuoteQualified(schemaName, name string) string {
	if schemaName == "" {
		return QuoteIdent(name)
	}
	return QuoteIdent(schemaName) + "." + QuoteIdent(name)
}
