package store

import (
	"database/sql"

	sqlite3 "github.com/mattn/go-sqlite3"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// sqliteDriverName is go-sqlite3 with lower() replaced by LowerText. The
// built-in lower() folds ASCII only.
const sqliteDriverName = "sqlite3_genq"

func init() {
	sql.Register(sqliteDriverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			return conn.RegisterFunc("lower", sqliteLower, true)
		},
	})
}

// LowerText NFC-normalizes s and lower-cases it with Unicode rules, the same
// folding applied to like patterns.
func LowerText(s string) string {
	return cases.Lower(language.Und).String(norm.NFC.String(s))
}

// sqliteLower keeps lower()'s contract: NULL stays NULL and non-text values
// pass through.
func sqliteLower(v any) any {
	switch x := v.(type) {
	case string:
		return LowerText(x)
	case []byte:
		return LowerText(string(x))
	default:
		return v
	}
}
