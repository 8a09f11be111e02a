package querysql

import (
	"fmt"
	"regexp"
	"strings"

	sq "github.com/Masterminds/squirrel"
)

var paramName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidParamName reports whether name can be used as a named parameter.
func ValidParamName(name string) bool {
	return paramName.MatchString(name)
}

// BuildUpdate renders the dialect-neutral statement
//
//	UPDATE "schema"."table" SET "c1" = :c1, "c2" = :c2 WHERE "key" = :key
//
// The table is qualified the same way SELECTs are; an empty schemaName leaves
// it bare. Columns are rendered in the order given. Every column and the key
// must be usable as a parameter name.
func BuildUpdate(schemaName, table, key string, columns []string) (string, error) {
	if len(columns) == 0 {
		return "", fmt.Errorf("no columns to update")
	}
	for _, name := range append([]string{key}, columns...) {
		if !ValidParamName(name) {
			return "", fmt.Errorf("column %q cannot be bound as a named parameter", name)
		}
	}

	update := sq.StatementBuilder.Update(QuoteQualified(schemaName, table))
	for _, col := range columns {
		update = update.Set(QuoteIdent(col), sq.Expr(":"+col))
	}
	update = update.Where(sq.Expr(QuoteIdent(key) + " = :" + key))

	text, _, err := update.ToSql()
	return text, err
}

// RewriteNamed replaces :name markers in text with the dialect's named
// parameter prefix. Markers inside quoted identifiers or string literals and
// postgres :: casts are left alone.
func (d Dialect) RewriteNamed(text string) string {
	if d.NamedPrefix == ":" {
		return text
	}

	var b strings.Builder
	b.Grow(len(text))
	var quote byte
	for i := 0; i < len(text); i++ {
		ch := text[i]
		switch {
		case quote != 0:
			if ch == quote {
				quote = 0
			}
		case ch == '\'' || ch == '"':
			quote = ch
		case ch == ':':
			if i+1 < len(text) && text[i+1] == ':' {
				b.WriteString("::")
				i++
				continue
			}
			if i+1 < len(text) && isIdentStart(text[i+1]) {
				b.WriteString(d.NamedPrefix)
				continue
			}
		}
		b.WriteByte(ch)
	}
	return b.String()
}

func isIdentStart(ch byte) bool {
	return ch == '_' || ('a' <= ch && ch <= 'z') || ('A' <= ch && ch <= 'Z')
}
