package queryir

import (
	"fmt"
	"strings"
)

// Query represents an abstract query in the QueryIR.
//
// This is a sealed interface - only types in this package implement it.
// The marker method pattern prevents external implementations and enables
// exhaustive type switches in engines.
type Query interface {
	queryNode() // Marker method - seals interface to this package
}

// Predicate represents a filter condition on a single record type.
//
// This is a sealed interface - only types in this package implement it.
//
// Predicate types:
//   - Equals: field = literal
//   - NotEquals: field <> literal
//   - Like: lower(field) LIKE pattern
//   - IsNull / IsNotNull: null-ness test
//   - And: all predicates must be true
//
// There is no OR and no nesting beyond And. A compiled filter is always one
// flat conjunction.
type Predicate interface {
	predicateNode() // Marker method - seals interface to this package
	fmt.Stringer
}

// Value is a literal compared against a field. Only strings and 64-bit
// integers appear in filters.
type Value interface {
	valueNode()
	// Any returns the Go value bound as a query parameter.
	Any() any
}

// String is a string literal.
type String string

func (String) valueNode() {}

func (s String) Any() any { return string(s) }

func (s String) GoString() string { return fmt.Sprintf("%q", string(s)) }

// Int is an integer literal.
type Int int64

func (Int) valueNode() {}

func (i Int) Any() any { return int64(i) }

func (i Int) GoString() string { return fmt.Sprintf("%d", int64(i)) }

// Select reads records of one type.
//
// Semantics:
//
//	SELECT <columns or *> FROM <from> WHERE <filter> ORDER BY <order_by>
//
// Columns empty means every column. A nil Filter or an empty And means no
// WHERE clause at all. Hints are passed to the engine verbatim; engines that
// do not understand them ignore them.
type Select struct {
	From    string            // canonical record type name
	Columns []string          // projected columns, in output order (nil = all)
	Filter  Predicate         // WHERE conditions (nil = no filter)
	OrderBy []string          // ascending sort keys, usually the primary key
	Hints   map[string]string // opaque engine hints
}

func (Select) queryNode() {}

// Equals represents a field-equals-literal predicate.
//
//	<field> = <value>
//
// NULLs never equal anything; use IsNull for that.
type Equals struct {
	Field string
	Value Value
}

func (Equals) predicateNode() {}

func (p Equals) String() string { return fmt.Sprintf("%s = %#v", p.Field, p.Value) }

// NotEquals represents a field-differs-from-literal predicate.
//
//	<field> <> <value>
//
// As in SQL, a NULL field satisfies neither Equals nor NotEquals.
type NotEquals struct {
	Field string
	Value Value
}

func (NotEquals) predicateNode() {}

func (p NotEquals) String() string { return fmt.Sprintf("%s <> %#v", p.Field, p.Value) }

// Like represents a case-insensitive substring match.
//
//	lower(<field>) LIKE <pattern>
//
// Pattern is already lower-cased and wrapped in % anchors by the compiler.
type Like struct {
	Field   string
	Pattern string
}

func (Like) predicateNode() {}

func (p Like) String() string { return fmt.Sprintf("lower(%s) LIKE %q", p.Field, p.Pattern) }

// IsNull matches records whose field is NULL.
type IsNull struct {
	Field string
}

func (IsNull) predicateNode() {}

func (p IsNull) String() string { return p.Field + " IS NULL" }

// IsNotNull matches records whose field is not NULL.
type IsNotNull struct {
	Field string
}

func (IsNotNull) predicateNode() {}

func (p IsNotNull) String() string { return p.Field + " IS NOT NULL" }

// And represents a conjunction of predicates (all must be true).
// An empty And is vacuously true.
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

func (p And) String() string {
	if len(p.Predicates) == 0 {
		return "TRUE"
	}
	parts := make([]string, len(p.Predicates))
	for i, sub := range p.Predicates {
		parts[i] = sub.String()
	}
	return strings.Join(parts, " AND ")
}

// IsEmpty reports whether p filters nothing: nil, or an And with no terms.
func IsEmpty(p Predicate) bool {
	switch pred := p.(type) {
	case nil:
		return true
	case And:
		return len(pred.Predicates) == 0
	case *And:
		return pred == nil || len(pred.Predicates) == 0
	default:
		return false
	}
}
