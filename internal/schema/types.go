package schema

import (
	"cmp"
	"slices"
	"strings"

	"golang.org/x/text/cases"
)

// TypeTag is the declared type of a field, normalized across engines.
type TypeTag string

const (
	TagString  TypeTag = "string"
	TagInt64   TypeTag = "int64"
	TagFloat64 TypeTag = "float64"
	TagBool    TypeTag = "bool"
	TagTime    TypeTag = "time"
	TagJSON    TypeTag = "json"
	TagBytes   TypeTag = "bytes"
	TagUnknown TypeTag = "unknown"
)

// ParseTag maps a tag name as written in definition files to a TypeTag.
func ParseTag(s string) TypeTag {
	switch TypeTag(strings.ToLower(strings.TrimSpace(s))) {
	case TagString:
		return TagString
	case TagInt64, "int", "long":
		return TagInt64
	case TagFloat64, "float", "double":
		return TagFloat64
	case TagBool, "boolean":
		return TagBool
	case TagTime, "datetime", "timestamp":
		return TagTime
	case TagJSON, "object":
		return TagJSON
	case TagBytes, "blob":
		return TagBytes
	default:
		return TagUnknown
	}
}

// TagFromSQL maps a declared SQL column type (sqlite, postgres or duckdb
// spelling) to a TypeTag.
func TagFromSQL(declared string) TypeTag {
	d := strings.ToLower(strings.TrimSpace(declared))
	if i := strings.IndexByte(d, '('); i >= 0 {
		d = strings.TrimSpace(d[:i])
	}

	switch {
	case d == "":
		return TagUnknown
	case d == "json" || d == "jsonb":
		return TagJSON
	case d == "bool" || d == "boolean":
		return TagBool
	case strings.Contains(d, "timestamp") || d == "date" || d == "datetime" || strings.HasPrefix(d, "time"):
		return TagTime
	case strings.Contains(d, "int") || d == "serial" || d == "bigserial" || d == "hugeint":
		return TagInt64
	case strings.Contains(d, "char") || strings.Contains(d, "text") || strings.Contains(d, "clob") ||
		d == "uuid" || d == "string" || d == "enum":
		return TagString
	case strings.Contains(d, "real") || strings.Contains(d, "floa") || strings.Contains(d, "doub") ||
		strings.Contains(d, "numeric") || strings.Contains(d, "decimal"):
		return TagFloat64
	case strings.Contains(d, "blob") || d == "bytea":
		return TagBytes
	default:
		return TagUnknown
	}
}

// Field describes one declared field of a record type.
type Field struct {
	Name       string  `json:"name"`
	Type       TypeTag `json:"type"`
	PrimaryKey bool    `json:"primaryKey,omitempty"`
	// KeyOrder is the 1-based position of the field within a composite
	// primary key. Zero means the key follows declaration order.
	KeyOrder int `json:"-"`
	// Internal marks engine metadata that is never user data. Internal fields
	// are neither matched by filters nor serialized.
	Internal bool `json:"-"`
}

// Definition is the raw, mutable description of a record type as reported by
// a Source. Registry freezes definitions into RecordTypes.
type Definition struct {
	Name   string
	Handle any
	Fields []Field
}

// RecordType is a frozen record type. All accessors return copies; a
// RecordType never changes after the registry that owns it is built.
type RecordType struct {
	name   string
	handle any
	fields []Field
	// folded field name -> index of the first field with that name
	index map[string]int
}

func newRecordType(def Definition, internal map[string]struct{}) *RecordType {
	rt := &RecordType{
		name:   def.Name,
		handle: def.Handle,
		fields: make([]Field, len(def.Fields)),
		index:  make(map[string]int, len(def.Fields)),
	}
	copy(rt.fields, def.Fields)

	for i := range rt.fields {
		key := Fold(rt.fields[i].Name)
		if _, ok := internal[key]; ok {
			rt.fields[i].Internal = true
		}
		if _, seen := rt.index[key]; !seen {
			rt.index[key] = i
		}
	}
	return rt
}

// Name returns the canonical (case-sensitive) type name.
func (rt *RecordType) Name() string { return rt.name }

// Handle returns the engine-specific opaque handle for the type.
func (rt *RecordType) Handle() any { return rt.handle }

// Fields returns every declared field in declaration order.
func (rt *RecordType) Fields() []Field {
	out := make([]Field, len(rt.fields))
	copy(out, rt.fields)
	return out
}

// UserFields returns declared fields minus engine-internal metadata, in
// declaration order.
func (rt *RecordType) UserFields() []Field {
	out := make([]Field, 0, len(rt.fields))
	for _, f := range rt.fields {
		if !f.Internal {
			out = append(out, f)
		}
	}
	return out
}

// Field finds the first user field whose name matches name case-insensitively.
func (rt *RecordType) Field(name string) (Field, bool) {
	i, ok := rt.index[Fold(name)]
	if !ok || rt.fields[i].Internal {
		return Field{}, false
	}
	return rt.fields[i], true
}

// PrimaryKey returns the names of the primary key fields in key order, if
// known.
func (rt *RecordType) PrimaryKey() []string {
	var keys []Field
	for _, f := range rt.fields {
		if f.PrimaryKey {
			keys = append(keys, f)
		}
	}
	slices.SortStableFunc(keys, func(a, b Field) int {
		return cmp.Compare(a.KeyOrder, b.KeyOrder)
	})

	var names []string
	for _, f := range keys {
		names = append(names, f.Name)
	}
	return names
}

// Fold returns the Unicode case-folded form of s, used for every
// case-insensitive name comparison.
func Fold(s string) string {
	return cases.Fold().String(s)
}
