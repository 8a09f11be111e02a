package schema

import (
	"context"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
)

// Catalog is a set of record type definitions, optionally with seed records,
// loaded from CUE. It is a Source, so a Registry can be built from it
// directly.
//
// The expected shape is:
//
//	types: Person: {
//		fields: [
//			{name: "id", type: "int64", primaryKey: true},
//			{name: "name", type: "string"},
//		]
//		records: [{id: 1, name: "Ann"}]
//	}
type Catalog struct {
	Definitions []Definition
	// Records holds seed rows keyed by type name. Field order inside a row
	// follows the CUE source.
	Records map[string][]Row
}

// Row is one record as an ordered list of column/value pairs.
type Row []Cell

// Cell is a single column value of a Row.
type Cell struct {
	Name  string
	Value any
}

// Get returns the value of the named column, matching exactly.
func (r Row) Get(name string) (any, bool) {
	for _, c := range r {
		if c.Name == name {
			return c.Value, true
		}
	}
	return nil, false
}

// ListRegisteredTypes implements Source.
func (c *Catalog) ListRegisteredTypes(context.Context) ([]Definition, error) {
	out := make([]Definition, len(c.Definitions))
	copy(out, c.Definitions)
	return out, nil
}

// DeclaredFields implements Source.
func (c *Catalog) DeclaredFields(_ context.Context, def Definition) ([]Field, error) {
	for _, d := range c.Definitions {
		if d.Name == def.Name {
			return append([]Field(nil), d.Fields...), nil
		}
	}
	return nil, fmt.Errorf("type %s not defined", def.Name)
}

// LoadCUE loads every CUE file in dir as one instance and extracts its
// catalog.
func LoadCUE(dir string) (*Catalog, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("definitions directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", dir)
	}

	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, fmt.Errorf("no CUE instances loaded from %s", dir)
	}
	if err := instances[0].Err; err != nil {
		return nil, fmt.Errorf("loading CUE files: %w", err)
	}

	value := cuecontext.New().BuildInstance(instances[0])
	if err := value.Err(); err != nil {
		return nil, fmt.Errorf("building CUE value: %w", err)
	}
	return catalogFromValue(value)
}

// LoadCatalog loads a catalog from a single CUE file or, when path is a
// directory, from every CUE file in it.
func LoadCatalog(path string) (*Catalog, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("definitions: %w", err)
	}
	if info.IsDir() {
		return LoadCUE(path)
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("definitions: %w", err)
	}
	return ParseCUE(src)
}

// ParseCUE extracts a catalog from CUE source text.
func ParseCUE(src []byte) (*Catalog, error) {
	value := cuecontext.New().CompileBytes(src)
	if err := value.Err(); err != nil {
		return nil, fmt.Errorf("compiling CUE: %w", err)
	}
	return catalogFromValue(value)
}

type fieldSpec struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	PrimaryKey bool   `json:"primaryKey"`
}

func catalogFromValue(value cue.Value) (*Catalog, error) {
	typesVal := value.LookupPath(cue.ParsePath("types"))
	if !typesVal.Exists() {
		return nil, fmt.Errorf("no types defined")
	}

	iter, err := typesVal.Fields()
	if err != nil {
		return nil, fmt.Errorf("iterating types: %w", err)
	}

	cat := &Catalog{Records: map[string][]Row{}}
	for iter.Next() {
		name := iter.Selector().Unquoted()
		typeVal := iter.Value()

		var specs []fieldSpec
		if err := typeVal.LookupPath(cue.ParsePath("fields")).Decode(&specs); err != nil {
			return nil, fmt.Errorf("types.%s.fields: %w", name, err)
		}
		if len(specs) == 0 {
			return nil, fmt.Errorf("types.%s: no fields", name)
		}

		def := Definition{Name: name, Handle: name, Fields: make([]Field, 0, len(specs))}
		for _, s := range specs {
			tag := ParseTag(s.Type)
			if tag == TagUnknown {
				return nil, fmt.Errorf("types.%s.fields.%s: unknown type %q", name, s.Name, s.Type)
			}
			def.Fields = append(def.Fields, Field{Name: s.Name, Type: tag, PrimaryKey: s.PrimaryKey})
		}
		cat.Definitions = append(cat.Definitions, def)

		recordsVal := typeVal.LookupPath(cue.ParsePath("records"))
		if !recordsVal.Exists() {
			continue
		}
		list, err := recordsVal.List()
		if err != nil {
			return nil, fmt.Errorf("types.%s.records: %w", name, err)
		}
		for list.Next() {
			row, err := decodeRow(list.Value())
			if err != nil {
				return nil, fmt.Errorf("types.%s.records: %w", name, err)
			}
			cat.Records[name] = append(cat.Records[name], row)
		}
	}
	return cat, nil
}

func decodeRow(v cue.Value) (Row, error) {
	iter, err := v.Fields()
	if err != nil {
		return nil, err
	}
	var row Row
	for iter.Next() {
		val, err := decodeValue(iter.Value())
		if err != nil {
			return nil, fmt.Errorf("%s: %w", iter.Selector().Unquoted(), err)
		}
		row = append(row, Cell{Name: iter.Selector().Unquoted(), Value: val})
	}
	return row, nil
}

// decodeValue converts a concrete CUE value to plain Go values. Structs
// become map[string]any and lists []any, matching what encoding/json would
// produce for a JSON column.
func decodeValue(v cue.Value) (any, error) {
	switch v.IncompleteKind() {
	case cue.NullKind:
		return nil, nil
	case cue.BoolKind:
		return v.Bool()
	case cue.IntKind:
		return v.Int64()
	case cue.FloatKind, cue.NumberKind:
		return v.Float64()
	case cue.StringKind:
		return v.String()
	case cue.BytesKind:
		return v.Bytes()
	case cue.StructKind:
		var m map[string]any
		if err := v.Decode(&m); err != nil {
			return nil, err
		}
		return m, nil
	case cue.ListKind:
		var l []any
		if err := v.Decode(&l); err != nil {
			return nil, err
		}
		return l, nil
	default:
		return nil, fmt.Errorf("unsupported value kind %v", v.IncompleteKind())
	}
}
