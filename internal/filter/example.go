package filter

import (
	"fmt"
	"log/slog"
	"math"
	"reflect"
	"strings"
)

// FromExample builds a Where from a struct value. Non-empty string fields
// become like entries and non-zero integer fields become equalsLong entries.
// Pointer fields are dereferenced; nil and zero values are skipped, as are
// unsigned values that do not fit in an int64. Other kinds are ignored.
//
// Field names come from the json tag when present, otherwise the Go field
// name. Matching against the record type is case-insensitive downstream, so
// either spelling works.
func FromExample(example any, logger *slog.Logger) (*Where, error) {
	if logger == nil {
		logger = slog.Default()
	}

	v := reflect.ValueOf(example)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil, fmt.Errorf("example is a nil pointer")
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil, fmt.Errorf("example must be a struct, got %s", v.Kind())
	}

	w := &Where{}
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		name, skip := fieldName(sf)
		if skip {
			continue
		}

		fv := v.Field(i)
		if fv.Kind() == reflect.Pointer {
			if fv.IsNil() {
				continue
			}
			fv = fv.Elem()
		}

		switch fv.Kind() {
		case reflect.String:
			if s := fv.String(); s != "" {
				if w.Like == nil {
					w.Like = map[string]*string{}
				}
				w.Like[name] = Str(s)
			}
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			if n := fv.Int(); n != 0 {
				if w.EqualsLong == nil {
					w.EqualsLong = map[string]*int64{}
				}
				w.EqualsLong[name] = Long(n)
			}
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			n := fv.Uint()
			if n > math.MaxInt64 {
				logger.Debug("example field exceeds int64, ignoring", "field", name, "value", n)
				continue
			}
			if n != 0 {
				if w.EqualsLong == nil {
					w.EqualsLong = map[string]*int64{}
				}
				w.EqualsLong[name] = Long(int64(n))
			}
		default:
			if !fv.IsZero() {
				logger.Debug("example field kind not supported, ignoring", "field", name, "kind", fv.Kind().String())
			}
		}
	}
	return w, nil
}

func fieldName(sf reflect.StructField) (name string, skip bool) {
	tag, ok := sf.Tag.Lookup("json")
	if !ok {
		return sf.Name, false
	}
	tagName, _, _ := strings.Cut(tag, ",")
	switch tagName {
	case "-":
		return "", true
	case "":
		return sf.Name, false
	default:
		return tagName, false
	}
}
