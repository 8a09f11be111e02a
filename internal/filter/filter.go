// Package filter defines the untyped search request: six operator buckets
// keyed by field name plus an optional output projection.
package filter

import (
	"sort"

	genqerrors "github.com/roach88/genq/internal/errors"
)

// Bucket names, as they appear on the wire.
const (
	BucketEqualsString  = "equalsString"
	BucketEqualsLong    = "equalsLong"
	BucketNotEqualsLong = "notEqualsLong"
	BucketLike          = "like"
	BucketIsNull        = "isNull"
	BucketIsNotNull     = "isNotNull"
	FieldProjection     = "projection"
)

// Where holds the six optional operator buckets. Values are pointers so that
// an explicit JSON null can be told apart from a missing key: a bucket that
// contains any null value contributes no predicates at all.
//
// A nil bucket and an empty bucket are equivalent.
type Where struct {
	EqualsString  map[string]*string `json:"equalsString,omitempty" yaml:"equalsString,omitempty"`
	EqualsLong    map[string]*int64  `json:"equalsLong,omitempty" yaml:"equalsLong,omitempty"`
	NotEqualsLong map[string]*int64  `json:"notEqualsLong,omitempty" yaml:"notEqualsLong,omitempty"`
	Like          map[string]*string `json:"like,omitempty" yaml:"like,omitempty"`
	IsNull        []*string          `json:"isNull,omitempty" yaml:"isNull,omitempty"`
	IsNotNull     []*string          `json:"isNotNull,omitempty" yaml:"isNotNull,omitempty"`
}

// SearchRequest is the body of a search call.
type SearchRequest struct {
	Where      *Where   `json:"where,omitempty" yaml:"where,omitempty"`
	Projection []string `json:"projection,omitempty" yaml:"projection,omitempty"`
}

// IsEmpty reports whether every bucket is nil or empty.
func (w *Where) IsEmpty() bool {
	return len(w.EmptyBuckets()) == 6
}

// EmptyBuckets returns the names of the nil or empty buckets in wire order.
func (w *Where) EmptyBuckets() []string {
	if w == nil {
		return []string{
			BucketEqualsString, BucketEqualsLong, BucketNotEqualsLong,
			BucketLike, BucketIsNull, BucketIsNotNull,
		}
	}

	var empty []string
	if len(w.EqualsString) == 0 {
		empty = append(empty, BucketEqualsString)
	}
	if len(w.EqualsLong) == 0 {
		empty = append(empty, BucketEqualsLong)
	}
	if len(w.NotEqualsLong) == 0 {
		empty = append(empty, BucketNotEqualsLong)
	}
	if len(w.Like) == 0 {
		empty = append(empty, BucketLike)
	}
	if len(w.IsNull) == 0 {
		empty = append(empty, BucketIsNull)
	}
	if len(w.IsNotNull) == 0 {
		empty = append(empty, BucketIsNotNull)
	}
	return empty
}

// Validate rejects a request whose six buckets and projection are all empty.
// Emptiness is what counts: a bucket that is present but empty is still empty.
func (r SearchRequest) Validate() error {
	if len(r.Projection) > 0 || !r.Where.IsEmpty() {
		return nil
	}

	fields := make([]string, 0, 7)
	for _, b := range r.Where.EmptyBuckets() {
		fields = append(fields, "where."+b)
	}
	fields = append(fields, FieldProjection)
	return genqerrors.EmptyFields(fields...)
}

// Strings returns the entries of a string bucket with keys sorted, or
// ok=false when any value is null and the bucket must be skipped.
func Strings(bucket map[string]*string) (entries []StringEntry, ok bool) {
	for _, k := range sortedKeys(bucket) {
		v := bucket[k]
		if v == nil {
			return nil, false
		}
		entries = append(entries, StringEntry{Field: k, Value: *v})
	}
	return entries, true
}

// Longs is Strings for integer buckets.
func Longs(bucket map[string]*int64) (entries []LongEntry, ok bool) {
	for _, k := range sortedKeys(bucket) {
		v := bucket[k]
		if v == nil {
			return nil, false
		}
		entries = append(entries, LongEntry{Field: k, Value: *v})
	}
	return entries, true
}

// Names returns the field names of a set bucket sorted and de-duplicated, or
// ok=false when any entry is null.
func Names(set []*string) (names []string, ok bool) {
	seen := make(map[string]struct{}, len(set))
	for _, n := range set {
		if n == nil {
			return nil, false
		}
		if _, dup := seen[*n]; dup {
			continue
		}
		seen[*n] = struct{}{}
		names = append(names, *n)
	}
	sort.Strings(names)
	return names, true
}

// StringEntry is one field/value pair of a string bucket.
type StringEntry struct {
	Field string
	Value string
}

// LongEntry is one field/value pair of an integer bucket.
type LongEntry struct {
	Field string
	Value int64
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Str returns a pointer to s, for building buckets in code.
func Str(s string) *string { return &s }

// Long returns a pointer to n, for building buckets in code.
func Long(n int64) *int64 { return &n }
