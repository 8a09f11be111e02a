// Package serialize renders query results into the JSON document returned
// to callers.
package serialize

import (
	"log/slog"

	"github.com/roach88/genq/internal/document"
	"github.com/roach88/genq/internal/projection"
	"github.com/roach88/genq/internal/schema"
	"github.com/roach88/genq/internal/store"
)

// emptyDocument is returned for zero records and whenever encoding fails.
var emptyDocument = []byte("[]")

// Serializer turns records into an encoded array of objects.
type Serializer struct {
	log *slog.Logger
}

// New creates a Serializer.
func New(logger *slog.Logger) *Serializer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Serializer{log: logger}
}

// Objects renders each record as an object holding rt's user fields in
// declaration order. Engine-internal fields never appear, and fields the
// record does not carry (query-shape mode) are left out. A non-empty tree
// then filters each object independently.
func (s *Serializer) Objects(records []store.Record, rt *schema.RecordType, tree *projection.Tree) []document.Object {
	fields := rt.UserFields()
	out := make([]document.Object, 0, len(records))
	for _, r := range records {
		obj := make(document.Object, 0, len(fields))
		for _, f := range fields {
			if v, ok := r.Get(f.Name); ok {
				obj = append(obj, document.Member{Key: f.Name, Value: v})
			}
		}
		if !tree.Empty() {
			obj = tree.Apply(obj)
		}
		out = append(out, obj)
	}
	return out
}

// Serialize renders records and encodes them. It never fails: an encoding
// error is logged and the empty array is returned instead of partial output.
func (s *Serializer) Serialize(records []store.Record, rt *schema.RecordType, tree *projection.Tree) []byte {
	if len(records) == 0 {
		return emptyDocument
	}
	data, err := document.Encode(s.Objects(records, rt, tree))
	if err != nil {
		s.log.Error("failed to encode search results, returning empty array",
			"type", rt.Name(),
			"records", len(records),
			"error", err)
		return emptyDocument
	}
	return data
}
