// Package compiler turns filter buckets into a flat conjunction of
// field-level predicates against one record type.
package compiler

import (
	"log/slog"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"github.com/roach88/genq/internal/filter"
	"github.com/roach88/genq/internal/queryir"
	"github.com/roach88/genq/internal/schema"
)

// Compiler compiles filter buckets against a resolved record type.
// It is stateless and safe for concurrent use.
type Compiler struct {
	log *slog.Logger
}

// New creates a Compiler.
func New(logger *slog.Logger) *Compiler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Compiler{log: logger}
}

// Compile validates the request and returns the conjunction of every
// predicate its buckets produce against rt.
//
// Rules applied per bucket, independently:
//   - a bucket holding any null value contributes nothing
//   - keys are matched to fields case-insensitively, first match wins
//   - keys that match no user field are skipped without error
//
// Buckets are compiled in a fixed order (like, equalsLong, notEqualsLong,
// isNotNull, isNull, equalsString) and keys in ascending order, so the same
// request always yields the same predicate.
func (c *Compiler) Compile(rt *schema.RecordType, req filter.SearchRequest) (queryir.And, error) {
	if err := req.Validate(); err != nil {
		return queryir.And{}, err
	}

	var preds []queryir.Predicate
	w := req.Where
	if w == nil {
		return queryir.And{}, nil
	}

	if entries, ok := c.strings(rt, filter.BucketLike, w.Like); ok {
		for _, e := range entries {
			preds = append(preds, queryir.Like{Field: e.Field, Pattern: LikePattern(e.Value)})
		}
	}
	if entries, ok := c.longs(rt, filter.BucketEqualsLong, w.EqualsLong); ok {
		for _, e := range entries {
			preds = append(preds, queryir.Equals{Field: e.Field, Value: queryir.Int(e.Value)})
		}
	}
	if entries, ok := c.longs(rt, filter.BucketNotEqualsLong, w.NotEqualsLong); ok {
		for _, e := range entries {
			preds = append(preds, queryir.NotEquals{Field: e.Field, Value: queryir.Int(e.Value)})
		}
	}
	if names, ok := c.names(rt, filter.BucketIsNotNull, w.IsNotNull); ok {
		for _, n := range names {
			preds = append(preds, queryir.IsNotNull{Field: n})
		}
	}
	if names, ok := c.names(rt, filter.BucketIsNull, w.IsNull); ok {
		for _, n := range names {
			preds = append(preds, queryir.IsNull{Field: n})
		}
	}
	if entries, ok := c.strings(rt, filter.BucketEqualsString, w.EqualsString); ok {
		for _, e := range entries {
			preds = append(preds, queryir.Equals{Field: e.Field, Value: queryir.String(e.Value)})
		}
	}

	and := queryir.And{Predicates: preds}
	c.log.Debug("compiled filter", "type", rt.Name(), "predicates", len(preds), "where", and.String())
	return and, nil
}

// LikePattern lower-cases and NFC-normalizes v and wraps it in % anchors.
// Wildcards already in v are kept as wildcards.
func LikePattern(v string) string {
	return "%" + cases.Lower(language.Und).String(norm.NFC.String(v)) + "%"
}

// strings resolves the keys of a string bucket to canonical field names.
func (c *Compiler) strings(rt *schema.RecordType, bucket string, m map[string]*string) ([]filter.StringEntry, bool) {
	entries, ok := filter.Strings(m)
	if !ok {
		c.log.Debug("bucket holds a null value, skipping", "bucket", bucket)
		return nil, false
	}
	out := entries[:0]
	for _, e := range entries {
		if name, found := c.field(rt, bucket, e.Field); found {
			out = append(out, filter.StringEntry{Field: name, Value: e.Value})
		}
	}
	return out, true
}

func (c *Compiler) longs(rt *schema.RecordType, bucket string, m map[string]*int64) ([]filter.LongEntry, bool) {
	entries, ok := filter.Longs(m)
	if !ok {
		c.log.Debug("bucket holds a null value, skipping", "bucket", bucket)
		return nil, false
	}
	out := entries[:0]
	for _, e := range entries {
		if name, found := c.field(rt, bucket, e.Field); found {
			out = append(out, filter.LongEntry{Field: name, Value: e.Value})
		}
	}
	return out, true
}

func (c *Compiler) names(rt *schema.RecordType, bucket string, set []*string) ([]string, bool) {
	names, ok := filter.Names(set)
	if !ok {
		c.log.Debug("bucket holds a null value, skipping", "bucket", bucket)
		return nil, false
	}
	out := names[:0]
	for _, n := range names {
		if name, found := c.field(rt, bucket, n); found {
			out = append(out, name)
		}
	}
	return out, true
}

func (c *Compiler) field(rt *schema.RecordType, bucket, key string) (string, bool) {
	f, ok := rt.Field(key)
	if !ok {
		c.log.Debug("no such field, ignoring", "type", rt.Name(), "bucket", bucket, "field", key)
		return "", false
	}
	return f.Name, true
}
