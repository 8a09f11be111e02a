// Package queryir provides the abstract query representation shared by the
// predicate compiler and the persistence engines.
//
//	[filter buckets] -> [compiler] -> [queryir] -> [querysql / memory engine]
//
// A filter compiles to a single flat conjunction of field-level predicates.
// The IR keeps the compiler independent of any query builder, so each engine
// decides how to evaluate it: the SQL engines render it through querysql and
// the in-memory engine evaluates it directly.
//
// Query and Predicate are sealed interfaces using the marker method pattern,
// so engines can switch over them exhaustively:
//
//	switch p := pred.(type) {
//	case queryir.Equals:
//	case queryir.Like:
//	...
//	}
package queryir
