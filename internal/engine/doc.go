// Package engine executes compiled searches and key-based updates against a
// store.Engine.
//
// The Executor turns a resolved record type and a compiled predicate into a
// queryir.Select and returns the fully materialized result. There is no
// pagination, no streaming and no retry: every failure surfaces to the
// caller immediately.
//
// The Updater is the raw write path. It trusts its caller completely: table
// and column names are not checked against any schema, and the statement is
// not safe to retry blindly.
package engine
