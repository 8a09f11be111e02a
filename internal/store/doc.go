// Package store provides the persistence engines genq queries.
//
// An Engine enumerates record types from its catalog, evaluates a
// queryir.Select and runs named-parameter update statements inside its own
// transaction. Three implementations exist:
//   - SQLEngine: database/sql over mattn/go-sqlite3 or marcboeker/go-duckdb
//   - MemoryEngine: CUE-defined types and seed rows held in memory
//   - pg.Engine (package internal/pg): pgx connection pool
//
// # Database Configuration
//
// SQLite databases are opened with:
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//   - a single open connection, so ":memory:" databases survive between calls
//
// genq never creates or migrates tables. The schema belongs to whoever owns
// the database.
package store
