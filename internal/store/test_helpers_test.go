package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/genq/internal/schema"
)

const personDDL = `
CREATE TABLE person (
	id INTEGER PRIMARY KEY,
	name TEXT NOT NULL,
	email TEXT,
	active BOOLEAN,
	profile JSON
);
INSERT INTO person (id, name, email, active, profile) VALUES
	(1, 'Ann', 'a@x.com', 1, '{"city":"Oslo","tags":["x"]}'),
	(2, 'Bo', NULL, 0, NULL),
	(3, 'al', 'c@x.com', 1, '{"city":"Rome"}');
`

// createTestEngine creates a SQLite engine over a fresh temp-file database
// seeded with the person table.
func createTestEngine(t *testing.T) *SQLEngine {
	t.Helper()
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "test.db")
	e, err := Open(ctx, "sqlite", path, Options{})
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { e.Close() })

	_, err = e.DB().ExecContext(ctx, personDDL)
	require.NoError(t, err)
	return e
}

// loadType builds a registry from src and returns the named type.
func loadType(t *testing.T, src schema.Source, name string) *schema.RecordType {
	t.Helper()
	reg, err := schema.Load(context.Background(), src, schema.WithInternalFields("rowid"))
	require.NoError(t, err)
	rt, ok := reg.Lookup(name)
	require.True(t, ok, "type %s not registered", name)
	return rt
}
