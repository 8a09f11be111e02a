package store

import (
	"errors"
	"strings"

	"github.com/marcboeker/go-duckdb"
	"github.com/mattn/go-sqlite3"

	genqerrors "github.com/roach88/genq/internal/errors"
)

// ExecutionError wraps a driver failure as an execution error, marking it as
// the caller's fault when the driver rejected the statement itself (unknown
// table or column, type mismatch, constraint) rather than failing to run it.
func ExecutionError(err error, message string) error {
	if err == nil {
		return nil
	}
	e := genqerrors.Wrap(err, genqerrors.ErrTypeExecution, message)
	if isClientFault(err) {
		e.AsClient()
	}
	return e
}

func isClientFault(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code {
		case sqlite3.ErrError, sqlite3.ErrConstraint, sqlite3.ErrMismatch, sqlite3.ErrRange, sqlite3.ErrTooBig:
			return true
		}
		return false
	}

	var duckErr *duckdb.Error
	if errors.As(err, &duckErr) {
		switch duckErr.Type {
		case duckdb.ErrorTypeCatalog, duckdb.ErrorTypeBinder, duckdb.ErrorTypeParser,
			duckdb.ErrorTypeConversion, duckdb.ErrorTypeConstraint, duckdb.ErrorTypeMismatchType,
			duckdb.ErrorTypeInvalidInput:
			return true
		}
		return false
	}

	// Named-parameter binding failures never reach the database.
	msg := err.Error()
	return strings.Contains(msg, "named parameter") || strings.Contains(msg, "missing argument")
}
