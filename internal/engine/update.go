package engine

import (
	"context"
	"database/sql"
	"log/slog"
	"sort"

	genqerrors "github.com/roach88/genq/internal/errors"
	"github.com/roach88/genq/internal/querysql"
	"github.com/roach88/genq/internal/store"
)

// UpdateSpec describes a single-row update by primary key.
type UpdateSpec struct {
	TableName        string
	PrimaryKeyColumn string
	PrimaryKeyValue  any
	ColumnValues     map[string]any
}

// Updater applies UpdateSpecs. See the package doc: this path performs no
// schema validation.
type Updater struct {
	store store.Engine
	log   *slog.Logger
}

// NewUpdater creates an Updater over eng.
func NewUpdater(eng store.Engine, logger *slog.Logger) *Updater {
	if logger == nil {
		logger = slog.Default()
	}
	return &Updater{store: eng, log: logger}
}

// Apply builds
//
//	UPDATE <table> SET <c1> = :c1, ... WHERE <key> = :key
//
// with columns in ascending order, binds every column value and the key value
// as named parameters and hands the statement to the store, which runs it in
// one transaction. If the key column also appears in ColumnValues, the key
// value is what gets bound.
//
// Apply fails with invalid_argument before building anything when
// ColumnValues is empty.
func (u *Updater) Apply(ctx context.Context, spec UpdateSpec) (int64, error) {
	if len(spec.ColumnValues) == 0 {
		return 0, genqerrors.New(genqerrors.ErrTypeInvalidArgument, "column values are empty, nothing to update").
			WithFields("columnValues")
	}
	if spec.TableName == "" || spec.PrimaryKeyColumn == "" {
		return 0, genqerrors.New(genqerrors.ErrTypeInvalidArgument, "table name and primary key column are required")
	}

	columns := make([]string, 0, len(spec.ColumnValues))
	for c := range spec.ColumnValues {
		columns = append(columns, c)
	}
	sort.Strings(columns)

	text, err := querysql.BuildUpdate(u.store.Schema(), spec.TableName, spec.PrimaryKeyColumn, columns)
	if err != nil {
		return 0, genqerrors.Wrap(err, genqerrors.ErrTypeInvalidArgument, "cannot build update")
	}

	args := make([]sql.NamedArg, 0, len(columns)+1)
	for _, c := range columns {
		if c == spec.PrimaryKeyColumn {
			continue
		}
		args = append(args, sql.Named(c, spec.ColumnValues[c]))
	}
	args = append(args, sql.Named(spec.PrimaryKeyColumn, spec.PrimaryKeyValue))

	u.log.Debug("applying update", "table", spec.TableName, "sql", text, "params", len(args))
	affected, err := u.store.RunUpdate(ctx, text, args)
	if err != nil {
		return 0, asExecution(err, "update "+spec.TableName)
	}
	u.log.Debug("update applied", "table", spec.TableName, "affected", affected)
	return affected, nil
}
