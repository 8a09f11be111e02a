package engine

import (
	"context"
	"errors"
	"log/slog"
	"time"

	genqerrors "github.com/roach88/genq/internal/errors"
	"github.com/roach88/genq/internal/queryir"
	"github.com/roach88/genq/internal/schema"
	"github.com/roach88/genq/internal/store"
)

// ExecutorOptions configures an Executor.
type ExecutorOptions struct {
	// Hints are attached verbatim to every query.
	Hints map[string]string
	// Timeout bounds each query. Zero means no bound beyond ctx.
	Timeout time.Duration
}

// Executor runs one select per search.
type Executor struct {
	store   store.Engine
	hints   map[string]string
	timeout time.Duration
	log     *slog.Logger
}

// NewExecutor creates an Executor over eng.
func NewExecutor(eng store.Engine, logger *slog.Logger, opts ExecutorOptions) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{store: eng, hints: opts.Hints, timeout: opts.Timeout, log: logger}
}

// Execute selects the records of rt matching pred. A nil or empty predicate
// selects every record. columns, when set, narrows the selection list
// (query-shape mode); otherwise every column is read.
//
// Results are ordered by rt's primary key when it has one.
func (x *Executor) Execute(ctx context.Context, rt *schema.RecordType, pred queryir.Predicate, columns []string) ([]store.Record, error) {
	sel := x.Select(rt, pred, columns)
	if err := queryir.Validate(sel).Err(); err != nil {
		return nil, genqerrors.Wrap(err, genqerrors.ErrTypeInternal, "compiled query rejected")
	}

	if x.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, x.timeout)
		defer cancel()
	}

	start := time.Now()
	records, err := x.store.RunQuery(ctx, rt, sel)
	if err != nil {
		return nil, asExecution(err, "search "+rt.Name())
	}
	x.log.Debug("executed search",
		"type", rt.Name(),
		"driver", x.store.Driver(),
		"records", len(records),
		"duration", time.Since(start))
	return records, nil
}

// Select builds the query Execute would run.
func (x *Executor) Select(rt *schema.RecordType, pred queryir.Predicate, columns []string) queryir.Select {
	sel := queryir.Select{
		From:    rt.Name(),
		Columns: columns,
		OrderBy: rt.PrimaryKey(),
		Hints:   x.hints,
	}
	if !queryir.IsEmpty(pred) {
		sel.Filter = pred
	}
	return sel
}

// asExecution passes typed errors through and wraps everything else as an
// execution failure.
func asExecution(err error, message string) error {
	var gerr *genqerrors.Error
	if errors.As(err, &gerr) {
		return err
	}
	return genqerrors.Wrap(err, genqerrors.ErrTypeExecution, message)
}
