// Package search wires resolution, compilation, execution and serialization
// into the operations exposed over HTTP and the CLI.
//
// A search runs in this order, failing fast:
//
//	resolve entity -> validate request -> compile predicate -> plan projection
//	  -> execute -> serialize
//
// Nothing is cached between calls. The registry is read-only after startup,
// so one Service may serve any number of concurrent requests.
package search

import (
	"context"
	"log/slog"
	"time"

	"github.com/roach88/genq/internal/compiler"
	"github.com/roach88/genq/internal/engine"
	genqerrors "github.com/roach88/genq/internal/errors"
	"github.com/roach88/genq/internal/filter"
	"github.com/roach88/genq/internal/projection"
	"github.com/roach88/genq/internal/schema"
	"github.com/roach88/genq/internal/serialize"
	"github.com/roach88/genq/internal/store"
)

// Options configures a Service.
type Options struct {
	// FallbackPrefix is retried once in front of unresolved entity names.
	// "" or schema.DisabledPrefix turn the retry off.
	FallbackPrefix string
	// QueryShape pushes simple projections into the query's column list.
	QueryShape bool
	// Hints are attached verbatim to every query.
	Hints map[string]string
	// QueryTimeout bounds each query.
	QueryTimeout time.Duration
	Logger       *slog.Logger
}

// Result is the outcome of a search before serialization.
type Result struct {
	Type       *schema.RecordType
	Records    []store.Record
	Projection *projection.Tree
}

// Service runs searches and patches against one engine.
type Service struct {
	registry   *schema.Registry
	resolver   *schema.Resolver
	compiler   *compiler.Compiler
	executor   *engine.Executor
	updater    *engine.Updater
	serializer *serialize.Serializer
	queryShape bool
	log        *slog.Logger
}

// New creates a Service over eng, whose types are described by reg.
func New(eng store.Engine, reg *schema.Registry, opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		registry: reg,
		resolver: schema.NewResolver(reg, opts.FallbackPrefix, logger),
		compiler: compiler.New(logger),
		executor: engine.NewExecutor(eng, logger, engine.ExecutorOptions{
			Hints:   opts.Hints,
			Timeout: opts.QueryTimeout,
		}),
		updater:    engine.NewUpdater(eng, logger),
		serializer: serialize.New(logger),
		queryShape: opts.QueryShape,
		log:        logger,
	}
}

// Registry returns the registry the service resolves against.
func (s *Service) Registry() *schema.Registry { return s.registry }

// Search resolves entity, compiles req against it and runs the query.
func (s *Service) Search(ctx context.Context, entity string, req filter.SearchRequest) (*Result, error) {
	rt, err := s.resolver.Resolve(entity)
	if err != nil {
		return nil, err
	}
	pred, err := s.compiler.Compile(rt, req)
	if err != nil {
		return nil, err
	}

	tree := projection.Plan(req.Projection)
	var columns []string
	if s.queryShape {
		if cols, ok := tree.Columns(rt); ok {
			columns = cols
		}
	}

	records, err := s.executor.Execute(ctx, rt, pred, columns)
	if err != nil {
		return nil, err
	}
	s.log.Debug("search completed", "entity", entity, "type", rt.Name(), "records", len(records), "query_shaped", columns != nil)
	return &Result{Type: rt, Records: records, Projection: tree}, nil
}

// SearchAndSerialize runs Search and encodes the result. Zero records
// encode as []. Encoding failures also yield [] and are only logged.
func (s *Service) SearchAndSerialize(ctx context.Context, entity string, req filter.SearchRequest) ([]byte, error) {
	res, err := s.Search(ctx, entity, req)
	if err != nil {
		return nil, err
	}
	return s.Serialize(res), nil
}

// Serialize encodes a search result, applying its projection.
func (s *Service) Serialize(res *Result) []byte {
	return s.serializer.Serialize(res.Records, res.Type, res.Projection)
}

// SearchExample searches with a filter built from the fields of example.
// See filter.FromExample for how fields map to buckets.
func (s *Service) SearchExample(ctx context.Context, entity string, example any) (*Result, error) {
	where, err := filter.FromExample(example, s.log)
	if err != nil {
		return nil, genqerrors.Wrap(err, genqerrors.ErrTypeInvalidArgument, "invalid example")
	}
	return s.Search(ctx, entity, filter.SearchRequest{Where: where})
}

// Patch updates the row of table whose key column equals keyValue.
//
// When table names a registered type, the table and any column naming one
// of its fields are rewritten to their declared spelling. Anything else is
// passed through untouched; the engine reports what it cannot apply.
func (s *Service) Patch(ctx context.Context, table, keyColumn string, keyValue any, values map[string]any) (int64, error) {
	spec := engine.UpdateSpec{
		TableName:        table,
		PrimaryKeyColumn: keyColumn,
		PrimaryKeyValue:  keyValue,
		ColumnValues:     values,
	}
	if rt, ok := s.registry.Lookup(table); ok {
		spec.TableName = rt.Name()
		spec.PrimaryKeyColumn = canonicalColumn(rt, keyColumn)
		if len(values) > 0 {
			spec.ColumnValues = make(map[string]any, len(values))
			for k, v := range values {
				spec.ColumnValues[canonicalColumn(rt, k)] = v
			}
		}
	}
	return s.updater.Apply(ctx, spec)
}

func canonicalColumn(rt *schema.RecordType, name string) string {
	if f, ok := rt.Field(name); ok {
		return f.Name
	}
	return name
}
