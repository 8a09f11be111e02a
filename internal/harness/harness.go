package harness

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	genqerrors "github.com/roach88/genq/internal/errors"
	"github.com/roach88/genq/internal/schema"
	"github.com/roach88/genq/internal/search"
	"github.com/roach88/genq/internal/store"
)

// Harness executes one scenario against a fresh memory engine.
type Harness struct {
	engine *store.MemoryEngine
	svc    *search.Service
	logger *slog.Logger
}

// Run executes a scenario and returns the result. The returned error covers
// setup problems only (unreadable definitions, bad schema); failed
// expectations are reported in the Result.
func Run(scenario *Scenario) (*Result, error) {
	return RunWithLogger(scenario, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// RunWithLogger is Run with the given logger wired through every component.
func RunWithLogger(scenario *Scenario, logger *slog.Logger) (*Result, error) {
	catalog, err := schema.LoadCatalog(scenario.Definitions)
	if err != nil {
		return nil, fmt.Errorf("failed to load definitions: %w", err)
	}

	ctx := context.Background()
	eng := store.NewMemory(catalog, logger)
	reg, err := schema.Load(ctx, eng)
	if err != nil {
		return nil, fmt.Errorf("failed to build registry: %w", err)
	}

	h := &Harness{
		engine: eng,
		svc: search.New(eng, reg, search.Options{
			FallbackPrefix: scenario.FallbackPrefix,
			QueryShape:     scenario.QueryShape,
			Logger:         logger,
		}),
		logger: logger,
	}

	result := NewResult()
	for i, step := range scenario.Flow {
		h.executeStep(ctx, i+1, step, result)
	}
	for _, msg := range h.evaluateAssertions(ctx, scenario.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

func (h *Harness) executeStep(ctx context.Context, n int, step Step, result *Result) {
	var event TraceEvent
	if step.Patch != nil {
		event = h.executePatch(ctx, n, step.Patch)
	} else {
		event = h.executeSearch(ctx, n, step.Search, step)
	}
	result.Trace = append(result.Trace, event)

	if step.Expect != nil {
		for _, msg := range checkExpect(event, step.Expect) {
			result.AddError(msg)
		}
	}
}

func (h *Harness) executeSearch(ctx context.Context, n int, entity string, step Step) TraceEvent {
	event := TraceEvent{Step: n, Kind: KindSearch, Target: entity}
	body, err := h.svc.SearchAndSerialize(ctx, entity, *step.Request)
	if err != nil {
		event.Error = string(genqerrors.GetType(err))
		h.logger.Debug("search step failed", "step", n, "error", err)
		return event
	}
	event.Body = json.RawMessage(body)
	return event
}

func (h *Harness) executePatch(ctx context.Context, n int, p *PatchStep) TraceEvent {
	event := TraceEvent{Step: n, Kind: KindPatch, Target: p.Table}

	values := make(map[string]any, len(p.Values))
	for k, v := range p.Values {
		values[k] = normalizeScalar(v)
	}
	affected, err := h.svc.Patch(ctx, p.Table, p.Key, normalizeScalar(p.Value), values)
	if err != nil {
		event.Error = string(genqerrors.GetType(err))
		h.logger.Debug("patch step failed", "step", n, "error", err)
		return event
	}
	event.Affected = &affected
	return event
}

// normalizeScalar widens YAML integers to int64, the width every engine
// binds.
func normalizeScalar(v any) any {
	switch x := v.(type) {
	case int:
		return int64(x)
	case uint64:
		return int64(x)
	default:
		return v
	}
}

func checkExpect(event TraceEvent, want *Expect) []string {
	var errs []string
	where := fmt.Sprintf("step %d (%s %s)", event.Step, event.Kind, event.Target)

	if want.Error != "" {
		if event.Error != want.Error {
			errs = append(errs, fmt.Sprintf("%s: expected error %q, got %q", where, want.Error, errorOrNone(event.Error)))
		}
		return errs
	}
	if event.Error != "" {
		return append(errs, fmt.Sprintf("%s: unexpected error %q", where, event.Error))
	}
	if want.Body != "" && string(event.Body) != want.Body {
		errs = append(errs, fmt.Sprintf("%s: body mismatch\n  expected: %s\n  actual:   %s", where, want.Body, event.Body))
	}
	if want.Affected != nil {
		got := int64(-1)
		if event.Affected != nil {
			got = *event.Affected
		}
		if got != *want.Affected {
			errs = append(errs, fmt.Sprintf("%s: expected %d affected rows, got %d", where, *want.Affected, got))
		}
	}
	return errs
}

func errorOrNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}
