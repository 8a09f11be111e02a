package harness

import (
	"context"
	"fmt"
	"sort"

	"github.com/roach88/genq/internal/filter"
)

func (h *Harness) evaluateAssertions(ctx context.Context, assertions []Assertion) []string {
	var errs []string
	for i, a := range assertions {
		var err error
		switch a.Type {
		case AssertStatementCount:
			err = h.assertStatementCount(a)
		case AssertFinalState:
			err = h.assertFinalState(ctx, a)
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}
		if err != nil {
			errs = append(errs, fmt.Sprintf("assertion %d (%s): %v", i+1, a.Type, err))
		}
	}
	return errs
}

func (h *Harness) assertStatementCount(a Assertion) error {
	if got := len(h.engine.Statements()); got != a.Count {
		return fmt.Errorf("expected %d statements, got %d", a.Count, got)
	}
	return nil
}

// assertFinalState searches entity with a filter built from a.Where and
// checks every expected value on every matching record.
func (h *Harness) assertFinalState(ctx context.Context, a Assertion) error {
	where := &filter.Where{}
	for k, v := range a.Where {
		switch n := normalizeScalar(v).(type) {
		case int64:
			if where.EqualsLong == nil {
				where.EqualsLong = map[string]*int64{}
			}
			where.EqualsLong[k] = filter.Long(n)
		default:
			if where.EqualsString == nil {
				where.EqualsString = map[string]*string{}
			}
			where.EqualsString[k] = filter.Str(fmt.Sprint(n))
		}
	}

	res, err := h.svc.Search(ctx, a.Entity, filter.SearchRequest{Where: where})
	if err != nil {
		return err
	}
	if len(res.Records) == 0 {
		return fmt.Errorf("no %s record matches %v", a.Entity, a.Where)
	}

	fields := make([]string, 0, len(a.Expect))
	for k := range a.Expect {
		fields = append(fields, k)
	}
	sort.Strings(fields)

	for _, rec := range res.Records {
		for _, name := range fields {
			column := name
			if f, ok := res.Type.Field(name); ok {
				column = f.Name
			}
			got, ok := rec.Get(column)
			if !ok {
				return fmt.Errorf("field %s not present on %s", name, a.Entity)
			}
			want := normalizeScalar(a.Expect[name])
			if fmt.Sprint(got) != fmt.Sprint(want) {
				return fmt.Errorf("field %s: expected %v, got %v", name, want, got)
			}
		}
	}
	return nil
}
