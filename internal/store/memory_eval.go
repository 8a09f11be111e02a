package store

import (
	"cmp"
	"fmt"
	"regexp"
	"strings"

	"github.com/roach88/genq/internal/queryir"
	"github.com/roach88/genq/internal/schema"
)

// evaluate applies a predicate to one row with SQL three-valued logic
// collapsed to false: comparisons against NULL never match.
func evaluate(p queryir.Predicate, row schema.Row) bool {
	switch pred := p.(type) {
	case queryir.Equals:
		v, _ := row.Get(pred.Field)
		return v != nil && valuesEqual(v, pred.Value.Any())
	case *queryir.Equals:
		return evaluate(*pred, row)
	case queryir.NotEquals:
		v, _ := row.Get(pred.Field)
		return v != nil && !valuesEqual(v, pred.Value.Any())
	case *queryir.NotEquals:
		return evaluate(*pred, row)
	case queryir.Like:
		v, _ := row.Get(pred.Field)
		return v != nil && likeMatch(pred.Pattern, fmt.Sprint(v))
	case *queryir.Like:
		return evaluate(*pred, row)
	case queryir.IsNull:
		v, _ := row.Get(pred.Field)
		return v == nil
	case *queryir.IsNull:
		return evaluate(*pred, row)
	case queryir.IsNotNull:
		v, _ := row.Get(pred.Field)
		return v != nil
	case *queryir.IsNotNull:
		return evaluate(*pred, row)
	case queryir.And:
		for _, sub := range pred.Predicates {
			if !evaluate(sub, row) {
				return false
			}
		}
		return true
	case *queryir.And:
		return evaluate(*pred, row)
	default:
		return false
	}
}

// likeMatch implements lower(value) LIKE pattern, where % matches any run
// and _ any single character.
func likeMatch(pattern, value string) bool {
	var b strings.Builder
	b.WriteString("(?s)^")
	for _, r := range pattern {
		switch r {
		case '%':
			b.WriteString(".*")
		case '_':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")

	re, err := regexp.Compile(b.String())
	if err != nil {
		return false
	}
	return re.MatchString(LowerText(value))
}

// valuesEqual compares a stored value with a literal, treating all numeric
// kinds as numbers.
func valuesEqual(stored, literal any) bool {
	if _, ok := toFloat(stored); ok {
		c, ok := compareNumbers(stored, literal)
		return ok && c == 0
	}
	return fmt.Sprint(stored) == fmt.Sprint(literal)
}

// compareNumbers orders two numeric values. Two integers compare exactly;
// anything else compares as float64.
func compareNumbers(a, b any) (int, bool) {
	if ia, ok := toInt(a); ok {
		if ib, ok := toInt(b); ok {
			return cmp.Compare(ia, ib), true
		}
	}
	fa, ok := toFloat(a)
	if !ok {
		return 0, false
	}
	fb, ok := toFloat(b)
	if !ok {
		return 0, false
	}
	return cmp.Compare(fa, fb), true
}

func toInt(v any) (int64, bool) {
	switch x := v.(type) {
	case int:
		return int64(x), true
	case int32:
		return int64(x), true
	case int64:
		return x, true
	default:
		return 0, false
	}
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case int:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case float32:
		return float64(x), true
	case float64:
		return x, true
	default:
		return 0, false
	}
}

// lessRows orders rows by keys ascending, NULLs first.
func lessRows(a, b schema.Row, keys []string) bool {
	for _, k := range keys {
		va, _ := a.Get(k)
		vb, _ := b.Get(k)
		switch {
		case va == nil && vb == nil:
			continue
		case va == nil:
			return true
		case vb == nil:
			return false
		}
		if c, ok := compareNumbers(va, vb); ok {
			if c != 0 {
				return c < 0
			}
			continue
		}
		sa, sb := fmt.Sprint(va), fmt.Sprint(vb)
		if sa != sb {
			return sa < sb
		}
	}
	return false
}
