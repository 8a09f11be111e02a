package queryir

import "fmt"

// ValidationResult lists structural problems found in a query.
type ValidationResult struct {
	// Valid is true when Problems is empty.
	Valid bool

	Problems []string
}

// Err returns the problems as a single error, or nil.
func (r ValidationResult) Err() error {
	if r.Valid {
		return nil
	}
	return fmt.Errorf("invalid query: %v", r.Problems)
}

// Validate checks that a query is well formed before an engine sees it:
// a source is named, every predicate names a field, literals are present and
// no nested conjunctions appear.
//
// Validate is a pure function with no side effects.
func Validate(query Query) ValidationResult {
	v := &validator{problems: []string{}}
	v.validateQuery(query)

	return ValidationResult{
		Valid:    len(v.problems) == 0,
		Problems: v.problems,
	}
}

type validator struct {
	problems []string
}

func (v *validator) addProblem(format string, args ...any) {
	v.problems = append(v.problems, fmt.Sprintf(format, args...))
}

func (v *validator) validateQuery(q Query) {
	switch query := q.(type) {
	case nil:
		v.addProblem("nil query")
	case Select:
		v.validateSelect(query)
	case *Select:
		v.validateSelect(*query)
	default:
		v.addProblem("unknown query type: %T", q)
	}
}

func (v *validator) validateSelect(sel Select) {
	if sel.From == "" {
		v.addProblem("select without a source")
	}
	for i, c := range sel.Columns {
		if c == "" {
			v.addProblem("empty column name at position %d", i)
		}
	}
	if sel.Filter != nil {
		v.validatePredicate(sel.Filter, 0)
	}
}

func (v *validator) validatePredicate(p Predicate, depth int) {
	switch pred := p.(type) {
	case nil:
		v.addProblem("nil predicate")
	case Equals:
		v.validateComparison("=", pred.Field, pred.Value)
	case *Equals:
		v.validateComparison("=", pred.Field, pred.Value)
	case NotEquals:
		v.validateComparison("<>", pred.Field, pred.Value)
	case *NotEquals:
		v.validateComparison("<>", pred.Field, pred.Value)
	case Like:
		v.validateLike(pred)
	case *Like:
		v.validateLike(*pred)
	case IsNull:
		v.requireField("IS NULL", pred.Field)
	case *IsNull:
		v.requireField("IS NULL", pred.Field)
	case IsNotNull:
		v.requireField("IS NOT NULL", pred.Field)
	case *IsNotNull:
		v.requireField("IS NOT NULL", pred.Field)
	case And:
		v.validateAnd(pred, depth)
	case *And:
		v.validateAnd(*pred, depth)
	default:
		v.addProblem("unknown predicate type: %T", p)
	}
}

func (v *validator) requireField(op, field string) {
	if field == "" {
		v.addProblem("%s predicate without a field", op)
	}
}

func (v *validator) validateComparison(op, field string, value Value) {
	v.requireField(op, field)
	if value == nil {
		v.addProblem("field '%s' compared with %s to a nil literal", field, op)
	}
}

func (v *validator) validateLike(like Like) {
	v.requireField("LIKE", like.Field)
	if like.Pattern == "" {
		v.addProblem("field '%s' has an empty LIKE pattern", like.Field)
	}
}

func (v *validator) validateAnd(and And, depth int) {
	if depth > 0 {
		v.addProblem("nested conjunction - filters are a single flat And")
	}
	for _, sub := range and.Predicates {
		v.validatePredicate(sub, depth+1)
	}
}
