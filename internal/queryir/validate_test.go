package queryir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_WellFormed(t *testing.T) {
	sel := Select{
		From:    "Person",
		Columns: []string{"name"},
		Filter: And{Predicates: []Predicate{
			Equals{Field: "id", Value: Int(1)},
			&NotEquals{Field: "id", Value: Int(2)},
			Like{Field: "name", Pattern: "%a%"},
			IsNull{Field: "email"},
			IsNotNull{Field: "name"},
		}},
	}

	result := Validate(sel)
	assert.True(t, result.Valid, result.Problems)
	assert.NoError(t, result.Err())
	assert.True(t, Validate(&Select{From: "Person"}).Valid)
}

func TestValidate_Problems(t *testing.T) {
	testCases := []struct {
		name  string
		query Query
		want  string
	}{
		{"nil query", nil, "nil query"},
		{"no source", Select{}, "select without a source"},
		{"empty column", Select{From: "T", Columns: []string{""}}, "empty column name"},
		{"field missing", Select{From: "T", Filter: IsNull{}}, "IS NULL predicate without a field"},
		{"nil literal", Select{From: "T", Filter: Equals{Field: "a"}}, "nil literal"},
		{"empty pattern", Select{From: "T", Filter: Like{Field: "a"}}, "empty LIKE pattern"},
		{"nested and", Select{From: "T", Filter: And{Predicates: []Predicate{And{}}}}, "nested conjunction"},
		{"nil in and", Select{From: "T", Filter: And{Predicates: []Predicate{nil}}}, "nil predicate"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result := Validate(tc.query)
			require.False(t, result.Valid)
			require.NotEmpty(t, result.Problems)
			assert.Contains(t, result.Problems[0], tc.want)
			assert.Error(t, result.Err())
		})
	}
}
