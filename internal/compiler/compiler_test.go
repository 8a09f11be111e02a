package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	genqerrors "github.com/roach88/genq/internal/errors"
	"github.com/roach88/genq/internal/filter"
	"github.com/roach88/genq/internal/queryir"
	"github.com/roach88/genq/internal/schema"
)

func personType(t *testing.T) *schema.RecordType {
	t.Helper()
	reg, err := schema.NewRegistry([]schema.Definition{{
		Name: "Person",
		Fields: []schema.Field{
			{Name: "rowid", Type: schema.TagInt64},
			{Name: "id", Type: schema.TagInt64, PrimaryKey: true},
			{Name: "Name", Type: schema.TagString},
			{Name: "email", Type: schema.TagString},
			{Name: "age", Type: schema.TagInt64},
		},
	}}, schema.WithInternalFields("rowid"))
	require.NoError(t, err)
	rt, ok := reg.Lookup("Person")
	require.True(t, ok)
	return rt
}

func TestCompile(t *testing.T) {
	rt := personType(t)
	str, long := filter.Str, filter.Long

	testCases := []struct {
		name  string
		where filter.Where
		want  []queryir.Predicate
	}{
		{
			name:  "like lowers and wraps",
			where: filter.Where{Like: map[string]*string{"name": str("AN")}},
			want:  []queryir.Predicate{queryir.Like{Field: "Name", Pattern: "%an%"}},
		},
		{
			name:  "equals and not equals",
			where: filter.Where{EqualsLong: map[string]*int64{"ID": long(1)}, NotEqualsLong: map[string]*int64{"age": long(3)}},
			want: []queryir.Predicate{
				queryir.Equals{Field: "id", Value: queryir.Int(1)},
				queryir.NotEquals{Field: "age", Value: queryir.Int(3)},
			},
		},
		{
			name:  "null sets",
			where: filter.Where{IsNull: []*string{str("EMAIL")}, IsNotNull: []*string{str("name"), str("name")}},
			want: []queryir.Predicate{
				queryir.IsNotNull{Field: "Name"},
				queryir.IsNull{Field: "email"},
			},
		},
		{
			name:  "equals string",
			where: filter.Where{EqualsString: map[string]*string{"email": str("a@x.com")}},
			want:  []queryir.Predicate{queryir.Equals{Field: "email", Value: queryir.String("a@x.com")}},
		},
		{
			name:  "unknown field ignored",
			where: filter.Where{Like: map[string]*string{"nickname": str("x")}},
			want:  nil,
		},
		{
			name:  "internal field ignored",
			where: filter.Where{EqualsLong: map[string]*int64{"rowid": long(1)}},
			want:  nil,
		},
		{
			name: "null value skips only its bucket",
			where: filter.Where{
				Like:       map[string]*string{"name": nil, "email": str("x")},
				EqualsLong: map[string]*int64{"id": long(2)},
			},
			want: []queryir.Predicate{queryir.Equals{Field: "id", Value: queryir.Int(2)}},
		},
		{
			name: "bucket order is fixed",
			where: filter.Where{
				EqualsString:  map[string]*string{"email": str("e")},
				IsNull:        []*string{str("age")},
				IsNotNull:     []*string{str("email")},
				NotEqualsLong: map[string]*int64{"age": long(9)},
				EqualsLong:    map[string]*int64{"id": long(1)},
				Like:          map[string]*string{"name": str("a")},
			},
			want: []queryir.Predicate{
				queryir.Like{Field: "Name", Pattern: "%a%"},
				queryir.Equals{Field: "id", Value: queryir.Int(1)},
				queryir.NotEquals{Field: "age", Value: queryir.Int(9)},
				queryir.IsNotNull{Field: "email"},
				queryir.IsNull{Field: "age"},
				queryir.Equals{Field: "email", Value: queryir.String("e")},
			},
		},
		{
			name:  "keys sorted within a bucket",
			where: filter.Where{Like: map[string]*string{"name": str("n"), "email": str("e")}},
			want: []queryir.Predicate{
				queryir.Like{Field: "email", Pattern: "%e%"},
				queryir.Like{Field: "Name", Pattern: "%n%"},
			},
		},
	}

	c := New(nil)
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := tc.where
			got, err := c.Compile(rt, filter.SearchRequest{Where: &w})
			require.NoError(t, err)
			assert.Equal(t, tc.want, got.Predicates)
		})
	}
}

func TestCompile_RejectsEmptyRequest(t *testing.T) {
	c := New(nil)
	rt := personType(t)

	for _, req := range []filter.SearchRequest{
		{},
		{Where: &filter.Where{}},
		{Where: &filter.Where{Like: map[string]*string{}, IsNull: []*string{}}},
	} {
		_, err := c.Compile(rt, req)
		require.Error(t, err)
		assert.True(t, genqerrors.IsType(err, genqerrors.ErrTypeValidation))
	}
}

func TestCompile_ProjectionOnly(t *testing.T) {
	got, err := New(nil).Compile(personType(t), filter.SearchRequest{Projection: []string{"name"}})
	require.NoError(t, err)
	assert.True(t, queryir.IsEmpty(got))
}

func TestLikePattern(t *testing.T) {
	assert.Equal(t, "%al%", LikePattern("Al"))
	assert.Equal(t, "%ärger%", LikePattern("ÄRGER"))
	// Decomposed input is normalized to its composed form.
	assert.Equal(t, "%\u00e9%", LikePattern("E\u0301"))
}
