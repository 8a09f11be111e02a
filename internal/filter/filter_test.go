package filter

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	genqerrors "github.com/roach88/genq/internal/errors"
)

func TestValidate(t *testing.T) {
	testCases := []struct {
		name    string
		req     SearchRequest
		wantErr bool
	}{
		{name: "nil where, no projection", req: SearchRequest{}, wantErr: true},
		{name: "empty buckets, no projection", req: SearchRequest{Where: &Where{
			Like:   map[string]*string{},
			IsNull: []*string{},
		}}, wantErr: true},
		{name: "projection only", req: SearchRequest{Projection: []string{"name"}}},
		{name: "one bucket", req: SearchRequest{Where: &Where{IsNull: []*string{Str("email")}}}},
		{name: "null-valued bucket is still non-empty", req: SearchRequest{Where: &Where{
			Like: map[string]*string{"name": nil},
		}}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.req.Validate()
			if !tc.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, genqerrors.IsType(err, genqerrors.ErrTypeValidation))
		})
	}
}

func TestValidate_NamesEmptyFields(t *testing.T) {
	err := SearchRequest{}.Validate()

	var gerr *genqerrors.Error
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, []string{
		"where.equalsString", "where.equalsLong", "where.notEqualsLong",
		"where.like", "where.isNull", "where.isNotNull", "projection",
	}, gerr.Fields)
	assert.Contains(t, gerr.Message, "are all null or empty")
}

func TestWhere_JSONNulls(t *testing.T) {
	var req SearchRequest
	body := `{"where":{"like":{"name":null,"email":"x"},"equalsLong":{"id":7},"isNull":["a",null]}}`
	require.NoError(t, json.Unmarshal([]byte(body), &req))

	_, ok := Strings(req.Where.Like)
	assert.False(t, ok, "a null value disables the whole bucket")

	longs, ok := Longs(req.Where.EqualsLong)
	require.True(t, ok)
	assert.Equal(t, []LongEntry{{Field: "id", Value: 7}}, longs)

	_, ok = Names(req.Where.IsNull)
	assert.False(t, ok)
}

func TestBucketHelpers_SortAndDedupe(t *testing.T) {
	entries, ok := Strings(map[string]*string{"b": Str("2"), "a": Str("1")})
	require.True(t, ok)
	assert.Equal(t, []StringEntry{{"a", "1"}, {"b", "2"}}, entries)

	names, ok := Names([]*string{Str("z"), Str("a"), Str("z")})
	require.True(t, ok)
	assert.Equal(t, []string{"a", "z"}, names)

	entries, ok = Strings(nil)
	assert.True(t, ok)
	assert.Empty(t, entries)
}

type personExample struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	Email    *string `json:"email,omitempty"`
	Age      int
	Verified bool
	Secret   string `json:"-"`
	hidden   string
}

func TestFromExample(t *testing.T) {
	w, err := FromExample(&personExample{
		ID:       0,
		Name:     "an",
		Age:      30,
		Verified: true,
		Secret:   "s",
		hidden:   "h",
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, map[string]*string{"name": Str("an")}, w.Like)
	assert.Equal(t, map[string]*int64{"Age": Long(30)}, w.EqualsLong)
	assert.Nil(t, w.EqualsString)

	w, err = FromExample(personExample{Email: Str("a@x.com")}, nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]*string{"email": Str("a@x.com")}, w.Like)
	assert.Nil(t, w.EqualsLong)

	_, err = FromExample(42, nil)
	require.Error(t, err)

	var nilPtr *personExample
	_, err = FromExample(nilPtr, nil)
	require.Error(t, err)
}

type counterExample struct {
	Hits  uint64 `json:"hits"`
	Small uint32 `json:"small"`
	Big   uint   `json:"big"`
}

func TestFromExample_UnsignedOverflow(t *testing.T) {
	w, err := FromExample(counterExample{
		Hits:  math.MaxInt64,
		Small: 7,
		Big:   math.MaxInt64 + 1,
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, map[string]*int64{
		"hits":  Long(math.MaxInt64),
		"small": Long(7),
	}, w.EqualsLong)
}
