package document

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode_PreservesOrder(t *testing.T) {
	obj := Object{
		{Key: "b", Value: int64(2)},
		{Key: "a", Value: "x<y>&z"},
		{Key: "nested", Value: Object{{Key: "z", Value: nil}, {Key: "y", Value: true}}},
		{Key: "map", Value: map[string]any{"k2": 1.5, "k1": []any{"v", int64(3)}}},
		{Key: "when", Value: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)},
		{Key: "raw", Value: []byte("hi")},
	}

	out, err := Encode(obj)
	require.NoError(t, err)
	assert.Equal(t,
		`{"b":2,"a":"x<y>&z","nested":{"z":null,"y":true},"map":{"k1":["v",3],"k2":1.5},"when":"2024-01-02T03:04:05Z","raw":"aGk="}`,
		string(out))

	viaStd, err := json.Marshal([]Object{{{Key: "b", Value: 1}, {Key: "a", Value: 2}}})
	require.NoError(t, err)
	assert.Equal(t, `[{"b":1,"a":2}]`, string(viaStd))
}

func TestEncode_EmptyList(t *testing.T) {
	out, err := Encode([]Object{})
	require.NoError(t, err)
	assert.Equal(t, "[]", string(out))
}

func TestEncode_Unsupported(t *testing.T) {
	_, err := Encode(Object{{Key: "f", Value: math.NaN()}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "f:")

	_, err = Encode(Object{{Key: "c", Value: make(chan int)}})
	require.Error(t, err)
}

func TestObject_Get(t *testing.T) {
	obj := Object{{Key: "a", Value: 1}, {Key: "a", Value: 2}}
	v, ok := obj.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)
	_, ok = obj.Get("A")
	assert.False(t, ok)
	assert.Equal(t, []string{"a", "a"}, obj.Keys())
}
