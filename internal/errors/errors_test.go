package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_Message(t *testing.T) {
	plain := New(ErrTypeNotFound, "missing")
	assert.Equal(t, "not_found: missing", plain.Error())

	cause := errors.New("boom")
	wrapped := Wrap(cause, ErrTypeExecution, "query failed")
	assert.Equal(t, "execution: query failed (caused by: boom)", wrapped.Error())
	assert.ErrorIs(t, wrapped, cause)
}

func TestIsTypeAndGetType(t *testing.T) {
	err := fmt.Errorf("outer: %w", Newf(ErrTypeValidation, "bad %s", "input"))

	assert.True(t, IsType(err, ErrTypeValidation))
	assert.False(t, IsType(err, ErrTypeNotFound))
	assert.Equal(t, ErrTypeValidation, GetType(err))
	assert.Equal(t, ErrTypeInternal, GetType(errors.New("plain")))
}

func TestEmptyFields(t *testing.T) {
	err := EmptyFields("like", "projection")

	require.Equal(t, []string{"like", "projection"}, err.Fields)
	assert.Contains(t, err.Message, "like, projection")
	assert.Equal(t, ErrTypeValidation, err.Type)
}

func TestHTTPStatus(t *testing.T) {
	testCases := []struct {
		name string
		err  error
		want int
	}{
		{"not found", NotFound("user"), http.StatusBadRequest},
		{"validation", EmptyFields("like"), http.StatusBadRequest},
		{"invalid argument", New(ErrTypeInvalidArgument, "empty"), http.StatusBadRequest},
		{"client execution", Wrap(errors.New("no such table"), ErrTypeExecution, "x").AsClient(), http.StatusBadRequest},
		{"server execution", Wrap(errors.New("disk"), ErrTypeExecution, "x"), http.StatusInternalServerError},
		{"untyped", errors.New("plain"), http.StatusInternalServerError},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, HTTPStatus(tc.err))
		})
	}
}
