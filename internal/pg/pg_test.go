package pg

import (
	"errors"
	"math/big"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"

	genqerrors "github.com/roach88/genq/internal/errors"
)

func TestExecutionError_Classification(t *testing.T) {
	testCases := []struct {
		name string
		err  error
		want int
	}{
		{"undefined table", &pgconn.PgError{Code: "42P01"}, http.StatusBadRequest},
		{"undefined column", &pgconn.PgError{Code: "42703"}, http.StatusBadRequest},
		{"invalid text representation", &pgconn.PgError{Code: "22P02"}, http.StatusBadRequest},
		{"unique violation", &pgconn.PgError{Code: "23505"}, http.StatusBadRequest},
		{"admin shutdown", &pgconn.PgError{Code: "57P01"}, http.StatusInternalServerError},
		{"network", errors.New("connection reset"), http.StatusInternalServerError},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := executionError(tc.err, "update")
			assert.True(t, genqerrors.IsType(err, genqerrors.ErrTypeExecution))
			assert.Equal(t, tc.want, genqerrors.HTTPStatus(err))
			assert.ErrorIs(t, err, tc.err)
		})
	}
}

func TestPgValue(t *testing.T) {
	num := pgtype.Numeric{Int: big.NewInt(125), Exp: -2, Valid: true}
	assert.Equal(t, 1.25, pgValue(num))
	assert.Nil(t, pgValue(pgtype.Numeric{}))

	id := [16]byte{0x12, 0x34, 0x56, 0x78, 0x9a, 0xbc, 0xde, 0xf0, 0x12, 0x34, 0x56, 0x78, 0x9a, 0xbc, 0xde, 0xf0}
	assert.Equal(t, "12345678-9abc-def0-1234-56789abcdef0", pgValue(id))

	assert.Equal(t, "x", pgValue("x"))
}
