package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	genqerrors "github.com/roach88/genq/internal/errors"
)

func TestOutputFormatter_JSONSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	err := formatter.Success(map[string]string{"result": "success"})
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.NotNil(t, resp.Data)
}

func TestOutputFormatter_JSONSuccessRawBytes(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	require.NoError(t, formatter.Success([]byte(`[{"id":1}]`)))
	assert.JSONEq(t, `{"status":"ok","data":[{"id":1}]}`, buf.String())
}

func TestOutputFormatter_JSONError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	cause := genqerrors.New(genqerrors.ErrTypeValidation, "where buckets are empty").WithFields("where.like", "projection")
	require.NoError(t, formatter.Error(cause))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "validation", resp.Error.Type)
	assert.Equal(t, []string{"where.like", "projection"}, resp.Error.Fields)
}

func TestOutputFormatter_TextSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "text",
		Writer: buf,
	}

	require.NoError(t, formatter.Success("1 row(s) updated"))
	assert.Equal(t, "1 row(s) updated\n", buf.String())
}

func TestOutputFormatter_TextError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format:  "text",
		Writer:  buf,
		Verbose: true,
	}

	err := genqerrors.NotFound("Nope")
	require.NoError(t, formatter.Error(err))
	assert.Contains(t, buf.String(), "Error [not_found]")
}

func TestOutputFormatter_VerboseLogUsesErrWriter(t *testing.T) {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: out, ErrWriter: errOut, Verbose: true}

	formatter.VerboseLog("running %s", "lookup")
	assert.Empty(t, out.String())
	assert.Equal(t, "running lookup\n", errOut.String())

	formatter.Verbose = false
	formatter.VerboseLog("hidden")
	assert.Equal(t, "running lookup\n", errOut.String())
}

func TestGetExitCode(t *testing.T) {
	testCases := []struct {
		name string
		err  error
		want int
	}{
		{name: "exit error", err: NewExitError(ExitCommandError, "boom"), want: ExitCommandError},
		{name: "wrapped exit error", err: WrapExitError(ExitFailure, "x", errors.New("y")), want: ExitFailure},
		{name: "plain error", err: errors.New("plain"), want: ExitFailure},
		{name: "nil", err: nil, want: ExitSuccess},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, GetExitCode(tc.err))
		})
	}
}

func TestRequestExitError(t *testing.T) {
	assert.Equal(t, ExitFailure, requestExitError("x", genqerrors.NotFound("Nope")).Code)
	assert.Equal(t, ExitFailure, requestExitError("x", genqerrors.New(genqerrors.ErrTypeValidation, "bad")).Code)
	assert.Equal(t, ExitCommandError, requestExitError("x", genqerrors.New(genqerrors.ErrTypeExecution, "db down")).Code)
}
