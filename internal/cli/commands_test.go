package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var memoryFlags = []string{"--driver", "memory", "--definitions", "testdata/people.cue", "--log-level", "error"}

// execute runs the root command with args and returns stdout, stderr and
// the command error.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("GENQ_CONFIG", "")

	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func withMemory(args ...string) []string {
	return append(args, memoryFlags...)
}

func TestRootCommand_Subcommands(t *testing.T) {
	cmd := NewRootCommand()

	var names []string
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	assert.ElementsMatch(t, []string{"serve", "search", "patch", "types", "check"}, names)
}

func TestRootCommand_InvalidFormat(t *testing.T) {
	_, _, err := execute(t, withMemory("types", "--format", "yaml")...)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestRootCommand_InvalidConfig(t *testing.T) {
	_, _, err := execute(t, "types", "--driver", "oracle", "--dsn", "x")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRootCommand_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "genq.yaml")
	defs, err := filepath.Abs("testdata/people.cue")
	require.NoError(t, err)
	cfg := "database:\n  driver: memory\n  definitions: " + defs + "\nlogging:\n  level: error\n"
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o644))

	out, _, err := execute(t, "types", "--config", path, "--format", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"name":"tbl_user"`)
}

func TestSearchCommand(t *testing.T) {
	testCases := []struct {
		name     string
		args     []string
		wantOut  string
		wantJSON string
		wantCode int
	}{
		{
			name:    "like search text output",
			args:    []string{"search", "person", "--request", `{"where":{"like":{"name":"an"}}}`},
			wantOut: `[{"id":1,"name":"Ann","email":"a@x.com"}]` + "\n",
		},
		{
			name:     "json envelope",
			args:     []string{"search", "Person", "--format", "json", "--request", `{"where":{"equalsLong":{"id":2}},"projection":["name"]}`},
			wantJSON: `{"status":"ok","data":[{"name":"Bo"}]}`,
		},
		{
			name:    "no matches",
			args:    []string{"search", "Person", "--request", `{"where":{"equalsLong":{"id":42}}}`},
			wantOut: "[]\n",
		},
		{
			name:     "empty request",
			args:     []string{"search", "Person", "--request", `{}`},
			wantCode: ExitFailure,
		},
		{
			name:     "unknown entity",
			args:     []string{"search", "Nope", "--request", `{"projection":["id"]}`},
			wantCode: ExitFailure,
		},
		{
			name:     "malformed json",
			args:     []string{"search", "Person", "--request", `{"where":`},
			wantCode: ExitFailure,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			out, _, err := execute(t, withMemory(tc.args...)...)
			if tc.wantCode != ExitSuccess {
				require.Error(t, err)
				assert.Equal(t, tc.wantCode, GetExitCode(err))
				assert.Contains(t, out, "Error [")
				return
			}
			require.NoError(t, err)
			if tc.wantJSON != "" {
				assert.JSONEq(t, tc.wantJSON, out)
				return
			}
			assert.Equal(t, tc.wantOut, out)
		})
	}
}

func TestSearchCommand_RequestFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "req.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"where":{"isNull":["email"]}}`), 0o644))

	out, _, err := execute(t, withMemory("search", "Person", "--file", path)...)
	require.NoError(t, err)
	assert.Equal(t, "[]\n", out)
}

func TestPatchCommand(t *testing.T) {
	out, _, err := execute(t, withMemory("patch", "TBL_USER", "id", "7", "--set", "login=admin")...)
	require.NoError(t, err)
	assert.Equal(t, "1 row(s) updated\n", out)

	out, _, err = execute(t, withMemory("patch", "tbl_user", "id", "8", "--values", `{"login":"x"}`, "--format", "json")...)
	require.NoError(t, err)
	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, map[string]any{"affected": float64(0)}, resp.Data)
}

func TestPatchCommand_Errors(t *testing.T) {
	testCases := []struct {
		name string
		args []string
	}{
		{name: "no values", args: []string{"patch", "tbl_user", "id", "7"}},
		{name: "bad assignment", args: []string{"patch", "tbl_user", "id", "7", "--set", "login"}},
		{name: "unknown table", args: []string{"patch", "nope", "id", "7", "--set", "login=x"}},
		{name: "empty values object", args: []string{"patch", "tbl_user", "id", "7", "--values", "{}"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := execute(t, withMemory(tc.args...)...)
			require.Error(t, err)
			assert.Equal(t, ExitFailure, GetExitCode(err))
		})
	}
}

func TestPatchValues(t *testing.T) {
	values, err := patchValues(`{"login":"a","age":30}`, []string{"login=b", "score=1.5"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"login": "b", "age": int64(30), "score": "1.5"}, values)
}

func TestTypesCommand_Golden(t *testing.T) {
	out, _, err := execute(t, withMemory("types")...)
	require.NoError(t, err)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "types", []byte(out))
}

func TestCheckCommand(t *testing.T) {
	out, _, err := execute(t, "check", "testdata/scenarios")
	require.NoError(t, err)
	assert.Contains(t, out, "PASS lookup")
	assert.Contains(t, out, "1 scenario(s), 0 failed")

	out, _, err = execute(t, "check", "testdata/failing/wrong_body.yaml", "--format", "json")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Data []checkReport `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data, 1)
	assert.False(t, resp.Data[0].Pass)
	assert.NotEmpty(t, resp.Data[0].Errors)

	_, _, err = execute(t, "check", "testdata/missing")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
