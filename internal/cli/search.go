package cli

import (
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	genqerrors "github.com/roach88/genq/internal/errors"
	"github.com/roach88/genq/internal/filter"
)

// SearchOptions holds flags for the search command.
type SearchOptions struct {
	*RootOptions
	Request     string
	RequestFile string
}

// NewSearchCommand creates the search command.
func NewSearchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SearchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "search <entity>",
		Short: "Run one search and print the matching records",
		Long: `Search records of one type with the same filter format the HTTP API
accepts, for example:

  genq search Person --request '{"where":{"like":{"name":"an"}}}'

The request is read from --request, --file or, when both are absent, stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVarP(&opts.Request, "request", "r", "", "search request as JSON")
	cmd.Flags().StringVarP(&opts.RequestFile, "file", "f", "", "file holding the search request")

	return cmd
}

func runSearch(cmd *cobra.Command, opts *SearchOptions, entity string) error {
	formatter := newFormatter(cmd, opts.RootOptions)

	body, err := readRequest(cmd, opts.Request, opts.RequestFile)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read request", err)
	}
	var req filter.SearchRequest
	if err := json.Unmarshal(body, &req); err != nil {
		err = genqerrors.Wrap(err, genqerrors.ErrTypeValidation, "request is not valid JSON")
		formatter.Error(err)
		return WrapExitError(ExitFailure, "invalid request", err)
	}

	a, err := openApp(cmd.Context(), cmd, opts.RootOptions)
	if err != nil {
		return err
	}
	defer a.Close()

	out, err := a.svc.SearchAndSerialize(cmd.Context(), entity, req)
	if err != nil {
		formatter.Error(err)
		return requestExitError("search failed", err)
	}
	return formatter.Success(out)
}

// readRequest returns the inline request, the file contents, or stdin.
func readRequest(cmd *cobra.Command, inline, path string) ([]byte, error) {
	switch {
	case inline != "":
		return []byte(inline), nil
	case path != "":
		return os.ReadFile(path)
	default:
		return readAll(cmd.InOrStdin())
	}
}

func readAll(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return []byte("{}"), nil
	}
	return data, nil
}
