package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/genq/internal/api"
	genqerrors "github.com/roach88/genq/internal/errors"
)

// PatchOptions holds flags for the patch command.
type PatchOptions struct {
	*RootOptions
	Values string
	Set    []string
}

// NewPatchCommand creates the patch command.
func NewPatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PatchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "patch <table> <key-column> <key-value>",
		Short: "Update columns of the row with the given key",
		Long: `Update one row by primary key:

  genq patch tbl_user id 7 --values '{"name":"Ann"}'
  genq patch tbl_user id 7 --set name=Ann --set age=31

--set values bind as integers when integral and as text otherwise.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPatch(cmd, opts, args[0], args[1], args[2])
		},
	}

	cmd.Flags().StringVar(&opts.Values, "values", "", "column values as a JSON object")
	cmd.Flags().StringArrayVar(&opts.Set, "set", nil, "column=value assignment (repeatable)")

	return cmd
}

func runPatch(cmd *cobra.Command, opts *PatchOptions, table, keyColumn, keyValue string) error {
	formatter := newFormatter(cmd, opts.RootOptions)

	values, err := patchValues(opts.Values, opts.Set)
	if err != nil {
		formatter.Error(err)
		return WrapExitError(ExitFailure, "invalid values", err)
	}

	a, err := openApp(cmd.Context(), cmd, opts.RootOptions)
	if err != nil {
		return err
	}
	defer a.Close()

	affected, err := a.svc.Patch(cmd.Context(), table, keyColumn, api.KeyValue(keyValue), values)
	if err != nil {
		formatter.Error(err)
		return requestExitError("patch failed", err)
	}

	if formatter.Format == "json" {
		return formatter.Success(map[string]int64{"affected": affected})
	}
	return formatter.Success(fmt.Sprintf("%d row(s) updated", affected))
}

// patchValues merges --values and --set; --set wins on conflict.
func patchValues(raw string, set []string) (map[string]any, error) {
	if raw == "" && len(set) == 0 {
		return nil, genqerrors.New(genqerrors.ErrTypeValidation, "no column values given").WithFields("values", "set")
	}

	values := map[string]any{}
	if raw != "" {
		decoded, err := api.DecodePatchValues([]byte(raw))
		if err != nil {
			return nil, err
		}
		values = decoded
	}
	for _, s := range set {
		column, value, ok := strings.Cut(s, "=")
		if !ok || column == "" {
			return nil, genqerrors.Newf(genqerrors.ErrTypeValidation, "invalid assignment %q, want column=value", s).WithFields("set")
		}
		values[column] = api.KeyValue(value)
	}
	return values, nil
}
