package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/genq/internal/schema"
)

// NewTypesCommand creates the types command.
func NewTypesCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "types",
		Short: "List the record types the database exposes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTypes(cmd, rootOpts)
		},
	}
}

type typeSummary struct {
	Name       string   `json:"name"`
	PrimaryKey []string `json:"primaryKey"`
	Fields     []string `json:"fields"`
}

func runTypes(cmd *cobra.Command, opts *RootOptions) error {
	formatter := newFormatter(cmd, opts)

	a, err := openApp(cmd.Context(), cmd, opts)
	if err != nil {
		return err
	}
	defer a.Close()

	types := a.svc.Registry().Types()
	if formatter.Format == "json" {
		out := make([]typeSummary, 0, len(types))
		for _, rt := range types {
			s := typeSummary{Name: rt.Name(), PrimaryKey: rt.PrimaryKey()}
			for _, f := range rt.UserFields() {
				s.Fields = append(s.Fields, f.Name)
			}
			out = append(out, s)
		}
		return formatter.Success(out)
	}

	writeTypes(formatter.Writer, types)
	return nil
}

// writeTypes prints one block per type: its name, then one indented line
// per user field with its type tag and a key marker.
func writeTypes(w io.Writer, types []*schema.RecordType) {
	if len(types) == 0 {
		fmt.Fprintln(w, "no record types")
		return
	}
	for i, rt := range types {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "%s (key: %s)\n", rt.Name(), strings.Join(rt.PrimaryKey(), ", "))
		for _, f := range rt.UserFields() {
			marker := ""
			if f.PrimaryKey {
				marker = " *"
			}
			fmt.Fprintf(w, "  %-16s %s%s\n", f.Name, f.Type, marker)
		}
	}
}
