package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/genq/internal/harness"
)

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check <scenario-file-or-dir>...",
		Short: "Run search scenarios against in-memory definitions",
		Long: `Run YAML scenarios through the full search pipeline on an in-memory
engine seeded from each scenario's CUE definitions. Directories are
expanded to the *.yaml and *.yml files they contain.

Exit code is 1 when any scenario fails.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, rootOpts, args)
		},
	}
}

type checkReport struct {
	Name   string   `json:"name"`
	Pass   bool     `json:"pass"`
	Errors []string `json:"errors,omitempty"`
}

func runCheck(cmd *cobra.Command, opts *RootOptions, paths []string) error {
	formatter := newFormatter(cmd, opts)

	var scenarios []*harness.Scenario
	for _, p := range paths {
		loaded, err := loadScenarios(p)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to load scenarios", err)
		}
		scenarios = append(scenarios, loaded...)
	}

	reports := make([]checkReport, 0, len(scenarios))
	failed := 0
	for _, sc := range scenarios {
		formatter.VerboseLog("running %s", sc.Name)
		result, err := harness.Run(sc)
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("scenario %s", sc.Name), err)
		}
		if !result.Pass {
			failed++
		}
		reports = append(reports, checkReport{Name: sc.Name, Pass: result.Pass, Errors: result.Errors})
	}

	if formatter.Format == "json" {
		if err := formatter.Success(reports); err != nil {
			return err
		}
	} else {
		for _, r := range reports {
			status := "PASS"
			if !r.Pass {
				status = "FAIL"
			}
			fmt.Fprintf(formatter.Writer, "%s %s\n", status, r.Name)
			for _, e := range r.Errors {
				fmt.Fprintf(formatter.Writer, "    %s\n", e)
			}
		}
		fmt.Fprintf(formatter.Writer, "%d scenario(s), %d failed\n", len(reports), failed)
	}

	if failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", failed))
	}
	return nil
}

func loadScenarios(path string) ([]*harness.Scenario, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return harness.LoadScenarios(path)
	}
	sc, err := harness.LoadScenario(path)
	if err != nil {
		return nil, err
	}
	return []*harness.Scenario{sc}, nil
}
