package harness

import (
	"bytes"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/genq/internal/document"
)

// Transcript renders a trace as one compact JSON object per line, keys in
// a fixed order.
func Transcript(trace []TraceEvent) ([]byte, error) {
	var buf bytes.Buffer
	for _, e := range trace {
		obj := document.Object{
			{Key: "step", Value: e.Step},
			{Key: "kind", Value: e.Kind},
			{Key: "target", Value: e.Target},
		}
		switch {
		case e.Error != "":
			obj = append(obj, document.Member{Key: "error", Value: e.Error})
		case e.Affected != nil:
			obj = append(obj, document.Member{Key: "affected", Value: *e.Affected})
		default:
			obj = append(obj, document.Member{Key: "body", Value: e.Body})
		}
		line, err := document.Encode(obj)
		if err != nil {
			return nil, err
		}
		buf.Write(line)
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

// RunWithGolden executes a scenario and compares its transcript against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result's transcript against a golden
// file without re-running the scenario.
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()

	transcript, err := Transcript(result.Trace)
	if err != nil {
		return err
	}
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, transcript)
	return nil
}
