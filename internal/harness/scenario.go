package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/genq/internal/filter"
)

// Scenario is one scripted sequence of searches and patches.
type Scenario struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`

	// Definitions is the CUE file or directory holding the record types and
	// their seed records. Relative paths resolve against the scenario file.
	Definitions string `yaml:"definitions"`

	FallbackPrefix string `yaml:"fallback_prefix,omitempty"`
	QueryShape     bool   `yaml:"query_shape,omitempty"`

	Flow       []Step      `yaml:"flow"`
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Step is either a search or a patch.
type Step struct {
	// Search names the entity to search.
	Search  string                `yaml:"search,omitempty"`
	Request *filter.SearchRequest `yaml:"request,omitempty"`

	Patch *PatchStep `yaml:"patch,omitempty"`

	// Expect is optional; without it the step is only recorded.
	Expect *Expect `yaml:"expect,omitempty"`
}

// PatchStep describes an update by key.
type PatchStep struct {
	Table  string         `yaml:"table"`
	Key    string         `yaml:"key"`
	Value  any            `yaml:"value"`
	Values map[string]any `yaml:"values"`
}

// Expect is the expected outcome of a step. Body and Error are exclusive.
type Expect struct {
	// Body is the exact serialized search response.
	Body string `yaml:"body,omitempty"`
	// Error is the expected error type, such as not_found or validation.
	Error string `yaml:"error,omitempty"`
	// Affected is the expected number of patched rows.
	Affected *int64 `yaml:"affected,omitempty"`
}

// Assertion validates the state after the flow.
type Assertion struct {
	// Type is one of AssertStatementCount or AssertFinalState.
	Type string `yaml:"type"`

	// Count is the expected number of statements (statement_count).
	Count int `yaml:"count,omitempty"`

	// Entity, Where and Expect drive final_state. Where is matched with
	// equalsLong for integers and equalsString for everything else.
	Entity string         `yaml:"entity,omitempty"`
	Where  map[string]any `yaml:"where,omitempty"`
	Expect map[string]any `yaml:"expect,omitempty"`
}

// Assertion type constants.
const (
	AssertStatementCount = "statement_count"
	AssertFinalState     = "final_state"
)

// LoadScenario reads and parses a scenario YAML file. Unknown keys are
// rejected so typos surface as errors.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Definitions != "" && !filepath.IsAbs(scenario.Definitions) {
		scenario.Definitions = filepath.Join(filepath.Dir(path), scenario.Definitions)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario %s: %w", path, err)
	}
	return &scenario, nil
}

// LoadScenarios loads every *.yaml and *.yml file under dir, sorted by path.
func LoadScenarios(dir string) ([]*Scenario, error) {
	var paths []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, err
		}
		paths = append(paths, matches...)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no scenario files in %s", dir)
	}

	out := make([]*Scenario, 0, len(paths))
	for _, p := range paths {
		sc, err := LoadScenario(p)
		if err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	return out, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Definitions == "" {
		return fmt.Errorf("definitions is required")
	}
	if len(s.Flow) == 0 {
		return fmt.Errorf("flow list is required and must be non-empty")
	}

	for i, step := range s.Flow {
		isSearch, isPatch := step.Search != "", step.Patch != nil
		if isSearch == isPatch {
			return fmt.Errorf("flow step %d: exactly one of search or patch is required", i+1)
		}
		if isSearch && step.Request == nil {
			return fmt.Errorf("flow step %d: search requires a request", i+1)
		}
		if isPatch && (step.Patch.Table == "" || step.Patch.Key == "") {
			return fmt.Errorf("flow step %d: patch requires table and key", i+1)
		}
		if step.Expect != nil && step.Expect.Body != "" && step.Expect.Error != "" {
			return fmt.Errorf("flow step %d: expect body and error are exclusive", i+1)
		}
	}

	for i, a := range s.Assertions {
		switch a.Type {
		case AssertStatementCount:
		case AssertFinalState:
			if a.Entity == "" || len(a.Where) == 0 || len(a.Expect) == 0 {
				return fmt.Errorf("assertion %d: final_state requires entity, where and expect", i+1)
			}
		default:
			return fmt.Errorf("assertion %d: unknown type %q", i+1, a.Type)
		}
	}
	return nil
}
