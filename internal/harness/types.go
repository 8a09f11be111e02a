package harness

import "encoding/json"

// Step kinds recorded in the trace.
const (
	KindSearch = "search"
	KindPatch  = "patch"
)

// TraceEvent is the observed outcome of one flow step.
type TraceEvent struct {
	Step     int             `json:"step"`
	Kind     string          `json:"kind"`
	Target   string          `json:"target"`
	Body     json.RawMessage `json:"body,omitempty"`
	Affected *int64          `json:"affected,omitempty"`
	Error    string          `json:"error,omitempty"`
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when every expect clause and assertion held.
	Pass bool `json:"pass"`

	Trace []TraceEvent `json:"trace"`

	// Errors describes each failed expectation. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
