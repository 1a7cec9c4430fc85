package harness

// TraceEvent records one executed operation and its outcome.
// Service calls are synchronous, so each step produces exactly one
// event.
type TraceEvent struct {
	// Seq orders events within a scenario, starting at 1.
	Seq int64 `json:"seq"`

	// Op is the operation name (e.g. "publish").
	Op string `json:"op"`

	// Status is "ok" on success or the versioning error code on
	// failure (e.g. "NOT_FOUND", "CONFLICT").
	Status string `json:"status"`

	// Args are the step arguments as parsed from the scenario.
	Args map[string]any `json:"args,omitempty"`

	// Result summarizes the operation outcome (deterministic fields
	// only, so traces compare byte-identical across runs).
	Result map[string]any `json:"result,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall scenario success.
	// True if every expect clause and assertion holds.
	Pass bool `json:"pass"`

	// Trace contains one event per executed step, in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
// Used as the starting point for scenario execution.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(msg string) {
	r.Errors = append(r.Errors, msg)
	r.Pass = false
}

// AddEvent appends an operation event to the trace.
func (r *Result) AddEvent(ev TraceEvent) {
	r.Trace = append(r.Trace, ev)
}
