package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario defines a versioning test scenario.
// Scenarios validate the version lifecycle by executing a sequence of
// operations against one flow and asserting on the resulting trace and
// final state.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden
	// file when the scenario runs under golden comparison.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Flow describes the flow under test. The harness creates it in a
	// fresh database before any step runs.
	Flow FlowFixture `yaml:"flow"`

	// Setup contains operations to run before the main steps.
	// These establish initial state (e.g. publishing a baseline
	// version) and must succeed.
	Setup []Step `yaml:"setup,omitempty"`

	// Steps contains the main test flow - operations with expected
	// outcomes.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final trace and state.
	Assertions []Assertion `yaml:"assertions"`
}

// FlowFixture describes the flow the harness creates for a scenario.
type FlowFixture struct {
	// Name is the flow's display name.
	Name string `yaml:"name"`

	// Description optionally annotates the flow.
	Description string `yaml:"description,omitempty"`

	// Draft is the initial draft document. Steps may overwrite it with
	// set_draft.
	Draft map[string]any `yaml:"draft,omitempty"`

	// Tags optionally label the flow.
	Tags []string `yaml:"tags,omitempty"`
}

// Step represents a single operation invocation.
type Step struct {
	// Op is the operation name (e.g. "publish", "rollback").
	Op string `yaml:"op"`

	// Args contains the operation arguments as a map.
	Args map[string]any `yaml:"args,omitempty"`

	// Expect specifies the expected outcome.
	// If nil, no validation is performed (the operation's status is
	// still traced).
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause specifies the expected outcome of a step.
type ExpectClause struct {
	// Status is "ok" or a versioning error code such as "NOT_FOUND",
	// "INVALID_OPERATION", "CONFLICT", or "ACTIVE_VERSION_NOT_SET".
	Status string `yaml:"status"`

	// Result contains expected result field values.
	// This is a subset match - only specified fields are validated.
	// If nil, only the status is validated.
	Result map[string]any `yaml:"result,omitempty"`
}

// Assertion validates the trace or the final state.
type Assertion struct {
	// Type selects the assertion:
	//   - "trace_contains": Check an operation appears in the trace with args
	//   - "trace_order": Check operations appear in order
	//   - "trace_count": Check an operation appears exactly N times
	//   - "active_version": Check which version is active
	//   - "version_count": Check the number of published versions
	//   - "draft_state": Check fields of the current draft document
	//   - "version_state": Check fields of a version read model
	//   - "version_metrics": Check a version's metric counters
	Type string `yaml:"type"`

	// Op is the operation name (used by trace_contains, trace_count).
	Op string `yaml:"op,omitempty"`

	// Ops is the expected operation order (used by trace_order).
	Ops []string `yaml:"ops,omitempty"`

	// Args are the expected operation arguments (used by
	// trace_contains). Subset match - only specified fields are
	// validated.
	Args map[string]any `yaml:"args,omitempty"`

	// Count is the expected number of occurrences (used by trace_count
	// and version_count).
	Count int `yaml:"count,omitempty"`

	// Number is the expected active version number (used by
	// active_version).
	Number int `yaml:"number,omitempty"`

	// None expects the flow to have no active version (used by
	// active_version).
	None bool `yaml:"none,omitempty"`

	// Version identifies the version under assertion (used by
	// version_state and version_metrics). Accepts a number, "v"-prefixed
	// number, tag, or UUID.
	Version string `yaml:"version,omitempty"`

	// Expect contains expected field values (used by draft_state,
	// version_state, version_metrics). Subset match - only specified
	// fields are validated.
	Expect map[string]any `yaml:"expect,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains  = "trace_contains"
	AssertTraceOrder     = "trace_order"
	AssertTraceCount     = "trace_count"
	AssertActiveVersion  = "active_version"
	AssertVersionCount   = "version_count"
	AssertDraftState     = "draft_state"
	AssertVersionState   = "version_state"
	AssertVersionMetrics = "version_metrics"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML bytes with strict field validation
// (catches typos like "assertion:" vs "assertions:").
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Flow.Name == "" {
		return fmt.Errorf("flow.name is required")
	}

	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, step := range s.Setup {
		if err := validateStep(&step); err != nil {
			return fmt.Errorf("setup[%d]: %w", i, err)
		}
		if step.Expect != nil && step.Expect.Status != StatusOK {
			return fmt.Errorf("setup[%d]: setup steps must expect status %q", i, StatusOK)
		}
	}

	for i, step := range s.Steps {
		if err := validateStep(&step); err != nil {
			return fmt.Errorf("steps[%d]: %w", i, err)
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateStep checks a single step's operation name and expect clause.
func validateStep(step *Step) error {
	if step.Op == "" {
		return fmt.Errorf("op is required")
	}
	if !knownOp(step.Op) {
		return fmt.Errorf("unknown operation %q", step.Op)
	}
	if step.Expect != nil && step.Expect.Status == "" {
		return fmt.Errorf("expect: status is required")
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertTraceContains:
		if a.Op == "" {
			return fmt.Errorf("assertions[%d]: op is required for trace_contains", index)
		}
	case AssertTraceOrder:
		if len(a.Ops) == 0 {
			return fmt.Errorf("assertions[%d]: ops list is required for trace_order", index)
		}
	case AssertTraceCount:
		if a.Op == "" {
			return fmt.Errorf("assertions[%d]: op is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertActiveVersion:
		if !a.None && a.Number <= 0 {
			return fmt.Errorf("assertions[%d]: active_version requires number or none", index)
		}
		if a.None && a.Number > 0 {
			return fmt.Errorf("assertions[%d]: active_version accepts number or none, not both", index)
		}
	case AssertVersionCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for version_count", index)
		}
	case AssertDraftState:
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for draft_state", index)
		}
	case AssertVersionState:
		if a.Version == "" {
			return fmt.Errorf("assertions[%d]: version is required for version_state", index)
		}
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for version_state", index)
		}
	case AssertVersionMetrics:
		if a.Version == "" {
			return fmt.Errorf("assertions[%d]: version is required for version_metrics", index)
		}
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for version_metrics", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
