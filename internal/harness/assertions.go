package harness

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/flowvault/flowvault/internal/flow"
	"github.com/flowvault/flowvault/internal/store"
	"github.com/flowvault/flowvault/internal/versioning"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)

	// Expected vs Actual (most important info)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, event := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s %s %v\n", event.Seq, event.Op, event.Status, event.Args)
		}
	}

	return buf.String()
}

// AssertionContext provides service access for final-state assertions.
type AssertionContext struct {
	Ctx     context.Context
	Service *versioning.Service
	Store   *store.Store
	FlowID  uuid.UUID
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
// The actx parameter provides service access for final-state
// assertions.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		if stateAssertion(assertion.Type) && (actx == nil || actx.Service == nil || actx.Store == nil) {
			errors = append(errors, fmt.Sprintf("assertion[%d]: %s requires service context", i, assertion.Type))
			continue
		}

		switch assertion.Type {
		case AssertTraceContains:
			err = assertTraceContains(result.Trace, assertion)
		case AssertTraceOrder:
			err = assertTraceOrder(result.Trace, assertion)
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, assertion)
		case AssertActiveVersion:
			err = assertActiveVersion(actx, assertion, result.Trace)
		case AssertVersionCount:
			err = assertVersionCount(actx, assertion, result.Trace)
		case AssertDraftState:
			err = assertDraftState(actx, assertion, result.Trace)
		case AssertVersionState:
			err = assertVersionState(actx, assertion, result.Trace)
		case AssertVersionMetrics:
			err = assertVersionMetrics(actx, assertion, result.Trace)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}

// stateAssertion reports whether the assertion type reads final state
// through the service rather than the trace alone.
func stateAssertion(kind string) bool {
	switch kind {
	case AssertActiveVersion, AssertVersionCount, AssertDraftState,
		AssertVersionState, AssertVersionMetrics:
		return true
	}
	return false
}

// assertTraceContains checks if the trace contains an operation
// matching the specified op and args (subset match).
func assertTraceContains(trace []TraceEvent, assertion Assertion) error {
	for _, event := range trace {
		if event.Op == assertion.Op && matchArgs(event.Args, assertion.Args) {
			return nil
		}
	}

	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: fmt.Sprintf("operation %s with args %v", assertion.Op, assertion.Args),
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertTraceOrder checks if operations appear in the specified order.
// Operations don't need to be consecutive (intervening operations are
// allowed).
func assertTraceOrder(trace []TraceEvent, assertion Assertion) error {
	// First position of each expected operation
	positions := make(map[string]int)
	for i, event := range trace {
		for _, expected := range assertion.Ops {
			if event.Op == expected && positions[expected] == 0 {
				positions[expected] = i + 1 // 1-indexed for readability
			}
		}
	}

	for _, op := range assertion.Ops {
		if positions[op] == 0 {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("all operations present: %v", assertion.Ops),
				Actual:   fmt.Sprintf("missing operation: %s", op),
				Trace:    trace,
			}
		}
	}

	for i := 1; i < len(assertion.Ops); i++ {
		prev := assertion.Ops[i-1]
		curr := assertion.Ops[i]

		if positions[prev] >= positions[curr] {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("operations in order: %v", assertion.Ops),
				Actual: fmt.Sprintf("%s (pos %d) should be before %s (pos %d)",
					prev, positions[prev], curr, positions[curr]),
				Trace: trace,
			}
		}
	}

	return nil
}

// assertTraceCount checks if the operation appears exactly the
// specified number of times.
func assertTraceCount(trace []TraceEvent, assertion Assertion) error {
	count := 0
	for _, event := range trace {
		if event.Op == assertion.Op {
			count++
		}
	}

	if count != assertion.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d occurrences of %s", assertion.Count, assertion.Op),
			Actual:   fmt.Sprintf("%d occurrences", count),
			Trace:    trace,
		}
	}

	return nil
}

// assertActiveVersion checks which version is active after the
// scenario, or that none is.
func assertActiveVersion(actx *AssertionContext, assertion Assertion, trace []TraceEvent) error {
	read, err := actx.Service.GetActiveVersion(actx.Ctx, actx.FlowID)
	if err != nil {
		return fmt.Errorf("active_version: load active version: %w", err)
	}

	if assertion.None {
		if read != nil {
			return &AssertionError{
				Type:     AssertActiveVersion,
				Expected: "no active version",
				Actual:   fmt.Sprintf("version %d is active", read.VersionNumber),
				Trace:    trace,
			}
		}
		return nil
	}

	if read == nil {
		return &AssertionError{
			Type:     AssertActiveVersion,
			Expected: fmt.Sprintf("version %d active", assertion.Number),
			Actual:   "no active version",
			Trace:    trace,
		}
	}
	if read.VersionNumber != assertion.Number {
		return &AssertionError{
			Type:     AssertActiveVersion,
			Expected: fmt.Sprintf("version %d active", assertion.Number),
			Actual:   fmt.Sprintf("version %d active", read.VersionNumber),
			Trace:    trace,
		}
	}
	return nil
}

// assertVersionCount checks the total number of published versions.
// Reads the store directly so the count is never page-limited.
func assertVersionCount(actx *AssertionContext, assertion Assertion, trace []TraceEvent) error {
	records, err := actx.Store.ListVersions(actx.Ctx, actx.FlowID, -1, 0)
	if err != nil {
		return fmt.Errorf("version_count: list versions: %w", err)
	}

	if len(records) != assertion.Count {
		return &AssertionError{
			Type:     AssertVersionCount,
			Expected: fmt.Sprintf("%d published versions", assertion.Count),
			Actual:   fmt.Sprintf("%d published versions", len(records)),
			Trace:    trace,
		}
	}
	return nil
}

// assertDraftState checks fields of the flow's current draft document
// (subset semantics).
func assertDraftState(actx *AssertionContext, assertion Assertion, trace []TraceEvent) error {
	f, err := actx.Store.GetFlow(actx.Ctx, actx.FlowID)
	if err != nil {
		return fmt.Errorf("draft_state: load flow: %w", err)
	}

	return matchState(AssertDraftState, assertion.Expect, map[string]any(f.Data), trace)
}

// assertVersionState checks fields of a version read model (subset
// semantics).
func assertVersionState(actx *AssertionContext, assertion Assertion, trace []TraceEvent) error {
	read, err := actx.Service.GetVersion(actx.Ctx, actx.FlowID, assertion.Version)
	if err != nil {
		return &AssertionError{
			Type:     AssertVersionState,
			Expected: fmt.Sprintf("version %q to exist", assertion.Version),
			Actual:   err.Error(),
			Trace:    trace,
		}
	}

	return matchState(AssertVersionState, assertion.Expect, versionStateFields(read), trace)
}

// assertVersionMetrics checks a version's execution metric counters
// (subset semantics).
func assertVersionMetrics(actx *AssertionContext, assertion Assertion, trace []TraceEvent) error {
	read, err := actx.Service.GetVersion(actx.Ctx, actx.FlowID, assertion.Version)
	if err != nil {
		return &AssertionError{
			Type:     AssertVersionMetrics,
			Expected: fmt.Sprintf("version %q to exist", assertion.Version),
			Actual:   err.Error(),
			Trace:    trace,
		}
	}

	vm, err := actx.Service.GetVersionMetrics(actx.Ctx, read.ID)
	if err != nil {
		return &AssertionError{
			Type:     AssertVersionMetrics,
			Expected: fmt.Sprintf("metrics recorded for version %q", assertion.Version),
			Actual:   err.Error(),
			Trace:    trace,
		}
	}

	return matchState(AssertVersionMetrics, assertion.Expect, metricFields(vm), trace)
}

// versionStateFields projects a version read model into assertable
// fields.
func versionStateFields(read *flow.VersionRead) map[string]any {
	m := map[string]any{
		"version_number":  read.VersionNumber,
		"is_active":       read.IsActive,
		"status":          read.Status(),
		"name":            read.Name,
		"execution_count": read.ExecutionCount,
		"error_count":     read.ErrorCount,
	}
	if read.VersionTag != nil {
		m["version_tag"] = *read.VersionTag
	}
	if read.DescriptionVersion != nil {
		m["description"] = *read.DescriptionVersion
	}
	if read.Changelog != nil {
		m["changelog"] = *read.Changelog
	}
	if read.CreatedFromVersionID != nil {
		m["created_from_version_id"] = read.CreatedFromVersionID.String()
	}
	return m
}

// metricFields projects version metrics into assertable fields.
func metricFields(vm *flow.VersionMetrics) map[string]any {
	m := map[string]any{
		"execution_count":    vm.ExecutionCount,
		"error_count":        vm.ErrorCount,
		"api_executions":     vm.APIExecutions,
		"mcp_executions":     vm.MCPExecutions,
		"public_executions":  vm.PublicExecutions,
		"webhook_executions": vm.WebhookExecutions,
		"rollback_count":     vm.RollbackCount,
	}
	if vm.AvgExecutionTimeMS != nil {
		m["avg_execution_time_ms"] = *vm.AvgExecutionTimeMS
	}
	return m
}

// matchState checks each expected field against the actual state
// (subset semantics - only fields in expected are validated). Keys are
// sorted so the reported failure is deterministic.
func matchState(kind string, expected, actual map[string]any, trace []TraceEvent) error {
	keys := make([]string, 0, len(expected))
	for k := range expected {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		want := expected[key]
		got, ok := actual[key]
		if !ok {
			return &AssertionError{
				Type:     kind,
				Expected: fmt.Sprintf("field %q = %v", key, want),
				Actual:   fmt.Sprintf("field %q not present", key),
				Trace:    trace,
			}
		}
		if !equalValue(want, got) {
			return &AssertionError{
				Type:     kind,
				Expected: fmt.Sprintf("field %q = %v (type %T)", key, want, want),
				Actual:   fmt.Sprintf("field %q = %v (type %T)", key, got, got),
				Trace:    trace,
			}
		}
	}
	return nil
}

// matchFields compares expected fields against actual ones (subset
// semantics) and describes every mismatch. Keys are sorted so failure
// output is deterministic.
func matchFields(expected, actual map[string]any) []string {
	if len(expected) == 0 {
		return nil
	}

	keys := make([]string, 0, len(expected))
	for k := range expected {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var mismatches []string
	for _, key := range keys {
		want := expected[key]
		got, ok := actual[key]
		if !ok {
			mismatches = append(mismatches, fmt.Sprintf("field %q = %v: field not present", key, want))
			continue
		}
		if !equalValue(want, got) {
			mismatches = append(mismatches, fmt.Sprintf("field %q = %v (%T), got %v (%T)", key, want, want, got, got))
		}
	}
	return mismatches
}

// matchArgs checks if actual args contain all expected args (subset
// match). Extra keys in actual are ignored.
func matchArgs(actual map[string]any, expected map[string]any) bool {
	if len(expected) == 0 {
		return true
	}
	if actual == nil {
		return false
	}

	for key, want := range expected {
		got, exists := actual[key]
		if !exists {
			return false
		}
		if !equalValue(want, got) {
			return false
		}
	}
	return true
}

// equalValue compares an expected value against an actual one across
// the representations in play: YAML integers, Go int64 counters, and
// json.Number tokens from decoded documents all compare numerically.
func equalValue(expected, actual any) bool {
	if en, ok := numericValue(expected); ok {
		an, ok := numericValue(actual)
		return ok && en == an
	}

	switch want := expected.(type) {
	case nil:
		return actual == nil
	case string:
		got, ok := actual.(string)
		return ok && want == got
	case bool:
		got, ok := actual.(bool)
		return ok && want == got
	case map[string]any:
		got, ok := actual.(map[string]any)
		if !ok {
			return false
		}
		// Nested maps match as subsets too
		for k, v := range want {
			inner, exists := got[k]
			if !exists || !equalValue(v, inner) {
				return false
			}
		}
		return true
	case []any:
		got, ok := actual.([]any)
		if !ok || len(want) != len(got) {
			return false
		}
		for i := range want {
			if !equalValue(want[i], got[i]) {
				return false
			}
		}
		return true
	default:
		return reflect.DeepEqual(expected, actual)
	}
}

// numericValue normalizes the numeric representations that cross the
// YAML/JSON/store boundary.
func numericValue(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}
