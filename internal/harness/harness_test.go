package harness

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowvault/flowvault/internal/versioning"
)

func TestRun_MinimalScenario(t *testing.T) {
	scenario := &Scenario{
		Name:        "minimal",
		Description: "Minimal publish scenario",
		Flow: FlowFixture{
			Name:  "Checkout",
			Draft: map[string]any{"label": "start"},
		},
		Steps: []Step{
			{Op: OpPublish, Args: map[string]any{"by": "alice"}},
		},
		Assertions: []Assertion{
			{Type: AssertActiveVersion, Number: 1},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Empty(t, result.Errors)

	require.Len(t, result.Trace, 1)
	ev := result.Trace[0]
	assert.Equal(t, int64(1), ev.Seq)
	assert.Equal(t, OpPublish, ev.Op)
	assert.Equal(t, StatusOK, ev.Status)
	assert.Equal(t, 1, ev.Result["version_number"])
	assert.Equal(t, true, ev.Result["is_active"])
}

func TestRun_WithSetup(t *testing.T) {
	scenario := &Scenario{
		Name:        "with_setup",
		Description: "Setup publishes a baseline version",
		Flow: FlowFixture{
			Name:  "Checkout",
			Draft: map[string]any{"label": "start"},
		},
		Setup: []Step{
			{Op: OpPublish, Args: map[string]any{"by": "alice", "tag": "v1.0"}},
		},
		Steps: []Step{
			{Op: OpSetDraft, Args: map[string]any{"data": map[string]any{"label": "charge"}}},
			{Op: OpPublish, Args: map[string]any{"by": "bob"}},
		},
		Assertions: []Assertion{
			{Type: AssertActiveVersion, Number: 2},
			{Type: AssertVersionCount, Count: 2},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)

	assert.True(t, result.Pass, "errors: %v", result.Errors)

	// Setup events are traced ahead of the main steps
	require.Len(t, result.Trace, 3)
	assert.Equal(t, OpPublish, result.Trace[0].Op)
	assert.Equal(t, "v1.0", result.Trace[0].Result["version_tag"])
	assert.Equal(t, OpSetDraft, result.Trace[1].Op)
	assert.Equal(t, OpPublish, result.Trace[2].Op)
	assert.Equal(t, 2, result.Trace[2].Result["version_number"])
}

func TestRun_WithExpectClause(t *testing.T) {
	scenario := &Scenario{
		Name:        "with_expect",
		Description: "Expect clause validates status and result subset",
		Flow: FlowFixture{
			Name:  "Checkout",
			Draft: map[string]any{"label": "start"},
		},
		Steps: []Step{
			{
				Op:   OpPublish,
				Args: map[string]any{"by": "alice"},
				Expect: &ExpectClause{
					Status: StatusOK,
					Result: map[string]any{"version_number": 1, "is_active": true},
				},
			},
		},
		Assertions: []Assertion{
			{Type: AssertActiveVersion, Number: 1},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)

	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Empty(t, result.Errors)
}

func TestRun_ExpectStatusMismatch(t *testing.T) {
	scenario := &Scenario{
		Name:        "status_mismatch",
		Description: "Step succeeds where the scenario expected a conflict",
		Flow: FlowFixture{
			Name:  "Checkout",
			Draft: map[string]any{"label": "start"},
		},
		Steps: []Step{
			{
				Op:     OpPublish,
				Args:   map[string]any{"by": "alice"},
				Expect: &ExpectClause{Status: "CONFLICT"},
			},
		},
		Assertions: []Assertion{
			{Type: AssertVersionCount, Count: 1},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.NotEmpty(t, result.Errors)
	assert.Contains(t, result.Errors[0], `expected status "CONFLICT", got "ok"`)
}

func TestRun_ExpectResultMismatch(t *testing.T) {
	scenario := &Scenario{
		Name:        "result_mismatch",
		Description: "Step result contradicts the expect clause",
		Flow: FlowFixture{
			Name:  "Checkout",
			Draft: map[string]any{"label": "start"},
		},
		Steps: []Step{
			{
				Op:   OpPublish,
				Args: map[string]any{"by": "alice"},
				Expect: &ExpectClause{
					Status: StatusOK,
					Result: map[string]any{"version_number": 5},
				},
			},
		},
		Assertions: []Assertion{
			{Type: AssertVersionCount, Count: 1},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.NotEmpty(t, result.Errors)
	assert.Contains(t, result.Errors[0], `field "version_number"`)
}

func TestRun_DomainErrorFoldsIntoTrace(t *testing.T) {
	// An operation failure without an expect clause is a traced outcome,
	// not a scenario failure.
	scenario := &Scenario{
		Name:        "domain_error",
		Description: "Publishing an empty draft is traced as INVALID_OPERATION",
		Flow: FlowFixture{
			Name: "Empty",
		},
		Steps: []Step{
			{Op: OpPublish},
		},
		Assertions: []Assertion{
			{Type: AssertVersionCount, Count: 0},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)

	assert.True(t, result.Pass, "errors: %v", result.Errors)
	require.Len(t, result.Trace, 1)
	assert.Equal(t, "INVALID_OPERATION", result.Trace[0].Status)
	assert.Nil(t, result.Trace[0].Result)
}

func TestRun_SetupFailureAborts(t *testing.T) {
	scenario := &Scenario{
		Name:        "setup_failure",
		Description: "A failing setup step aborts the run",
		Flow: FlowFixture{
			Name: "Empty", // no draft, so publish fails
		},
		Setup: []Step{
			{Op: OpPublish},
		},
		Steps: []Step{
			{Op: OpActive},
		},
		Assertions: []Assertion{
			{Type: AssertVersionCount, Count: 0},
		},
	}

	_, err := Run(scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to execute setup")
	assert.Contains(t, err.Error(), "setup step 0")
	assert.Contains(t, err.Error(), "INVALID_OPERATION")
}

func TestRun_MissingArgumentAborts(t *testing.T) {
	scenario := &Scenario{
		Name:        "missing_argument",
		Description: "set_draft without data is a broken scenario",
		Flow: FlowFixture{
			Name:  "Checkout",
			Draft: map[string]any{"label": "start"},
		},
		Steps: []Step{
			{Op: OpSetDraft},
		},
		Assertions: []Assertion{
			{Type: AssertVersionCount, Count: 0},
		},
	}

	_, err := Run(scenario)
	require.Error(t, err)

	var argErr *ArgumentError
	require.ErrorAs(t, err, &argErr)
	assert.Equal(t, OpSetDraft, argErr.Op)
	assert.Contains(t, err.Error(), "data is required")
}

func TestRun_WrongArgumentTypeAborts(t *testing.T) {
	scenario := &Scenario{
		Name:        "wrong_argument_type",
		Description: "Version refs must be strings",
		Flow: FlowFixture{
			Name:  "Checkout",
			Draft: map[string]any{"label": "start"},
		},
		Steps: []Step{
			{Op: OpPublish, Args: map[string]any{"by": "alice"}},
			{Op: OpRollback, Args: map[string]any{"version": 1}},
		},
		Assertions: []Assertion{
			{Type: AssertVersionCount, Count: 1},
		},
	}

	_, err := Run(scenario)
	require.Error(t, err)

	var argErr *ArgumentError
	require.ErrorAs(t, err, &argErr)
	assert.Contains(t, err.Error(), "version must be a string")
}

func TestRun_UnknownOperationAborts(t *testing.T) {
	// Programmatic scenarios bypass ParseScenario validation; the
	// dispatcher still rejects unknown operations.
	scenario := &Scenario{
		Name:        "unknown_op",
		Description: "Unknown operation",
		Flow: FlowFixture{
			Name: "Checkout",
		},
		Steps: []Step{
			{Op: "teleport"},
		},
		Assertions: []Assertion{
			{Type: AssertVersionCount, Count: 0},
		},
	}

	_, err := Run(scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown operation")
}

func TestRun_Deterministic(t *testing.T) {
	scenario := &Scenario{
		Name:        "determinism",
		Description: "Repeated runs produce identical traces",
		Flow: FlowFixture{
			Name:  "Checkout",
			Draft: map[string]any{"label": "start", "steps": 1},
		},
		Steps: []Step{
			{Op: OpPublish, Args: map[string]any{"by": "alice", "tag": "v1.0"}},
			{Op: OpSetDraft, Args: map[string]any{"data": map[string]any{"label": "charge", "steps": 2}}},
			{Op: OpPublish, Args: map[string]any{"by": "bob"}},
			{Op: OpRollback, Args: map[string]any{"version": "v1.0"}},
			{Op: OpHistory},
		},
		Assertions: []Assertion{
			{Type: AssertActiveVersion, Number: 1},
		},
	}

	result1, err := Run(scenario)
	require.NoError(t, err)
	result2, err := Run(scenario)
	require.NoError(t, err)

	assert.True(t, result1.Pass, "errors: %v", result1.Errors)
	assert.True(t, result2.Pass, "errors: %v", result2.Errors)

	// The frozen clock and sequential IDs make the traces identical,
	// event for event.
	assert.Equal(t, result1.Trace, result2.Trace)
}

func TestRun_FreshDatabasePerRun(t *testing.T) {
	scenario := &Scenario{
		Name:        "fresh_database",
		Description: "Each run starts from an empty store",
		Flow: FlowFixture{
			Name:  "Checkout",
			Draft: map[string]any{"label": "start"},
		},
		Steps: []Step{
			{
				Op:   OpPublish,
				Args: map[string]any{"by": "alice"},
				Expect: &ExpectClause{
					Status: StatusOK,
					Result: map[string]any{"version_number": 1},
				},
			},
		},
		Assertions: []Assertion{
			{Type: AssertVersionCount, Count: 1},
		},
	}

	for i := 0; i < 2; i++ {
		result, err := Run(scenario)
		require.NoError(t, err)
		assert.True(t, result.Pass, "run %d errors: %v", i, result.Errors)
	}
}

func TestRun_HistoryResult(t *testing.T) {
	scenario := &Scenario{
		Name:        "history_result",
		Description: "History reports newest-first version numbers",
		Flow: FlowFixture{
			Name:  "Checkout",
			Draft: map[string]any{"label": "start"},
		},
		Steps: []Step{
			{Op: OpPublish, Args: map[string]any{"by": "alice"}},
			{Op: OpSetDraft, Args: map[string]any{"data": map[string]any{"label": "charge"}}},
			{Op: OpPublish, Args: map[string]any{"by": "alice"}},
			{
				Op: OpHistory,
				Expect: &ExpectClause{
					Status: StatusOK,
					Result: map[string]any{
						"count":   2,
						"numbers": []any{2, 1},
					},
				},
			},
		},
		Assertions: []Assertion{
			{Type: AssertVersionCount, Count: 2},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_AnnotateUpdatesVersion(t *testing.T) {
	scenario := &Scenario{
		Name:        "annotate",
		Description: "Annotations update description and changelog after publish",
		Flow: FlowFixture{
			Name:  "Checkout",
			Draft: map[string]any{"label": "start"},
		},
		Steps: []Step{
			{Op: OpPublish, Args: map[string]any{"by": "alice"}},
			{
				Op:     OpAnnotate,
				Args:   map[string]any{"version": "1", "description": "baseline", "changelog": "first cut"},
				Expect: &ExpectClause{Status: StatusOK},
			},
		},
		Assertions: []Assertion{
			{
				Type:    AssertVersionState,
				Version: "1",
				Expect:  map[string]any{"description": "baseline", "changelog": "first cut"},
			},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_PublishFromVersionLineage(t *testing.T) {
	scenario := &Scenario{
		Name:        "publish_from",
		Description: "Publishing from a source version records lineage",
		Flow: FlowFixture{
			Name:  "Checkout",
			Draft: map[string]any{"label": "start"},
		},
		Steps: []Step{
			{Op: OpPublish, Args: map[string]any{"by": "alice"}},
			{Op: OpSetDraft, Args: map[string]any{"data": map[string]any{"label": "charge"}}},
			{Op: OpPublish, Args: map[string]any{"by": "bob", "from": "1"}},
		},
		Assertions: []Assertion{
			{Type: AssertActiveVersion, Number: 2},
			{Type: AssertVersionCount, Count: 2},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestStatusOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil_error", nil, StatusOK},
		{"not_found", versioning.NewNotFoundError("no version 9"), "NOT_FOUND"},
		{"invalid_operation", versioning.NewInvalidOperationError("empty draft"), "INVALID_OPERATION"},
		{"conflict", versioning.NewConflictError("duplicate tag"), "CONFLICT"},
		{"active_not_set", versioning.NewActiveVersionNotSetError("no active version"), "ACTIVE_VERSION_NOT_SET"},
		{"wrapped_domain_error", fmt.Errorf("resolve: %w", versioning.NewNotFoundError("gone")), "NOT_FOUND"},
		{"infrastructure_error", errors.New("disk on fire"), StatusError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, statusOf(tt.err))
		})
	}
}

func TestPublisherID_Deterministic(t *testing.T) {
	a := publisherID("alice")
	b := publisherID("alice")
	c := publisherID("bob")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestArgumentError_Message(t *testing.T) {
	err := &ArgumentError{Op: OpRollback, Msg: "version is required"}
	assert.Equal(t, "rollback: version is required", err.Error())
}

func TestNewResult(t *testing.T) {
	result := NewResult()
	assert.True(t, result.Pass)
	assert.Empty(t, result.Trace)
	assert.Empty(t, result.Errors)
}

func TestResult_AddErrorMarksFailed(t *testing.T) {
	result := NewResult()
	result.AddError("something went sideways")

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "something went sideways", result.Errors[0])
}

// TestRunExampleScenarios executes every scenario file in
// testdata/scenarios against the real service.
func TestRunExampleScenarios(t *testing.T) {
	paths, err := FindScenarios("testdata/scenarios")
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		scenario, err := LoadScenario(path)
		require.NoError(t, err, "load %s", path)

		t.Run(scenario.Name, func(t *testing.T) {
			result, err := Run(scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
			assert.Empty(t, result.Errors)
		})
	}
}
