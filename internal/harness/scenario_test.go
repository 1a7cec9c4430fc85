package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeScenario writes scenario YAML to a temp file and returns its path.
func writeScenario(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadScenario_ValidFile(t *testing.T) {
	path := writeScenario(t, `
name: test_scenario
description: "Test scenario for validation"
flow:
  name: "Checkout"
  draft:
    label: "start"
steps:
  - op: publish
    args:
      by: "alice"
      tag: "v1.0"
assertions:
  - type: version_count
    count: 1
`)

	scenario, err := LoadScenario(path)
	require.NoError(t, err)

	assert.Equal(t, "test_scenario", scenario.Name)
	assert.Equal(t, "Test scenario for validation", scenario.Description)
	assert.Equal(t, "Checkout", scenario.Flow.Name)
	assert.Equal(t, "start", scenario.Flow.Draft["label"])
	assert.Len(t, scenario.Steps, 1)
	assert.Len(t, scenario.Assertions, 1)
	assert.Equal(t, OpPublish, scenario.Steps[0].Op)
	assert.Equal(t, "alice", scenario.Steps[0].Args["by"])
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario("/nonexistent/scenario.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_MissingName(t *testing.T) {
	path := writeScenario(t, `
description: "Missing name"
flow:
  name: "Checkout"
steps:
  - op: publish
assertions:
  - type: version_count
    count: 1
`)

	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name is required")
}

func TestLoadScenario_MissingDescription(t *testing.T) {
	path := writeScenario(t, `
name: test
flow:
  name: "Checkout"
steps:
  - op: publish
assertions:
  - type: version_count
    count: 1
`)

	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "description is required")
}

func TestLoadScenario_MissingFlowName(t *testing.T) {
	path := writeScenario(t, `
name: test
description: "Test"
flow:
  draft:
    label: "start"
steps:
  - op: publish
assertions:
  - type: version_count
    count: 1
`)

	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "flow.name is required")
}

func TestLoadScenario_MissingSteps(t *testing.T) {
	path := writeScenario(t, `
name: test
description: "Test"
flow:
  name: "Checkout"
steps: []
assertions:
  - type: version_count
    count: 1
`)

	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "steps list is required")
}

func TestLoadScenario_MissingAssertions(t *testing.T) {
	path := writeScenario(t, `
name: test
description: "Test"
flow:
  name: "Checkout"
steps:
  - op: publish
assertions: []
`)

	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "assertions list is required")
}

func TestLoadScenario_MalformedYAML(t *testing.T) {
	path := writeScenario(t, `
name: test
description: "Test"
steps:
  - invalid yaml structure
  unclosed: [bracket
`)

	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestLoadScenario_StepMissingOp(t *testing.T) {
	path := writeScenario(t, `
name: test
description: "Test"
flow:
  name: "Checkout"
steps:
  - args:
      by: "alice"
assertions:
  - type: version_count
    count: 1
`)

	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "steps[0]: op is required")
}

func TestLoadScenario_UnknownOperation(t *testing.T) {
	path := writeScenario(t, `
name: test
description: "Test"
flow:
  name: "Checkout"
steps:
  - op: teleport
assertions:
  - type: version_count
    count: 1
`)

	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown operation "teleport"`)
}

func TestLoadScenario_ExpectMissingStatus(t *testing.T) {
	path := writeScenario(t, `
name: test
description: "Test"
flow:
  name: "Checkout"
steps:
  - op: publish
    expect:
      result:
        version_number: 1
assertions:
  - type: version_count
    count: 1
`)

	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expect: status is required")
}

func TestLoadScenario_WithSetup(t *testing.T) {
	path := writeScenario(t, `
name: test
description: "Test with setup"
flow:
  name: "Checkout"
  draft:
    label: "start"
setup:
  - op: publish
    args:
      by: "alice"
      tag: "v1.0"
steps:
  - op: rollback
    args:
      version: "v1.0"
assertions:
  - type: active_version
    number: 1
`)

	scenario, err := LoadScenario(path)
	require.NoError(t, err)

	assert.Len(t, scenario.Setup, 1)
	assert.Equal(t, OpPublish, scenario.Setup[0].Op)
	assert.Equal(t, "v1.0", scenario.Setup[0].Args["tag"])
}

func TestLoadScenario_SetupUnknownOp(t *testing.T) {
	path := writeScenario(t, `
name: test
description: "Test"
flow:
  name: "Checkout"
setup:
  - op: teleport
steps:
  - op: publish
assertions:
  - type: version_count
    count: 1
`)

	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "setup[0]: unknown operation")
}

func TestLoadScenario_SetupMustExpectOK(t *testing.T) {
	// Setup establishes preconditions; expecting a failure there makes
	// the scenario incoherent.
	path := writeScenario(t, `
name: test
description: "Test"
flow:
  name: "Checkout"
setup:
  - op: publish
    expect:
      status: CONFLICT
steps:
  - op: active
assertions:
  - type: version_count
    count: 1
`)

	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `setup steps must expect status "ok"`)
}

func TestLoadScenario_WithExpectations(t *testing.T) {
	path := writeScenario(t, `
name: test
description: "Test with expectations"
flow:
  name: "Checkout"
  draft:
    label: "start"
steps:
  - op: publish
    args:
      by: "alice"
    expect:
      status: ok
      result:
        version_number: 1
        is_active: true
assertions:
  - type: active_version
    number: 1
`)

	scenario, err := LoadScenario(path)
	require.NoError(t, err)

	require.NotNil(t, scenario.Steps[0].Expect)
	assert.Equal(t, StatusOK, scenario.Steps[0].Expect.Status)
	assert.Equal(t, 1, scenario.Steps[0].Expect.Result["version_number"])
	assert.Equal(t, true, scenario.Steps[0].Expect.Result["is_active"])
}

func TestLoadScenario_AssertionTypes(t *testing.T) {
	tests := []struct {
		name          string
		assertionYAML string
		wantErr       string
	}{
		{
			name: "trace_contains_valid",
			assertionYAML: `
  - type: trace_contains
    op: publish
    args:
      by: "alice"
`,
			wantErr: "",
		},
		{
			name: "trace_contains_missing_op",
			assertionYAML: `
  - type: trace_contains
    args:
      by: "alice"
`,
			wantErr: "op is required for trace_contains",
		},
		{
			name: "trace_order_valid",
			assertionYAML: `
  - type: trace_order
    ops:
      - publish
      - rollback
`,
			wantErr: "",
		},
		{
			name: "trace_order_missing_ops",
			assertionYAML: `
  - type: trace_order
`,
			wantErr: "ops list is required for trace_order",
		},
		{
			name: "trace_count_valid",
			assertionYAML: `
  - type: trace_count
    op: publish
    count: 2
`,
			wantErr: "",
		},
		{
			name: "trace_count_zero_count",
			assertionYAML: `
  - type: trace_count
    op: rollback
    count: 0
`,
			// Count of 0 asserts the operation does not appear
			wantErr: "",
		},
		{
			name: "trace_count_negative_count",
			assertionYAML: `
  - type: trace_count
    op: publish
    count: -1
`,
			wantErr: "count must be non-negative for trace_count",
		},
		{
			name: "trace_count_missing_op",
			assertionYAML: `
  - type: trace_count
    count: 2
`,
			wantErr: "op is required for trace_count",
		},
		{
			name: "active_version_number_valid",
			assertionYAML: `
  - type: active_version
    number: 2
`,
			wantErr: "",
		},
		{
			name: "active_version_none_valid",
			assertionYAML: `
  - type: active_version
    none: true
`,
			wantErr: "",
		},
		{
			name: "active_version_neither",
			assertionYAML: `
  - type: active_version
`,
			wantErr: "active_version requires number or none",
		},
		{
			name: "active_version_both",
			assertionYAML: `
  - type: active_version
    number: 2
    none: true
`,
			wantErr: "active_version accepts number or none, not both",
		},
		{
			name: "version_count_valid",
			assertionYAML: `
  - type: version_count
    count: 0
`,
			wantErr: "",
		},
		{
			name: "version_count_negative",
			assertionYAML: `
  - type: version_count
    count: -3
`,
			wantErr: "count must be non-negative for version_count",
		},
		{
			name: "draft_state_valid",
			assertionYAML: `
  - type: draft_state
    expect:
      label: "start"
`,
			wantErr: "",
		},
		{
			name: "draft_state_missing_expect",
			assertionYAML: `
  - type: draft_state
`,
			wantErr: "expect is required for draft_state",
		},
		{
			name: "version_state_valid",
			assertionYAML: `
  - type: version_state
    version: "1"
    expect:
      is_active: true
`,
			wantErr: "",
		},
		{
			name: "version_state_missing_version",
			assertionYAML: `
  - type: version_state
    expect:
      is_active: true
`,
			wantErr: "version is required for version_state",
		},
		{
			name: "version_state_missing_expect",
			assertionYAML: `
  - type: version_state
    version: "1"
`,
			wantErr: "expect is required for version_state",
		},
		{
			name: "version_metrics_valid",
			assertionYAML: `
  - type: version_metrics
    version: "v1"
    expect:
      execution_count: 3
`,
			wantErr: "",
		},
		{
			name: "version_metrics_missing_version",
			assertionYAML: `
  - type: version_metrics
    expect:
      execution_count: 3
`,
			wantErr: "version is required for version_metrics",
		},
		{
			name: "version_metrics_missing_expect",
			assertionYAML: `
  - type: version_metrics
    version: "1"
`,
			wantErr: "expect is required for version_metrics",
		},
		{
			name: "unknown_type",
			assertionYAML: `
  - type: unknown_assertion
    op: publish
`,
			wantErr: "unknown assertion type",
		},
		{
			name: "missing_type",
			assertionYAML: `
  - op: publish
`,
			wantErr: "type is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			content := `
name: test
description: "Test"
flow:
  name: "Checkout"
steps:
  - op: publish
assertions:
` + tt.assertionYAML

			path := writeScenario(t, content)
			_, err := LoadScenario(path)

			if tt.wantErr == "" {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestLoadScenario_UnknownFieldsRejected(t *testing.T) {
	// YAML files with typos (unknown fields) should be rejected
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name: "typo_assertion_singular",
			yaml: `
name: test
description: Test typo
flow:
  name: "Checkout"
steps:
  - op: publish
assertion:
  - type: version_count
    count: 1
assertions:
  - type: version_count
    count: 1
`,
			wantErr: "field assertion not found",
		},
		{
			name: "typo_in_step",
			yaml: `
name: test
description: Test typo
flow:
  name: "Checkout"
steps:
  - operation: publish
assertions:
  - type: version_count
    count: 1
`,
			wantErr: "field operation not found",
		},
		{
			name: "unknown_top_level_field",
			yaml: `
name: test
description: Test typo
flow:
  name: "Checkout"
unknown_field: value
steps:
  - op: publish
assertions:
  - type: version_count
    count: 1
`,
			wantErr: "field unknown_field not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeScenario(t, tt.yaml)
			_, err := LoadScenario(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadScenario_NumericAndBooleanArgs(t *testing.T) {
	path := writeScenario(t, `
name: test
description: "Test with various arg types"
flow:
  name: "Notifier"
steps:
  - op: record_execution
    args:
      channel: "api"
      duration_ms: 150
      success: false
assertions:
  - type: version_count
    count: 1
`)

	scenario, err := LoadScenario(path)
	require.NoError(t, err)

	args := scenario.Steps[0].Args
	assert.Equal(t, "api", args["channel"])
	assert.Equal(t, 150, args["duration_ms"])
	assert.Equal(t, false, args["success"])
}

func TestLoadScenario_VersionRefsStayStrings(t *testing.T) {
	// Version identifiers are quoted in scenario files so YAML keeps
	// them as strings; the harness classifies the string form itself.
	path := writeScenario(t, `
name: test
description: "Quoted version refs"
flow:
  name: "Resolver"
steps:
  - op: set_active
    args:
      version: "2"
assertions:
  - type: active_version
    number: 2
`)

	scenario, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, "2", scenario.Steps[0].Args["version"])
}

func TestAssertionConstants(t *testing.T) {
	assert.Equal(t, "trace_contains", AssertTraceContains)
	assert.Equal(t, "trace_order", AssertTraceOrder)
	assert.Equal(t, "trace_count", AssertTraceCount)
	assert.Equal(t, "active_version", AssertActiveVersion)
	assert.Equal(t, "version_count", AssertVersionCount)
	assert.Equal(t, "draft_state", AssertDraftState)
	assert.Equal(t, "version_state", AssertVersionState)
	assert.Equal(t, "version_metrics", AssertVersionMetrics)
}

// TestLoadExampleScenarios validates the scenario files in
// testdata/scenarios. These serve as documentation and regression
// tests.
func TestLoadExampleScenarios(t *testing.T) {
	tests := []struct {
		name           string
		scenarioFile   string
		wantName       string
		wantSetupCount int
		wantStepCount  int
		wantAssertions int
	}{
		{
			name:           "publish_lifecycle",
			scenarioFile:   "testdata/scenarios/publish_lifecycle.yaml",
			wantName:       "publish_lifecycle",
			wantSetupCount: 1,
			wantStepCount:  4,
			wantAssertions: 5,
		},
		{
			name:           "empty_draft_rejected",
			scenarioFile:   "testdata/scenarios/empty_draft_rejected.yaml",
			wantName:       "empty_draft_rejected",
			wantSetupCount: 0,
			wantStepCount:  2,
			wantAssertions: 3,
		},
		{
			name:           "metrics_accumulation",
			scenarioFile:   "testdata/scenarios/metrics_accumulation.yaml",
			wantName:       "metrics_accumulation",
			wantSetupCount: 0,
			wantStepCount:  5,
			wantAssertions: 2,
		},
		{
			name:           "draft_restore",
			scenarioFile:   "testdata/scenarios/draft_restore.yaml",
			wantName:       "draft_restore",
			wantSetupCount: 0,
			wantStepCount:  5,
			wantAssertions: 3,
		},
		{
			name:           "identifier_forms",
			scenarioFile:   "testdata/scenarios/identifier_forms.yaml",
			wantName:       "identifier_forms",
			wantSetupCount: 0,
			wantStepCount:  7,
			wantAssertions: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scenario, err := LoadScenario(tt.scenarioFile)
			require.NoError(t, err, "Failed to load example scenario %s", tt.scenarioFile)

			assert.Equal(t, tt.wantName, scenario.Name)
			assert.Len(t, scenario.Setup, tt.wantSetupCount)
			assert.Len(t, scenario.Steps, tt.wantStepCount)
			assert.Len(t, scenario.Assertions, tt.wantAssertions)
		})
	}
}
