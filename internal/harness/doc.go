// Package harness provides scenario testing for the flow versioning
// engine.
//
// The harness loads YAML scenarios, drives the real versioning service
// against a fresh in-memory database, and validates the resulting
// operation trace and final state.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	flow:
//	  name: "Checkout"
//	  draft: { label: "start" }
//	setup:
//	  - op: publish
//	    args: { by: "alice" }
//	steps:
//	  - op: set_draft
//	    args: { data: { label: "updated" } }
//	  - op: publish
//	    args: { by: "alice", tag: "v2.0" }
//	    expect:
//	      status: ok
//	      result: { version_number: 2, is_active: true }
//	assertions:
//	  - type: active_version
//	    number: 2
//	  - type: trace_count
//	    op: publish
//	    count: 2
//
// # Operations
//
// Steps invoke versioning operations by name:
//
//   - set_draft: Overwrite the flow's draft document
//   - publish: Freeze the draft into a new version
//   - active: Read the active version
//   - set_active: Activate a version by identifier
//   - rollback: Roll the flow back to a version
//   - record_rollback: Increment a version's rollback counter
//   - draft_from: Restore the draft from a version snapshot
//   - compare: Diff two version snapshots
//   - record_execution: Fold one execution into version metrics
//   - annotate: Update a version's description and changelog
//   - history: Page through the version history
//
// Version identifiers accept every form the service resolves: a
// version number ("3" or "v3"), a version tag, or a version UUID.
//
// # Assertion Types
//
// The following assertion types are supported:
//
//   - trace_contains: Verifies an operation appears in the trace with matching args
//   - trace_order: Verifies operations appear in specified order
//   - trace_count: Verifies an operation appears exactly N times
//   - active_version: Verifies which version is active (or that none is)
//   - version_count: Verifies the number of published versions
//   - draft_state: Verifies fields of the flow's current draft document
//   - version_state: Verifies fields of a version read model
//   - version_metrics: Verifies a version's execution metric counters
//
// # Deterministic Testing
//
// All scenarios execute with a deterministic clock and ID sequence to
// ensure reproducible results and golden snapshot comparison.
//
// The harness uses:
//   - A frozen clock advanced one second per step (testutil.Clock)
//   - Sequential version and metadata IDs (testutil.IDSequence)
//   - Name-derived publisher IDs (UUIDv5 over the "by" argument)
//   - An in-memory SQLite database (isolated per scenario)
//
// This ensures identical traces across runs for golden file comparison.
//
// # Usage
//
// Load and run a scenario:
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/publish.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(scenario)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if !result.Pass {
//	    for _, msg := range result.Errors {
//	        log.Println(msg)
//	    }
//	}
package harness
