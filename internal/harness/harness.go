package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/flowvault/flowvault/internal/cache"
	"github.com/flowvault/flowvault/internal/document"
	"github.com/flowvault/flowvault/internal/flow"
	"github.com/flowvault/flowvault/internal/store"
	"github.com/flowvault/flowvault/internal/testutil"
	"github.com/flowvault/flowvault/internal/versioning"
)

// Step status values recorded in the trace.
const (
	// StatusOK marks a successful operation.
	StatusOK = "ok"

	// StatusError marks a failure outside the versioning error
	// taxonomy (an infrastructure fault, not a domain outcome).
	StatusError = "ERROR"
)

// Operation names accepted in scenario steps.
const (
	OpSetDraft        = "set_draft"
	OpPublish         = "publish"
	OpActive          = "active"
	OpSetActive       = "set_active"
	OpRollback        = "rollback"
	OpRecordRollback  = "record_rollback"
	OpDraftFrom       = "draft_from"
	OpCompare         = "compare"
	OpRecordExecution = "record_execution"
	OpAnnotate        = "annotate"
	OpHistory         = "history"
)

// knownOp reports whether op names a supported operation.
func knownOp(op string) bool {
	switch op {
	case OpSetDraft, OpPublish, OpActive, OpSetActive, OpRollback,
		OpRecordRollback, OpDraftFrom, OpCompare, OpRecordExecution,
		OpAnnotate, OpHistory:
		return true
	}
	return false
}

// scenarioEpoch is the instant every scenario clock starts at. The
// clock advances one second per executed step, so every timestamp a
// scenario produces is exactly predictable.
var scenarioEpoch = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// ArgumentError reports a malformed step argument. It fails the run
// rather than the step: a scenario that cannot express its own
// arguments is broken, not failing.
type ArgumentError struct {
	Op  string
	Msg string
}

// Error implements the error interface.
func (e *ArgumentError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Msg)
}

// Harness executes one scenario against a real versioning service.
// Every scenario gets a fresh in-memory database, a frozen clock, and
// a sequential ID generator, so repeated runs produce identical traces.
type Harness struct {
	service *versioning.Service
	store   *store.Store
	clock   *testutil.Clock
	flowID  uuid.UUID
	seq     int64
	log     *slog.Logger
}

// Run executes a test scenario and returns the result.
//
// Execution flow:
//  1. Create a fresh in-memory database and service
//  2. Create the flow fixture
//  3. Execute setup steps (all must succeed)
//  4. Execute main steps with expect validation
//  5. Evaluate assertions against the trace and final state
//
// Run returns an error only for harness-level failures (a broken
// fixture or malformed arguments); operation failures are traced and
// reported through the result.
func Run(scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	clock := testutil.NewClock(scenarioEpoch)
	ids := testutil.NewIDSequence()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil)) // Suppress logs in tests

	svc := versioning.New(st,
		versioning.WithCache(cache.NewMemory()),
		versioning.WithClock(clock.Now),
		versioning.WithIDGenerator(ids.Next),
		versioning.WithLogger(logger),
	)

	h := &Harness{
		service: svc,
		store:   st,
		clock:   clock,
		log:     logger,
	}

	ctx := context.Background()
	if err := h.createFixture(ctx, scenario.Flow, ids); err != nil {
		return nil, fmt.Errorf("failed to create flow fixture: %w", err)
	}

	result := NewResult()
	if err := h.executeSetup(ctx, scenario.Setup, result); err != nil {
		return nil, fmt.Errorf("failed to execute setup: %w", err)
	}

	if err := h.executeSteps(ctx, scenario.Steps, result); err != nil {
		return nil, fmt.Errorf("failed to execute steps: %w", err)
	}

	actx := &AssertionContext{
		Ctx:     ctx,
		Service: svc,
		Store:   st,
		FlowID:  h.flowID,
	}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}

	return result, nil
}

// createFixture creates the flow under test.
func (h *Harness) createFixture(ctx context.Context, fixture FlowFixture, ids *testutil.IDSequence) error {
	now := h.clock.Now()

	draft := document.Document{}
	if fixture.Draft != nil {
		draft = document.Document(fixture.Draft)
	}
	tags := fixture.Tags
	if tags == nil {
		tags = []string{}
	}

	f := flow.Flow{
		ID: ids.Next(),
		Snapshot: flow.Snapshot{
			Name:       fixture.Name,
			Data:       draft,
			Tags:       tags,
			AccessType: flow.AccessPrivate,
		},
		IsDraft:   true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if fixture.Description != "" {
		desc := fixture.Description
		f.Description = &desc
	}

	if err := h.store.CreateFlow(ctx, &f); err != nil {
		return err
	}
	h.flowID = f.ID
	return nil
}

// executeSetup runs all setup steps. Setup establishes initial state
// and must succeed; a failing setup step aborts the run.
func (h *Harness) executeSetup(ctx context.Context, setup []Step, result *Result) error {
	for i, step := range setup {
		ev, err := h.executeStep(ctx, step)
		if err != nil {
			return fmt.Errorf("setup step %d: %w", i, err)
		}
		result.AddEvent(ev)
		if ev.Status != StatusOK {
			return fmt.Errorf("setup step %d (%s) failed with status %s", i, step.Op, ev.Status)
		}
	}
	return nil
}

// executeSteps runs the main steps and validates expect clauses.
// Operation failures become trace statuses; only a status or result
// that contradicts the step's expect clause fails the scenario.
func (h *Harness) executeSteps(ctx context.Context, steps []Step, result *Result) error {
	for i, step := range steps {
		ev, err := h.executeStep(ctx, step)
		if err != nil {
			return fmt.Errorf("step %d: %w", i, err)
		}
		result.AddEvent(ev)

		if step.Expect == nil {
			continue
		}
		if ev.Status != step.Expect.Status {
			result.AddError(fmt.Sprintf(
				"steps[%d] %s: expected status %q, got %q",
				i, step.Op, step.Expect.Status, ev.Status))
			continue
		}
		for _, mismatch := range matchFields(step.Expect.Result, ev.Result) {
			result.AddError(fmt.Sprintf("steps[%d] %s: %s", i, step.Op, mismatch))
		}
	}
	return nil
}

// executeStep invokes one operation and folds its outcome into a trace
// event. The clock advances one second afterwards so consecutive steps
// never share a timestamp.
func (h *Harness) executeStep(ctx context.Context, step Step) (TraceEvent, error) {
	h.seq++
	ev := TraceEvent{
		Seq:  h.seq,
		Op:   step.Op,
		Args: step.Args,
	}

	res, err := h.invoke(ctx, step)
	var argErr *ArgumentError
	if errors.As(err, &argErr) {
		return TraceEvent{}, argErr
	}

	ev.Status = statusOf(err)
	if err == nil {
		ev.Result = res
	}
	h.log.Info("step executed", "op", step.Op, "seq", ev.Seq, "status", ev.Status)

	h.clock.Advance(time.Second)
	return ev, nil
}

// statusOf maps an operation error to its trace status.
func statusOf(err error) string {
	if err == nil {
		return StatusOK
	}
	var verr *versioning.Error
	if errors.As(err, &verr) {
		return string(verr.Code)
	}
	return StatusError
}

// invoke dispatches a step to its operation handler.
func (h *Harness) invoke(ctx context.Context, step Step) (map[string]any, error) {
	switch step.Op {
	case OpSetDraft:
		return h.opSetDraft(ctx, step.Args)
	case OpPublish:
		return h.opPublish(ctx, step.Args)
	case OpActive:
		return h.opActive(ctx)
	case OpSetActive:
		return h.opSetActive(ctx, step.Args)
	case OpRollback:
		return h.opRollback(ctx, step.Args)
	case OpRecordRollback:
		return h.opRecordRollback(ctx, step.Args)
	case OpDraftFrom:
		return h.opDraftFrom(ctx, step.Args)
	case OpCompare:
		return h.opCompare(ctx, step.Args)
	case OpRecordExecution:
		return h.opRecordExecution(ctx, step.Args)
	case OpAnnotate:
		return h.opAnnotate(ctx, step.Args)
	case OpHistory:
		return h.opHistory(ctx, step.Args)
	default:
		// Unreachable for validated scenarios
		return nil, &ArgumentError{Op: step.Op, Msg: "unknown operation"}
	}
}

func (h *Harness) opSetDraft(ctx context.Context, args map[string]any) (map[string]any, error) {
	data, err := requireMap(OpSetDraft, args, "data")
	if err != nil {
		return nil, err
	}
	if err := h.store.SaveFlowDraft(ctx, h.flowID, document.Document(data), h.clock.Now()); err != nil {
		return nil, err
	}
	return nil, nil
}

func (h *Harness) opPublish(ctx context.Context, args map[string]any) (map[string]any, error) {
	by, err := stringDefault(OpPublish, args, "by", "publisher")
	if err != nil {
		return nil, err
	}

	opts := versioning.DefaultPublishOptions()
	if tag, ok, err := stringArg(OpPublish, args, "tag"); err != nil {
		return nil, err
	} else if ok {
		opts.VersionTag = &tag
	}
	if desc, ok, err := stringArg(OpPublish, args, "description"); err != nil {
		return nil, err
	} else if ok {
		opts.Description = &desc
	}
	if cl, ok, err := stringArg(OpPublish, args, "changelog"); err != nil {
		return nil, err
	} else if ok {
		opts.Changelog = &cl
	}
	if activate, ok, err := boolArg(OpPublish, args, "activate"); err != nil {
		return nil, err
	} else if ok {
		opts.Activate = activate
	}
	if from, ok, err := stringArg(OpPublish, args, "from"); err != nil {
		return nil, err
	} else if ok {
		source, err := h.service.GetVersion(ctx, h.flowID, from)
		if err != nil {
			return nil, err
		}
		id := source.ID
		opts.CreatedFromVersionID = &id
	}

	read, err := h.service.Publish(ctx, h.flowID, publisherID(by), opts)
	if err != nil {
		return nil, err
	}
	return versionResult(read), nil
}

func (h *Harness) opActive(ctx context.Context) (map[string]any, error) {
	read, err := h.service.GetActiveVersion(ctx, h.flowID)
	if err != nil {
		return nil, err
	}
	if read == nil {
		return map[string]any{"none": true}, nil
	}
	return versionResult(read), nil
}

func (h *Harness) opSetActive(ctx context.Context, args map[string]any) (map[string]any, error) {
	read, err := h.resolveVersion(ctx, OpSetActive, args)
	if err != nil {
		return nil, err
	}
	activated, err := h.service.SetActiveVersion(ctx, h.flowID, read.ID)
	if err != nil {
		return nil, err
	}
	return versionResult(activated), nil
}

func (h *Harness) opRollback(ctx context.Context, args map[string]any) (map[string]any, error) {
	read, err := h.resolveVersion(ctx, OpRollback, args)
	if err != nil {
		return nil, err
	}
	activated, err := h.service.RollbackToVersion(ctx, h.flowID, read.ID)
	if err != nil {
		return nil, err
	}
	return versionResult(activated), nil
}

func (h *Harness) opRecordRollback(ctx context.Context, args map[string]any) (map[string]any, error) {
	read, err := h.resolveVersion(ctx, OpRecordRollback, args)
	if err != nil {
		return nil, err
	}
	if err := h.service.RecordRollback(ctx, read.ID); err != nil {
		return nil, err
	}
	return nil, nil
}

func (h *Harness) opDraftFrom(ctx context.Context, args map[string]any) (map[string]any, error) {
	read, err := h.resolveVersion(ctx, OpDraftFrom, args)
	if err != nil {
		return nil, err
	}
	if _, err := h.service.CreateDraftFromVersion(ctx, h.flowID, read.ID); err != nil {
		return nil, err
	}
	return map[string]any{"version_number": read.VersionNumber}, nil
}

func (h *Harness) opCompare(ctx context.Context, args map[string]any) (map[string]any, error) {
	fromRef, err := requireString(OpCompare, args, "from")
	if err != nil {
		return nil, err
	}
	toRef, err := requireString(OpCompare, args, "to")
	if err != nil {
		return nil, err
	}

	from, err := h.service.GetVersion(ctx, h.flowID, fromRef)
	if err != nil {
		return nil, err
	}
	to, err := h.service.GetVersion(ctx, h.flowID, toRef)
	if err != nil {
		return nil, err
	}

	cmp, err := h.service.CompareVersions(ctx, from.ID, to.ID)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"changes": cmp.Differences.ChangeCount(),
		"summary": cmp.Summary,
	}, nil
}

func (h *Harness) opRecordExecution(ctx context.Context, args map[string]any) (map[string]any, error) {
	var versionID uuid.UUID
	if ref, ok, err := stringArg(OpRecordExecution, args, "version"); err != nil {
		return nil, err
	} else if ok {
		read, err := h.service.GetVersion(ctx, h.flowID, ref)
		if err != nil {
			return nil, err
		}
		versionID = read.ID
	} else {
		// Default to the active version, as a live executor would
		read, err := h.service.RequireActiveVersion(ctx, h.flowID)
		if err != nil {
			return nil, err
		}
		versionID = read.ID
	}

	channel, err := stringDefault(OpRecordExecution, args, "channel", "")
	if err != nil {
		return nil, err
	}
	duration, err := intDefault(OpRecordExecution, args, "duration_ms", 0)
	if err != nil {
		return nil, err
	}
	success := true
	if v, ok, err := boolArg(OpRecordExecution, args, "success"); err != nil {
		return nil, err
	} else if ok {
		success = v
	}

	if err := h.service.RecordExecutionMetrics(ctx, versionID, duration, success, channel); err != nil {
		return nil, err
	}
	return nil, nil
}

func (h *Harness) opAnnotate(ctx context.Context, args map[string]any) (map[string]any, error) {
	read, err := h.resolveVersion(ctx, OpAnnotate, args)
	if err != nil {
		return nil, err
	}

	var upd flow.VersionUpdate
	if desc, ok, err := stringArg(OpAnnotate, args, "description"); err != nil {
		return nil, err
	} else if ok {
		upd.DescriptionVersion = &desc
	}
	if cl, ok, err := stringArg(OpAnnotate, args, "changelog"); err != nil {
		return nil, err
	} else if ok {
		upd.Changelog = &cl
	}

	updated, err := h.service.UpdateVersionAnnotations(ctx, h.flowID, read.ID, upd)
	if err != nil {
		return nil, err
	}
	return map[string]any{"version_number": updated.VersionNumber}, nil
}

func (h *Harness) opHistory(ctx context.Context, args map[string]any) (map[string]any, error) {
	limit, err := intDefault(OpHistory, args, "limit", 0)
	if err != nil {
		return nil, err
	}
	offset, err := intDefault(OpHistory, args, "offset", 0)
	if err != nil {
		return nil, err
	}

	summaries, err := h.service.GetVersionHistory(ctx, h.flowID, int(limit), int(offset))
	if err != nil {
		return nil, err
	}

	numbers := make([]any, len(summaries))
	for i, s := range summaries {
		numbers[i] = s.VersionNumber
	}
	return map[string]any{
		"count":   len(summaries),
		"numbers": numbers,
	}, nil
}

// resolveVersion resolves the step's "version" argument through the
// service's flexible identifier lookup.
func (h *Harness) resolveVersion(ctx context.Context, op string, args map[string]any) (*flow.VersionRead, error) {
	ref, err := requireString(op, args, "version")
	if err != nil {
		return nil, err
	}
	return h.service.GetVersion(ctx, h.flowID, ref)
}

// versionResult summarizes a version read for the trace. Only stable
// scalar fields appear, so golden files stay byte-identical.
func versionResult(read *flow.VersionRead) map[string]any {
	m := map[string]any{
		"version_number": read.VersionNumber,
		"is_active":      read.IsActive,
	}
	if read.VersionTag != nil {
		m["version_tag"] = *read.VersionTag
	}
	return m
}

// publisherID derives a deterministic user ID from a publisher name.
func publisherID(name string) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(name))
}

// stringArg extracts an optional string argument.
func stringArg(op string, args map[string]any, key string) (string, bool, error) {
	v, ok := args[key]
	if !ok {
		return "", false, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", false, &ArgumentError{Op: op, Msg: fmt.Sprintf("%s must be a string, got %T", key, v)}
	}
	return s, true, nil
}

// requireString extracts a mandatory string argument.
func requireString(op string, args map[string]any, key string) (string, error) {
	s, ok, err := stringArg(op, args, key)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", &ArgumentError{Op: op, Msg: key + " is required"}
	}
	return s, nil
}

// stringDefault extracts a string argument, falling back to def.
func stringDefault(op string, args map[string]any, key, def string) (string, error) {
	s, ok, err := stringArg(op, args, key)
	if err != nil {
		return "", err
	}
	if !ok {
		return def, nil
	}
	return s, nil
}

// boolArg extracts an optional bool argument.
func boolArg(op string, args map[string]any, key string) (bool, bool, error) {
	v, ok := args[key]
	if !ok {
		return false, false, nil
	}
	b, ok := v.(bool)
	if !ok {
		return false, false, &ArgumentError{Op: op, Msg: fmt.Sprintf("%s must be a bool, got %T", key, v)}
	}
	return b, true, nil
}

// intDefault extracts an integer argument, falling back to def.
// YAML integers decode as int; int64 is accepted for programmatic
// scenarios.
func intDefault(op string, args map[string]any, key string, def int64) (int64, error) {
	v, ok := args[key]
	if !ok {
		return def, nil
	}
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int64:
		return n, nil
	default:
		return 0, &ArgumentError{Op: op, Msg: fmt.Sprintf("%s must be an integer, got %T", key, v)}
	}
}

// requireMap extracts a mandatory mapping argument.
func requireMap(op string, args map[string]any, key string) (map[string]any, error) {
	v, ok := args[key]
	if !ok {
		return nil, &ArgumentError{Op: op, Msg: key + " is required"}
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, &ArgumentError{Op: op, Msg: fmt.Sprintf("%s must be a mapping, got %T", key, v)}
	}
	return m, nil
}
