package versioning

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/flowvault/flowvault/internal/cache"
	"github.com/flowvault/flowvault/internal/document"
	"github.com/flowvault/flowvault/internal/flow"
	"github.com/flowvault/flowvault/internal/metrics"
	"github.com/flowvault/flowvault/internal/store"
)

// DefaultHistoryLimit caps history pages when the caller passes no
// limit.
const DefaultHistoryLimit = 50

// DraftValidator checks a draft document before it is frozen into a
// version. Implemented by schema.Guard (production) and test stubs.
type DraftValidator interface {
	Validate(doc document.Document) error
}

// Service is the flow versioning engine.
//
// It composes the store, the cache, and the diff engine into the
// version lifecycle: publish snapshots from the live draft, resolve
// versions by flexible identifiers, move the single active pointer,
// restore drafts, compare snapshots, and accumulate execution metrics.
//
// Thread-safety model:
//   - All methods are safe from any goroutine; SQLite serializes
//     writers under the store's transactions
//   - No internal locking; the UNIQUE constraints convert racing
//     publishers into Conflict errors
//   - Cache writes happen strictly after commit and never fail a call
type Service struct {
	store   *store.Store
	cache   *versionCache
	guard   DraftValidator
	metrics *metrics.Metrics
	log     *slog.Logger
	now     func() time.Time
	newID   func() uuid.UUID
}

// Option allows configuration of service parameters.
type Option func(*Service)

// WithCache attaches a cache backend for hot version lookups. Without
// it every read goes to the store.
func WithCache(c cache.Cache) Option {
	return func(s *Service) {
		s.cache.backend = c
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(log *slog.Logger) Option {
	return func(s *Service) {
		s.log = log
	}
}

// WithMetrics attaches Prometheus collectors. Without it the service
// records nothing.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithDraftValidator attaches a schema guard consulted before every
// publish.
func WithDraftValidator(v DraftValidator) Option {
	return func(s *Service) {
		s.guard = v
	}
}

// WithClock overrides the time source. Tests use a deterministic clock;
// production uses UTC wall time.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithIDGenerator overrides row ID generation. The default produces
// time-sortable UUIDv7 values.
func WithIDGenerator(gen func() uuid.UUID) Option {
	return func(s *Service) {
		s.newID = gen
	}
}

// New creates a Service over the given store.
func New(st *store.Store, opts ...Option) *Service {
	s := &Service{
		store: st,
		cache: &versionCache{},
		log:   slog.Default(),
		now:   func() time.Time { return time.Now().UTC() },
		newID: func() uuid.UUID { return uuid.Must(uuid.NewV7()) },
	}

	for _, opt := range opts {
		opt(s)
	}

	s.cache.log = s.log
	s.cache.metrics = s.metrics

	return s
}

// PublishOptions carries the optional annotations of a publish request.
type PublishOptions struct {
	// Description annotates the new version.
	Description *string

	// VersionTag names the version within its flow; must be unused.
	VersionTag *string

	// Changelog records what changed since the previous version.
	Changelog *string

	// CreatedFromVersionID links the version to the snapshot the draft
	// was restored from, if any.
	CreatedFromVersionID *uuid.UUID

	// Activate makes the new version the flow's active one.
	Activate bool
}

// DefaultPublishOptions returns the standard publish behavior:
// no annotations, activate immediately.
func DefaultPublishOptions() PublishOptions {
	return PublishOptions{Activate: true}
}

// Publish freezes the flow's current draft into a new immutable
// version.
//
// The version receives the next sequential number for the flow. A
// zeroed metadata row is created alongside it. The flow's bookkeeping
// (version_count, last_published_at) advances, and the draft stays
// live. The version is activated when requested, or when the flow has
// no active version yet.
//
// Fails with NotFound for an unknown flow, InvalidOperation for an
// empty or schema-invalid draft, and Conflict for a duplicate tag or a
// lost publish race.
func (s *Service) Publish(ctx context.Context, flowID, userID uuid.UUID, opts PublishOptions) (read *flow.VersionRead, err error) {
	defer s.observe("publish", time.Now(), &err)

	now := s.now()
	var (
		version      flow.Version
		meta         flow.VersionMetadata
		becameActive bool
	)

	err = s.store.WithTx(ctx, func(tx *store.Tx) error {
		f, err := tx.GetFlow(ctx, flowID)
		if errors.Is(err, sql.ErrNoRows) {
			return NewNotFoundError("flow %s not found", flowID)
		}
		if err != nil {
			return fmt.Errorf("load flow: %w", err)
		}

		if len(f.Data) == 0 {
			return NewInvalidOperationError("cannot publish a version from an empty draft")
		}
		if s.guard != nil {
			if verr := s.guard.Validate(f.Data); verr != nil {
				return &Error{
					Code:    ErrCodeInvalidOperation,
					Message: "draft failed schema validation",
					Err:     verr,
				}
			}
		}

		if opts.VersionTag != nil {
			taken, err := tx.VersionTagExists(ctx, flowID, *opts.VersionTag)
			if err != nil {
				return fmt.Errorf("check version tag: %w", err)
			}
			if taken {
				return NewConflictError("version tag %q already exists for this flow", *opts.VersionTag)
			}
		}

		number, err := tx.NextVersionNumber(ctx, flowID)
		if err != nil {
			return err
		}

		hash, err := document.Hash(f.Data)
		if err != nil {
			return fmt.Errorf("hash draft: %w", err)
		}

		version = flow.Version{
			ID:                   s.newID(),
			FlowID:               flowID,
			VersionNumber:        number,
			VersionTag:           opts.VersionTag,
			Snapshot:             f.Snapshot.Clone(),
			PublishedBy:          userID,
			PublishedAt:          now,
			DescriptionVersion:   opts.Description,
			Changelog:            opts.Changelog,
			CreatedFromVersionID: opts.CreatedFromVersionID,
			ParentFlowDataHash:   hash,
			CreatedAt:            now,
			UpdatedAt:            now,
		}
		if err := tx.InsertVersion(ctx, &version); err != nil {
			if store.IsUniqueViolation(err) {
				// Raced another publisher on number or tag
				return &Error{
					Code:    ErrCodeConflict,
					Message: fmt.Sprintf("publish of flow %s raced a concurrent publisher", flowID),
					Err:     err,
				}
			}
			return err
		}

		meta = flow.VersionMetadata{
			ID:                    s.newID(),
			VersionID:             version.ID,
			DeploymentEnvironment: flow.DefaultDeploymentEnvironment,
			CreatedAt:             now,
			UpdatedAt:             now,
		}
		if err := tx.InsertMetadata(ctx, &meta); err != nil {
			return err
		}

		if err := tx.MarkFlowPublished(ctx, flowID, now, now); err != nil {
			return err
		}

		activate := opts.Activate
		if !activate {
			// A flow with no active version activates its first publish
			_, err := tx.GetActiveVersion(ctx, flowID)
			switch {
			case errors.Is(err, sql.ErrNoRows):
				activate = true
			case err != nil:
				return fmt.Errorf("load active version: %w", err)
			}
		}
		if activate {
			if err := activateInTx(ctx, tx, flowID, &version, now); err != nil {
				return err
			}
			becameActive = true
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("published flow version",
		"flow_id", flowID,
		"version", version.VersionNumber,
		"version_id", version.ID,
		"active", becameActive,
	)

	r := flow.NewVersionRead(version, &meta)
	s.cache.invalidateActive(ctx, flowID)
	if becameActive {
		s.cache.putActive(ctx, flowID, &r)
	}
	s.cache.putVersion(ctx, &r)
	return &r, nil
}

// GetVersion resolves a version of the flow by flexible identifier: a
// version UUID, a version number ("3" or "v3"), or a tag.
//
// UUID lookups are scoped to the flow; an ID belonging to another flow
// is NotFound, never another flow's data.
func (s *Service) GetVersion(ctx context.Context, flowID uuid.UUID, identifier string) (read *flow.VersionRead, err error) {
	defer s.observe("get_version", time.Now(), &err)

	ref := flow.ParseRef(identifier)

	var rec store.VersionRecord
	switch ref.Kind {
	case flow.RefID:
		if cached := s.cache.getVersion(ctx, ref.ID); cached != nil && cached.FlowID == flowID {
			return cached, nil
		}
		rec, err = s.store.GetVersionForFlow(ctx, ref.ID, flowID)
	case flow.RefNumber:
		rec, err = s.store.GetVersionByNumber(ctx, flowID, ref.Number)
	default:
		rec, err = s.store.GetVersionByTag(ctx, flowID, ref.Tag)
	}
	if errors.Is(err, sql.ErrNoRows) {
		return nil, NewNotFoundError("version %q not found for flow %s", identifier, flowID)
	}
	if err != nil {
		return nil, fmt.Errorf("load version: %w", err)
	}

	r := flow.NewVersionRead(rec.Version, rec.Metadata)
	s.cache.putVersion(ctx, &r)
	return &r, nil
}

// GetActiveVersion returns the flow's active version, or (nil, nil)
// when the flow has none. A missing active version is a state, not an
// error.
func (s *Service) GetActiveVersion(ctx context.Context, flowID uuid.UUID) (read *flow.VersionRead, err error) {
	defer s.observe("get_active_version", time.Now(), &err)

	if cached := s.cache.getActive(ctx, flowID); cached != nil {
		return cached, nil
	}

	rec, err := s.store.GetActiveVersion(ctx, flowID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load active version: %w", err)
	}

	r := flow.NewVersionRead(rec.Version, rec.Metadata)
	s.cache.putActive(ctx, flowID, &r)
	s.cache.putVersion(ctx, &r)
	return &r, nil
}

// RequireActiveVersion is the strict variant of GetActiveVersion for
// callers that serve the flow: a flow without an active version is an
// ActiveVersionNotSet error instead of (nil, nil).
func (s *Service) RequireActiveVersion(ctx context.Context, flowID uuid.UUID) (*flow.VersionRead, error) {
	read, err := s.GetActiveVersion(ctx, flowID)
	if err != nil {
		return nil, err
	}
	if read == nil {
		return nil, NewActiveVersionNotSetError("flow %s has no active version", flowID)
	}
	return read, nil
}

// SetActiveVersion makes the given version the flow's single active
// one: every sibling is deactivated, the target activated, and the
// flow's pointer, publish timestamp, and draft flag updated, all in one
// transaction.
func (s *Service) SetActiveVersion(ctx context.Context, flowID, versionID uuid.UUID) (read *flow.VersionRead, err error) {
	defer s.observe("set_active_version", time.Now(), &err)
	return s.activate(ctx, flowID, versionID)
}

// RollbackToVersion repoints the flow at a previously published
// version. It never creates a new version; rollback is activation of an
// old snapshot. Use RecordRollback for the bookkeeping counter.
func (s *Service) RollbackToVersion(ctx context.Context, flowID, versionID uuid.UUID) (read *flow.VersionRead, err error) {
	defer s.observe("rollback", time.Now(), &err)

	read, err = s.activate(ctx, flowID, versionID)
	if err != nil {
		return nil, err
	}
	s.log.Info("rolled back flow",
		"flow_id", flowID,
		"version", read.VersionNumber,
		"version_id", versionID,
	)
	return read, nil
}

// activate runs the activation procedure for a version confirmed to
// belong to the flow, then refreshes both cache slots.
func (s *Service) activate(ctx context.Context, flowID, versionID uuid.UUID) (*flow.VersionRead, error) {
	now := s.now()
	var rec store.VersionRecord

	err := s.store.WithTx(ctx, func(tx *store.Tx) error {
		if _, err := tx.GetFlow(ctx, flowID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return NewNotFoundError("flow %s not found", flowID)
			}
			return fmt.Errorf("load flow: %w", err)
		}

		r, err := tx.GetVersionForFlow(ctx, versionID, flowID)
		if errors.Is(err, sql.ErrNoRows) {
			return NewNotFoundError("version %s not found for flow %s", versionID, flowID)
		}
		if err != nil {
			return fmt.Errorf("load version: %w", err)
		}

		if err := activateInTx(ctx, tx, flowID, &r.Version, now); err != nil {
			return err
		}
		rec = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("activated flow version",
		"flow_id", flowID,
		"version", rec.Version.VersionNumber,
		"version_id", versionID,
	)

	r := flow.NewVersionRead(rec.Version, rec.Metadata)
	s.cache.invalidateActive(ctx, flowID)
	s.cache.putActive(ctx, flowID, &r)
	s.cache.putVersion(ctx, &r)
	return &r, nil
}

// activateInTx is the shared activation procedure: one bulk deactivate,
// one targeted activate, one flow pointer update. Atomic under the
// surrounding transaction, which is what keeps at most one version
// active per flow under concurrent calls.
func activateInTx(ctx context.Context, tx *store.Tx, flowID uuid.UUID, target *flow.Version, now time.Time) error {
	if err := tx.DeactivateOtherVersions(ctx, flowID, target.ID, now); err != nil {
		return err
	}
	if err := tx.ActivateVersion(ctx, target.ID, now); err != nil {
		return err
	}
	if err := tx.SetFlowActivePointer(ctx, flowID, target.ID, target.PublishedAt, now); err != nil {
		return err
	}
	target.IsActive = true
	target.UpdatedAt = now
	return nil
}

// GetVersionHistory returns a page of the flow's version summaries,
// newest first. A non-positive limit falls back to DefaultHistoryLimit.
func (s *Service) GetVersionHistory(ctx context.Context, flowID uuid.UUID, limit, offset int) (summaries []flow.VersionSummary, err error) {
	defer s.observe("get_history", time.Now(), &err)

	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if offset < 0 {
		offset = 0
	}

	records, err := s.store.ListVersions(ctx, flowID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}

	summaries = make([]flow.VersionSummary, 0, len(records))
	for _, rec := range records {
		summaries = append(summaries, flow.NewVersionSummary(rec.Version, rec.Metadata))
	}
	return summaries, nil
}

// CreateDraftFromVersion overwrites the flow's live draft with the
// chosen version's snapshot: document content plus display metadata.
// The active pointer and version flags are untouched; the flow returns
// to draft mode. Returns the restored draft document.
func (s *Service) CreateDraftFromVersion(ctx context.Context, flowID, versionID uuid.UUID) (draft document.Document, err error) {
	defer s.observe("create_draft", time.Now(), &err)

	now := s.now()

	err = s.store.WithTx(ctx, func(tx *store.Tx) error {
		if _, err := tx.GetFlow(ctx, flowID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return NewNotFoundError("flow %s not found", flowID)
			}
			return fmt.Errorf("load flow: %w", err)
		}

		rec, err := tx.GetVersionForFlow(ctx, versionID, flowID)
		if errors.Is(err, sql.ErrNoRows) {
			return NewNotFoundError("version %s not found for flow %s", versionID, flowID)
		}
		if err != nil {
			return fmt.Errorf("load version: %w", err)
		}

		snap := rec.Version.Snapshot.Clone()
		if err := tx.RestoreFlowDraft(ctx, flowID, snap, now); err != nil {
			return err
		}
		draft = snap.Data
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("restored draft from version",
		"flow_id", flowID,
		"version_id", versionID,
	)
	return draft, nil
}

// CompareVersions structurally diffs two version snapshots. Both
// versions must exist; they may belong to different flows. The summary
// counts changed leaf paths.
func (s *Service) CompareVersions(ctx context.Context, versionAID, versionBID uuid.UUID) (result *flow.ComparisonResult, err error) {
	defer s.observe("compare", time.Now(), &err)

	records, err := s.store.GetVersionsByIDs(ctx, []uuid.UUID{versionAID, versionBID})
	if err != nil {
		return nil, fmt.Errorf("load versions: %w", err)
	}

	byID := make(map[uuid.UUID]store.VersionRecord, len(records))
	for _, rec := range records {
		byID[rec.Version.ID] = rec
	}
	recA, okA := byID[versionAID]
	recB, okB := byID[versionBID]
	if !okA || !okB {
		return nil, NewNotFoundError("both versions must exist for comparison: %s, %s", versionAID, versionBID)
	}

	diff := document.Compare(recA.Version.Data, recB.Version.Data)
	return &flow.ComparisonResult{
		VersionA:    flow.NewVersionRead(recA.Version, recA.Metadata),
		VersionB:    flow.NewVersionRead(recB.Version, recB.Metadata),
		Differences: diff,
		Summary:     fmt.Sprintf("%d changes detected", diff.ChangeCount()),
	}, nil
}

// GetFlowWithVersions returns the aggregate view of a flow: summary
// fields, full version history with metrics, the active version detail,
// and a copy of the current draft content.
func (s *Service) GetFlowWithVersions(ctx context.Context, flowID uuid.UUID) (view *flow.FlowWithVersions, err error) {
	defer s.observe("get_flow_with_versions", time.Now(), &err)

	f, err := s.store.GetFlow(ctx, flowID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, NewNotFoundError("flow %s not found", flowID)
	}
	if err != nil {
		return nil, fmt.Errorf("load flow: %w", err)
	}

	// SQLite treats a negative LIMIT as unbounded
	records, err := s.store.ListVersions(ctx, flowID, -1, 0)
	if err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}

	view = &flow.FlowWithVersions{
		ID:              f.ID,
		Name:            f.Name,
		Description:     f.Description,
		IsDraft:         f.IsDraft,
		ActiveVersionID: f.ActiveVersionID,
		VersionCount:    f.VersionCount,
		LastPublishedAt: f.LastPublishedAt,
		Versions:        make([]flow.VersionSummary, 0, len(records)),
		DraftData:       document.Clone(f.Data),
	}
	for _, rec := range records {
		view.Versions = append(view.Versions, flow.NewVersionSummary(rec.Version, rec.Metadata))
		if rec.Version.IsActive {
			active := flow.NewVersionRead(rec.Version, rec.Metadata)
			view.ActiveVersion = &active
		}
	}
	return view, nil
}

// RecordExecutionMetrics folds one execution into the version's
// metadata: counters, rolling average, last-executed timestamps, and
// the per-channel counter chosen by the channel name. An unrecognized
// channel updates no channel counter and is not an error. The metadata
// row is created on first use.
func (s *Service) RecordExecutionMetrics(ctx context.Context, versionID uuid.UUID, elapsedMS int64, success bool, channel string) (err error) {
	defer s.observe("record_metrics", time.Now(), &err)

	now := s.now()
	var (
		version flow.Version
		updated flow.VersionMetadata
	)

	err = s.store.WithTx(ctx, func(tx *store.Tx) error {
		rec, err := tx.GetVersion(ctx, versionID)
		if errors.Is(err, sql.ErrNoRows) {
			return NewNotFoundError("version %s not found", versionID)
		}
		if err != nil {
			return fmt.Errorf("load version: %w", err)
		}
		version = rec.Version

		var meta flow.VersionMetadata
		create := rec.Metadata == nil
		if create {
			meta = flow.VersionMetadata{
				ID:                    s.newID(),
				VersionID:             versionID,
				DeploymentEnvironment: flow.DefaultDeploymentEnvironment,
				CreatedAt:             now,
			}
		} else {
			meta = *rec.Metadata
		}

		meta.ExecutionCount++
		meta.TotalExecutionTimeMS += elapsedMS
		avg := float64(meta.TotalExecutionTimeMS) / float64(meta.ExecutionCount)
		meta.AvgExecutionTimeMS = &avg
		execAt := now
		meta.LastExecutedAt = &execAt
		if !success {
			meta.ErrorCount++
			errAt := now
			meta.LastErrorAt = &errAt
		}
		switch strings.ToLower(channel) {
		case "api":
			meta.APIExecutions++
		case "mcp":
			meta.MCPExecutions++
		case "public", "public_flow":
			meta.PublicExecutions++
		case "webhook":
			meta.WebhookExecutions++
		}
		meta.UpdatedAt = now

		if create {
			if err := tx.InsertMetadata(ctx, &meta); err != nil {
				return err
			}
		} else if err := tx.UpdateMetadata(ctx, &meta); err != nil {
			return err
		}
		updated = meta
		return nil
	})
	if err != nil {
		return err
	}

	r := flow.NewVersionRead(version, &updated)
	s.cache.putVersion(ctx, &r)
	if version.IsActive {
		s.cache.putActive(ctx, version.FlowID, &r)
	}
	return nil
}

// GetVersionMetrics returns the metrics read model for a version.
// NotFound when the version has no metadata row.
func (s *Service) GetVersionMetrics(ctx context.Context, versionID uuid.UUID) (m *flow.VersionMetrics, err error) {
	defer s.observe("get_metrics", time.Now(), &err)

	meta, err := s.store.GetMetadataByVersion(ctx, versionID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, NewNotFoundError("no metrics recorded for version %s", versionID)
	}
	if err != nil {
		return nil, fmt.Errorf("load metadata: %w", err)
	}

	vm := flow.NewVersionMetrics(meta)
	return &vm, nil
}

// RecordRollback increments the version's rollback counter, creating
// the metadata row when absent. Kept separate from RollbackToVersion so
// repointing stays free of bookkeeping.
func (s *Service) RecordRollback(ctx context.Context, versionID uuid.UUID) (err error) {
	defer s.observe("record_rollback", time.Now(), &err)

	now := s.now()
	return s.store.WithTx(ctx, func(tx *store.Tx) error {
		if _, err := tx.GetVersion(ctx, versionID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return NewNotFoundError("version %s not found", versionID)
			}
			return fmt.Errorf("load version: %w", err)
		}

		meta, err := tx.GetMetadataByVersion(ctx, versionID)
		if errors.Is(err, sql.ErrNoRows) {
			meta = flow.VersionMetadata{
				ID:                    s.newID(),
				VersionID:             versionID,
				DeploymentEnvironment: flow.DefaultDeploymentEnvironment,
				RollbackCount:         1,
				CreatedAt:             now,
				UpdatedAt:             now,
			}
			return tx.InsertMetadata(ctx, &meta)
		}
		if err != nil {
			return fmt.Errorf("load metadata: %w", err)
		}

		meta.RollbackCount++
		meta.UpdatedAt = now
		return tx.UpdateMetadata(ctx, &meta)
	})
}

// UpdateVersionAnnotations changes the two fields that stay mutable
// after publish: the version description and the changelog. Nil fields
// keep their values. The snapshot itself never changes.
func (s *Service) UpdateVersionAnnotations(ctx context.Context, flowID, versionID uuid.UUID, upd flow.VersionUpdate) (read *flow.VersionRead, err error) {
	defer s.observe("update_annotations", time.Now(), &err)

	now := s.now()
	var rec store.VersionRecord

	err = s.store.WithTx(ctx, func(tx *store.Tx) error {
		r, err := tx.GetVersionForFlow(ctx, versionID, flowID)
		if errors.Is(err, sql.ErrNoRows) {
			return NewNotFoundError("version %s not found for flow %s", versionID, flowID)
		}
		if err != nil {
			return fmt.Errorf("load version: %w", err)
		}

		if err := tx.UpdateVersionAnnotations(ctx, versionID, upd, now); err != nil {
			return err
		}
		if upd.DescriptionVersion != nil {
			r.Version.DescriptionVersion = upd.DescriptionVersion
		}
		if upd.Changelog != nil {
			r.Version.Changelog = upd.Changelog
		}
		r.Version.UpdatedAt = now
		rec = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	r := flow.NewVersionRead(rec.Version, rec.Metadata)
	s.cache.putVersion(ctx, &r)
	if rec.Version.IsActive {
		s.cache.putActive(ctx, flowID, &r)
	}
	return &r, nil
}

// observe records the operation outcome for instrumentation.
func (s *Service) observe(op string, start time.Time, errp *error) {
	status := "ok"
	if *errp != nil {
		status = "error"
	}
	s.metrics.RecordOperation(op, status, time.Since(start))
}
