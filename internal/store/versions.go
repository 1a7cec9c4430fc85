package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/flowvault/flowvault/internal/flow"
)

// VersionRecord pairs a version row with its metadata row. Metadata is
// nil when no metadata row exists for the version.
type VersionRecord struct {
	Version  flow.Version
	Metadata *flow.VersionMetadata
}

// versionColumns is the canonical aliased column list for version
// queries; scanVersionRecord depends on this exact order. Every version
// read LEFT JOINs metadata so callers always get the full record.
const versionColumns = `v.id, v.flow_id, v.version_number, v.version_tag, v.name,
		v.description, v.data, v.icon, v.icon_bg_color, v.gradient,
		v.endpoint_name, v.tags, v.mcp_enabled, v.run_in_background,
		v.action_name, v.action_description, v.access_type, v.is_active,
		v.published_by, v.published_at, v.description_version, v.changelog,
		v.created_from_version_id, v.parent_flow_data_hash, v.created_at,
		v.updated_at,
		m.id, m.version_id, m.execution_count, m.last_executed_at,
		m.total_execution_time_ms, m.avg_execution_time_ms, m.error_count,
		m.last_error_at, m.api_executions, m.mcp_executions,
		m.public_executions, m.webhook_executions, m.deployment_environment,
		m.rollback_count, m.created_at, m.updated_at`

const versionFrom = `FROM flow_versions v
		LEFT JOIN version_metadata m ON m.version_id = v.id`

// NextVersionNumber computes the next version number for a flow:
// 1 + the current maximum, 1 when the flow has no versions. Runs inside
// the same transaction as the subsequent insert; the UNIQUE constraint
// on (flow_id, version_number) backstops racing publishers.
func (t *Tx) NextVersionNumber(ctx context.Context, flowID uuid.UUID) (int, error) {
	var next int
	err := t.tx.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(version_number), 0) + 1
		FROM flow_versions
		WHERE flow_id = ?
	`, flowID).Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("next version number: %w", err)
	}
	return next, nil
}

// VersionTagExists checks whether a flow already has a version with the
// given tag.
func (t *Tx) VersionTagExists(ctx context.Context, flowID uuid.UUID, tag string) (bool, error) {
	var count int
	err := t.tx.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM flow_versions
		WHERE flow_id = ? AND version_tag = ?
	`, flowID, tag).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check version tag: %w", err)
	}
	return count > 0, nil
}

// InsertVersion inserts a version row.
// UNIQUE violations on (flow_id, version_number) or (flow_id,
// version_tag) are returned unmapped; use IsUniqueViolation to detect
// them.
func (t *Tx) InsertVersion(ctx context.Context, v *flow.Version) error {
	dataJSON, err := marshalDocument(v.Data)
	if err != nil {
		return fmt.Errorf("insert version: %w", err)
	}
	tagsJSON, err := marshalTags(v.Tags)
	if err != nil {
		return fmt.Errorf("insert version: %w", err)
	}

	_, err = t.tx.ExecContext(ctx, `
		INSERT INTO flow_versions
		(id, flow_id, version_number, version_tag, name, description, data,
		 icon, icon_bg_color, gradient, endpoint_name, tags, mcp_enabled,
		 run_in_background, action_name, action_description, access_type,
		 is_active, published_by, published_at, description_version,
		 changelog, created_from_version_id, parent_flow_data_hash,
		 created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		v.ID,
		v.FlowID,
		v.VersionNumber,
		v.VersionTag,
		v.Name,
		v.Description,
		dataJSON,
		v.Icon,
		v.IconBgColor,
		v.Gradient,
		v.EndpointName,
		tagsJSON,
		v.MCPEnabled,
		v.RunInBackground,
		v.ActionName,
		v.ActionDescription,
		string(v.AccessType),
		v.IsActive,
		v.PublishedBy,
		v.PublishedAt,
		v.DescriptionVersion,
		v.Changelog,
		v.CreatedFromVersionID,
		v.ParentFlowDataHash,
		v.CreatedAt,
		v.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert version: %w", err)
	}
	return nil
}

// GetVersion retrieves a version (with metadata) by ID.
// Returns sql.ErrNoRows if not found.
func (s *Store) GetVersion(ctx context.Context, id uuid.UUID) (VersionRecord, error) {
	return getVersion(ctx, s.db, id)
}

// GetVersion retrieves a version (with metadata) by ID inside the
// transaction.
// Returns sql.ErrNoRows if not found.
func (t *Tx) GetVersion(ctx context.Context, id uuid.UUID) (VersionRecord, error) {
	return getVersion(ctx, t.tx, id)
}

func getVersion(ctx context.Context, r runner, id uuid.UUID) (VersionRecord, error) {
	row := r.QueryRowContext(ctx, `
		SELECT `+versionColumns+`
		`+versionFrom+`
		WHERE v.id = ?
	`, id)
	return scanVersionRecord(row)
}

// GetVersionForFlow retrieves a version by ID scoped to a flow. A
// version ID belonging to a different flow returns sql.ErrNoRows, never
// another flow's version.
func (s *Store) GetVersionForFlow(ctx context.Context, id, flowID uuid.UUID) (VersionRecord, error) {
	return getVersionForFlow(ctx, s.db, id, flowID)
}

// GetVersionForFlow is the transactional variant of the flow-scoped
// version lookup.
func (t *Tx) GetVersionForFlow(ctx context.Context, id, flowID uuid.UUID) (VersionRecord, error) {
	return getVersionForFlow(ctx, t.tx, id, flowID)
}

func getVersionForFlow(ctx context.Context, r runner, id, flowID uuid.UUID) (VersionRecord, error) {
	row := r.QueryRowContext(ctx, `
		SELECT `+versionColumns+`
		`+versionFrom+`
		WHERE v.id = ? AND v.flow_id = ?
	`, id, flowID)
	return scanVersionRecord(row)
}

// GetVersionByNumber retrieves a flow's version by version number.
// Returns sql.ErrNoRows if not found.
func (s *Store) GetVersionByNumber(ctx context.Context, flowID uuid.UUID, number int) (VersionRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+versionColumns+`
		`+versionFrom+`
		WHERE v.flow_id = ? AND v.version_number = ?
	`, flowID, number)
	return scanVersionRecord(row)
}

// GetVersionByTag retrieves a flow's version by tag.
// Returns sql.ErrNoRows if not found.
func (s *Store) GetVersionByTag(ctx context.Context, flowID uuid.UUID, tag string) (VersionRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+versionColumns+`
		`+versionFrom+`
		WHERE v.flow_id = ? AND v.version_tag = ?
	`, flowID, tag)
	return scanVersionRecord(row)
}

// GetActiveVersion retrieves the flow's unique active version.
// Returns sql.ErrNoRows when the flow has no active version; callers
// decide whether that is an error.
func (s *Store) GetActiveVersion(ctx context.Context, flowID uuid.UUID) (VersionRecord, error) {
	return getActiveVersion(ctx, s.db, flowID)
}

// GetActiveVersion is the transactional variant of the active-version
// lookup.
func (t *Tx) GetActiveVersion(ctx context.Context, flowID uuid.UUID) (VersionRecord, error) {
	return getActiveVersion(ctx, t.tx, flowID)
}

func getActiveVersion(ctx context.Context, r runner, flowID uuid.UUID) (VersionRecord, error) {
	row := r.QueryRowContext(ctx, `
		SELECT `+versionColumns+`
		`+versionFrom+`
		WHERE v.flow_id = ? AND v.is_active = 1
	`, flowID)
	return scanVersionRecord(row)
}

// ListVersions returns a page of a flow's versions ordered newest first
// by version number.
//
// Returns an empty slice (not nil) if the flow has no versions.
func (s *Store) ListVersions(ctx context.Context, flowID uuid.UUID, limit, offset int) ([]VersionRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+versionColumns+`
		`+versionFrom+`
		WHERE v.flow_id = ?
		ORDER BY v.version_number DESC
		LIMIT ? OFFSET ?
	`, flowID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query versions: %w", err)
	}
	defer rows.Close()

	var records []VersionRecord
	for rows.Next() {
		rec, err := scanVersionRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate versions: %w", err)
	}

	// Return empty slice instead of nil
	if records == nil {
		records = []VersionRecord{}
	}

	return records, nil
}

// GetVersionsByIDs retrieves versions for a set of IDs in one query.
// Missing IDs are simply absent from the result; callers check the
// returned count.
func (s *Store) GetVersionsByIDs(ctx context.Context, ids []uuid.UUID) ([]VersionRecord, error) {
	if len(ids) == 0 {
		return []VersionRecord{}, nil
	}

	// Build placeholder string for IN clause
	placeholders := make([]byte, 0, len(ids)*2-1)
	args := make([]any, len(ids))
	for i, id := range ids {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+versionColumns+`
		`+versionFrom+`
		WHERE v.id IN (`+string(placeholders)+`)
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("query versions by ids: %w", err)
	}
	defer rows.Close()

	var records []VersionRecord
	for rows.Next() {
		rec, err := scanVersionRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate versions by ids: %w", err)
	}

	if records == nil {
		records = []VersionRecord{}
	}

	return records, nil
}

// DeactivateOtherVersions flips is_active off on every other active
// version of the flow. One bulk statement; atomic with ActivateVersion
// under the surrounding transaction, which is what preserves the
// at-most-one-active invariant under concurrent activations.
func (t *Tx) DeactivateOtherVersions(ctx context.Context, flowID, exceptID uuid.UUID, now time.Time) error {
	_, err := t.tx.ExecContext(ctx, `
		UPDATE flow_versions
		SET is_active = 0, updated_at = ?
		WHERE flow_id = ? AND id <> ? AND is_active = 1
	`, now, flowID, exceptID)
	if err != nil {
		return fmt.Errorf("deactivate other versions: %w", err)
	}
	return nil
}

// ActivateVersion flips is_active on for the target version.
func (t *Tx) ActivateVersion(ctx context.Context, versionID uuid.UUID, now time.Time) error {
	res, err := t.tx.ExecContext(ctx, `
		UPDATE flow_versions
		SET is_active = 1, updated_at = ?
		WHERE id = ?
	`, now, versionID)
	if err != nil {
		return fmt.Errorf("activate version: %w", err)
	}
	return requireRow(res, "activate version")
}

// UpdateVersionAnnotations updates the two mutable annotation fields.
// Nil fields keep their current value (COALESCE against the column).
func (t *Tx) UpdateVersionAnnotations(ctx context.Context, versionID uuid.UUID, upd flow.VersionUpdate, now time.Time) error {
	res, err := t.tx.ExecContext(ctx, `
		UPDATE flow_versions
		SET description_version = COALESCE(?, description_version),
		    changelog = COALESCE(?, changelog),
		    updated_at = ?
		WHERE id = ?
	`, upd.DescriptionVersion, upd.Changelog, now, versionID)
	if err != nil {
		return fmt.Errorf("update version annotations: %w", err)
	}
	return requireRow(res, "update version annotations")
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanVersionRecord scans a row in versionColumns order: the version
// columns followed by the LEFT JOINed metadata columns.
func scanVersionRecord(row rowScanner) (VersionRecord, error) {
	var v flow.Version
	var dataJSON, tagsJSON, accessType string

	var (
		metaID         uuid.NullUUID
		metaVersionID  uuid.NullUUID
		execCount      sql.NullInt64
		lastExecutedAt sql.NullTime
		totalTimeMS    sql.NullInt64
		avgTimeMS      sql.NullFloat64
		errorCount     sql.NullInt64
		lastErrorAt    sql.NullTime
		apiExecs       sql.NullInt64
		mcpExecs       sql.NullInt64
		publicExecs    sql.NullInt64
		webhookExecs   sql.NullInt64
		deployEnv      sql.NullString
		rollbackCount  sql.NullInt64
		metaCreatedAt  sql.NullTime
		metaUpdatedAt  sql.NullTime
	)

	if err := row.Scan(
		&v.ID, &v.FlowID, &v.VersionNumber, &v.VersionTag, &v.Name,
		&v.Description, &dataJSON, &v.Icon, &v.IconBgColor, &v.Gradient,
		&v.EndpointName, &tagsJSON, &v.MCPEnabled, &v.RunInBackground,
		&v.ActionName, &v.ActionDescription, &accessType, &v.IsActive,
		&v.PublishedBy, &v.PublishedAt, &v.DescriptionVersion, &v.Changelog,
		&v.CreatedFromVersionID, &v.ParentFlowDataHash, &v.CreatedAt,
		&v.UpdatedAt,
		&metaID, &metaVersionID, &execCount, &lastExecutedAt,
		&totalTimeMS, &avgTimeMS, &errorCount, &lastErrorAt,
		&apiExecs, &mcpExecs, &publicExecs, &webhookExecs, &deployEnv,
		&rollbackCount, &metaCreatedAt, &metaUpdatedAt,
	); err != nil {
		return VersionRecord{}, err
	}

	v.AccessType = flow.AccessType(accessType)

	data, err := unmarshalDocument(dataJSON)
	if err != nil {
		return VersionRecord{}, err
	}
	v.Data = data

	tags, err := unmarshalTags(tagsJSON)
	if err != nil {
		return VersionRecord{}, err
	}
	v.Tags = tags

	rec := VersionRecord{Version: v}
	if metaID.Valid {
		meta := flow.VersionMetadata{
			ID:                    metaID.UUID,
			VersionID:             metaVersionID.UUID,
			ExecutionCount:        execCount.Int64,
			TotalExecutionTimeMS:  totalTimeMS.Int64,
			ErrorCount:            errorCount.Int64,
			APIExecutions:         apiExecs.Int64,
			MCPExecutions:         mcpExecs.Int64,
			PublicExecutions:      publicExecs.Int64,
			WebhookExecutions:     webhookExecs.Int64,
			DeploymentEnvironment: deployEnv.String,
			RollbackCount:         rollbackCount.Int64,
			CreatedAt:             metaCreatedAt.Time,
			UpdatedAt:             metaUpdatedAt.Time,
		}
		if lastExecutedAt.Valid {
			meta.LastExecutedAt = &lastExecutedAt.Time
		}
		if avgTimeMS.Valid {
			meta.AvgExecutionTimeMS = &avgTimeMS.Float64
		}
		if lastErrorAt.Valid {
			meta.LastErrorAt = &lastErrorAt.Time
		}
		rec.Metadata = &meta
	}

	return rec, nil
}
