package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/flowvault/flowvault/internal/document"
	"github.com/flowvault/flowvault/internal/flow"
)

// flowColumns is the canonical column list for flow queries; scanFlow
// depends on this exact order.
const flowColumns = `id, name, description, data, icon, icon_bg_color, gradient,
		endpoint_name, tags, mcp_enabled, run_in_background, action_name,
		action_description, access_type, active_version_id, version_count,
		is_draft, last_published_at, created_at, updated_at`

// CreateFlow inserts a new flow row.
// The caller assigns the ID and timestamps; the store writes exactly
// what it is given.
func (s *Store) CreateFlow(ctx context.Context, f *flow.Flow) error {
	return insertFlow(ctx, s.db, f)
}

// CreateFlow inserts a new flow row inside the transaction.
func (t *Tx) CreateFlow(ctx context.Context, f *flow.Flow) error {
	return insertFlow(ctx, t.tx, f)
}

func insertFlow(ctx context.Context, r runner, f *flow.Flow) error {
	dataJSON, err := marshalDocument(f.Data)
	if err != nil {
		return fmt.Errorf("insert flow: %w", err)
	}
	tagsJSON, err := marshalTags(f.Tags)
	if err != nil {
		return fmt.Errorf("insert flow: %w", err)
	}

	_, err = r.ExecContext(ctx, `
		INSERT INTO flows
		(`+flowColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		f.ID,
		f.Name,
		f.Description,
		dataJSON,
		f.Icon,
		f.IconBgColor,
		f.Gradient,
		f.EndpointName,
		tagsJSON,
		f.MCPEnabled,
		f.RunInBackground,
		f.ActionName,
		f.ActionDescription,
		string(f.AccessType),
		f.ActiveVersionID,
		f.VersionCount,
		f.IsDraft,
		f.LastPublishedAt,
		f.CreatedAt,
		f.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert flow: %w", err)
	}
	return nil
}

// GetFlow retrieves a flow by ID.
// Returns sql.ErrNoRows if not found.
func (s *Store) GetFlow(ctx context.Context, id uuid.UUID) (flow.Flow, error) {
	return getFlow(ctx, s.db, id)
}

// GetFlow retrieves a flow by ID inside the transaction, observing the
// transaction's own writes.
// Returns sql.ErrNoRows if not found.
func (t *Tx) GetFlow(ctx context.Context, id uuid.UUID) (flow.Flow, error) {
	return getFlow(ctx, t.tx, id)
}

func getFlow(ctx context.Context, r runner, id uuid.UUID) (flow.Flow, error) {
	row := r.QueryRowContext(ctx, `
		SELECT `+flowColumns+`
		FROM flows
		WHERE id = ?
	`, id)
	return scanFlow(row)
}

// SaveFlowDraft overwrites the flow's live draft document and marks the
// flow as a draft again. Used by the flow CRUD surface; the versioning
// service itself only rewrites drafts through RestoreFlowDraft.
func (s *Store) SaveFlowDraft(ctx context.Context, flowID uuid.UUID, data document.Document, now time.Time) error {
	dataJSON, err := marshalDocument(data)
	if err != nil {
		return fmt.Errorf("save flow draft: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE flows
		SET data = ?, is_draft = 1, updated_at = ?
		WHERE id = ?
	`, dataJSON, now, flowID)
	if err != nil {
		return fmt.Errorf("save flow draft: %w", err)
	}
	return requireRow(res, "save flow draft")
}

// MarkFlowPublished records a successful publish on the flow row:
// bumps version_count, stamps last_published_at, and keeps the flow in
// draft mode (publishing never freezes the draft).
func (t *Tx) MarkFlowPublished(ctx context.Context, flowID uuid.UUID, publishedAt, now time.Time) error {
	res, err := t.tx.ExecContext(ctx, `
		UPDATE flows
		SET version_count = version_count + 1,
		    last_published_at = ?,
		    is_draft = 1,
		    updated_at = ?
		WHERE id = ?
	`, publishedAt, now, flowID)
	if err != nil {
		return fmt.Errorf("mark flow published: %w", err)
	}
	return requireRow(res, "mark flow published")
}

// SetFlowActivePointer repoints the flow at its active version. The
// flow mirrors the target's publish timestamp and leaves draft mode.
func (t *Tx) SetFlowActivePointer(ctx context.Context, flowID, versionID uuid.UUID, publishedAt, now time.Time) error {
	res, err := t.tx.ExecContext(ctx, `
		UPDATE flows
		SET active_version_id = ?,
		    last_published_at = ?,
		    is_draft = 0,
		    updated_at = ?
		WHERE id = ?
	`, versionID, publishedAt, now, flowID)
	if err != nil {
		return fmt.Errorf("set flow active pointer: %w", err)
	}
	return requireRow(res, "set flow active pointer")
}

// RestoreFlowDraft overwrites the flow's draft content from a version
// snapshot and marks the flow as a draft. The active pointer is left
// untouched.
func (t *Tx) RestoreFlowDraft(ctx context.Context, flowID uuid.UUID, snap flow.Snapshot, now time.Time) error {
	dataJSON, err := marshalDocument(snap.Data)
	if err != nil {
		return fmt.Errorf("restore flow draft: %w", err)
	}
	tagsJSON, err := marshalTags(snap.Tags)
	if err != nil {
		return fmt.Errorf("restore flow draft: %w", err)
	}

	res, err := t.tx.ExecContext(ctx, `
		UPDATE flows
		SET name = ?, description = ?, data = ?, icon = ?, icon_bg_color = ?,
		    gradient = ?, endpoint_name = ?, tags = ?, mcp_enabled = ?,
		    run_in_background = ?, action_name = ?, action_description = ?,
		    access_type = ?, is_draft = 1, updated_at = ?
		WHERE id = ?
	`,
		snap.Name,
		snap.Description,
		dataJSON,
		snap.Icon,
		snap.IconBgColor,
		snap.Gradient,
		snap.EndpointName,
		tagsJSON,
		snap.MCPEnabled,
		snap.RunInBackground,
		snap.ActionName,
		snap.ActionDescription,
		string(snap.AccessType),
		now,
		flowID,
	)
	if err != nil {
		return fmt.Errorf("restore flow draft: %w", err)
	}
	return requireRow(res, "restore flow draft")
}

// scanFlow scans a flow row in flowColumns order.
func scanFlow(row *sql.Row) (flow.Flow, error) {
	var f flow.Flow
	var dataJSON, tagsJSON, accessType string

	if err := row.Scan(
		&f.ID, &f.Name, &f.Description, &dataJSON, &f.Icon, &f.IconBgColor,
		&f.Gradient, &f.EndpointName, &tagsJSON, &f.MCPEnabled,
		&f.RunInBackground, &f.ActionName, &f.ActionDescription, &accessType,
		&f.ActiveVersionID, &f.VersionCount, &f.IsDraft, &f.LastPublishedAt,
		&f.CreatedAt, &f.UpdatedAt,
	); err != nil {
		return flow.Flow{}, err
	}

	f.AccessType = flow.AccessType(accessType)

	data, err := unmarshalDocument(dataJSON)
	if err != nil {
		return flow.Flow{}, err
	}
	f.Data = data

	tags, err := unmarshalTags(tagsJSON)
	if err != nil {
		return flow.Flow{}, err
	}
	f.Tags = tags

	return f, nil
}

// requireRow converts a zero-row UPDATE into sql.ErrNoRows so callers
// can distinguish "row missing" from success.
func requireRow(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: rows affected: %w", op, err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
