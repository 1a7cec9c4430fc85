package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/flowvault/flowvault/internal/flow"
)

const metadataColumns = `id, version_id, execution_count, last_executed_at,
		total_execution_time_ms, avg_execution_time_ms, error_count,
		last_error_at, api_executions, mcp_executions, public_executions,
		webhook_executions, deployment_environment, rollback_count,
		created_at, updated_at`

// InsertMetadata inserts a metadata row. Each version has at most one;
// the UNIQUE constraint on version_id enforces it.
func (t *Tx) InsertMetadata(ctx context.Context, m *flow.VersionMetadata) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO version_metadata
		(id, version_id, execution_count, last_executed_at,
		 total_execution_time_ms, avg_execution_time_ms, error_count,
		 last_error_at, api_executions, mcp_executions, public_executions,
		 webhook_executions, deployment_environment, rollback_count,
		 created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		m.ID,
		m.VersionID,
		m.ExecutionCount,
		m.LastExecutedAt,
		m.TotalExecutionTimeMS,
		m.AvgExecutionTimeMS,
		m.ErrorCount,
		m.LastErrorAt,
		m.APIExecutions,
		m.MCPExecutions,
		m.PublicExecutions,
		m.WebhookExecutions,
		m.DeploymentEnvironment,
		m.RollbackCount,
		m.CreatedAt,
		m.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert metadata: %w", err)
	}
	return nil
}

// GetMetadataByVersion retrieves the metadata row for a version.
// Returns sql.ErrNoRows if not found.
func (s *Store) GetMetadataByVersion(ctx context.Context, versionID uuid.UUID) (flow.VersionMetadata, error) {
	return getMetadataByVersion(ctx, s.db, versionID)
}

// GetMetadataByVersion is the transactional variant of the metadata
// lookup. Used by counter updates that read, mutate, and write back
// under one transaction.
func (t *Tx) GetMetadataByVersion(ctx context.Context, versionID uuid.UUID) (flow.VersionMetadata, error) {
	return getMetadataByVersion(ctx, t.tx, versionID)
}

func getMetadataByVersion(ctx context.Context, r runner, versionID uuid.UUID) (flow.VersionMetadata, error) {
	row := r.QueryRowContext(ctx, `
		SELECT `+metadataColumns+`
		FROM version_metadata
		WHERE version_id = ?
	`, versionID)

	var m flow.VersionMetadata
	if err := row.Scan(
		&m.ID, &m.VersionID, &m.ExecutionCount, &m.LastExecutedAt,
		&m.TotalExecutionTimeMS, &m.AvgExecutionTimeMS, &m.ErrorCount,
		&m.LastErrorAt, &m.APIExecutions, &m.MCPExecutions,
		&m.PublicExecutions, &m.WebhookExecutions, &m.DeploymentEnvironment,
		&m.RollbackCount, &m.CreatedAt, &m.UpdatedAt,
	); err != nil {
		return flow.VersionMetadata{}, err
	}
	return m, nil
}

// UpdateMetadata writes back every mutable metadata column. Counter
// arithmetic happens in Go between GetMetadataByVersion and this call,
// inside one transaction.
func (t *Tx) UpdateMetadata(ctx context.Context, m *flow.VersionMetadata) error {
	res, err := t.tx.ExecContext(ctx, `
		UPDATE version_metadata
		SET execution_count = ?,
		    last_executed_at = ?,
		    total_execution_time_ms = ?,
		    avg_execution_time_ms = ?,
		    error_count = ?,
		    last_error_at = ?,
		    api_executions = ?,
		    mcp_executions = ?,
		    public_executions = ?,
		    webhook_executions = ?,
		    deployment_environment = ?,
		    rollback_count = ?,
		    updated_at = ?
		WHERE version_id = ?
	`,
		m.ExecutionCount,
		m.LastExecutedAt,
		m.TotalExecutionTimeMS,
		m.AvgExecutionTimeMS,
		m.ErrorCount,
		m.LastErrorAt,
		m.APIExecutions,
		m.MCPExecutions,
		m.PublicExecutions,
		m.WebhookExecutions,
		m.DeploymentEnvironment,
		m.RollbackCount,
		m.UpdatedAt,
		m.VersionID,
	)
	if err != nil {
		return fmt.Errorf("update metadata: %w", err)
	}
	return requireRow(res, "update metadata")
}
