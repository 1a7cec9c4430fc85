package flow

import (
	"time"

	"github.com/google/uuid"

	"github.com/flowvault/flowvault/internal/document"
)

// VersionRead is the full version read model returned to callers: the
// version record hydrated with its execution metric summary.
type VersionRead struct {
	Version

	ExecutionCount     int64      `json:"execution_count"`
	LastExecutedAt     *time.Time `json:"last_executed_at,omitempty"`
	AvgExecutionTimeMS *float64   `json:"avg_execution_time_ms,omitempty"`
	ErrorCount         int64      `json:"error_count"`
}

// NewVersionRead hydrates a read model from a version and its metadata.
// A nil metadata leaves the metric summary zeroed.
func NewVersionRead(v Version, meta *VersionMetadata) VersionRead {
	read := VersionRead{Version: v}
	if meta != nil {
		read.ExecutionCount = meta.ExecutionCount
		read.LastExecutedAt = meta.LastExecutedAt
		read.AvgExecutionTimeMS = meta.AvgExecutionTimeMS
		read.ErrorCount = meta.ErrorCount
	}
	return read
}

// VersionSummary is the compact per-version entry used in history
// listings and the flow aggregate view.
type VersionSummary struct {
	ID                 uuid.UUID `json:"id"`
	VersionNumber      int       `json:"version_number"`
	VersionTag         *string   `json:"version_tag,omitempty"`
	IsActive           bool      `json:"is_active"`
	Status             string    `json:"status"`
	PublishedAt        time.Time `json:"published_at"`
	DescriptionVersion *string   `json:"description_version,omitempty"`
	ExecutionCount     int64     `json:"execution_count"`
	ErrorCount         int64     `json:"error_count"`
}

// NewVersionSummary builds a summary from a version and its metadata.
// A nil metadata leaves the counters zeroed.
func NewVersionSummary(v Version, meta *VersionMetadata) VersionSummary {
	s := VersionSummary{
		ID:                 v.ID,
		VersionNumber:      v.VersionNumber,
		VersionTag:         v.VersionTag,
		IsActive:           v.IsActive,
		Status:             v.Status(),
		PublishedAt:        v.PublishedAt,
		DescriptionVersion: v.DescriptionVersion,
	}
	if meta != nil {
		s.ExecutionCount = meta.ExecutionCount
		s.ErrorCount = meta.ErrorCount
	}
	return s
}

// FlowWithVersions aggregates a flow summary with its version history
// (newest first by version number), the active version detail, and a
// copy of the current draft content.
type FlowWithVersions struct {
	ID              uuid.UUID  `json:"id"`
	Name            string     `json:"name"`
	Description     *string    `json:"description,omitempty"`
	IsDraft         bool       `json:"is_draft"`
	ActiveVersionID *uuid.UUID `json:"active_version_id,omitempty"`
	VersionCount    int        `json:"version_count"`
	LastPublishedAt *time.Time `json:"last_published_at,omitempty"`

	Versions      []VersionSummary  `json:"versions"`
	ActiveVersion *VersionRead      `json:"active_version,omitempty"`
	DraftData     document.Document `json:"draft_data,omitempty"`
}

// ComparisonResult pairs two version reads with their structural diff
// and a human-readable change summary.
type ComparisonResult struct {
	VersionA    VersionRead   `json:"version_a"`
	VersionB    VersionRead   `json:"version_b"`
	Differences document.Diff `json:"differences"`
	Summary     string        `json:"summary"`
}

// VersionMetrics is the metrics read model for a single version.
type VersionMetrics struct {
	VersionID          uuid.UUID  `json:"version_id"`
	ExecutionCount     int64      `json:"execution_count"`
	ErrorCount         int64      `json:"error_count"`
	AvgExecutionTimeMS *float64   `json:"avg_execution_time_ms,omitempty"`
	LastExecutedAt     *time.Time `json:"last_executed_at,omitempty"`
	LastErrorAt        *time.Time `json:"last_error_at,omitempty"`
	APIExecutions      int64      `json:"api_executions"`
	MCPExecutions      int64      `json:"mcp_executions"`
	PublicExecutions   int64      `json:"public_executions"`
	WebhookExecutions  int64      `json:"webhook_executions"`
	RollbackCount      int64      `json:"rollback_count"`
}

// NewVersionMetrics projects a metadata row into the metrics read model.
func NewVersionMetrics(meta VersionMetadata) VersionMetrics {
	return VersionMetrics{
		VersionID:          meta.VersionID,
		ExecutionCount:     meta.ExecutionCount,
		ErrorCount:         meta.ErrorCount,
		AvgExecutionTimeMS: meta.AvgExecutionTimeMS,
		LastExecutedAt:     meta.LastExecutedAt,
		LastErrorAt:        meta.LastErrorAt,
		APIExecutions:      meta.APIExecutions,
		MCPExecutions:      meta.MCPExecutions,
		PublicExecutions:   meta.PublicExecutions,
		WebhookExecutions:  meta.WebhookExecutions,
		RollbackCount:      meta.RollbackCount,
	}
}

// VersionUpdate carries the only two version fields that stay mutable
// after publish. Nil fields are left unchanged.
type VersionUpdate struct {
	DescriptionVersion *string `json:"description_version,omitempty"`
	Changelog          *string `json:"changelog,omitempty"`
}
