package flow

import (
	"time"

	"github.com/google/uuid"

	"github.com/flowvault/flowvault/internal/document"
)

// AccessType controls who may execute a flow.
type AccessType string

const (
	AccessPrivate AccessType = "PRIVATE"
	AccessPublic  AccessType = "PUBLIC"
)

// Snapshot is the content a version captures from its flow at publish
// time, and the content restored back onto the flow by a draft restore.
// Flow and Version both embed it.
type Snapshot struct {
	Name              string            `json:"name"`
	Description       *string           `json:"description,omitempty"`
	Data              document.Document `json:"data"`
	Icon              *string           `json:"icon,omitempty"`
	IconBgColor       *string           `json:"icon_bg_color,omitempty"`
	Gradient          *string           `json:"gradient,omitempty"`
	EndpointName      *string           `json:"endpoint_name,omitempty"`
	Tags              []string          `json:"tags"`
	MCPEnabled        bool              `json:"mcp_enabled"`
	RunInBackground   bool              `json:"run_in_background"`
	ActionName        *string           `json:"action_name,omitempty"`
	ActionDescription *string           `json:"action_description,omitempty"`
	AccessType        AccessType        `json:"access_type"`
}

// Clone returns a deep copy of the snapshot.
// Data and Tags are copied; pointer fields share their (immutable)
// targets.
func (s Snapshot) Clone() Snapshot {
	out := s
	out.Data = document.Clone(s.Data)
	if s.Tags != nil {
		out.Tags = make([]string, len(s.Tags))
		copy(out.Tags, s.Tags)
	}
	return out
}

// Flow is the mutable aggregate that owns a live draft and a history of
// published versions.
//
// ActiveVersionID, VersionCount, IsDraft, and LastPublishedAt are owned
// and mutated exclusively by the versioning service. VersionCount is
// monotonically non-decreasing.
type Flow struct {
	ID uuid.UUID `json:"id"`
	Snapshot

	ActiveVersionID *uuid.UUID `json:"active_version_id,omitempty"`
	VersionCount    int        `json:"version_count"`
	IsDraft         bool       `json:"is_draft"`
	LastPublishedAt *time.Time `json:"last_published_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Version is an immutable snapshot of a flow at publish time.
//
// Once created, only IsActive and the two annotation fields
// (DescriptionVersion, Changelog) may change. VersionNumber is positive,
// unique per flow, strictly increasing, and never reused.
// CreatedFromVersionID is an informational lineage pointer; it is never
// mutated and the lineage graph is acyclic by construction (a version
// can only point at versions that already existed).
type Version struct {
	ID            uuid.UUID `json:"id"`
	FlowID        uuid.UUID `json:"flow_id"`
	VersionNumber int       `json:"version_number"`
	VersionTag    *string   `json:"version_tag,omitempty"`
	Snapshot

	IsActive           bool      `json:"is_active"`
	PublishedBy        uuid.UUID `json:"published_by"`
	PublishedAt        time.Time `json:"published_at"`
	DescriptionVersion *string   `json:"description_version,omitempty"`
	Changelog          *string   `json:"changelog,omitempty"`

	CreatedFromVersionID *uuid.UUID `json:"created_from_version_id,omitempty"`
	ParentFlowDataHash   string     `json:"parent_flow_data_hash"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Status derives the display status of a version.
func (v Version) Status() string {
	if v.IsActive {
		return "active"
	}
	return "published"
}

// VersionMetadata holds per-version execution metrics, one row per
// version (VersionID is unique). Created alongside the version and
// lazily by the first metrics write if absent. All counters are
// monotonic; AvgExecutionTimeMS is always TotalExecutionTimeMS divided
// by ExecutionCount.
type VersionMetadata struct {
	ID        uuid.UUID `json:"id"`
	VersionID uuid.UUID `json:"version_id"`

	ExecutionCount       int64      `json:"execution_count"`
	LastExecutedAt       *time.Time `json:"last_executed_at,omitempty"`
	TotalExecutionTimeMS int64      `json:"total_execution_time_ms"`
	AvgExecutionTimeMS   *float64   `json:"avg_execution_time_ms,omitempty"`

	ErrorCount  int64      `json:"error_count"`
	LastErrorAt *time.Time `json:"last_error_at,omitempty"`

	APIExecutions     int64 `json:"api_executions"`
	MCPExecutions     int64 `json:"mcp_executions"`
	PublicExecutions  int64 `json:"public_executions"`
	WebhookExecutions int64 `json:"webhook_executions"`

	DeploymentEnvironment string `json:"deployment_environment"`
	RollbackCount         int64  `json:"rollback_count"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DefaultDeploymentEnvironment is assigned to new metadata rows.
const DefaultDeploymentEnvironment = "production"
