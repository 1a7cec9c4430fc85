// Package store provides SQLite-backed durable storage for flows and
// their version history.
//
// The store persists three tables:
//   - Flows: the live draft plus version bookkeeping (active pointer,
//     version count, last publish time)
//   - Flow Versions: immutable snapshots, numbered per flow
//   - Version Metadata: per-version execution counters, one row per
//     version
//
// # Critical Patterns
//
// CP-1: Snapshot Immutability
//   - Version rows are INSERT-only except for is_active and the two
//     annotation columns (description_version, changelog)
//   - Snapshot content and parent_flow_data_hash never change after
//     publish
//
// CP-2: Single Active Version
//   - At most one row per flow with is_active=1
//   - Activation deactivates siblings and activates the target inside
//     one transaction
//
// CP-3: Unique Numbering and Tags
//   - UNIQUE(flow_id, version_number) backstops racing publishers
//   - UNIQUE(flow_id, version_tag) with NULL tags exempt
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Multi-step mutations run through Store.WithTx so partial writes never
// become visible. Reads follow the database/sql convention and return
// sql.ErrNoRows when a row is absent; the service layer maps that to
// its own error taxonomy.
package store
