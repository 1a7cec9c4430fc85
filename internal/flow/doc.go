// Package flow defines the domain types for flow versioning.
//
// This package contains type definitions only: the Flow aggregate, the
// immutable Version snapshot, per-version execution metadata, the read
// models returned to callers, and the version identifier union. All
// other internal packages import flow; flow imports only
// internal/document. This keeps the type layer foundational with no
// circular dependencies.
//
// Key design constraints:
//   - Version/Flow/Metadata relationships are plain foreign-key fields,
//     never live object-graph back-pointers
//   - All JSON tags use snake_case
//   - Nullable columns map to pointer fields
package flow
