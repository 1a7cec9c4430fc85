// Package versioning implements the flow version lifecycle: publishing
// immutable snapshots from a live draft, resolving versions by flexible
// identifiers, moving the single active pointer, restoring drafts from
// history, structural comparison, and per-version execution metrics.
//
// # Lifecycle
//
// A flow carries exactly one live draft. Publish freezes the draft into
// a numbered, immutable version; the draft stays editable. Activation
// marks one version as the flow's served state and takes the flow out
// of draft mode. Rollback is activation of an older version, never a
// new snapshot. CreateDraftFromVersion copies a snapshot back over the
// draft for further editing.
//
// # Caching
//
// Two cache slots exist per the key schemes in cache.go: the flow's
// active version and individual versions by ID. Cache writes happen
// strictly after the transaction commits, and every cache failure is
// logged and swallowed. The cache can never make a committed mutation
// fail, and a cold cache only costs a store read.
//
// # Errors
//
// Operations return *Error with a category code (NOT_FOUND,
// INVALID_OPERATION, CONFLICT, ACTIVE_VERSION_NOT_SET); use the IsX
// predicates rather than matching message text. Store-level failures
// pass through wrapped with their operation context.
package versioning
