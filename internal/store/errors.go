package store

import (
	"errors"

	sqlite3 "github.com/mattn/go-sqlite3"
)

// IsUniqueViolation reports whether err is a SQLite UNIQUE (or primary
// key) constraint failure. The versioning service converts these into
// Conflict errors: racing publishers colliding on (flow_id,
// version_number) and duplicate (flow_id, version_tag) pairs both
// surface this way.
func IsUniqueViolation(err error) bool {
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.ExtendedCode == sqlite3.ErrConstraintUnique ||
			se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}
