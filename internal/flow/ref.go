package flow

import (
	"strconv"

	"github.com/google/uuid"
)

// RefKind discriminates the three version identifier forms.
type RefKind int

const (
	// RefID is a version UUID.
	RefID RefKind = iota
	// RefNumber is a version number, bare ("3") or prefixed ("v3").
	RefNumber
	// RefTag is an opaque version tag.
	RefTag
)

// Ref is a classified version identifier. Classification happens once at
// the service entry point; lookup code switches on Kind instead of
// re-probing the raw string along the way.
type Ref struct {
	Kind   RefKind
	ID     uuid.UUID
	Number int
	Tag    string
}

// ParseRef classifies a version identifier string.
//
// Resolution order: UUID syntax first; then a bare or "v"/"V"-prefixed
// run of decimal digits as a version number; anything else is a tag.
// ParseRef never fails - an unmatchable identifier becomes a tag that
// simply resolves to no version.
func ParseRef(identifier string) Ref {
	if id, err := uuid.Parse(identifier); err == nil {
		return Ref{Kind: RefID, ID: id}
	}
	if n, ok := parseVersionNumber(identifier); ok {
		return Ref{Kind: RefNumber, Number: n}
	}
	return Ref{Kind: RefTag, Tag: identifier}
}

// parseVersionNumber accepts "3" and "v3"/"V3" forms. Numbers that
// overflow int are rejected and fall through to the tag path.
func parseVersionNumber(s string) (int, bool) {
	digits := s
	if len(s) > 1 && (s[0] == 'v' || s[0] == 'V') {
		digits = s[1:]
	}
	if digits == "" {
		return 0, false
	}
	for i := 0; i < len(digits); i++ {
		if digits[i] < '0' || digits[i] > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return n, true
}
