// Package schema validates draft documents against a CUE schema before
// they are frozen into published versions.
//
// A schema is ordinary CUE source describing the document shape, e.g.:
//
//	label:  string
//	nodes:  [...{id: string, type: string}]
//	edges?: [...]
//
// The versioning service consults a Guard on every publish; a draft
// that does not satisfy the schema is rejected before any row is
// written. Guards are optional - a service without one publishes any
// non-empty draft.
package schema

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	cuejson "cuelang.org/go/encoding/json"

	"github.com/flowvault/flowvault/internal/document"
)

// Guard holds a compiled CUE schema and validates draft documents
// against it.
type Guard struct {
	name   string
	schema cue.Value

	// CUE evaluation against a shared context is not goroutine safe;
	// Validate serializes so one Guard can serve concurrent publishes.
	mu sync.Mutex
}

// FromSource compiles a CUE schema from source text. The name appears
// in error positions and violation messages.
func FromSource(name, src string) (*Guard, error) {
	ctx := cuecontext.New()
	v := ctx.CompileString(src, cue.Filename(name))
	if err := v.Err(); err != nil {
		return nil, fmt.Errorf("compile schema %s: %w", name, firstCUEError(err))
	}
	return &Guard{name: name, schema: v}, nil
}

// FromFile reads and compiles a CUE schema file.
func FromFile(path string) (*Guard, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema: %w", err)
	}
	return FromSource(path, string(src))
}

// Name returns the schema name (the file path for FromFile guards).
func (g *Guard) Name() string {
	return g.name
}

// ViolationError lists the schema violations found in one draft.
// Every violation is reported, not just the first, so an author fixes
// the draft in one pass.
type ViolationError struct {
	Schema     string
	Violations []string
}

func (e *ViolationError) Error() string {
	return fmt.Sprintf("draft violates schema %s: %s", e.Schema, strings.Join(e.Violations, "; "))
}

// Validate checks a draft document against the schema. A nil error
// means the draft satisfies every schema constraint, including
// required (non-optional) fields. Violations come back as a
// *ViolationError.
func (g *Guard) Validate(doc document.Document) error {
	data, err := document.Encode(doc)
	if err != nil {
		return fmt.Errorf("encode draft: %w", err)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	expr, err := cuejson.Extract("draft", data)
	if err != nil {
		return fmt.Errorf("extract draft: %w", err)
	}
	val := g.schema.Context().BuildExpr(expr)
	if err := val.Err(); err != nil {
		return fmt.Errorf("build draft value: %w", err)
	}

	// Unification surfaces conflicting values; Concrete surfaces
	// required fields the draft left unset.
	unified := g.schema.Unify(val)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return &ViolationError{Schema: g.name, Violations: violationList(err)}
	}
	return nil
}

// violationList flattens a CUE error into one message per violation.
func violationList(err error) []string {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return []string{err.Error()}
	}
	out := make([]string, 0, len(errs))
	for _, e := range errs {
		msg := e.Error()
		if path := e.Path(); len(path) > 0 {
			msg = strings.Join(path, ".") + ": " + format(e)
		}
		out = append(out, msg)
	}
	return out
}

// format renders a single CUE error without its path prefix.
func format(e cueerrors.Error) string {
	f, args := e.Msg()
	return fmt.Sprintf(f, args...)
}

// firstCUEError unwraps a CUE error list to its first entry, which
// carries the most useful position information.
func firstCUEError(err error) error {
	if errs := cueerrors.Errors(err); len(errs) > 0 {
		return errs[0]
	}
	return err
}
