package document

import (
	"encoding/json"
	"reflect"
)

// Diff is a structural difference tree between two documents.
//
// It mirrors the shape of the compared documents, restricted to paths
// that differ. Interior nodes are maps keyed like the documents; leaf
// marker nodes record the change itself:
//
//	{"from": a, "to": b}   value changed (scalars, or any composite
//	                       compared by whole-value equality)
//	{"added": v}           key present only on the right side
//	{"removed": v}         key present only on the left side
//
// Leaf values are shared with the input documents, not copied. Callers
// that mutate inputs after diffing must Clone first.
type Diff map[string]any

// Compare computes the structural diff from a to b.
//
//   - Map vs map: recurse per key; keys only on one side become
//     added/removed leaves; a key is included only if its recursive
//     diff is non-empty.
//   - Slice vs slice: whole-value structural equality only. A single
//     changed element reports the entire slice as {from, to}; there is
//     no element-wise diffing.
//   - Scalars or type-mismatched values: {from, to} when unequal.
//
// Compare(x, x) returns an empty Diff for any document x.
func Compare(a, b Document) Diff {
	return Diff(diffValues(map[string]any(a), map[string]any(b)))
}

func diffValues(a, b any) map[string]any {
	am, aIsMap := asMap(a)
	bm, bIsMap := asMap(b)
	if aIsMap && bIsMap {
		out := make(map[string]any)
		for k, av := range am {
			if _, ok := bm[k]; !ok {
				out[k] = map[string]any{"removed": av}
			}
		}
		for k, bv := range bm {
			av, ok := am[k]
			if !ok {
				out[k] = map[string]any{"added": bv}
				continue
			}
			if child := diffValues(av, bv); len(child) > 0 {
				out[k] = child
			}
		}
		return out
	}

	if !equalValues(a, b) {
		return map[string]any{"from": a, "to": b}
	}
	return nil
}

// ChangeCount returns the number of changed paths in the diff.
//
// Nested map diff values are walked recursively; each leaf marker node
// counts as exactly one change regardless of the size of the value it
// carries. An empty diff counts zero.
func (d Diff) ChangeCount() int {
	return countChanges(map[string]any(d))
}

func countChanges(node map[string]any) int {
	total := 0
	for _, v := range node {
		m, ok := asMap(v)
		if !ok {
			// Not produced by Compare, but any stray non-map value is
			// one change.
			total++
			continue
		}
		if isLeafChange(m) {
			total++
			continue
		}
		total += countChanges(m)
	}
	return total
}

// isLeafChange reports whether a node is a change marker rather than a
// nested diff. Document keys literally named "from"/"to"/"added"/
// "removed" can masquerade as markers; the representation cannot
// distinguish them, matching the diff output format itself.
func isLeafChange(m map[string]any) bool {
	switch len(m) {
	case 1:
		if _, ok := m["added"]; ok {
			return true
		}
		_, ok := m["removed"]
		return ok
	case 2:
		_, hasFrom := m["from"]
		_, hasTo := m["to"]
		return hasFrom && hasTo
	}
	return false
}

// asMap normalizes the two map shapes a document tree can carry.
func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case Document:
		return m, true
	}
	return nil, false
}

// equalValues is deep structural equality over document values.
// Numbers compare by numeric value across representations, so a
// json.Number from a store round trip equals the int or float64 the
// document was built with.
func equalValues(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	if na, ok := numericValue(a); ok {
		nb, ok := numericValue(b)
		return ok && na == nb
	}

	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case []any:
		bv, ok := b.([]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !equalValues(av[i], bv[i]) {
				return false
			}
		}
		return true
	}

	if am, ok := asMap(a); ok {
		bm, ok := asMap(b)
		if !ok || len(am) != len(bm) {
			return false
		}
		for k, av := range am {
			bv, present := bm[k]
			if !present || !equalValues(av, bv) {
				return false
			}
		}
		return true
	}

	// json.Number tokens too large for float64 land here and compare
	// textually, as do any exotic value types.
	return reflect.DeepEqual(a, b)
}

// numericValue extracts a comparable numeric value when v is number-like.
func numericValue(v any) (float64, bool) {
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
