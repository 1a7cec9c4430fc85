package document

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Document is a flow document: a JSON object tree.
//
// Values are the shapes encoding/json produces when decoding with
// UseNumber: nil, bool, string, json.Number, []any, map[string]any.
// Code constructing documents directly may also use int, int64, and
// float64; canonical serialization and diff handle all of these.
type Document map[string]any

// Decode parses JSON bytes into a Document.
//
// Numbers are decoded as json.Number (not float64) so the original
// numeric tokens are preserved. This keeps content hashes stable when a
// document is stored and re-read.
func Decode(data []byte) (Document, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var doc Document
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return doc, nil
}

// Encode serializes a Document to JSON for storage.
//
// NOTE: This is NOT canonical serialization - key order follows Go's map
// marshaling. Use MarshalCanonical for content-addressed hashing.
func Encode(doc Document) ([]byte, error) {
	data, err := json.Marshal(map[string]any(doc))
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return data, nil
}

// Clone returns a deep copy of the document.
//
// Snapshot creation and draft restoration both rely on this: a published
// version must never alias the live draft's tree, and vice versa.
func Clone(doc Document) Document {
	if doc == nil {
		return nil
	}
	return cloneMap(doc)
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return cloneMap(val)
	case Document:
		return Document(cloneMap(val))
	case []any:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = cloneValue(elem)
		}
		return out
	default:
		// Scalars (nil, bool, string, json.Number, numeric types) are
		// immutable; share them.
		return val
	}
}
