// Package document provides the flow document value model shared by the
// versioning engine: decode/encode, deep copy, canonical serialization,
// content hashing, and structural diff.
//
// A Document is a JSON object tree (map[string]any as produced by
// encoding/json with UseNumber). This package contains no storage or
// service logic; everything here is pure computation over trees.
//
// Key design constraints:
//   - Decode always uses json.Number so numeric tokens survive round trips
//     and hashing stays stable across store reads and writes
//   - Canonical serialization sorts object keys by UTF-16 code units and
//     NFC-normalizes strings; it is the ONLY form used for content hashing
//   - Diff never mutates its inputs and returns plain JSON-shaped trees
package document
