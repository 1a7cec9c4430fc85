package store

import (
	"encoding/json"
	"fmt"

	"github.com/flowvault/flowvault/internal/document"
)

// marshalDocument converts a document to JSON TEXT for storage.
// Storage uses plain (non-canonical) encoding; canonical form is only
// for content hashing and is recomputed from the decoded tree.
func marshalDocument(doc document.Document) (string, error) {
	if doc == nil {
		return "{}", nil
	}
	data, err := document.Encode(doc)
	if err != nil {
		return "", fmt.Errorf("marshal document: %w", err)
	}
	return string(data), nil
}

// unmarshalDocument parses JSON TEXT into a document.
// Decodes through document.Decode so numeric tokens survive the round
// trip and content hashes stay stable.
func unmarshalDocument(data string) (document.Document, error) {
	if data == "" || data == "{}" {
		return document.Document{}, nil
	}
	doc, err := document.Decode([]byte(data))
	if err != nil {
		return nil, fmt.Errorf("unmarshal document: %w", err)
	}
	return doc, nil
}

// marshalTags converts a tag list to JSON TEXT for storage.
func marshalTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	data, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("marshal tags: %w", err)
	}
	return string(data), nil
}

// unmarshalTags parses JSON TEXT into a tag list.
// Returns an empty slice (not nil) for empty input.
func unmarshalTags(data string) ([]string, error) {
	if data == "" || data == "[]" {
		return []string{}, nil
	}
	var tags []string
	if err := json.Unmarshal([]byte(data), &tags); err != nil {
		return nil, fmt.Errorf("unmarshal tags: %w", err)
	}
	if tags == nil {
		tags = []string{}
	}
	return tags, nil
}
