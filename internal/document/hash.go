package document

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// DomainDocument is the domain prefix for document content hashes.
// Version suffix enables future algorithm migration.
const DomainDocument = "flowvault/document/v1"

// hashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Hash computes the content hash of a document.
//
// The hash is stable across process restarts and store round trips given
// the same document content: it is computed over the canonical form
// (sorted keys, NFC strings, verbatim numeric tokens). Published versions
// record this as ParentFlowDataHash.
func Hash(doc Document) (string, error) {
	canonical, err := MarshalCanonical(doc)
	if err != nil {
		return "", fmt.Errorf("hash document: %w", err)
	}
	return hashWithDomain(DomainDocument, canonical), nil
}

// MustHash is like Hash but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustHash(doc Document) string {
	h, err := Hash(doc)
	if err != nil {
		panic(err)
	}
	return h
}
