// Package cache defines the byte-oriented cache contract used for hot
// version lookups, plus an in-process implementation.
//
// Implementations must be safe for concurrent use. Callers treat every
// cache operation as best-effort; a failing cache never fails the
// operation that consulted it.
package cache

import (
	"context"
	"sync"
)

// Cache is a byte-oriented key/value cache.
//
// Get reports a miss with found=false and a nil error; errors are
// reserved for backend failures. Set overwrites unconditionally.
// Delete of an absent key is not an error.
type Cache interface {
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Memory is an in-process Cache backed by a mutex-guarded map. Values
// are copied on both Set and Get so callers cannot alias cache
// internals.
type Memory struct {
	mu      sync.RWMutex
	entries map[string][]byte
}

// NewMemory creates an empty in-process cache.
func NewMemory() *Memory {
	return &Memory{
		entries: make(map[string][]byte),
	}
}

// Get retrieves the value for key.
func (m *Memory) Get(ctx context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	value, ok := m.entries[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(value))
	copy(out, value)
	return out, true, nil
}

// Set stores a copy of value under key, replacing any previous value.
func (m *Memory) Set(ctx context.Context, key string, value []byte) error {
	stored := make([]byte, len(value))
	copy(stored, value)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = stored
	return nil
}

// Delete removes key. Deleting an absent key is a no-op.
func (m *Memory) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}

// Len returns the number of cached entries.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
