// Package versions tracks, per key, the last version a consumer has started
// processing.
package versions

import "sync"

// Map is safe for concurrent use. Versions only move forward.
type Map struct {
	mu   sync.Mutex
	last map[string]uint64
}

// New returns a map with every key at version 0.
func New(keys ...string) *Map {
	m := &Map{last: make(map[string]uint64, len(keys))}
	for _, k := range keys {
		m.last[k] = 0
	}
	return m
}

// Advance records version for key and reports true when the caller should
// process it: version is non-zero and newer than the recorded one.
// Version 0 means "never produced" and is always refused.
func (m *Map) Advance(key string, version uint64) bool {
	if version == 0 {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if version <= m.last[key] {
		return false
	}
	m.last[key] = version
	return true
}

// Get returns the last recorded version for key.
func (m *Map) Get(key string) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last[key]
}
