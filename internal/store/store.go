// Package store persists the viewer session as a flat string-keyed record.
//
// Each control change writes its own key. There is no grouping across keys,
// so a reader must tolerate any key being missing or stale.
package store

import (
	"sort"
	"sync"
)

// Session keys.
const (
	KeyStructure      = "pdbData"
	KeyFileName       = "fileName"
	KeyRepresentation = "representation"
	KeyFilter         = "residueFilter"
	KeySize           = "sizeSelection"
	KeyProteinRadius  = "proteinRadius"
	KeyWaterRadius    = "waterRadius"
	KeyHighlight      = "highlightEnabled"
	KeyCustomExpr     = "customExpr"
)

// Keys lists every session key.
var Keys = []string{
	KeyStructure, KeyFileName,
	KeyRepresentation, KeyFilter, KeySize,
	KeyProteinRadius, KeyWaterRadius,
	KeyHighlight, KeyCustomExpr,
}

// Store is a synchronous string-keyed get/set/remove store.
type Store interface {
	Get(key string) (string, bool)
	Set(key, value string) error
	Remove(key string) error
}

// Memory is an in-process Store, safe for concurrent use.
type Memory struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemory returns an empty Memory store.
func NewMemory() *Memory {
	return &Memory{values: make(map[string]string)}
}

func (m *Memory) Get(key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok
}

func (m *Memory) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *Memory) Remove(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

// Snapshot returns a copy of every stored value.
func (m *Memory) Snapshot() map[string]string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]string, len(m.values))
	for k, v := range m.values {
		out[k] = v
	}
	return out
}

// Len returns the number of stored keys.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.values)
}

func sortedKeys(values map[string]string) []string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
