package settings

import (
	"context"
	"sync"
)

// Compile-time check that MemoryStore implements Store.
var _ Store = (*MemoryStore)(nil)

// MemoryStore is an in-memory implementation of Store. It is used when
// no database is configured; updates are lost on restart.
type MemoryStore struct {
	mu       sync.RWMutex
	current  Settings
	hasValue bool
}

// NewMemoryStore creates an empty in-memory settings store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Get returns the stored settings, or ErrNotFound before the first update.
func (m *MemoryStore) Get(_ context.Context) (*Settings, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.hasValue {
		return nil, ErrNotFound
	}
	out := m.current
	return &out, nil
}

// Update applies patch to the stored settings.
func (m *MemoryStore) Update(_ context.Context, patch Patch) (*Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = patch.Apply(m.current)
	m.hasValue = true
	out := m.current
	return &out, nil
}
