// Package mock provides an in-memory implementation of store.Store for testing.
package mock

import (
	"context"
	"sync"

	"github.com/kozaktomas/face-index/internal/identity"
)

// MockStore is an in-memory store.Store with error injection and call counters.
type MockStore struct {
	mu      sync.RWMutex
	entries []identity.Entry

	// Error injection
	LoadError   error
	AppendError error

	// Call counters
	LoadCalls   int
	AppendCalls int
}

// NewMockStore creates a mock store seeded with entries.
func NewMockStore(entries ...identity.Entry) *MockStore {
	return &MockStore{entries: identity.CloneAll(entries)}
}

// Load returns a copy of the stored entries.
func (m *MockStore) Load(ctx context.Context) ([]identity.Entry, error) {
	m.mu.Lock()
	m.LoadCalls++
	m.mu.Unlock()

	if m.LoadError != nil {
		return nil, m.LoadError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return identity.CloneAll(m.entries), nil
}

// Count returns the number of stored entries.
func (m *MockStore) Count(ctx context.Context) (int, error) {
	if m.LoadError != nil {
		return 0, m.LoadError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries), nil
}

// AppendAll appends copies of entries.
func (m *MockStore) AppendAll(ctx context.Context, entries []identity.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.AppendCalls++

	if m.AppendError != nil {
		return m.AppendError
	}
	m.entries = append(m.entries, identity.CloneAll(entries)...)
	return nil
}

// Set replaces the stored entries.
func (m *MockStore) Set(entries ...identity.Entry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = identity.CloneAll(entries)
}
