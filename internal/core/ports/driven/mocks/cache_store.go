package mocks

import (
	"context"
	"path"
	"sync"
	"time"

	"github.com/Seedline-Foundation/Coindailynow-sub003/internal/core/ports/driven"
)

var _ driven.CacheStore = (*MockCacheStore)(nil)

// MockCacheStore is a map-backed CacheStore that ignores TTLs and can be
// switched into a failing mode
type MockCacheStore struct {
	mu      sync.RWMutex
	entries map[string][]byte
	ttls    map[string]time.Duration
	err     error
}

// NewMockCacheStore creates a new MockCacheStore
func NewMockCacheStore() *MockCacheStore {
	return &MockCacheStore{
		entries: make(map[string][]byte),
		ttls:    make(map[string]time.Duration),
	}
}

func (m *MockCacheStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.err != nil {
		return nil, false, m.err
	}
	v, ok := m.entries[key]
	return v, ok, nil
}

func (m *MockCacheStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.entries[key] = value
	m.ttls[key] = ttl
	return nil
}

func (m *MockCacheStore) Invalidate(ctx context.Context, pattern string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, m.err
	}
	n := 0
	for k := range m.entries {
		if ok, _ := path.Match(pattern, k); ok {
			delete(m.entries, k)
			delete(m.ttls, k)
			n++
		}
	}
	return n, nil
}

// Helper methods for testing

func (m *MockCacheStore) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func (m *MockCacheStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

func (m *MockCacheStore) TTL(key string) time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ttls[key]
}

func (m *MockCacheStore) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.entries))
	for k := range m.entries {
		keys = append(keys, k)
	}
	return keys
}
