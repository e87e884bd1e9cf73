package mocks

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Seedline-Foundation/Coindailynow-sub003/internal/core/domain"
	"github.com/Seedline-Foundation/Coindailynow-sub003/internal/core/ports/driven"
)

var _ driven.EngagementStore = (*MockEngagementStore)(nil)

// MockEngagementStore is an in-memory EngagementStore for testing
type MockEngagementStore struct {
	mu          sync.RWMutex
	readers     map[string]*domain.Reader
	engagements map[string][]*domain.Engagement
	err         error
	calls       int
}

// NewMockEngagementStore creates a new MockEngagementStore
func NewMockEngagementStore() *MockEngagementStore {
	return &MockEngagementStore{
		readers:     make(map[string]*domain.Reader),
		engagements: make(map[string][]*domain.Engagement),
	}
}

func (m *MockEngagementStore) GetReader(ctx context.Context, userID string) (*domain.Reader, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	r, ok := m.readers[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return r, nil
}

func (m *MockEngagementStore) RecentEngagements(ctx context.Context, userID string, limit int) ([]*domain.Engagement, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.err != nil {
		return nil, m.err
	}

	out := append([]*domain.Engagement(nil), m.engagements[userID]...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MockEngagementStore) ReadArticleIDs(ctx context.Context, userID string, since time.Time) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.err != nil {
		return nil, m.err
	}

	seen := make(map[string]bool)
	var ids []string
	for _, e := range m.engagements[userID] {
		if e.Action != domain.ActionView || e.CreatedAt.Before(since) || seen[e.ArticleID] {
			continue
		}
		seen[e.ArticleID] = true
		ids = append(ids, e.ArticleID)
	}
	return ids, nil
}

// Helper methods for testing

func (m *MockEngagementStore) AddReader(r *domain.Reader) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readers[r.ID] = r
}

func (m *MockEngagementStore) AddEngagement(e *domain.Engagement) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.engagements[e.UserID] = append(m.engagements[e.UserID], e)
}

func (m *MockEngagementStore) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// ReaderLookups returns how many times GetReader was called
func (m *MockEngagementStore) ReaderLookups() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.calls
}
