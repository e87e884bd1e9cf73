package mocks

import (
	"sync"
	"time"

	"github.com/Seedline-Foundation/Coindailynow-sub003/internal/core/domain"
	"github.com/Seedline-Foundation/Coindailynow-sub003/internal/core/ports/driven"
)

var _ driven.RankingMetrics = (*MockRankingMetrics)(nil)

// MockRankingMetrics records observations for assertions
type MockRankingMetrics struct {
	mu              sync.Mutex
	Searches        []domain.SearchMethod
	Sources         map[domain.Source][]domain.SourceStatus
	Recommendations int
	CacheHits       map[string]int
	CacheMisses     map[string]int
}

// NewMockRankingMetrics creates a new MockRankingMetrics
func NewMockRankingMetrics() *MockRankingMetrics {
	return &MockRankingMetrics{
		Sources:     make(map[domain.Source][]domain.SourceStatus),
		CacheHits:   make(map[string]int),
		CacheMisses: make(map[string]int),
	}
}

func (m *MockRankingMetrics) ObserveSearch(method domain.SearchMethod, cached bool, elapsed time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Searches = append(m.Searches, method)
}

func (m *MockRankingMetrics) ObserveSource(source domain.Source, status domain.SourceStatus, elapsed time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sources[source] = append(m.Sources[source], status)
}

func (m *MockRankingMetrics) ObserveRecommendation(cached, personalized bool, elapsed time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Recommendations++
}

func (m *MockRankingMetrics) ObserveCache(namespace string, hit bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if hit {
		m.CacheHits[namespace]++
	} else {
		m.CacheMisses[namespace]++
	}
}

// SourceStatuses returns a copy of the statuses recorded for source
func (m *MockRankingMetrics) SourceStatuses(source domain.Source) []domain.SourceStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.SourceStatus(nil), m.Sources[source]...)
}
