package mocks

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Seedline-Foundation/Coindailynow-sub003/internal/core/domain"
	"github.com/Seedline-Foundation/Coindailynow-sub003/internal/core/ports/driven"
)

var _ driven.ContentStore = (*MockContentStore)(nil)

// MockContentStore is an in-memory ContentStore for testing
type MockContentStore struct {
	mu         sync.RWMutex
	articles   []*domain.Article
	embeddings []*driven.ArticleEmbedding
	err        error
	lastFilter driven.CandidateFilter
}

// NewMockContentStore creates a MockContentStore holding articles
func NewMockContentStore(articles ...*domain.Article) *MockContentStore {
	return &MockContentStore{articles: articles}
}

func (m *MockContentStore) ListCandidates(ctx context.Context, filter driven.CandidateFilter) ([]*domain.Article, error) {
	m.mu.Lock()
	m.lastFilter = filter
	m.mu.Unlock()

	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.err != nil {
		return nil, m.err
	}

	exclude := make(map[string]bool, len(filter.ExcludeIDs))
	for _, id := range filter.ExcludeIDs {
		exclude[id] = true
	}
	categories := make(map[string]bool, len(filter.Categories))
	for _, c := range filter.Categories {
		categories[c] = true
	}

	var out []*domain.Article
	for _, a := range m.articles {
		if exclude[a.ID] {
			continue
		}
		if len(categories) > 0 && !categories[a.Category] {
			continue
		}
		if !filter.Since.IsZero() && a.PublishedAt.Before(filter.Since) {
			continue
		}
		out = append(out, a)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].PublishedAt.After(out[j].PublishedAt)
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (m *MockContentStore) ListTrending(ctx context.Context, since time.Time, limit int) ([]*domain.Article, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.err != nil {
		return nil, m.err
	}

	var out []*domain.Article
	for _, a := range m.articles {
		if a.PublishedAt.Before(since) {
			continue
		}
		out = append(out, a)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ViewCount > out[j].ViewCount
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MockContentStore) ListArticles(ctx context.Context, limit int) ([]*domain.Article, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	out := append([]*domain.Article(nil), m.articles...)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MockContentStore) ListEmbeddings(ctx context.Context, model string) ([]*driven.ArticleEmbedding, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	var out []*driven.ArticleEmbedding
	for _, e := range m.embeddings {
		if model == "" || e.Model == model {
			out = append(out, e)
		}
	}
	return out, nil
}

// Helper methods for testing

func (m *MockContentStore) AddArticle(a *domain.Article) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.articles = append(m.articles, a)
}

func (m *MockContentStore) AddEmbedding(e *driven.ArticleEmbedding) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.embeddings = append(m.embeddings, e)
}

func (m *MockContentStore) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func (m *MockContentStore) LastFilter() driven.CandidateFilter {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastFilter
}
