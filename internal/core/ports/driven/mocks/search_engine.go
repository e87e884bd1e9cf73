package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/Seedline-Foundation/Coindailynow-sub003/internal/core/domain"
	"github.com/Seedline-Foundation/Coindailynow-sub003/internal/core/ports/driven"
)

var (
	_ driven.LexicalIndex  = (*MockLexicalIndex)(nil)
	_ driven.SemanticIndex = (*MockSemanticIndex)(nil)
)

// sourceBehaviour is the shared programmable behaviour of the index mocks
type sourceBehaviour struct {
	mu    sync.RWMutex
	hits  []*domain.SourceHit
	err   error
	delay time.Duration
	calls int
}

func (b *sourceBehaviour) run(ctx context.Context, limit int, origin domain.Source) ([]*domain.SourceHit, error) {
	b.mu.Lock()
	b.calls++
	hits, err, delay := b.hits, b.err, b.delay
	b.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}

	out := make([]*domain.SourceHit, 0, len(hits))
	for _, h := range hits {
		if limit > 0 && len(out) >= limit {
			break
		}
		if h == nil {
			out = append(out, nil)
			continue
		}
		cp := *h
		cp.Tags = append([]string(nil), h.Tags...)
		cp.Origin = origin
		out = append(out, &cp)
	}
	return out, nil
}

func (b *sourceBehaviour) set(hits []*domain.SourceHit, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.hits = hits
	b.err = err
}

// MockLexicalIndex is a programmable LexicalIndex for testing
type MockLexicalIndex struct {
	sourceBehaviour
	lastQuery string
	lastOpts  driven.LexicalOptions
}

// NewMockLexicalIndex creates a MockLexicalIndex returning hits
func NewMockLexicalIndex(hits ...*domain.SourceHit) *MockLexicalIndex {
	m := &MockLexicalIndex{}
	m.hits = hits
	return m
}

func (m *MockLexicalIndex) Search(ctx context.Context, query string, opts driven.LexicalOptions) (*driven.LexicalResult, error) {
	m.mu.Lock()
	m.lastQuery = query
	m.lastOpts = opts
	m.mu.Unlock()

	start := time.Now()
	hits, err := m.run(ctx, opts.Limit, domain.SourceLexical)
	if err != nil {
		return nil, err
	}
	return &driven.LexicalResult{Total: len(hits), Hits: hits, Took: time.Since(start)}, nil
}

func (m *MockLexicalIndex) HealthCheck(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.err
}

// Helper methods for testing

func (m *MockLexicalIndex) SetHits(hits ...*domain.SourceHit) { m.set(hits, nil) }

func (m *MockLexicalIndex) SetError(err error) { m.set(nil, err) }

func (m *MockLexicalIndex) SetDelay(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delay = d
}

func (m *MockLexicalIndex) Calls() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.calls
}

func (m *MockLexicalIndex) LastQuery() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastQuery
}

func (m *MockLexicalIndex) LastOptions() driven.LexicalOptions {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastOpts
}

// MockSemanticIndex is a programmable SemanticIndex for testing
type MockSemanticIndex struct {
	sourceBehaviour
	lastEmbedding []float32
}

// NewMockSemanticIndex creates a MockSemanticIndex returning hits
func NewMockSemanticIndex(hits ...*domain.SourceHit) *MockSemanticIndex {
	m := &MockSemanticIndex{}
	m.hits = hits
	return m
}

func (m *MockSemanticIndex) Search(ctx context.Context, embedding []float32, opts driven.SemanticOptions) ([]*domain.SourceHit, error) {
	m.mu.Lock()
	m.lastEmbedding = embedding
	m.mu.Unlock()
	return m.run(ctx, opts.Limit, domain.SourceSemantic)
}

func (m *MockSemanticIndex) HealthCheck(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.err
}

// Helper methods for testing

func (m *MockSemanticIndex) SetHits(hits ...*domain.SourceHit) { m.set(hits, nil) }

func (m *MockSemanticIndex) SetError(err error) { m.set(nil, err) }

func (m *MockSemanticIndex) SetDelay(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delay = d
}

func (m *MockSemanticIndex) Calls() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.calls
}

func (m *MockSemanticIndex) LastEmbedding() []float32 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastEmbedding
}
