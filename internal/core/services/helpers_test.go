package services

import (
	"sync"
	"time"

	"github.com/Seedline-Foundation/Coindailynow-sub003/internal/core/domain"
	"github.com/Seedline-Foundation/Coindailynow-sub003/internal/core/ports/driven/mocks"
	"github.com/Seedline-Foundation/Coindailynow-sub003/internal/runtime"
)

// fakeClock is a settable driven.Clock
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(now time.Time) *fakeClock {
	return &fakeClock{now: now}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// createTestServices creates runtime services with optional semantic collaborators
func createTestServices(embedder *mocks.MockEmbeddingService, index *mocks.MockSemanticIndex) *runtime.Services {
	semanticBackend := ""
	if index != nil {
		semanticBackend = "hnsw"
	}
	services := runtime.NewServices(domain.NewRuntimeConfig("bleve", semanticBackend, "memory"))
	if embedder != nil {
		services.SetEmbeddingService(embedder)
	}
	if index != nil {
		services.SetSemanticIndex(index)
	}
	return services
}

func hit(id, title string, score float64) *domain.SourceHit {
	return &domain.SourceHit{ID: id, Title: title, Score: score}
}

func categorized(id, category string, score float64, tags ...string) domain.FusedResult {
	return domain.FusedResult{
		ID:         id,
		Title:      id,
		Category:   category,
		Tags:       tags,
		Score:      score,
		FinalScore: score,
	}
}

func ids(results []domain.FusedResult) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.ID
	}
	return out
}
