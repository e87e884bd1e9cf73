package runtime

import (
	"context"
	"sync"

	"github.com/Seedline-Foundation/Coindailynow-sub003/internal/core/domain"
	"github.com/Seedline-Foundation/Coindailynow-sub003/internal/core/ports/driven"
)

// Services holds references to dynamically configurable ranking collaborators.
// The embedding service and semantic index can be swapped at runtime (for
// example after a failed health check) without restarting the pipeline.
// Thread-safe for concurrent access.
type Services struct {
	mu sync.RWMutex

	// Config tracks capability flags
	config *domain.RuntimeConfig

	// Dynamic services (can be nil, updated at runtime)
	embeddingService driven.EmbeddingService
	semanticIndex    driven.SemanticIndex
}

// NewServices creates a new Services registry
func NewServices(config *domain.RuntimeConfig) *Services {
	return &Services{
		config: config,
	}
}

// Config returns the runtime configuration
func (s *Services) Config() *domain.RuntimeConfig {
	return s.config
}

// EmbeddingService returns the current embedding service (may be nil)
func (s *Services) EmbeddingService() driven.EmbeddingService {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.embeddingService
}

// SemanticIndex returns the current semantic index (may be nil)
func (s *Services) SemanticIndex() driven.SemanticIndex {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.semanticIndex
}

// Semantic returns both semantic collaborators in one consistent read.
// ok is false unless both are configured.
func (s *Services) Semantic() (driven.EmbeddingService, driven.SemanticIndex, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ok := s.embeddingService != nil && s.semanticIndex != nil
	return s.embeddingService, s.semanticIndex, ok
}

// SetEmbeddingService updates the embedding service.
// Closes the old service if present. Updates config flags.
func (s *Services) SetEmbeddingService(svc driven.EmbeddingService) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Close old service
	if s.embeddingService != nil && s.embeddingService != svc {
		_ = s.embeddingService.Close()
	}

	s.embeddingService = svc
	s.config.SetEmbeddingAvailable(svc != nil)
}

// SetSemanticIndex updates the semantic index
func (s *Services) SetSemanticIndex(idx driven.SemanticIndex) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.semanticIndex = idx
}

// Close shuts down all services
func (s *Services) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.embeddingService != nil {
		_ = s.embeddingService.Close()
		s.embeddingService = nil
	}
	s.semanticIndex = nil

	s.config.SetEmbeddingAvailable(false)

	return nil
}

// ValidateAndSetEmbedding validates connectivity before setting embedding service
func (s *Services) ValidateAndSetEmbedding(ctx context.Context, svc driven.EmbeddingService) error {
	if svc == nil {
		s.SetEmbeddingService(nil)
		return nil
	}

	// Validate connectivity
	if err := svc.HealthCheck(ctx); err != nil {
		_ = svc.Close()
		return err
	}

	s.SetEmbeddingService(svc)
	return nil
}
