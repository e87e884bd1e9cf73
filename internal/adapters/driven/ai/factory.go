package ai

import (
	"github.com/Seedline-Foundation/Coindailynow-sub003/internal/core/ports/driven"
)

// Settings selects and throttles the embedding service
type Settings struct {
	Config

	// RateLimit is requests per second; 0 disables throttling
	RateLimit float64
	RateBurst int
}

// IsConfigured reports whether an endpoint is set
func (s Settings) IsConfigured() bool {
	return s.APIKey != "" || s.BaseURL != ""
}

// NewEmbeddingService creates the throttled embedding service.
// Returns nil, nil if settings are not configured.
func NewEmbeddingService(settings Settings) (driven.EmbeddingService, error) {
	if !settings.IsConfigured() {
		return nil, nil
	}

	svc, err := NewOpenAIEmbedding(settings.Config)
	if err != nil {
		return nil, err
	}
	if settings.RateLimit <= 0 {
		return svc, nil
	}
	return NewRateLimitedEmbedder(svc, settings.RateLimit, settings.RateBurst), nil
}
