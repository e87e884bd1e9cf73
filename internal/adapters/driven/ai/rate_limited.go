package ai

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/Seedline-Foundation/Coindailynow-sub003/internal/core/ports/driven"
)

// Ensure RateLimitedEmbedder implements EmbeddingService
var _ driven.EmbeddingService = (*RateLimitedEmbedder)(nil)

// RateLimitedEmbedder throttles calls to an embedding service.
// Callers wait for a token until their context expires, so a throttled
// query embedding turns into a semantic timeout rather than a queue.
type RateLimitedEmbedder struct {
	next    driven.EmbeddingService
	limiter *rate.Limiter
}

// NewRateLimitedEmbedder allows perSecond requests with the given burst.
// A non-positive rate disables throttling.
func NewRateLimitedEmbedder(next driven.EmbeddingService, perSecond float64, burst int) *RateLimitedEmbedder {
	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}
	if burst <= 0 {
		burst = 1
	}
	return &RateLimitedEmbedder{
		next:    next,
		limiter: rate.NewLimiter(limit, burst),
	}
}

func (r *RateLimitedEmbedder) wait(ctx context.Context) error {
	if err := r.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("embedding rate limit: %w", err)
	}
	return nil
}

// Embed waits for one token per call
func (r *RateLimitedEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if err := r.wait(ctx); err != nil {
		return nil, err
	}
	return r.next.Embed(ctx, texts)
}

// EmbedQuery waits for a token then embeds the query
func (r *RateLimitedEmbedder) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	if err := r.wait(ctx); err != nil {
		return nil, err
	}
	return r.next.EmbedQuery(ctx, query)
}

func (r *RateLimitedEmbedder) Dimensions() int { return r.next.Dimensions() }

func (r *RateLimitedEmbedder) Model() string { return r.next.Model() }

// HealthCheck bypasses the limiter
func (r *RateLimitedEmbedder) HealthCheck(ctx context.Context) error {
	return r.next.HealthCheck(ctx)
}

func (r *RateLimitedEmbedder) Close() error { return r.next.Close() }
