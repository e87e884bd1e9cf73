// Package resilience wraps remote retrieval sources in circuit breakers so a
// failing backend is skipped quickly instead of consuming the search budget.
package resilience

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/Seedline-Foundation/Coindailynow-sub003/internal/core/domain"
	"github.com/Seedline-Foundation/Coindailynow-sub003/internal/core/ports/driven"
)

// Verify interface compliance
var (
	_ driven.LexicalIndex     = (*LexicalIndex)(nil)
	_ driven.SemanticIndex    = (*SemanticIndex)(nil)
	_ driven.EmbeddingService = (*EmbeddingService)(nil)
)

// Config tunes a breaker
type Config struct {
	// FailureThreshold is the number of consecutive failures that opens the breaker
	FailureThreshold uint32

	// OpenTimeout is how long the breaker stays open before probing
	OpenTimeout time.Duration

	// HalfOpenMaxCalls is the number of probes allowed while half-open
	HalfOpenMaxCalls uint32
}

// DefaultConfig returns the breaker defaults
func DefaultConfig() Config {
	return Config{
		FailureThreshold: 5,
		OpenTimeout:      30 * time.Second,
		HalfOpenMaxCalls: 1,
	}
}

func (c Config) normalize() Config {
	def := DefaultConfig()
	if c.FailureThreshold == 0 {
		c.FailureThreshold = def.FailureThreshold
	}
	if c.OpenTimeout <= 0 {
		c.OpenTimeout = def.OpenTimeout
	}
	if c.HalfOpenMaxCalls == 0 {
		c.HalfOpenMaxCalls = def.HalfOpenMaxCalls
	}
	return c
}

func newBreaker[T any](name string, cfg Config, logger *slog.Logger) *gobreaker.CircuitBreaker[T] {
	cfg = cfg.normalize()
	if logger == nil {
		logger = slog.Default()
	}
	return gobreaker.NewCircuitBreaker[T](gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.HalfOpenMaxCalls,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		IsSuccessful: isSuccessful,
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change", "source", name, "from", from.String(), "to", to.String())
		},
	})
}

// isSuccessful keeps caller mistakes and cancellations from tripping the breaker.
// Deadline overruns count: a source that keeps timing out is unhealthy.
func isSuccessful(err error) bool {
	if err == nil {
		return true
	}
	return errors.Is(err, context.Canceled) || errors.Is(err, domain.ErrInvalidInput)
}

// IsCircuitOpen reports whether err was returned without calling the source
func IsCircuitOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

// mapError marks rejected calls as source failures
func mapError(name string, err error) error {
	if IsCircuitOpen(err) {
		return fmt.Errorf("%w: %s: %w", domain.ErrSourceFailure, name, err)
	}
	return err
}

// LexicalIndex guards a lexical index with a circuit breaker
type LexicalIndex struct {
	next    driven.LexicalIndex
	breaker *gobreaker.CircuitBreaker[*driven.LexicalResult]
}

// NewLexicalIndex wraps next
func NewLexicalIndex(next driven.LexicalIndex, cfg Config, logger *slog.Logger) *LexicalIndex {
	return &LexicalIndex{
		next:    next,
		breaker: newBreaker[*driven.LexicalResult]("lexical", cfg, logger),
	}
}

func (l *LexicalIndex) Search(ctx context.Context, query string, opts driven.LexicalOptions) (*driven.LexicalResult, error) {
	res, err := l.breaker.Execute(func() (*driven.LexicalResult, error) {
		return l.next.Search(ctx, query, opts)
	})
	return res, mapError("lexical", err)
}

// HealthCheck bypasses the breaker so readiness reflects the backend itself
func (l *LexicalIndex) HealthCheck(ctx context.Context) error {
	return l.next.HealthCheck(ctx)
}

// State returns the breaker state
func (l *LexicalIndex) State() gobreaker.State {
	return l.breaker.State()
}

// SemanticIndex guards a semantic index with a circuit breaker
type SemanticIndex struct {
	next    driven.SemanticIndex
	breaker *gobreaker.CircuitBreaker[[]*domain.SourceHit]
}

// NewSemanticIndex wraps next
func NewSemanticIndex(next driven.SemanticIndex, cfg Config, logger *slog.Logger) *SemanticIndex {
	return &SemanticIndex{
		next:    next,
		breaker: newBreaker[[]*domain.SourceHit]("semantic", cfg, logger),
	}
}

func (s *SemanticIndex) Search(ctx context.Context, embedding []float32, opts driven.SemanticOptions) ([]*domain.SourceHit, error) {
	hits, err := s.breaker.Execute(func() ([]*domain.SourceHit, error) {
		return s.next.Search(ctx, embedding, opts)
	})
	return hits, mapError("semantic", err)
}

func (s *SemanticIndex) HealthCheck(ctx context.Context) error {
	return s.next.HealthCheck(ctx)
}

// State returns the breaker state
func (s *SemanticIndex) State() gobreaker.State {
	return s.breaker.State()
}

// EmbeddingService guards query and batch embedding calls with one breaker
type EmbeddingService struct {
	next    driven.EmbeddingService
	breaker *gobreaker.CircuitBreaker[[][]float32]
}

// NewEmbeddingService wraps next
func NewEmbeddingService(next driven.EmbeddingService, cfg Config, logger *slog.Logger) *EmbeddingService {
	return &EmbeddingService{
		next:    next,
		breaker: newBreaker[[][]float32]("embedding", cfg, logger),
	}
}

func (e *EmbeddingService) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	vectors, err := e.breaker.Execute(func() ([][]float32, error) {
		return e.next.Embed(ctx, texts)
	})
	return vectors, mapError("embedding", err)
}

func (e *EmbeddingService) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	vectors, err := e.breaker.Execute(func() ([][]float32, error) {
		vec, err := e.next.EmbedQuery(ctx, query)
		if err != nil {
			return nil, err
		}
		return [][]float32{vec}, nil
	})
	if err != nil {
		return nil, mapError("embedding", err)
	}
	return vectors[0], nil
}

func (e *EmbeddingService) Dimensions() int { return e.next.Dimensions() }

func (e *EmbeddingService) Model() string { return e.next.Model() }

func (e *EmbeddingService) HealthCheck(ctx context.Context) error {
	return e.next.HealthCheck(ctx)
}

func (e *EmbeddingService) Close() error { return e.next.Close() }

// State returns the breaker state
func (e *EmbeddingService) State() gobreaker.State {
	return e.breaker.State()
}
