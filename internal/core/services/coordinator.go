package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Seedline-Foundation/Coindailynow-sub003/internal/core/domain"
	"github.com/Seedline-Foundation/Coindailynow-sub003/internal/core/ports/driven"
	"github.com/Seedline-Foundation/Coindailynow-sub003/internal/runtime"
)

// CoordinatorConfig tunes the retrieval fan-out
type CoordinatorConfig struct {
	// SemanticSlack is the budget that must remain for semantic retrieval to start
	SemanticSlack time.Duration `yaml:"semantic_slack"`
	Fuzziness     string        `yaml:"fuzziness"`
	MinSimilarity float64       `yaml:"min_similarity"`
}

// DefaultCoordinatorConfig returns the default fan-out settings
func DefaultCoordinatorConfig() CoordinatorConfig {
	return CoordinatorConfig{
		SemanticSlack: 100 * time.Millisecond,
		Fuzziness:     "AUTO",
	}
}

// RetrievalOutcome is what the sources produced within the budget
type RetrievalOutcome struct {
	Lexical      []*domain.SourceHit
	Semantic     []*domain.SourceHit
	LexicalTotal int
	Tracker      *DegradationTracker
}

type sourceResult struct {
	source  domain.Source
	hits    []*domain.SourceHit
	total   int
	elapsed time.Duration
	err     error
}

// RetrievalCoordinator fans a request out to the lexical and semantic
// sources under one shared deadline.
type RetrievalCoordinator struct {
	lexical  driven.LexicalIndex
	services *runtime.Services
	cache    *CacheManager
	clock    driven.Clock
	metrics  driven.RankingMetrics
	config   CoordinatorConfig
	logger   *slog.Logger
}

// NewRetrievalCoordinator creates a RetrievalCoordinator.
// The embedding service and semantic index are read from services on every
// request so they can be swapped at runtime.
func NewRetrievalCoordinator(
	lexical driven.LexicalIndex,
	services *runtime.Services,
	cache *CacheManager,
	clock driven.Clock,
	metrics driven.RankingMetrics,
	config CoordinatorConfig,
	logger *slog.Logger,
) *RetrievalCoordinator {
	if clock == nil {
		clock = runtime.SystemClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RetrievalCoordinator{
		lexical:  lexical,
		services: services,
		cache:    cache,
		clock:    clock,
		metrics:  metrics,
		config:   config,
		logger:   logger,
	}
}

// Retrieve runs the sources concurrently and returns whatever completed
// before the request deadline. It never returns an error; every failure is
// recorded on the outcome's tracker.
func (c *RetrievalCoordinator) Retrieve(ctx context.Context, req *domain.RetrievalRequest) *RetrievalOutcome {
	tracker := NewDegradationTracker()
	out := &RetrievalOutcome{Tracker: tracker}

	elapsed := c.clock.Now().Sub(req.StartedAt)
	remaining := req.Budget - elapsed
	if remaining <= 0 {
		c.record(tracker, sourceResult{source: domain.SourceLexical, err: domain.ErrSourceTimeout})
		c.skip(tracker, domain.SourceSemantic, c.semanticSkipReason(req, elapsed))
		return out
	}

	ctx, cancel := context.WithTimeout(ctx, remaining)
	defer cancel()

	// Buffered so abandoned goroutines can deliver and exit after the deadline
	results := make(chan sourceResult, 2)
	pending := make(map[domain.Source]time.Time, 2)

	pending[domain.SourceLexical] = c.clock.Now()
	go func() {
		results <- c.searchLexical(ctx, req)
	}()

	if reason := c.semanticSkipReason(req, elapsed); reason != "" {
		c.skip(tracker, domain.SourceSemantic, reason)
	} else {
		embedder, index, _ := c.services.Semantic()
		pending[domain.SourceSemantic] = c.clock.Now()
		go func() {
			results <- c.searchSemantic(ctx, req, embedder, index)
		}()
	}

	for len(pending) > 0 {
		select {
		case r := <-results:
			delete(pending, r.source)
			c.record(tracker, r)
			switch r.source {
			case domain.SourceLexical:
				if r.err == nil {
					out.Lexical = r.hits
					out.LexicalTotal = r.total
				}
			case domain.SourceSemantic:
				if r.err == nil {
					out.Semantic = r.hits
				}
			}
		case <-ctx.Done():
			err := domain.ErrSourceTimeout
			if !errors.Is(ctx.Err(), context.DeadlineExceeded) {
				err = fmt.Errorf("%w: %v", domain.ErrSourceFailure, ctx.Err())
			}
			for source, started := range pending {
				c.record(tracker, sourceResult{source: source, elapsed: c.clock.Now().Sub(started), err: err})
			}
			pending = nil
		}
	}

	return out
}

// semanticSkipReason returns why semantic retrieval must not start, or ""
func (c *RetrievalCoordinator) semanticSkipReason(req *domain.RetrievalRequest, elapsed time.Duration) string {
	if !req.Flags.Semantic {
		return domain.SkipReasonDisabled
	}
	if elapsed > req.Budget-c.config.SemanticSlack {
		return domain.SkipReasonBudget
	}
	if c.services == nil || !c.services.Config().CanDoSemanticSearch() {
		return domain.SkipReasonUnavailable
	}
	if _, _, ok := c.services.Semantic(); !ok {
		return domain.SkipReasonUnavailable
	}
	return ""
}

func (c *RetrievalCoordinator) searchLexical(ctx context.Context, req *domain.RetrievalRequest) sourceResult {
	start := c.clock.Now()
	res, err := c.lexical.Search(ctx, req.NormalizedQuery, driven.LexicalOptions{
		Language:  req.Language,
		Limit:     req.FetchLimit(),
		Fuzziness: c.config.Fuzziness,
		Type:      req.Type,
	})
	r := sourceResult{source: domain.SourceLexical, elapsed: c.clock.Now().Sub(start), err: err}
	if err == nil && res != nil {
		r.hits = res.Hits
		r.total = res.Total
	}
	return r
}

func (c *RetrievalCoordinator) searchSemantic(ctx context.Context, req *domain.RetrievalRequest, embedder driven.EmbeddingService, index driven.SemanticIndex) sourceResult {
	start := c.clock.Now()
	r := sourceResult{source: domain.SourceSemantic}

	vec, ok := c.cache.GetEmbedding(ctx, req.EmbeddingText)
	if !ok {
		var err error
		vec, err = embedder.EmbedQuery(ctx, req.EmbeddingText)
		if err != nil {
			r.err = fmt.Errorf("embed query: %w", err)
			r.elapsed = c.clock.Now().Sub(start)
			return r
		}
		c.cache.PutEmbedding(ctx, req.EmbeddingText, vec)
	}

	hits, err := index.Search(ctx, vec, driven.SemanticOptions{
		Language:      req.Language,
		Limit:         req.FetchLimit(),
		MinSimilarity: c.config.MinSimilarity,
	})
	r.elapsed = c.clock.Now().Sub(start)
	if err != nil {
		r.err = err
		return r
	}
	r.hits = hits
	r.total = len(hits)
	return r
}

func (c *RetrievalCoordinator) record(tracker *DegradationTracker, r sourceResult) {
	status := domain.SourceStatusOK
	if r.err != nil {
		status = classifySourceError(r.err)
		c.logger.Warn("retrieval source degraded",
			"source", r.source,
			"status", status,
			"elapsed", r.elapsed,
			"error", r.err,
		)
	}
	tracker.Record(r.source, status, r.elapsed, len(r.hits), r.err)
	if c.metrics != nil {
		c.metrics.ObserveSource(r.source, status, r.elapsed)
	}
}

func (c *RetrievalCoordinator) skip(tracker *DegradationTracker, source domain.Source, reason string) {
	tracker.Skip(source, reason)
	if c.metrics != nil {
		c.metrics.ObserveSource(source, domain.SourceStatusSkipped, 0)
	}
}

// classifySourceError maps a source error to timeout or error
func classifySourceError(err error) domain.SourceStatus {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, domain.ErrSourceTimeout) {
		return domain.SourceStatusTimeout
	}
	return domain.SourceStatusError
}
