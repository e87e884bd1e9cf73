package services

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Seedline-Foundation/Coindailynow-sub003/internal/core/domain"
	"github.com/Seedline-Foundation/Coindailynow-sub003/internal/core/ports/driven"
	"github.com/Seedline-Foundation/Coindailynow-sub003/internal/core/ports/driving"
	"github.com/Seedline-Foundation/Coindailynow-sub003/internal/runtime"
)

// Ensure searchService implements SearchService
var _ driving.SearchService = (*searchService)(nil)

const (
	defaultSuggestionLimit = 10
	maxSuggestionLimit     = 50
)

// basicSuggestions are matched by prefix
var basicSuggestions = []string{
	"Bitcoin", "Ethereum", "Cryptocurrency", "Blockchain", "DeFi",
	"NFT", "Trading", "Price", "Market", "Analysis",
}

// regionalSuggestions are matched anywhere in the text
var regionalSuggestions = []string{
	"Bitcoin Africa", "Bitcoin price in Naira", "Luno exchange", "M-Pesa crypto",
	"Cryptocurrency Nigeria", "Binance Africa", "Bitcoin South Africa",
	"Crypto Kenya", "African exchanges", "Mobile money crypto",
}

// searchService implements the SearchService interface
type searchService struct {
	builder     *QueryContextBuilder
	coordinator *RetrievalCoordinator
	fusion      *FusionEngine
	diversity   *DiversityReranker
	cache       *CacheManager
	profiles    *ProfileBuilder
	pipeline    driven.ResultPipeline
	clock       driven.Clock
	metrics     driven.RankingMetrics
	logger      *slog.Logger
}

// NewSearchService creates a new SearchService.
// profiles, pipeline, cache and metrics are optional.
func NewSearchService(
	builder *QueryContextBuilder,
	coordinator *RetrievalCoordinator,
	fusion *FusionEngine,
	diversity *DiversityReranker,
	cache *CacheManager,
	profiles *ProfileBuilder,
	pipeline driven.ResultPipeline,
	clock driven.Clock,
	metrics driven.RankingMetrics,
	logger *slog.Logger,
) driving.SearchService {
	if clock == nil {
		clock = runtime.SystemClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &searchService{
		builder:     builder,
		coordinator: coordinator,
		fusion:      fusion,
		diversity:   diversity,
		cache:       cache,
		profiles:    profiles,
		pipeline:    pipeline,
		clock:       clock,
		metrics:     metrics,
		logger:      logger,
	}
}

// Search runs the anonymous ranking pipeline
func (s *searchService) Search(ctx context.Context, query string, opts domain.SearchOptions) (*domain.SearchResult, error) {
	return s.search(ctx, query, "", opts)
}

// PersonalizedSearch runs the pipeline with the user's profile applied during fusion
func (s *searchService) PersonalizedSearch(ctx context.Context, query string, userID string, opts domain.SearchOptions) (*domain.SearchResult, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", domain.ErrInvalidQuery)
	}
	return s.search(ctx, query, userID, opts)
}

func (s *searchService) search(ctx context.Context, query, userID string, opts domain.SearchOptions) (*domain.SearchResult, error) {
	start := s.clock.Now()

	req, err := s.builder.Build(query, opts, userID, start)
	if err != nil {
		return nil, err
	}

	key := ResultKey(req.NormalizedQuery, opts.WithDefaults(), userID)
	if cached, ok := s.cache.GetResult(ctx, key); ok {
		cached.Performance = domain.Performance{Total: s.clock.Now().Sub(start)}
		s.observe(cached.SearchMethod, true, cached.Performance.Total)
		return cached, nil
	}

	outcome, profile, profileElapsed := s.retrieve(ctx, req)
	tracker := outcome.Tracker

	method := tracker.Resolve()
	if method == domain.SearchMethodFailed {
		report := tracker.Report()
		result := &domain.SearchResult{
			Query:              req.Query,
			Hits:               []domain.FusedResult{},
			SearchMethod:       method,
			Warnings:           report.Warnings,
			Error:              "all retrieval sources failed",
			LanguageProcessing: languageProcessing(req),
			Degradation:        report,
			Performance:        s.performance(start, report, profileElapsed),
		}
		s.logger.Error("search failed",
			"query", req.Query,
			"lexical", report.Source(domain.SourceLexical).Status,
			"semantic", report.Source(domain.SourceSemantic).Status,
		)
		s.observe(method, false, result.Performance.Total)
		return result, fmt.Errorf("%w: query %q", domain.ErrAllSourcesFailed, req.Query)
	}

	fused := s.fusion.Fuse(outcome.Lexical, outcome.Semantic, req, profile)
	if fused.Skipped > 0 {
		tracker.Warn(domain.WarningMalformedHits)
		s.logger.Warn("malformed hits skipped", "query", req.Query, "count", fused.Skipped)
	}

	candidates := fused.Results
	if req.DiversityLevel != domain.DiversityNone {
		candidates = s.diversity.Rerank(candidates, req.DiversityLevel)
	}
	total := len(candidates)
	if len(candidates) > req.Limit {
		candidates = candidates[:req.Limit]
	}
	if candidates == nil {
		candidates = []domain.FusedResult{}
	}

	report := tracker.Report()
	result := domain.SearchResult{
		Query:              req.Query,
		Total:              total,
		Hits:               candidates,
		SearchMethod:       method,
		Warnings:           report.Warnings,
		LanguageProcessing: languageProcessing(req),
		Degradation:        report,
	}
	if s.pipeline != nil {
		result = s.pipeline.Process(req, result)
	}
	result.Performance = s.performance(start, report, profileElapsed)

	// Degraded results are not cached so a recovered source is seen on the next call
	if !method.Degraded() && !slices.Contains(report.Warnings, domain.WarningProfileUnavailable) {
		s.cache.PutResult(ctx, key, &result)
	}

	s.logger.Debug("search completed",
		"query", req.Query,
		"method", method,
		"total", total,
		"returned", len(result.Hits),
		"took", result.Performance.Total,
	)
	s.observe(method, false, result.Performance.Total)
	return &result, nil
}

// retrieve runs retrieval and, for personalized requests, the profile build
// concurrently. A profile failure degrades to unpersonalized fusion.
func (s *searchService) retrieve(ctx context.Context, req *domain.RetrievalRequest) (*RetrievalOutcome, *domain.UserProfile, time.Duration) {
	if !req.Flags.Personalization || s.profiles == nil {
		return s.coordinator.Retrieve(ctx, req), nil, 0
	}

	var (
		outcome        *RetrievalOutcome
		profile        *domain.UserProfile
		profileErr     error
		profileElapsed time.Duration
	)

	var g errgroup.Group
	g.Go(func() error {
		pctx, cancel := context.WithTimeout(ctx, req.Budget)
		defer cancel()
		started := s.clock.Now()
		profile, profileErr = s.profiles.Build(pctx, req.UserID)
		profileElapsed = s.clock.Now().Sub(started)
		return nil
	})
	g.Go(func() error {
		outcome = s.coordinator.Retrieve(ctx, req)
		return nil
	})
	_ = g.Wait()

	if profileErr != nil {
		outcome.Tracker.Warn(domain.WarningProfileUnavailable)
		s.logger.Warn("personalization unavailable",
			"user_id", req.UserID,
			"error", profileErr,
		)
		profile = nil
	}
	return outcome, profile, profileElapsed
}

func (s *searchService) performance(start time.Time, report *domain.DegradationReport, profile time.Duration) domain.Performance {
	return domain.Performance{
		Total:    s.clock.Now().Sub(start),
		Lexical:  report.Source(domain.SourceLexical).Elapsed,
		Semantic: report.Source(domain.SourceSemantic).Elapsed,
		Profile:  profile,
	}
}

func (s *searchService) observe(method domain.SearchMethod, cached bool, elapsed time.Duration) {
	if s.metrics != nil {
		s.metrics.ObserveSearch(method, cached, elapsed)
	}
}

// Suggest provides search suggestions/autocomplete
func (s *searchService) Suggest(_ context.Context, prefix string, limit int) ([]domain.SearchSuggestion, error) {
	if limit <= 0 {
		limit = defaultSuggestionLimit
	}
	if limit > maxSuggestionLimit {
		limit = maxSuggestionLimit
	}

	p := strings.ToLower(strings.TrimSpace(prefix))
	suggestions := make([]domain.SearchSuggestion, 0, limit)
	if p == "" {
		return suggestions, nil
	}

	seen := make(map[string]bool)
	add := func(text string, score float64, regional bool) {
		k := strings.ToLower(text)
		if seen[k] || len(suggestions) >= limit {
			return
		}
		seen[k] = true
		suggestions = append(suggestions, domain.SearchSuggestion{Text: text, Score: score, Regional: regional})
	}

	for _, term := range basicSuggestions {
		if strings.HasPrefix(strings.ToLower(term), p) {
			add(term, 1.0, false)
		}
	}
	for _, term := range regionalSuggestions {
		if strings.Contains(strings.ToLower(term), p) {
			add(term, 0.9, true)
		}
	}
	return suggestions, nil
}
