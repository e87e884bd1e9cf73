package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Seedline-Foundation/Coindailynow-sub003/internal/core/domain"
	"github.com/Seedline-Foundation/Coindailynow-sub003/internal/core/ports/driven"
	"github.com/Seedline-Foundation/Coindailynow-sub003/internal/core/ports/driving"
	"github.com/Seedline-Foundation/Coindailynow-sub003/internal/runtime"
)

// Ensure recommendationService implements RecommendationService
var _ driving.RecommendationService = (*recommendationService)(nil)

// Base score weights for a recommendation candidate
const (
	categoryMatchWeight  = 0.3
	topicInterestWeight  = 0.25
	regionalWeight       = 0.2
	qualityWeight        = 0.15
	engagementRateWeight = 0.1

	trendingRelevanceWeight  = 0.6
	trendingEngagementWeight = 0.4

	regionalReasonThreshold = 0.5
	trendingReasonThreshold = 0.1
)

// RecommendationConfig tunes candidate loading and scoring
type RecommendationConfig struct {
	// CandidateMultiplier times the limit is the number of candidates loaded,
	// never fewer than MinCandidates
	CandidateMultiplier int `yaml:"candidate_multiplier"`
	MinCandidates       int `yaml:"min_candidates"`

	// RelevanceSaturation is the number of regional terms at which relevance reaches 1
	RelevanceSaturation  int           `yaml:"relevance_saturation"`
	RegionalContentBoost float64       `yaml:"regional_content_boost"`
	TrendingWindow       time.Duration `yaml:"trending_window"`
	TrendingMinRelevance float64       `yaml:"trending_min_relevance"`
}

// DefaultRecommendationConfig returns the default recommendation settings
func DefaultRecommendationConfig() RecommendationConfig {
	return RecommendationConfig{
		CandidateMultiplier:  3,
		MinCandidates:        100,
		RelevanceSaturation:  3,
		RegionalContentBoost: 1.5,
		TrendingWindow:       7 * 24 * time.Hour,
		TrendingMinRelevance: 0.3,
	}
}

// Validate rejects settings that would load no candidates or never match
func (c RecommendationConfig) Validate() error {
	if c.CandidateMultiplier < 1 || c.MinCandidates < 0 {
		return fmt.Errorf("%w: candidate_multiplier must be at least 1", domain.ErrInvalidInput)
	}
	if c.RelevanceSaturation < 1 {
		return fmt.Errorf("%w: relevance_saturation must be at least 1", domain.ErrInvalidInput)
	}
	if c.RegionalContentBoost < 1 {
		return fmt.Errorf("%w: regional_content_boost must be at least 1", domain.ErrInvalidInput)
	}
	if c.TrendingWindow <= 0 {
		return fmt.Errorf("%w: trending_window must be positive", domain.ErrInvalidInput)
	}
	return nil
}

// recommendationService implements the RecommendationService interface
type recommendationService struct {
	content     driven.ContentStore
	engagements driven.EngagementStore
	profiles    *ProfileBuilder
	fusion      *FusionEngine
	diversity   *DiversityReranker
	cache       *CacheManager
	lexicon     domain.RegionalLexicon
	config      RecommendationConfig
	clock       driven.Clock
	metrics     driven.RankingMetrics
	logger      *slog.Logger
}

// NewRecommendationService creates a new RecommendationService
func NewRecommendationService(
	content driven.ContentStore,
	engagements driven.EngagementStore,
	profiles *ProfileBuilder,
	fusion *FusionEngine,
	diversity *DiversityReranker,
	cache *CacheManager,
	lexicon domain.RegionalLexicon,
	config RecommendationConfig,
	clock driven.Clock,
	metrics driven.RankingMetrics,
	logger *slog.Logger,
) driving.RecommendationService {
	if clock == nil {
		clock = runtime.SystemClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &recommendationService{
		content:     content,
		engagements: engagements,
		profiles:    profiles,
		fusion:      fusion,
		diversity:   diversity,
		cache:       cache,
		lexicon:     lexicon,
		config:      config,
		clock:       clock,
		metrics:     metrics,
		logger:      logger,
	}
}

// candidate is an article with the features its score was derived from
type candidate struct {
	article   *domain.Article
	relevance float64
	topic     float64
	base      float64
}

// GetRecommendations ranks recent articles for a reader
func (s *recommendationService) GetRecommendations(ctx context.Context, req domain.RecommendationRequest) (*domain.RecommendationResult, error) {
	start := s.clock.Now()

	if err := req.Validate(); err != nil {
		return nil, err
	}
	req = req.WithDefaults()

	key := RecommendationKey(req)
	if cached, ok := s.cache.GetRecommendations(ctx, key); ok {
		cached.Took = s.clock.Now().Sub(start)
		s.observe(true, cached.Personalized, cached.Took)
		return cached, nil
	}

	ctx, cancel := context.WithTimeout(ctx, time.Duration(req.MaxResponseTimeMs)*time.Millisecond)
	defer cancel()

	tracker := NewDegradationTracker()
	profile, articles, err := s.load(ctx, req, start)
	if profile == nil {
		tracker.Warn(domain.WarningProfileUnavailable)
	}
	if err != nil {
		tracker.Warn(domain.WarningCandidatesUnavailable)
		s.logger.Warn("recommendation candidates unavailable",
			"user_id", req.UserID,
			"error", err,
		)
		result := &domain.RecommendationResult{
			UserID:       req.UserID,
			Items:        []domain.Recommendation{},
			Personalized: profile != nil,
			Warnings:     tracker.Warnings(),
			Took:         s.clock.Now().Sub(start),
		}
		s.observe(false, result.Personalized, result.Took)
		return result, nil
	}

	scoringProfile := profile
	if scoringProfile == nil {
		scoringProfile = &domain.UserProfile{UserID: req.UserID}
	}

	byID := make(map[string]candidate, len(articles))
	scored := make([]domain.FusedResult, 0, len(articles))
	for _, a := range articles {
		c := s.score(a, scoringProfile)
		byID[a.ID] = c
		r := fusedFromHit(a.Hit(c.base, domain.SourceLexical), "")
		r.Score = c.base
		r.FinalScore = c.base
		r.Signals.Boost = 1
		r.Signals.Personalization = 1
		scored = append(scored, r)
	}

	ranked := s.fusion.Personalize(scored, profile)
	ranked = s.diversity.Rerank(ranked, req.DiversityLevel)
	if len(ranked) > req.Limit {
		ranked = ranked[:req.Limit]
	}

	items := make([]domain.Recommendation, 0, len(ranked))
	for _, r := range ranked {
		c := byID[r.ID]
		items = append(items, domain.Recommendation{
			FusedResult:       r,
			RegionalRelevance: c.relevance,
			Reasons:           s.reasons(c, scoringProfile),
		})
	}

	result := &domain.RecommendationResult{
		UserID:               req.UserID,
		Items:                items,
		DiversityScore:       DiversityScore(ranked),
		PersonalizationScore: personalizationScore(items),
		Personalized:         profile != nil,
		Warnings:             tracker.Warnings(),
		Took:                 s.clock.Now().Sub(start),
	}

	if len(result.Warnings) == 0 {
		s.cache.PutRecommendations(ctx, key, result)
	}

	s.logger.Info("recommendations generated",
		"user_id", req.UserID,
		"candidates", len(articles),
		"returned", len(items),
		"personalized", result.Personalized,
		"took", result.Took,
	)
	s.observe(false, result.Personalized, result.Took)
	return result, nil
}

// load builds the profile and loads candidates concurrently. A nil profile
// means personalization is unavailable; an error means no candidates.
func (s *recommendationService) load(ctx context.Context, req domain.RecommendationRequest, now time.Time) (*domain.UserProfile, []*domain.Article, error) {
	var (
		profile  *domain.UserProfile
		articles []*domain.Article
	)
	since := now.Add(-req.TimeRange.Duration())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if s.profiles == nil {
			return nil
		}
		p, err := s.profiles.Build(gctx, req.UserID)
		if err != nil {
			s.logger.Warn("personalization unavailable", "user_id", req.UserID, "error", err)
			return nil
		}
		profile = p
		return nil
	})
	g.Go(func() error {
		var exclude []string
		if req.ExcludeRead {
			read, err := s.engagements.ReadArticleIDs(gctx, req.UserID, since)
			if err != nil {
				s.logger.Warn("read history unavailable", "user_id", req.UserID, "error", err)
			}
			exclude = read
		}
		list, err := s.content.ListCandidates(gctx, driven.CandidateFilter{
			Since:      since,
			Categories: req.Categories,
			ExcludeIDs: exclude,
			Limit:      max(req.Limit*s.config.CandidateMultiplier, s.config.MinCandidates),
		})
		if err != nil {
			return fmt.Errorf("list candidates: %w", err)
		}
		articles = list
		return nil
	})

	err := g.Wait()
	return profile, articles, err
}

// score computes the base recommendation score of one article
func (s *recommendationService) score(a *domain.Article, profile *domain.UserProfile) candidate {
	c := candidate{
		article:   a,
		relevance: s.lexicon.Relevance(a.Text(), s.config.RelevanceSaturation),
	}

	score := 0.0
	if profile.PrefersCategory(a.Category) {
		score += categoryMatchWeight
	}

	if len(a.Tags) > 0 {
		sum := 0.0
		for _, tag := range a.Tags {
			sum += profile.TopicInterests[strings.ToLower(tag)]
		}
		c.topic = sum / float64(len(a.Tags))
	}
	score += c.topic * topicInterestWeight
	score += c.relevance * s.config.RegionalContentBoost * regionalWeight
	score += a.Quality() * qualityWeight
	score += a.EngagementRate() * engagementRateWeight

	c.base = math.Min(score, 1)
	return c
}

func (s *recommendationService) reasons(c candidate, profile *domain.UserProfile) []domain.RecommendationReason {
	var reasons []domain.RecommendationReason
	if profile.PrefersCategory(c.article.Category) {
		reasons = append(reasons, domain.RecommendationReason{
			Type:        domain.ReasonBehavioral,
			Description: "Matches your preferred content category",
			Confidence:  0.8,
		})
	}
	if c.topic > 0 {
		reasons = append(reasons, domain.RecommendationReason{
			Type:        domain.ReasonTopic,
			Description: "Covers topics you engage with",
			Confidence:  c.topic,
		})
	}
	if c.relevance > regionalReasonThreshold {
		reasons = append(reasons, domain.RecommendationReason{
			Type:        domain.ReasonRegionalFocus,
			Description: "Relevant to African cryptocurrency markets",
			Confidence:  c.relevance,
		})
	}
	if c.article.EngagementRate() > trendingReasonThreshold {
		reasons = append(reasons, domain.RecommendationReason{
			Type:        domain.ReasonTrending,
			Description: "High community engagement",
			Confidence:  0.7,
		})
	}
	return reasons
}

// personalizationScore is the share of items recommended for a profile-derived reason
func personalizationScore(items []domain.Recommendation) float64 {
	if len(items) == 0 {
		return 0
	}
	n := 0
	for _, item := range items {
		for _, r := range item.Reasons {
			if r.Type == domain.ReasonBehavioral || r.Type == domain.ReasonTopic {
				n++
				break
			}
		}
	}
	return float64(n) / float64(len(items))
}

// Trending returns regionally relevant articles with high recent engagement
func (s *recommendationService) Trending(ctx context.Context, limit int) ([]domain.TrendingArticle, error) {
	if limit <= 0 {
		limit = domain.DefaultRecommendationLimit
	}
	if limit > domain.MaxRecommendationLimit {
		limit = domain.MaxRecommendationLimit
	}

	since := s.clock.Now().Add(-s.config.TrendingWindow)
	articles, err := s.content.ListTrending(ctx, since, limit*2)
	if err != nil {
		return nil, fmt.Errorf("list trending: %w", err)
	}

	out := make([]domain.TrendingArticle, 0, len(articles))
	for _, a := range articles {
		relevance := s.lexicon.Relevance(a.Text(), s.config.RelevanceSaturation)
		if relevance <= s.config.TrendingMinRelevance {
			continue
		}
		views := a.ViewCount
		if views < 1 {
			views = 1
		}
		engagement := float64(a.RecentEngagements) / float64(views)
		out = append(out, domain.TrendingArticle{
			ID:                a.ID,
			Title:             a.Title,
			Excerpt:           a.Excerpt,
			Category:          a.Category,
			Tags:              append([]string(nil), a.Tags...),
			Author:            a.Author,
			PublishedAt:       a.PublishedAt,
			RegionalRelevance: relevance,
			EngagementScore:   engagement,
			Score:             relevance*trendingRelevanceWeight + engagement*trendingEngagementWeight,
			Reason:            domain.ReasonTrending,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// InvalidateUser drops the cached profile and every personalized
// result after a new engagement
func (s *recommendationService) InvalidateUser(ctx context.Context, userID string) error {
	if userID == "" {
		return fmt.Errorf("%w: user_id is required", domain.ErrInvalidInput)
	}
	if s.profiles != nil {
		s.profiles.Invalidate(userID)
	}
	n, err := s.cache.InvalidateUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("invalidate recommendations: %w", errors.Join(domain.ErrServiceUnavailable, err))
	}
	s.logger.Debug("user caches invalidated", "user_id", userID, "entries", n)
	return nil
}

func (s *recommendationService) observe(cached, personalized bool, elapsed time.Duration) {
	if s.metrics != nil {
		s.metrics.ObserveRecommendation(cached, personalized, elapsed)
	}
}
