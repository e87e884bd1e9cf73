package services

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Seedline-Foundation/Coindailynow-sub003/internal/core/domain"
	"github.com/Seedline-Foundation/Coindailynow-sub003/internal/core/ports/driven"
)

// QueryContextBuilder turns raw caller input into an immutable RetrievalRequest
type QueryContextBuilder struct {
	languages driven.LanguageRegistry
	lexicon   domain.RegionalLexicon
}

// NewQueryContextBuilder creates a QueryContextBuilder
func NewQueryContextBuilder(languages driven.LanguageRegistry, lexicon domain.RegionalLexicon) *QueryContextBuilder {
	return &QueryContextBuilder{
		languages: languages,
		lexicon:   lexicon,
	}
}

// NormalizeQuery lower-cases the query and collapses whitespace
func NormalizeQuery(query string) string {
	return strings.Join(strings.Fields(strings.ToLower(query)), " ")
}

// Build validates the query and options and assembles the request.
// startedAt anchors the shared latency budget.
func (b *QueryContextBuilder) Build(query string, opts domain.SearchOptions, userID string, startedAt time.Time) (*domain.RetrievalRequest, error) {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return nil, fmt.Errorf("%w: query is empty", domain.ErrInvalidQuery)
	}
	if utf8.RuneCountInString(trimmed) > domain.MaxQueryLength {
		return nil, fmt.Errorf("%w: query exceeds %d characters", domain.ErrInvalidQuery, domain.MaxQueryLength)
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	opts = opts.WithDefaults()

	req := &domain.RetrievalRequest{
		Query:           trimmed,
		NormalizedQuery: NormalizeQuery(trimmed),
		Type:            opts.Type,
		Language:        opts.Language,
		Region:          opts.Region,
		UserID:          userID,
		Budget:          opts.Budget(),
		Limit:           opts.Limit,
		DiversityLevel:  opts.DiversityLevel,
		StartedAt:       startedAt,
		Flags: domain.RequestFlags{
			Semantic:           opts.IncludeSemanticRanking,
			Personalization:    userID != "",
			MobileOptimized:    opts.OptimizeForMobile,
			BandwidthLimited:   opts.LimitBandwidth,
			BoostRegionalTerms: opts.BoostRegionalTerms,
			OptimizeForRegion:  opts.OptimizeForRegion,
			TrackAnalytics:     opts.TrackAnalytics,
		},
	}

	if b.languages != nil {
		req.DetectedLanguage, req.LanguageConfidence = b.languages.Detect(trimmed)
	}

	req.EmbeddingText = trimmed
	if opts.OptimizeForRegion {
		if terms := b.lexicon.MatchingPriorityTerms(trimmed); len(terms) > 0 {
			req.EmbeddingText = trimmed + " " + strings.Join(terms, " ")
		}
	}

	return req, nil
}

// languageProcessing reports detection without letting it filter results
func languageProcessing(req *domain.RetrievalRequest) *domain.LanguageProcessing {
	return &domain.LanguageProcessing{
		Detected:   req.DetectedLanguage,
		Confidence: req.LanguageConfidence,
		Used:       req.Language,
	}
}
