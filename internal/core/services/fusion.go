package services

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Seedline-Foundation/Coindailynow-sub003/internal/core/domain"
)

// FusionWeights are the tunable constants of score fusion
type FusionWeights struct {
	SemanticWeight        float64 `yaml:"semantic_weight"`
	RegionalBoost         float64 `yaml:"regional_boost"`
	LanguageBoost         float64 `yaml:"language_boost"`
	InterestBoostPerMatch float64 `yaml:"interest_boost_per_match"`
	LocalContentBoost     float64 `yaml:"local_content_boost"`
}

// DefaultFusionWeights returns the production weights
func DefaultFusionWeights() FusionWeights {
	return FusionWeights{
		SemanticWeight:        0.3,
		RegionalBoost:         1.3,
		LanguageBoost:         1.2,
		InterestBoostPerMatch: 0.1,
		LocalContentBoost:     1.15,
	}
}

// Validate rejects weights that could reorder results against their signals
func (w FusionWeights) Validate() error {
	if w.SemanticWeight < 0 || w.SemanticWeight > 1 {
		return fmt.Errorf("%w: semantic_weight must be within [0, 1]", domain.ErrInvalidInput)
	}
	for name, boost := range map[string]float64{
		"regional_boost":      w.RegionalBoost,
		"language_boost":      w.LanguageBoost,
		"local_content_boost": w.LocalContentBoost,
	} {
		if boost < 1 {
			return fmt.Errorf("%w: %s must be at least 1", domain.ErrInvalidInput, name)
		}
	}
	if w.InterestBoostPerMatch < 0 {
		return fmt.Errorf("%w: interest_boost_per_match must not be negative", domain.ErrInvalidInput)
	}
	return nil
}

// FusionOutput is the fused candidate list plus the number of hits dropped
// as malformed
type FusionOutput struct {
	Results []domain.FusedResult
	Skipped int
}

// FusionEngine merges lexical and semantic hits into one scored list
type FusionEngine struct {
	weights FusionWeights
	lexicon domain.RegionalLexicon
}

// NewFusionEngine creates a FusionEngine
func NewFusionEngine(weights FusionWeights, lexicon domain.RegionalLexicon) *FusionEngine {
	return &FusionEngine{weights: weights, lexicon: lexicon}
}

// Fuse merges hits by id. Lexical hits keep their order of arrival ahead of
// semantic-only hits when composite scores tie. profile may be nil.
func (e *FusionEngine) Fuse(lexical, semantic []*domain.SourceHit, req *domain.RetrievalRequest, profile *domain.UserProfile) *FusionOutput {
	out := &FusionOutput{}
	byID := make(map[string]int, len(lexical)+len(semantic))
	results := make([]domain.FusedResult, 0, len(lexical)+len(semantic))

	boostRegional := req != nil && req.Flags.BoostRegionalTerms

	for _, h := range lexical {
		if err := h.Validate(); err != nil {
			out.Skipped++
			continue
		}
		if _, dup := byID[h.ID]; dup {
			continue
		}
		boost := 1.0
		if boostRegional && e.lexicon.MatchesPriority(append([]string{h.Title, h.Content}, h.Tags...)...) {
			boost = e.weights.RegionalBoost
		}
		r := fusedFromHit(h, domain.OriginLexical)
		r.Signals.Lexical = h.Score
		r.Signals.Boost = boost
		r.Score = h.Score * boost
		byID[h.ID] = len(results)
		results = append(results, r)
	}

	seenSemantic := make(map[string]bool, len(semantic))
	for _, h := range semantic {
		if err := h.Validate(); err != nil {
			out.Skipped++
			continue
		}
		if seenSemantic[h.ID] {
			continue
		}
		seenSemantic[h.ID] = true

		sim := clamp01(h.Score)
		if i, ok := byID[h.ID]; ok {
			r := &results[i]
			r.Signals.Semantic = sim
			r.Score += e.weights.SemanticWeight * sim
			r.Origin = domain.OriginBoth
			continue
		}
		r := fusedFromHit(h, domain.OriginSemantic)
		r.Signals.Semantic = sim
		r.Signals.Boost = 1
		r.Score = sim
		byID[h.ID] = len(results)
		results = append(results, r)
	}

	for i := range results {
		m := 1.0
		if profile != nil {
			m = e.personalization(&results[i], profile)
		}
		results[i].Signals.Personalization = m
		results[i].Score *= m
		results[i].FinalScore = results[i].Score
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	out.Results = results
	return out
}

// Personalize applies the profile multiplier to already scored results and
// returns a new, re-sorted list.
func (e *FusionEngine) Personalize(results []domain.FusedResult, profile *domain.UserProfile) []domain.FusedResult {
	out := make([]domain.FusedResult, len(results))
	copy(out, results)
	if profile == nil {
		return out
	}
	for i := range out {
		m := e.personalization(&out[i], profile)
		out[i].Signals.Personalization = m
		out[i].Score *= m
		out[i].FinalScore = out[i].Score
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}

// personalization computes the profile multiplier for one result
func (e *FusionEngine) personalization(r *domain.FusedResult, profile *domain.UserProfile) float64 {
	m := 1.0
	if profile.PrefersLanguage(r.Language) {
		m *= e.weights.LanguageBoost
	}

	text := strings.ToLower(r.Title + " " + r.Content)
	matches := 0
	for topic := range profile.TopicInterests {
		if topic != "" && strings.Contains(text, strings.ToLower(topic)) {
			matches++
		}
	}
	if matches > 0 {
		m *= 1 + e.weights.InterestBoostPerMatch*float64(matches)
	}

	if region := strings.ToLower(profile.Region); region != "" {
		local := strings.Contains(strings.ToLower(r.Title), region)
		for _, tag := range r.Tags {
			if strings.Contains(strings.ToLower(tag), region) {
				local = true
				break
			}
		}
		if local {
			m *= e.weights.LocalContentBoost
		}
	}
	return m
}

func fusedFromHit(h *domain.SourceHit, origin domain.Origin) domain.FusedResult {
	return domain.FusedResult{
		ID:          h.ID,
		Title:       h.Title,
		Content:     h.Content,
		Summary:     h.Summary,
		Language:    h.Language,
		Category:    h.Category,
		Tags:        append([]string(nil), h.Tags...),
		Author:      h.Author,
		PublishedAt: h.PublishedAt,
		Origin:      origin,
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
