package services

import (
	"fmt"
	"sort"

	"github.com/Seedline-Foundation/Coindailynow-sub003/internal/core/domain"
)

// DiversityConfig holds the per-level penalty thresholds
type DiversityConfig struct {
	Low        float64 `yaml:"low"`
	Medium     float64 `yaml:"medium"`
	High       float64 `yaml:"high"`
	MaxPenalty float64 `yaml:"max_penalty"`
}

// DefaultDiversityConfig returns the default thresholds
func DefaultDiversityConfig() DiversityConfig {
	return DiversityConfig{
		Low:        0.2,
		Medium:     0.4,
		High:       0.6,
		MaxPenalty: 0.5,
	}
}

// Validate checks the thresholds are ordered and non-negative
func (c DiversityConfig) Validate() error {
	if c.Low < 0 || c.Low > c.Medium || c.Medium > c.High {
		return fmt.Errorf("%w: diversity thresholds must satisfy 0 <= low <= medium <= high", domain.ErrInvalidInput)
	}
	if c.MaxPenalty < 0 {
		return fmt.Errorf("%w: max_penalty must not be negative", domain.ErrInvalidInput)
	}
	return nil
}

// Threshold returns the per-repeat penalty of a level (0 for none)
func (c DiversityConfig) Threshold(level domain.DiversityLevel) float64 {
	switch level {
	case domain.DiversityLow:
		return c.Low
	case domain.DiversityMedium:
		return c.Medium
	case domain.DiversityHigh:
		return c.High
	default:
		return 0
	}
}

// DiversityReranker penalizes repeated categories and tags
type DiversityReranker struct {
	config DiversityConfig
}

// NewDiversityReranker creates a DiversityReranker
func NewDiversityReranker(config DiversityConfig) *DiversityReranker {
	return &DiversityReranker{config: config}
}

// Rerank returns a new list ordered by diversity-adjusted score. Equal final
// scores keep their pre-penalty order. Penalties always derive from Score and
// equal scores are walked in id order, so reranking a reranked list yields
// the same order.
func (d *DiversityReranker) Rerank(results []domain.FusedResult, level domain.DiversityLevel) []domain.FusedResult {
	out := make([]domain.FusedResult, len(results))
	copy(out, results)

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ID < out[j].ID
	})

	threshold := d.config.Threshold(level)
	if threshold == 0 || len(out) == 0 {
		for i := range out {
			out[i].Penalty = 0
			out[i].FinalScore = out[i].Score
		}
		return out
	}

	categoryCounts := make(map[string]int)
	tagCounts := make(map[string]int)

	for i := range out {
		r := &out[i]

		categoryPenalty := 0.0
		if r.Category != "" {
			categoryPenalty = float64(categoryCounts[r.Category]) * threshold
		}

		tagPenalty := 0.0
		if len(r.Tags) > 0 {
			sum := 0.0
			for _, tag := range r.Tags {
				sum += float64(tagCounts[tag]) * threshold
			}
			tagPenalty = sum / float64(len(r.Tags))
		}

		penalty := categoryPenalty + tagPenalty
		if penalty > d.config.MaxPenalty {
			penalty = d.config.MaxPenalty
		}
		r.Penalty = penalty
		r.FinalScore = r.Score - penalty
		if r.FinalScore < 0 {
			r.FinalScore = 0
		}

		if r.Category != "" {
			categoryCounts[r.Category]++
		}
		for _, tag := range r.Tags {
			tagCounts[tag]++
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].FinalScore > out[j].FinalScore
	})
	return out
}

// DiversityScore rates how varied a result list is, from 0 to 1
func DiversityScore(results []domain.FusedResult) float64 {
	n := len(results)
	if n == 0 {
		return 0
	}
	categories := make(map[string]struct{})
	tags := make(map[string]struct{})
	for _, r := range results {
		if r.Category != "" {
			categories[r.Category] = struct{}{}
		}
		for _, tag := range r.Tags {
			tags[tag] = struct{}{}
		}
	}
	categoryDiversity := float64(len(categories)) / float64(n)
	tagDiversity := float64(len(tags)) / float64(3*n)
	if tagDiversity > 1 {
		tagDiversity = 1
	}
	return (categoryDiversity + tagDiversity) / 2
}
