package domain

import (
	"fmt"
	"time"
)

// TimeRange bounds how far back recommendation candidates are drawn from
type TimeRange string

const (
	TimeRangeDay   TimeRange = "24h"
	TimeRangeWeek  TimeRange = "7d"
	TimeRangeMonth TimeRange = "30d"
)

// Duration converts the range into a lookback window
func (r TimeRange) Duration() time.Duration {
	switch r {
	case TimeRangeDay:
		return 24 * time.Hour
	case TimeRangeMonth:
		return 30 * 24 * time.Hour
	default:
		return 7 * 24 * time.Hour
	}
}

const (
	DefaultRecommendationLimit = 10
	MaxRecommendationLimit     = 50
)

// RecommendationRequest describes a personalized recommendation call
type RecommendationRequest struct {
	UserID            string         `json:"user_id"`
	Limit             int            `json:"limit,omitempty"`
	Categories        []string       `json:"categories,omitempty"`
	ExcludeRead       bool           `json:"exclude_read"`
	TimeRange         TimeRange      `json:"time_range,omitempty"`
	DiversityLevel    DiversityLevel `json:"diversity_level,omitempty"`
	MaxResponseTimeMs int            `json:"max_response_time_ms,omitempty"`
}

// Validate rejects malformed recommendation requests
func (r RecommendationRequest) Validate() error {
	if r.UserID == "" {
		return fmt.Errorf("%w: user_id is required", ErrInvalidInput)
	}
	if r.Limit < 0 || r.Limit > MaxRecommendationLimit {
		return fmt.Errorf("%w: limit must be between 0 and %d", ErrInvalidInput, MaxRecommendationLimit)
	}
	switch r.TimeRange {
	case "", TimeRangeDay, TimeRangeWeek, TimeRangeMonth:
	default:
		return fmt.Errorf("%w: unknown time range %q", ErrInvalidInput, r.TimeRange)
	}
	if !r.DiversityLevel.IsValid() {
		return fmt.Errorf("%w: unknown diversity level %q", ErrInvalidInput, r.DiversityLevel)
	}
	if r.MaxResponseTimeMs < 0 || time.Duration(r.MaxResponseTimeMs)*time.Millisecond > MaxBudget {
		return fmt.Errorf("%w: max_response_time_ms out of range", ErrInvalidInput)
	}
	return nil
}

// WithDefaults fills zero-valued fields
func (r RecommendationRequest) WithDefaults() RecommendationRequest {
	if r.Limit == 0 {
		r.Limit = DefaultRecommendationLimit
	}
	if r.TimeRange == "" {
		r.TimeRange = TimeRangeWeek
	}
	if r.DiversityLevel == DiversityNone {
		r.DiversityLevel = DiversityMedium
	}
	if r.MaxResponseTimeMs == 0 {
		r.MaxResponseTimeMs = int(DefaultBudget / time.Millisecond)
	}
	return r
}

// ReasonType classifies why an item was recommended
type ReasonType string

const (
	ReasonBehavioral    ReasonType = "behavioral"
	ReasonTopic         ReasonType = "topic_interest"
	ReasonRegionalFocus ReasonType = "regional_focus"
	ReasonTrending      ReasonType = "trending"
)

// RecommendationReason explains one contributing factor
type RecommendationReason struct {
	Type        ReasonType `json:"type"`
	Description string     `json:"description"`
	Confidence  float64    `json:"confidence"`
}

// Recommendation is a ranked item with its reasons
type Recommendation struct {
	FusedResult
	RegionalRelevance float64                `json:"regional_relevance"`
	Reasons           []RecommendationReason `json:"reasons,omitempty"`
}

// RecommendationResult is the envelope returned to recommendation callers
type RecommendationResult struct {
	UserID               string           `json:"user_id"`
	Items                []Recommendation `json:"items"`
	DiversityScore       float64          `json:"diversity_score"`
	PersonalizationScore float64          `json:"personalization_score"`
	Personalized         bool             `json:"personalized"`
	Cached               bool             `json:"cached"`
	Warnings             []string         `json:"warnings,omitempty"`
	Took                 time.Duration    `json:"took" swaggertype:"integer" example:"1500000"`
}

// TrendingArticle is an entry of the regional trending list
type TrendingArticle struct {
	ID                string     `json:"id"`
	Title             string     `json:"title"`
	Excerpt           string     `json:"excerpt,omitempty"`
	Category          string     `json:"category,omitempty"`
	Tags              []string   `json:"tags,omitempty"`
	Author            string     `json:"author,omitempty"`
	PublishedAt       time.Time  `json:"published_at"`
	RegionalRelevance float64    `json:"regional_relevance"`
	EngagementScore   float64    `json:"engagement_score"`
	Score             float64    `json:"score"`
	Reason            ReasonType `json:"reason"`
}
