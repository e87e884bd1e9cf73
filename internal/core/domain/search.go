package domain

import (
	"fmt"
	"math"
	"time"
)

// ResultType selects the kind of content a search returns
type ResultType string

const (
	ResultTypeArticles   ResultType = "articles"
	ResultTypeMarketData ResultType = "market_data"
	ResultTypeMixed      ResultType = "mixed"
)

// IsValid reports whether t is a known result type
func (t ResultType) IsValid() bool {
	switch t {
	case ResultTypeArticles, ResultTypeMarketData, ResultTypeMixed:
		return true
	}
	return false
}

// DiversityLevel controls how strongly over-represented categories are penalized.
// The zero value disables diversity re-ranking.
type DiversityLevel string

const (
	DiversityNone   DiversityLevel = ""
	DiversityLow    DiversityLevel = "low"
	DiversityMedium DiversityLevel = "medium"
	DiversityHigh   DiversityLevel = "high"
)

// IsValid reports whether l is a known diversity level (including none)
func (l DiversityLevel) IsValid() bool {
	switch l {
	case DiversityNone, DiversityLow, DiversityMedium, DiversityHigh:
		return true
	}
	return false
}

// Source identifies a retrieval source
type Source string

const (
	SourceLexical  Source = "lexical"
	SourceSemantic Source = "semantic"
)

// Origin records which sources contributed a fused result
type Origin string

const (
	OriginLexical  Origin = "lexical"
	OriginSemantic Origin = "semantic"
	OriginBoth     Origin = "both"
)

// SearchMethod is the overall outcome of a retrieval
type SearchMethod string

const (
	SearchMethodHybrid           SearchMethod = "hybrid"            // both sources contributed
	SearchMethodLexical          SearchMethod = "lexical"           // semantic not requested
	SearchMethodLexicalFallback  SearchMethod = "lexical_fallback"  // semantic requested but unavailable
	SearchMethodSemanticFallback SearchMethod = "semantic_fallback" // lexical failed
	SearchMethodFailed           SearchMethod = "failed"
)

// Degraded reports whether the method signals reduced results
func (m SearchMethod) Degraded() bool {
	switch m {
	case SearchMethodLexicalFallback, SearchMethodSemanticFallback, SearchMethodFailed:
		return true
	}
	return false
}

const (
	DefaultSearchLimit = 20
	MaxSearchLimit     = 100
	DefaultBudget      = 500 * time.Millisecond
	MaxBudget          = 30 * time.Second
	MaxQueryLength     = 512
)

// SearchOptions is the options bag accepted by the search surface.
// Every recognized option is a field; nothing is read ad hoc.
type SearchOptions struct {
	Type                   ResultType     `json:"type,omitempty"`
	Language               string         `json:"language,omitempty"`
	Region                 string         `json:"region,omitempty"`
	IncludeSemanticRanking bool           `json:"include_semantic_ranking"`
	OptimizeForRegion      bool           `json:"optimize_for_region"`
	BoostRegionalTerms     bool           `json:"boost_regional_terms"`
	DiversityLevel         DiversityLevel `json:"diversity_level,omitempty"`
	MaxResponseTimeMs      int            `json:"max_response_time_ms,omitempty"`
	OptimizeForMobile      bool           `json:"optimize_for_mobile"`
	LimitBandwidth         bool           `json:"limit_bandwidth"`
	TrackAnalytics         bool           `json:"track_analytics"`
	Limit                  int            `json:"limit,omitempty"`
}

// DefaultSearchOptions returns sensible defaults
func DefaultSearchOptions() SearchOptions {
	return SearchOptions{
		Type:                   ResultTypeArticles,
		IncludeSemanticRanking: true,
		OptimizeForRegion:      true,
		BoostRegionalTerms:     true,
		MaxResponseTimeMs:      int(DefaultBudget / time.Millisecond),
		Limit:                  DefaultSearchLimit,
	}
}

// Validate rejects option combinations the pipeline cannot honor.
// Errors wrap ErrInvalidQuery.
func (o SearchOptions) Validate() error {
	if o.Type != "" && !o.Type.IsValid() {
		return fmt.Errorf("%w: unknown result type %q", ErrInvalidQuery, o.Type)
	}
	if !o.DiversityLevel.IsValid() {
		return fmt.Errorf("%w: unknown diversity level %q", ErrInvalidQuery, o.DiversityLevel)
	}
	if o.MaxResponseTimeMs < 0 || time.Duration(o.MaxResponseTimeMs)*time.Millisecond > MaxBudget {
		return fmt.Errorf("%w: max_response_time_ms out of range", ErrInvalidQuery)
	}
	if o.Limit < 0 || o.Limit > MaxSearchLimit {
		return fmt.Errorf("%w: limit must be between 0 and %d", ErrInvalidQuery, MaxSearchLimit)
	}
	return nil
}

// WithDefaults fills zero-valued fields that have a non-zero default
func (o SearchOptions) WithDefaults() SearchOptions {
	if o.Type == "" {
		o.Type = ResultTypeArticles
	}
	if o.Limit == 0 {
		o.Limit = DefaultSearchLimit
	}
	if o.MaxResponseTimeMs == 0 {
		o.MaxResponseTimeMs = int(DefaultBudget / time.Millisecond)
	}
	return o
}

// Budget returns the wall-clock budget requested by the options
func (o SearchOptions) Budget() time.Duration {
	if o.MaxResponseTimeMs <= 0 {
		return DefaultBudget
	}
	return time.Duration(o.MaxResponseTimeMs) * time.Millisecond
}

// RequestFlags are the boolean switches carried by a RetrievalRequest
type RequestFlags struct {
	Semantic           bool `json:"semantic"`
	Personalization    bool `json:"personalization"`
	MobileOptimized    bool `json:"mobile_optimized"`
	BandwidthLimited   bool `json:"bandwidth_limited"`
	BoostRegionalTerms bool `json:"boost_regional_terms"`
	OptimizeForRegion  bool `json:"optimize_for_region"`
	TrackAnalytics     bool `json:"track_analytics"`
}

// RetrievalRequest is the immutable description of one ranking request.
// It is built once and shared read-only by every pipeline stage.
type RetrievalRequest struct {
	Query              string
	NormalizedQuery    string
	EmbeddingText      string // query text sent to the embedding service
	Type               ResultType
	Language           string // caller supplied; used as an index filter
	DetectedLanguage   string
	LanguageConfidence float64
	Region             string
	UserID             string
	Budget             time.Duration
	Limit              int
	DiversityLevel     DiversityLevel
	Flags              RequestFlags
	StartedAt          time.Time
}

// Deadline is the instant the shared budget runs out
func (r *RetrievalRequest) Deadline() time.Time {
	return r.StartedAt.Add(r.Budget)
}

// FetchLimit is the number of candidates requested from each source.
// Over-fetching leaves room for fusion and diversity before truncation.
func (r *RetrievalRequest) FetchLimit() int {
	n := r.Limit * 2
	if n > MaxSearchLimit {
		n = MaxSearchLimit
	}
	if n <= 0 {
		n = DefaultSearchLimit
	}
	return n
}

// SourceHit is a single candidate produced by a retrieval source
type SourceHit struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Content     string     `json:"content,omitempty"`
	Summary     string     `json:"summary,omitempty"`
	Language    string     `json:"language,omitempty"`
	Category    string     `json:"category,omitempty"`
	Tags        []string   `json:"tags,omitempty"`
	Author      string     `json:"author,omitempty"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	Score       float64    `json:"score"`
	Origin      Source     `json:"origin"`
}

// Validate reports ErrMalformedHit when required fields are missing or the
// score is not a finite non-negative number.
func (h *SourceHit) Validate() error {
	if h == nil {
		return fmt.Errorf("%w: nil hit", ErrMalformedHit)
	}
	if h.ID == "" {
		return fmt.Errorf("%w: missing id", ErrMalformedHit)
	}
	if h.Title == "" {
		return fmt.Errorf("%w: %s missing title", ErrMalformedHit, h.ID)
	}
	if math.IsNaN(h.Score) || math.IsInf(h.Score, 0) || h.Score < 0 {
		return fmt.Errorf("%w: %s has invalid score", ErrMalformedHit, h.ID)
	}
	return nil
}

// SignalBreakdown records the signals that produced a composite score
type SignalBreakdown struct {
	Lexical         float64 `json:"lexical"`
	Semantic        float64 `json:"semantic"`
	Boost           float64 `json:"boost"`
	Personalization float64 `json:"personalization"`
}

// FusedResult is a ranked candidate after fusion (and optionally diversity)
type FusedResult struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Content     string          `json:"content,omitempty"`
	Summary     string          `json:"summary,omitempty"`
	Language    string          `json:"language,omitempty"`
	Category    string          `json:"category,omitempty"`
	Tags        []string        `json:"tags,omitempty"`
	Author      string          `json:"author,omitempty"`
	PublishedAt *time.Time      `json:"published_at,omitempty"`
	Score       float64         `json:"score"`
	FinalScore  float64         `json:"final_score"`
	Penalty     float64         `json:"diversity_penalty,omitempty"`
	Signals     SignalBreakdown `json:"signals"`
	Origin      Origin          `json:"origin"`
}

// Performance captures elapsed time per pipeline stage
type Performance struct {
	Total    time.Duration `json:"total" swaggertype:"integer" example:"1500000"`
	Lexical  time.Duration `json:"lexical" swaggertype:"integer" example:"900000"`
	Semantic time.Duration `json:"semantic" swaggertype:"integer" example:"0"`
	Profile  time.Duration `json:"profile,omitempty" swaggertype:"integer" example:"0"`
}

// LanguageProcessing reports how the query language was resolved
type LanguageProcessing struct {
	Detected   string  `json:"detected"`
	Confidence float64 `json:"confidence"`
	Used       string  `json:"used,omitempty"`
}

// SearchAnalytics is attached when the caller asks for analytics tracking
type SearchAnalytics struct {
	QueryID      string        `json:"query_id"`
	UserID       string        `json:"user_id,omitempty"`
	ResponseTime time.Duration `json:"response_time" swaggertype:"integer"`
	ResultCount  int           `json:"result_count"`
}

// SearchResult is the envelope returned by the search surface
type SearchResult struct {
	Query              string              `json:"query"`
	Total              int                 `json:"total"`
	Hits               []FusedResult       `json:"hits"`
	SearchMethod       SearchMethod        `json:"search_method"`
	Performance        Performance         `json:"performance"`
	Cached             bool                `json:"cached"`
	Warnings           []string            `json:"warnings,omitempty"`
	Error              string              `json:"error,omitempty"`
	LanguageProcessing *LanguageProcessing `json:"language_processing,omitempty"`
	Analytics          *SearchAnalytics    `json:"analytics,omitempty"`
	Degradation        *DegradationReport  `json:"degradation,omitempty"`
}

// SearchSuggestion represents a search autocomplete suggestion
type SearchSuggestion struct {
	Text     string  `json:"text"`
	Score    float64 `json:"score"`
	Regional bool    `json:"regional,omitempty"`
}
