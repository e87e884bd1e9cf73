package postprocessors

import (
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/Seedline-Foundation/Coindailynow-sub003/internal/core/domain"
	"github.com/Seedline-Foundation/Coindailynow-sub003/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.ResultPipeline = (*Pipeline)(nil)

// Pipeline implements ResultPipeline.
// It chains multiple result processors in order.
type Pipeline struct {
	mu         sync.RWMutex
	processors []driven.ResultProcessor
	sorted     bool
}

// NewPipeline creates a new result pipeline.
func NewPipeline() *Pipeline {
	return &Pipeline{
		processors: make([]driven.ResultProcessor, 0),
	}
}

// Add adds a processor to the pipeline.
// Processors are sorted by Order() before processing.
func (p *Pipeline) Add(processor driven.ResultProcessor) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.processors = append(p.processors, processor)
	p.sorted = false
}

// Process applies all processors in order.
func (p *Pipeline) Process(req *domain.RetrievalRequest, result domain.SearchResult) domain.SearchResult {
	p.mu.Lock()
	if !p.sorted {
		sort.SliceStable(p.processors, func(i, j int) bool {
			return p.processors[i].Order() < p.processors[j].Order()
		})
		p.sorted = true
	}
	processors := make([]driven.ResultProcessor, len(p.processors))
	copy(processors, p.processors)
	p.mu.Unlock()

	for _, proc := range processors {
		result = proc.Process(req, result)
	}
	return result
}

// List returns processor names in order.
func (p *Pipeline) List() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	names := make([]string, len(p.processors))
	for i, proc := range p.processors {
		names[i] = proc.Name()
	}
	return names
}

// Content limits applied to hits for constrained clients
const (
	MobileContentChars    = 500
	BandwidthContentChars = 200
)

// DefaultPipeline creates a pipeline with the default processors.
func DefaultPipeline(clock driven.Clock) *Pipeline {
	p := NewPipeline()
	p.Add(NewWhitespaceNormalizer())
	p.Add(NewMobileOptimizer(MobileContentChars))
	p.Add(NewBandwidthLimiter(BandwidthContentChars))
	p.Add(NewAnalyticsTracker(clock))
	return p
}

// copyHits returns a copy of the hit slice so processors never write
// through to the caller's result
func copyHits(hits []domain.FusedResult) []domain.FusedResult {
	out := make([]domain.FusedResult, len(hits))
	copy(out, hits)
	return out
}

// WhitespaceNormalizer normalizes whitespace in hit content and summaries.
type WhitespaceNormalizer struct{}

// Verify interface compliance
var _ driven.ResultProcessor = (*WhitespaceNormalizer)(nil)

// NewWhitespaceNormalizer creates a new whitespace normalizer.
func NewWhitespaceNormalizer() *WhitespaceNormalizer {
	return &WhitespaceNormalizer{}
}

// Process normalizes whitespace in every hit.
func (w *WhitespaceNormalizer) Process(_ *domain.RetrievalRequest, result domain.SearchResult) domain.SearchResult {
	hits := copyHits(result.Hits)
	for i := range hits {
		hits[i].Content = normalizeWhitespace(hits[i].Content)
		hits[i].Summary = normalizeWhitespace(hits[i].Summary)
	}
	result.Hits = hits
	return result
}

// Name returns the processor name.
func (w *WhitespaceNormalizer) Name() string {
	return "whitespace-normalizer"
}

// Order returns 0 - runs before any trimming.
func (w *WhitespaceNormalizer) Order() int {
	return 0
}

func normalizeWhitespace(content string) string {
	if content == "" {
		return content
	}

	// Normalize line endings
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")

	// Collapse runs of spaces and tabs (but preserve newlines)
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = strings.Join(strings.Fields(line), " ")
	}
	content = strings.Join(lines, "\n")

	// Remove excessive blank lines
	for strings.Contains(content, "\n\n\n") {
		content = strings.ReplaceAll(content, "\n\n\n", "\n\n")
	}

	return strings.TrimSpace(content)
}

// ContentTrimmer shortens hit content when its request flag is set.
type ContentTrimmer struct {
	name     string
	order    int
	maxChars int
	enabled  func(req *domain.RetrievalRequest) bool
}

// Verify interface compliance
var _ driven.ResultProcessor = (*ContentTrimmer)(nil)

// NewMobileOptimizer trims content for mobile clients.
func NewMobileOptimizer(maxChars int) *ContentTrimmer {
	return &ContentTrimmer{
		name:     "mobile-optimizer",
		order:    10,
		maxChars: maxChars,
		enabled:  func(req *domain.RetrievalRequest) bool { return req.Flags.MobileOptimized },
	}
}

// NewBandwidthLimiter trims content for bandwidth-limited clients.
func NewBandwidthLimiter(maxChars int) *ContentTrimmer {
	return &ContentTrimmer{
		name:     "bandwidth-limiter",
		order:    20,
		maxChars: maxChars,
		enabled:  func(req *domain.RetrievalRequest) bool { return req.Flags.BandwidthLimited },
	}
}

// Process trims every hit's content to maxChars characters.
func (c *ContentTrimmer) Process(req *domain.RetrievalRequest, result domain.SearchResult) domain.SearchResult {
	if req == nil || !c.enabled(req) {
		return result
	}
	hits := copyHits(result.Hits)
	for i := range hits {
		hits[i].Content = trimContent(hits[i].Content, c.maxChars)
	}
	result.Hits = hits
	return result
}

// Name returns the processor name.
func (c *ContentTrimmer) Name() string {
	return c.name
}

// Order returns the trimmer's position.
func (c *ContentTrimmer) Order() int {
	return c.order
}

// trimContent cuts content to at most maxChars runes, preferring a word
// boundary within the last 100 characters.
func trimContent(content string, maxChars int) string {
	if maxChars <= 0 || utf8.RuneCountInString(content) <= maxChars {
		return content
	}
	cut := string([]rune(content)[:maxChars])

	searchStart := len(cut) - 100
	if searchStart < 0 {
		searchStart = 0
	}
	if idx := strings.LastIndex(cut[searchStart:], " "); idx > 0 {
		cut = cut[:searchStart+idx]
	}
	return strings.TrimSpace(cut)
}

// AnalyticsTracker attaches query analytics when the caller asks for them.
type AnalyticsTracker struct {
	clock driven.Clock
}

// Verify interface compliance
var _ driven.ResultProcessor = (*AnalyticsTracker)(nil)

// NewAnalyticsTracker creates a new analytics tracker.
func NewAnalyticsTracker(clock driven.Clock) *AnalyticsTracker {
	return &AnalyticsTracker{clock: clock}
}

// Process records a query id, response time and result count.
func (a *AnalyticsTracker) Process(req *domain.RetrievalRequest, result domain.SearchResult) domain.SearchResult {
	if req == nil || !req.Flags.TrackAnalytics {
		return result
	}
	result.Analytics = &domain.SearchAnalytics{
		QueryID:      uuid.NewString(),
		UserID:       req.UserID,
		ResponseTime: a.clock.Now().Sub(req.StartedAt),
		ResultCount:  len(result.Hits),
	}
	return result
}

// Name returns the processor name.
func (a *AnalyticsTracker) Name() string {
	return "analytics"
}

// Order returns 100 - analytics runs last so it counts the final hits.
func (a *AnalyticsTracker) Order() int {
	return 100
}
