// Package languages detects the language of short search queries.
package languages

import (
	"sort"
	"sync"

	"github.com/Seedline-Foundation/Coindailynow-sub003/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.LanguageRegistry = (*Registry)(nil)

const (
	// MatchConfidence is reported when a detector matches
	MatchConfidence = 0.8

	// FallbackConfidence is reported with the fallback language
	FallbackConfidence = 0.5
)

// Registry implements LanguageRegistry with priority-based selection.
// Detectors with equal priority keep registration order.
type Registry struct {
	mu        sync.RWMutex
	detectors []driven.LanguageDetector
	fallback  string
}

// NewRegistry creates an empty registry that reports fallback when nothing matches.
func NewRegistry(fallback string) *Registry {
	return &Registry{
		detectors: make([]driven.LanguageDetector, 0),
		fallback:  fallback,
	}
}

// Register registers a detector.
func (r *Registry) Register(detector driven.LanguageDetector) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.detectors = append(r.detectors, detector)
	sort.SliceStable(r.detectors, func(i, j int) bool {
		return r.detectors[i].Priority() > r.detectors[j].Priority()
	})
}

// Detect returns the first matching language and its confidence.
func (r *Registry) Detect(text string) (string, float64) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, d := range r.detectors {
		if d.Match(text) {
			return d.Code(), MatchConfidence
		}
	}
	return r.fallback, FallbackConfidence
}

// List returns registered language codes in detection order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	codes := make([]string, 0, len(r.detectors))
	for _, d := range r.detectors {
		codes = append(codes, d.Code())
	}
	return codes
}
