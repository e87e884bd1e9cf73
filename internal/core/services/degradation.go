package services

import (
	"sync"
	"time"

	"github.com/Seedline-Foundation/Coindailynow-sub003/internal/core/domain"
)

// DegradationTracker records what each retrieval source did for one request
// and derives the overall search method. Safe for concurrent use.
type DegradationTracker struct {
	mu       sync.Mutex
	sources  map[domain.Source]domain.SourceReport
	warnings []string
}

// NewDegradationTracker creates an empty tracker
func NewDegradationTracker() *DegradationTracker {
	return &DegradationTracker{
		sources: make(map[domain.Source]domain.SourceReport, 2),
	}
}

// Record stores the outcome of a source that was started
func (t *DegradationTracker) Record(source domain.Source, status domain.SourceStatus, elapsed time.Duration, hits int, err error) {
	report := domain.SourceReport{
		Source:  source,
		Status:  status,
		Elapsed: elapsed,
		Hits:    hits,
	}
	if err != nil {
		report.Reason = err.Error()
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.sources[source] = report
}

// Skip records a source that was never started
func (t *DegradationTracker) Skip(source domain.Source, reason string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sources[source] = domain.SourceReport{
		Source: source,
		Status: domain.SourceStatusSkipped,
		Reason: reason,
	}
}

// Warn adds a warning code once
func (t *DegradationTracker) Warn(code string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.warnLocked(code)
}

func (t *DegradationTracker) warnLocked(code string) {
	for _, w := range t.warnings {
		if w == code {
			return
		}
	}
	t.warnings = append(t.warnings, code)
}

// Status returns the recorded status of a source, or "" if none
func (t *DegradationTracker) Status(source domain.Source) domain.SourceStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sources[source].Status
}

// Resolve derives the search method from the recorded source outcomes and
// adds the matching warning codes.
func (t *DegradationTracker) Resolve() domain.SearchMethod {
	t.mu.Lock()
	defer t.mu.Unlock()

	lexical := t.sources[domain.SourceLexical]
	semantic := t.sources[domain.SourceSemantic]

	if lexical.Status == domain.SourceStatusOK {
		switch semantic.Status {
		case domain.SourceStatusOK:
			return domain.SearchMethodHybrid
		case domain.SourceStatusError:
			t.warnLocked(domain.WarningSemanticFailed)
		case domain.SourceStatusTimeout:
			t.warnLocked(domain.WarningSemanticTimeout)
		case domain.SourceStatusSkipped:
			if semantic.Reason == domain.SkipReasonDisabled {
				return domain.SearchMethodLexical
			}
			t.warnLocked(domain.WarningSemanticSkipped)
		default:
			return domain.SearchMethodLexical
		}
		return domain.SearchMethodLexicalFallback
	}

	if semantic.Status == domain.SourceStatusOK {
		if lexical.Status == domain.SourceStatusTimeout {
			t.warnLocked(domain.WarningLexicalTimeout)
		} else {
			t.warnLocked(domain.WarningLexicalFailed)
		}
		return domain.SearchMethodSemanticFallback
	}

	t.warnLocked(domain.WarningAllSourcesFailed)
	return domain.SearchMethodFailed
}

// Warnings returns a copy of the warning codes collected so far
func (t *DegradationTracker) Warnings() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.warnings...)
}

// Report resolves the method and snapshots every source outcome
func (t *DegradationTracker) Report() *domain.DegradationReport {
	method := t.Resolve()

	t.mu.Lock()
	defer t.mu.Unlock()

	report := &domain.DegradationReport{
		Method:   method,
		Warnings: append([]string(nil), t.warnings...),
	}
	for _, s := range []domain.Source{domain.SourceLexical, domain.SourceSemantic} {
		if sr, ok := t.sources[s]; ok {
			report.Sources = append(report.Sources, sr)
		}
	}
	return report
}
