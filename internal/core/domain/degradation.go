package domain

import "time"

// SourceStatus is the outcome of one retrieval source for one request
type SourceStatus string

const (
	SourceStatusOK      SourceStatus = "ok"
	SourceStatusTimeout SourceStatus = "timeout"
	SourceStatusError   SourceStatus = "error"
	SourceStatusSkipped SourceStatus = "skipped"
)

// Warning codes attached to degraded results
const (
	WarningSemanticFailed        = "semantic_search_failed"
	WarningSemanticTimeout       = "semantic_search_timeout"
	WarningSemanticSkipped       = "semantic_search_skipped"
	WarningLexicalFailed         = "lexical_search_failed"
	WarningLexicalTimeout        = "lexical_search_timeout"
	WarningAllSourcesFailed      = "all_sources_failed"
	WarningProfileUnavailable    = "personalization_unavailable"
	WarningMalformedHits         = "malformed_hits_skipped"
	WarningCandidatesUnavailable = "candidates_unavailable"
)

// Skip reasons for a source that was never started
const (
	SkipReasonDisabled    = "disabled"
	SkipReasonBudget      = "budget_exhausted"
	SkipReasonUnavailable = "unavailable"
)

// SourceReport is the per-source entry of a DegradationReport
type SourceReport struct {
	Source  Source        `json:"source"`
	Status  SourceStatus  `json:"status"`
	Elapsed time.Duration `json:"elapsed" swaggertype:"integer"`
	Hits    int           `json:"hits"`
	Reason  string        `json:"reason,omitempty"`
}

// DegradationReport summarizes which sources contributed to a result
type DegradationReport struct {
	Sources  []SourceReport `json:"sources"`
	Method   SearchMethod   `json:"method"`
	Warnings []string       `json:"warnings,omitempty"`
}

// Source returns the report for s, or a zero report if s was not recorded
func (r *DegradationReport) Source(s Source) SourceReport {
	if r == nil {
		return SourceReport{Source: s}
	}
	for _, sr := range r.Sources {
		if sr.Source == s {
			return sr
		}
	}
	return SourceReport{Source: s}
}
