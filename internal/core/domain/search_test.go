package domain

import (
	"errors"
	"math"
	"testing"
	"time"
)

func TestDefaultSearchOptions(t *testing.T) {
	opts := DefaultSearchOptions()

	if opts.Type != ResultTypeArticles {
		t.Errorf("expected default type articles, got %s", opts.Type)
	}
	if opts.Limit != 20 {
		t.Errorf("expected default limit 20, got %d", opts.Limit)
	}
	if !opts.IncludeSemanticRanking {
		t.Error("expected semantic ranking enabled by default")
	}
	if opts.Budget() != 500*time.Millisecond {
		t.Errorf("expected 500ms budget, got %v", opts.Budget())
	}
	if err := opts.Validate(); err != nil {
		t.Errorf("expected defaults to validate, got %v", err)
	}
}

func TestSearchOptionsValidate(t *testing.T) {
	tests := []struct {
		name    string
		opts    SearchOptions
		wantErr bool
	}{
		{"zero value", SearchOptions{}, false},
		{"mixed type", SearchOptions{Type: ResultTypeMixed}, false},
		{"unknown type", SearchOptions{Type: "videos"}, true},
		{"high diversity", SearchOptions{DiversityLevel: DiversityHigh}, false},
		{"unknown diversity", SearchOptions{DiversityLevel: "extreme"}, true},
		{"negative budget", SearchOptions{MaxResponseTimeMs: -1}, true},
		{"budget too large", SearchOptions{MaxResponseTimeMs: 60000}, true},
		{"negative limit", SearchOptions{Limit: -5}, true},
		{"limit too large", SearchOptions{Limit: MaxSearchLimit + 1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.Validate()
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				if !errors.Is(err, ErrInvalidQuery) {
					t.Errorf("expected ErrInvalidQuery, got %v", err)
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestSearchOptionsWithDefaults(t *testing.T) {
	opts := SearchOptions{DiversityLevel: DiversityLow}.WithDefaults()

	if opts.Type != ResultTypeArticles {
		t.Errorf("expected articles, got %s", opts.Type)
	}
	if opts.Limit != DefaultSearchLimit {
		t.Errorf("expected limit %d, got %d", DefaultSearchLimit, opts.Limit)
	}
	if opts.MaxResponseTimeMs != 500 {
		t.Errorf("expected 500ms, got %d", opts.MaxResponseTimeMs)
	}
	if opts.DiversityLevel != DiversityLow {
		t.Errorf("expected diversity preserved, got %s", opts.DiversityLevel)
	}
}

func TestRetrievalRequestFetchLimit(t *testing.T) {
	tests := []struct {
		limit    int
		expected int
	}{
		{0, DefaultSearchLimit},
		{5, 10},
		{20, 40},
		{80, MaxSearchLimit},
	}

	for _, tt := range tests {
		req := &RetrievalRequest{Limit: tt.limit}
		if got := req.FetchLimit(); got != tt.expected {
			t.Errorf("limit %d: expected fetch limit %d, got %d", tt.limit, tt.expected, got)
		}
	}
}

func TestRetrievalRequestDeadline(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	req := &RetrievalRequest{StartedAt: start, Budget: 500 * time.Millisecond}

	if !req.Deadline().Equal(start.Add(500 * time.Millisecond)) {
		t.Errorf("unexpected deadline %v", req.Deadline())
	}
}

func TestSourceHitValidate(t *testing.T) {
	tests := []struct {
		name    string
		hit     *SourceHit
		wantErr bool
	}{
		{"valid", &SourceHit{ID: "a", Title: "Bitcoin", Score: 1.2}, false},
		{"zero score", &SourceHit{ID: "a", Title: "Bitcoin"}, false},
		{"nil", nil, true},
		{"missing id", &SourceHit{Title: "Bitcoin", Score: 1}, true},
		{"missing title", &SourceHit{ID: "a", Score: 1}, true},
		{"negative score", &SourceHit{ID: "a", Title: "t", Score: -0.1}, true},
		{"nan score", &SourceHit{ID: "a", Title: "t", Score: math.NaN()}, true},
		{"inf score", &SourceHit{ID: "a", Title: "t", Score: math.Inf(1)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.hit.Validate()
			if tt.wantErr && !errors.Is(err, ErrMalformedHit) {
				t.Errorf("expected ErrMalformedHit, got %v", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestSearchMethodDegraded(t *testing.T) {
	tests := []struct {
		method   SearchMethod
		degraded bool
	}{
		{SearchMethodHybrid, false},
		{SearchMethodLexical, false},
		{SearchMethodLexicalFallback, true},
		{SearchMethodSemanticFallback, true},
		{SearchMethodFailed, true},
	}

	for _, tt := range tests {
		if tt.method.Degraded() != tt.degraded {
			t.Errorf("%s: expected Degraded() = %v", tt.method, tt.degraded)
		}
	}
}

func TestDegradationReportSource(t *testing.T) {
	report := &DegradationReport{
		Sources: []SourceReport{
			{Source: SourceLexical, Status: SourceStatusOK, Hits: 3},
			{Source: SourceSemantic, Status: SourceStatusTimeout},
		},
	}

	if got := report.Source(SourceSemantic).Status; got != SourceStatusTimeout {
		t.Errorf("expected timeout, got %s", got)
	}

	var nilReport *DegradationReport
	if got := nilReport.Source(SourceLexical); got.Status != "" {
		t.Errorf("expected zero report, got %+v", got)
	}
}
