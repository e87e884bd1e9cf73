package services

import (
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/Seedline-Foundation/Coindailynow-sub003/internal/core/domain"
)

func TestDegradationTracker_Resolve(t *testing.T) {
	type outcome struct {
		status domain.SourceStatus
		reason string
	}

	tests := []struct {
		name     string
		lexical  outcome
		semantic outcome
		method   domain.SearchMethod
		warnings []string
	}{
		{"both ok", outcome{status: domain.SourceStatusOK}, outcome{status: domain.SourceStatusOK}, domain.SearchMethodHybrid, nil},
		{"semantic not requested", outcome{status: domain.SourceStatusOK}, outcome{domain.SourceStatusSkipped, domain.SkipReasonDisabled}, domain.SearchMethodLexical, nil},
		{"semantic over budget", outcome{status: domain.SourceStatusOK}, outcome{domain.SourceStatusSkipped, domain.SkipReasonBudget}, domain.SearchMethodLexicalFallback, []string{domain.WarningSemanticSkipped}},
		{"semantic unavailable", outcome{status: domain.SourceStatusOK}, outcome{domain.SourceStatusSkipped, domain.SkipReasonUnavailable}, domain.SearchMethodLexicalFallback, []string{domain.WarningSemanticSkipped}},
		{"semantic error", outcome{status: domain.SourceStatusOK}, outcome{status: domain.SourceStatusError}, domain.SearchMethodLexicalFallback, []string{domain.WarningSemanticFailed}},
		{"semantic timeout", outcome{status: domain.SourceStatusOK}, outcome{status: domain.SourceStatusTimeout}, domain.SearchMethodLexicalFallback, []string{domain.WarningSemanticTimeout}},
		{"lexical error", outcome{status: domain.SourceStatusError}, outcome{status: domain.SourceStatusOK}, domain.SearchMethodSemanticFallback, []string{domain.WarningLexicalFailed}},
		{"lexical timeout", outcome{status: domain.SourceStatusTimeout}, outcome{status: domain.SourceStatusOK}, domain.SearchMethodSemanticFallback, []string{domain.WarningLexicalTimeout}},
		{"both failed", outcome{status: domain.SourceStatusError}, outcome{status: domain.SourceStatusTimeout}, domain.SearchMethodFailed, []string{domain.WarningAllSourcesFailed}},
		{"lexical failed semantic skipped", outcome{status: domain.SourceStatusTimeout}, outcome{domain.SourceStatusSkipped, domain.SkipReasonDisabled}, domain.SearchMethodFailed, []string{domain.WarningAllSourcesFailed}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tracker := NewDegradationTracker()
			tracker.Record(domain.SourceLexical, tt.lexical.status, time.Millisecond, 0, nil)
			if tt.semantic.status == domain.SourceStatusSkipped {
				tracker.Skip(domain.SourceSemantic, tt.semantic.reason)
			} else {
				tracker.Record(domain.SourceSemantic, tt.semantic.status, time.Millisecond, 0, nil)
			}

			if got := tracker.Resolve(); got != tt.method {
				t.Errorf("expected method %s, got %s", tt.method, got)
			}
			if got := tracker.Warnings(); !reflect.DeepEqual(got, tt.warnings) {
				t.Errorf("expected warnings %v, got %v", tt.warnings, got)
			}
		})
	}
}

func TestDegradationTracker_WarnDeduplicates(t *testing.T) {
	tracker := NewDegradationTracker()
	tracker.Warn(domain.WarningMalformedHits)
	tracker.Warn(domain.WarningMalformedHits)

	if got := tracker.Warnings(); len(got) != 1 {
		t.Errorf("expected 1 warning, got %v", got)
	}
}

func TestDegradationTracker_WarningsDerivedOnResolve(t *testing.T) {
	tracker := NewDegradationTracker()
	tracker.Record(domain.SourceLexical, domain.SourceStatusOK, time.Millisecond, 2, nil)
	tracker.Skip(domain.SourceSemantic, domain.SkipReasonBudget)

	if got := tracker.Warnings(); len(got) != 0 {
		t.Fatalf("expected no warnings before resolution, got %v", got)
	}

	report := tracker.Report()
	if !reflect.DeepEqual(report.Warnings, []string{domain.WarningSemanticSkipped}) {
		t.Errorf("expected skipped warning in report, got %v", report.Warnings)
	}
	if got := tracker.Warnings(); !reflect.DeepEqual(got, []string{domain.WarningSemanticSkipped}) {
		t.Errorf("expected warnings to persist after resolution, got %v", got)
	}
}

func TestDegradationTracker_Report(t *testing.T) {
	tracker := NewDegradationTracker()
	tracker.Record(domain.SourceLexical, domain.SourceStatusOK, 20*time.Millisecond, 4, nil)
	tracker.Record(domain.SourceSemantic, domain.SourceStatusError, 5*time.Millisecond, 0, errors.New("index down"))

	report := tracker.Report()
	if report.Method != domain.SearchMethodLexicalFallback {
		t.Errorf("expected lexical_fallback, got %s", report.Method)
	}
	if len(report.Sources) != 2 || report.Sources[0].Source != domain.SourceLexical {
		t.Fatalf("expected lexical then semantic reports, got %+v", report.Sources)
	}
	if report.Sources[0].Hits != 4 {
		t.Errorf("expected 4 lexical hits, got %d", report.Sources[0].Hits)
	}
	if report.Source(domain.SourceSemantic).Reason != "index down" {
		t.Errorf("expected error text as reason, got %q", report.Source(domain.SourceSemantic).Reason)
	}

	// Resolving again must not duplicate warnings
	report = tracker.Report()
	if len(report.Warnings) != 1 {
		t.Errorf("expected a single warning, got %v", report.Warnings)
	}
}

func TestDegradationTracker_Concurrent(t *testing.T) {
	tracker := NewDegradationTracker()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			tracker.Record(domain.SourceLexical, domain.SourceStatusOK, 0, 1, nil)
		}()
		go func() {
			defer wg.Done()
			tracker.Warn(domain.WarningMalformedHits)
		}()
	}
	wg.Wait()

	if tracker.Status(domain.SourceLexical) != domain.SourceStatusOK {
		t.Error("expected lexical ok")
	}
}
