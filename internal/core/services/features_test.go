package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"testing"
	"time"

	"github.com/cucumber/godog"

	"github.com/Seedline-Foundation/Coindailynow-sub003/internal/core/domain"
)

// rankingWorld holds the state of one scenario
type rankingWorld struct {
	search      *searchFixture
	coordinator *coordinatorFixture
	opts        domain.SearchOptions
	result      *domain.SearchResult
	searchErr   error
	ranked      []domain.FusedResult
	reranked    []domain.FusedResult
	outcome     *RetrievalOutcome
}

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: initializeRankingScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features"},
			Strict:   true,
			TestingT: t,
		},
	}
	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}

func initializeRankingScenario(sc *godog.ScenarioContext) {
	w := &rankingWorld{}
	sc.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
		*w = rankingWorld{search: newSearchFixture()}
		return ctx, nil
	})

	sc.Step(`^the lexical index returns:$`, w.lexicalIndexReturns)
	sc.Step(`^the lexical index fails with "([^"]*)"$`, w.lexicalIndexFails)
	sc.Step(`^the semantic index fails with "([^"]*)"$`, w.semanticIndexFails)
	sc.Step(`^semantic ranking is (enabled|disabled)$`, w.semanticRanking)
	sc.Step(`^I search for "([^"]*)"$`, w.searchFor)
	sc.Step(`^the result has (\d+) hits?$`, w.resultHasHits)
	sc.Step(`^the total is (\d+)$`, w.totalIs)
	sc.Step(`^the search method is "([^"]*)"$`, w.searchMethodIs)
	sc.Step(`^the top hit score is ([\d.]+)$`, w.topHitScoreIs)
	sc.Step(`^the warnings include "([^"]*)"$`, w.warningsInclude)

	sc.Step(`^ranked results:$`, w.rankedResults)
	sc.Step(`^diversity level "([^"]*)" is applied$`, w.diversityApplied)
	sc.Step(`^the final score of "([^"]*)" is below ([\d.]+)$`, w.finalScoreBelow)
	sc.Step(`^the top (\d+) results span at least (\d+) categories$`, w.topSpanCategories)

	sc.Step(`^a retrieval request with semantic ranking that started (\d+) ms ago$`, w.requestStartedAgo)
	sc.Step(`^the sources are queried$`, w.sourcesQueried)
	sc.Step(`^the semantic index is not called$`, w.semanticNotCalled)
	sc.Step(`^the embedding service is not called$`, w.embeddingNotCalled)
	sc.Step(`^the outcome warnings include "([^"]*)"$`, w.outcomeWarningsInclude)
}

// tableRows maps each data row to its header names
func tableRows(table *godog.Table) []map[string]string {
	if len(table.Rows) == 0 {
		return nil
	}
	header := table.Rows[0].Cells
	rows := make([]map[string]string, 0, len(table.Rows)-1)
	for _, row := range table.Rows[1:] {
		m := make(map[string]string, len(header))
		for i, cell := range row.Cells {
			m[header[i].Value] = cell.Value
		}
		rows = append(rows, m)
	}
	return rows
}

func (w *rankingWorld) lexicalIndexReturns(table *godog.Table) error {
	var hits []*domain.SourceHit
	for _, row := range tableRows(table) {
		score, err := strconv.ParseFloat(row["score"], 64)
		if err != nil {
			return err
		}
		hits = append(hits, hit(row["id"], row["title"], score))
	}
	w.search.lexical.SetHits(hits...)
	return nil
}

func (w *rankingWorld) lexicalIndexFails(msg string) error {
	w.search.lexical.SetError(errors.New(msg))
	return nil
}

func (w *rankingWorld) semanticIndexFails(msg string) error {
	w.search.semantic.SetError(errors.New(msg))
	return nil
}

func (w *rankingWorld) semanticRanking(state string) error {
	w.opts.IncludeSemanticRanking = state == "enabled"
	return nil
}

func (w *rankingWorld) searchFor(query string) error {
	w.result, w.searchErr = w.search.svc.Search(context.Background(), query, w.opts)
	if w.result == nil {
		return fmt.Errorf("no result envelope: %v", w.searchErr)
	}
	return nil
}

func (w *rankingWorld) resultHasHits(n int) error {
	if len(w.result.Hits) != n {
		return fmt.Errorf("expected %d hits, got %d", n, len(w.result.Hits))
	}
	return nil
}

func (w *rankingWorld) totalIs(n int) error {
	if w.result.Total != n {
		return fmt.Errorf("expected total %d, got %d", n, w.result.Total)
	}
	return nil
}

func (w *rankingWorld) searchMethodIs(method string) error {
	if string(w.result.SearchMethod) != method {
		return fmt.Errorf("expected search method %q, got %q", method, w.result.SearchMethod)
	}
	return nil
}

func (w *rankingWorld) topHitScoreIs(score float64) error {
	if len(w.result.Hits) == 0 {
		return errors.New("no hits")
	}
	if got := w.result.Hits[0].Score; !approx(got, score) {
		return fmt.Errorf("expected top score %v, got %v", score, got)
	}
	return nil
}

func (w *rankingWorld) warningsInclude(code string) error {
	if !hasWarning(w.result, code) {
		return fmt.Errorf("warning %q not in %v", code, w.result.Warnings)
	}
	return nil
}

func (w *rankingWorld) rankedResults(table *godog.Table) error {
	for _, row := range tableRows(table) {
		score, err := strconv.ParseFloat(row["score"], 64)
		if err != nil {
			return err
		}
		w.ranked = append(w.ranked, categorized(row["id"], row["category"], score))
	}
	return nil
}

func (w *rankingWorld) diversityApplied(level string) error {
	w.reranked = NewDiversityReranker(DefaultDiversityConfig()).Rerank(w.ranked, domain.DiversityLevel(level))
	return nil
}

func (w *rankingWorld) finalScoreBelow(id string, limit float64) error {
	for _, r := range w.reranked {
		if r.ID == id {
			if r.FinalScore >= limit {
				return fmt.Errorf("expected final score of %s below %v, got %v", id, limit, r.FinalScore)
			}
			return nil
		}
	}
	return fmt.Errorf("result %s not found", id)
}

func (w *rankingWorld) topSpanCategories(top, minCategories int) error {
	if len(w.reranked) < top {
		return fmt.Errorf("only %d results", len(w.reranked))
	}
	categories := make(map[string]bool)
	for _, r := range w.reranked[:top] {
		categories[r.Category] = true
	}
	if len(categories) < minCategories {
		return fmt.Errorf("expected at least %d categories in the top %d, got %d", minCategories, top, len(categories))
	}
	return nil
}

func (w *rankingWorld) requestStartedAgo(ms int) error {
	w.coordinator = newCoordinatorFixture()
	w.coordinator.clock.Advance(time.Duration(ms) * time.Millisecond)
	return nil
}

func (w *rankingWorld) sourcesQueried() error {
	w.outcome = w.coordinator.coord.Retrieve(context.Background(), testRequest(true))
	return nil
}

func (w *rankingWorld) semanticNotCalled() error {
	if calls := w.coordinator.semantic.Calls(); calls != 0 {
		return fmt.Errorf("semantic index called %d times", calls)
	}
	return nil
}

func (w *rankingWorld) embeddingNotCalled() error {
	if calls := w.coordinator.embedder.Calls(); calls != 0 {
		return fmt.Errorf("embedding service called %d times", calls)
	}
	return nil
}

func (w *rankingWorld) outcomeWarningsInclude(code string) error {
	warnings := w.outcome.Tracker.Report().Warnings
	for _, warning := range warnings {
		if warning == code {
			return nil
		}
	}
	return fmt.Errorf("warning %q not in %v", code, warnings)
}
