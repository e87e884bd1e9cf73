package services

import (
	"errors"
	"math"
	"testing"

	"github.com/Seedline-Foundation/Coindailynow-sub003/internal/core/domain"
)

const epsilon = 1e-9

func approx(a, b float64) bool {
	return math.Abs(a-b) < epsilon
}

func newTestFusion() *FusionEngine {
	return NewFusionEngine(DefaultFusionWeights(), domain.DefaultRegionalLexicon())
}

func TestFusionEngine_LexicalOnly(t *testing.T) {
	e := newTestFusion()
	req := &domain.RetrievalRequest{Flags: domain.RequestFlags{BoostRegionalTerms: true}}

	lexical := []*domain.SourceHit{
		hit("a1", "Bitcoin adoption in Nigeria", 2.5),
		hit("a2", "Bitcoin halving explained", 2.1),
	}
	out := e.Fuse(lexical, nil, req, nil)

	if len(out.Results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(out.Results))
	}
	top := out.Results[0]
	if top.ID != "a1" || !approx(top.Score, 2.5) {
		t.Errorf("expected a1 with 2.5, got %s with %v", top.ID, top.Score)
	}
	if top.Origin != domain.OriginLexical || top.FinalScore != top.Score {
		t.Errorf("unexpected origin/final score: %+v", top)
	}
	if top.Signals.Boost != 1 || top.Signals.Personalization != 1 {
		t.Errorf("expected neutral multipliers, got %+v", top.Signals)
	}
}

func TestFusionEngine_RegionalBoost(t *testing.T) {
	e := newTestFusion()

	tagged := &domain.SourceHit{ID: "a1", Title: "Exchange volumes climb", Tags: []string{"Luno"}, Score: 2.0}
	plain := hit("a2", "Exchange volumes climb", 2.4)

	out := e.Fuse([]*domain.SourceHit{plain, tagged}, nil, &domain.RetrievalRequest{Flags: domain.RequestFlags{BoostRegionalTerms: true}}, nil)
	if out.Results[0].ID != "a1" || !approx(out.Results[0].Score, 2.6) {
		t.Errorf("expected boosted a1 at 2.6 first, got %s at %v", out.Results[0].ID, out.Results[0].Score)
	}
	if out.Results[0].Signals.Boost != 1.3 {
		t.Errorf("expected boost 1.3 recorded, got %v", out.Results[0].Signals.Boost)
	}

	out = e.Fuse([]*domain.SourceHit{plain, tagged}, nil, &domain.RetrievalRequest{}, nil)
	if out.Results[0].ID != "a2" {
		t.Errorf("expected no boost when disabled, got %s first", out.Results[0].ID)
	}
}

func TestFusionEngine_Hybrid(t *testing.T) {
	e := newTestFusion()
	req := &domain.RetrievalRequest{}

	lexical := []*domain.SourceHit{hit("a1", "Bitcoin", 1.0), hit("a2", "Ethereum", 0.9)}
	semantic := []*domain.SourceHit{hit("a1", "Bitcoin", 0.8), hit("a3", "Stablecoins", 0.95)}

	out := e.Fuse(lexical, semantic, req, nil)
	if len(out.Results) != 3 {
		t.Fatalf("expected 3 merged results, got %d", len(out.Results))
	}

	byID := make(map[string]domain.FusedResult)
	for _, r := range out.Results {
		byID[r.ID] = r
	}
	if r := byID["a1"]; r.Origin != domain.OriginBoth || !approx(r.Score, 1.24) {
		t.Errorf("expected a1 from both with 1.0 + 0.3*0.8, got %s %v", r.Origin, r.Score)
	}
	if r := byID["a3"]; r.Origin != domain.OriginSemantic || !approx(r.Score, 0.95) {
		t.Errorf("expected semantic-only a3 at 0.95, got %s %v", r.Origin, r.Score)
	}
	if ids(out.Results)[0] != "a1" {
		t.Errorf("expected a1 first, got %v", ids(out.Results))
	}
}

func TestFusionEngine_BothSourcesNeverBelowLexicalOnly(t *testing.T) {
	e := newTestFusion()
	req := &domain.RetrievalRequest{Flags: domain.RequestFlags{BoostRegionalTerms: true}}

	lexical := []*domain.SourceHit{hit("a1", "Naira outlook", 1.7)}
	lexOnly := e.Fuse(lexical, nil, req, nil).Results[0].Score

	for _, sim := range []float64{0, 0.2, 1, 3} {
		both := e.Fuse(lexical, []*domain.SourceHit{hit("a1", "Naira outlook", sim)}, req, nil).Results[0].Score
		if both < lexOnly {
			t.Errorf("similarity %v: fused %v below lexical-only %v", sim, both, lexOnly)
		}
	}
}

func TestFusionEngine_ClampsSemanticScore(t *testing.T) {
	e := newTestFusion()

	out := e.Fuse(nil, []*domain.SourceHit{hit("a1", "Bitcoin", 1.7)}, &domain.RetrievalRequest{}, nil)
	if out.Results[0].Score != 1 {
		t.Errorf("expected clamped similarity 1, got %v", out.Results[0].Score)
	}
}

func TestFusionEngine_SkipsMalformedHits(t *testing.T) {
	e := newTestFusion()

	lexical := []*domain.SourceHit{
		hit("a1", "Bitcoin", 1.0),
		nil,
		{ID: "", Title: "no id", Score: 1},
		{ID: "a2", Title: "negative", Score: -1},
		hit("a3", "Ethereum", 0.5),
	}
	semantic := []*domain.SourceHit{{ID: "a4", Score: math.NaN()}}

	out := e.Fuse(lexical, semantic, &domain.RetrievalRequest{}, nil)
	if out.Skipped != 4 {
		t.Errorf("expected 4 skipped hits, got %d", out.Skipped)
	}
	if got := ids(out.Results); len(got) != 2 || got[0] != "a1" || got[1] != "a3" {
		t.Errorf("expected [a1 a3], got %v", got)
	}
	for _, h := range lexical {
		if err := h.Validate(); err != nil && !errors.Is(err, domain.ErrMalformedHit) {
			t.Errorf("unexpected validation error type: %v", err)
		}
	}
}

func TestFusionEngine_DeduplicatesWithinSource(t *testing.T) {
	e := newTestFusion()

	out := e.Fuse(
		[]*domain.SourceHit{hit("a1", "Bitcoin", 2), hit("a1", "Bitcoin", 1)},
		[]*domain.SourceHit{hit("a2", "Luno", 0.5), hit("a2", "Luno", 0.4)},
		&domain.RetrievalRequest{}, nil,
	)
	if len(out.Results) != 2 {
		t.Fatalf("expected duplicates removed, got %v", ids(out.Results))
	}
	if out.Results[0].Score != 2 {
		t.Errorf("expected first lexical occurrence kept, got %v", out.Results[0].Score)
	}
}

func TestFusionEngine_StableOnTies(t *testing.T) {
	e := newTestFusion()

	out := e.Fuse(
		[]*domain.SourceHit{hit("l1", "One", 0.5), hit("l2", "Two", 0.5)},
		[]*domain.SourceHit{hit("s1", "Three", 0.5)},
		&domain.RetrievalRequest{}, nil,
	)
	if got := ids(out.Results); got[0] != "l1" || got[1] != "l2" || got[2] != "s1" {
		t.Errorf("expected insertion order on ties, got %v", got)
	}
}

func TestFusionEngine_Personalization(t *testing.T) {
	e := newTestFusion()
	profile := &domain.UserProfile{
		UserID:             "u1",
		PreferredLanguages: []string{"sw"},
		TopicInterests:     map[string]float64{"defi": 1, "mobile money": 0.5},
		Region:             "Kenya",
	}

	lexical := []*domain.SourceHit{
		{ID: "local", Title: "DeFi and mobile money", Language: "sw", Tags: []string{"kenya"}, Score: 1},
		{ID: "plain", Title: "Ethereum roadmap", Language: "en", Score: 1.5},
	}

	out := e.Fuse(lexical, nil, &domain.RetrievalRequest{}, profile)

	// 1.2 (language) * 1.2 (two topics) * 1.15 (local)
	want := 1.2 * 1.2 * 1.15
	if out.Results[0].ID != "local" || !approx(out.Results[0].Score, want) {
		t.Errorf("expected personalized result first at %v, got %s at %v", want, out.Results[0].ID, out.Results[0].Score)
	}
	if !approx(out.Results[0].Signals.Personalization, want) {
		t.Errorf("expected multiplier recorded, got %v", out.Results[0].Signals.Personalization)
	}
	if out.Results[1].Signals.Personalization != 1 {
		t.Errorf("expected neutral multiplier for unrelated result, got %v", out.Results[1].Signals.Personalization)
	}
}

func TestFusionEngine_Personalize(t *testing.T) {
	e := newTestFusion()
	input := []domain.FusedResult{
		{ID: "a", Title: "Bitcoin", Score: 1, FinalScore: 1},
		{ID: "b", Title: "Remittances update", Score: 0.95, FinalScore: 0.95},
	}
	profile := &domain.UserProfile{TopicInterests: map[string]float64{"remittances": 1}}

	out := e.Personalize(input, profile)
	// 0.95 x (1 + 0.1 x 1 topic match) = 1.045 overtakes the unboosted 1.0
	if out[0].ID != "b" || !approx(out[0].Score, 1.045) {
		t.Errorf("expected b boosted to 1.045 first, got %s %v", out[0].ID, out[0].Score)
	}
	if out[1].ID != "a" || !approx(out[1].Score, 1) {
		t.Errorf("expected a unchanged second, got %s %v", out[1].ID, out[1].Score)
	}
	if input[0].ID != "a" || input[1].Score != 0.95 {
		t.Error("input must not be modified")
	}
}

func TestFusionWeightsValidate(t *testing.T) {
	if err := DefaultFusionWeights().Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}

	bad := DefaultFusionWeights()
	bad.SemanticWeight = 1.5
	if err := bad.Validate(); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}

	bad = DefaultFusionWeights()
	bad.RegionalBoost = 0.5
	if err := bad.Validate(); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}
