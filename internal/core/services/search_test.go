package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Seedline-Foundation/Coindailynow-sub003/internal/core/domain"
	"github.com/Seedline-Foundation/Coindailynow-sub003/internal/core/ports/driven/mocks"
	"github.com/Seedline-Foundation/Coindailynow-sub003/internal/core/ports/driving"
	"github.com/Seedline-Foundation/Coindailynow-sub003/internal/postprocessors"
)

type searchFixture struct {
	lexical     *mocks.MockLexicalIndex
	semantic    *mocks.MockSemanticIndex
	embedder    *mocks.MockEmbeddingService
	store       *mocks.MockCacheStore
	engagements *mocks.MockEngagementStore
	metrics     *mocks.MockRankingMetrics
	clock       *fakeClock
	svc         driving.SearchService
}

func newSearchFixture(lexicalHits ...*domain.SourceHit) *searchFixture {
	f := &searchFixture{
		lexical:     mocks.NewMockLexicalIndex(lexicalHits...),
		semantic:    mocks.NewMockSemanticIndex(),
		embedder:    mocks.NewMockEmbeddingService(),
		store:       mocks.NewMockCacheStore(),
		engagements: mocks.NewMockEngagementStore(),
		metrics:     mocks.NewMockRankingMetrics(),
		clock:       newFakeClock(testStart),
	}
	lexicon := domain.DefaultRegionalLexicon()
	cache := NewCacheManager(f.store, nil, DefaultCacheConfig(), f.metrics, nil)
	coordinator := NewRetrievalCoordinator(
		f.lexical,
		createTestServices(f.embedder, f.semantic),
		cache,
		f.clock,
		f.metrics,
		DefaultCoordinatorConfig(),
		nil,
	)
	f.svc = NewSearchService(
		newTestBuilder(),
		coordinator,
		NewFusionEngine(DefaultFusionWeights(), lexicon),
		NewDiversityReranker(DefaultDiversityConfig()),
		cache,
		NewProfileBuilder(f.engagements, lexicon, DefaultProfileConfig(), f.clock, nil),
		postprocessors.DefaultPipeline(f.clock),
		f.clock,
		f.metrics,
		nil,
	)
	return f
}

func hasWarning(result *domain.SearchResult, code string) bool {
	for _, w := range result.Warnings {
		if w == code {
			return true
		}
	}
	return false
}

func searchKeys(store *mocks.MockCacheStore) []string {
	var out []string
	for _, k := range store.Keys() {
		if strings.HasPrefix(k, NamespaceSearch+":") {
			out = append(out, k)
		}
	}
	return out
}

func TestSearchService_LexicalOnly(t *testing.T) {
	f := newSearchFixture(
		hit("a1", "Bitcoin adoption grows", 2.5),
		hit("a2", "Exchange volumes rise", 2.1),
	)

	result, err := f.svc.Search(context.Background(), "bitcoin nigeria", domain.SearchOptions{})
	require.NoError(t, err)

	require.Len(t, result.Hits, 2)
	assert.Equal(t, 2, result.Total)
	assert.Equal(t, domain.SearchMethodLexical, result.SearchMethod)
	assert.Equal(t, 2.5, result.Hits[0].Score)
	assert.Equal(t, "a1", result.Hits[0].ID)
	assert.Empty(t, result.Warnings)
	assert.False(t, result.Cached)
	assert.Equal(t, 0, f.semantic.Calls())
	assert.Equal(t, "bitcoin nigeria", f.lexical.LastQuery())

	require.NotNil(t, result.LanguageProcessing)
	assert.Equal(t, "sw", result.LanguageProcessing.Detected)
	require.NotNil(t, result.Degradation)
	assert.Equal(t, domain.SourceStatusSkipped, result.Degradation.Source(domain.SourceSemantic).Status)
}

func TestSearchService_AllSourcesFailed(t *testing.T) {
	f := newSearchFixture()
	f.lexical.SetError(errors.New("index down"))
	f.semantic.SetError(errors.New("vector store down"))

	opts := domain.SearchOptions{IncludeSemanticRanking: true}
	result, err := f.svc.Search(context.Background(), "bitcoin", opts)

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrAllSourcesFailed))
	require.NotNil(t, result)
	assert.Equal(t, 0, result.Total)
	assert.NotNil(t, result.Hits)
	assert.Empty(t, result.Hits)
	assert.Equal(t, domain.SearchMethodFailed, result.SearchMethod)
	assert.True(t, hasWarning(result, domain.WarningAllSourcesFailed))
	assert.NotEmpty(t, result.Error)
	assert.Empty(t, searchKeys(f.store), "failed results are never cached")
	assert.Equal(t, []domain.SearchMethod{domain.SearchMethodFailed}, f.metrics.Searches)
}

func TestSearchService_SemanticFailureFallsBack(t *testing.T) {
	f := newSearchFixture(hit("a1", "Luno adds naira pairs", 1.4))
	f.semantic.SetError(errors.New("vector store down"))

	opts := domain.SearchOptions{IncludeSemanticRanking: true}
	result, err := f.svc.Search(context.Background(), "luno", opts)
	require.NoError(t, err)

	require.Len(t, result.Hits, 1)
	assert.Equal(t, domain.SearchMethodLexicalFallback, result.SearchMethod)
	assert.True(t, hasWarning(result, domain.WarningSemanticFailed))
	assert.Empty(t, searchKeys(f.store), "degraded results are not cached")
}

func TestSearchService_Hybrid(t *testing.T) {
	f := newSearchFixture(hit("a1", "Bitcoin in Lagos", 1.0), hit("a2", "Ethereum update", 0.8))
	f.semantic.SetHits(hit("a1", "Bitcoin in Lagos", 0.5), hit("a3", "Crypto remittances", 0.9))

	opts := domain.SearchOptions{IncludeSemanticRanking: true}
	result, err := f.svc.Search(context.Background(), "crypto", opts)
	require.NoError(t, err)

	assert.Equal(t, domain.SearchMethodHybrid, result.SearchMethod)
	require.Len(t, result.Hits, 3)
	assert.Equal(t, "a1", result.Hits[0].ID)
	assert.Equal(t, domain.OriginBoth, result.Hits[0].Origin)
	assert.InDelta(t, 1.15, result.Hits[0].Score, 1e-9)
	assert.Equal(t, 1, f.embedder.Calls())
	assert.Len(t, searchKeys(f.store), 1)
}

func TestSearchService_SecondCallIsCached(t *testing.T) {
	f := newSearchFixture(hit("a1", "Bitcoin adoption grows", 2.5))
	ctx := context.Background()

	first, err := f.svc.Search(ctx, "Bitcoin", domain.SearchOptions{})
	require.NoError(t, err)
	assert.False(t, first.Cached)

	// Normalization makes these the same query
	second, err := f.svc.Search(ctx, "  bitcoin ", domain.SearchOptions{})
	require.NoError(t, err)

	assert.True(t, second.Cached)
	assert.Equal(t, first.Hits, second.Hits)
	assert.Equal(t, 1, f.lexical.Calls())
	assert.LessOrEqual(t, second.Performance.Total, first.Performance.Total)
	assert.Equal(t, 1, f.metrics.CacheHits[NamespaceSearch])
	assert.Len(t, f.metrics.Searches, 2)

	// Different options produce a different key
	_, err = f.svc.Search(ctx, "bitcoin", domain.SearchOptions{Limit: 5})
	require.NoError(t, err)
	assert.Equal(t, 2, f.lexical.Calls())
}

func TestSearchService_InvalidQuery(t *testing.T) {
	f := newSearchFixture()

	tests := []struct {
		name  string
		query string
		opts  domain.SearchOptions
	}{
		{"empty", "", domain.SearchOptions{}},
		{"whitespace", "   ", domain.SearchOptions{}},
		{"too long", strings.Repeat("b", domain.MaxQueryLength+1), domain.SearchOptions{}},
		{"bad diversity", "bitcoin", domain.SearchOptions{DiversityLevel: "extreme"}},
		{"bad limit", "bitcoin", domain.SearchOptions{Limit: 1000}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := f.svc.Search(context.Background(), tt.query, tt.opts)
			assert.Nil(t, result)
			assert.True(t, errors.Is(err, domain.ErrInvalidQuery), "got %v", err)
		})
	}
	assert.Equal(t, 0, f.lexical.Calls())
}

func TestSearchService_LimitAndTotal(t *testing.T) {
	f := newSearchFixture(
		hit("a1", "one", 5), hit("a2", "two", 4), hit("a3", "three", 3),
		hit("a4", "four", 2), hit("a5", "five", 1),
	)

	result, err := f.svc.Search(context.Background(), "crypto", domain.SearchOptions{Limit: 3})
	require.NoError(t, err)

	assert.Equal(t, []string{"a1", "a2", "a3"}, ids(result.Hits))
	assert.Equal(t, 5, result.Total, "total counts fused candidates before truncation")
	assert.Equal(t, 6, f.lexical.LastOptions().Limit)
}

func TestSearchService_Diversity(t *testing.T) {
	h := func(id, category string, score float64) *domain.SourceHit {
		sh := hit(id, "item "+id, score)
		sh.Category = category
		return sh
	}
	f := newSearchFixture(
		h("1", "crypto-news", 0.9),
		h("2", "crypto-news", 0.85),
		h("3", "defi", 0.8),
		h("4", "regulation", 0.75),
	)

	result, err := f.svc.Search(context.Background(), "crypto", domain.SearchOptions{DiversityLevel: domain.DiversityMedium})
	require.NoError(t, err)

	assert.Equal(t, []string{"1", "3", "4", "2"}, ids(result.Hits))
	assert.InDelta(t, 0.45, result.Hits[3].FinalScore, 1e-9)
}

func TestSearchService_MalformedHitsWarn(t *testing.T) {
	f := newSearchFixture(hit("", "missing id", 1), hit("a1", "Bitcoin", 0.5))

	result, err := f.svc.Search(context.Background(), "bitcoin", domain.SearchOptions{})
	require.NoError(t, err)

	assert.Equal(t, []string{"a1"}, ids(result.Hits))
	assert.True(t, hasWarning(result, domain.WarningMalformedHits))
	assert.Equal(t, domain.SearchMethodLexical, result.SearchMethod)
}

func TestSearchService_PostProcessing(t *testing.T) {
	long := strings.Repeat("naira ", 100)
	h := hit("a1", "Naira outlook", 1)
	h.Content = long
	f := newSearchFixture(h)

	opts := domain.SearchOptions{LimitBandwidth: true, TrackAnalytics: true}
	result, err := f.svc.Search(context.Background(), "naira", opts)
	require.NoError(t, err)

	require.Len(t, result.Hits, 1)
	assert.LessOrEqual(t, len(result.Hits[0].Content), postprocessors.BandwidthContentChars)
	require.NotNil(t, result.Analytics)
	assert.Equal(t, 1, result.Analytics.ResultCount)
	assert.NotEmpty(t, result.Analytics.QueryID)
}

func TestSearchService_PersonalizedSearch(t *testing.T) {
	english := hit("x", "Plain one", 1.0)
	english.Language = "en"
	swahili := hit("y", "Plain two", 0.95)
	swahili.Language = "sw"

	f := newSearchFixture(english, swahili)
	seedEngagements(f.engagements)

	result, err := f.svc.PersonalizedSearch(context.Background(), "plain", "u1", domain.SearchOptions{})
	require.NoError(t, err)

	require.Len(t, result.Hits, 2)
	assert.Equal(t, "y", result.Hits[0].ID, "preferred language outranks a slightly higher lexical score")
	assert.InDelta(t, 1.2, result.Hits[0].Signals.Personalization, 1e-9)
	assert.InDelta(t, 1.14, result.Hits[0].Score, 1e-9)
	assert.Empty(t, result.Warnings)

	// Personalized and anonymous results are cached under different keys
	_, err = f.svc.Search(context.Background(), "plain", domain.SearchOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, f.lexical.Calls())
}

func TestSearchService_PersonalizedSearch_ProfileUnavailable(t *testing.T) {
	f := newSearchFixture(hit("a1", "Bitcoin", 1.0))

	result, err := f.svc.PersonalizedSearch(context.Background(), "bitcoin", "ghost", domain.SearchOptions{})
	require.NoError(t, err)

	require.Len(t, result.Hits, 1)
	assert.True(t, hasWarning(result, domain.WarningProfileUnavailable))
	assert.Equal(t, domain.SearchMethodLexical, result.SearchMethod)
	assert.Equal(t, 1.0, result.Hits[0].Signals.Personalization)
	assert.Empty(t, searchKeys(f.store), "unpersonalized fallbacks are not cached")
}

func TestSearchService_PersonalizedSearch_RequiresUser(t *testing.T) {
	f := newSearchFixture()

	_, err := f.svc.PersonalizedSearch(context.Background(), "bitcoin", "", domain.SearchOptions{})
	assert.True(t, errors.Is(err, domain.ErrInvalidQuery))
}

func TestSearchService_Suggest(t *testing.T) {
	f := newSearchFixture()
	ctx := context.Background()

	suggestions, err := f.svc.Suggest(ctx, "bit", 0)
	require.NoError(t, err)
	texts := make([]string, len(suggestions))
	for i, s := range suggestions {
		texts[i] = s.Text
	}
	assert.Equal(t, []string{"Bitcoin", "Bitcoin Africa", "Bitcoin price in Naira", "Bitcoin South Africa"}, texts)
	assert.False(t, suggestions[0].Regional)
	assert.True(t, suggestions[1].Regional)

	suggestions, err = f.svc.Suggest(ctx, "BIT", 2)
	require.NoError(t, err)
	assert.Len(t, suggestions, 2)

	suggestions, err = f.svc.Suggest(ctx, "naira", 10)
	require.NoError(t, err)
	require.Len(t, suggestions, 1)
	assert.Equal(t, "Bitcoin price in Naira", suggestions[0].Text)

	suggestions, err = f.svc.Suggest(ctx, "  ", 10)
	require.NoError(t, err)
	assert.Empty(t, suggestions)
}
