package hnsw

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Seedline-Foundation/Coindailynow-sub003/internal/core/domain"
	"github.com/Seedline-Foundation/Coindailynow-sub003/internal/core/ports/driven"
)

func seededIndex(t *testing.T) *SemanticIndex {
	t.Helper()
	idx := NewSemanticIndex(3)
	articles := []*domain.Article{
		{ID: "x", Title: "Bitcoin ETF", Language: "en"},
		{ID: "y", Title: "Ethereum staking", Language: "en"},
		{ID: "z", Title: "Bitcoin kwa M-Pesa", Language: "sw"},
	}
	embeddings := []*driven.ArticleEmbedding{
		{ArticleID: "x", Vector: []float32{1, 0, 0}},
		{ArticleID: "y", Vector: []float32{0, 1, 0}},
		{ArticleID: "z", Vector: []float32{2, 0.2, 0}}, // normalized on insert
		{ArticleID: "gone", Vector: []float32{1, 1, 1}},
		{ArticleID: "y", Vector: []float32{1, 1}},
	}
	n, err := idx.Load(context.Background(), articles, embeddings)
	require.NoError(t, err)
	require.Equal(t, 3, n, "unknown articles and wrong sizes are skipped")
	return idx
}

func TestSemanticIndex_Search(t *testing.T) {
	idx := seededIndex(t)

	hits, err := idx.Search(context.Background(), []float32{1, 0, 0}, driven.SemanticOptions{Limit: 3})
	require.NoError(t, err)
	require.Len(t, hits, 3)

	assert.Equal(t, "x", hits[0].ID)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-5)
	assert.Equal(t, "z", hits[1].ID)
	assert.Equal(t, "y", hits[2].ID)
	assert.InDelta(t, 0.0, hits[2].Score, 1e-5, "orthogonal vectors have zero similarity")

	for _, h := range hits {
		assert.Equal(t, domain.SourceSemantic, h.Origin)
		assert.GreaterOrEqual(t, h.Score, 0.0)
		assert.LessOrEqual(t, h.Score, 1.0)
	}
}

func TestSemanticIndex_Filters(t *testing.T) {
	idx := seededIndex(t)
	ctx := context.Background()

	hits, err := idx.Search(ctx, []float32{1, 0, 0}, driven.SemanticOptions{Limit: 3, Language: "sw"})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "z", hits[0].ID)

	hits, err = idx.Search(ctx, []float32{1, 0, 0}, driven.SemanticOptions{Limit: 3, MinSimilarity: 0.5})
	require.NoError(t, err)
	assert.Len(t, hits, 2)

	hits, err = idx.Search(ctx, []float32{1, 0, 0}, driven.SemanticOptions{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, hits, 1)
}

func TestSemanticIndex_SearchOrder(t *testing.T) {
	idx := NewSemanticIndex(2)
	vectors := map[string][]float32{
		"far":     {0, 1},
		"near":    {1, 0.1},
		"nearest": {1, 0},
		"mid":     {1, 1},
		"sw-near": {1, 0.05},
	}
	for _, id := range []string{"far", "near", "nearest", "mid", "sw-near"} {
		lang := "en"
		if id == "sw-near" {
			lang = "sw"
		}
		require.NoError(t, idx.Add(&domain.Article{ID: id, Title: id, Language: lang}, vectors[id]))
	}

	hits, err := idx.Search(context.Background(), []float32{1, 0}, driven.SemanticOptions{Limit: 5})
	require.NoError(t, err)
	require.Len(t, hits, 5)
	for i := 1; i < len(hits); i++ {
		assert.GreaterOrEqual(t, hits[i-1].Score, hits[i].Score, "hits must be most similar first")
	}
	assert.Equal(t, "nearest", hits[0].ID)
	assert.Equal(t, "far", hits[4].ID)

	// A filtered-out closer match does not take the place of an allowed one
	hits, err = idx.Search(context.Background(), []float32{1, 0}, driven.SemanticOptions{Limit: 2, Language: "en"})
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, []string{"nearest", "near"}, []string{hits[0].ID, hits[1].ID})
}

func TestSemanticIndex_Replace(t *testing.T) {
	idx := seededIndex(t)

	require.NoError(t, idx.Add(&domain.Article{ID: "y", Title: "Ethereum staking", Language: "en"}, []float32{0, 0, 1}))
	assert.Equal(t, 3, idx.Len())

	hits, err := idx.Search(context.Background(), []float32{0, 0, 1}, driven.SemanticOptions{Limit: 3, MinSimilarity: 0.9})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "y", hits[0].ID)
}

func TestSemanticIndex_Errors(t *testing.T) {
	idx := NewSemanticIndex(3)
	ctx := context.Background()

	hits, err := idx.Search(ctx, []float32{1, 0, 0}, driven.SemanticOptions{Limit: 5})
	require.NoError(t, err)
	assert.Empty(t, hits, "empty graph")

	_, err = idx.Search(ctx, []float32{1, 0}, driven.SemanticOptions{})
	var mismatch ErrDimensionMismatch
	assert.True(t, errors.As(err, &mismatch))
	assert.Equal(t, 2, mismatch.Got)

	assert.Error(t, idx.Add(&domain.Article{ID: "a"}, []float32{1}))

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = idx.Search(cancelled, []float32{1, 0, 0}, driven.SemanticOptions{})
	assert.ErrorIs(t, err, context.Canceled)

	assert.NoError(t, idx.HealthCheck(ctx))
}
