// Package hnsw provides an in-process vector index over article embeddings.
package hnsw

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/coder/hnsw"

	"github.com/Seedline-Foundation/Coindailynow-sub003/internal/core/domain"
	"github.com/Seedline-Foundation/Coindailynow-sub003/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.SemanticIndex = (*SemanticIndex)(nil)

// languageOverfetch widens the neighbour search when results are filtered
// by language afterwards
const languageOverfetch = 4

// ErrDimensionMismatch reports a vector of the wrong size
type ErrDimensionMismatch struct {
	Expected int
	Got      int
}

func (e ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Got)
}

// SemanticIndex implements driven.SemanticIndex with a coder/hnsw graph.
// Vectors are normalized so cosine similarity is 1 - distance.
type SemanticIndex struct {
	mu         sync.RWMutex
	graph      *hnsw.Graph[uint64]
	dimensions int

	// ID mapping (article id <-> graph key)
	idMap    map[string]uint64
	articles map[uint64]*domain.Article
	nextKey  uint64
}

// NewSemanticIndex creates an empty index for vectors of the given size
func NewSemanticIndex(dimensions int) *SemanticIndex {
	graph := hnsw.NewGraph[uint64]()
	graph.Distance = hnsw.CosineDistance
	graph.M = 16
	graph.EfSearch = 40
	graph.Ml = 0.25

	return &SemanticIndex{
		graph:      graph,
		dimensions: dimensions,
		idMap:      make(map[string]uint64),
		articles:   make(map[uint64]*domain.Article),
	}
}

// Add inserts or replaces the vector of an article.
// Replaced vectors are orphaned rather than deleted from the graph.
func (s *SemanticIndex) Add(article *domain.Article, vector []float32) error {
	if len(vector) != s.dimensions {
		return ErrDimensionMismatch{Expected: s.dimensions, Got: len(vector)}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.idMap[article.ID]; ok {
		delete(s.articles, existing)
	}

	key := s.nextKey
	s.nextKey++

	vec := make([]float32, len(vector))
	copy(vec, vector)
	normalize(vec)

	s.graph.Add(hnsw.MakeNode(key, vec))
	s.idMap[article.ID] = key
	s.articles[key] = article
	return nil
}

// Load adds every embedding whose article is known and returns the number added.
// Embeddings of unknown articles or the wrong size are skipped.
func (s *SemanticIndex) Load(ctx context.Context, articles []*domain.Article, embeddings []*driven.ArticleEmbedding) (int, error) {
	byID := make(map[string]*domain.Article, len(articles))
	for _, a := range articles {
		byID[a.ID] = a
	}

	added := 0
	for _, e := range embeddings {
		if err := ctx.Err(); err != nil {
			return added, err
		}
		article, ok := byID[e.ArticleID]
		if !ok || len(e.Vector) != s.dimensions {
			continue
		}
		if err := s.Add(article, e.Vector); err != nil {
			return added, err
		}
		added++
	}
	return added, nil
}

// Search returns the nearest articles with a similarity of at least
// opts.MinSimilarity, most similar first
func (s *SemanticIndex) Search(ctx context.Context, embedding []float32, opts driven.SemanticOptions) ([]*domain.SourceHit, error) {
	if len(embedding) != s.dimensions {
		return nil, ErrDimensionMismatch{Expected: s.dimensions, Got: len(embedding)}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.graph.Len() == 0 {
		return []*domain.SourceHit{}, nil
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = domain.DefaultSearchLimit
	}
	k := limit
	if opts.Language != "" {
		k *= languageOverfetch
	}

	query := make([]float32, len(embedding))
	copy(query, embedding)
	normalize(query)

	nodes := s.graph.Search(query, k)

	// The graph returns nodes in heap order; rank before filtering so a
	// filtered-out node never displaces a closer match
	type scored struct {
		article *domain.Article
		score   float64
	}
	candidates := make([]scored, 0, len(nodes))
	for _, node := range nodes {
		article, ok := s.articles[node.Key]
		if !ok {
			continue // orphaned by a replacement
		}
		candidates = append(candidates, scored{article: article, score: similarity(s.graph.Distance(query, node.Value))})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	hits := make([]*domain.SourceHit, 0, min(len(candidates), limit))
	for _, c := range candidates {
		if opts.Language != "" && c.article.Language != opts.Language {
			continue
		}
		if c.score < opts.MinSimilarity {
			continue
		}
		hits = append(hits, c.article.Hit(c.score, domain.SourceSemantic))
		if len(hits) == limit {
			break
		}
	}
	return hits, nil
}

// HealthCheck always succeeds for the in-process index
func (s *SemanticIndex) HealthCheck(_ context.Context) error {
	return nil
}

// Len returns the number of live vectors
func (s *SemanticIndex) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.articles)
}

// similarity converts cosine distance into a similarity within [0, 1]
func similarity(distance float32) float64 {
	return math.Min(math.Max(1-float64(distance), 0), 1)
}

func normalize(v []float32) {
	var sumSquares float64
	for _, val := range v {
		sumSquares += float64(val) * float64(val)
	}
	if sumSquares == 0 {
		return
	}
	inv := float32(1.0 / math.Sqrt(sumSquares))
	for i := range v {
		v[i] *= inv
	}
}
